// Package fusion assembles the final ordered context from the three content
// sources and decides whether a cached answer can be reused verbatim.
package fusion

import (
	"fmt"

	"github.com/tutorstack/retrieval/config"
	"github.com/tutorstack/retrieval/profile"
	"github.com/tutorstack/retrieval/schema"
)

// Strategy merges per-source chunk lists into one ordered context.
type Strategy interface {
	Name() string
	Fuse(textbook, generated, web []schema.Chunk, p profile.Profile) []schema.Chunk
}

// NewStrategy builds the configured strategy. The priority strategy is the
// only one that honors the source-ordering contract; rrf exists to compare
// rankings offline.
func NewStrategy(cfg config.FusionConfig) (Strategy, error) {
	switch cfg.Strategy {
	case "", "priority":
		return &PriorityStrategy{}, nil
	case "rrf":
		return newRRFStrategy(cfg.Params), nil
	default:
		return nil, fmt.Errorf("fusion: unknown strategy %q", cfg.Strategy)
	}
}

// VerbatimHit reports whether the top generated-answer score clears the
// mode's verbatim-reuse threshold. The comparison is inclusive and runs
// before any web retrieval so a reusable answer never costs a web query.
func VerbatimHit(topScore float64, p profile.Profile) bool {
	return topScore > 0 && topScore >= p.VerbatimThreshold
}

// NeedWeb reports whether combined textbook and generated coverage is thin
// enough to justify a supplementary web-content query.
func NeedWeb(textbook, generated []schema.Chunk, p profile.Profile) bool {
	return len(textbook)+len(generated) < p.CoverageMin
}
