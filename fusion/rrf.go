package fusion

import (
	"sort"

	"github.com/tutorstack/retrieval/profile"
	"github.com/tutorstack/retrieval/schema"
)

const defaultRRFK = 60

// rrfStrategy ranks chunks by Reciprocal Rank Fusion across the three source
// lists. It ignores the source-priority contract on purpose and exists only
// to compare rankings against the priority strategy offline.
type rrfStrategy struct {
	k int
}

func newRRFStrategy(params map[string]interface{}) *rrfStrategy {
	k := defaultRRFK
	if raw, ok := params["k"]; ok {
		switch v := raw.(type) {
		case int:
			k = v
		case float64:
			k = int(v)
		}
	}
	if k <= 0 {
		k = defaultRRFK
	}
	return &rrfStrategy{k: k}
}

func (s *rrfStrategy) Name() string { return "rrf" }

func (s *rrfStrategy) Fuse(textbook, generated, web []schema.Chunk, p profile.Profile) []schema.Chunk {
	type agg struct {
		chunk schema.Chunk
		score float64
	}
	scores := map[string]*agg{}

	for _, list := range [][]schema.Chunk{textbook, generated, web} {
		ranked := make([]schema.Chunk, len(list))
		copy(ranked, list)
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
		for idx, c := range ranked {
			key := c.Source.String() + "|" + c.Text
			if _, ok := scores[key]; !ok {
				scores[key] = &agg{chunk: c}
			}
			scores[key].score += 1.0 / (float64(s.k) + float64(idx+1))
		}
	}

	out := make([]schema.Chunk, 0, len(scores))
	for _, v := range scores {
		c := v.chunk
		c.Score = v.score
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	limit := p.TextbookCap + p.GeneratedCap + p.WebCap
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
