// Package fallback defines the degradation state machine for queries where
// the standard per-class walk finds no evidence.
package fallback

import "github.com/tutorstack/retrieval/schema"

// Stage is one state of the fallback chain. The chain only ever moves
// forward: Normal, then Widen, then GeneralKnowledge, then terminal.
type Stage int

const (
	// StageNormal is the standard per-class walk with the mode's threshold.
	StageNormal Stage = iota
	// StageWiden re-queries additional class levels below the searched range
	// without a chapter filter. Deepdive skips this stage since its walk
	// already covers the whole range.
	StageWiden
	// StageGeneralKnowledge answers from the model's own knowledge with a
	// disclaimer and an empty source list.
	StageGeneralKnowledge
)

func (s Stage) String() string {
	switch s {
	case StageNormal:
		return "normal"
	case StageWiden:
		return "progressive_widen"
	case StageGeneralKnowledge:
		return "general_knowledge_fallback"
	default:
		return "unknown"
	}
}

// Next returns the stage that follows when the current stage found no
// evidence. Widening is skipped for deepdive and for modes whose profile
// disables it.
func Next(current Stage, mode schema.Mode, widenClasses int) Stage {
	switch current {
	case StageNormal:
		if mode != schema.ModeDeepdive && widenClasses > 0 {
			return StageWiden
		}
		return StageGeneralKnowledge
	case StageWiden:
		return StageGeneralKnowledge
	default:
		return StageGeneralKnowledge
	}
}
