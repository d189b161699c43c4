package profile

import (
	"github.com/tutorstack/retrieval/config"
	"github.com/tutorstack/retrieval/schema"
)

// Profile carries the retrieval parameters for one mode. All values are
// empirically tuned configuration, not derived constants.
type Profile struct {
	Mode schema.Mode
	// TopK is the per-class similarity query size.
	TopK int
	// AcceptThreshold is the minimum similarity for a chunk to be accepted.
	AcceptThreshold float64
	// VerbatimThreshold is the minimum generated-answer similarity for
	// returning the cached answer verbatim, skipping generation.
	VerbatimThreshold float64
	// TextbookCap bounds textbook chunks in the fused context; 0 = no cap.
	TextbookCap  int
	GeneratedCap int
	WebCap       int
	// CoverageMin is the combined textbook+generated chunk count below which
	// supplementary web retrieval is triggered.
	CoverageMin int
	// WidenClasses is how many classes below the searched range the fallback
	// may widen into; 0 disables widening for the mode.
	WidenClasses int
	// ContextTokenBudget bounds the assembled context before generation.
	ContextTokenBudget int
}

// Defaults returns the built-in profile for a mode.
func Defaults(mode schema.Mode) Profile {
	switch mode {
	case schema.ModeDeepdive:
		return Profile{
			Mode:               schema.ModeDeepdive,
			TopK:               8,
			AcceptThreshold:    0.20,
			VerbatimThreshold:  0.95,
			TextbookCap:        0, // deepdive keeps everything the per-class top-k allows
			GeneratedCap:       3,
			WebCap:             10,
			CoverageMin:        8,
			WidenClasses:       0, // deepdive already walks the full range
			ContextTokenBudget: 6000,
		}
	case schema.ModeAnnotation:
		// Annotation queries are short paraphrases of textbook language, so
		// acceptance and verbatim reuse are both more permissive.
		return Profile{
			Mode:               schema.ModeAnnotation,
			TopK:               5,
			AcceptThreshold:    0.20,
			VerbatimThreshold:  0.90,
			TextbookCap:        15,
			GeneratedCap:       2,
			WebCap:             3,
			CoverageMin:        5,
			WidenClasses:       3,
			ContextTokenBudget: 2000,
		}
	default:
		return Profile{
			Mode:               schema.ModeBasic,
			TopK:               5,
			AcceptThreshold:    0.30,
			VerbatimThreshold:  0.95,
			TextbookCap:        15,
			GeneratedCap:       2,
			WebCap:             3,
			CoverageMin:        5,
			WidenClasses:       3,
			ContextTokenBudget: 3000,
		}
	}
}

// Provider resolves mode profiles, applying configured overrides on top of
// the built-in defaults.
type Provider struct {
	overrides map[string]config.ProfileConfig
}

// NewProvider creates a profile provider from config overrides.
func NewProvider(overrides map[string]config.ProfileConfig) *Provider {
	return &Provider{overrides: overrides}
}

// Select returns the normalized profile for a mode.
func (p *Provider) Select(mode schema.Mode) Profile {
	prof := Defaults(mode)
	if p != nil && p.overrides != nil {
		if o, ok := p.overrides[string(mode)]; ok {
			prof = apply(prof, o)
		}
	}
	return Normalize(prof)
}

func apply(prof Profile, o config.ProfileConfig) Profile {
	if o.TopK > 0 {
		prof.TopK = o.TopK
	}
	if o.AcceptThreshold > 0 {
		prof.AcceptThreshold = o.AcceptThreshold
	}
	if o.VerbatimThreshold > 0 {
		prof.VerbatimThreshold = o.VerbatimThreshold
	}
	if o.TextbookCap > 0 {
		prof.TextbookCap = o.TextbookCap
	}
	if o.GeneratedCap > 0 {
		prof.GeneratedCap = o.GeneratedCap
	}
	if o.WebCap > 0 {
		prof.WebCap = o.WebCap
	}
	if o.CoverageMin > 0 {
		prof.CoverageMin = o.CoverageMin
	}
	if o.WidenClasses > 0 {
		prof.WidenClasses = o.WidenClasses
	}
	if o.ContextTokenBudget > 0 {
		prof.ContextTokenBudget = o.ContextTokenBudget
	}
	return prof
}

// Broad-query adjustments. Summary and overview questions match many chunks
// weakly rather than a few strongly, so the per-class query digs deeper and
// the acceptance bar drops.
const (
	broadTopKBoost       = 3
	broadThresholdRelief = 0.05
	broadCapBoost        = 5
)

// Broaden relaxes a profile for broad (summary/overview) questions. The
// per-class top-k grows and the acceptance threshold drops, with room for
// more textbook chunks in the fused context. Verbatim reuse is unaffected.
func Broaden(prof Profile) Profile {
	prof.TopK += broadTopKBoost
	prof.AcceptThreshold -= broadThresholdRelief
	if prof.AcceptThreshold < 0 {
		prof.AcceptThreshold = 0
	}
	if prof.TextbookCap > 0 {
		prof.TextbookCap += broadCapBoost
	}
	return prof
}

// Normalize clamps a profile to sane bounds.
func Normalize(prof Profile) Profile {
	if prof.TopK <= 0 {
		prof.TopK = 5
	}
	if prof.AcceptThreshold < 0 {
		prof.AcceptThreshold = 0
	}
	if prof.AcceptThreshold > 1 {
		prof.AcceptThreshold = 1
	}
	if prof.VerbatimThreshold <= 0 || prof.VerbatimThreshold > 1 {
		prof.VerbatimThreshold = 0.95
	}
	if prof.GeneratedCap <= 0 {
		prof.GeneratedCap = 2
	}
	if prof.WebCap <= 0 {
		prof.WebCap = 3
	}
	if prof.CoverageMin <= 0 {
		prof.CoverageMin = 5
	}
	if prof.ContextTokenBudget <= 0 {
		prof.ContextTokenBudget = 3000
	}
	return prof
}
