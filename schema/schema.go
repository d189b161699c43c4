package schema

// Mode selects the retrieval strategy for a query.
type Mode string

const (
	ModeBasic      Mode = "basic"
	ModeDeepdive   Mode = "deepdive"
	ModeAnnotation Mode = "annotation"
)

// Valid reports whether m is a known retrieval mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeBasic, ModeDeepdive, ModeAnnotation:
		return true
	}
	return false
}

// Intent is the classifier outcome for a raw question.
type Intent int

const (
	IntentNormal Intent = iota
	IntentGreeting
	IntentThanks
	IntentFarewell
)

// String returns the string representation of Intent
func (i Intent) String() string {
	switch i {
	case IntentNormal:
		return "normal"
	case IntentGreeting:
		return "greeting"
	case IntentThanks:
		return "thanks"
	case IntentFarewell:
		return "farewell"
	default:
		return "unknown"
	}
}

// Canned reports whether the intent short-circuits the pipeline.
func (i Intent) Canned() bool {
	return i == IntentGreeting || i == IntentThanks || i == IntentFarewell
}

// SourceKind identifies the knowledge source a chunk came from. It is a
// closed set; fusion priority is derived from it rather than from string
// comparisons scattered through the engine.
type SourceKind int

const (
	SourceTextbook SourceKind = iota
	SourceGeneratedCache
	SourceWeb
)

// String returns the string representation of SourceKind
func (s SourceKind) String() string {
	switch s {
	case SourceTextbook:
		return "textbook"
	case SourceGeneratedCache:
		return "generated_cache"
	case SourceWeb:
		return "web"
	default:
		return "unknown"
	}
}

// Priority returns the fusion priority for the source; lower values are
// assembled earlier in the context.
func (s SourceKind) Priority() int {
	switch s {
	case SourceTextbook:
		return 0
	case SourceGeneratedCache:
		return 1
	case SourceWeb:
		return 2
	default:
		return 3
	}
}

// ClassUnknown marks a chunk whose origin class level is not known
// (web chunks, malformed metadata). Unknown classes sort after known ones.
const ClassUnknown = 0

// Chunk is a scored fragment of retrieved text with source metadata.
// Chunks are value objects; they carry no identity beyond their content.
type Chunk struct {
	Text       string
	Score      float64
	ClassLevel int // ClassUnknown when the origin class is not known
	Subject    string
	Source     SourceKind
	Chapter    string
	Page       int
	URL        string
}

// ClassDistribution maps class level to the count of accepted chunks from
// that level. It decides whether a foundations note is surfaced.
type ClassDistribution map[int]int

// Add increments the count for a class level, ignoring unknown classes.
func (d ClassDistribution) Add(class int) {
	if class == ClassUnknown {
		return
	}
	d[class]++
}

// HasFoundations reports whether any accepted chunk came from a class level
// below the student's current class.
func (d ClassDistribution) HasFoundations(studentClass int) bool {
	for class, n := range d {
		if n > 0 && class < studentClass {
			return true
		}
	}
	return false
}

// QueryContext carries everything the pipeline needs for one retrieval call.
// It is immutable once constructed.
type QueryContext struct {
	Question   string
	Subject    string
	ClassLevel int
	Chapter    string
	Mode       Mode
	Language   string
	Intent     Intent
	Broad      bool
}

// RetrievalResult is the fused, ordered evidence for a query: textbook
// chunks first (class ascending, then score descending), generated-cache
// chunks next, web chunks last.
type RetrievalResult struct {
	Chunks       []Chunk
	Distribution ClassDistribution
	CacheHit     bool
}
