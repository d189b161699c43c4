package metrics

import (
	"encoding/json"
	"time"

	"github.com/tutorstack/retrieval/common/logger"
)

// RetrievalRecord captures the complete per-query trace that is emitted as a
// single JSON log line when the query finishes.
type RetrievalRecord struct {
	QueryID   string    `json:"query_id"`
	Subject   string    `json:"subject"`
	Class     int       `json:"class"`
	Mode      string    `json:"mode"`
	Intent    string    `json:"intent"`
	Language  string    `json:"language,omitempty"`
	Broad     bool      `json:"broad,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Cache outcomes
	AnswerCacheHit    bool `json:"answer_cache_hit"`
	EmbeddingCacheHit bool `json:"embedding_cache_hit"`
	VerbatimHit       bool `json:"verbatim_hit"`

	// Per-query remote call counts; the optimized path keeps
	// EmbeddingCalls+GenerationCalls at 2 or below.
	EmbeddingCalls  int `json:"embedding_calls"`
	GenerationCalls int `json:"generation_calls"`
	VectorQueries   int `json:"vector_queries"`
	WebQueries      int `json:"web_queries"`

	// Walk outcome
	ClassesSearched []int          `json:"classes_searched,omitempty"`
	ClassErrors     map[int]string `json:"class_errors,omitempty"`
	AcceptedChunks  int            `json:"accepted_chunks"`
	Distribution    map[int]int    `json:"distribution,omitempty"`

	// Fallback outcome
	Stage string `json:"stage"`

	TotalLatencyMs int64  `json:"total_latency_ms"`
	Success        bool   `json:"success"`
	ErrorMsg       string `json:"error_msg,omitempty"`
}

// NewRetrievalRecord creates a record stamped with the current time.
func NewRetrievalRecord() *RetrievalRecord {
	return &RetrievalRecord{
		Timestamp:   time.Now(),
		ClassErrors: make(map[int]string),
	}
}

// AddClassError notes a per-class query failure. Failures never abort the
// walk; they are only recorded here and in the log.
func (r *RetrievalRecord) AddClassError(class int, err error) {
	if r == nil || err == nil {
		return
	}
	if r.ClassErrors == nil {
		r.ClassErrors = make(map[int]string)
	}
	r.ClassErrors[class] = err.Error()
}

// RemoteCalls returns the expensive call count for this query.
func (r *RetrievalRecord) RemoteCalls() int {
	if r == nil {
		return 0
	}
	return r.EmbeddingCalls + r.GenerationCalls
}

// LogJSON emits the record as one JSON log line.
func (r *RetrievalRecord) LogJSON() {
	if r == nil {
		return
	}
	if data, err := json.Marshal(r); err == nil {
		logger.Infof("[RETRIEVAL_METRICS] %s", string(data))
	}
}
