package metrics

import "sync/atomic"

// CallType identifies one class of external call.
type CallType string

const (
	CallEmbedding   CallType = "embedding"
	CallGeneration  CallType = "generation"
	CallVectorQuery CallType = "vector_query"
	CallWebQuery    CallType = "web_query"
)

// Expensive reports whether the call type counts against the per-query
// remote-call budget. Vector and web index queries are cheap relative to
// embedding and generation and are tracked for reporting only.
func (c CallType) Expensive() bool {
	return c == CallEmbedding || c == CallGeneration
}

// CostTracker records external calls. It is advisory: it never blocks or
// rejects a call. The pipeline keeps the budget by construction, since every
// path that could exceed it is gated by a prior cache check.
type CostTracker struct {
	embedding   atomic.Uint64
	generation  atomic.Uint64
	vectorQuery atomic.Uint64
	webQuery    atomic.Uint64
}

// NewCostTracker creates a process-wide cost tracker.
func NewCostTracker() *CostTracker {
	return &CostTracker{}
}

// Record counts one call of the given type.
func (t *CostTracker) Record(typ CallType) {
	if t == nil {
		return
	}
	switch typ {
	case CallEmbedding:
		t.embedding.Add(1)
	case CallGeneration:
		t.generation.Add(1)
	case CallVectorQuery:
		t.vectorQuery.Add(1)
	case CallWebQuery:
		t.webQuery.Add(1)
	}
	IncRemoteCall(string(typ))
}

// Stats returns the current counters by call type.
func (t *CostTracker) Stats() map[CallType]uint64 {
	if t == nil {
		return nil
	}
	return map[CallType]uint64{
		CallEmbedding:   t.embedding.Load(),
		CallGeneration:  t.generation.Load(),
		CallVectorQuery: t.vectorQuery.Load(),
		CallWebQuery:    t.webQuery.Load(),
	}
}

// ExpensiveTotal returns the combined embedding+generation call count.
func (t *CostTracker) ExpensiveTotal() uint64 {
	if t == nil {
		return 0
	}
	return t.embedding.Load() + t.generation.Load()
}
