package orchestrator

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/tutorstack/retrieval/config"
	"github.com/tutorstack/retrieval/metrics"
	"github.com/tutorstack/retrieval/profile"
	"github.com/tutorstack/retrieval/retriever"
	"github.com/tutorstack/retrieval/schema"
	"github.com/tutorstack/retrieval/vectordb"
)

// classStore serves per-class hits keyed on the class filter expression and
// can fail selected classes or cancel the walk mid-flight.
type classStore struct {
	byExpr   map[string][]vectordb.Hit
	failExpr map[string]bool
	cancel   context.CancelFunc
	calls    int
}

func (s *classStore) Search(ctx context.Context, req vectordb.SearchRequest) ([]vectordb.Hit, error) {
	s.calls++
	if s.cancel != nil && s.calls == 1 {
		s.cancel()
	}
	if s.failExpr[req.Expr] {
		return nil, errors.New("index unavailable")
	}
	return s.byExpr[req.Expr], nil
}

func (s *classStore) Close() error { return nil }

func newTextbook(store vectordb.Store) *retriever.TextbookRetriever {
	cfg := config.VectorDBConfig{TextbookCollection: "textbook_chunks"}
	subjects := []config.SubjectConfig{{Name: "Mathematics", MinClass: 5, MaxClass: 12}}
	return retriever.NewTextbookRetriever(store, cfg, subjects, metrics.NewCostTracker())
}

func TestWalkCollectsAndSorts(t *testing.T) {
	store := &classStore{byExpr: map[string][]vectordb.Hit{
		"class_level == 6": {
			{Text: "six-a", Score: 0.6, ClassLevel: 6},
			{Text: "six-b", Score: 0.8, ClassLevel: 6},
		},
		"class_level == 7": {{Text: "seven", Score: 0.9, ClassLevel: 7}},
	}}

	q := schema.QueryContext{Question: "define fractions", Subject: "Mathematics", ClassLevel: 8, Mode: schema.ModeBasic}
	out := Walk(context.Background(), newTextbook(store), q, []float32{0.1}, []int{6, 7, 8}, profile.Defaults(schema.ModeBasic), metrics.NewRetrievalRecord())

	if !reflect.DeepEqual(out.Searched, []int{6, 7, 8}) {
		t.Errorf("expected all classes searched, got %v", out.Searched)
	}
	if len(out.Chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(out.Chunks))
	}
	// class ascending, then score descending: six-b(0.8), six-a(0.6), seven(0.9)
	texts := []string{out.Chunks[0].Text, out.Chunks[1].Text, out.Chunks[2].Text}
	if !reflect.DeepEqual(texts, []string{"six-b", "six-a", "seven"}) {
		t.Errorf("unexpected order %v", texts)
	}
}

func TestWalkToleratesPerClassFailure(t *testing.T) {
	store := &classStore{
		byExpr:   map[string][]vectordb.Hit{"class_level == 7": {{Text: "seven", Score: 0.9, ClassLevel: 7}}},
		failExpr: map[string]bool{"class_level == 6": true},
	}

	rec := metrics.NewRetrievalRecord()
	q := schema.QueryContext{Subject: "Mathematics", ClassLevel: 8, Mode: schema.ModeBasic}
	out := Walk(context.Background(), newTextbook(store), q, []float32{0.1}, []int{6, 7}, profile.Defaults(schema.ModeBasic), rec)

	if len(out.Chunks) != 1 || out.Chunks[0].Text != "seven" {
		t.Errorf("expected failed class to contribute zero chunks, got %+v", out.Chunks)
	}
	if !reflect.DeepEqual(out.Searched, []int{6, 7}) {
		t.Errorf("failed class must still count as searched, got %v", out.Searched)
	}
	if _, ok := rec.ClassErrors[6]; !ok {
		t.Error("expected class 6 failure recorded")
	}
}

func TestWalkStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := &classStore{
		byExpr: map[string][]vectordb.Hit{"class_level == 5": {{Text: "five", Score: 0.9, ClassLevel: 5}}},
		cancel: cancel,
	}

	q := schema.QueryContext{Subject: "Mathematics", ClassLevel: 10, Mode: schema.ModeDeepdive}
	out := Walk(ctx, newTextbook(store), q, []float32{0.1}, []int{5, 6, 7, 8, 9, 10}, profile.Defaults(schema.ModeDeepdive), metrics.NewRetrievalRecord())

	// first query cancels the context; partial results are kept
	if len(out.Searched) != 1 {
		t.Errorf("expected walk abandoned after first class, searched %v", out.Searched)
	}
	if len(out.Chunks) != 1 {
		t.Errorf("expected partial chunks preserved, got %d", len(out.Chunks))
	}
}

func TestSortChunksUnknownClassLast(t *testing.T) {
	chunks := []schema.Chunk{
		{Text: "unknown", ClassLevel: schema.ClassUnknown, Score: 0.99},
		{Text: "nine", ClassLevel: 9, Score: 0.4},
		{Text: "six", ClassLevel: 6, Score: 0.2},
	}
	SortChunks(chunks)

	texts := []string{chunks[0].Text, chunks[1].Text, chunks[2].Text}
	if !reflect.DeepEqual(texts, []string{"six", "nine", "unknown"}) {
		t.Errorf("unexpected order %v", texts)
	}
}
