package retriever

import (
	"context"
	"time"

	"github.com/tutorstack/retrieval/config"
	"github.com/tutorstack/retrieval/metrics"
	"github.com/tutorstack/retrieval/profile"
	"github.com/tutorstack/retrieval/schema"
	"github.com/tutorstack/retrieval/vectordb"
)

// TextbookRetriever queries the textbook chunk collection one class level at
// a time.
type TextbookRetriever struct {
	store      vectordb.Store
	collection string
	subjects   []config.SubjectConfig
	cost       *metrics.CostTracker
}

func NewTextbookRetriever(store vectordb.Store, cfg config.VectorDBConfig, subjects []config.SubjectConfig, cost *metrics.CostTracker) *TextbookRetriever {
	return &TextbookRetriever{
		store:      store,
		collection: cfg.TextbookCollection,
		subjects:   subjects,
		cost:       cost,
	}
}

// SearchClass runs one per-class query and returns the admissible chunks.
// Chapter narrows the filter when the student supplied one.
func (r *TextbookRetriever) SearchClass(ctx context.Context, q schema.QueryContext, vector []float32, class int, p profile.Profile) ([]schema.Chunk, error) {
	start := time.Now()
	r.cost.Record(metrics.CallVectorQuery)

	hits, err := r.store.Search(ctx, vectordb.SearchRequest{
		Collection: r.collection,
		Partition:  partitionFor(r.subjects, q.Subject),
		Expr:       classExpr(class, q.Chapter),
		Vector:     vector,
		TopK:       p.TopK,
	})
	if err != nil {
		return nil, err
	}

	chunks := accept(hits, p.AcceptThreshold, schema.SourceTextbook)
	metrics.ObserveClassQuery("textbook", start, len(chunks))
	return chunks, nil
}
