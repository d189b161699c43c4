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

// WebRetriever queries scraped web content. Web content is not tied to a
// class level, so the filter is subject-only and hits commonly come back with
// class level zero.
type WebRetriever struct {
	store      vectordb.Store
	collection string
	subjects   []config.SubjectConfig
	cost       *metrics.CostTracker
}

func NewWebRetriever(store vectordb.Store, cfg config.VectorDBConfig, subjects []config.SubjectConfig, cost *metrics.CostTracker) *WebRetriever {
	return &WebRetriever{
		store:      store,
		collection: cfg.WebCollection,
		subjects:   subjects,
		cost:       cost,
	}
}

// Search queries the web-content collection. Only called when textbook and
// generated coverage together fall short of the profile's coverage minimum.
func (r *WebRetriever) Search(ctx context.Context, q schema.QueryContext, vector []float32, p profile.Profile) ([]schema.Chunk, error) {
	start := time.Now()
	r.cost.Record(metrics.CallWebQuery)

	hits, err := r.store.Search(ctx, vectordb.SearchRequest{
		Collection: r.collection,
		Partition:  partitionFor(r.subjects, q.Subject),
		Vector:     vector,
		TopK:       p.TopK,
	})
	if err != nil {
		return nil, err
	}

	chunks := accept(hits, p.AcceptThreshold, schema.SourceWeb)
	metrics.ObserveClassQuery("web", start, len(chunks))
	return chunks, nil
}
