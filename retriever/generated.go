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

// GeneratedResult is the outcome of one generated-answer query. Top carries
// the best hit before threshold filtering so the verbatim check can run even
// when nothing is admissible as supporting evidence.
type GeneratedResult struct {
	Chunks   []schema.Chunk
	Top      schema.Chunk
	TopScore float64
}

// GeneratedRetriever queries previously generated answers for semantically
// similar questions at the student's class level.
type GeneratedRetriever struct {
	store      vectordb.Store
	collection string
	subjects   []config.SubjectConfig
	cost       *metrics.CostTracker
}

func NewGeneratedRetriever(store vectordb.Store, cfg config.VectorDBConfig, subjects []config.SubjectConfig, cost *metrics.CostTracker) *GeneratedRetriever {
	return &GeneratedRetriever{
		store:      store,
		collection: cfg.AnswerCollection,
		subjects:   subjects,
		cost:       cost,
	}
}

// Search queries the generated-answer collection at the student's class.
func (r *GeneratedRetriever) Search(ctx context.Context, q schema.QueryContext, vector []float32, p profile.Profile) (GeneratedResult, error) {
	start := time.Now()
	r.cost.Record(metrics.CallVectorQuery)

	hits, err := r.store.Search(ctx, vectordb.SearchRequest{
		Collection: r.collection,
		Partition:  partitionFor(r.subjects, q.Subject),
		Expr:       classExpr(q.ClassLevel, ""),
		Vector:     vector,
		TopK:       p.TopK,
	})
	if err != nil {
		return GeneratedResult{}, err
	}

	out := GeneratedResult{
		Chunks: accept(hits, p.AcceptThreshold, schema.SourceGeneratedCache),
	}
	for _, h := range hits {
		if h.Score > out.TopScore {
			out.TopScore = h.Score
			out.Top = toChunk(h, schema.SourceGeneratedCache)
		}
	}
	metrics.ObserveClassQuery("generated", start, len(out.Chunks))
	return out, nil
}
