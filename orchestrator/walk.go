// Package orchestrator drives the per-class walk over the textbook index and
// collects partial results under caller cancellation.
package orchestrator

import (
	"context"
	"sort"

	"github.com/tutorstack/retrieval/common/logger"
	"github.com/tutorstack/retrieval/metrics"
	"github.com/tutorstack/retrieval/profile"
	"github.com/tutorstack/retrieval/retriever"
	"github.com/tutorstack/retrieval/schema"
)

// ClassResult is the outcome of one per-class query.
type ClassResult struct {
	Class  int
	Chunks []schema.Chunk
	Err    error
}

// WalkResult aggregates a whole walk.
type WalkResult struct {
	Chunks  []schema.Chunk
	Results []ClassResult
	// Searched lists the classes actually queried before any cancellation.
	Searched []int
}

// Walk queries each class in order. Per-class failures are logged and
// contribute zero chunks; a cancelled context stops the walk and returns the
// chunks collected so far, since partial evidence is still usable.
func Walk(ctx context.Context, tb *retriever.TextbookRetriever, q schema.QueryContext, vector []float32, classes []int, p profile.Profile, rec *metrics.RetrievalRecord) WalkResult {
	var out WalkResult
	for _, class := range classes {
		if ctx.Err() != nil {
			logger.Warnf("class walk cancelled after %d of %d classes", len(out.Searched), len(classes))
			break
		}

		chunks, err := tb.SearchClass(ctx, q, vector, class, p)
		out.Searched = append(out.Searched, class)
		out.Results = append(out.Results, ClassResult{Class: class, Chunks: chunks, Err: err})
		if err != nil {
			logger.Warnf("class %d query failed, treating as empty: %v", class, err)
			rec.AddClassError(class, err)
			continue
		}
		out.Chunks = append(out.Chunks, chunks...)
	}

	SortChunks(out.Chunks)
	return out
}

// SortChunks orders chunks by class ascending then score descending, with
// unknown class levels last. Foundations come first regardless of raw score.
func SortChunks(chunks []schema.Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		a, b := chunks[i], chunks[j]
		ak, bk := classSortKey(a.ClassLevel), classSortKey(b.ClassLevel)
		if ak != bk {
			return ak < bk
		}
		return a.Score > b.Score
	})
}

func classSortKey(class int) int {
	if class == schema.ClassUnknown {
		return int(^uint(0) >> 1)
	}
	return class
}
