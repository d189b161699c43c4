// Package vectordb abstracts the vector index service. All three content
// sources (textbook chunks, generated answers, web content) live in the same
// service as separate collections, partitioned by subject.
package vectordb

import (
	"context"
	"fmt"

	"github.com/tutorstack/retrieval/config"
)

// SearchRequest describes one similarity query against a collection.
type SearchRequest struct {
	Collection string
	// Partition narrows the search to one subject partition; empty means all.
	Partition string
	// Expr is a boolean filter over scalar metadata, e.g. `class_level == 7`.
	Expr   string
	Vector []float32
	TopK   int
}

// Hit is one scored match with its normalized scalar metadata.
type Hit struct {
	Text       string
	Score      float64
	ClassLevel int
	Subject    string
	Chapter    string
	Page       int
	URL        string
	// Answer carries the stored answer text for generated-answer hits.
	Answer string
}

// Store is the vector index client surface the retrievers depend on.
type Store interface {
	Search(ctx context.Context, req SearchRequest) ([]Hit, error)
	Close() error
}

// NewStore builds a store for the configured provider.
func NewStore(ctx context.Context, cfg config.VectorDBConfig) (Store, error) {
	switch cfg.Provider {
	case "milvus", "":
		return newMilvusStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("vectordb: unsupported provider %q", cfg.Provider)
	}
}
