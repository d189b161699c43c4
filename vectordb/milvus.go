package vectordb

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/tutorstack/retrieval/common/logger"
	"github.com/tutorstack/retrieval/config"
)

const defaultSearchTimeout = 3 * time.Second

// Scalar field names shared by all three collections. Ingestion writes them;
// values are still normalized defensively on read because older ingest runs
// stored class_level and page as strings.
var outputFields = []string{"text", "class_level", "subject", "chapter", "page", "url", "answer"}

type milvusStore struct {
	c          client.Client
	metricType entity.MetricType
	timeout    time.Duration
}

func newMilvusStore(ctx context.Context, cfg config.VectorDBConfig) (*milvusStore, error) {
	c, err := client.NewClient(ctx, client.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("vectordb: connect milvus at %s: %w", cfg.Address, err)
	}

	metricType := entity.COSINE
	switch cfg.MetricType {
	case "IP":
		metricType = entity.IP
	case "L2":
		metricType = entity.L2
	}

	timeout := defaultSearchTimeout
	if cfg.TimeoutMs > 0 {
		timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}

	return &milvusStore{c: c, metricType: metricType, timeout: timeout}, nil
}

func (s *milvusStore) Search(ctx context.Context, req SearchRequest) ([]Hit, error) {
	if len(req.Vector) == 0 {
		return nil, fmt.Errorf("vectordb: empty query vector")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var partitions []string
	if req.Partition != "" {
		partitions = []string{req.Partition}
	}

	sp, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, fmt.Errorf("vectordb: search params: %w", err)
	}

	results, err := s.c.Search(ctx, req.Collection, partitions, req.Expr, outputFields,
		[]entity.Vector{entity.FloatVector(req.Vector)}, "vector",
		s.metricType, req.TopK, sp)
	if err != nil {
		return nil, fmt.Errorf("vectordb: search %s: %w", req.Collection, err)
	}

	var hits []Hit
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			hit := Hit{Score: float64(result.Scores[i])}
			for _, col := range result.Fields {
				raw, err := col.Get(i)
				if err != nil {
					logger.Warnf("vectordb: read field %s row %d: %v", col.Name(), i, err)
					continue
				}
				switch col.Name() {
				case "text":
					hit.Text = normalizeString(raw)
				case "class_level":
					hit.ClassLevel = normalizeInt(raw)
				case "subject":
					hit.Subject = normalizeString(raw)
				case "chapter":
					hit.Chapter = normalizeString(raw)
				case "page":
					hit.Page = normalizeInt(raw)
				case "url":
					hit.URL = normalizeString(raw)
				case "answer":
					hit.Answer = normalizeString(raw)
				}
			}
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

func (s *milvusStore) Close() error {
	return s.c.Close()
}
