package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/knights-analytics/hugot"

	"github.com/tutorstack/retrieval/config"
)

// localProvider runs a sentence-transformers ONNX model in process via hugot.
// The multilingual MiniLM family handles Hindi and English with one model, so
// languageHint is ignored here.
type localProvider struct {
	mu      sync.Mutex
	session *hugot.Session
	run     func(text string) ([]float32, error)
	dims    int
}

func newLocalProvider(cfg config.LocalEmbeddingConfig, dims int) (*localProvider, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("local embedding: model_path is required")
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("local embedding: create session: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "query-embedder"
	}
	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: cfg.ModelPath,
		Name:      name,
	})
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("local embedding: create pipeline: %w (cleanup: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("local embedding: create pipeline: %w", err)
	}

	run := func(text string) ([]float32, error) {
		result, err := pipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("local embedding: run: %w", err)
		}
		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("local embedding: empty result")
		}
		return result.Embeddings[0], nil
	}

	return &localProvider{session: session, run: run, dims: dims}, nil
}

func (p *localProvider) Dimensions() int { return p.dims }

func (p *localProvider) Embed(ctx context.Context, text, _ string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// The ONNX runtime pipeline is not safe for concurrent runs.
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.run(text)
}

func (p *localProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	err := p.session.Destroy()
	p.session = nil
	return err
}
