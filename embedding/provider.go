// Package embedding provides query embedding with a local-first backend chain.
// The local ONNX model is primary; the remote OpenAI-compatible API is the
// fallback and the only path that spends the remote-call budget.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/tutorstack/retrieval/cache"
	"github.com/tutorstack/retrieval/common/logger"
	"github.com/tutorstack/retrieval/config"
	"github.com/tutorstack/retrieval/metrics"
)

// ErrUnavailable means every configured backend failed. The caller decides
// whether to degrade (the pipeline falls through to general knowledge).
var ErrUnavailable = errors.New("embedding: all backends unavailable")

// Provider produces a dense vector for one piece of text. languageHint is
// advisory; backends may ignore it.
type Provider interface {
	Embed(ctx context.Context, text, languageHint string) ([]float32, error)
	Dimensions() int
	Close() error
}

// chainProvider tries backends in order and memoizes results.
type chainProvider struct {
	backends []Provider
	memo     *cache.EmbeddingCache
	cost     *metrics.CostTracker
	dims     int
}

// NewProvider builds the backend chain from config. At least one backend must
// be configured; validation guarantees this for loaded configs.
func NewProvider(cfg config.EmbeddingConfig, memo *cache.EmbeddingCache, cost *metrics.CostTracker) (Provider, error) {
	var backends []Provider

	if cfg.Local.Enable {
		local, err := newLocalProvider(cfg.Local, cfg.Dimensions)
		if err != nil {
			// A broken local model is not fatal while a remote backend
			// remains; the chain just starts one link shorter.
			logger.Warnf("local embedding backend unavailable: %v", err)
		} else {
			backends = append(backends, local)
		}
	}
	if cfg.Remote.APIKey != "" || cfg.Remote.BaseURL != "" {
		backends = append(backends, newRemoteProvider(cfg.Remote, cfg.Dimensions, cfg.TimeoutMs, cost))
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("embedding: no usable backend configured")
	}

	return &chainProvider{
		backends: backends,
		memo:     memo,
		cost:     cost,
		dims:     cfg.Dimensions,
	}, nil
}

func (p *chainProvider) Dimensions() int { return p.dims }

func (p *chainProvider) Embed(ctx context.Context, text, languageHint string) ([]float32, error) {
	if p.memo != nil {
		if vec, ok := p.memo.Get(text, languageHint); ok {
			metrics.IncCache("embedding", "hit")
			return vec, nil
		}
		metrics.IncCache("embedding", "miss")
	}

	var lastErr error
	for _, b := range p.backends {
		vec, err := b.Embed(ctx, text, languageHint)
		if err != nil {
			lastErr = err
			logger.Warnf("embedding backend failed, trying next: %v", err)
			continue
		}
		if p.dims > 0 && len(vec) != p.dims {
			lastErr = fmt.Errorf("embedding: backend returned %d dims, want %d", len(vec), p.dims)
			continue
		}
		if p.memo != nil {
			p.memo.Put(text, languageHint, vec)
		}
		return vec, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
	}
	return nil, ErrUnavailable
}

func (p *chainProvider) Close() error {
	var first error
	for _, b := range p.backends {
		if err := b.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
