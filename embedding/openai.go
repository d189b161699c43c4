package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/tutorstack/retrieval/config"
	"github.com/tutorstack/retrieval/metrics"
)

const defaultRemoteTimeout = 5 * time.Second

// remoteProvider calls an OpenAI-compatible embeddings endpoint. Every call
// counts against the remote-call budget, which is why the chain only reaches
// it after the local backend and the memo cache have both missed.
type remoteProvider struct {
	client  openai.Client
	model   string
	dims    int
	timeout time.Duration
	cost    *metrics.CostTracker
}

func newRemoteProvider(cfg config.RemoteEmbeddingConfig, dims, timeoutMs int, cost *metrics.CostTracker) *remoteProvider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	timeout := defaultRemoteTimeout
	if timeoutMs > 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}
	return &remoteProvider{
		client:  openai.NewClient(opts...),
		model:   model,
		dims:    dims,
		timeout: timeout,
		cost:    cost,
	}
}

func (p *remoteProvider) Dimensions() int { return p.dims }

func (p *remoteProvider) Embed(ctx context.Context, text, _ string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.cost.Record(metrics.CallEmbedding)

	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(p.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("remote embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("remote embedding: empty response")
	}

	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}

func (p *remoteProvider) Close() error { return nil }
