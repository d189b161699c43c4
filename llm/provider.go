// Package llm wraps the generative model behind a small provider interface.
package llm

import (
	"context"
	"fmt"

	"github.com/tutorstack/retrieval/config"
	"github.com/tutorstack/retrieval/metrics"
)

// Provider generates a completion from a system prompt and a user message.
type Provider interface {
	GenerateCompletion(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// NewProvider builds a provider from config. All supported providers speak
// the OpenAI chat completions protocol; dashscope and qwen differ only in
// base URL.
func NewProvider(cfg config.LLMConfig, cost *metrics.CostTracker) (Provider, error) {
	switch cfg.Provider {
	case "openai", "dashscope", "qwen":
		return newOpenAIProvider(cfg, cost), nil
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", cfg.Provider)
	}
}
