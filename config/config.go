package config

import "strings"

// Config is the root configuration for the tutoring retrieval engine.
type Config struct {
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	LLM       LLMConfig       `json:"llm" yaml:"llm"`
	VectorDB  VectorDBConfig  `json:"vectordb" yaml:"vectordb"`
	// Subjects lists the taught subjects with their valid class ranges.
	Subjects []SubjectConfig `json:"subjects" yaml:"subjects"`
	// Profiles overrides per-mode retrieval parameters. Missing modes use
	// built-in defaults; the thresholds are tuned values, not derived ones.
	Profiles map[string]ProfileConfig `json:"profiles,omitempty" yaml:"profiles,omitempty"`
	// Classifier configures canned-response lexicons and broad-intent keywords.
	Classifier ClassifierConfig `json:"classifier,omitempty" yaml:"classifier,omitempty"`
	Cache      CacheConfig      `json:"cache,omitempty" yaml:"cache,omitempty"`
	Scrape     ScrapeConfig     `json:"scrape,omitempty" yaml:"scrape,omitempty"`
	// HTTP holds defaults for outbound HTTP calls (scrape trigger, remote backends).
	HTTP *HTTPClientConfig `json:"http,omitempty" yaml:"http,omitempty"`
	// Fusion selects the fusion strategy; "priority" is the default and the
	// only strategy that honors the source-priority ordering contract.
	Fusion FusionConfig `json:"fusion,omitempty" yaml:"fusion,omitempty"`
}

// EmbeddingConfig defines the embedding provider chain. The local backend is
// primary; the remote backend is the fallback.
type EmbeddingConfig struct {
	Local      LocalEmbeddingConfig  `json:"local,omitempty" yaml:"local,omitempty"`
	Remote     RemoteEmbeddingConfig `json:"remote,omitempty" yaml:"remote,omitempty"`
	Dimensions int                   `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	TimeoutMs  int                   `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
}

// LocalEmbeddingConfig configures the offline multilingual model.
type LocalEmbeddingConfig struct {
	Enable bool `json:"enable,omitempty" yaml:"enable,omitempty"`
	// ModelPath points at a downloaded sentence-transformers ONNX model,
	// e.g. paraphrase-multilingual-MiniLM-L12-v2.
	ModelPath string `json:"model_path,omitempty" yaml:"model_path,omitempty"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
}

// RemoteEmbeddingConfig configures the OpenAI-compatible fallback backend.
type RemoteEmbeddingConfig struct {
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"` // Available options: openai, dashscope
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`
}

// LLMConfig defines configuration for the generative model.
type LLMConfig struct {
	Provider    string  `json:"provider" yaml:"provider"` // Available options: openai, dashscope, qwen
	APIKey      string  `json:"api_key,omitempty" yaml:"api_key"`
	BaseURL     string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	TimeoutMs   int     `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
}

// VectorDBConfig defines the vector index service connection and the three
// collections the engine searches.
type VectorDBConfig struct {
	Provider string `json:"provider" yaml:"provider"` // Available options: milvus
	Address  string `json:"address,omitempty" yaml:"address,omitempty"`
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	// Collections by source. Partitions within each collection are named per
	// subject; class level and chapter are metadata filters.
	TextbookCollection string `json:"textbook_collection,omitempty" yaml:"textbook_collection,omitempty"`
	AnswerCollection   string `json:"answer_collection,omitempty" yaml:"answer_collection,omitempty"`
	WebCollection      string `json:"web_collection,omitempty" yaml:"web_collection,omitempty"`
	MetricType         string `json:"metric_type,omitempty" yaml:"metric_type,omitempty"`
	TimeoutMs          int    `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
}

// SubjectConfig declares a subject's valid class range. A subject only
// taught in classes 11-12 must never be queried at class 6.
type SubjectConfig struct {
	Name     string `json:"name" yaml:"name"`
	MinClass int    `json:"min_class" yaml:"min_class"`
	MaxClass int    `json:"max_class" yaml:"max_class"`
	// Partition overrides the vector index partition name; defaults to the
	// lowercased subject name.
	Partition string `json:"partition,omitempty" yaml:"partition,omitempty"`
}

// ProfileConfig overrides retrieval parameters for one mode. Zero values
// mean "use the built-in default".
type ProfileConfig struct {
	TopK               int     `json:"top_k,omitempty" yaml:"top_k,omitempty"`
	AcceptThreshold    float64 `json:"accept_threshold,omitempty" yaml:"accept_threshold,omitempty"`
	VerbatimThreshold  float64 `json:"verbatim_threshold,omitempty" yaml:"verbatim_threshold,omitempty"`
	TextbookCap        int     `json:"textbook_cap,omitempty" yaml:"textbook_cap,omitempty"`
	GeneratedCap       int     `json:"generated_cap,omitempty" yaml:"generated_cap,omitempty"`
	WebCap             int     `json:"web_cap,omitempty" yaml:"web_cap,omitempty"`
	CoverageMin        int     `json:"coverage_min,omitempty" yaml:"coverage_min,omitempty"`
	WidenClasses       int     `json:"widen_classes,omitempty" yaml:"widen_classes,omitempty"`
	ContextTokenBudget int     `json:"context_token_budget,omitempty" yaml:"context_token_budget,omitempty"`
}

// ClassifierConfig holds the canned-response lexicons. Matching is exact or
// prefix, never substring, so long questions are never misclassified.
type ClassifierConfig struct {
	Greetings     []CannedEntry `json:"greetings,omitempty" yaml:"greetings,omitempty"`
	Thanks        []CannedEntry `json:"thanks,omitempty" yaml:"thanks,omitempty"`
	Farewells     []CannedEntry `json:"farewells,omitempty" yaml:"farewells,omitempty"`
	BroadKeywords []string      `json:"broad_keywords,omitempty" yaml:"broad_keywords,omitempty"`
}

// CannedEntry maps a lexicon phrase to its canned response.
type CannedEntry struct {
	Phrase   string `json:"phrase" yaml:"phrase"`
	Response string `json:"response" yaml:"response"`
}

// CacheConfig controls the embedding memo cache and the answer cache.
type CacheConfig struct {
	Embedding CacheLayerConfig  `json:"embedding,omitempty" yaml:"embedding,omitempty"`
	Answer    AnswerCacheConfig `json:"answer,omitempty" yaml:"answer,omitempty"`
}

// CacheLayerConfig bounds one in-memory cache layer.
type CacheLayerConfig struct {
	MaxEntries int `json:"max_entries,omitempty" yaml:"max_entries,omitempty"`
	TTLSeconds int `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty"`
}

// AnswerCacheConfig controls answer-cache persistence.
// Store: "inmemory" (default) or "redis".
// Redis: map with keys {address,username,password,db}
type AnswerCacheConfig struct {
	Store      string                 `json:"store,omitempty" yaml:"store,omitempty"`
	MaxEntries int                    `json:"max_entries,omitempty" yaml:"max_entries,omitempty"`
	TTLSeconds int                    `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty"`
	Redis      map[string]interface{} `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// ScrapeConfig controls the fire-and-forget ingestion trigger issued when
// textbook coverage for a topic is persistently thin.
type ScrapeConfig struct {
	Enable   bool   `json:"enable,omitempty" yaml:"enable,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// Window is the number of recent queries per subject considered when
	// deciding to trigger a scrape.
	Window int `json:"window,omitempty" yaml:"window,omitempty"`
	// ThinThreshold is the count of thin-coverage queries within the window
	// that triggers a scrape.
	ThinThreshold   int `json:"thin_threshold,omitempty" yaml:"thin_threshold,omitempty"`
	CooldownSeconds int `json:"cooldown_seconds,omitempty" yaml:"cooldown_seconds,omitempty"`
}

// HTTPClientConfig defines common options for outbound HTTP calls.
type HTTPClientConfig struct {
	TimeoutMs              int      `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	Retry                  int      `json:"retry,omitempty" yaml:"retry,omitempty"`
	BackoffMinMs           int      `json:"backoff_min_ms,omitempty" yaml:"backoff_min_ms,omitempty"`
	BackoffMaxMs           int      `json:"backoff_max_ms,omitempty" yaml:"backoff_max_ms,omitempty"`
	HostAllowlist          []string `json:"host_allowlist,omitempty" yaml:"host_allowlist,omitempty"`
	MaxConsecutiveFailures int      `json:"max_consecutive_failures,omitempty" yaml:"max_consecutive_failures,omitempty"`
	CircuitOpenSeconds     int      `json:"circuit_open_seconds,omitempty" yaml:"circuit_open_seconds,omitempty"`
}

// FusionConfig selects the fusion strategy.
type FusionConfig struct {
	// Strategy: "priority" (default) or "rrf" (diagnostic comparison only).
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	// Params: strategy-specific parameters (e.g. k for rrf).
	Params map[string]interface{} `json:"params,omitempty" yaml:"params,omitempty"`
}

// SubjectByName finds a subject's configuration, case-insensitively.
func (c *Config) SubjectByName(name string) (SubjectConfig, bool) {
	return FindSubject(c.Subjects, name)
}

// FindSubject looks a subject up in a configured list, case-insensitively.
// Components that hold only the subject slice use this directly.
func FindSubject(subjects []SubjectConfig, name string) (SubjectConfig, bool) {
	for _, s := range subjects {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return SubjectConfig{}, false
}

// PartitionName returns the vector index partition for the subject.
func (s SubjectConfig) PartitionName() string {
	if s.Partition != "" {
		return s.Partition
	}
	return strings.ToLower(strings.TrimSpace(s.Name))
}
