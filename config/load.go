package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a yaml configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file failed, err: %w", err)
	}
	return Parse(data)
}

// Parse decodes yaml bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config failed, err: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in defaults that validation does not require but the
// engine expects.
func (c *Config) applyDefaults() {
	if c.VectorDB.Provider == "" {
		c.VectorDB.Provider = "milvus"
	}
	if c.VectorDB.TextbookCollection == "" {
		c.VectorDB.TextbookCollection = "textbook_chunks"
	}
	if c.VectorDB.AnswerCollection == "" {
		c.VectorDB.AnswerCollection = "generated_answers"
	}
	if c.VectorDB.WebCollection == "" {
		c.VectorDB.WebCollection = "web_content"
	}
	if c.VectorDB.MetricType == "" {
		c.VectorDB.MetricType = "COSINE"
	}
	if c.Cache.Embedding.MaxEntries <= 0 {
		c.Cache.Embedding.MaxEntries = 2048
	}
	if c.Cache.Embedding.TTLSeconds <= 0 {
		c.Cache.Embedding.TTLSeconds = 3600
	}
	if c.Cache.Answer.MaxEntries <= 0 {
		c.Cache.Answer.MaxEntries = 1024
	}
	if c.Cache.Answer.TTLSeconds <= 0 {
		c.Cache.Answer.TTLSeconds = 24 * 3600
	}
	if c.Scrape.Window <= 0 {
		c.Scrape.Window = 20
	}
	if c.Scrape.ThinThreshold <= 0 {
		c.Scrape.ThinThreshold = 5
	}
	if c.Scrape.CooldownSeconds <= 0 {
		c.Scrape.CooldownSeconds = 600
	}
	if c.Fusion.Strategy == "" {
		c.Fusion.Strategy = "priority"
	}
}
