package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
embedding:
  local:
    enable: true
    model_path: /models/paraphrase-multilingual-MiniLM-L12-v2
  remote:
    provider: openai
    api_key: sk-test
    model: text-embedding-3-small
  dimensions: 384
llm:
  provider: openai
  api_key: sk-test
  model: gpt-4o-mini
vectordb:
  provider: milvus
  address: localhost:19530
subjects:
  - name: Mathematics
    min_class: 5
    max_class: 12
  - name: Economics
    min_class: 11
    max_class: 12
profiles:
  basic:
    top_k: 6
scrape:
  enable: true
  endpoint: http://localhost:8083/scrape
`

func TestParseValidConfig(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.True(t, cfg.Embedding.Local.Enable)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.Equal(t, "localhost:19530", cfg.VectorDB.Address)
	assert.Equal(t, 6, cfg.Profiles["basic"].TopK)

	// defaults filled in
	assert.Equal(t, "textbook_chunks", cfg.VectorDB.TextbookCollection)
	assert.Equal(t, "generated_answers", cfg.VectorDB.AnswerCollection)
	assert.Equal(t, "web_content", cfg.VectorDB.WebCollection)
	assert.Equal(t, "priority", cfg.Fusion.Strategy)
	assert.Equal(t, 2048, cfg.Cache.Embedding.MaxEntries)
}

func TestParseInvalidConfigs(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		errPart string
	}{
		{
			name:    "no embedding backend",
			mutate:  func(s string) string { return strings.Replace(s, "enable: true", "enable: false", 1) },
			errPart: "embedding backend",
		},
		{
			name:    "missing model path",
			mutate:  func(s string) string { return strings.Replace(s, "model_path: /models/paraphrase-multilingual-MiniLM-L12-v2", "model_path: \"\"", 1) },
			errPart: "model path",
		},
		{
			name:    "missing milvus address",
			mutate:  func(s string) string { return strings.Replace(s, "address: localhost:19530", "address: \"\"", 1) },
			errPart: "address",
		},
		{
			name:    "dimensions out of range",
			mutate:  func(s string) string { return strings.Replace(s, "dimensions: 384", "dimensions: 7", 1) },
			errPart: "dimensions",
		},
		{
			name:    "invalid class range",
			mutate:  func(s string) string { return strings.Replace(s, "min_class: 11", "min_class: 13", 1) },
			errPart: "class range",
		},
		{
			name:    "unknown profile mode",
			mutate:  func(s string) string { return strings.Replace(s, "  basic:", "  turbo:", 1) },
			errPart: "mode",
		},
		{
			name:    "scrape enabled without endpoint",
			mutate:  func(s string) string { return strings.Replace(s, "endpoint: http://localhost:8083/scrape", "endpoint: \"\"", 1) },
			errPart: "endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.mutate(validYAML)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestDuplicateSubjects(t *testing.T) {
	yaml := strings.Replace(validYAML, "name: Economics", "name: mathematics", 1)
	_, err := Parse([]byte(yaml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestSubjectByName(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	s, ok := cfg.SubjectByName("mathematics")
	require.True(t, ok)
	assert.Equal(t, 5, s.MinClass)
	assert.Equal(t, "mathematics", s.PartitionName())

	_, ok = cfg.SubjectByName("Astrology")
	assert.False(t, ok)

	// the slice-level lookup behaves identically
	s, ok = FindSubject(cfg.Subjects, "MATHEMATICS")
	require.True(t, ok)
	assert.Equal(t, 5, s.MinClass)
	_, ok = FindSubject(nil, "mathematics")
	assert.False(t, ok)
}
