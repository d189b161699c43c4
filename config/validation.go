package config

import (
	"fmt"
	"strings"

	"github.com/tutorstack/retrieval/schema"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("found %d configuration error(s):\n", len(errs)))
	for i, err := range errs {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Message))
	}
	return b.String()
}

// Validate validates the complete configuration
func (c *Config) Validate() error {
	var errs ValidationErrors

	errs = append(errs, c.validateEmbedding()...)
	errs = append(errs, c.validateVectorDB()...)
	errs = append(errs, c.validateSubjects()...)
	errs = append(errs, c.validateProfiles()...)
	errs = append(errs, c.validateCache()...)
	errs = append(errs, c.validateScrape()...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (c *Config) validateEmbedding() ValidationErrors {
	var errs ValidationErrors

	if !c.Embedding.Local.Enable && c.Embedding.Remote.Provider == "" {
		errs = append(errs, ValidationError{
			Field:   "embedding",
			Message: "at least one embedding backend (local or remote) must be configured",
		})
	}

	if c.Embedding.Local.Enable && c.Embedding.Local.ModelPath == "" {
		errs = append(errs, ValidationError{
			Field:   "embedding.local.model_path",
			Message: "local embedding model path is required when local backend is enabled",
		})
	}

	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, ValidationError{
			Field:   "embedding.dimensions",
			Message: fmt.Sprintf("embedding dimensions must be positive, got %d", c.Embedding.Dimensions),
		})
	}

	// Validate dimensions are reasonable (typical range: 128-4096)
	if c.Embedding.Dimensions > 0 && (c.Embedding.Dimensions < 128 || c.Embedding.Dimensions > 4096) {
		errs = append(errs, ValidationError{
			Field:   "embedding.dimensions",
			Message: fmt.Sprintf("embedding dimensions %d is outside typical range [128, 4096]", c.Embedding.Dimensions),
		})
	}

	return errs
}

func (c *Config) validateVectorDB() ValidationErrors {
	var errs ValidationErrors

	switch strings.ToLower(c.VectorDB.Provider) {
	case "milvus":
		if c.VectorDB.Address == "" {
			errs = append(errs, ValidationError{
				Field:   "vectordb.address",
				Message: "vectordb address is required for milvus provider",
			})
		}
	case "":
		errs = append(errs, ValidationError{
			Field:   "vectordb.provider",
			Message: "vectordb provider is required",
		})
	default:
		errs = append(errs, ValidationError{
			Field:   "vectordb.provider",
			Message: fmt.Sprintf("unsupported vectordb provider %q", c.VectorDB.Provider),
		})
	}

	return errs
}

func (c *Config) validateSubjects() ValidationErrors {
	var errs ValidationErrors

	if len(c.Subjects) == 0 {
		errs = append(errs, ValidationError{
			Field:   "subjects",
			Message: "at least one subject with a class range is required",
		})
	}

	seen := make(map[string]struct{}, len(c.Subjects))
	for i, s := range c.Subjects {
		field := fmt.Sprintf("subjects[%d]", i)
		if s.Name == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: "subject name is required",
			})
			continue
		}
		key := strings.ToLower(s.Name)
		if _, dup := seen[key]; dup {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate subject %q", s.Name),
			})
		}
		seen[key] = struct{}{}
		if s.MinClass <= 0 || s.MaxClass <= 0 || s.MinClass > s.MaxClass {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("subject %q has invalid class range [%d, %d]", s.Name, s.MinClass, s.MaxClass),
			})
		}
	}

	return errs
}

func (c *Config) validateProfiles() ValidationErrors {
	var errs ValidationErrors

	for name, p := range c.Profiles {
		if !schema.Mode(name).Valid() {
			errs = append(errs, ValidationError{
				Field:   "profiles." + name,
				Message: fmt.Sprintf("unknown retrieval mode %q", name),
			})
		}
		if p.AcceptThreshold < 0 || p.AcceptThreshold > 1 {
			errs = append(errs, ValidationError{
				Field:   "profiles." + name + ".accept_threshold",
				Message: fmt.Sprintf("accept threshold must be within [0, 1], got %f", p.AcceptThreshold),
			})
		}
		if p.VerbatimThreshold < 0 || p.VerbatimThreshold > 1 {
			errs = append(errs, ValidationError{
				Field:   "profiles." + name + ".verbatim_threshold",
				Message: fmt.Sprintf("verbatim threshold must be within [0, 1], got %f", p.VerbatimThreshold),
			})
		}
	}

	return errs
}

func (c *Config) validateCache() ValidationErrors {
	var errs ValidationErrors

	switch strings.ToLower(strings.TrimSpace(c.Cache.Answer.Store)) {
	case "", "inmemory", "redis":
	default:
		errs = append(errs, ValidationError{
			Field:   "cache.answer.store",
			Message: fmt.Sprintf("unsupported answer cache store %q (expected inmemory or redis)", c.Cache.Answer.Store),
		})
	}

	return errs
}

func (c *Config) validateScrape() ValidationErrors {
	var errs ValidationErrors

	if c.Scrape.Enable && c.Scrape.Endpoint == "" {
		errs = append(errs, ValidationError{
			Field:   "scrape.endpoint",
			Message: "scrape endpoint is required when scrape trigger is enabled",
		})
	}

	return errs
}
