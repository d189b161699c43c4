// Package retriever issues per-source vector index queries and converts hits
// into scored chunks. Acceptance thresholds are applied here so downstream
// fusion only ever sees admissible evidence.
package retriever

import (
	"fmt"

	"github.com/tutorstack/retrieval/config"
	"github.com/tutorstack/retrieval/schema"
	"github.com/tutorstack/retrieval/vectordb"
)

// classExpr builds the scalar filter for one class level, optionally narrowed
// to a chapter.
func classExpr(class int, chapter string) string {
	expr := fmt.Sprintf("class_level == %d", class)
	if chapter != "" {
		expr = fmt.Sprintf("%s && chapter == %q", expr, chapter)
	}
	return expr
}

// partitionFor resolves the subject partition; unknown subjects search all
// partitions rather than failing.
func partitionFor(subjects []config.SubjectConfig, subject string) string {
	if s, ok := config.FindSubject(subjects, subject); ok {
		return s.PartitionName()
	}
	return ""
}

// toChunk converts one index hit into a chunk tagged with its source.
func toChunk(h vectordb.Hit, source schema.SourceKind) schema.Chunk {
	text := h.Text
	if source == schema.SourceGeneratedCache && h.Answer != "" {
		text = h.Answer
	}
	return schema.Chunk{
		Text:       text,
		Score:      h.Score,
		ClassLevel: h.ClassLevel,
		Subject:    h.Subject,
		Source:     source,
		Chapter:    h.Chapter,
		Page:       h.Page,
		URL:        h.URL,
	}
}

// accept filters hits below the threshold. The threshold is inclusive: a hit
// scoring exactly the threshold is admissible.
func accept(hits []vectordb.Hit, threshold float64, source schema.SourceKind) []schema.Chunk {
	var chunks []schema.Chunk
	for _, h := range hits {
		if h.Score < threshold {
			continue
		}
		chunks = append(chunks, toChunk(h, source))
	}
	return chunks
}
