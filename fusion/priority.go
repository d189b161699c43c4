package fusion

import (
	"sort"

	"github.com/tutorstack/retrieval/profile"
	"github.com/tutorstack/retrieval/schema"
)

// PriorityStrategy orders the context by source priority, textbook first,
// then generated answers, then web. Within each source, chunks are sorted by
// class ascending then score descending so earlier-class foundations precede
// current-level material regardless of raw score. Chunks without a class
// level sort after classed ones within their source.
type PriorityStrategy struct{}

func (s *PriorityStrategy) Name() string { return "priority" }

func (s *PriorityStrategy) Fuse(textbook, generated, web []schema.Chunk, p profile.Profile) []schema.Chunk {
	textbook = sortAndCap(textbook, p.TextbookCap)
	generated = sortAndCap(generated, p.GeneratedCap)
	web = sortAndCap(web, p.WebCap)

	fused := make([]schema.Chunk, 0, len(textbook)+len(generated)+len(web))
	fused = append(fused, textbook...)
	fused = append(fused, generated...)
	fused = append(fused, web...)
	return fused
}

// sortAndCap orders one source's chunks and applies its truncation cap.
// A cap of zero means uncapped.
func sortAndCap(chunks []schema.Chunk, limit int) []schema.Chunk {
	out := make([]schema.Chunk, len(chunks))
	copy(out, chunks)
	sort.SliceStable(out, func(i, j int) bool {
		return chunkLess(out[i], out[j])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// chunkLess orders by class ascending, unknown class last, then score
// descending.
func chunkLess(a, b schema.Chunk) bool {
	ak, bk := classKey(a.ClassLevel), classKey(b.ClassLevel)
	if ak != bk {
		return ak < bk
	}
	return a.Score > b.Score
}

func classKey(class int) int {
	if class == schema.ClassUnknown {
		return int(^uint(0) >> 1)
	}
	return class
}

// Distribution counts fused textbook chunks per originating class level.
func Distribution(chunks []schema.Chunk) schema.ClassDistribution {
	dist := make(schema.ClassDistribution)
	for _, c := range chunks {
		if c.Source == schema.SourceTextbook {
			dist.Add(c.ClassLevel)
		}
	}
	return dist
}
