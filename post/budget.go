// Package post trims the fused context to the generation model's token
// budget. Chunks arrive already priority-ordered, so trimming from the tail
// always drops the least important evidence first.
package post

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/tutorstack/retrieval/common/logger"
	"github.com/tutorstack/retrieval/schema"
)

const encodingName = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

func encoder() (*tiktoken.Tiktoken, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding(encodingName)
	})
	return enc, encErr
}

// CountTokens returns the token count for one text. When the encoder cannot
// be loaded it falls back to a conservative bytes/3 estimate.
func CountTokens(text string) int {
	e, err := encoder()
	if err != nil {
		logger.Warnf("token budget: encoder unavailable, estimating: %v", err)
		return len(text)/3 + 1
	}
	return len(e.Encode(text, nil, nil))
}

// FitBudget returns the longest prefix of chunks whose total token count
// stays within budget. The first chunk is always kept even when it alone
// exceeds the budget, so a well-formed query never loses all its evidence.
// A budget of zero disables trimming.
func FitBudget(chunks []schema.Chunk, budget int) []schema.Chunk {
	if budget <= 0 || len(chunks) == 0 {
		return chunks
	}

	total := 0
	for i, c := range chunks {
		n := CountTokens(c.Text)
		if total+n > budget && i > 0 {
			logger.Debugf("token budget: trimming context to %d of %d chunks (%d tokens)", i, len(chunks), total)
			return chunks[:i]
		}
		total += n
	}
	return chunks
}
