package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/tutorstack/retrieval/schema"
)

// AnswerEntry is a previously generated answer, cached for verbatim reuse on
// an identical (question, subject, class) key.
type AnswerEntry struct {
	Answer       string                   `json:"answer"`
	Sources      []schema.Chunk           `json:"sources,omitempty"`
	Distribution schema.ClassDistribution `json:"distribution,omitempty"`
	Language     string                   `json:"language,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
}

// AnswerStore persists answer entries.
// Implementations: in-memory LRU (default) and Redis.
type AnswerStore interface {
	Get(key string) (*AnswerEntry, bool)
	Set(key string, entry *AnswerEntry)
	Delete(key string)
}

// AnswerKey hashes the normalized question plus subject and class into a
// cache key. Normalization collapses whitespace and case so trivially
// reworded identical questions share an entry.
func AnswerKey(question, subject string, class int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	base := normalized + "|" + strings.ToLower(subject) + "|" + strconv.Itoa(class)
	sum := sha1.Sum([]byte(base))
	return hex.EncodeToString(sum[:])
}

// memoryAnswerStore keeps entries in the process-wide LRU.
type memoryAnswerStore struct {
	store Cache
}

// NewMemoryAnswerStore creates the default in-memory answer store.
func NewMemoryAnswerStore(capacity int, ttl time.Duration) AnswerStore {
	return &memoryAnswerStore{store: NewLRU(capacity, ttl)}
}

func (s *memoryAnswerStore) Get(key string) (*AnswerEntry, bool) {
	v, ok := s.store.Get(key)
	if !ok {
		return nil, false
	}
	ent, ok := v.(*AnswerEntry)
	if !ok || ent == nil || ent.Answer == "" {
		// corrupted entry, treat as miss and evict
		s.store.Delete(key)
		return nil, false
	}
	return ent, true
}

func (s *memoryAnswerStore) Set(key string, entry *AnswerEntry) {
	if entry == nil || entry.Answer == "" {
		return
	}
	s.store.Set(key, entry, 0)
}

func (s *memoryAnswerStore) Delete(key string) {
	s.store.Delete(key)
}
