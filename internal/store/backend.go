package store

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Entry is a single cached payload, Timestamp is the time it was written.
type Entry struct {
	UserId    string
	Kind      string
	Timestamp time.Time
	Payload   []byte
}

// CacheBackend is where cache entries are kept, it does not decide freshness.
type CacheBackend interface {
	// Load returns false if there is no entry for the (user, kind) pair.
	Load(ctx context.Context, userId, kind string) (Entry, bool, error)
	// Store replaces the entry of the (user, kind) pair.
	Store(ctx context.Context, entry Entry) error
	// Clear removes every entry of a user.
	Clear(ctx context.Context, userId string) error
}

type memoryKey struct {
	userId string
	kind   string
}

// MemoryBackend keeps entries in process memory.
type MemoryBackend struct {
	entries *expirable.LRU[memoryKey, Entry]
}

// NewMemoryBackend creates a MemoryBackend holding at most size entries, each dropped
// ttl after it was written. A size or ttl of 0 removes that bound, entries are then
// only removed by Clear.
func NewMemoryBackend(size int, ttl time.Duration) MemoryBackend {
	return MemoryBackend{
		entries: expirable.NewLRU[memoryKey, Entry](size, nil, ttl),
	}
}

func (m MemoryBackend) Load(_ context.Context, userId, kind string) (Entry, bool, error) {
	entry, ok := m.entries.Get(memoryKey{userId: userId, kind: kind})
	return entry, ok, nil
}

func (m MemoryBackend) Store(_ context.Context, entry Entry) error {
	m.entries.Add(memoryKey{userId: entry.UserId, kind: entry.Kind}, entry)
	return nil
}

func (m MemoryBackend) Clear(_ context.Context, userId string) error {
	for _, key := range m.entries.Keys() {
		if key.userId == userId {
			m.entries.Remove(key)
		}
	}
	return nil
}
