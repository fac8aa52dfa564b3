package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/dexboard/internal/domain/model"
	"github.com/okian/dexboard/internal/domain/ranking"
	"github.com/okian/dexboard/pkg/metrics"
)

// MemoryStore keeps the leaderboard in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []model.Entry
	opts    options
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		entries: []model.Entry{},
		opts:    buildOptions(opts),
	}
}

// Load returns a copy of the stored entries.
func (s *MemoryStore) Load(_ context.Context) []model.Entry {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLoadLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Save ranks entries and replaces the stored collection.
func (s *MemoryStore) Save(_ context.Context, entries []model.Entry) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreSaveLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	ranked := ranking.Cap(ranking.Sorted(entries), s.opts.maxEntries)

	s.mu.Lock()
	s.entries = ranked
	s.mu.Unlock()

	metrics.UpdateEntriesTotal(len(ranked))
	return nil
}

// Count returns the number of stored entries.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
