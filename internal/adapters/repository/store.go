// Package repository defines the leaderboard store and its implementations.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/dexboard/internal/domain/model"
)

// Store backends selectable by configuration.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Store provides read/write access to the persisted leaderboard.
type Store interface {
	// Load returns the persisted collection in stored order. A missing or
	// unreadable backing resource yields an empty, non-nil slice; Load never fails.
	Load(ctx context.Context) []model.Entry

	// Save ranks entries by score descending (stable) and replaces the whole
	// persisted collection with the result.
	Save(ctx context.Context, entries []model.Entry) error

	// Count returns the number of persisted entries.
	Count(ctx context.Context) int
}

// New builds the Store for the named backend. path is ignored by the memory backend.
func New(backend, path string, opts ...Option) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(path, opts...), nil
	case BackendMemory:
		return NewMemoryStore(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
