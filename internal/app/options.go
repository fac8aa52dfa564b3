package service

import (
	"time"

	repository "github.com/okian/dexboard/internal/adapters/repository"
	"github.com/okian/dexboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore injects a ready Store; backend, path and store options are then ignored.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithStoreBackend selects the store backend ("file" or "memory").
func WithStoreBackend(backend string) Option {
	return func(s *Service) {
		if backend != "" {
			s.storeBackend = backend
		}
	}
}

// WithStorePath sets the leaderboard file used by the file backend.
func WithStorePath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.storePath = path
		}
	}
}

// WithAtomicWrites enables temp-file-and-rename writes for the file backend.
func WithAtomicWrites(enabled bool) Option {
	return func(s *Service) {
		s.atomicWrites = enabled
	}
}

// WithMaxEntries caps the persisted history; 0 keeps every entry.
func WithMaxEntries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxEntries = n
		}
	}
}

// WithQueueSize sets the maximum number of pending submissions.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLeaderboardSize sets how many entries Leaderboard returns.
func WithLeaderboardSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.leaderboardSize = n
		}
	}
}

// WithSubmitTimeout bounds how long Submit waits for the writer.
func WithSubmitTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.submitTimeout = d
		}
	}
}
