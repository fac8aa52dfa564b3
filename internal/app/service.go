// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	queue "github.com/okian/dexboard/internal/adapters/mq/queue"
	worker "github.com/okian/dexboard/internal/adapters/mq/worker"
	repository "github.com/okian/dexboard/internal/adapters/repository"
	"github.com/okian/dexboard/internal/domain/model"
	"github.com/okian/dexboard/internal/domain/ranking"
	"github.com/okian/dexboard/pkg/logger"
	"github.com/okian/dexboard/pkg/metrics"
)

// Defaults used when no option overrides them.
const (
	defaultStorePath       = "leaderboard.json"
	defaultQueueSize       = 1024
	defaultLeaderboardSize = 10
	defaultSubmitTimeout   = 5 * time.Second
	stopTimeout            = 30 * time.Second
)

// Submission outcomes recorded in metrics.
const (
	resultAccepted = "accepted"
	resultRejected = "rejected"
	resultFailed   = "failed"
)

// Service implements the API dependencies for the leaderboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	store  repository.Store
	queue  *queue.InMemoryQueue
	writer *worker.Writer
	cancel context.CancelFunc

	// Configuration
	injectedStore   bool
	storeBackend    string
	storePath       string
	atomicWrites    bool
	maxEntries      int
	queueSize       int
	leaderboardSize int
	submitTimeout   time.Duration

	started bool
	logger  logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeBackend:    repository.BackendFile,
		storePath:       defaultStorePath,
		queueSize:       defaultQueueSize,
		leaderboardSize: defaultLeaderboardSize,
		submitTimeout:   defaultSubmitTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}
	s.injectedStore = s.store != nil

	return s
}

// Start builds the store, the submission queue and the writer.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting leaderboard service...")

	if !s.injectedStore {
		store, err := repository.New(s.storeBackend, s.storePath,
			repository.WithMaxEntries(s.maxEntries),
			repository.WithAtomicWrites(s.atomicWrites),
			repository.WithLogger(s.logger.Named("store")),
		)
		if err != nil {
			return fmt.Errorf("build store: %w", err)
		}
		s.store = store
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.writer = worker.NewWriter(s.queue, s.store, worker.WithLogger(s.logger.Named("writer")))

	// The writer outlives ctx so in-flight submissions can finish during shutdown.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.writer.Run(runCtx)

	metrics.UpdateEntriesTotal(s.store.Count(ctx))

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.String("backend", s.storeBackend),
		logger.String("path", s.storePath),
		logger.Int("queueSize", s.queueSize),
		logger.Int("leaderboardSize", s.leaderboardSize),
		logger.Int("maxEntries", s.maxEntries),
		logger.Bool("atomicWrites", s.atomicWrites),
	)

	return nil
}

// Stop drains pending submissions and shuts the writer down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping leaderboard service...")

	if err := s.writer.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "writer shutdown failed", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "leaderboard service stopped")
}

// Submit appends e to the leaderboard through the single writer and waits
// until it has been saved. If ctx ends or the submit timeout passes first,
// the entry may still be saved afterwards.
func (s *Service) Submit(ctx context.Context, e model.Entry) error {
	s.mu.RLock()
	started, q, timeout := s.started, s.queue, s.submitTimeout
	s.mu.RUnlock()

	if !started {
		return ErrNotStarted
	}

	sub := model.NewSubmission(e)
	if err := q.Enqueue(ctx, sub); err != nil {
		switch {
		case errors.Is(err, queue.ErrFull):
			metrics.RecordSubmission(resultRejected)
			s.logger.Warn(ctx, "submission rejected; queue full", logger.Int("queueSize", q.Cap()))
			return ErrBackpressure
		case errors.Is(err, queue.ErrClosed):
			return ErrNotStarted
		default:
			return err
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-sub.Done:
		if err != nil {
			metrics.RecordSubmission(resultFailed)
			return err
		}
		metrics.RecordSubmission(resultAccepted)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		metrics.RecordSubmission(resultFailed)
		return ErrTimeout
	}
}

// Leaderboard returns the top entries ranked by score descending.
// The result is never nil.
func (s *Service) Leaderboard(ctx context.Context) []model.Entry {
	s.mu.RLock()
	store, size := s.store, s.leaderboardSize
	s.mu.RUnlock()

	if store == nil {
		return []model.Entry{}
	}
	return ranking.Top(ranking.Sorted(store.Load(ctx)), size)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"storeBackend":    s.storeBackend,
		"leaderboardSize": s.leaderboardSize,
		"maxEntries":      s.maxEntries,
		"queueSize":       s.queueSize,
	}
	if s.storeBackend == repository.BackendFile && !s.injectedStore {
		stats["storePath"] = s.storePath
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		entries := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["entries"] = entries

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateEntriesTotal(entries)
	}

	return stats
}
