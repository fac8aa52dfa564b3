// Package worker runs the single writer that applies leaderboard submissions.
//
// Every submission is applied as load, append, save on one goroutine, so
// concurrent POSTs cannot overwrite each other's entries.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/dexboard/internal/adapters/mq/queue"
	"github.com/okian/dexboard/internal/domain/model"
	"github.com/okian/dexboard/pkg/logger"
	"github.com/okian/dexboard/pkg/metrics"
)

// Submission is what the writer reads off the queue.
type Submission = queue.Submission

// Store is the persistence the writer applies submissions to.
type Store interface {
	Load(ctx context.Context) []model.Entry
	Save(ctx context.Context, entries []model.Entry) error
}

// Queue defines how the writer receives submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Submission
	Close() error
}

// Writer drains the queue and persists each submission.
type Writer struct {
	queue Queue
	store Store

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewWriter creates a writer for queue and store.
func NewWriter(q Queue, store Store, opts ...Option) *Writer {
	w := &Writer{
		queue:    q,
		store:    store,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named("writer")
	}

	return w
}

// Run applies submissions until the queue is closed and drained, Stop is
// called, or ctx is cancelled. It must be started once.
func (w *Writer) Run(ctx context.Context) {
	defer close(w.done)

	subs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case sub, ok := <-subs:
			if !ok {
				return
			}
			w.apply(ctx, sub)
		}
	}
}

// Shutdown closes the queue and waits for the writer to apply what is left.
func (w *Writer) Shutdown(ctx context.Context) error {
	if err := w.queue.Close(); err != nil {
		w.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.stop()
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run has returned.
func (w *Writer) Done() <-chan struct{} {
	return w.done
}

func (w *Writer) stop() {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
}

// apply performs one read-modify-write cycle and reports its outcome.
func (w *Writer) apply(ctx context.Context, sub Submission) {
	start := time.Now()
	defer func() {
		metrics.RecordWriterLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	entries := w.store.Load(ctx)
	entries = append(entries, sub.Entry)
	err := w.store.Save(ctx, entries)
	if err != nil {
		w.logger.Error(ctx, "failed to save submission",
			logger.String("name", sub.Entry.Name),
			logger.Float64("score", sub.Entry.Score),
			logger.Error(err),
		)
		sub.Resolve(fmt.Errorf("save submission: %w", err))
		return
	}

	w.logger.Debug(ctx, "submission saved",
		logger.String("name", sub.Entry.Name),
		logger.Float64("score", sub.Entry.Score),
		logger.Int("entries", len(entries)),
	)
	sub.Resolve(nil)
}
