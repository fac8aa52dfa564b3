package worker_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/dexboard/internal/adapters/mq/queue"
	worker "github.com/okian/dexboard/internal/adapters/mq/worker"
	repository "github.com/okian/dexboard/internal/adapters/repository"
	model "github.com/okian/dexboard/internal/domain/model"
	"github.com/okian/dexboard/internal/domain/ranking"
	logging "github.com/okian/dexboard/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logging.Init(); err != nil {
		panic(err)
	}
}

// failingStore accepts loads but rejects every save.
type failingStore struct {
	err error
}

func (s *failingStore) Load(context.Context) []model.Entry { return []model.Entry{} }

func (s *failingStore) Save(context.Context, []model.Entry) error { return s.err }

func submit(t *testing.T, q queue.Queue, e model.Entry) model.Submission {
	t.Helper()
	sub := model.NewSubmission(e)
	if err := q.Enqueue(context.Background(), sub); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return sub
}

func wait(sub model.Submission) error {
	select {
	case err := <-sub.Done:
		return err
	case <-time.After(5 * time.Second):
		return errors.New("timed out waiting for writer")
	}
}

func TestWriter_AppliesSubmissions(t *testing.T) {
	convey.Convey("Given a running writer over a file store", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		store := repository.NewFileStore(filepath.Join(t.TempDir(), "leaderboard.json"))
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		w := worker.NewWriter(q, store)
		go w.Run(ctx)

		convey.Convey("When two submissions are applied", func() {
			err1 := wait(submit(t, q, model.Entry{Name: "Ash", Score: 10}))
			err2 := wait(submit(t, q, model.Entry{Name: "Misty", Score: 20}))

			convey.Convey("Then both are persisted in ranked order", func() {
				convey.So(err1, convey.ShouldBeNil)
				convey.So(err2, convey.ShouldBeNil)
				got := store.Load(ctx)
				convey.So(len(got), convey.ShouldEqual, 2)
				convey.So(got[0].Name, convey.ShouldEqual, "Misty")
				convey.So(got[1].Name, convey.ShouldEqual, "Ash")
			})
		})
	})
}

func TestWriter_ConcurrentSubmissionsAreNotLost(t *testing.T) {
	convey.Convey("Given a running writer over a file store", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		store := repository.NewFileStore(filepath.Join(t.TempDir(), "leaderboard.json"))
		q := queue.NewInMemoryQueue(queue.WithCapacity(256))
		w := worker.NewWriter(q, store)
		go w.Run(ctx)

		convey.Convey("When many goroutines submit at once", func() {
			const n = 100
			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					sub := model.NewSubmission(model.Entry{Name: fmt.Sprintf("p%d", i), Score: float64(i % 17)})
					if err := q.Enqueue(ctx, sub); err != nil {
						errs <- err
						return
					}
					errs <- wait(sub)
				}(i)
			}
			wg.Wait()
			close(errs)

			convey.Convey("Then every entry is persisted and the file stays ranked", func() {
				for err := range errs {
					convey.So(err, convey.ShouldBeNil)
				}
				got := store.Load(ctx)
				convey.So(len(got), convey.ShouldEqual, n)
				convey.So(ranking.IsRanked(got), convey.ShouldBeTrue)
			})
		})
	})
}

func TestWriter_SaveFailure(t *testing.T) {
	convey.Convey("Given a writer whose store cannot save", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		boom := errors.New("disk full")
		q := queue.NewInMemoryQueue()
		w := worker.NewWriter(q, &failingStore{err: boom})
		go w.Run(ctx)

		convey.Convey("When a submission is applied", func() {
			err := wait(submit(t, q, model.Entry{Name: "Ash", Score: 1}))

			convey.Convey("Then the store error is reported to the submitter", func() {
				convey.So(errors.Is(err, boom), convey.ShouldBeTrue)
			})
		})
	})
}

func TestWriter_Shutdown(t *testing.T) {
	convey.Convey("Given a writer with buffered submissions", t, func() {
		store := repository.NewMemoryStore()
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		w := worker.NewWriter(q, store)

		subs := []model.Submission{
			submit(t, q, model.Entry{Name: "a", Score: 1}),
			submit(t, q, model.Entry{Name: "b", Score: 2}),
			submit(t, q, model.Entry{Name: "c", Score: 3}),
		}
		go w.Run(context.Background())

		convey.Convey("When shutting down", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := w.Shutdown(ctx)

			convey.Convey("Then pending submissions are drained first", func() {
				convey.So(err, convey.ShouldBeNil)
				for _, sub := range subs {
					convey.So(wait(sub), convey.ShouldBeNil)
				}
				convey.So(store.Count(context.Background()), convey.ShouldEqual, 3)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})

			convey.Convey("And the run loop has exited", func() {
				select {
				case <-w.Done():
				default:
					convey.So("writer still running", convey.ShouldBeEmpty)
				}
			})
		})
	})

	convey.Convey("Given a writer that was never started", t, func() {
		q := queue.NewInMemoryQueue()
		w := worker.NewWriter(q, repository.NewMemoryStore())

		convey.Convey("When shutdown times out", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			err := w.Shutdown(ctx)

			convey.Convey("Then it reports the deadline", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})
	})
}
