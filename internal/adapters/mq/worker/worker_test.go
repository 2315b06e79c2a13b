package worker_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	queue "github.com/okian/gridiron/internal/adapters/mq/queue"
	worker "github.com/okian/gridiron/internal/adapters/mq/worker"
	logging "github.com/okian/gridiron/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type recorder struct {
	mu   sync.Mutex
	seen []string
	fail map[string]error
}

func newRecorder() *recorder {
	return &recorder{fail: make(map[string]error)}
}

func (r *recorder) Handle(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.fail[id]; ok {
		return err
	}
	r.seen = append(r.seen, id)
	return nil
}

func (r *recorder) handled() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.seen...)
	sort.Strings(out)
	return out
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker reading a queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue[string](queue.WithCapacity(8))
		rec := newRecorder()
		rec.fail["bad"] = errors.New("disk full")
		w := worker.NewWorker[string](q, rec, worker.WithName("persist-0"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When items are queued", func() {
			convey.So(q.Enqueue(ctx, "a"), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, "bad"), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, "b"), convey.ShouldBeNil)

			convey.Convey("Then good items are handled and a failure does not stop the worker", func() {
				convey.So(eventually(func() bool { return len(rec.handled()) == 2 }), convey.ShouldBeTrue)
				convey.So(rec.handled(), convey.ShouldResemble, []string{"a", "b"})
			})
		})

		convey.Convey("When shutting down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.Convey("Then it should stop gracefully and tolerate a second call", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue[string](queue.WithCapacity(64))
		rec := newRecorder()
		p := worker.NewPool[string](3, q, rec)
		p.Start(context.Background())

		convey.So(p.Size(), convey.ShouldEqual, 3)

		convey.Convey("When items are queued and the pool is drained", func() {
			want := []string{"g1", "g2", "g3", "g4", "g5", "g6"}
			for _, id := range want {
				convey.So(q.Enqueue(context.Background(), id), convey.ShouldBeNil)
			}
			err := p.Drain(context.Background())

			convey.Convey("Then every queued item is handled before Drain returns", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.handled(), convey.ShouldResemble, want)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool whose handler blocks until canceled", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue[string](queue.WithCapacity(8))
		started := make(chan struct{}, 1)
		var canceled atomic.Int64
		blocking := worker.HandlerFunc[string](func(ctx context.Context, _ string) error {
			started <- struct{}{}
			<-ctx.Done()
			canceled.Add(1)
			return ctx.Err()
		})
		p := worker.NewPool[string](1, q, blocking)
		p.Start(context.Background())

		for _, id := range []string{"g1", "g2", "g3"} {
			convey.So(q.Enqueue(context.Background(), id), convey.ShouldBeNil)
		}
		<-started

		convey.Convey("When the drain times out", func() {
			dctx, dcancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer dcancel()
			err := p.Drain(dctx)

			convey.Convey("Then the handler is canceled and unreceived items stay queued", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(eventually(func() bool { return canceled.Load() == 1 }), convey.ShouldBeTrue)
				time.Sleep(20 * time.Millisecond)
				convey.So(canceled.Load(), convey.ShouldEqual, 1)
				convey.So(q.Len(context.Background()), convey.ShouldEqual, 2)
			})
		})
	})

	convey.Convey("Given a pool with a non-positive size", t, func() {
		_ = logging.Init()
		p := worker.NewPool[string](0, queue.NewInMemoryQueue[string](), newRecorder())
		convey.So(p.Size(), convey.ShouldBeGreaterThan, 0)
	})
}

func TestBatch(t *testing.T) {
	convey.Convey("Given a batch of inputs", t, func() {
		in := []int{5, 1, 4, 2, 3, 9, 7}

		convey.Convey("When every call succeeds", func() {
			var inFlight, peak atomic.Int64
			out, err := worker.Batch(context.Background(), 2, in, func(_ context.Context, v int) (int, error) {
				n := inFlight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(time.Duration(v) * time.Millisecond)
				inFlight.Add(-1)
				return v * 10, nil
			})

			convey.Convey("Then outputs keep input order and the limit holds", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldResemble, []int{50, 10, 40, 20, 30, 90, 70})
				convey.So(peak.Load(), convey.ShouldBeLessThanOrEqualTo, 2)
			})
		})

		convey.Convey("When one call fails", func() {
			boom := errors.New("boom")
			out, err := worker.Batch(context.Background(), 3, in, func(_ context.Context, v int) (int, error) {
				if v == 4 {
					return 0, boom
				}
				return v, nil
			})

			convey.Convey("Then the error is returned and no partial output", func() {
				convey.So(errors.Is(err, boom), convey.ShouldBeTrue)
				convey.So(out, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the input is empty", func() {
			out, err := worker.Batch(context.Background(), 0, []int{}, func(_ context.Context, v int) (int, error) {
				return v, nil
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldBeEmpty)
		})
	})
}
