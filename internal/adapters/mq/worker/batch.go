package worker

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/okian/gridiron/pkg/metrics"
)

// Batch runs fn for every input with at most limit calls in flight and returns the
// outputs in input order. The first error cancels the remaining calls.
func Batch[In, Out any](ctx context.Context, limit int, in []In, fn func(ctx context.Context, item In) (Out, error)) ([]Out, error) {
	if limit < 1 {
		limit = runtime.NumCPU()
	}
	out := make([]Out, len(in))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var active atomic.Int64
	for i := range in {
		g.Go(func() error {
			metrics.UpdateWorkerActiveCount(int(active.Add(1)))
			defer func() { metrics.UpdateWorkerActiveCount(int(active.Add(-1))) }()

			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := fn(ctx, in[i])
			if err != nil {
				metrics.RecordWorkerError()
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
