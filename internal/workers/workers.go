package workers

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Workers runs jobs with at most limit of them in flight.
type Workers struct {
	limit int
}

// NewWorkers returns a pool. A limit below one is treated as one, which
// makes the pool sequential.
func NewWorkers(limit int) *Workers {
	if limit < 1 {
		limit = 1
	}
	return &Workers{limit: limit}
}

// Limit is the maximum number of concurrently running workers.
func (w *Workers) Limit() int {
	return w.limit
}

// Run starts every worker and waits for all of them. The returned slice has
// one entry per worker, in input order; a failing worker never cancels the
// others. Workers that have not started when ctx is done are skipped and
// report ctx.Err(). A panicking worker is reported as an error.
func (w *Workers) Run(ctx context.Context, jobs []Worker) []error {
	errs := make([]error, len(jobs))

	var g errgroup.Group
	g.SetLimit(w.limit)

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		g.Go(func() error {
			errs[i] = runSafe(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	return errs
}

func runSafe(ctx context.Context, job Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panicked: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	return job.Run(ctx)
}
