// Package workers provides a bounded pool for running independent jobs,
// such as encrypting every file of a batch.
// It defines the Worker interface and a Workers pool that runs many
// workers with a concurrency limit and reports each outcome separately.
package workers

import "context"

// Worker is the interface that must be implemented by any pooled job.
// It defines a single Run method that performs the job and reports its
// outcome.
//
// Implementations should check ctx between expensive steps and return
// ctx.Err() once it is done.
//
// Example implementation:
//
//	type lockJob struct{ path string }
//
//	func (j *lockJob) Run(ctx context.Context) error {
//	    // encrypt j.path
//	}
type Worker interface {
	Run(ctx context.Context) error
}

// WorkerFunc adapts a plain function to [Worker].
type WorkerFunc func(ctx context.Context) error

// Run implements [Worker].
func (f WorkerFunc) Run(ctx context.Context) error {
	return f(ctx)
}
