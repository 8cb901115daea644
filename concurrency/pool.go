package concurrency

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Job is one unit of CPU-bound work.
type Job func(ctx context.Context) error

// Pool runs jobs on a fixed number of goroutines.
type Pool struct {
	size int
}

// NewPool creates a pool of size workers. A size of zero or less means one
// worker per CPU.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Pool{size: size}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Run executes all jobs and stops scheduling new ones after the first
// failure. The context handed to running jobs is cancelled at that point.
// The first error is returned.
func (p *Pool) Run(ctx context.Context, jobs []Job) error {
	if len(jobs) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers(len(jobs)))

	for _, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		job := job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return job(gctx)
		})
	}

	return g.Wait()
}

// Collect executes every job regardless of failures and returns the error of
// each job at its index. Only cancellation of ctx stops scheduling early;
// jobs that never ran report ctx.Err().
func (p *Pool) Collect(ctx context.Context, jobs []Job) []error {
	results := make([]error, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	var g errgroup.Group
	g.SetLimit(p.workers(len(jobs)))

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(jobs); j++ {
				results[j] = err
			}
			break
		}
		index, job := i, job
		g.Go(func() error {
			results[index] = job(ctx)
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// workers caps the limit to the number of jobs.
func (p *Pool) workers(jobs int) int {
	if jobs < p.size {
		return jobs
	}
	return p.size
}
