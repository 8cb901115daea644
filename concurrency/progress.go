package concurrency

import (
	"context"
	"sync/atomic"
)

// Progress counts finished jobs out of a total that may grow as more work
// is scheduled.
type Progress struct {
	total    atomic.Int64
	finished atomic.Int64
	failed   atomic.Int64
}

// NewProgress creates a tracker expecting total jobs.
func NewProgress(total int) *Progress {
	p := &Progress{}
	p.total.Store(int64(total))
	return p
}

// Expect adds n jobs to the total.
func (p *Progress) Expect(n int) {
	p.total.Add(int64(n))
}

// Done records one finished job and returns the new number of finished
// jobs, failed ones included.
func (p *Progress) Done(err error) int64 {
	if err != nil {
		p.failed.Add(1)
	}
	return p.finished.Add(1)
}

// Snapshot returns the current counts.
func (p *Progress) Snapshot() (completed, failed, total int64) {
	finished, failed := p.finished.Load(), p.failed.Load()
	return finished - failed, failed, p.total.Load()
}

// Percentage is the share of finished jobs, 0 to 100.
func (p *Progress) Percentage() float64 {
	c, f, t := p.Snapshot()
	if t == 0 {
		return 0
	}
	return float64(c+f) / float64(t) * 100
}

// Track wraps each job so its outcome is recorded. onStep is called, from
// the finishing job's goroutine, every time another tenth of the current
// total has finished; it may be nil.
func (p *Progress) Track(jobs []Job, onStep func(p *Progress)) []Job {
	wrapped := make([]Job, len(jobs))
	for i, job := range jobs {
		job := job
		wrapped[i] = func(ctx context.Context) error {
			err := job(ctx)
			n := p.Done(err)
			if onStep == nil {
				return err
			}
			total := p.total.Load()
			step := total / 10
			if step == 0 {
				step = 1
			}
			if n%step == 0 || n == total {
				onStep(p)
			}
			return err
		}
	}
	return wrapped
}
