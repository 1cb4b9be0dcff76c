package processor

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Strategy selects how a Pool schedules jobs.
type Strategy int

const (
	// Parallel runs up to MaxWorkers jobs at once; results arrive in completion order.
	Parallel Strategy = iota
	// Sequential runs one job at a time in submission order.
	Sequential
)

func (s Strategy) String() string {
	if s == Sequential {
		return "sequential"
	}
	return "parallel"
}

// ExecFunc converts one job. It is called from worker goroutines.
type ExecFunc func(Job) Result

// Pool fans jobs out to worker goroutines. Workers share nothing but the
// read-only job values they receive; results travel back over a channel.
type Pool struct {
	strategy   Strategy
	maxWorkers int
	exec       ExecFunc
	dispatched atomic.Int64
}

// NewPool returns a pool. maxWorkers <= 0 means runtime.NumCPU().
func NewPool(strategy Strategy, maxWorkers int, exec ExecFunc) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	return &Pool{strategy: strategy, maxWorkers: maxWorkers, exec: exec}
}

// Size is the number of workers Run would start for n jobs.
func (p *Pool) Size(n int) int {
	if p.strategy == Sequential {
		return min(1, n)
	}
	return min(p.maxWorkers, n)
}

// Dispatched is how many jobs of the current Run a worker has started.
func (p *Pool) Dispatched() int {
	return int(p.dispatched.Load())
}

// Run starts the workers and returns the result stream. Once ctx is done no
// further job starts; jobs already running finish and the stream closes
// after them.
func (p *Pool) Run(ctx context.Context, jobs []Job) <-chan Result {
	p.dispatched.Store(0)

	workers := p.Size(len(jobs))
	results := make(chan Result, max(workers, 1))
	if workers == 0 {
		close(results)
		return results
	}

	work := make(chan Job)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for job := range work {
				// a handoff can win the race against cancellation
				if ctx.Err() != nil {
					continue
				}
				p.dispatched.Add(1)
				results <- p.run(job)
			}
		}()
	}

	go func() {
		defer close(work)
		for _, job := range jobs {
			if ctx.Err() != nil {
				return
			}
			select {
			case work <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func (p *Pool) run(job Job) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("worker panic: %v", r)
			res = Result{
				RelPath:  job.RelPath,
				Err:      err,
				Messages: []string{fmt.Sprintf("Error processing %s: %v", job.RelPath, err)},
			}
		}
	}()
	return p.exec(job)
}
