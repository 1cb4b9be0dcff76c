package processor

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func makeJobs(n int) []Job {
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = Job{RelPath: fmt.Sprintf("%02d.png", i)}
	}
	return jobs
}

func collect(results <-chan Result) []Result {
	var out []Result
	for r := range results {
		out = append(out, r)
	}
	return out
}

func TestPoolParallelBoundedAndComplete(t *testing.T) {
	var running, peak atomic.Int32
	exec := func(job Job) Result {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return Result{RelPath: job.RelPath, Succeeded: true}
	}

	pool := NewPool(Parallel, 3, exec)
	results := collect(pool.Run(context.Background(), makeJobs(20)))

	if len(results) != 20 {
		t.Fatalf("got %d results, want 20", len(results))
	}
	seen := map[string]bool{}
	for _, r := range results {
		if seen[r.RelPath] {
			t.Fatalf("duplicate result for %s", r.RelPath)
		}
		seen[r.RelPath] = true
	}
	if peak.Load() > 3 {
		t.Fatalf("peak concurrency %d exceeds 3", peak.Load())
	}
	if pool.Dispatched() != 20 {
		t.Fatalf("dispatched %d, want 20", pool.Dispatched())
	}
}

func TestPoolSize(t *testing.T) {
	if got := NewPool(Parallel, 8, nil).Size(3); got != 3 {
		t.Fatalf("parallel size for 3 jobs = %d, want 3", got)
	}
	if got := NewPool(Parallel, 2, nil).Size(10); got != 2 {
		t.Fatalf("parallel size capped = %d, want 2", got)
	}
	if got := NewPool(Sequential, 8, nil).Size(10); got != 1 {
		t.Fatalf("sequential size = %d, want 1", got)
	}
	if got := NewPool(Parallel, 0, nil).Size(0); got != 0 {
		t.Fatalf("size for no jobs = %d, want 0", got)
	}
}

func TestPoolCompletionOrder(t *testing.T) {
	exec := func(job Job) Result {
		if job.RelPath == "00.png" {
			time.Sleep(50 * time.Millisecond)
		}
		return Result{RelPath: job.RelPath, Succeeded: true}
	}

	results := collect(NewPool(Parallel, 2, exec).Run(context.Background(), makeJobs(2)))
	if len(results) != 2 || results[0].RelPath != "01.png" {
		t.Fatalf("expected the fast job first, got %+v", results)
	}
}

func TestPoolSequentialOrder(t *testing.T) {
	exec := func(job Job) Result {
		return Result{RelPath: job.RelPath, Succeeded: true}
	}

	results := collect(NewPool(Sequential, 8, exec).Run(context.Background(), makeJobs(10)))
	for i, r := range results {
		if want := fmt.Sprintf("%02d.png", i); r.RelPath != want {
			t.Fatalf("result %d is %s, want %s", i, r.RelPath, want)
		}
	}
}

func TestPoolCancelStopsDispatch(t *testing.T) {
	gate := make(chan struct{})
	var started atomic.Int32
	exec := func(job Job) Result {
		started.Add(1)
		<-gate
		return Result{RelPath: job.RelPath, Succeeded: true}
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(Parallel, 2, exec)
	results := pool.Run(ctx, makeJobs(50))

	deadline := time.Now().Add(2 * time.Second)
	for started.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("workers never started")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	close(gate)

	got := collect(results)
	if len(got) != 2 {
		t.Fatalf("got %d results after cancel, want the 2 in flight", len(got))
	}
	if started.Load() != 2 || pool.Dispatched() != 2 {
		t.Fatalf("started %d, dispatched %d after cancel; want 2", started.Load(), pool.Dispatched())
	}
}

func TestPoolRecoversPanics(t *testing.T) {
	exec := func(job Job) Result {
		if job.RelPath == "01.png" {
			panic("boom")
		}
		return Result{RelPath: job.RelPath, Succeeded: true}
	}

	results := collect(NewPool(Parallel, 2, exec).Run(context.Background(), makeJobs(4)))
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for _, r := range results {
		if r.RelPath == "01.png" {
			if r.Succeeded || r.Err == nil {
				t.Fatalf("panicking job should fail, got %+v", r)
			}
			continue
		}
		if !r.Succeeded {
			t.Fatalf("job %s should succeed", r.RelPath)
		}
	}
}

func TestPoolNoJobs(t *testing.T) {
	results := collect(NewPool(Parallel, 4, nil).Run(context.Background(), nil))
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}
