package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"shrinkray/internal/codec"
)

// Controller runs one conversion session at a time and publishes its
// progress on a Channel. Start, Stop, State, Events, Wait and Acknowledge are
// safe to call from any goroutine.
type Controller struct {
	codec    codec.Codec
	log      *log.Logger
	strategy Strategy
	workers  int
	now      func() time.Time

	stop atomic.Bool

	mu         sync.Mutex
	id         string
	state      State
	events     *Channel
	startedAt  time.Time
	finishedAt time.Time
	processed  int
	failed     int
	total      int
	err        error
	cancel     context.CancelFunc
	done       chan struct{}
}

type Option func(*Controller)

func WithStrategy(s Strategy) Option {
	return func(c *Controller) { c.strategy = s }
}

// WithWorkers caps parallel workers; <= 0 means one per CPU.
func WithWorkers(n int) Option {
	return func(c *Controller) { c.workers = n }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock replaces time.Now for rate and ETA calculations.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(cd codec.Codec, opts ...Option) *Controller {
	done := make(chan struct{})
	close(done)
	c := &Controller{
		codec:    cd,
		log:      log.New(io.Discard),
		strategy: Parallel,
		now:      time.Now,
		events:   NewChannel(),
		done:     done,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start validates s and begins a session in the background. It is rejected
// with ErrSessionActive while another session is running; a finished session
// is acknowledged implicitly. Invalid settings fail the session immediately
// and the *SetupError is returned.
func (c *Controller) Start(s Settings) error {
	c.mu.Lock()
	if c.runningLocked() {
		c.mu.Unlock()
		return ErrSessionActive
	}

	c.stop.Store(false)
	c.events = NewChannel()
	c.processed, c.failed, c.total = 0, 0, 0
	c.err = nil
	c.startedAt = c.now()
	c.finishedAt = time.Time{}
	c.done = make(chan struct{})
	c.id = uuid.NewString()
	lg := c.log.With("session", c.id)

	settings := s.freeze()
	if err := settings.Validate(); err != nil {
		setupErr := &SetupError{Err: err}
		c.failLocked(setupErr, lg)
		close(c.done)
		c.mu.Unlock()
		return setupErr
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state = StateEnumerating
	events, done := c.events, c.done
	c.mu.Unlock()

	lg.Info("session started", "root", settings.SourceRoot, "formats", settings.Formats, "strategy", c.strategy)
	go func() {
		defer close(done)
		c.run(ctx, &settings, events, lg)
	}()
	return nil
}

// Stop asks the running session to dispatch no further jobs. Jobs already
// handed to a worker run to completion.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.runningLocked() || c.stop.Swap(true) {
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.events.log("Stop requested; finishing jobs already in progress")
	c.log.Info("stop requested", "session", c.id)
}

// Events returns the current session's channel. Each Start replaces it.
func (c *Controller) Events() *Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

// Wait blocks until the current session reaches a terminal state.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	<-done
}

// Acknowledge returns a finished session to StateIdle. It reports false when
// a session is still running.
func (c *Controller) Acknowledge() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runningLocked() {
		return false
	}
	c.state = StateIdle
	return true
}

func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		ID:            c.id,
		State:         c.state,
		Running:       c.runningLocked(),
		StopRequested: c.stop.Load(),
		StartedAt:     c.startedAt,
		Processed:     c.processed,
		Failed:        c.failed,
		Total:         c.total,
		Err:           c.err,
	}
	switch {
	case c.startedAt.IsZero():
	case snap.Running:
		snap.Elapsed = c.now().Sub(c.startedAt)
	default:
		snap.Elapsed = c.finishedAt.Sub(c.startedAt)
	}
	snap.Rate, snap.ETA = throughput(c.processed, c.total, snap.Elapsed)
	return snap
}

func (c *Controller) runningLocked() bool {
	switch c.state {
	case StateEnumerating, StateDispatching, StateDraining:
		return true
	}
	return false
}

func (c *Controller) run(ctx context.Context, s *Settings, events *Channel, lg *log.Logger) {
	names, roots := s.reserved()
	files, err := Enumerate(s.SourceRoot, Exclusions{Names: names, Roots: roots})
	if err != nil {
		c.fail(&SetupError{Err: err}, lg)
		return
	}
	events.log(fmt.Sprintf("Found %d image files to process", len(files)))
	if len(files) == 0 {
		c.fail(&SetupError{Err: ErrNoFiles}, lg)
		return
	}
	if c.stop.Load() {
		c.finish(StateStopped, lg)
		return
	}

	c.setState(StateDispatching)
	for _, f := range s.Formats {
		dir := s.OutputRoot(f)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.fail(&SetupError{Err: fmt.Errorf("create %s output folder: %w", f.Label(), err)}, lg)
			return
		}
		events.log(fmt.Sprintf("Created %s output folder: %s", f.Label(), dir))
	}

	jobs := make([]Job, len(files))
	for i, rel := range files {
		jobs[i] = Job{SourcePath: filepath.Join(s.SourceRoot, rel), RelPath: rel, Settings: s}
	}

	pool := NewPool(c.strategy, c.workers, func(job Job) Result {
		return Execute(c.codec, job)
	})
	results := pool.Run(ctx, jobs)

	c.mu.Lock()
	c.total = len(jobs)
	c.state = StateDraining
	c.mu.Unlock()
	events.Push(Event{Kind: EventTotal, Total: len(jobs)})
	lg.Info("dispatching", "jobs", len(jobs), "workers", pool.Size(len(jobs)))

	announced := false
	for res := range results {
		if c.stop.Load() && !announced {
			announced = true
			lg.Debug("draining in-flight jobs after stop", "dispatched", pool.Dispatched())
		}
		c.record(res, s, events, lg)
	}

	if c.stop.Load() {
		c.finish(StateStopped, lg)
		return
	}
	c.finish(StateCompleted, lg)
}

func (c *Controller) record(res Result, s *Settings, events *Channel, lg *log.Logger) {
	c.mu.Lock()
	if c.processed < c.total {
		c.processed++
	}
	if !res.Succeeded {
		c.failed++
	}
	processed, failed, total := c.processed, c.failed, c.total
	elapsed := c.now().Sub(c.startedAt)
	c.mu.Unlock()

	rate, eta := throughput(processed, total, elapsed)
	events.Push(Event{
		Kind:      EventProgress,
		Processed: processed,
		Failed:    failed,
		Total:     total,
		Rate:      rate,
		ETA:       eta,
	})

	partial := res.Succeeded && len(res.Outputs) < len(s.Formats)
	switch {
	case !res.Succeeded || partial:
		for _, msg := range res.Messages {
			events.log(msg)
		}
		lg.Warn("conversion problem", "file", res.RelPath, "err", res.Err, "partial", partial)
	case processed <= 3 || processed%5 == 0 || processed == total:
		events.log(fmt.Sprintf("[%d/%d] %s (%.1f img/s, ETA %s)", processed, total, res.RelPath, rate, eta.Round(time.Second)))
	default:
		lg.Debug("converted", "file", res.RelPath)
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) finish(state State, lg *log.Logger) {
	c.mu.Lock()
	c.state = state
	c.finishedAt = c.now()
	if c.cancel != nil {
		c.cancel()
	}
	processed, failed, total, events := c.processed, c.failed, c.total, c.events
	c.mu.Unlock()

	switch state {
	case StateStopped:
		events.log(fmt.Sprintf("Stopped: %d of %d images processed.", processed, total))
		events.Push(Event{Kind: EventStopped, Processed: processed, Failed: failed, Total: total})
	default:
		events.log(fmt.Sprintf("Processing complete! %d images processed.", processed))
		events.Push(Event{Kind: EventCompleted, Processed: processed, Failed: failed, Total: total})
	}
	lg.Info("session finished", "state", state, "processed", processed, "failed", failed, "total", total)
}

func (c *Controller) fail(err error, lg *log.Logger) {
	c.mu.Lock()
	c.failLocked(err, lg)
	c.mu.Unlock()
}

func (c *Controller) failLocked(err error, lg *log.Logger) {
	c.state = StateFailed
	c.err = err
	c.finishedAt = c.now()
	if c.cancel != nil {
		c.cancel()
	}
	c.events.Push(Event{Kind: EventError, Text: err.Error()})
	lg.Error("session failed", "err", err)
}

// throughput returns images per second and the time left at that rate.
func throughput(processed, total int, elapsed time.Duration) (float64, time.Duration) {
	if processed <= 0 || elapsed <= 0 {
		return 0, 0
	}
	rate := float64(processed) / elapsed.Seconds()
	remaining := total - processed
	if remaining <= 0 {
		return rate, 0
	}
	return rate, time.Duration(float64(remaining) / rate * float64(time.Second))
}
