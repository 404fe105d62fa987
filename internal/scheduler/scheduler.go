// Package scheduler runs one refresh cycle at a time, either on a fixed
// interval or on demand.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/okian/deathboard/pkg/logger"
	"github.com/okian/deathboard/pkg/metrics"
)

// Default scheduler configuration constants.
const (
	defaultInterval        = time.Minute
	defaultWaitTimeout     = 30 * time.Second
	defaultShutdownTimeout = 30 * time.Second
)

var (
	// ErrBusy is returned when a manual trigger could not get a turn in time.
	ErrBusy = errors.New("a refresh is already running")
	// ErrStopped is returned for triggers after Stop.
	ErrStopped = errors.New("scheduler stopped")
	// ErrPanic wraps a panic recovered from a job.
	ErrPanic = errors.New("job panicked")
)

// State is the scheduler run state.
type State string

// Scheduler states.
const (
	Idle    State = "idle"
	Running State = "running"
)

// Job is one refresh cycle.
type Job func(ctx context.Context) error

// Stats is a snapshot of scheduler counters.
type Stats struct {
	State       State     `json:"state"`
	Runs        int64     `json:"runs"`
	Failures    int64     `json:"failures"`
	Dropped     int64     `json:"dropped_ticks"`
	Rejected    int64     `json:"rejected_triggers"`
	LastRun     time.Time `json:"last_run,omitempty"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// Scheduler serializes cycles behind a weight-1 semaphore.
type Scheduler struct {
	job             Job
	interval        time.Duration
	waitTimeout     time.Duration
	shutdownTimeout time.Duration
	outcome         func(error) string

	sem     *semaphore.Weighted
	running atomic.Bool
	stopped atomic.Bool

	// Shutdown control
	startOnce sync.Once
	stopOnce  sync.Once
	shutdown  chan struct{}
	done      chan struct{}

	mu    sync.Mutex
	stats Stats

	logger logger.Logger
}

// New creates a scheduler that runs job on every tick.
func New(job Job, opts ...Option) *Scheduler {
	s := &Scheduler{
		job:             job,
		interval:        defaultInterval,
		waitTimeout:     defaultWaitTimeout,
		shutdownTimeout: defaultShutdownTimeout,
		outcome:         defaultOutcome,
		sem:             semaphore.NewWeighted(1),
		shutdown:        make(chan struct{}),
		done:            make(chan struct{}),
		logger:          logger.Get().Named("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the timer loop. The first cycle runs immediately.
// Calling Start more than once has no effect.
func (s *Scheduler) Start(ctx context.Context) {
	started := false
	s.startOnce.Do(func() {
		started = true
		go s.loop(ctx)
	})
	if started {
		s.logger.Info(ctx, "scheduler started", logger.String("interval", s.interval.String()))
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs the periodic job unless a cycle is already in flight.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.sem.TryAcquire(1) {
		s.mu.Lock()
		s.stats.Dropped++
		s.mu.Unlock()
		metrics.RecordCycleDropped(metrics.TriggerScheduled)
		s.logger.Warn(ctx, "tick dropped; previous cycle still running")
		return
	}
	defer s.sem.Release(1)
	_ = s.run(ctx, metrics.TriggerScheduled, s.job)
}

// Trigger runs job as a manual cycle. It waits for a running cycle to finish,
// bounded by ctx and the configured wait timeout, and returns ErrBusy when it
// does not get a turn. The job's own error is returned otherwise.
func (s *Scheduler) Trigger(ctx context.Context, job Job) error {
	if s.stopped.Load() {
		return ErrStopped
	}
	if job == nil {
		job = s.job
	}

	waitCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.waitTimeout > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, s.waitTimeout)
	}
	err := s.sem.Acquire(waitCtx, 1)
	cancel()
	if err != nil {
		s.mu.Lock()
		s.stats.Rejected++
		s.mu.Unlock()
		metrics.RecordCycle(metrics.TriggerManual, metrics.OutcomeRejected, 0)
		s.logger.Warn(ctx, "manual trigger rejected", logger.Error(err))
		return fmt.Errorf("%w: %w", ErrBusy, err)
	}
	defer s.sem.Release(1)

	if s.stopped.Load() {
		return ErrStopped
	}
	return s.run(ctx, metrics.TriggerManual, job)
}

// run executes job with the semaphore held.
func (s *Scheduler) run(ctx context.Context, trigger string, job Job) (err error) {
	s.running.Store(true)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
		s.running.Store(false)
		d := time.Since(start)
		outcome := s.outcome(err)
		metrics.RecordCycle(trigger, outcome, d)
		s.record(start, err)

		fields := []logger.Field{
			logger.String("trigger", trigger),
			logger.String("outcome", outcome),
			logger.String("duration", d.String()),
		}
		if err != nil {
			s.logger.Error(ctx, "cycle failed", append(fields, logger.Error(err))...)
			return
		}
		s.logger.Debug(ctx, "cycle finished", fields...)
	}()

	return job(ctx)
}

func (s *Scheduler) record(at time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Runs++
	s.stats.LastRun = at
	if err != nil {
		s.stats.Failures++
		s.stats.LastError = err.Error()
		return
	}
	s.stats.LastSuccess = at
	s.stats.LastError = ""
}

// Stop cancels the timer and waits for an in-flight cycle, bounded by the
// shutdown timeout. Later triggers return ErrStopped.
func (s *Scheduler) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		close(s.shutdown)

		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		// A scheduler that was never started has no loop to wait for.
		s.startOnce.Do(func() { close(s.done) })
		exited := false
		select {
		case <-s.done:
			exited = true
		case <-ctx.Done():
		}
		if !exited {
			err = fmt.Errorf("shutdown timed out: %w", ctx.Err())
			s.logger.Warn(ctx, "scheduler loop did not exit in time")
			return
		}

		if aerr := s.sem.Acquire(ctx, 1); aerr != nil {
			err = fmt.Errorf("shutdown timed out: %w", aerr)
			s.logger.Warn(ctx, "in-flight cycle did not finish in time")
			return
		}
		s.sem.Release(1)
		s.logger.Info(ctx, "scheduler stopped")
	})
	return err
}

// State reports whether a cycle is currently running.
func (s *Scheduler) State() State {
	if s.running.Load() {
		return Running
	}
	return Idle
}

// Stats returns a snapshot of the scheduler counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.State = s.State()
	return st
}

func defaultOutcome(err error) string {
	if err != nil {
		return metrics.OutcomeFailed
	}
	return metrics.OutcomeSuccess
}
