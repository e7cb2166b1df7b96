package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"psephos/internal"
	"psephos/internal/errors"
)

// RebuildFunc performs one full pipeline rebuild. It must read the live
// selection state itself (as a snapshot) and gate any result commit through
// Scheduler.Commit with the generation it was handed, so a rebuild that
// resolved after a newer selection was issued is discarded. The context
// carries the bounded wait: the scheduler never interrupts a running
// rebuild, so any long or blocking work inside must watch ctx itself.
type RebuildFunc func(ctx context.Context, gen uint64) error

// Scheduler coalesces full pipeline rebuilds. Selection changes arrive in
// rapid bursts (drag-driven dropdowns, programmatic updates); each Request
// bumps a monotonic generation and resets a debounce timer, so only the
// latest state triggers the expensive statistics + binning + paint pass.
// Highlight-only changes never come through here; they ride the fast path.
type Scheduler struct {
	debounce time.Duration
	timeout  time.Duration
	rebuild  RebuildFunc
	logger   *internal.Logger

	// One rebuild in flight at a time; queued generations re-check
	// staleness after acquiring.
	sem *semaphore.Weighted

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	lastErr error
}

// NewScheduler creates a scheduler with the given coalescing window and
// per-rebuild bounded wait.
func NewScheduler(debounce, timeout time.Duration, rebuild RebuildFunc) *Scheduler {
	return &Scheduler{
		debounce: debounce,
		timeout:  timeout,
		rebuild:  rebuild,
		logger:   internal.DefaultLogger,
		sem:      semaphore.NewWeighted(1),
	}
}

// Request schedules a rebuild after the debounce window and returns the new
// generation stamp. A second Request inside the window supersedes the first.
func (s *Scheduler) Request() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	gen := s.gen

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.execute(gen)
	})
	return gen
}

// Retry re-runs the current generation immediately, bypassing the debounce.
// Used after a timed-out or failed rebuild; no page reload required.
func (s *Scheduler) Retry() uint64 {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	gen := s.gen
	s.mu.Unlock()

	go s.execute(gen)
	return gen
}

// Commit applies a rebuild's result only if gen is still the latest
// generation, and reports whether it was applied. Callers hold no scheduler
// locks inside apply beyond this method's own.
func (s *Scheduler) Commit(gen uint64, apply func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	apply()
	return true
}

// LastError returns the most recent rebuild failure, or nil after a clean
// pass. Surfaced to the UI as a dismissible banner with a retry action.
func (s *Scheduler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Generation returns the current generation stamp.
func (s *Scheduler) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Scheduler) execute(gen uint64) {
	if s.stale(gen) {
		return
	}

	if err := s.sem.Acquire(context.Background(), 1); err != nil {
		return
	}
	defer s.sem.Release(1)

	// A newer request may have landed while this one waited its turn.
	if s.stale(gen) {
		return
	}

	// The deadline bounds reporting, not execution: a rebuild that overruns
	// it keeps running (the in-memory passes are cheap and their commit is
	// generation-gated), but the failure is surfaced as RENDER_TIMEOUT so
	// the banner and retry action appear. Rebuilds that call anything slow
	// are expected to honor ctx and bail out early.
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	err := s.rebuild(ctx, gen)
	if ctx.Err() == context.DeadlineExceeded {
		err = errors.RenderTimeout("pipeline rebuild exceeded bounded wait")
	}

	s.mu.Lock()
	if gen == s.gen {
		s.lastErr = err
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("pipeline rebuild gen %d failed: %v", gen, err)
	}
}

func (s *Scheduler) stale(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen != s.gen
}
