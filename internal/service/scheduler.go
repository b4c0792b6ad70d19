package service

import (
	"sync"
	"time"
)

// DecorationScheduler coalesces decoration requests into a single deferred
// pass keyed by the latest cache version. Scheduling again before the pass
// runs cancels the pending one.
type DecorationScheduler struct {
	delay time.Duration
	run   func(version uint64)

	// runMu serializes passes so Flush returns only after an in-flight pass
	runMu sync.Mutex

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	latest  uint64
	lastRun uint64
	ran     bool
	stopped bool
}

func NewDecorationScheduler(delay time.Duration, run func(version uint64)) *DecorationScheduler {
	return &DecorationScheduler{delay: delay, run: run}
}

// Schedule requests a pass for version, deferred by the configured delay
func (s *DecorationScheduler) Schedule(version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if version > s.latest {
		s.latest = version
	}
	s.pending = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.fire)
}

// Flush runs the pending pass now, if any, and waits for a pass already running
func (s *DecorationScheduler) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	s.fire()
}

// Stop cancels the pending pass and ignores further requests
func (s *DecorationScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	s.pending = false
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *DecorationScheduler) fire() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	if !s.pending || s.stopped {
		s.mu.Unlock()
		return
	}
	s.pending = false
	version := s.latest
	if s.ran && version <= s.lastRun {
		s.mu.Unlock()
		return
	}
	s.ran = true
	s.lastRun = version
	s.mu.Unlock()

	s.run(version)
}
