package board

import "time"

// Synchronizer decides when the board may fetch a fresh snapshot. It is a
// plain state machine with no timer of its own: the caller feeds it timer
// ticks and focus transitions and asks whether a fetch should start. Keeping
// the cadence rules here keeps the update loop thin and makes the schedule
// testable without a terminal.
//
// Rules: ticks are skipped while a fetch is outstanding (polls never overlap)
// and while the terminal is unfocused (polling pauses, it does not slow).
// Regaining focus triggers one immediate fetch instead of waiting out the
// period.
type Synchronizer struct {
	interval time.Duration
	paused   bool
	inFlight bool
	cycles   int
}

// NewSynchronizer returns a focused, idle synchronizer with the given poll
// period.
func NewSynchronizer(interval time.Duration) *Synchronizer {
	return &Synchronizer{interval: interval}
}

// Interval returns the poll period.
func (s *Synchronizer) Interval() time.Duration {
	return s.interval
}

// Begin marks a timer-driven fetch as started. It reports false while paused
// or while a previous fetch is still outstanding; the caller must then skip
// this tick.
func (s *Synchronizer) Begin() bool {
	if s.paused || s.inFlight {
		return false
	}
	s.inFlight = true
	return true
}

// BeginManual is Begin for user-triggered refreshes: the paused flag is
// ignored (the user asked for it) but an outstanding fetch still blocks a
// second one.
func (s *Synchronizer) BeginManual() bool {
	if s.inFlight {
		return false
	}
	s.inFlight = true
	return true
}

// Done marks the outstanding fetch finished and returns the total number of
// completed cycles. Failed fetches count as cycles too: the wait until the
// next tick is the same either way.
func (s *Synchronizer) Done() int {
	if !s.inFlight {
		return s.cycles
	}
	s.inFlight = false
	s.cycles++
	return s.cycles
}

// Pause stops timer-driven polling, typically on terminal blur. An
// outstanding fetch is left to finish; its result still applies.
func (s *Synchronizer) Pause() {
	s.paused = true
}

// Resume restarts polling after a pause and reports whether an immediate
// fetch should run. Resuming while already focused, or while a fetch is
// outstanding, starts nothing.
func (s *Synchronizer) Resume() bool {
	if !s.paused {
		return false
	}
	s.paused = false
	return s.BeginManual()
}

// Paused reports whether timer-driven polling is currently suspended.
func (s *Synchronizer) Paused() bool {
	return s.paused
}

// InFlight reports whether a fetch is currently outstanding.
func (s *Synchronizer) InFlight() bool {
	return s.inFlight
}

// Cycles returns how many fetches have completed since startup.
func (s *Synchronizer) Cycles() int {
	return s.cycles
}
