package ai

import "sync/atomic"

// ModelState tracks which model a Client calls. It starts on the primary
// model and can move to the fallback exactly once; it never moves back.
// Safe for concurrent use.
type ModelState struct {
	primary  string
	fallback string

	active       atomic.Pointer[string]
	fallbackUsed atomic.Bool
}

// NewModelState starts on primary
func NewModelState(primary, fallback string) *ModelState {
	s := &ModelState{primary: primary, fallback: fallback}
	s.active.Store(&primary)
	return s
}

// Active returns the model currently in use
func (s *ModelState) Active() string {
	return *s.active.Load()
}

// Fallback returns the configured fallback model
func (s *ModelState) Fallback() string {
	return s.fallback
}

// FallbackUsed reports whether the switch has happened
func (s *ModelState) FallbackUsed() bool {
	return s.fallbackUsed.Load()
}

// SwitchToFallback moves to the fallback model if one distinct from the
// primary is configured and the switch has not happened yet. Only the caller
// that wins the compare-and-swap gets true; concurrent callers are harmless.
func (s *ModelState) SwitchToFallback() bool {
	if s.fallback == "" || s.fallback == s.primary {
		return false
	}
	if !s.fallbackUsed.CompareAndSwap(false, true) {
		return false
	}
	fb := s.fallback
	s.active.Store(&fb)
	return true
}
