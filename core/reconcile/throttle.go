package reconcile

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

// OncePerSession is the throttle interval allowing a single pass per scope for
// the lifetime of the process unless the pass is forced.
const OncePerSession time.Duration = math.MaxInt64

// CursorStore persists the last successful sync time per scope.
type CursorStore interface {
	Load(scope Scope) (time.Time, bool)
	Save(scope Scope, at time.Time)
}

// MemoryCursorStore keeps sync cursors in process memory.
type MemoryCursorStore struct {
	mu      sync.RWMutex
	cursors map[Scope]time.Time
}

// NewMemoryCursorStore creates an empty cursor store.
func NewMemoryCursorStore() *MemoryCursorStore {
	return &MemoryCursorStore{cursors: make(map[Scope]time.Time)}
}

func (s *MemoryCursorStore) Load(scope Scope) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.cursors[scope]
	return t, ok
}

func (s *MemoryCursorStore) Save(scope Scope, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[scope] = at
}

// Throttle prevents redundant passes within a minimum interval.
// It is purely time based; the caller supplies the current time.
type Throttle struct {
	interval time.Duration
	cursors  CursorStore
}

// NewThrottle creates a throttle. A nil cursor store uses process memory.
// An interval of zero never throttles.
func NewThrottle(interval time.Duration, cursors CursorStore) *Throttle {
	if cursors == nil {
		cursors = NewMemoryCursorStore()
	}
	return &Throttle{interval: interval, cursors: cursors}
}

// Interval returns the configured minimum interval.
func (t *Throttle) Interval() time.Duration {
	return t.interval
}

// ShouldRun reports whether a non-forced pass for scope may run at now.
func (t *Throttle) ShouldRun(scope Scope, now time.Time) bool {
	last, ok := t.cursors.Load(scope)
	if !ok {
		return true
	}
	if t.interval == OncePerSession {
		return false
	}
	return now.Sub(last) >= t.interval
}

// RecordRun stores now as the last successful pass for scope.
func (t *Throttle) RecordRun(scope Scope, now time.Time) {
	t.cursors.Save(scope, now)
}

// LastRun returns the last successful pass time for scope.
func (t *Throttle) LastRun(scope Scope) (time.Time, bool) {
	return t.cursors.Load(scope)
}

// ParseInterval parses a throttle interval from configuration.
// "session" (or an empty value) means OncePerSession; anything else is a Go duration.
func ParseInterval(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "session") {
		return OncePerSession, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid sync interval %q: %w", value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid sync interval %q: must not be negative", value)
	}
	return d, nil
}
