package core

import (
	"errors"
	"fmt"
)

// ErrIterationLimit is returned once an IterationLimiter is exhausted.
var ErrIterationLimit = errors.New("iteration limit reached")

// IterationLimiter bounds the number of model calls one agent invocation may
// make. It is owned by a single invocation and is not safe for concurrent use.
type IterationLimiter struct {
	max   int
	count int
}

// NewIterationLimiter creates a limiter allowing max calls. max <= 0 means unlimited.
func NewIterationLimiter(max int) *IterationLimiter {
	return &IterationLimiter{max: max}
}

// Increment records a call and returns ErrIterationLimit once max is exceeded.
func (l *IterationLimiter) Increment() error {
	l.count++
	if l.max > 0 && l.count > l.max {
		return fmt.Errorf("%w: %d", ErrIterationLimit, l.max)
	}
	return nil
}

// Count returns the number of calls recorded so far.
func (l *IterationLimiter) Count() int { return l.count }

// Remaining returns how many calls are left, or -1 when unlimited.
func (l *IterationLimiter) Remaining() int {
	if l.max <= 0 {
		return -1
	}
	if r := l.max - l.count; r > 0 {
		return r
	}
	return 0
}
