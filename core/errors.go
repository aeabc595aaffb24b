package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvariantViolation   = errors.New("invariant violation")
)

// InvalidConfig wraps ErrInvalidConfiguration with the offending parameter.
func InvalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

// InvariantViolationError is raised when the queue state leaves [0, K].
// Metrics computed after one of these would be meaningless, so a run that
// hits it is aborted.
type InvariantViolationError struct {
	Time      Duration
	Event     string
	Occupancy int
	Capacity  int
	Reason    string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation at t=%.6f on %s: %s (occupancy=%d, capacity=%d)",
		e.Time, e.Event, e.Reason, e.Occupancy, e.Capacity)
}

func (e *InvariantViolationError) Unwrap() error {
	return ErrInvariantViolation
}
