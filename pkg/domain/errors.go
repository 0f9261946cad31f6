package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors usable with errors.Is against the typed errors below.
var (
	ErrDegenerateTimeline   = errors.New("degenerate timeline")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidWindow        = errors.New("invalid reporting window")
	ErrPopulationNotFound   = errors.New("population not found")
)

// DegenerateTimelineError reports a chain, gap or ceiling that resolved to a
// negative number of days.
type DegenerateTimelineError struct {
	Field string
	Days  int
}

func (e DegenerateTimelineError) Error() string {
	return fmt.Sprintf("degenerate timeline: %s resolved to %d days", e.Field, e.Days)
}

// Is matches ErrDegenerateTimeline.
func (e DegenerateTimelineError) Is(target error) bool { return target == ErrDegenerateTimeline }

// ConfigurationError reports an invalid generation parameter, such as a
// Probabilities field or a batch size.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Is matches ErrInvalidConfiguration.
func (e ConfigurationError) Is(target error) bool { return target == ErrInvalidConfiguration }

// OutOfWindowSnapshotError reports a reporting window whose start is not before its end.
type OutOfWindowSnapshotError struct {
	Start time.Time
	End   time.Time
}

func (e OutOfWindowSnapshotError) Error() string {
	return fmt.Sprintf("invalid reporting window: start %s is not before end %s",
		e.Start.Format(time.DateOnly), e.End.Format(time.DateOnly))
}

// Is matches ErrInvalidWindow.
func (e OutOfWindowSnapshotError) Is(target error) bool { return target == ErrInvalidWindow }

// ChildGenerationError wraps a failure while generating one child of a batch.
type ChildGenerationError struct {
	Index int
	Err   error
}

func (e ChildGenerationError) Error() string {
	return fmt.Sprintf("generate child %d: %v", e.Index, e.Err)
}

func (e ChildGenerationError) Unwrap() error { return e.Err }
