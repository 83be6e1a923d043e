package schedule

import "errors"

// Layout and gesture errors.
var (
	// ErrInvalidRange is returned for a range whose end is before its start
	// or whose duration is below the minimum.
	ErrInvalidRange = errors.New("invalid time range")
	// ErrEntityNotFound is returned when a gesture references an entity that
	// is not part of the current layout.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrMutationFailed wraps a rejected or timed-out collaborator update.
	ErrMutationFailed = errors.New("mutation failed")
	// ErrConcurrentGesture is returned when a gesture starts on an entity
	// that still has a mutation in flight.
	ErrConcurrentGesture = errors.New("entity has a mutation in flight")
)
