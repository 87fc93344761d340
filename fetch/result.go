package fetch

import "time"

// Phase is the execution phase of an Executor.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the outcome of one execution. Exactly one of Success, Canceled
// or a non-nil Err describes it.
type Result[T any] struct {
	Success   bool
	Data      T
	Err       error
	FromCache bool
	Canceled  bool
}

// State is a snapshot of an Executor for rendering.
type State[T any] struct {
	Phase Phase
	// Data is the last successful or mutated value. It survives errors and
	// background revalidation.
	Data    T
	HasData bool
	Err     error
	// Validating is set while a background revalidation runs.
	Validating bool
	FromCache  bool
	UpdatedAt  time.Time
}

// Loading reports whether a foreground execution is in flight.
func (s State[T]) Loading() bool { return s.Phase == PhaseLoading }
