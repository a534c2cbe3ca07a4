package dynamo

import "errors"

// Domain errors shared across packages.
var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates vectors whose lengths do not agree.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")

	// ErrUnknownName indicates a registry lookup for a name that was never registered.
	ErrUnknownName = errors.New("dynamo: unknown name")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return e.Wrapped.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
