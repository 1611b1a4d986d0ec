package agent

import (
	"errors"
	"fmt"
)

// Common sentinel errors for turn execution.
var (
	// ErrNoProvider indicates no model provider is configured.
	ErrNoProvider = errors.New("no provider configured")

	// ErrNotAgentStep indicates the requested step is not a live agent step.
	ErrNotAgentStep = errors.New("step is not an agent action")

	// ErrMaxRounds indicates the tool-use loop exceeded its round limit.
	ErrMaxRounds = errors.New("max rounds exceeded")

	// ErrToolPanic indicates a tool panicked during execution.
	ErrToolPanic = errors.New("tool panicked")
)

// TurnPhase names the engine state in which a failure occurred.
type TurnPhase string

const (
	PhaseRequesting  TurnPhase = "requesting"
	PhaseDispatching TurnPhase = "dispatching"
)

// TurnError wraps a round-breaking failure with the phase and round it
// occurred in.
type TurnError struct {
	Phase TurnPhase
	Round int
	Cause error
}

// Error implements the error interface.
func (e *TurnError) Error() string {
	return fmt.Sprintf("turn failed in %s phase (round %d): %v", e.Phase, e.Round, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *TurnError) Unwrap() error {
	return e.Cause
}
