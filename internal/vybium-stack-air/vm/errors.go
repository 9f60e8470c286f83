package vm

import (
	"errors"
	"fmt"
)

var (
	// ErrDivisionByZero is returned when a div instruction finds a zero divisor
	ErrDivisionByZero = errors.New("division by zero")

	// ErrHalted is returned when stepping a machine that has run out of instructions
	ErrHalted = errors.New("machine already halted")
)

// ExecutionError reports a fatal failure of the current run.
// The engine stops at the failing instruction; snapshots recorded before it
// stay available to the caller.
type ExecutionError struct {
	Step        int
	Instruction Instruction
	Cause       error
}

// Error returns the error message
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed at step %d (%s): %v", e.Step, e.Instruction, e.Cause)
}

// Unwrap returns the cause of the error
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}
