package vybiumstackair

import (
	"errors"
	"fmt"

	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/air"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/commit"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/prover"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/vm"
)

// ErrorCode represents a stack AIR error code
type ErrorCode int

const (
	// ErrUnknown represents an unknown error
	ErrUnknown ErrorCode = iota

	// ErrInvalidConfig represents an invalid configuration error
	ErrInvalidConfig

	// ErrVMExecution represents a fatal execution error such as a zero divisor
	ErrVMExecution

	// ErrConstraintViolation represents a trace that does not satisfy the constraints
	ErrConstraintViolation

	// ErrBackend represents any other proving backend failure
	ErrBackend

	// ErrInvalidInput represents a malformed program, trace or proof encoding
	ErrInvalidInput

	// ErrInvalidProof represents a proof that failed verification
	ErrInvalidProof
)

var errorCodeNames = map[ErrorCode]string{
	ErrUnknown:             "unknown",
	ErrInvalidConfig:       "invalid config",
	ErrVMExecution:         "vm execution",
	ErrConstraintViolation: "constraint violation",
	ErrBackend:             "backend",
	ErrInvalidInput:        "invalid input",
	ErrInvalidProof:        "invalid proof",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// AIRError is the error type returned by this package
type AIRError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error returns the error message
func (e *AIRError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vybium-stack-air error [%s]: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("vybium-stack-air error [%s]: %s", e.Code, e.Message)
}

// Unwrap returns the cause of the error
func (e *AIRError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error
func (e *AIRError) Is(target error) bool {
	t, ok := target.(*AIRError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// CodeOf returns the code of the first AIRError in err's chain, or ErrUnknown
func CodeOf(err error) ErrorCode {
	var airErr *AIRError
	if errors.As(err, &airErr) {
		return airErr.Code
	}
	return ErrUnknown
}

// wrap classifies an internal error. The cause is kept intact so callers
// can still match the internal sentinels.
func wrap(err error, fallback ErrorCode, message string) error {
	if err == nil {
		return nil
	}

	code := fallback
	var execErr *vm.ExecutionError
	switch {
	case errors.Is(err, commit.ErrInvalidProof):
		code = ErrInvalidProof
	case errors.Is(err, air.ErrConstraintViolation):
		code = ErrConstraintViolation
	case errors.As(err, &execErr):
		code = ErrVMExecution
	case errors.Is(err, prover.ErrInvalidTrace), errors.Is(err, prover.ErrTraceTooLarge):
		code = ErrInvalidInput
	}

	return &AIRError{Code: code, Message: message, Cause: err}
}
