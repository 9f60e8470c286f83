package prover

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/air"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/trace"
)

// Backend is a polynomial proving system. The prover hands it the
// constraint system and the trace as the sole witness; everything
// cryptographic happens behind this call.
type Backend interface {
	// Name identifies the backend in errors and logs
	Name() string

	// Prove produces a proof that t satisfies a
	Prove(ctx context.Context, cfg *Config, a *air.StackAir, t *trace.Trace, publicInputs []field.Element) (Proof, error)
}

// Proof is an opaque backend proof
type Proof interface {
	json.Marshaler

	// Log2Height is log2 of the proven trace's row count
	Log2Height() int
}

// BackendError wraps a backend failure without altering it
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Backend, e.Err)
}

// Unwrap returns the backend's original error
func (e *BackendError) Unwrap() error {
	return e.Err
}
