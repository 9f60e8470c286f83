// Package prover hands a completed trace and the stack machine constraints
// to a proving backend.
package prover

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/air"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/trace"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/vm"
)

var (
	// ErrInvalidTrace is returned for a missing or malformed trace
	ErrInvalidTrace = errors.New("invalid trace")

	// ErrTraceTooLarge is returned when the trace exceeds MaxLog2Height
	ErrTraceTooLarge = errors.New("trace too large")
)

// Prover orchestrates proof generation
type Prover struct {
	config  *Config
	backend Backend
	air     *air.StackAir
}

// New creates a prover. The configuration is validated against the
// constraint degree and copied.
func New(cfg *Config, backend Backend) (*Prover, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}

	a := air.NewStackAir()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.ValidateDegree(a.MaxDegree()); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Prover{
		config:  cfg.Clone(),
		backend: backend,
		air:     a,
	}, nil
}

// Config returns a copy of the prover's configuration
func (p *Prover) Config() *Config {
	return p.config.Clone()
}

// Air returns the constraint system handed to the backend
func (p *Prover) Air() *air.StackAir {
	return p.air
}

// Prove invokes the backend on t with no public inputs. Backend failures,
// constraint violations included, are returned as *BackendError.
func (p *Prover) Prove(ctx context.Context, t *trace.Trace) (Proof, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil trace", ErrInvalidTrace)
	}
	if t.Width() != p.air.Width() {
		return nil, fmt.Errorf("%w: width %d, constraints expect %d", ErrInvalidTrace, t.Width(), p.air.Width())
	}
	if t.Log2Height() > p.config.MaxLog2Height {
		return nil, fmt.Errorf("%w: 2^%d rows exceeds 2^%d", ErrTraceTooLarge, t.Log2Height(), p.config.MaxLog2Height)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Debugf("proving %d rows (%d real) with backend %s, %d queries, blow-up 2^%d",
		t.Height(), t.RealRows(), p.backend.Name(), p.config.NumQueries, p.config.BlowupLog)

	start := time.Now()
	proof, err := p.backend.Prove(ctx, p.config.Clone(), p.air, t, []field.Element{})
	if err != nil {
		return nil, &BackendError{Backend: p.backend.Name(), Err: err}
	}

	log.Debugf("proof generated in %0.3fs", time.Since(start).Seconds())
	return proof, nil
}

// ProveProgram executes program, builds its trace and proves it
func (p *Prover) ProveProgram(ctx context.Context, program vm.Program) (Proof, error) {
	snapshots, err := vm.Execute(program)
	if err != nil {
		return nil, err
	}

	t, err := trace.Build(snapshots)
	if err != nil {
		return nil, fmt.Errorf("failed to build trace: %w", err)
	}

	log.Debugf("executed %d instructions, trace height %d", len(snapshots), t.Height())
	return p.Prove(ctx, t)
}
