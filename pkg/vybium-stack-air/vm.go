package vybiumstackair

import (
	"context"
	"strings"
	"time"

	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/air"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/commit"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/prover"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/trace"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/vm"
)

// VM is the public interface for the stack machine
type VM interface {
	// Execute runs a program from the zero stack and returns its trace
	Execute(program Program) (*ExecutionTrace, error)

	// GetState returns the state after the last Execute
	GetState() *VMState
}

// vmImpl is the internal implementation of VM
type vmImpl struct {
	engine *vm.Engine
}

// NewVM creates a new stack machine
func NewVM() VM {
	return &vmImpl{}
}

// Execute runs a program on the VM and returns the execution trace
func (v *vmImpl) Execute(program Program) (*ExecutionTrace, error) {
	if err := program.Validate(); err != nil {
		return nil, wrap(err, ErrInvalidInput, "invalid program")
	}

	v.engine = vm.NewEngine(program)
	if err := v.engine.Run(); err != nil {
		return nil, wrap(err, ErrVMExecution, "VM execution failed")
	}

	snapshots := v.engine.Snapshots()
	t, err := trace.Build(snapshots)
	if err != nil {
		return nil, wrap(err, ErrInvalidInput, "failed to build trace")
	}

	return &ExecutionTrace{
		Snapshots:  snapshots,
		Trace:      t,
		Output:     v.engine.Stack()[0],
		CycleCount: len(snapshots),
	}, nil
}

// GetState returns the current VM state
func (v *vmImpl) GetState() *VMState {
	if v.engine == nil {
		return &VMState{Stack: vm.InitialStack}
	}

	return &VMState{
		InstructionPointer: v.engine.InstructionPointer(),
		Stack:              v.engine.Stack(),
		CycleCount:         len(v.engine.Snapshots()),
		Halted:             v.engine.Halted(),
	}
}

// ParseProgram decodes whitespace, newline or semicolon separated
// instructions. A "#" starts a comment that runs to the end of the line.
func ParseProgram(source string) (Program, error) {
	var tokens []string
	for _, line := range strings.Split(source, "\n") {
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		for _, stmt := range strings.Split(line, ";") {
			fields := strings.Fields(stmt)
			for i := 0; i < len(fields); i++ {
				// "push 42" arrives as two fields
				if strings.EqualFold(fields[i], "push") && i+1 < len(fields) {
					tokens = append(tokens, fields[i]+" "+fields[i+1])
					i++
					continue
				}
				tokens = append(tokens, fields[i])
			}
		}
	}

	program, err := vm.ParseProgram(tokens)
	if err != nil {
		return nil, wrap(err, ErrInvalidInput, "failed to parse program")
	}
	return program, nil
}

// BuildTrace executes program and returns its padded trace
func BuildTrace(program Program) (*Trace, error) {
	result, err := NewVM().Execute(program)
	if err != nil {
		return nil, err
	}
	return result.Trace, nil
}

// CheckTrace evaluates every constraint over every row pair of t
func CheckTrace(t *Trace) error {
	if t == nil {
		return &AIRError{Code: ErrInvalidInput, Message: "trace is required"}
	}
	return wrap(air.CheckTrace(t), ErrConstraintViolation, "trace does not satisfy the constraints")
}

// Constraints lists the constraints as name and symbolic expression
func Constraints() map[string]string {
	out := make(map[string]string, air.NumConstraints)
	for _, c := range air.NewStackAir().Constraints() {
		out[c.Name] = c.Expr.String()
	}
	return out
}

// DefaultConfig returns production proving parameters
func DefaultConfig() *Config {
	return prover.DefaultConfig()
}

// TestConfig returns cheap proving parameters for tests and demos
func TestConfig() *Config {
	return prover.TestConfig()
}

// Prover generates proofs with the commit-and-query backend
type Prover struct {
	inner *prover.Prover
}

// NewProver creates a prover for config
func NewProver(config *Config) (*Prover, error) {
	inner, err := prover.New(config, commit.NewBackend())
	if err != nil {
		return nil, wrap(err, ErrInvalidConfig, "failed to create prover")
	}
	return &Prover{inner: inner}, nil
}

// Prove proves an already built trace
func (p *Prover) Prove(ctx context.Context, t *Trace) (*Proof, error) {
	proof, err := p.inner.Prove(ctx, t)
	if err != nil {
		return nil, wrap(err, ErrBackend, "proof generation failed")
	}
	return proof.(*commit.Proof), nil
}

// ProveProgram executes program and proves its trace
func (p *Prover) ProveProgram(ctx context.Context, program Program) (*Proof, error) {
	proof, err := p.inner.ProveProgram(ctx, program)
	if err != nil {
		return nil, wrap(err, ErrBackend, "proof generation failed")
	}
	return proof.(*commit.Proof), nil
}

// Verify checks proof against config
func Verify(config *Config, proof *Proof) error {
	if config == nil {
		return &AIRError{Code: ErrInvalidConfig, Message: "config is required"}
	}
	if err := config.Validate(); err != nil {
		return wrap(err, ErrInvalidConfig, "invalid config")
	}
	return wrap(commit.Verify(config, air.NewStackAir(), proof), ErrInvalidProof, "proof verification failed")
}

// VerifyProof verifies proof and reports the outcome with timing
func VerifyProof(config *Config, proof *Proof) *VerificationResult {
	start := time.Now()
	err := Verify(config, proof)
	return &VerificationResult{
		Valid:              err == nil,
		Err:                err,
		VerificationTimeMs: time.Since(start).Milliseconds(),
	}
}

// MarshalProof encodes proof as JSON
func MarshalProof(proof *Proof) ([]byte, error) {
	data, err := proof.MarshalJSON()
	if err != nil {
		return nil, wrap(err, ErrInvalidInput, "failed to encode proof")
	}
	return data, nil
}

// ParseProof decodes a JSON proof
func ParseProof(data []byte) (*Proof, error) {
	proof, err := commit.ParseProof(data)
	if err != nil {
		return nil, wrap(err, ErrInvalidInput, "failed to decode proof")
	}
	return proof, nil
}
