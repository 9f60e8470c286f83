package vybiumstackair

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/commit"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/prover"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/trace"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/vm"
)

// FieldElement is an element of the Goldilocks field
type FieldElement = field.Element

// Opcode identifies an instruction
type Opcode = vm.Opcode

// Opcodes
const (
	OpPush = vm.Push
	OpAdd  = vm.Add
	OpSub  = vm.Sub
	OpMul  = vm.Mul
	OpDiv  = vm.Div
)

// Instruction is a single machine instruction
type Instruction = vm.Instruction

// Program is an ordered instruction sequence
type Program = vm.Program

// Snapshot is the machine state recorded after one instruction
type Snapshot = vm.Snapshot

// Trace is the padded execution matrix
type Trace = trace.Trace

// Config holds the proving parameters
type Config = prover.Config

// Proof is a commit-and-query proof
type Proof = commit.Proof

// Instruction constructors
var (
	Push = vm.PushUint64
	Add  = vm.AddInstr
	Sub  = vm.SubInstr
	Mul  = vm.MulInstr
	Div  = vm.DivInstr
)

// VMState represents the current state of the VM (read-only)
type VMState struct {
	// Instruction pointer
	InstructionPointer int

	// Stack slots, top first
	Stack [vm.StackSize]FieldElement

	// Instructions executed so far
	CycleCount int

	// Halted flag
	Halted bool
}

// ExecutionTrace is the outcome of running a program
type ExecutionTrace struct {
	// Snapshot log, one entry per executed instruction
	Snapshots []Snapshot

	// Padded trace matrix
	Trace *Trace

	// Top of the stack after the last instruction
	Output FieldElement

	// Cycle count
	CycleCount int
}

// VerificationResult represents the result of proof verification
type VerificationResult struct {
	// Whether the proof is valid
	Valid bool

	// Error if verification failed
	Err error

	// Verification time in milliseconds
	VerificationTimeMs int64
}
