package vm

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// StackSize is the fixed number of stack slots. Slot 0 is the top.
const StackSize = 4

// Stack holds the machine's operand slots. Slots beyond the logical depth
// are always zero.
type Stack [StackSize]field.Element

// InitialStack is the state of every machine before its first instruction.
// The trace's synthetic first row and the first-row boundary constraint
// both depend on it being all zero.
var InitialStack = Stack{field.Zero, field.Zero, field.Zero, field.Zero}

// Snapshot records the machine right after one instruction
type Snapshot struct {
	// Stack contents after the instruction
	Stack Stack

	// Instruction that produced this state
	Instruction Instruction

	// ExtraData is a - (a/b)*b for div and zero for everything else
	ExtraData field.Element
}

// Engine executes a program one instruction at a time and keeps the
// snapshot log. It owns its stack and log; nothing else is mutated.
type Engine struct {
	program   Program
	stack     Stack
	ip        int
	snapshots []Snapshot
}

// NewEngine creates an engine positioned at the first instruction of program
func NewEngine(program Program) *Engine {
	return &Engine{
		program:   program,
		stack:     InitialStack,
		ip:        0,
		snapshots: make([]Snapshot, 0, len(program)),
	}
}

// Reset returns the engine to its initial state, discarding the log
func (e *Engine) Reset() {
	e.stack = InitialStack
	e.ip = 0
	e.snapshots = e.snapshots[:0]
}

// Run executes the remaining instructions in order.
// It performs exactly len(program) steps unless a div meets a zero divisor.
func (e *Engine) Run() error {
	for !e.Halted() {
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes the instruction at the instruction pointer and records its snapshot
func (e *Engine) Step() error {
	if e.Halted() {
		return ErrHalted
	}

	inst := e.program[e.ip]
	extra := field.Zero

	switch inst.Opcode {
	case Push:
		e.push(inst.Argument)
	case Add:
		e.binary(func(a, b field.Element) field.Element { return a.Add(b) })
	case Sub:
		e.binary(func(a, b field.Element) field.Element { return a.Sub(b) })
	case Mul:
		e.binary(func(a, b field.Element) field.Element { return a.Mul(b) })
	case Div:
		a, b := e.stack[0], e.stack[1]
		if b.IsZero() {
			return &ExecutionError{Step: e.ip, Instruction: inst, Cause: ErrDivisionByZero}
		}
		quotient := a.Mul(b.Inverse())
		extra = a.Sub(quotient.Mul(b))
		e.binary(func(field.Element, field.Element) field.Element { return quotient })
	default:
		_, err := inst.Opcode.Info()
		return &ExecutionError{Step: e.ip, Instruction: inst, Cause: err}
	}

	e.snapshots = append(e.snapshots, Snapshot{
		Stack:       e.stack,
		Instruction: inst,
		ExtraData:   extra,
	})
	e.ip++
	return nil
}

// push shifts the stack down one slot, dropping slot 3, and puts v on top
func (e *Engine) push(v field.Element) {
	for i := StackSize - 1; i > 0; i-- {
		e.stack[i] = e.stack[i-1]
	}
	e.stack[0] = v
}

// binary pops a (slot 0) and b (slot 1), shifts the rest up and pushes op(a, b)
func (e *Engine) binary(op func(a, b field.Element) field.Element) {
	result := op(e.stack[0], e.stack[1])
	for i := 1; i < StackSize-1; i++ {
		e.stack[i] = e.stack[i+1]
	}
	e.stack[0] = result
	e.stack[StackSize-1] = field.Zero
}

// Halted reports whether every instruction has been executed
func (e *Engine) Halted() bool {
	return e.ip >= len(e.program)
}

// InstructionPointer returns the index of the next instruction
func (e *Engine) InstructionPointer() int {
	return e.ip
}

// Stack returns the current stack contents
func (e *Engine) Stack() Stack {
	return e.stack
}

// Program returns the program being executed
func (e *Engine) Program() Program {
	return e.program
}

// Snapshots returns a copy of the snapshot log
func (e *Engine) Snapshots() []Snapshot {
	out := make([]Snapshot, len(e.snapshots))
	copy(out, e.snapshots)
	return out
}

// Execute runs program from the initial state and returns its snapshot log
func Execute(program Program) ([]Snapshot, error) {
	engine := NewEngine(program)
	if err := engine.Run(); err != nil {
		return nil, err
	}
	return engine.Snapshots(), nil
}
