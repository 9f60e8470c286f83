// Package vm provides the four-slot stack machine and its execution log
package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Opcode identifies one of the machine's instructions.
// The set is closed: every opcode has exactly one selector column in the trace.
type Opcode uint8

const (
	// Push places an immediate value on top of the stack
	Push Opcode = iota

	// Add replaces the top two elements with their sum
	Add

	// Sub replaces the top two elements with top minus second
	Sub

	// Mul replaces the top two elements with their product
	Mul

	// Div replaces the top two elements with top divided by second
	Div
)

// OpcodeCount is the number of opcodes in the instruction set
const OpcodeCount = 5

// OpcodeInfo provides metadata about an opcode
type OpcodeInfo struct {
	Opcode      Opcode
	Name        string
	Description string
	Operands    int  // Number of stack elements consumed
	HasArg      bool // Whether the instruction carries an immediate
}

// AllOpcodes describes every instruction of the machine
var AllOpcodes = map[Opcode]OpcodeInfo{
	Push: {Push, "push", "Push value onto stack", 0, true},
	Add:  {Add, "add", "Add top two elements", 2, false},
	Sub:  {Sub, "sub", "Subtract second element from top", 2, false},
	Mul:  {Mul, "mul", "Multiply top two elements", 2, false},
	Div:  {Div, "div", "Divide top by second element", 2, false},
}

// String returns the name of the opcode
func (o Opcode) String() string {
	if info, ok := AllOpcodes[o]; ok {
		return info.Name
	}
	return fmt.Sprintf("unknown(%d)", o)
}

// Info returns metadata about the opcode
func (o Opcode) Info() (OpcodeInfo, error) {
	info, ok := AllOpcodes[o]
	if !ok {
		return OpcodeInfo{}, fmt.Errorf("unknown opcode: %d", o)
	}
	return info, nil
}

// IsBinary reports whether the opcode pops two operands
func (o Opcode) IsBinary() bool {
	info, err := o.Info()
	if err != nil {
		return false
	}
	return info.Operands == 2
}

// Instruction is a single machine instruction. Argument is only meaningful
// for Push and is the zero element otherwise.
type Instruction struct {
	Opcode   Opcode
	Argument field.Element
}

// PushInstr returns a push of v
func PushInstr(v field.Element) Instruction {
	return Instruction{Opcode: Push, Argument: v}
}

// PushUint64 returns a push of v reduced into the field
func PushUint64(v uint64) Instruction {
	return PushInstr(field.New(v))
}

// AddInstr returns an add instruction
func AddInstr() Instruction { return Instruction{Opcode: Add, Argument: field.Zero} }

// SubInstr returns a sub instruction
func SubInstr() Instruction { return Instruction{Opcode: Sub, Argument: field.Zero} }

// MulInstr returns a mul instruction
func MulInstr() Instruction { return Instruction{Opcode: Mul, Argument: field.Zero} }

// DivInstr returns a div instruction
func DivInstr() Instruction { return Instruction{Opcode: Div, Argument: field.Zero} }

// String renders the instruction in the form accepted by ParseInstruction
func (i Instruction) String() string {
	if i.Opcode == Push {
		return fmt.Sprintf("push(%s)", i.Argument.String())
	}
	return i.Opcode.String()
}

// Validate checks that the opcode is known and that only push carries an argument
func (i Instruction) Validate() error {
	info, err := i.Opcode.Info()
	if err != nil {
		return err
	}
	if !info.HasArg && !i.Argument.IsZero() {
		return fmt.Errorf("instruction %s does not take an argument", info.Name)
	}
	return nil
}

// Program is an ordered, finite instruction sequence fixed before execution
type Program []Instruction

// Validate validates every instruction of the program
func (p Program) Validate() error {
	for idx, inst := range p {
		if err := inst.Validate(); err != nil {
			return fmt.Errorf("instruction %d: %w", idx, err)
		}
	}
	return nil
}

// Strings renders the program one instruction per element
func (p Program) Strings() []string {
	out := make([]string, len(p))
	for i, inst := range p {
		out[i] = inst.String()
	}
	return out
}

// ParseInstruction decodes a textual instruction.
// Accepted forms: "add", "Sub", "push(42)", "Push 42", "push:42".
func ParseInstruction(s string) (Instruction, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return Instruction{}, fmt.Errorf("empty instruction")
	}

	name, arg := text, ""
	if open := strings.IndexAny(text, "( :"); open >= 0 {
		name = text[:open]
		arg = strings.TrimSpace(text[open+1:])
		arg = strings.TrimSuffix(arg, ")")
		arg = strings.TrimSpace(arg)
	}
	name = strings.ToLower(name)

	var opcode Opcode
	found := false
	for op, info := range AllOpcodes {
		if info.Name == name {
			opcode = op
			found = true
			break
		}
	}
	if !found {
		return Instruction{}, fmt.Errorf("unknown instruction %q", name)
	}

	info := AllOpcodes[opcode]
	if !info.HasArg {
		if arg != "" {
			return Instruction{}, fmt.Errorf("instruction %s does not take an argument", info.Name)
		}
		return Instruction{Opcode: opcode, Argument: field.Zero}, nil
	}

	if arg == "" {
		return Instruction{}, fmt.Errorf("instruction %s requires an argument", info.Name)
	}
	value, err := strconv.ParseUint(arg, 0, 64)
	if err != nil {
		return Instruction{}, fmt.Errorf("invalid argument for %s: %w", info.Name, err)
	}
	return PushUint64(value), nil
}

// ParseProgram decodes a sequence of textual instructions
func ParseProgram(lines []string) (Program, error) {
	program := make(Program, 0, len(lines))
	for idx, line := range lines {
		inst, err := ParseInstruction(line)
		if err != nil {
			return nil, fmt.Errorf("failed to parse instruction %d (%s): %w", idx, line, err)
		}
		program = append(program, inst)
	}
	return program, nil
}
