// Package trace turns the engine's snapshot log into the rectangular,
// power-of-two matrix handed to the proving backend.
package trace

import (
	"fmt"

	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/vm"
)

// Column indices of a trace row.
//
//	0..3  stack slots after the instruction (st0 is the top)
//	4     push immediate
//	5..9  one-hot selectors push, add, sub, mul, div
//	10    extra data (div remainder)
const (
	ColStack0 = iota
	ColStack1
	ColStack2
	ColStack3
	ColPushValue
	ColSelPush
	ColSelAdd
	ColSelSub
	ColSelMul
	ColSelDiv
	ColExtra

	// Width is the number of columns of every row
	Width
)

// StackColumns lists the stack columns top first
var StackColumns = [vm.StackSize]int{ColStack0, ColStack1, ColStack2, ColStack3}

// SelectorColumns lists the selector columns in opcode order
var SelectorColumns = [vm.OpcodeCount]int{ColSelPush, ColSelAdd, ColSelSub, ColSelMul, ColSelDiv}

var selectorByOpcode = map[vm.Opcode]int{
	vm.Push: ColSelPush,
	vm.Add:  ColSelAdd,
	vm.Sub:  ColSelSub,
	vm.Mul:  ColSelMul,
	vm.Div:  ColSelDiv,
}

// SelectorColumn returns the selector column of an opcode.
// The mapping is fixed; it is never derived from trace contents.
func SelectorColumn(op vm.Opcode) (int, error) {
	col, ok := selectorByOpcode[op]
	if !ok {
		return 0, fmt.Errorf("no selector column for opcode %s", op)
	}
	return col, nil
}

// ColumnNames are human-readable column labels, indexed by column
var ColumnNames = [Width]string{
	"st0", "st1", "st2", "st3",
	"push_value",
	"is_push", "is_add", "is_sub", "is_mul", "is_div",
	"extra",
}
