package trace

import (
	"errors"
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/vm"
)

var errFinished = errors.New("trace already finished")

// Builder accumulates trace rows from snapshots.
// It performs no semantic validation; the engine has already executed the
// instructions and the constraints are checked by the backend.
type Builder struct {
	rows   [][]field.Element
	height int
	padded bool
}

// NewBuilder creates a builder holding only the synthetic first row
func NewBuilder() *Builder {
	return &Builder{
		rows:   [][]field.Element{zeroRow()},
		height: 1,
	}
}

// zeroRow is the state before any instruction: every column, selectors
// included, is zero. It mirrors vm.InitialStack.
func zeroRow() []field.Element {
	row := make([]field.Element, Width)
	for j := range row {
		row[j] = field.Zero
	}
	for i, col := range StackColumns {
		row[col] = vm.InitialStack[i]
	}
	return row
}

// AddSnapshot appends the row for one executed instruction
func (b *Builder) AddSnapshot(snap vm.Snapshot) error {
	if b.rows == nil {
		return errFinished
	}
	if b.padded {
		return fmt.Errorf("cannot add rows to a padded trace")
	}

	selector, err := SelectorColumn(snap.Instruction.Opcode)
	if err != nil {
		return err
	}

	row := make([]field.Element, Width)
	for j := range row {
		row[j] = field.Zero
	}
	for i, col := range StackColumns {
		row[col] = snap.Stack[i]
	}
	if snap.Instruction.Opcode == vm.Push {
		row[ColPushValue] = snap.Instruction.Argument
	}
	row[selector] = field.One
	row[ColExtra] = snap.ExtraData

	b.rows = append(b.rows, row)
	b.height++
	return nil
}

// Height returns the number of real rows added so far
func (b *Builder) Height() int {
	return b.height
}

// Pad appends padding rows up to targetHeight. Each padding row repeats the
// last real row's stack and push-value columns with every selector and the
// extra-data column set to zero, so it matches no instruction.
func (b *Builder) Pad(targetHeight int) error {
	if b.rows == nil {
		return errFinished
	}
	if targetHeight < len(b.rows) {
		return fmt.Errorf("target height %d is less than current height %d", targetHeight, len(b.rows))
	}
	if !isPowerOfTwo(targetHeight) {
		return fmt.Errorf("target height %d is not a power of two", targetHeight)
	}

	last := b.rows[b.height-1]
	for len(b.rows) < targetHeight {
		row := make([]field.Element, Width)
		for j := range row {
			row[j] = field.Zero
		}
		for _, col := range StackColumns {
			row[col] = last[col]
		}
		row[ColPushValue] = last[ColPushValue]
		b.rows = append(b.rows, row)
	}

	b.padded = true
	return nil
}

// Finish pads to the next power of two (if not already padded) and returns
// the immutable trace. The builder must not be used afterwards.
func (b *Builder) Finish() (*Trace, error) {
	if b.rows == nil {
		return nil, errFinished
	}
	if !b.padded {
		if err := b.Pad(nextPowerOfTwo(b.height)); err != nil {
			return nil, err
		}
	}

	t := &Trace{rows: b.rows, realRows: b.height}
	b.rows = nil
	return t, nil
}

// Build converts a snapshot log into a padded trace
func Build(snapshots []vm.Snapshot) (*Trace, error) {
	b := NewBuilder()
	for i, snap := range snapshots {
		if err := b.AddSnapshot(snap); err != nil {
			return nil, fmt.Errorf("failed to add snapshot %d: %w", i, err)
		}
	}
	return b.Finish()
}
