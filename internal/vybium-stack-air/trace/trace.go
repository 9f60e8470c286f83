package trace

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Trace is the finished execution matrix: a synthetic zero row, one row per
// executed instruction, then padding rows up to a power-of-two height.
// A Trace is never mutated after construction; accessors return copies.
type Trace struct {
	rows     [][]field.Element
	realRows int
}

// FromRows wraps a raw row-major matrix as a Trace.
// Every row must have Width columns and the height must be a power of two.
// All rows are treated as real rows.
func FromRows(rows [][]field.Element) (*Trace, error) {
	if !isPowerOfTwo(len(rows)) {
		return nil, fmt.Errorf("trace height %d is not a power of two", len(rows))
	}

	copied := make([][]field.Element, len(rows))
	for i, row := range rows {
		if len(row) != Width {
			return nil, fmt.Errorf("row %d has width %d, expected %d", i, len(row), Width)
		}
		copied[i] = append([]field.Element(nil), row...)
	}

	return &Trace{rows: copied, realRows: len(rows)}, nil
}

// Height returns the number of rows
func (t *Trace) Height() int {
	return len(t.rows)
}

// Width returns the number of columns
func (t *Trace) Width() int {
	return Width
}

// Log2Height returns log2 of the height
func (t *Trace) Log2Height() int {
	return log2(len(t.rows))
}

// RealRows returns the synthetic first row plus one row per executed instruction
func (t *Trace) RealRows() int {
	return t.realRows
}

// IsPadding reports whether row i was appended only to reach a power of two
func (t *Trace) IsPadding(i int) bool {
	return i >= t.realRows && i < len(t.rows)
}

// Cell returns the value at row i, column j
func (t *Trace) Cell(i, j int) field.Element {
	return t.rows[i][j]
}

// Row returns a copy of row i
func (t *Trace) Row(i int) []field.Element {
	return append([]field.Element(nil), t.rows[i]...)
}

// Column returns a copy of column j
func (t *Trace) Column(j int) []field.Element {
	col := make([]field.Element, len(t.rows))
	for i, row := range t.rows {
		col[i] = row[j]
	}
	return col
}

// Rows returns a deep copy of the matrix in row-major order
func (t *Trace) Rows() [][]field.Element {
	out := make([][]field.Element, len(t.rows))
	for i := range t.rows {
		out[i] = t.Row(i)
	}
	return out
}

// Columns returns a deep copy of the matrix in column-major order
func (t *Trace) Columns() [][]field.Element {
	out := make([][]field.Element, Width)
	for j := range out {
		out[j] = t.Column(j)
	}
	return out
}

func isPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// nextPowerOfTwo returns the smallest power of 2 >= n
func nextPowerOfTwo(n int) int {
	power := 1
	for power < n {
		power <<= 1
	}
	return power
}

func log2(n int) int {
	result := 0
	for n > 1 {
		n >>= 1
		result++
	}
	return result
}
