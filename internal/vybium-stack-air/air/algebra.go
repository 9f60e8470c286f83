// Package air defines the algebraic constraints of the stack machine trace.
//
// The constraints are written once against the Algebra interface and can be
// evaluated concretely (field elements, used by provers and the trace
// checker) or symbolically (expression trees, used for degree analysis and
// by verifiers that fold constraints).
package air

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Algebra is the arithmetic the constraint evaluator needs from its element type
type Algebra[E any] interface {
	Zero() E
	One() E
	Add(a, b E) E
	Sub(a, b E) E
	Mul(a, b E) E
}

// Frame is the evaluation window: two adjacent rows and the boundary
// predicates of the local row. IsFirstRow is one on the first row and zero
// elsewhere; IsTransition is one on every row that has a successor.
type Frame[E any] struct {
	Local        []E
	Next         []E
	IsFirstRow   E
	IsTransition E
}

// FieldAlgebra evaluates constraints over concrete field elements
type FieldAlgebra struct{}

// Zero returns the additive identity
func (FieldAlgebra) Zero() field.Element { return field.Zero }

// One returns the multiplicative identity
func (FieldAlgebra) One() field.Element { return field.One }

// Add returns a + b
func (FieldAlgebra) Add(a, b field.Element) field.Element { return a.Add(b) }

// Sub returns a - b
func (FieldAlgebra) Sub(a, b field.Element) field.Element { return a.Sub(b) }

// Mul returns a * b
func (FieldAlgebra) Mul(a, b field.Element) field.Element { return a.Mul(b) }

// RowFrame builds the concrete frame for row i of a height-n matrix.
// The successor of the last row wraps to row 0; IsTransition is zero there.
func RowFrame(local, next []field.Element, i, n int) Frame[field.Element] {
	frame := Frame[field.Element]{
		Local:        local,
		Next:         next,
		IsFirstRow:   field.Zero,
		IsTransition: field.Zero,
	}
	if i == 0 {
		frame.IsFirstRow = field.One
	}
	if i < n-1 {
		frame.IsTransition = field.One
	}
	return frame
}
