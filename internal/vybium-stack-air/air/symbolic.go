package air

import (
	"fmt"
	"strings"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/trace"
)

// Expr is a symbolic polynomial over the local row, the next row and the
// boundary predicates
type Expr interface {
	// Degree is the total degree, counting each column and each boundary
	// predicate as degree one
	Degree() int

	// Evaluate substitutes a concrete frame
	Evaluate(frame Frame[field.Element]) field.Element

	fmt.Stringer
}

// Constant is a fixed field element
type Constant struct {
	Value field.Element
}

// Degree implements Expr
func (c *Constant) Degree() int { return 0 }

// Evaluate implements Expr
func (c *Constant) Evaluate(Frame[field.Element]) field.Element { return c.Value }

func (c *Constant) String() string { return c.Value.String() }

// Column references a cell of the local or next row
type Column struct {
	Index int
	Next  bool
}

// Degree implements Expr
func (c *Column) Degree() int { return 1 }

// Evaluate implements Expr
func (c *Column) Evaluate(frame Frame[field.Element]) field.Element {
	if c.Next {
		return frame.Next[c.Index]
	}
	return frame.Local[c.Index]
}

func (c *Column) String() string {
	name := fmt.Sprintf("c%d", c.Index)
	if c.Index >= 0 && c.Index < trace.Width {
		name = trace.ColumnNames[c.Index]
	}
	if c.Next {
		return name + "'"
	}
	return name
}

// Predicate is one of the boundary selectors
type Predicate int

const (
	// FirstRowPredicate is one on the first row only
	FirstRowPredicate Predicate = iota

	// TransitionPredicate is one on every row except the last
	TransitionPredicate
)

// Degree implements Expr
func (p Predicate) Degree() int { return 1 }

// Evaluate implements Expr
func (p Predicate) Evaluate(frame Frame[field.Element]) field.Element {
	if p == FirstRowPredicate {
		return frame.IsFirstRow
	}
	return frame.IsTransition
}

func (p Predicate) String() string {
	if p == FirstRowPredicate {
		return "is_first_row"
	}
	return "is_transition"
}

// Op is an arithmetic node kind
type Op int

const (
	// OpAdd is addition
	OpAdd Op = iota

	// OpSub subtracts the right operand from the left
	OpSub

	// OpMul is multiplication
	OpMul
)

// Binary is an arithmetic node
type Binary struct {
	Op          Op
	Left, Right Expr
}

// Degree implements Expr
func (b *Binary) Degree() int {
	l, r := b.Left.Degree(), b.Right.Degree()
	if b.Op == OpMul {
		return l + r
	}
	return max(l, r)
}

// Evaluate implements Expr
func (b *Binary) Evaluate(frame Frame[field.Element]) field.Element {
	l, r := b.Left.Evaluate(frame), b.Right.Evaluate(frame)
	switch b.Op {
	case OpAdd:
		return l.Add(r)
	case OpSub:
		return l.Sub(r)
	default:
		return l.Mul(r)
	}
}

func (b *Binary) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(b.Left.String())
	switch b.Op {
	case OpAdd:
		sb.WriteString(" + ")
	case OpSub:
		sb.WriteString(" - ")
	default:
		sb.WriteString(" * ")
	}
	sb.WriteString(b.Right.String())
	sb.WriteString(")")
	return sb.String()
}

// SymbolicAlgebra builds expression trees
type SymbolicAlgebra struct{}

// Zero implements Algebra
func (SymbolicAlgebra) Zero() Expr { return &Constant{Value: field.Zero} }

// One implements Algebra
func (SymbolicAlgebra) One() Expr { return &Constant{Value: field.One} }

// Add implements Algebra
func (SymbolicAlgebra) Add(a, b Expr) Expr { return &Binary{Op: OpAdd, Left: a, Right: b} }

// Sub implements Algebra
func (SymbolicAlgebra) Sub(a, b Expr) Expr { return &Binary{Op: OpSub, Left: a, Right: b} }

// Mul implements Algebra
func (SymbolicAlgebra) Mul(a, b Expr) Expr { return &Binary{Op: OpMul, Left: a, Right: b} }

// SymbolicFrame returns a frame whose cells are column references
func SymbolicFrame(width int) Frame[Expr] {
	local := make([]Expr, width)
	next := make([]Expr, width)
	for j := 0; j < width; j++ {
		local[j] = &Column{Index: j}
		next[j] = &Column{Index: j, Next: true}
	}
	return Frame[Expr]{
		Local:        local,
		Next:         next,
		IsFirstRow:   FirstRowPredicate,
		IsTransition: TransitionPredicate,
	}
}
