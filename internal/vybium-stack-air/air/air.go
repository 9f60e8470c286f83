package air

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/trace"
)

// Kind distinguishes boundary constraints from transition constraints
type Kind int

const (
	// Boundary constraints are gated by the first-row predicate
	Boundary Kind = iota

	// Transition constraints are gated by the transition predicate and a
	// selector of the next row
	Transition
)

func (k Kind) String() string {
	if k == Boundary {
		return "boundary"
	}
	return "transition"
}

// Constraint is a named polynomial that must vanish on every frame
type Constraint[E any] struct {
	Name string
	Kind Kind
	Expr E
}

// Constraint names, in evaluation order
const (
	NameFirstRowZero = "first_row_zero"
	NameAddSum       = "add_sum"
	NameAddShift     = "add_shift"
	NameSub          = "sub_difference"
	NameMul          = "mul_product"
	NamePushValue    = "push_value"
	NamePushShift1   = "push_shift_s1"
	NamePushShift2   = "push_shift_s2"
	NamePushShift3   = "push_shift_s3"
	NameBinaryShift  = "binary_shift"
)

// NumConstraints is the number of constraints Eval returns
const NumConstraints = 10

// Eval evaluates every constraint of the stack machine over one frame.
//
// Each transition term has the form is_transition * selector' * difference,
// so it is live only when the next row executes the matching instruction.
// Division is not constrained: the extra-data column is carried but nothing
// ties quotient, divisor and dividend together.
func Eval[E any](alg Algebra[E], f Frame[E]) []Constraint[E] {
	local, next := f.Local, f.Next

	s0, s1, s2 := local[trace.ColStack0], local[trace.ColStack1], local[trace.ColStack2]
	n0, n1, n2, n3 := next[trace.ColStack0], next[trace.ColStack1], next[trace.ColStack2], next[trace.ColStack3]

	selPush := next[trace.ColSelPush]
	selAdd := next[trace.ColSelAdd]
	selSub := next[trace.ColSelSub]
	selMul := next[trace.ColSelMul]
	selDiv := next[trace.ColSelDiv]

	gate := func(selector, diff E) E {
		return alg.Mul(f.IsTransition, alg.Mul(selector, diff))
	}

	// Every column of the synthetic first row is zero
	sum := alg.Zero()
	for _, v := range local {
		sum = alg.Add(sum, v)
	}

	binarySelectors := alg.Add(alg.Add(selAdd, selSub), alg.Add(selMul, selDiv))

	return []Constraint[E]{
		{Name: NameFirstRowZero, Kind: Boundary, Expr: alg.Mul(f.IsFirstRow, sum)},

		{Name: NameAddSum, Kind: Transition, Expr: gate(selAdd, alg.Sub(alg.Sub(n0, s0), s1))},
		{Name: NameAddShift, Kind: Transition, Expr: gate(selAdd, alg.Sub(n1, s2))},

		{Name: NameSub, Kind: Transition, Expr: gate(selSub, alg.Sub(alg.Sub(s0, s1), n0))},

		{Name: NameMul, Kind: Transition, Expr: gate(selMul, alg.Sub(alg.Mul(s0, s1), n0))},

		{Name: NamePushValue, Kind: Transition, Expr: gate(selPush, alg.Sub(n0, next[trace.ColPushValue]))},
		{Name: NamePushShift1, Kind: Transition, Expr: gate(selPush, alg.Sub(n1, s0))},
		{Name: NamePushShift2, Kind: Transition, Expr: gate(selPush, alg.Sub(n2, s1))},
		{Name: NamePushShift3, Kind: Transition, Expr: gate(selPush, alg.Sub(n3, s2))},

		{Name: NameBinaryShift, Kind: Transition, Expr: gate(binarySelectors, alg.Sub(n1, s2))},
	}
}

// StackAir is the constraint system of the four-slot stack machine
type StackAir struct{}

// NewStackAir creates the constraint system
func NewStackAir() *StackAir {
	return &StackAir{}
}

// Name returns a stable identifier, absorbed into proof transcripts
func (a *StackAir) Name() string {
	return "vybium-stack-air/v1"
}

// Width returns the number of trace columns the constraints read
func (a *StackAir) Width() int {
	return trace.Width
}

// Evaluate evaluates every constraint over a concrete frame
func (a *StackAir) Evaluate(frame Frame[field.Element]) []Constraint[field.Element] {
	return Eval[field.Element](FieldAlgebra{}, frame)
}

// Constraints returns the constraints as symbolic expressions
func (a *StackAir) Constraints() []Constraint[Expr] {
	return Eval[Expr](SymbolicAlgebra{}, SymbolicFrame(trace.Width))
}

// MaxDegree returns the largest total degree over all constraints,
// boundary predicates included
func (a *StackAir) MaxDegree() int {
	d := 0
	for _, c := range a.Constraints() {
		d = max(d, c.Expr.Degree())
	}
	return d
}
