package air

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/trace"
)

// ErrConstraintViolation is matched by every ViolationError
var ErrConstraintViolation = errors.New("constraint violation")

// ViolationError reports a constraint that did not vanish
type ViolationError struct {
	Row        int
	Constraint string
	Kind       Kind
	Value      field.Element
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s constraint %q does not vanish at row %d (value %s)",
		e.Kind, e.Constraint, e.Row, e.Value.String())
}

// Unwrap returns ErrConstraintViolation
func (e *ViolationError) Unwrap() error {
	return ErrConstraintViolation
}

// minRowsPerWorker keeps small traces on a single goroutine
const minRowsPerWorker = 64

// CheckRowPair evaluates the constraints on row i of a height-n trace given
// the row and its successor. It returns the first constraint that does not
// vanish, or nil.
func (a *StackAir) CheckRowPair(local, next []field.Element, i, n int) error {
	if len(local) != trace.Width || len(next) != trace.Width {
		return fmt.Errorf("row %d: expected width %d, got %d and %d", i, trace.Width, len(local), len(next))
	}

	for _, c := range a.Evaluate(RowFrame(local, next, i, n)) {
		if !c.Expr.IsZero() {
			return &ViolationError{Row: i, Constraint: c.Name, Kind: c.Kind, Value: c.Expr}
		}
	}
	return nil
}

// CheckTrace evaluates every constraint over every row pair of the trace,
// pairing the last row with the first. Rows are split into contiguous chunks
// evaluated concurrently; the violation with the lowest row is returned.
func (a *StackAir) CheckTrace(t *trace.Trace) error {
	n := t.Height()
	rows := t.Rows()

	workers := runtime.NumCPU()
	if limit := (n + minRowsPerWorker - 1) / minRowsPerWorker; workers > limit {
		workers = limit
	}
	chunk := (n + workers - 1) / workers

	results := make([]error, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, n)
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(idx, start, end int) {
			defer wg.Done()

			for i := start; i < end; i++ {
				if err := a.CheckRowPair(rows[i], rows[(i+1)%n], i, n); err != nil {
					results[idx] = err
					return
				}
			}
		}(w, start, end)
	}

	wg.Wait()

	// Chunks are ordered by row, so the first error is the lowest row
	for _, err := range results {
		if err != nil {
			return err
		}
	}
	return nil
}

// CheckTrace checks a trace against the stack machine constraints
func CheckTrace(t *trace.Trace) error {
	return NewStackAir().CheckTrace(t)
}
