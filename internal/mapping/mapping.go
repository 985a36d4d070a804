package mapping

import (
	"slices"

	"github.com/roach88/remap/internal/event"
)

// Mapping is an ordered program of statements.
//
// INVARIANTS:
//   - statement order never changes after construction
//   - a Mapping is never mutated by Execute and is safe for concurrent use
type Mapping struct {
	statements []Statement
}

// New creates a mapping. The slice is copied so later changes by the
// caller cannot reorder the program.
func New(statements ...Statement) *Mapping {
	return &Mapping{statements: slices.Clone(statements)}
}

// Len returns the number of statements.
func (m *Mapping) Len() int {
	return len(m.statements)
}

// Execute applies every statement to ev in order.
//
// On the first failure Execute stops and returns an *ApplyError with the
// statement's index. Statements before it have already mutated ev and
// those mutations are kept.
func (m *Mapping) Execute(ev *event.Event) error {
	for i, stmt := range m.statements {
		if err := stmt.Apply(ev); err != nil {
			return &ApplyError{Index: i, Err: err}
		}
	}
	return nil
}
