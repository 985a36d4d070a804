package mapping

import (
	"slices"

	"github.com/roach88/remap/internal/event"
	"github.com/roach88/remap/internal/query"
)

// Statement is one event-mutating operation. The set of statements is
// closed: Assignment, Deletion, OnlyFields, IfStatement, Merge, Log and
// Noop are the only implementations.
type Statement interface {
	Apply(ev *event.Event) error
	statement() // Sealed
}

//------------------------------------------------------------------------------

// Assignment writes the result of an expression at a path.
type Assignment struct {
	path     event.Path
	function query.Function
}

// NewAssignment creates an assignment of fn's result to path.
func NewAssignment(path event.Path, fn query.Function) *Assignment {
	return &Assignment{path: path, function: fn}
}

func (*Assignment) statement() {}

// Apply evaluates the expression and replaces the value at the path.
// Missing intermediate maps are created.
func (a *Assignment) Apply(ev *event.Event) error {
	r, err := a.function.Execute(ev)
	if err != nil {
		return err
	}
	v, ok := query.AsValue(r)
	if !ok {
		return newStatementError(ErrCodeExpressionType, msgAssignNonValue)
	}
	ev.Insert(a.path, v)
	return nil
}

//------------------------------------------------------------------------------

// Deletion removes fields from the event.
type Deletion struct {
	paths []event.Path
}

// NewDeletion creates a deletion of the given paths.
func NewDeletion(paths ...event.Path) *Deletion {
	return &Deletion{paths: slices.Clone(paths)}
}

func (*Deletion) statement() {}

// Apply removes every path that is present. Ancestors left empty are kept.
func (d *Deletion) Apply(ev *event.Event) error {
	for _, p := range d.paths {
		ev.Remove(p, false)
	}
	return nil
}

//------------------------------------------------------------------------------

// OnlyFields removes every field that is not covered by one of its paths.
type OnlyFields struct {
	paths []event.Path
}

// NewOnlyFields creates a projection onto the given paths.
func NewOnlyFields(paths ...event.Path) *OnlyFields {
	return &OnlyFields{paths: slices.Clone(paths)}
}

func (*OnlyFields) statement() {}

// Apply projects the event onto the keep paths.
//
// A node survives if some keep path covers it (equal or ancestor of the
// node) or if it is an ancestor of a covered node. Everything else is
// removed, deepest and last first so that array indices collected up front
// stay valid. An array element that is removed while a later sibling
// survives is replaced by null instead, so surviving elements keep their
// indices.
func (o *OnlyFields) Apply(ev *event.Event) error {
	keys := ev.Keys(true)

	var covered []event.Path
	for _, k := range keys {
		if o.covers(k) {
			covered = append(covered, k)
		}
	}

	var removed []event.Path
	lastKept := map[string]int{} // array path -> highest surviving index
	for _, k := range keys {
		if !survives(k, covered) {
			removed = append(removed, k)
			continue
		}
		if parent, idx, ok := arrayElement(k); ok {
			if last, seen := lastKept[parent]; !seen || idx > last {
				lastKept[parent] = idx
			}
		}
	}

	for i := len(removed) - 1; i >= 0; i-- {
		k := removed[i]
		if parent, idx, ok := arrayElement(k); ok {
			if last, seen := lastKept[parent]; seen && idx < last {
				ev.Insert(k, event.Null{})
				continue
			}
		}
		ev.Remove(k, false)
	}

	return nil
}

func (o *OnlyFields) covers(k event.Path) bool {
	for _, p := range o.paths {
		if p.Covers(k) {
			return true
		}
	}
	return false
}

// survives reports whether k is covered or holds a covered node.
func survives(k event.Path, covered []event.Path) bool {
	for _, c := range covered {
		if k.Covers(c) {
			return true
		}
	}
	return false
}

// arrayElement splits an array element path into its array's path and
// its index.
func arrayElement(k event.Path) (parent string, idx int, ok bool) {
	segs := k.Segments()
	last := segs[len(segs)-1]
	if !last.IsIndex() {
		return "", 0, false
	}
	p, _ := k.Parent()
	return p.String(), last.Index(), true
}

//------------------------------------------------------------------------------

// IfStatement runs one of two statements depending on a condition.
type IfStatement struct {
	condition query.Function
	whenTrue  Statement
	whenFalse Statement
}

// NewIfStatement creates a conditional. A nil branch is a Noop.
func NewIfStatement(condition query.Function, whenTrue, whenFalse Statement) *IfStatement {
	if whenTrue == nil {
		whenTrue = Noop{}
	}
	if whenFalse == nil {
		whenFalse = Noop{}
	}
	return &IfStatement{condition: condition, whenTrue: whenTrue, whenFalse: whenFalse}
}

func (*IfStatement) statement() {}

// Apply evaluates the condition and applies exactly one branch. A
// condition that is not a boolean fails before either branch runs.
func (s *IfStatement) Apply(ev *event.Event) error {
	r, err := s.condition.Execute(ev)
	if err != nil {
		return err
	}
	b, ok := query.AsBoolean(r)
	if !ok {
		return newStatementError(ErrCodeNonBooleanCondition, msgNonBooleanCondition)
	}
	if b {
		return s.whenTrue.Apply(ev)
	}
	return s.whenFalse.Apply(ev)
}

//------------------------------------------------------------------------------

// Noop does nothing. It stands in for an absent else branch.
type Noop struct{}

func (Noop) statement() {}

// Apply always succeeds.
func (Noop) Apply(_ *event.Event) error {
	return nil
}
