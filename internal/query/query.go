// Package query implements the expressions a mapping evaluates against an
// event: literals, path reads, regex literals, and arithmetic/boolean
// operators.
//
// Functions are side-effect free and hold no execution-time state, so a
// compiled expression tree can be shared between goroutines working on
// different events.
package query

import (
	"regexp"

	"github.com/roach88/remap/internal/event"
)

// Function is an expression node.
type Function interface {
	Execute(ev *event.Event) (Result, error)
}

// Result is the outcome of evaluating a Function. It is either a
// ValueResult or a RegexResult.
type Result interface {
	result() // Sealed
}

// ValueResult carries a concrete event value.
type ValueResult struct {
	Value event.Value
}

func (ValueResult) result() {}

// RegexResult carries a compiled pattern. It cannot be materialized into
// an event; statements that need a value reject it.
type RegexResult struct {
	Regex *regexp.Regexp
}

func (RegexResult) result() {}

// AsValue returns the concrete value held by r.
func AsValue(r Result) (event.Value, bool) {
	vr, ok := r.(ValueResult)
	if !ok || vr.Value == nil {
		return nil, false
	}
	return vr.Value, true
}

// AsBoolean returns the boolean held by r.
func AsBoolean(r Result) (bool, bool) {
	v, ok := AsValue(r)
	if !ok {
		return false, false
	}
	b, ok := v.(event.Boolean)
	return bool(b), ok
}
