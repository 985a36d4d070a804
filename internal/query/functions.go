package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/remap/internal/event"
)

// Literal always evaluates to the same value.
type Literal struct {
	value event.Value
}

// NewLiteral creates a literal function.
func NewLiteral(v event.Value) *Literal {
	return &Literal{value: v}
}

// Execute returns a copy of the literal so callers may mutate it freely.
func (l *Literal) Execute(_ *event.Event) (Result, error) {
	return ValueResult{Value: event.Clone(l.value)}, nil
}

// Path reads a value from the event. When several alternatives are given
// the first one present in the event wins.
type Path struct {
	alternatives []event.Path
}

// NewPath creates a path query. At least one alternative is required.
func NewPath(first event.Path, rest ...event.Path) *Path {
	alts := make([]event.Path, 0, len(rest)+1)
	alts = append(alts, first)
	alts = append(alts, rest...)
	return &Path{alternatives: alts}
}

// Execute returns a copy of the first present alternative.
func (p *Path) Execute(ev *event.Event) (Result, error) {
	for _, alt := range p.alternatives {
		if v, ok := ev.Get(alt); ok {
			return ValueResult{Value: event.Clone(v)}, nil
		}
	}
	return nil, fmt.Errorf("path %s not found in event", p)
}

// String renders the alternatives separated by " | ".
func (p *Path) String() string {
	parts := make([]string, len(p.alternatives))
	for i, alt := range p.alternatives {
		parts[i] = alt.String()
	}
	return strings.Join(parts, " | ")
}

// Regex evaluates to a compiled pattern.
type Regex struct {
	re *regexp.Regexp
}

// NewRegex compiles pattern into a regex literal.
func NewRegex(pattern string) (*Regex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	return &Regex{re: re}, nil
}

// Execute returns the compiled pattern.
func (r *Regex) Execute(_ *event.Event) (Result, error) {
	return RegexResult{Regex: r.re}, nil
}

// Not negates a boolean operand.
type Not struct {
	operand Function
}

// NewNot creates a negation.
func NewNot(operand Function) *Not {
	return &Not{operand: operand}
}

// Execute evaluates the operand and inverts it.
func (n *Not) Execute(ev *event.Event) (Result, error) {
	r, err := n.operand.Execute(ev)
	if err != nil {
		return nil, err
	}
	b, ok := AsBoolean(r)
	if !ok {
		return nil, fmt.Errorf("unable to perform NOT on non-boolean value")
	}
	return ValueResult{Value: event.Boolean(!b)}, nil
}
