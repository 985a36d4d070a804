package query

import (
	"bytes"
	"fmt"

	"github.com/roach88/remap/internal/event"
)

// Operator is a binary operator.
type Operator int

const (
	OpEqual Operator = iota
	OpNotEqual
	OpGreater
	OpGreaterOrEqual
	OpLess
	OpLessOrEqual
	OpAnd
	OpOr
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
)

var operatorSymbols = map[Operator]string{
	OpEqual:          "==",
	OpNotEqual:       "!=",
	OpGreater:        ">",
	OpGreaterOrEqual: ">=",
	OpLess:           "<",
	OpLessOrEqual:    "<=",
	OpAnd:            "&&",
	OpOr:             "||",
	OpAdd:            "+",
	OpSubtract:       "-",
	OpMultiply:       "*",
	OpDivide:         "/",
	OpModulo:         "%",
}

func (op Operator) String() string {
	if s, ok := operatorSymbols[op]; ok {
		return s
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

// Arithmetic applies a binary operator to two operands.
type Arithmetic struct {
	left  Function
	right Function
	op    Operator
}

// NewArithmetic creates a binary operation.
func NewArithmetic(left, right Function, op Operator) *Arithmetic {
	return &Arithmetic{left: left, right: right, op: op}
}

// Execute evaluates both operands and applies the operator.
// && and || short-circuit on the left operand.
func (a *Arithmetic) Execute(ev *event.Event) (Result, error) {
	left, err := a.left.Execute(ev)
	if err != nil {
		return nil, err
	}

	if a.op == OpAnd || a.op == OpOr {
		return a.logical(ev, left)
	}

	right, err := a.right.Execute(ev)
	if err != nil {
		return nil, err
	}

	// A regex on the right of == or != matches against a string on the left.
	if re, ok := right.(RegexResult); ok && (a.op == OpEqual || a.op == OpNotEqual) {
		lv, ok := AsValue(left)
		if !ok {
			return nil, fmt.Errorf("unable to match regex against non-value")
		}
		s, ok := lv.(event.Bytes)
		if !ok {
			return nil, fmt.Errorf("unable to match regex against %s value", event.Kind(lv))
		}
		matched := re.Regex.Match(s)
		return ValueResult{Value: event.Boolean(matched == (a.op == OpEqual))}, nil
	}

	lv, lok := AsValue(left)
	rv, rok := AsValue(right)
	if !lok || !rok {
		return nil, fmt.Errorf("operator %s requires value operands", a.op)
	}

	v, err := apply(a.op, lv, rv)
	if err != nil {
		return nil, err
	}
	return ValueResult{Value: v}, nil
}

func (a *Arithmetic) logical(ev *event.Event, left Result) (Result, error) {
	lb, ok := AsBoolean(left)
	if !ok {
		return nil, fmt.Errorf("operator %s requires boolean operands", a.op)
	}
	if a.op == OpAnd && !lb {
		return ValueResult{Value: event.Boolean(false)}, nil
	}
	if a.op == OpOr && lb {
		return ValueResult{Value: event.Boolean(true)}, nil
	}

	right, err := a.right.Execute(ev)
	if err != nil {
		return nil, err
	}
	rb, ok := AsBoolean(right)
	if !ok {
		return nil, fmt.Errorf("operator %s requires boolean operands", a.op)
	}
	return ValueResult{Value: event.Boolean(rb)}, nil
}

func apply(op Operator, lv, rv event.Value) (event.Value, error) {
	switch op {
	case OpEqual:
		return event.Boolean(valuesEqual(lv, rv)), nil
	case OpNotEqual:
		return event.Boolean(!valuesEqual(lv, rv)), nil
	case OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual:
		c, err := compare(lv, rv)
		if err != nil {
			return nil, err
		}
		switch op {
		case OpGreater:
			return event.Boolean(c > 0), nil
		case OpGreaterOrEqual:
			return event.Boolean(c >= 0), nil
		case OpLess:
			return event.Boolean(c < 0), nil
		default:
			return event.Boolean(c <= 0), nil
		}
	case OpAdd:
		if ls, ok := lv.(event.Bytes); ok {
			if rs, ok := rv.(event.Bytes); ok {
				out := make(event.Bytes, 0, len(ls)+len(rs))
				return append(append(out, ls...), rs...), nil
			}
		}
		return numeric(op, lv, rv)
	case OpSubtract, OpMultiply, OpDivide, OpModulo:
		return numeric(op, lv, rv)
	default:
		return nil, fmt.Errorf("unsupported operator %s", op)
	}
}

// valuesEqual is structural equality except that integers and floats
// compare by numeric value.
func valuesEqual(lv, rv event.Value) bool {
	lf, lnum := asFloat(lv)
	rf, rnum := asFloat(rv)
	if lnum && rnum {
		return lf == rf
	}
	return event.Equal(lv, rv)
}

func compare(lv, rv event.Value) (int, error) {
	if ls, ok := lv.(event.Bytes); ok {
		if rs, ok := rv.(event.Bytes); ok {
			return bytes.Compare(ls, rs), nil
		}
	}
	li, lint := lv.(event.Integer)
	ri, rint := rv.(event.Integer)
	if lint && rint {
		switch {
		case li < ri:
			return -1, nil
		case li > ri:
			return 1, nil
		}
		return 0, nil
	}
	lf, lnum := asFloat(lv)
	rf, rnum := asFloat(rv)
	if !lnum || !rnum {
		return 0, fmt.Errorf("unable to compare %s with %s", event.Kind(lv), event.Kind(rv))
	}
	switch {
	case lf < rf:
		return -1, nil
	case lf > rf:
		return 1, nil
	}
	return 0, nil
}

func numeric(op Operator, lv, rv event.Value) (event.Value, error) {
	li, lint := lv.(event.Integer)
	ri, rint := rv.(event.Integer)

	if lint && rint && op != OpDivide {
		switch op {
		case OpAdd:
			return li + ri, nil
		case OpSubtract:
			return li - ri, nil
		case OpMultiply:
			return li * ri, nil
		case OpModulo:
			if ri == 0 {
				return nil, fmt.Errorf("unable to perform modulo by zero")
			}
			return li % ri, nil
		}
	}

	lf, lnum := asFloat(lv)
	rf, rnum := asFloat(rv)
	if !lnum || !rnum {
		return nil, fmt.Errorf("unable to apply %s to %s and %s", op, event.Kind(lv), event.Kind(rv))
	}

	switch op {
	case OpAdd:
		return event.Float(lf + rf), nil
	case OpSubtract:
		return event.Float(lf - rf), nil
	case OpMultiply:
		return event.Float(lf * rf), nil
	case OpDivide:
		if rf == 0 {
			return nil, fmt.Errorf("unable to divide by zero")
		}
		return event.Float(lf / rf), nil
	default:
		return nil, fmt.Errorf("operator %s requires integer operands", op)
	}
}

func asFloat(v event.Value) (float64, bool) {
	switch n := v.(type) {
	case event.Integer:
		return float64(n), true
	case event.Float:
		return float64(n), true
	}
	return 0, false
}
