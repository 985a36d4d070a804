package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/remap/internal/event"
	"github.com/roach88/remap/internal/query"
)

var binaryOperators = map[string]query.Operator{
	"eq":  query.OpEqual,
	"ne":  query.OpNotEqual,
	"gt":  query.OpGreater,
	"ge":  query.OpGreaterOrEqual,
	"lt":  query.OpLess,
	"le":  query.OpLessOrEqual,
	"and": query.OpAnd,
	"or":  query.OpOr,
	"add": query.OpAdd,
	"sub": query.OpSubtract,
	"mul": query.OpMultiply,
	"div": query.OpDivide,
	"mod": query.OpModulo,
}

// compileExpression compiles an expression.
//
// Scalars and lists are literals. A struct must hold exactly one operator
// key: literal, path, regex, not, or one of the binary operators.
func compileExpression(v cue.Value, field string) (query.Function, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(field, err)
	}

	if v.IncompleteKind() != cue.StructKind {
		lit, err := compileLiteral(v, field)
		if err != nil {
			return nil, err
		}
		return query.NewLiteral(lit), nil
	}

	op, operand, err := singleField(v, field)
	if err != nil {
		return nil, err
	}
	field = field + "." + op

	switch op {
	case "literal":
		lit, err := compileLiteral(operand, field)
		if err != nil {
			return nil, err
		}
		return query.NewLiteral(lit), nil

	case "path":
		return compilePathQuery(operand, field)

	case "regex":
		pattern, err := operand.String()
		if err != nil {
			return nil, formatCUEError(field, err)
		}
		re, err := query.NewRegex(pattern)
		if err != nil {
			return nil, newCompileError(field, operand.Pos(), "%v", err)
		}
		return re, nil

	case "not":
		inner, err := compileExpression(operand, field)
		if err != nil {
			return nil, err
		}
		return query.NewNot(inner), nil
	}

	binop, ok := binaryOperators[op]
	if !ok {
		return nil, newCompileError(field, v.Pos(), "unknown expression %q", op)
	}
	return compileBinary(operand, field, binop)
}

func compileBinary(v cue.Value, field string, op query.Operator) (query.Function, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(field, err)
	}

	var operands []query.Function
	for i := 0; iter.Next(); i++ {
		fn, err := compileExpression(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		operands = append(operands, fn)
	}
	if len(operands) != 2 {
		return nil, newCompileError(field, v.Pos(), "operator %s takes 2 operands, got %d", op, len(operands))
	}

	return query.NewArithmetic(operands[0], operands[1], op), nil
}

// compilePathQuery accepts one path or a list of alternatives.
func compilePathQuery(v cue.Value, field string) (query.Function, error) {
	paths, err := compilePathList(v, field)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, newCompileError(field, v.Pos(), "at least one path is required")
	}
	return query.NewPath(paths[0], paths[1:]...), nil
}

// compileLiteral converts a concrete CUE value into an event value.
func compileLiteral(v cue.Value, field string) (event.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return event.Null{}, nil

	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(field, err)
		}
		return event.Boolean(b), nil

	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(field, err)
		}
		return event.Integer(i), nil

	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(field, err)
		}
		return event.Float(f), nil

	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(field, err)
		}
		return event.NewBytes(s), nil

	case cue.BytesKind:
		b, err := v.Bytes()
		if err != nil {
			return nil, formatCUEError(field, err)
		}
		return event.Bytes(b), nil

	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(field, err)
		}
		arr := event.Array{}
		for i := 0; iter.Next(); i++ {
			elem, err := compileLiteral(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil

	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(field, err)
		}
		m := event.Map{}
		for iter.Next() {
			key := iter.Selector().Unquoted()
			elem, err := compileLiteral(iter.Value(), field+"."+key)
			if err != nil {
				return nil, err
			}
			m[key] = elem
		}
		return m, nil

	default:
		return nil, newCompileError(field, v.Pos(), "literal must be concrete, got %v", v.IncompleteKind())
	}
}
