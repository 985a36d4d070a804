// Package compiler turns CUE mapping programs into executable mappings.
//
// A program is a CUE value with a top-level `mapping` list. Each element is
// a struct with exactly one statement key:
//
//	mapping: [
//		{assign: {path: "foo", value: "bar"}},
//		{delete: ["a", "b.c"]},
//		{only_fields: ["bar.baz.buz", "nested"]},
//		{"if": {condition: {eq: [{path: "bar"}, "baz"]}, then: {noop: {}}}},
//		{merge: {to: "foo", from: {path: "bar"}, deep: true}},
//		{log: {message: {path: "msg"}, level: "warn"}},
//		{noop: {}},
//	]
//
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/remap/internal/event"
	"github.com/roach88/remap/internal/mapping"
	"github.com/roach88/remap/internal/query"
)

// Statement keys.
const (
	keyAssign     = "assign"
	keyDelete     = "delete"
	keyOnlyFields = "only_fields"
	keyIf         = "if"
	keyMerge      = "merge"
	keyLog        = "log"
	keyNoop       = "noop"
)

// CompileMapping compiles the `mapping` list of a CUE program.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`mapping: [{assign: {path: "foo", value: "bar"}}]`)
//	m, err := CompileMapping(v)
func CompileMapping(v cue.Value) (*mapping.Mapping, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError("cue", err)
	}

	listVal := lookup(v, "mapping")
	if !listVal.Exists() {
		return nil, newCompileError("mapping", v.Pos(), "mapping is required")
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError("mapping", err)
	}

	var statements []mapping.Statement
	for i := 0; iter.Next(); i++ {
		stmt, err := compileStatement(iter.Value(), fmt.Sprintf("mapping[%d]", i))
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	return mapping.New(statements...), nil
}

// compileStatement compiles a single-key statement struct.
func compileStatement(v cue.Value, field string) (mapping.Statement, error) {
	key, body, err := singleField(v, field)
	if err != nil {
		return nil, err
	}
	field = field + "." + key

	switch key {
	case keyAssign:
		return compileAssign(body, field)
	case keyDelete:
		paths, err := compilePathList(body, field)
		if err != nil {
			return nil, err
		}
		return mapping.NewDeletion(paths...), nil
	case keyOnlyFields:
		paths, err := compilePathList(body, field)
		if err != nil {
			return nil, err
		}
		return mapping.NewOnlyFields(paths...), nil
	case keyIf:
		return compileIf(body, field)
	case keyMerge:
		return compileMerge(body, field)
	case keyLog:
		return compileLog(body, field)
	case keyNoop:
		return mapping.Noop{}, nil
	default:
		return nil, newCompileError(field, v.Pos(), "unknown statement %q", key)
	}
}

func compileAssign(v cue.Value, field string) (mapping.Statement, error) {
	path, err := requiredPath(v, field, "path")
	if err != nil {
		return nil, err
	}
	fn, err := requiredExpression(v, field, "value")
	if err != nil {
		return nil, err
	}
	return mapping.NewAssignment(path, fn), nil
}

func compileIf(v cue.Value, field string) (mapping.Statement, error) {
	condition, err := requiredExpression(v, field, "condition")
	if err != nil {
		return nil, err
	}

	var branches [2]mapping.Statement
	for i, name := range []string{"then", "else"} {
		branchVal := lookup(v, name)
		if !branchVal.Exists() {
			continue // absent branch is a Noop
		}
		stmt, err := compileStatement(branchVal, field+"."+name)
		if err != nil {
			return nil, err
		}
		branches[i] = stmt
	}

	return mapping.NewIfStatement(condition, branches[0], branches[1]), nil
}

func compileMerge(v cue.Value, field string) (mapping.Statement, error) {
	to, err := requiredPath(v, field, "to")
	if err != nil {
		return nil, err
	}
	from, err := requiredExpression(v, field, "from")
	if err != nil {
		return nil, err
	}

	var deep query.Function
	if deepVal := lookup(v, "deep"); deepVal.Exists() {
		deep, err = compileExpression(deepVal, field+".deep")
		if err != nil {
			return nil, err
		}
	}

	return mapping.NewMerge(to, from, deep), nil
}

func compileLog(v cue.Value, field string) (mapping.Statement, error) {
	message, err := requiredExpression(v, field, "message")
	if err != nil {
		return nil, err
	}

	level := mapping.LogLevelInfo
	if levelVal := lookup(v, "level"); levelVal.Exists() {
		name, err := levelVal.String()
		if err != nil {
			return nil, formatCUEError(field+".level", err)
		}
		level, err = mapping.ParseLogLevel(name)
		if err != nil {
			return nil, newCompileError(field+".level", levelVal.Pos(), "%v: %q", err, name)
		}
	}

	return mapping.NewLogAt(message, level), nil
}

// compilePathList accepts a list of path strings or a single path string.
func compilePathList(v cue.Value, field string) ([]event.Path, error) {
	if v.Kind() == cue.StringKind {
		p, err := compilePath(v, field)
		if err != nil {
			return nil, err
		}
		return []event.Path{p}, nil
	}

	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(field, err)
	}

	var paths []event.Path
	for i := 0; iter.Next(); i++ {
		p, err := compilePath(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func compilePath(v cue.Value, field string) (event.Path, error) {
	s, err := v.String()
	if err != nil {
		return event.Path{}, formatCUEError(field, err)
	}
	p, err := event.ParsePath(s)
	if err != nil {
		return event.Path{}, newCompileError(field, v.Pos(), "%v", err)
	}
	return p, nil
}

func requiredPath(v cue.Value, field, name string) (event.Path, error) {
	pathVal := lookup(v, name)
	if !pathVal.Exists() {
		return event.Path{}, newCompileError(field+"."+name, v.Pos(), "%s is required", name)
	}
	return compilePath(pathVal, field+"."+name)
}

func requiredExpression(v cue.Value, field, name string) (query.Function, error) {
	exprVal := lookup(v, name)
	if !exprVal.Exists() {
		return nil, newCompileError(field+"."+name, v.Pos(), "%s is required", name)
	}
	return compileExpression(exprVal, field+"."+name)
}

// singleField returns the only regular field of a struct.
func singleField(v cue.Value, field string) (string, cue.Value, error) {
	if v.IncompleteKind() != cue.StructKind {
		return "", cue.Value{}, newCompileError(field, v.Pos(), "expected a struct with one key, got %v", v.IncompleteKind())
	}

	iter, err := v.Fields()
	if err != nil {
		return "", cue.Value{}, formatCUEError(field, err)
	}

	var key string
	var body cue.Value
	count := 0
	for iter.Next() {
		key = iter.Selector().Unquoted()
		body = iter.Value()
		count++
	}
	if count != 1 {
		return "", cue.Value{}, newCompileError(field, v.Pos(), "expected exactly one key, got %d", count)
	}
	return key, body, nil
}

// lookup finds a field by its literal name. Names such as "if" are CUE
// keywords and cannot go through cue.ParsePath.
func lookup(v cue.Value, name string) cue.Value {
	return v.LookupPath(cue.MakePath(cue.Str(name)))
}
