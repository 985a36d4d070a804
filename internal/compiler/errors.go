package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a malformed-program error. Field names the program
// element at fault (e.g. "mapping[2].merge.to").
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	msg := e.Field + ": " + e.Message
	if !e.Pos.IsValid() {
		return msg
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), msg)
}

func newCompileError(field string, pos token.Pos, format string, args ...any) *CompileError {
	return &CompileError{Field: field, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// formatCUEError reduces a CUE error list to its first entry, keeping the
// position when CUE reports one.
func formatCUEError(field string, err error) error {
	if err == nil {
		return nil
	}
	ce := &CompileError{Field: field, Message: err.Error()}
	if list := errors.Errors(err); len(list) > 0 {
		ce.Message = list[0].Error()
		if positions := errors.Positions(list[0]); len(positions) > 0 {
			ce.Pos = positions[0]
		}
	}
	return ce
}
