package compiler

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/remap/internal/mapping"
)

// CompileSource compiles CUE program text. filename is used only for
// error positions.
func CompileSource(filename string, src []byte) (*mapping.Mapping, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError("cue", err)
	}
	return CompileMapping(v)
}
