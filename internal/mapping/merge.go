package mapping

import (
	"fmt"

	"github.com/roach88/remap/internal/event"
	"github.com/roach88/remap/internal/query"
)

// Merge merges a map expression into the map stored at a path.
type Merge struct {
	to   event.Path
	from query.Function
	deep query.Function // nil means shallow
}

// NewMerge creates a merge of from into the map at to. deep may be nil,
// in which case the merge is shallow.
func NewMerge(to event.Path, from query.Function, deep query.Function) *Merge {
	return &Merge{to: to, from: from, deep: deep}
}

func (*Merge) statement() {}

// Apply evaluates from, then deep, then resolves the destination, and
// merges in place.
func (m *Merge) Apply(ev *event.Event) error {
	fromResult, err := m.from.Execute(ev)
	if err != nil {
		return err
	}

	deep := false
	if m.deep != nil {
		r, err := m.deep.Execute(ev)
		if err != nil {
			return err
		}
		b, ok := query.AsBoolean(r)
		if !ok {
			return newStatementError(ErrCodeNonBooleanCondition, msgMergeDeepNonBoolean)
		}
		deep = b
	}

	toValue, ok := ev.Get(m.to)
	if !ok {
		return newStatementError(ErrCodePathNotFound,
			fmt.Sprintf("parameter %s passed to merge is not found", m.to))
	}

	dst, ok := toValue.(event.Map)
	if !ok {
		return newStatementError(ErrCodeNonMapOperand, msgMergeNonMap)
	}
	fromValue, _ := query.AsValue(fromResult)
	src, ok := fromValue.(event.Map)
	if !ok {
		return newStatementError(ErrCodeNonMapOperand, msgMergeNonMap)
	}

	MergeMaps(dst, src, deep)
	return nil
}

// MergeMaps merges src into dst in place.
//
// Every key of src is written into dst. When deep is true and both sides
// hold a Map under the same key, the two maps are merged recursively;
// otherwise the destination value is replaced by a copy of the source
// value. Keys only present in dst are left untouched.
//
// Recursion depth equals the nesting depth of the maps being merged.
// Inputs nested thousands of levels deep can exhaust the stack.
func MergeMaps(dst, src event.Map, deep bool) {
	for _, key := range src.SortedKeys() {
		srcValue := src[key]
		if deep {
			dstChild, dstIsMap := dst[key].(event.Map)
			srcChild, srcIsMap := srcValue.(event.Map)
			if dstIsMap && srcIsMap {
				MergeMaps(dstChild, srcChild, deep)
				continue
			}
		}
		dst[key] = event.Clone(srcValue)
	}
}
