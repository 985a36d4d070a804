package event

import (
	"slices"
)

// Event is a single structured record. The root is always a Map.
//
// Event is not safe for concurrent use. A caller owns an Event for the
// duration of any operation on it.
type Event struct {
	fields Map
}

// New creates an empty event.
func New() *Event {
	return &Event{fields: Map{}}
}

// FromMap creates an event rooted at m. The event takes ownership of m.
func FromMap(m Map) *Event {
	if m == nil {
		m = Map{}
	}
	return &Event{fields: m}
}

// Fields returns the root map. Mutations through it are visible in the event.
func (e *Event) Fields() Map {
	return e.fields
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	return &Event{fields: e.fields.Clone()}
}

// Equal reports whether both events hold structurally identical trees.
func (e *Event) Equal(other *Event) bool {
	if other == nil {
		return false
	}
	return Equal(e.fields, other.fields)
}

// Get returns the value at path p.
//
// The returned value aliases the event: a Map obtained here can be
// mutated in place and the change is visible in the event. Arrays must
// be written back with Insert when their length changes.
func (e *Event) Get(p Path) (Value, bool) {
	if p.IsEmpty() {
		return nil, false
	}
	var cur Value = e.fields
	for _, seg := range p.segments {
		next, ok := child(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Contains reports whether a node exists at path p.
func (e *Event) Contains(p Path) bool {
	_, ok := e.Get(p)
	return ok
}

func child(cur Value, seg Segment) (Value, bool) {
	if seg.isIndex {
		arr, ok := cur.(Array)
		if !ok || seg.index >= len(arr) {
			return nil, false
		}
		return arr[seg.index], true
	}
	m, ok := cur.(Map)
	if !ok {
		return nil, false
	}
	v, ok := m[seg.field]
	return v, ok
}

// Insert writes v at path p, replacing any existing value.
//
// Missing intermediate containers are created: a Map for a field
// segment, an Array for an index segment. Arrays shorter than an index
// are padded with Null. An intermediate node of the wrong kind is
// replaced by a fresh container.
func (e *Event) Insert(p Path, v Value) {
	if p.IsEmpty() {
		return
	}
	e.fields = insertValue(e.fields, p.segments, v).(Map)
}

func insertValue(cur Value, segs []Segment, v Value) Value {
	if len(segs) == 0 {
		return v
	}

	seg := segs[0]
	if seg.isIndex {
		arr, ok := cur.(Array)
		if !ok {
			arr = Array{}
		}
		for len(arr) <= seg.index {
			arr = append(arr, Null{})
		}
		arr[seg.index] = insertValue(arr[seg.index], segs[1:], v)
		return arr
	}

	m, ok := cur.(Map)
	if !ok {
		m = Map{}
	}
	m[seg.field] = insertValue(m[seg.field], segs[1:], v)
	return m
}

// Remove deletes the node at path p and returns it.
//
// Removing an absent path is a no-op. Array elements after a removed
// index shift down by one. If compact is true, ancestors left empty by
// the removal are removed as well; the root map itself is never removed.
func (e *Event) Remove(p Path, compact bool) (Value, bool) {
	if p.IsEmpty() {
		return nil, false
	}
	updated, removed, ok := removeValue(e.fields, p.segments, compact)
	if !ok {
		return nil, false
	}
	e.fields = updated.(Map)
	return removed, true
}

func removeValue(cur Value, segs []Segment, compact bool) (Value, Value, bool) {
	seg := segs[0]

	if seg.isIndex {
		arr, ok := cur.(Array)
		if !ok || seg.index >= len(arr) {
			return cur, nil, false
		}
		if len(segs) == 1 {
			removed := arr[seg.index]
			return slices.Delete(arr, seg.index, seg.index+1), removed, true
		}
		updated, removed, ok := removeValue(arr[seg.index], segs[1:], compact)
		if !ok {
			return cur, nil, false
		}
		if compact && isEmptyContainer(updated) {
			return slices.Delete(arr, seg.index, seg.index+1), removed, true
		}
		arr[seg.index] = updated
		return arr, removed, true
	}

	m, ok := cur.(Map)
	if !ok {
		return cur, nil, false
	}
	next, exists := m[seg.field]
	if !exists {
		return cur, nil, false
	}
	if len(segs) == 1 {
		delete(m, seg.field)
		return m, next, true
	}
	updated, removed, ok := removeValue(next, segs[1:], compact)
	if !ok {
		return cur, nil, false
	}
	if compact && isEmptyContainer(updated) {
		delete(m, seg.field)
	} else {
		m[seg.field] = updated
	}
	return m, removed, true
}

// Keys enumerates the paths present in the event.
//
// With recursive false only top-level fields are returned. With
// recursive true every node is returned, intermediate containers
// included, in pre-order: a container always precedes its children.
// Map fields are visited in sorted order, array elements by index.
func (e *Event) Keys(recursive bool) []Path {
	var keys []Path
	for _, k := range e.fields.SortedKeys() {
		p := NewPath(k)
		keys = append(keys, p)
		if recursive {
			keys = appendChildKeys(keys, p, e.fields[k])
		}
	}
	return keys
}

func appendChildKeys(keys []Path, parent Path, v Value) []Path {
	switch val := v.(type) {
	case Map:
		for _, k := range val.SortedKeys() {
			p := parent.Field(k)
			keys = append(keys, p)
			keys = appendChildKeys(keys, p, val[k])
		}
	case Array:
		for i, elem := range val {
			p := parent.Index(i)
			keys = append(keys, p)
			keys = appendChildKeys(keys, p, elem)
		}
	}
	return keys
}
