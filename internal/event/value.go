package event

import (
	"bytes"
	"maps"
	"slices"
	"strconv"
	"time"
)

// Value is a sealed interface over the kinds an event field can hold.
// Only Null, Bytes, Integer, Float, Boolean, Timestamp, Array and Map
// implement it.
type Value interface {
	eventValue() // Sealed
}

// Null is an explicit null.
type Null struct{}

func (Null) eventValue() {}

// Bytes is a string value. Events carry raw bytes; they are not
// guaranteed to be valid UTF-8.
type Bytes []byte

func (Bytes) eventValue() {}

// Integer is a signed 64-bit integer.
type Integer int64

func (Integer) eventValue() {}

// Float is a 64-bit float.
type Float float64

func (Float) eventValue() {}

// Boolean is a boolean.
type Boolean bool

func (Boolean) eventValue() {}

// Timestamp is a point in time, always held in UTC.
type Timestamp time.Time

func (Timestamp) eventValue() {}

// Array is an ordered list of values.
type Array []Value

func (Array) eventValue() {}

// Map is a mapping of field name to value.
// Use SortedKeys() for deterministic iteration.
type Map map[string]Value

func (Map) eventValue() {}

// NewBytes creates a Bytes value from a string.
func NewBytes(s string) Bytes {
	return Bytes(s)
}

// NewTimestamp creates a Timestamp normalized to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.UTC())
}

// SortedKeys returns the map keys in byte order.
func (m Map) SortedKeys() []string {
	return slices.Sorted(maps.Keys(m))
}

// Clone returns a deep copy of v. Maps and Arrays are copied recursively,
// Bytes are copied, scalars are returned as is.
func Clone(v Value) Value {
	switch val := v.(type) {
	case Bytes:
		return Bytes(bytes.Clone(val))
	case Array:
		out := make(Array, len(val))
		for i, elem := range val {
			out[i] = Clone(elem)
		}
		return out
	case Map:
		return val.Clone()
	default:
		return v
	}
}

// Clone returns a deep copy of the map.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}

// Equal reports whether a and b are structurally identical.
// Integer(1) and Float(1) are different values.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Null:
		_, ok := b.(Null)
		return ok
	case Bytes:
		bv, ok := b.(Bytes)
		return ok && bytes.Equal(av, bv)
	case Integer:
		bv, ok := b.(Integer)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv
	case Boolean:
		bv, ok := b.(Boolean)
		return ok && av == bv
	case Timestamp:
		bv, ok := b.(Timestamp)
		return ok && time.Time(av).Equal(time.Time(bv))
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv, ok := b.(Map)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, exists := bv[k]
			if !exists || !Equal(v, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IsContainer reports whether v is a Map or an Array.
func IsContainer(v Value) bool {
	switch v.(type) {
	case Map, Array:
		return true
	}
	return false
}

// isEmptyContainer reports whether v is a Map or Array with no elements.
func isEmptyContainer(v Value) bool {
	switch val := v.(type) {
	case Map:
		return len(val) == 0
	case Array:
		return len(val) == 0
	}
	return false
}

// ToBytes returns the raw byte representation of v.
//
// Bytes are returned unchanged. Scalars use their textual form,
// timestamps RFC 3339 with nanoseconds, null renders as "<null>",
// and Maps and Arrays render as JSON.
func ToBytes(v Value) []byte {
	switch val := v.(type) {
	case Bytes:
		return bytes.Clone(val)
	case Integer:
		return strconv.AppendInt(nil, int64(val), 10)
	case Float:
		return strconv.AppendFloat(nil, float64(val), 'g', -1, 64)
	case Boolean:
		return strconv.AppendBool(nil, bool(val))
	case Timestamp:
		return []byte(time.Time(val).UTC().Format(time.RFC3339Nano))
	case Null, nil:
		return []byte("<null>")
	default:
		data, err := MarshalValue(v)
		if err != nil {
			return []byte("<invalid>")
		}
		return data
	}
}

// Kind returns a short human-readable name for the kind of v.
func Kind(v Value) string {
	switch v.(type) {
	case Null:
		return "null"
	case Bytes:
		return "string"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Boolean:
		return "boolean"
	case Timestamp:
		return "timestamp"
	case Array:
		return "array"
	case Map:
		return "map"
	default:
		return "unknown"
	}
}
