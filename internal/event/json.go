package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"
)

// MarshalJSON implements json.Marshaler for Event.
func (e *Event) MarshalJSON() ([]byte, error) {
	return e.fields.MarshalJSON()
}

// MarshalJSON implements json.Marshaler for Map with sorted keys.
// NOTE: This is NOT canonical marshaling. Use MarshalCanonical for hashing.
func (m Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range m.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := MarshalValue(m[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalValue marshals a Value to JSON bytes.
// Bytes are written as JSON strings; timestamps as RFC 3339 strings.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Null, nil:
		return []byte("null"), nil
	case Bytes:
		return json.Marshal(string(val))
	case Integer:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case Float:
		return marshalFloat(float64(val))
	case Boolean:
		return strconv.AppendBool(nil, bool(val)), nil
	case Timestamp:
		return json.Marshal(time.Time(val).UTC().Format(time.RFC3339Nano))
	case Array:
		return marshalArray(val)
	case Map:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// marshalFloat keeps a fractional marker so whole floats decode back as floats.
func marshalFloat(f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("float %v cannot be represented in JSON", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return []byte(s), nil
}

func marshalArray(arr Array) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := MarshalValue(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

var parserPool fastjson.ParserPool

// ParseJSON decodes a JSON object into an Event.
// Integral numbers become Integer, all other numbers Float.
func ParseJSON(data []byte) (*Event, error) {
	v, err := ParseValue(data)
	if err != nil {
		return nil, err
	}
	m, ok := v.(Map)
	if !ok {
		return nil, fmt.Errorf("event must be a JSON object, got %s", Kind(v))
	}
	return FromMap(m), nil
}

// ParseValue decodes any JSON document into a Value.
func ParseValue(data []byte) (Value, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	fv, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return convertFastJSON(fv)
}

// convertFastJSON copies a parsed fastjson tree into Values.
// Bytes are copied because the parser's buffers are reused.
func convertFastJSON(fv *fastjson.Value) (Value, error) {
	switch fv.Type() {
	case fastjson.TypeNull:
		return Null{}, nil
	case fastjson.TypeTrue:
		return Boolean(true), nil
	case fastjson.TypeFalse:
		return Boolean(false), nil
	case fastjson.TypeString:
		sb, err := fv.StringBytes()
		if err != nil {
			return nil, err
		}
		return Bytes(bytes.Clone(sb)), nil
	case fastjson.TypeNumber:
		if n, err := fv.Int64(); err == nil {
			return Integer(n), nil
		}
		f, err := fv.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %s: %w", fv.String(), err)
		}
		return Float(f), nil
	case fastjson.TypeArray:
		elems, err := fv.Array()
		if err != nil {
			return nil, err
		}
		arr := make(Array, len(elems))
		for i, elem := range elems {
			v, err := convertFastJSON(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = v
		}
		return arr, nil
	case fastjson.TypeObject:
		obj, err := fv.Object()
		if err != nil {
			return nil, err
		}
		m := make(Map, obj.Len())
		var visitErr error
		obj.Visit(func(key []byte, elem *fastjson.Value) {
			if visitErr != nil {
				return
			}
			v, err := convertFastJSON(elem)
			if err != nil {
				visitErr = fmt.Errorf("object[%q]: %w", key, err)
				return
			}
			m[string(key)] = v
		})
		if visitErr != nil {
			return nil, visitErr
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported JSON type %s", fv.Type())
	}
}

// FromAny converts a decoded Go value (as produced by YAML or JSON
// decoders) into a Value.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return Clone(val), nil
	case bool:
		return Boolean(val), nil
	case string:
		return Bytes(val), nil
	case []byte:
		return Bytes(bytes.Clone(val)), nil
	case int:
		return Integer(val), nil
	case int64:
		return Integer(val), nil
	case int32:
		return Integer(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d out of range", val)
		}
		return Integer(val), nil
	case float64:
		return Float(val), nil
	case float32:
		return Float(val), nil
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return Integer(n), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %s: %w", val, err)
		}
		return Float(f), nil
	case time.Time:
		return NewTimestamp(val), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			ev, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = ev
		}
		return arr, nil
	case map[string]any:
		m := make(Map, len(val))
		for k, elem := range val {
			ev, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			m[k] = ev
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}
