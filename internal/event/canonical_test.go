package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"string", Bytes("hello"), `"hello"`},
		{"no html escaping", Bytes("<a&b>"), `"<a&b>"`},
		{"control chars", Bytes("a\nb\x01"), `"a\nb\u0001"`},
		{"invalid utf8", Bytes{'a', 0xff}, "\"a�\""},
		{"int", Integer(-100), "-100"},
		{"float", Float(3), "3.0"},
		{"bool", Boolean(false), "false"},
		{"null", Null{}, "null"},
		{"empty array", Array{}, "[]"},
		{"empty map", Map{}, "{}"},
		{"sorted keys", Map{"zebra": Integer(1), "alpha": Integer(2)}, `{"alpha":2,"zebra":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonical_NFC(t *testing.T) {
	decomposed := Bytes("é")
	composed := Bytes("é")

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(composed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// Byte order puts U+E000 first; UTF-16 order puts the surrogate pair
	// of U+1F600 (0xD83D) first.
	m := Map{"": Integer(1), "\U0001F600": Integer(2)}

	result, err := MarshalCanonical(m)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\":1}", string(result))
}

func TestHash_StableAcrossKeyInsertionOrder(t *testing.T) {
	a := New()
	a.Insert(MustParsePath("x"), Integer(1))
	a.Insert(MustParsePath("y.z"), Bytes("v"))

	b := New()
	b.Insert(MustParsePath("y.z"), Bytes("v"))
	b.Insert(MustParsePath("x"), Integer(1))

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
	assert.Len(t, ha, 64)
}

func TestHashSource_DomainSeparated(t *testing.T) {
	src := []byte(`mapping: []`)
	assert.Equal(t, HashSource(src), HashSource(src))
	assert.NotEqual(t, HashSource(src), HashSource([]byte(`mapping: [{noop: {}}]`)))
}
