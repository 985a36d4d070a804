package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/remap/internal/event"
	"github.com/roach88/remap/internal/query"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name        string
		input       event.Map
		merge       *Merge
		expected    event.Map
		expectedErr string
		code        ErrorCode
	}{
		{
			name:        "non-map destination",
			input:       event.Map{"foo": str("bar")},
			merge:       NewMerge(p("foo"), lit(event.Map{"x": event.Integer(1)}), nil),
			expected:    event.Map{"foo": str("bar")},
			expectedErr: "parameters passed to merge are non-map values",
			code:        ErrCodeNonMapOperand,
		},
		{
			name:        "non-map source",
			input:       event.Map{"foo": event.Map{}},
			merge:       NewMerge(p("foo"), lit(str("bar")), nil),
			expected:    event.Map{"foo": event.Map{}},
			expectedErr: "parameters passed to merge are non-map values",
			code:        ErrCodeNonMapOperand,
		},
		{
			name: "shallow",
			input: event.Map{
				"foo": event.Map{"key1": str("val1")},
				"bar": event.Map{"key2": str("val2")},
			},
			merge: NewMerge(p("foo"), query.NewPath(p("bar")), nil),
			expected: event.Map{
				"foo": event.Map{"key1": str("val1"), "key2": str("val2")},
				"bar": event.Map{"key2": str("val2")},
			},
		},
		{
			name: "shallow replaces nested maps",
			input: event.Map{
				"parent1": event.Map{
					"key1":   str("val1"),
					"child1": event.Map{"grandchild1": str("val1")},
				},
				"parent2": event.Map{
					"key2":   str("val2"),
					"child1": event.Map{"grandchild2": str("val2")},
				},
			},
			merge: NewMerge(p("parent1"), query.NewPath(p("parent2")), lit(event.Boolean(false))),
			expected: event.Map{
				"parent1": event.Map{
					"key1":   str("val1"),
					"key2":   str("val2"),
					"child1": event.Map{"grandchild2": str("val2")},
				},
				"parent2": event.Map{
					"key2":   str("val2"),
					"child1": event.Map{"grandchild2": str("val2")},
				},
			},
		},
		{
			name: "deep merges nested maps",
			input: event.Map{
				"parent1": event.Map{
					"key1":   str("val1"),
					"child1": event.Map{"grandchild1": str("val1")},
				},
				"parent2": event.Map{
					"key2":   str("val2"),
					"child1": event.Map{"grandchild2": str("val2")},
				},
			},
			merge: NewMerge(p("parent1"), query.NewPath(p("parent2")), lit(event.Boolean(true))),
			expected: event.Map{
				"parent1": event.Map{
					"key1":   str("val1"),
					"key2":   str("val2"),
					"child1": event.Map{"grandchild1": str("val1"), "grandchild2": str("val2")},
				},
				"parent2": event.Map{
					"key2":   str("val2"),
					"child1": event.Map{"grandchild2": str("val2")},
				},
			},
		},
		{
			name:     "deep replaces non-map with map",
			input:    event.Map{"a": event.Map{"x": event.Integer(1)}},
			merge:    NewMerge(p("a"), lit(event.Map{"x": event.Map{"y": event.Integer(2)}}), lit(event.Boolean(true))),
			expected: event.Map{"a": event.Map{"x": event.Map{"y": event.Integer(2)}}},
		},
		{
			name:        "destination not found",
			input:       event.Map{},
			merge:       NewMerge(p("foo.bar"), lit(event.Map{}), nil),
			expected:    event.Map{},
			expectedErr: "parameter foo.bar passed to merge is not found",
			code:        ErrCodePathNotFound,
		},
		{
			name:        "non-boolean deep",
			input:       event.Map{"foo": event.Map{}},
			merge:       NewMerge(p("foo"), lit(event.Map{}), lit(str("yes"))),
			expected:    event.Map{"foo": event.Map{}},
			expectedErr: "deep parameter passed to merge is a non-boolean value",
			code:        ErrCodeNonBooleanCondition,
		},
		{
			name:     "empty source",
			input:    event.Map{"foo": event.Map{"a": event.Integer(1)}},
			merge:    NewMerge(p("foo"), lit(event.Map{}), nil),
			expected: event.Map{"foo": event.Map{"a": event.Integer(1)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := event.FromMap(tt.input)
			err := tt.merge.Apply(ev)
			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedErr, err.Error())
				assert.True(t, IsCode(err, tt.code))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expected, ev.Fields())
		})
	}
}

func TestMerge_EvaluationOrder(t *testing.T) {
	t.Run("from fails before deep and destination", func(t *testing.T) {
		m := NewMerge(p("missing"), query.NewPath(p("nope")), lit(str("not bool")))
		err := m.Apply(event.New())
		require.Error(t, err)
		assert.Equal(t, "path nope not found in event", err.Error())
	})

	t.Run("deep fails before destination lookup", func(t *testing.T) {
		m := NewMerge(p("missing"), lit(event.Map{}), lit(str("not bool")))
		err := m.Apply(event.New())
		require.Error(t, err)
		assert.True(t, IsCode(err, ErrCodeNonBooleanCondition))
	})

	t.Run("missing destination before operand kinds", func(t *testing.T) {
		m := NewMerge(p("missing"), lit(str("not a map")), nil)
		err := m.Apply(event.New())
		require.Error(t, err)
		assert.True(t, IsCode(err, ErrCodePathNotFound))
	})
}

func TestMerge_SourceIsCopied(t *testing.T) {
	ev := event.FromMap(event.Map{
		"dst": event.Map{},
		"src": event.Map{"inner": event.Map{"v": event.Integer(1)}},
	})
	require.NoError(t, NewMerge(p("dst"), query.NewPath(p("src")), nil).Apply(ev))

	ev.Insert(p("src.inner.v"), event.Integer(99))

	v, ok := ev.Get(p("dst.inner.v"))
	require.True(t, ok)
	assert.Equal(t, event.Integer(1), v)
}

func TestMerge_ArrayIndexDestination(t *testing.T) {
	ev := event.FromMap(event.Map{"list": event.Array{event.Map{"a": event.Integer(1)}}})
	require.NoError(t, NewMerge(p("list[0]"), lit(event.Map{"b": event.Integer(2)}), nil).Apply(ev))

	assert.Equal(t, event.Map{"list": event.Array{event.Map{"a": event.Integer(1), "b": event.Integer(2)}}}, ev.Fields())
}

func TestMergeMaps_Idempotent(t *testing.T) {
	src := event.Map{"a": event.Map{"b": event.Integer(1)}, "c": str("x")}
	for _, deep := range []bool{false, true} {
		dst := event.Map{"a": event.Map{"z": event.Integer(0)}, "d": event.Boolean(true)}
		MergeMaps(dst, src, deep)
		once := dst.Clone()
		MergeMaps(dst, src, deep)
		assert.Equal(t, once, dst, "deep=%v", deep)
	}
}
