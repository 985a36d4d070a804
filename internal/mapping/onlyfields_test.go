package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/remap/internal/event"
)

func TestOnlyFields(t *testing.T) {
	tests := []struct {
		name     string
		input    event.Map
		keep     []string
		expected event.Map
	}{
		{
			name:     "no paths clears the event",
			input:    event.Map{"a": event.Integer(1), "b": event.Map{"c": event.Integer(2)}},
			keep:     nil,
			expected: event.Map{},
		},
		{
			name:     "keeps whole subtree",
			input:    event.Map{"a": event.Map{"b": event.Integer(1), "c": event.Integer(2)}, "z": event.Null{}},
			keep:     []string{"a"},
			expected: event.Map{"a": event.Map{"b": event.Integer(1), "c": event.Integer(2)}},
		},
		{
			name:     "prunes holders left empty",
			input:    event.Map{"a": event.Map{"b": event.Integer(1), "c": event.Integer(2)}, "d": event.Map{"e": event.Map{}}},
			keep:     []string{"a.b", "d.e.f"},
			expected: event.Map{"a": event.Map{"b": event.Integer(1)}},
		},
		{
			name:     "array elements keep their index",
			input:    event.Map{"list": event.Array{event.Integer(1), event.Integer(2), event.Integer(3)}},
			keep:     []string{"list[1]"},
			expected: event.Map{"list": event.Array{event.Null{}, event.Integer(2)}},
		},
		{
			name:     "leading array element",
			input:    event.Map{"list": event.Array{event.Integer(1), event.Integer(2)}},
			keep:     []string{"list[0]"},
			expected: event.Map{"list": event.Array{event.Integer(1)}},
		},
		{
			name: "fields inside array elements",
			input: event.Map{"list": event.Array{
				event.Map{"a": event.Integer(1), "b": event.Integer(2)},
				event.Map{"a": event.Integer(3), "b": event.Integer(4)},
			}},
			keep: []string{"list[1].a"},
			expected: event.Map{"list": event.Array{
				event.Null{},
				event.Map{"a": event.Integer(3)},
			}},
		},
		{
			name:     "scalar in place of a holder is removed",
			input:    event.Map{"a": event.Integer(5), "b": event.Integer(1)},
			keep:     []string{"a.b", "b"},
			expected: event.Map{"b": event.Integer(1)},
		},
		{
			name:     "missing paths are ignored",
			input:    event.Map{"a": event.Integer(1)},
			keep:     []string{"a", "x.y.z"},
			expected: event.Map{"a": event.Integer(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := make([]event.Path, 0, len(tt.keep))
			for _, k := range tt.keep {
				paths = append(paths, p(k))
			}
			ev := event.FromMap(tt.input)
			require.NoError(t, NewOnlyFields(paths...).Apply(ev))
			assert.Equal(t, tt.expected, ev.Fields())
		})
	}
}

func TestOnlyFields_EveryLeafIsCovered(t *testing.T) {
	keep := []event.Path{p("a.b"), p("c")}
	ev := event.FromMap(event.Map{
		"a": event.Map{"b": event.Map{"x": event.Integer(1)}, "q": event.Integer(2)},
		"c": event.Array{event.Integer(1)},
		"d": event.Boolean(true),
	})
	require.NoError(t, NewOnlyFields(keep...).Apply(ev))

	for _, k := range ev.Keys(true) {
		v, ok := ev.Get(k)
		require.True(t, ok)
		if _, isMap := v.(event.Map); isMap {
			continue
		}
		covered := false
		for _, kp := range keep {
			if kp.Covers(k) {
				covered = true
			}
		}
		assert.True(t, covered, "leaf %s is not covered", k)
	}
}

func TestOnlyFields_KeptArrayElementsStayAddressable(t *testing.T) {
	keep := p("items[2].id")
	ev := event.FromMap(event.Map{"items": event.Array{
		event.Map{"id": event.Integer(1)},
		event.Map{"id": event.Integer(2)},
		event.Map{"id": event.Integer(3), "extra": event.Boolean(true)},
		event.Map{"id": event.Integer(4)},
	}})

	require.NoError(t, NewOnlyFields(keep).Apply(ev))

	v, ok := ev.Get(keep)
	require.True(t, ok)
	assert.Equal(t, event.Integer(3), v)
	assert.Equal(t, event.Map{"items": event.Array{
		event.Null{},
		event.Null{},
		event.Map{"id": event.Integer(3)},
	}}, ev.Fields())
}
