package mapping

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/remap/internal/event"
	"github.com/roach88/remap/internal/query"
)

func p(s string) event.Path { return event.MustParsePath(s) }

func lit(v event.Value) query.Function { return query.NewLiteral(v) }

func str(s string) event.Value { return event.Bytes(s) }

// barIsBaz is: if .bar == "baz" { .foo = "bar is baz" } else { del(.bar) }
func barIsBaz(condition query.Function) *Mapping {
	return New(NewIfStatement(
		condition,
		NewAssignment(p("foo"), lit(str("bar is baz"))),
		NewDeletion(p("bar")),
	))
}

func TestMappingExecute(t *testing.T) {
	equalsBaz := query.NewArithmetic(query.NewPath(p("bar")), lit(str("baz")), query.OpEqual)

	tests := []struct {
		name        string
		input       event.Map
		expected    event.Map
		mapping     *Mapping
		expectedErr string
	}{
		{
			name:     "assign literal",
			input:    event.Map{"message": str("foo body")},
			expected: event.Map{"message": str("foo body"), "foo": str("bar")},
			mapping:  New(NewAssignment(p("foo"), lit(str("bar")))),
		},
		{
			name:     "assign escaped path",
			input:    event.Map{"message": str("foo body")},
			expected: event.Map{"message": str("foo body"), "foo bar.baz": event.Map{"buz": str("quack")}},
			mapping:  New(NewAssignment(p(`foo bar\.baz.buz`), lit(str("quack")))),
		},
		{
			name:     "delete",
			input:    event.Map{"message": str("foo body"), "foo": str("bar")},
			expected: event.Map{"message": str("foo body")},
			mapping:  New(NewDeletion(p("foo"))),
		},
		{
			name:     "assign then delete",
			input:    event.Map{"message": str("foo body"), "bar": str("baz")},
			expected: event.Map{"message": str("foo body"), "foo": str("bar")},
			mapping: New(
				NewAssignment(p("foo"), lit(str("bar"))),
				NewDeletion(p("bar")),
			),
		},
		{
			name:     "if true branch",
			input:    event.Map{"bar": str("baz")},
			expected: event.Map{"bar": str("baz"), "foo": str("bar is baz")},
			mapping:  barIsBaz(equalsBaz),
		},
		{
			name:     "if false branch",
			input:    event.Map{"bar": str("buz")},
			expected: event.Map{},
			mapping:  barIsBaz(equalsBaz),
		},
		{
			name:        "if non-boolean condition",
			input:       event.Map{"bar": str("buz")},
			expected:    event.Map{"bar": str("buz")},
			mapping:     barIsBaz(query.NewPath(p("bar"))),
			expectedErr: "failed to apply mapping 0: query returned non-boolean value",
		},
		{
			name: "only fields",
			input: event.Map{
				"message": str("foo body"),
				"bar":     event.Map{"baz": event.Map{"buz": str("first"), "remove_this": str("second")}},
				"bev":     str("third"),
				"and":     event.Map{"remove_this": str("fourth")},
				"nested":  event.Map{"stuff": event.Map{"here": str("fifth")}, "and_here": str("sixth")},
			},
			expected: event.Map{
				"bar":    event.Map{"baz": event.Map{"buz": str("first")}},
				"bev":    str("third"),
				"nested": event.Map{"stuff": event.Map{"here": str("fifth")}, "and_here": str("sixth")},
			},
			mapping: New(NewOnlyFields(p("bar.baz.buz"), p("bev"), p("doesnt_exist.anyway"), p("nested"))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := event.FromMap(tt.input)
			err := tt.mapping.Execute(ev)
			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedErr, err.Error())
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expected, ev.Fields())
		})
	}
}

func TestMappingExecute_EmptyLeavesEventUnchanged(t *testing.T) {
	original := event.Map{"a": event.Map{"b": event.Array{event.Integer(1), event.Null{}}}, "c": event.Float(0.5)}
	ev := event.FromMap(original.Clone())

	require.NoError(t, New().Execute(ev))

	before, err := event.MarshalCanonical(original)
	require.NoError(t, err)
	after, err := event.MarshalCanonicalEvent(ev)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

// recorder counts applications so tests can see which statements ran.
type recorder struct {
	Noop
	applied *int
	fail    error
}

func (r recorder) Apply(ev *event.Event) error {
	*r.applied++
	return r.fail
}

func TestMappingExecute_AbortsAtFirstFailure(t *testing.T) {
	ran := 0
	m := New(
		NewAssignment(p("first"), lit(str("done"))),
		NewMerge(p("missing"), lit(event.Map{}), nil),
		recorder{applied: &ran},
	)

	ev := event.New()
	err := m.Execute(ev)
	require.Error(t, err)
	assert.Equal(t, "failed to apply mapping 1: parameter missing passed to merge is not found", err.Error())

	idx, ok := FailedIndex(err)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.True(t, IsCode(err, ErrCodePathNotFound))

	assert.Equal(t, 0, ran, "statements after the failure must not run")
	assert.Equal(t, event.Map{"first": str("done")}, ev.Fields(), "earlier effects are kept")
}

func TestMappingExecute_ExpressionErrorIsWrapped(t *testing.T) {
	m := New(NewAssignment(p("x"), query.NewPath(p("nope"))))

	err := m.Execute(event.New())
	require.Error(t, err)
	assert.Equal(t, "failed to apply mapping 0: path nope not found in event", err.Error())

	var se *StatementError
	assert.False(t, errors.As(err, &se))
}

func TestMappingNew_CopiesStatements(t *testing.T) {
	stmts := []Statement{NewAssignment(p("a"), lit(event.Integer(1)))}
	m := New(stmts...)
	stmts[0] = NewAssignment(p("b"), lit(event.Integer(2)))

	ev := event.New()
	require.NoError(t, m.Execute(ev))
	assert.Equal(t, event.Map{"a": event.Integer(1)}, ev.Fields())
	assert.Equal(t, 1, m.Len())
}

func TestMappingExecute_ConcurrentEvents(t *testing.T) {
	m := New(
		NewAssignment(p("nested.value"), lit(event.Map{"k": str("v")})),
		NewMerge(p("nested"), lit(event.Map{"extra": event.Integer(1)}), lit(event.Boolean(true))),
	)

	var wg sync.WaitGroup
	results := make([]*event.Event, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ev := event.New()
			if err := m.Execute(ev); err == nil {
				results[i] = ev
			}
		}(i)
	}
	wg.Wait()

	expected := event.Map{"nested": event.Map{"value": event.Map{"k": str("v")}, "extra": event.Integer(1)}}
	for _, ev := range results {
		require.NotNil(t, ev)
		assert.Equal(t, expected, ev.Fields())
	}
}

func TestAssignment(t *testing.T) {
	ev := event.FromMap(event.Map{"a": event.Map{"old": event.Integer(1)}, "sibling": str("x")})

	require.NoError(t, NewAssignment(p("a"), lit(event.Integer(2))).Apply(ev))
	assert.Equal(t, event.Map{"a": event.Integer(2), "sibling": str("x")}, ev.Fields())
}

func TestAssignment_NonValue(t *testing.T) {
	re, err := query.NewRegex("x")
	require.NoError(t, err)

	ev := event.New()
	err = NewAssignment(p("a"), re).Apply(ev)
	require.Error(t, err)
	assert.Equal(t, "assignment must be from a value", err.Error())
	assert.True(t, IsCode(err, ErrCodeExpressionType))
	assert.Empty(t, ev.Fields())
}

func TestDeletion_KeepsEmptyParents(t *testing.T) {
	ev := event.FromMap(event.Map{"a": event.Map{"b": event.Integer(1)}, "c": event.Integer(2)})

	require.NoError(t, NewDeletion(p("a.b"), p("not.there")).Apply(ev))
	assert.Equal(t, event.Map{"a": event.Map{}, "c": event.Integer(2)}, ev.Fields())
}

func TestIfStatement_NilBranchesAreNoop(t *testing.T) {
	ev := event.FromMap(event.Map{"x": event.Integer(1)})

	require.NoError(t, NewIfStatement(lit(event.Boolean(false)), nil, nil).Apply(ev))
	require.NoError(t, NewIfStatement(lit(event.Boolean(true)), nil, nil).Apply(ev))
	assert.Equal(t, event.Map{"x": event.Integer(1)}, ev.Fields())
}

func TestIfStatement_NonBooleanRunsNoBranch(t *testing.T) {
	thenRan, elseRan := 0, 0
	s := NewIfStatement(lit(str("true")), recorder{applied: &thenRan}, recorder{applied: &elseRan})

	err := s.Apply(event.New())
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeNonBooleanCondition))
	assert.Zero(t, thenRan)
	assert.Zero(t, elseRan)
}

func TestIfStatement_BranchErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	ran := 0
	s := NewIfStatement(lit(event.Boolean(true)), recorder{applied: &ran, fail: boom}, nil)

	err := New(s).Execute(event.New())
	require.Error(t, err)
	assert.Equal(t, "failed to apply mapping 0: boom", err.Error())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, ran)
}

func TestNoop(t *testing.T) {
	ev := event.FromMap(event.Map{"a": event.Integer(1)})
	require.NoError(t, Noop{}.Apply(ev))
	assert.Equal(t, event.Map{"a": event.Integer(1)}, ev.Fields())
}
