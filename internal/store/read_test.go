package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/remap/internal/event"
)

func TestReadRun(t *testing.T) {
	s := createTestStore(t)
	written := createTestRun(t, s, "run-1")

	run, err := s.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, written, run)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestListRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	createTestRun(t, s, "zzz")
	createTestRun(t, s, "aaa")

	runs, err = s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "zzz", runs[0].ID, "runs are ordered by seq, not id")
	assert.Equal(t, "aaa", runs[1].ID)
}

func TestReadResults_OrderAndRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-1")

	third := createTestResult("run-1", 3, event.Map{"n": event.Integer(3)}, nil)
	first := createTestResult("run-1", 1, event.Map{
		"n":      event.Integer(1),
		"f":      event.Float(2.0),
		"nested": event.Map{"list": event.Array{event.Null{}, event.Boolean(true)}},
	}, event.Map{"tag": event.Bytes("x")})
	first.Error = "failed to apply mapping 0: boom"
	first.Dropped = true

	require.NoError(t, s.WriteResult(ctx, third))
	require.NoError(t, s.WriteResult(ctx, first))

	results, err := s.ReadResults(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, int64(1), results[0].Seq)
	assert.Equal(t, int64(3), results[1].Seq)

	assert.True(t, first.Input.Equal(results[0].Input))
	assert.True(t, first.Output.Equal(results[0].Output))
	assert.Equal(t, "failed to apply mapping 0: boom", results[0].Error)
	assert.True(t, results[0].Dropped)
	assert.False(t, results[1].Dropped)
	assert.Empty(t, results[1].Error)
}

func TestReadResults_EmptyRun(t *testing.T) {
	s := createTestStore(t)
	createTestRun(t, s, "run-1")

	results, err := s.ReadResults(context.Background(), "run-1")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestReadFailedResults(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-1")

	ok := createTestResult("run-1", 1, event.Map{}, nil)
	bad := createTestResult("run-1", 2, event.Map{}, nil)
	bad.Error = "failed to apply mapping 2: query returned non-boolean value"
	require.NoError(t, s.WriteResult(ctx, ok))
	require.NoError(t, s.WriteResult(ctx, bad))

	results, err := s.ReadFailedResults(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].Seq)
}

func TestReadResultsWhere(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-1")

	inputs := []event.Map{
		{"user": event.Map{"name": event.Bytes("ada")}, "tags": event.Array{event.Bytes("a")}},
		{"user": event.Map{"name": event.Bytes("bob")}, "tags": event.Array{event.Bytes("b")}},
		{"user": event.Map{"name": event.Bytes("ada")}, "count": event.Integer(7)},
	}
	for i, in := range inputs {
		require.NoError(t, s.WriteResult(ctx, createTestResult("run-1", int64(i+1), in, nil)))
	}

	tests := []struct {
		name     string
		filter   Filter
		expected []int64
	}{
		{"nested string", Filter{Path: "user.name", Value: "ada"}, []int64{1, 3}},
		{"array index", Filter{Path: "tags.0", Value: "b"}, []int64{2}},
		{"number", Filter{Path: "count", Value: "7"}, []int64{3}},
		{"missing path", Filter{Path: "nope", Value: ""}, nil},
		{"no match", Filter{Path: "user.name", Value: "eve"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := s.ReadResultsWhere(ctx, "run-1", tt.filter)
			require.NoError(t, err)

			var seqs []int64
			for _, r := range results {
				seqs = append(seqs, r.Seq)
			}
			assert.Equal(t, tt.expected, seqs)
		})
	}
}
