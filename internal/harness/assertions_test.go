package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/remap/internal/testutil"
)

func strPtr(s string) *string { return &s }

func TestEvaluateCase(t *testing.T) {
	output := `{"user":{"name":"ada","roles":["admin"]},"count":2,"ratio":0.5}`

	tests := []struct {
		name     string
		expect   *ExpectClause
		errText  string
		failures []string // substrings, one per expected failure
	}{
		{
			name: "no expectations on success",
		},
		{
			name:     "no expectations on failure",
			errText:  "failed to apply mapping 0: boom",
			failures: []string{`Expected: no error`},
		},
		{
			name:    "expected error matches",
			expect:  &ExpectClause{Error: strPtr("failed to apply mapping 0: boom")},
			errText: "failed to apply mapping 0: boom",
		},
		{
			name:     "expected error differs",
			expect:   &ExpectClause{Error: strPtr("other")},
			errText:  "failed to apply mapping 0: boom",
			failures: []string{`Actual: "failed to apply mapping 0: boom"`},
		},
		{
			name: "exact event",
			expect: &ExpectClause{Event: map[string]any{
				"user":  map[string]any{"name": "ada", "roles": []any{"admin"}},
				"count": 2,
				"ratio": 0.5,
			}},
		},
		{
			name:     "event with extra field",
			expect:   &ExpectClause{Event: map[string]any{"count": 2}},
			failures: []string{"Assertion failed: event"},
		},
		{
			name: "fields subset",
			expect: &ExpectClause{Fields: map[string]any{
				"user.name":     "ada",
				"user.roles[0]": "admin",
				"count":         2,
			}},
		},
		{
			name:     "field wrong value",
			expect:   &ExpectClause{Fields: map[string]any{"count": 3}},
			failures: []string{"Actual: count = 2"},
		},
		{
			name:     "field integer is not float",
			expect:   &ExpectClause{Fields: map[string]any{"count": 2.0}},
			failures: []string{"Expected: count = 2.0"},
		},
		{
			name:     "field missing",
			expect:   &ExpectClause{Fields: map[string]any{"user.email": "x"}},
			failures: []string{"Actual: user.email not present"},
		},
		{
			name:     "field invalid path",
			expect:   &ExpectClause{Fields: map[string]any{"a..b": 1}},
			failures: []string{"Expected: valid path"},
		},
		{
			name:   "absent holds",
			expect: &ExpectClause{Absent: []string{"password", "user.email"}},
		},
		{
			name:     "absent violated",
			expect:   &ExpectClause{Absent: []string{"user.name"}},
			failures: []string{`Actual: user.name = "ada"`},
		},
		{
			name: "failures are reported in order",
			expect: &ExpectClause{
				Fields: map[string]any{"b": 1, "a": 1},
				Absent: []string{"count"},
			},
			failures: []string{"a not present", "b not present", "count = 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Case{Name: "c", Input: map[string]any{}, Expect: tt.expect}
			trace := TraceEvent{
				Case:   "c",
				Seq:    1,
				Output: testutil.MustEvent(t, output),
				Error:  tt.errText,
			}

			failures := EvaluateCase(c, trace)
			require.Len(t, failures, len(tt.failures), "failures: %v", failures)
			for i, want := range tt.failures {
				assert.Contains(t, failures[i], want)
				assert.Contains(t, failures[i], "(case c)")
			}
		})
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertField,
		Case:     "example",
		Expected: "a = 1",
		Actual:   "a = 2",
	}

	assert.Equal(t, "Assertion failed: field (case example)\n  Expected: a = 1\n  Actual: a = 2", err.Error())
}
