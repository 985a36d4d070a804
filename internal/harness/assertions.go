package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/remap/internal/event"
)

// Assertion types.
const (
	AssertError  = "error"
	AssertEvent  = "event"
	AssertField  = "field"
	AssertAbsent = "absent"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Case     string // Case the assertion belongs to
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s (case %s)\n", e.Type, e.Case)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateCase checks a recorded case against its expectations and
// returns one message per failed assertion.
func EvaluateCase(c Case, trace TraceEvent) []string {
	var failures []string
	fail := func(err error) {
		failures = append(failures, err.Error())
	}

	expectedErr := ""
	if c.Expect != nil && c.Expect.Error != nil {
		expectedErr = *c.Expect.Error
	}
	if trace.Error != expectedErr {
		fail(&AssertionError{
			Type:     AssertError,
			Case:     c.Name,
			Expected: describeError(expectedErr),
			Actual:   describeError(trace.Error),
		})
	}

	if c.Expect == nil {
		return failures
	}

	if c.Expect.Event != nil {
		if err := assertEvent(c.Name, c.Expect.Event, trace.Output); err != nil {
			fail(err)
		}
	}

	paths := make([]string, 0, len(c.Expect.Fields))
	for p := range c.Expect.Fields {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	for _, p := range paths {
		if err := assertField(c.Name, p, c.Expect.Fields[p], trace.Output); err != nil {
			fail(err)
		}
	}

	for _, p := range c.Expect.Absent {
		if err := assertAbsent(c.Name, p, trace.Output); err != nil {
			fail(err)
		}
	}

	return failures
}

// assertEvent checks the output equals expected exactly.
func assertEvent(caseName string, expected map[string]any, output *event.Event) error {
	want, err := event.FromAny(expected)
	if err != nil {
		return &AssertionError{Type: AssertEvent, Case: caseName, Expected: "valid event", Actual: err.Error()}
	}
	if event.Equal(want, output.Fields()) {
		return nil
	}
	return &AssertionError{
		Type:     AssertEvent,
		Case:     caseName,
		Expected: render(want),
		Actual:   render(output.Fields()),
	}
}

// assertField checks the output holds value at path.
func assertField(caseName, path string, value any, output *event.Event) error {
	p, err := event.ParsePath(path)
	if err != nil {
		return &AssertionError{Type: AssertField, Case: caseName, Expected: "valid path", Actual: err.Error()}
	}
	want, err := event.FromAny(value)
	if err != nil {
		return &AssertionError{Type: AssertField, Case: caseName, Expected: "valid value", Actual: err.Error()}
	}

	got, ok := output.Get(p)
	if !ok {
		return &AssertionError{
			Type:     AssertField,
			Case:     caseName,
			Expected: fmt.Sprintf("%s = %s", path, render(want)),
			Actual:   fmt.Sprintf("%s not present", path),
		}
	}
	if !event.Equal(want, got) {
		return &AssertionError{
			Type:     AssertField,
			Case:     caseName,
			Expected: fmt.Sprintf("%s = %s", path, render(want)),
			Actual:   fmt.Sprintf("%s = %s", path, render(got)),
		}
	}
	return nil
}

// assertAbsent checks the output has nothing at path.
func assertAbsent(caseName, path string, output *event.Event) error {
	p, err := event.ParsePath(path)
	if err != nil {
		return &AssertionError{Type: AssertAbsent, Case: caseName, Expected: "valid path", Actual: err.Error()}
	}
	if got, ok := output.Get(p); ok {
		return &AssertionError{
			Type:     AssertAbsent,
			Case:     caseName,
			Expected: fmt.Sprintf("%s not present", path),
			Actual:   fmt.Sprintf("%s = %s", path, render(got)),
		}
	}
	return nil
}

func describeError(msg string) string {
	if msg == "" {
		return "no error"
	}
	return fmt.Sprintf("%q", msg)
}

// render shows a value as canonical JSON, falling back to Go syntax.
func render(v event.Value) string {
	data, err := event.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(data)
}
