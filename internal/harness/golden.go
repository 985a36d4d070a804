package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/remap/internal/event"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// It is serialized with canonical JSON for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string
	RunID        string
	Trace        []TraceEvent
}

// toValue converts the snapshot to an event value so it can go through
// event.MarshalCanonical.
func (s *TraceSnapshot) toValue() event.Map {
	trace := make(event.Array, len(s.Trace))
	for i, te := range s.Trace {
		entry := event.Map{
			"case": event.Bytes(te.Case),
			"seq":  event.Integer(te.Seq),
		}
		if te.Input != nil {
			entry["input"] = te.Input.Fields()
		}
		if te.Output != nil {
			entry["output"] = te.Output.Fields()
		}
		if te.Error != "" {
			entry["error"] = event.Bytes(te.Error)
		}
		if te.Dropped {
			entry["dropped"] = event.Boolean(true)
		}
		trace[i] = entry
	}

	snapshot := event.Map{
		"scenario_name": event.Bytes(s.ScenarioName),
		"trace":         trace,
	}
	if s.RunID != "" {
		snapshot["run_id"] = event.Bytes(s.RunID)
	}
	return snapshot
}

// MarshalSnapshot renders the snapshot as canonical JSON.
func (s *TraceSnapshot) MarshalSnapshot() ([]byte, error) {
	return event.MarshalCanonical(s.toValue())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		RunID:        result.RunID,
		Trace:        result.Trace,
	}
	traceJSON, err := snapshot.MarshalSnapshot()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
