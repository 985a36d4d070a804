package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/remap/internal/compiler"
	"github.com/roach88/remap/internal/event"
	"github.com/roach88/remap/internal/mapping"
	"github.com/roach88/remap/internal/runner"
	"github.com/roach88/remap/internal/store"
	"github.com/roach88/remap/internal/testutil"
)

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
//  1. Compile the scenario's mapping program
//  2. Encode the case inputs as an NDJSON stream
//  3. Process the stream with a runner recording into the store
//  4. Read the recorded results back and evaluate each case's expectations
func Run(scenario *Scenario) (*Result, error) {
	m, source, err := loadProgram(scenario)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	input, err := encodeInputs(scenario.Cases)
	if err != nil {
		return nil, err
	}

	r := runner.New(m, source,
		runner.WithStore(st),
		runner.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(scenario.RunID)),
		runner.WithDropOnError(scenario.DropOnError),
		runner.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	)

	ctx := context.Background()
	summary, err := r.Process(ctx, bytes.NewReader(input), io.Discard)
	if err != nil {
		return nil, fmt.Errorf("failed to run cases: %w", err)
	}

	recorded, err := st.ReadResults(ctx, summary.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	if len(recorded) != len(scenario.Cases) {
		return nil, fmt.Errorf("recorded %d results for %d cases", len(recorded), len(scenario.Cases))
	}

	result := NewResult()
	result.RunID = summary.RunID
	for i, c := range scenario.Cases {
		rec := recorded[i]
		trace := TraceEvent{
			Case:    c.Name,
			Seq:     rec.Seq,
			Input:   rec.Input,
			Output:  rec.Output,
			Error:   rec.Error,
			Dropped: rec.Dropped,
		}
		result.Trace = append(result.Trace, trace)

		for _, failure := range EvaluateCase(c, trace) {
			result.AddError(failure)
		}
	}

	return result, nil
}

// loadProgram compiles the scenario's mapping and returns its source.
func loadProgram(scenario *Scenario) (*mapping.Mapping, []byte, error) {
	filename := scenario.Name + ".cue"
	source := []byte(scenario.Program)
	if scenario.Mapping != "" {
		data, err := os.ReadFile(scenario.Mapping)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read mapping: %w", err)
		}
		filename, source = scenario.Mapping, data
	}

	m, err := compiler.CompileSource(filename, source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compile mapping: %w", err)
	}
	return m, source, nil
}

// encodeInputs renders the case inputs as one JSON object per line.
func encodeInputs(cases []Case) ([]byte, error) {
	var buf bytes.Buffer
	for i, c := range cases {
		v, err := event.FromAny(c.Input)
		if err != nil {
			return nil, fmt.Errorf("cases[%d] input: %w", i, err)
		}
		data, err := event.MarshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("cases[%d] input: %w", i, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
