package runner

import (
	"context"
	"fmt"

	"github.com/roach88/remap/internal/event"
	"github.com/roach88/remap/internal/mapping"
	"github.com/roach88/remap/internal/store"
)

// Mismatch is one recorded event whose replayed outcome differs.
type Mismatch struct {
	Seq      int64  `json:"seq"`
	Field    string `json:"field"` // "output" or "error"
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// ReplayReport is the outcome of replaying a run.
type ReplayReport struct {
	RunID          string     `json:"run_id"`
	Checked        int        `json:"checked"`
	MappingChanged bool       `json:"mapping_changed"`
	Mismatches     []Mismatch `json:"mismatches"`
}

// OK reports whether every replayed event matched its recording.
func (r ReplayReport) OK() bool {
	return len(r.Mismatches) == 0
}

// Replay re-executes every recorded input of runID with m and compares
// the output hash and error text against the recording. Inputs are
// re-parsed from the recorded raw line when one was kept.
//
// source is the program text of m; it only sets MappingChanged and does
// not affect the comparison. The store is never written to.
func Replay(ctx context.Context, st *store.Store, runID string, m *mapping.Mapping, source []byte) (ReplayReport, error) {
	report := ReplayReport{RunID: runID, Mismatches: []Mismatch{}}

	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		return report, fmt.Errorf("replay: %w", err)
	}
	report.MappingChanged = run.MappingHash != event.HashSource(source)

	results, err := st.ReadResults(ctx, runID)
	if err != nil {
		return report, fmt.Errorf("replay: %w", err)
	}

	for _, res := range results {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		ev, err := recordedInput(res)
		if err != nil {
			return report, fmt.Errorf("replay seq %d: %w", res.Seq, err)
		}
		errText := ""
		if err := m.Execute(ev); err != nil {
			errText = err.Error()
		}
		if _, err := outputJSON(ev); err != nil {
			errText = joinErrorText(errText, err.Error())
			ev = event.New()
		}

		hash, err := event.Hash(ev)
		if err != nil {
			return report, fmt.Errorf("replay seq %d: %w", res.Seq, err)
		}

		report.Checked++
		if hash != res.OutputHash {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Seq:      res.Seq,
				Field:    "output",
				Expected: res.OutputHash,
				Actual:   hash,
			})
		}
		if errText != res.Error {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Seq:      res.Seq,
				Field:    "error",
				Expected: res.Error,
				Actual:   errText,
			})
		}
	}

	return report, nil
}

// recordedInput returns a fresh copy of the event a result was computed from.
func recordedInput(res store.Result) (*event.Event, error) {
	if res.RawInput == nil {
		return res.Input.Clone(), nil
	}
	return event.ParseJSON(res.RawInput)
}
