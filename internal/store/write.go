package store

import (
	"context"
	"fmt"

	"github.com/roach88/remap/internal/event"
)

// Run describes one execution of a mapping over an event stream.
type Run struct {
	ID            string
	Seq           int64 // assigned by WriteRun
	MappingHash   string
	MappingSource string
}

// Result is the recorded outcome of one event within a run.
type Result struct {
	RunID      string
	Seq        int64
	Input      *event.Event
	RawInput   []byte // input line as read, nil when not kept
	InputHash  string
	Output     *event.Event
	OutputHash string
	Error      string // empty on success
	Dropped    bool   // output was not emitted
}

// WriteRun inserts a run record and returns it with its assigned seq.
// Run seqs increase monotonically within a database.
func (s *Store) WriteRun(ctx context.Context, run Run) (Run, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO runs (id, seq, mapping_hash, mapping_source)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs), ?, ?)
		RETURNING seq
	`,
		run.ID,
		run.MappingHash,
		run.MappingSource,
	).Scan(&run.Seq)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	return run, nil
}

// WriteResult inserts a result record. Input and output are stored as
// zstd-compressed canonical JSON and their hashes are filled in.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteResult(ctx context.Context, res Result) error {
	if res.Input == nil || res.Output == nil {
		return fmt.Errorf("write result: input and output are required")
	}

	input, inputHash, err := s.marshalEvent(res.Input)
	if err != nil {
		return fmt.Errorf("write result: input: %w", err)
	}
	output, outputHash, err := s.marshalEvent(res.Output)
	if err != nil {
		return fmt.Errorf("write result: output: %w", err)
	}
	var raw []byte
	if res.RawInput != nil {
		raw = s.encoder.EncodeAll(res.RawInput, nil)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results
		(run_id, seq, input, raw_input, input_hash, output, output_hash, error, dropped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		res.RunID,
		res.Seq,
		input,
		raw,
		inputHash,
		output,
		outputHash,
		res.Error,
		res.Dropped,
	)
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	return nil
}
