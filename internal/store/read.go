package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrRunNotFound is returned when a run ID has no record.
var ErrRunNotFound = errors.New("run not found")

// ReadRun returns a single run by ID.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, mapping_hash, mapping_source
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Seq, &run.MappingHash, &run.MappingSource)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns every run in seq order.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, mapping_hash, mapping_source
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Seq, &run.MappingHash, &run.MappingSource); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadResults returns all results of a run in seq order.
//
// Returns an empty slice (not nil) if the run has no results.
func (s *Store) ReadResults(ctx context.Context, runID string) ([]Result, error) {
	return s.readResults(ctx, runID, nil)
}

// ReadFailedResults returns the results of a run whose mapping failed.
func (s *Store) ReadFailedResults(ctx context.Context, runID string) ([]Result, error) {
	return s.readResultsQuery(ctx, `
		SELECT run_id, seq, input, raw_input, input_hash, output, output_hash, error, dropped
		FROM results
		WHERE run_id = ? AND error != ''
		ORDER BY seq ASC, run_id COLLATE BINARY ASC
	`, runID, nil)
}

// Filter selects results whose stored output has Value at a gjson Path.
//
// Path uses gjson syntax (e.g. "user.name", "tags.0"). A result matches
// when the path exists and its string form equals Value.
type Filter struct {
	Path  string
	Value string
}

func (f Filter) match(output []byte) bool {
	r := gjson.GetBytes(output, f.Path)
	return r.Exists() && r.String() == f.Value
}

// ReadResultsWhere returns the results of a run whose output matches f.
func (s *Store) ReadResultsWhere(ctx context.Context, runID string, f Filter) ([]Result, error) {
	return s.readResults(ctx, runID, &f)
}

func (s *Store) readResults(ctx context.Context, runID string, f *Filter) ([]Result, error) {
	return s.readResultsQuery(ctx, `
		SELECT run_id, seq, input, raw_input, input_hash, output, output_hash, error, dropped
		FROM results
		WHERE run_id = ?
		ORDER BY seq ASC, run_id COLLATE BINARY ASC
	`, runID, f)
}

func (s *Store) readResultsQuery(ctx context.Context, query, runID string, f *Filter) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var (
			res    Result
			input  []byte
			raw    []byte
			output []byte
		)
		if err := rows.Scan(&res.RunID, &res.Seq, &input, &raw, &res.InputHash, &output, &res.OutputHash, &res.Error, &res.Dropped); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}

		outputJSON, err := s.decompress(output)
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", res.Seq, err)
		}
		if f != nil && !f.match(outputJSON) {
			continue
		}

		if res.Input, err = s.unmarshalEvent(input); err != nil {
			return nil, fmt.Errorf("result %d input: %w", res.Seq, err)
		}
		if raw != nil {
			if res.RawInput, err = s.decompress(raw); err != nil {
				return nil, fmt.Errorf("result %d raw input: %w", res.Seq, err)
			}
		}
		if res.Output, err = parseEvent(outputJSON); err != nil {
			return nil, fmt.Errorf("result %d output: %w", res.Seq, err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}
