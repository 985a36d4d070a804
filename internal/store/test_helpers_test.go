package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/roach88/remap/internal/event"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun writes a run with minimal required fields.
func createTestRun(t *testing.T, s *Store, id string) Run {
	t.Helper()
	run, err := s.WriteRun(context.Background(), Run{
		ID:            id,
		MappingHash:   "test-hash",
		MappingSource: "mapping: []",
	})
	if err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	return run
}

// createTestResult builds a result whose output is the input plus extra.
func createTestResult(runID string, seq int64, input event.Map, extra event.Map) Result {
	output := input.Clone()
	for k, v := range extra {
		output[k] = v
	}
	return Result{
		RunID:  runID,
		Seq:    seq,
		Input:  event.FromMap(input),
		Output: event.FromMap(output),
	}
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ?", table)
	if err != nil {
		t.Fatalf("failed to query indexes: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		names = append(names, name)
	}
	return names
}
