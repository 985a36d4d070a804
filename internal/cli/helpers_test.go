package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/remap/internal/store"
)

// tagMapping tags every event and removes a boolean "flag" field when it
// is true. A non-boolean flag makes statement 1 fail.
const tagMapping = `
mapping: [
	{assign: {path: "tagged", value: true}},
	{"if": {condition: {path: "flag"}, then: {delete: ["flag"]}}},
]
`

const tagInput = `{"flag":true,"a":1}

{"flag":"x"}
`

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and stdin, returning stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// recordRun runs tagMapping over tagInput into a new database and returns
// the database path and the run ID.
func recordRun(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	mappingPath := writeFile(t, dir, "tag.cue", tagMapping)
	dbPath := filepath.Join(dir, "remap.db")

	_, _, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), tagInput, "--db", dbPath, mappingPath)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)

	return dbPath, runs[0].ID
}
