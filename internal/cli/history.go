package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/remap/internal/event"
	"github.com/roach88/remap/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Where    string // path=value, gjson path syntax
	Failed   bool
}

// RunSummary is one recorded run.
type RunSummary struct {
	ID          string `json:"id"`
	Seq         int64  `json:"seq"`
	MappingHash string `json:"mapping_hash"`
}

// ResultEntry is one recorded event of a run.
type ResultEntry struct {
	Seq     int64        `json:"seq"`
	Input   *event.Event `json:"input"`
	Output  *event.Event `json:"output"`
	Error   string       `json:"error,omitempty"`
	Dropped bool         `json:"dropped,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs and their results",
		Long: `Inspect the runs recorded with "run --db".

Without a run ID every run is listed. With a run ID the run's events are
listed in order. --where keeps events whose output holds a value at a
path (gjson syntax, e.g. user.name=ada or tags.0=x) and --failed keeps
events whose mapping failed.

Examples:
  remap history --db ./remap.db
  remap history --db ./remap.db 0190b7a2-...
  remap history --db ./remap.db --where status=error --failed 0190b7a2-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runListRuns(opts, cmd)
			}
			return runListResults(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Where, "where", "", "filter results by output path=value")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "only show results whose mapping failed")

	return cmd
}

func runListRuns(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := historyFormatter(opts, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(commandContext(cmd))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	summaries := make([]RunSummary, len(runs))
	for i, run := range runs {
		summaries[i] = RunSummary{ID: run.ID, Seq: run.Seq, MappingHash: run.MappingHash}
	}

	if formatter.IsJSON() {
		return formatter.Success(summaries)
	}

	w := formatter.Writer
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(w, "%4d  %s  mapping %s\n", s.Seq, s.ID, shortHash(s.MappingHash))
	}
	return nil
}

func runListResults(opts *HistoryOptions, runID string, cmd *cobra.Command) error {
	formatter := historyFormatter(opts, cmd)
	ctx := commandContext(cmd)

	var filter *store.Filter
	if opts.Where != "" {
		f, err := parseWhere(opts.Where)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --where", err)
		}
		filter = &f
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if _, err := st.ReadRun(ctx, runID); err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", runID))
		}
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	var results []store.Result
	switch {
	case filter != nil:
		results, err = st.ReadResultsWhere(ctx, runID, *filter)
	case opts.Failed:
		results, err = st.ReadFailedResults(ctx, runID)
	default:
		results, err = st.ReadResults(ctx, runID)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read results", err)
	}

	entries := make([]ResultEntry, 0, len(results))
	for _, res := range results {
		if opts.Failed && res.Error == "" {
			continue
		}
		entries = append(entries, ResultEntry{
			Seq:     res.Seq,
			Input:   res.Input,
			Output:  res.Output,
			Error:   res.Error,
			Dropped: res.Dropped,
		})
	}
	formatter.VerboseLog("%d of %d result(s) selected", len(entries), len(results))

	if formatter.IsJSON() {
		return formatter.Success(entries)
	}
	return outputResultsText(formatter, entries)
}

func outputResultsText(formatter *OutputFormatter, entries []ResultEntry) error {
	w := formatter.Writer
	if len(entries) == 0 {
		fmt.Fprintln(w, "No results.")
		return nil
	}

	for _, e := range entries {
		output, err := e.Output.MarshalJSON()
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to encode result %d", e.Seq), err)
		}

		status := "✓"
		if e.Error != "" {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %4d  %s\n", status, e.Seq, output)
		if e.Error != "" {
			fmt.Fprintf(w, "       error: %s\n", e.Error)
		}
		if e.Dropped {
			fmt.Fprintln(w, "       dropped")
		}
		if formatter.Verbose {
			input, err := e.Input.MarshalJSON()
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("failed to encode result %d", e.Seq), err)
			}
			fmt.Fprintf(w, "       input: %s\n", input)
		}
	}
	return nil
}

// parseWhere splits "path=value" at the first '='.
func parseWhere(s string) (store.Filter, error) {
	path, value, ok := strings.Cut(s, "=")
	if !ok || path == "" {
		return store.Filter{}, fmt.Errorf("expected path=value, got %q", s)
	}
	return store.Filter{Path: path, Value: value}, nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func historyFormatter(opts *HistoryOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
