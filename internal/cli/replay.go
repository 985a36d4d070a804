package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/remap/internal/compiler"
	"github.com/roach88/remap/internal/runner"
	"github.com/roach88/remap/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Mapping  string // optional - defaults to the recorded program
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <run-id>",
		Short: "Re-run recorded inputs and compare outcomes",
		Long: `Replay a recorded run and verify its outcomes.

Every recorded input event is mapped again and the output hash and error
text are compared with what was recorded. Without --mapping the program
stored with the run is used, which checks determinism. With --mapping a
changed program can be checked against past traffic.

Exit codes:
  0 - All events match the recording
  1 - One or more events differ
  2 - Command error (database or run not found, etc.)

Examples:
  remap replay --db ./remap.db 0190b7a2-...
  remap replay --db ./remap.db --mapping ./mapping.cue 0190b7a2-...
  remap replay --db ./remap.db --format json 0190b7a2-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Mapping, "mapping", "", "mapping program to replay with")

	return cmd
}

func runReplay(opts *ReplayOptions, runID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx := commandContext(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, store.ErrRunNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", runID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	var loaded *LoadResult
	if opts.Mapping != "" {
		loaded, err = LoadMapping(opts.Mapping)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load mapping", err)
		}
	} else {
		source := []byte(run.MappingSource)
		m, err := compiler.CompileSource(fmt.Sprintf("run-%d.cue", run.Seq), source)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to compile recorded mapping", err)
		}
		loaded = &LoadResult{Mapping: m, Source: source}
	}
	formatter.VerboseLog("Replaying run %s with %d statement(s)", runID, loaded.Mapping.Len())

	report, err := runner.Replay(ctx, st, runID, loaded.Mapping, loaded.Source)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	if formatter.IsJSON() {
		return outputReplayJSON(formatter, report)
	}
	return outputReplayText(formatter, report)
}

// outputReplayJSON outputs the replay report as JSON.
func outputReplayJSON(formatter *OutputFormatter, report runner.ReplayReport) error {
	if report.OK() {
		return formatter.Success(report)
	}

	message := fmt.Sprintf("%d mismatch(es) in run %s", len(report.Mismatches), report.RunID)
	if err := formatter.Failure(ErrCodeReplay, message, report); err != nil {
		return err
	}
	return NewExitError(ExitFailure, message)
}

// outputReplayText outputs the replay report as text.
func outputReplayText(formatter *OutputFormatter, report runner.ReplayReport) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Replay Summary: run %s, %d event(s)\n", report.RunID, report.Checked)
	if report.MappingChanged {
		fmt.Fprintln(w, "  Mapping differs from the recorded program")
	}

	for _, m := range report.Mismatches {
		fmt.Fprintf(w, "✗ seq %d: %s differs\n", m.Seq, m.Field)
		if formatter.Verbose || m.Field == "error" {
			fmt.Fprintf(w, "  Expected: %q\n", m.Expected)
			fmt.Fprintf(w, "  Actual: %q\n", m.Actual)
		}
	}

	if report.OK() {
		fmt.Fprintln(w, "✓ All events match the recording")
		return nil
	}

	fmt.Fprintln(w, "✗ Replay differs from the recording")
	return NewExitError(ExitFailure, fmt.Sprintf("%d mismatch(es) in run %s", len(report.Mismatches), report.RunID))
}
