package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/remap/internal/runner"
	"github.com/roach88/remap/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Input       string // "-" is stdin
	Output      string // "-" is stdout
	Database    string // optional
	DropOnError bool

	// RunIDGenerator allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDGenerator runner.RunIDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <mapping>",
		Short: "Apply a mapping to an NDJSON event stream",
		Long: `Apply a mapping program to newline-delimited JSON events.

Each input line must be a JSON object. The mapping runs on every event in
order and the result is written as one JSON line. When a statement fails
the error is logged and the partially mapped event is still written,
unless --drop-on-error is set.

With --db the run and every event's input, output and error are recorded
so they can be inspected with "history" and checked with "replay".

Example:
  remap run mapping.cue < events.ndjson
  remap run ./mappings --input events.ndjson --output out.ndjson --db ./remap.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMapping(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "-", "input NDJSON file (- for stdin)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "-", "output NDJSON file (- for stdout)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.DropOnError, "drop-on-error", false, "drop events whose mapping fails")

	return cmd
}

func runMapping(opts *RunOptions, mappingPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.ErrOrStderr(), // stdout carries events
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loaded, err := LoadMapping(mappingPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load mapping", err)
	}
	formatter.VerboseLog("Compiled %d statement(s) from %d file(s)", loaded.Mapping.Len(), len(loaded.Files))

	in, closeIn, err := openInput(opts.Input, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open input", err)
	}
	defer closeIn()

	out, closeOut, err := openOutput(opts.Output, cmd.OutOrStdout())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open output", err)
	}

	runOpts := []runner.Option{
		runner.WithDropOnError(opts.DropOnError),
		runner.WithLogger(slog.Default()),
	}
	if opts.RunIDGenerator != nil {
		runOpts = append(runOpts, runner.WithRunIDGenerator(opts.RunIDGenerator))
	}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			closeOut()
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		runOpts = append(runOpts, runner.WithStore(st))
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	r := runner.New(loaded.Mapping, loaded.Source, runOpts...)
	summary, err := r.Process(ctx, in, out)
	if closeErr := closeOut(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "run failed", err)
	}

	if formatter.IsJSON() {
		return formatter.Success(summary)
	}
	formatter.VerboseLog("Run %s: %d processed, %d failed, %d dropped",
		summary.RunID, summary.Processed, summary.Failed, summary.Dropped)
	return nil
}

// signalContext cancels on SIGINT/SIGTERM. A nil parent means Background.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
