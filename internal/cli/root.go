package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/remap/internal/mapping"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	LogLevel string // "" | "trace" | "debug" | "info" | "warn" | "error"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the remap CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "remap",
		Short: "remap - transform event streams with mapping programs",
		Long: `Apply CUE mapping programs to newline-delimited JSON events.

Every run can be recorded to SQLite so it can be listed, filtered and
replayed against a changed program later.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			level, err := opts.slogLevel()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --log-level", err)
			}
			installLogger(cmd.ErrOrStderr(), level)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (trace|debug|info|warn|error)")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// slogLevel resolves the handler level. An explicit --log-level wins over
// --verbose.
func (o *RootOptions) slogLevel() (slog.Level, error) {
	if o.LogLevel != "" {
		l, err := mapping.ParseLogLevel(o.LogLevel)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", err, o.LogLevel)
		}
		return l.SlogLevel(), nil
	}
	if o.Verbose {
		return slog.LevelDebug, nil
	}
	return slog.LevelInfo, nil
}

// installLogger makes a text handler on w the process default. Log
// statements in mapping programs write through it.
func installLogger(w io.Writer, level slog.Level) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if l, ok := a.Value.Any().(slog.Level); ok && l == mapping.LevelTrace {
					return slog.String(slog.LevelKey, "TRACE")
				}
			}
			return a
		},
	})
	slog.SetDefault(slog.New(handler))
}
