package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool     `json:"valid"`
	Statements int      `json:"statements"`
	Files      []string `json:"files"`
}

// ValidationDetail locates a rejected program construct.
type ValidationDetail struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <mapping>",
		Short: "Check that a mapping program compiles",
		Long: `Compile a mapping program without running it.

The argument is a .cue file or a directory holding one CUE package.

Exit codes:
  0 - Program is valid
  1 - Program was rejected by the compiler
  2 - Command error (path not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, mappingPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loaded, err := LoadMapping(mappingPath)
	if err != nil {
		return outputValidateError(formatter, err)
	}

	formatter.VerboseLog("Loaded %d file(s) from %s", len(loaded.Files), mappingPath)

	result := ValidationResult{
		Valid:      true,
		Statements: loaded.Mapping.Len(),
		Files:      loaded.Files,
	}
	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("✓ Mapping valid: %d statement(s)", result.Statements))
}

// outputValidateError reports a load or compile failure. Compile errors
// exit with ExitFailure, everything else with ExitCommandError.
func outputValidateError(formatter *OutputFormatter, err error) error {
	code := loadErrorCode(err)

	var details any
	message := err.Error()
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		message = loadErr.Message
		if loadErr.Pos.IsValid() {
			details = &ValidationDetail{
				File:   loadErr.Pos.Filename(),
				Line:   loadErr.Pos.Line(),
				Column: loadErr.Pos.Column(),
			}
		}
	}

	if formatter.IsJSON() {
		_ = formatter.Error(code, message, details)
	} else {
		fmt.Fprintf(formatter.Writer, "✗ %s\n", err)
	}

	if code == ErrCodeCompile {
		return WrapExitError(ExitFailure, "validation failed", err)
	}
	return WrapExitError(ExitCommandError, "validation failed", err)
}
