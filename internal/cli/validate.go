package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/objkernel/internal/registry"
)

// Problem is one load or validation error in CLI output.
type Problem struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool      `json:"valid"`
	Interfaces int       `json:"interfaces"`
	Classes    int       `json:"classes"`
	Errors     []Problem `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <decls-dir>",
		Short: "Validate user class declarations",
		Long: `Validate CUE class and interface declarations against the builtins.

Every declaration is compiled, merged over the builtin registry and checked
for unknown parents, inheritance cycles, missing interface methods, final
violations and duplicate members. All errors are reported.

Exit codes:
  0 - Declarations are valid
  1 - Declarations have errors
  2 - Command error (directory not found, no CUE files, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	res, problems, err := loadAndValidate(dir, formatter)
	if err != nil {
		return err
	}

	result := ValidationResult{Valid: len(problems) == 0, Errors: problems}
	if res != nil {
		result.Interfaces = len(res.User.Interfaces())
		result.Classes = len(res.User.Classes())
	}

	if len(problems) > 0 {
		return outputProblems(formatter, result, problems)
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ All declarations valid (%d interfaces, %d classes)\n", result.Interfaces, result.Classes)
	return nil
}

// loadAndValidate loads the declarations in dir and validates the merged
// registry. A non-nil error is a command error that has already been
// reported; problems are declaration errors.
func loadAndValidate(dir string, formatter *OutputFormatter) (*registry.LoadResult, []Problem, error) {
	res, loadErrs := registry.LoadDir(dir, nil, registry.LoadModeCollectAll)

	if res == nil && len(loadErrs) > 0 {
		var loadErr *registry.LoadError
		if errors.As(loadErrs[0], &loadErr) && isCommandError(loadErr.Code) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			return nil, nil, NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", loadErr.Code, loadErr.Message))
		}
	}

	var problems []Problem
	for _, err := range loadErrs {
		problems = append(problems, loadProblem(err))
	}

	if res != nil {
		formatter.VerboseLog("Found %d CUE file(s) in %s", res.FileCount, dir)
		for _, verr := range res.Merged.Validate() {
			problems = append(problems, Problem{Code: verr.Code, Field: verr.Field, Message: verr.Message})
		}
	}
	return res, problems, nil
}

// isCommandError reports whether a load error code means the input could
// not be read at all.
func isCommandError(code string) bool {
	switch code {
	case registry.ErrCodeNotFound, registry.ErrCodeNoFiles, registry.ErrCodeScanError:
		return true
	}
	return false
}

func loadProblem(err error) Problem {
	var loadErr *registry.LoadError
	if !errors.As(err, &loadErr) {
		return Problem{Code: registry.ErrCodeGeneric, Message: err.Error()}
	}
	p := Problem{Code: loadErr.Code, Message: loadErr.Message}
	if loadErr.Pos.IsValid() {
		p.File = filepath.Base(loadErr.Pos.Filename())
		p.Line = loadErr.Pos.Line()
	}
	return p
}

// outputProblems reports declaration errors and returns the failure exit.
func outputProblems(formatter *OutputFormatter, data any, problems []Problem) error {
	exit := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(problems)))

	if formatter.IsJSON() {
		if err := formatter.Failure(data, problems[0].Code, problems[0].Message); err != nil {
			return err
		}
		return exit
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, p := range problems {
		if p.File != "" {
			fmt.Fprintf(formatter.Writer, "%s:%d\n", p.File, p.Line)
		}
		if p.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s %s: %s\n\n", p.Code, p.Field, p.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", p.Code, p.Message)
		}
	}
	return exit
}
