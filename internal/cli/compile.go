package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <decls-dir>",
		Short: "Compile user declarations to JSON descriptors",
		Long: `Compile CUE class and interface declarations to JSON descriptors.

Declarations are validated against the builtins first; nothing is written
when any error is found.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	res, problems, err := loadAndValidate(dir, formatter)
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		return outputProblems(formatter, ValidationResult{Valid: false, Errors: problems}, problems)
	}

	decls := describe(res.User, "")

	if opts.Output != "" {
		data, err := json.MarshalIndent(decls, "", "  ")
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to marshal declarations", err)
		}
		if err := os.WriteFile(opts.Output, append(data, '\n'), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
	}

	if formatter.IsJSON() {
		return formatter.Success(decls)
	}
	if opts.Output == "" {
		writeDeclarationList(formatter.Writer, decls)
	}
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d interfaces, %d classes\n", len(decls.Interfaces), len(decls.Classes))
	return nil
}
