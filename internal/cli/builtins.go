package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/objkernel/internal/registry"
)

// BuiltinsOptions holds flags for the builtins command.
type BuiltinsOptions struct {
	*RootOptions
	Kind string // "", "interface" or "class"
}

// Declarations lists compiled declarations in registration order.
type Declarations struct {
	Interfaces []*registry.InterfaceSpec `json:"interfaces"`
	Classes    []*registry.ClassSpec     `json:"classes"`
}

// NewBuiltinsCommand creates the builtins command.
func NewBuiltinsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuiltinsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "builtins [name]",
		Short: "List builtin interfaces and classes",
		Long: `List the builtin interface and class declarations of the kernel.

With a name, print that declaration with its members.

Examples:
  objkernel builtins
  objkernel builtins --kind interface
  objkernel builtins Exception
  objkernel builtins --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runBuiltins(opts, name, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only list one kind (interface|class)")

	return cmd
}

func runBuiltins(opts *BuiltinsOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	reg := registry.Builtins()

	if opts.Kind != "" && opts.Kind != registry.KindInterface.String() && opts.Kind != registry.KindClass.String() {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid kind %q: must be interface or class", opts.Kind))
	}

	if name != "" {
		return showDeclaration(formatter, reg, name)
	}

	decls := describe(reg, opts.Kind)
	if formatter.IsJSON() {
		return formatter.Success(decls)
	}
	writeDeclarationList(formatter.Writer, decls)
	return nil
}

// describe collects the declarations of reg, optionally of one kind.
func describe(reg *registry.Registry, kind string) Declarations {
	decls := Declarations{
		Interfaces: []*registry.InterfaceSpec{},
		Classes:    []*registry.ClassSpec{},
	}
	if kind == "" || kind == registry.KindInterface.String() {
		decls.Interfaces = append(decls.Interfaces, reg.Interfaces()...)
	}
	if kind == "" || kind == registry.KindClass.String() {
		decls.Classes = append(decls.Classes, reg.Classes()...)
	}
	return decls
}

func showDeclaration(formatter *OutputFormatter, reg *registry.Registry, name string) error {
	switch reg.KindOf(name) {
	case registry.KindInterface:
		spec, _ := reg.Interface(name)
		if formatter.IsJSON() {
			return formatter.Success(spec)
		}
		fmt.Fprintln(formatter.Writer, interfaceHeader(spec))
		writeMethods(formatter.Writer, spec.Methods)
		return nil
	case registry.KindClass:
		spec, _ := reg.Class(name)
		if formatter.IsJSON() {
			return formatter.Success(spec)
		}
		fmt.Fprintln(formatter.Writer, classHeader(spec))
		for _, p := range spec.Properties {
			fmt.Fprintf(formatter.Writer, "  %s\n", propertySignature(p))
		}
		writeMethods(formatter.Writer, spec.Methods)
		if parents := reg.InterfacesOf(spec.Name); len(parents) > 0 {
			fmt.Fprintf(formatter.Writer, "  instanceof: %s\n", strings.Join(parents, ", "))
		}
		return nil
	default:
		_ = formatter.Error("E_NOT_FOUND", fmt.Sprintf("no declaration named %q", name), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("no declaration named %q", name))
	}
}

func writeDeclarationList(w io.Writer, decls Declarations) {
	for _, spec := range decls.Interfaces {
		fmt.Fprintln(w, interfaceHeader(spec))
	}
	for _, spec := range decls.Classes {
		fmt.Fprintln(w, classHeader(spec))
	}
}

func writeMethods(w io.Writer, methods []registry.Method) {
	for _, m := range methods {
		fmt.Fprintf(w, "  %s\n", methodSignature(m))
	}
}

func interfaceHeader(spec *registry.InterfaceSpec) string {
	header := "interface " + spec.Name
	if len(spec.Extends) > 0 {
		header += " extends " + strings.Join(spec.Extends, ", ")
	}
	return header
}

func classHeader(spec *registry.ClassSpec) string {
	var b strings.Builder
	if spec.Final {
		b.WriteString("final ")
	}
	if spec.Abstract {
		b.WriteString("abstract ")
	}
	b.WriteString("class ")
	b.WriteString(spec.Name)
	if spec.Extends != "" {
		b.WriteString(" extends ")
		b.WriteString(spec.Extends)
	}
	if len(spec.Implements) > 0 {
		b.WriteString(" implements ")
		b.WriteString(strings.Join(spec.Implements, ", "))
	}
	return b.String()
}

// methodSignature renders e.g. "public final getMessage(): string".
func methodSignature(m registry.Method) string {
	var b strings.Builder
	b.WriteString(m.Visibility)
	if m.Abstract {
		b.WriteString(" abstract")
	}
	if m.Final {
		b.WriteString(" final")
	}
	if m.Static {
		b.WriteString(" static")
	}
	b.WriteByte(' ')
	b.WriteString(m.Name)
	b.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Type != "" {
			b.WriteString(p.Type)
			b.WriteByte(' ')
		}
		if p.Variadic {
			b.WriteString("...")
		}
		b.WriteString("$")
		b.WriteString(p.Name)
		if p.HasDefault {
			b.WriteString(" = ")
			b.WriteString(p.Default)
		}
	}
	b.WriteByte(')')
	if m.Returns != "" {
		b.WriteString(": ")
		b.WriteString(m.Returns)
	}
	return b.String()
}

func propertySignature(p registry.Property) string {
	var b strings.Builder
	b.WriteString(p.Visibility)
	if p.Readonly {
		b.WriteString(" readonly")
	}
	if p.Type != "" {
		b.WriteByte(' ')
		b.WriteString(p.Type)
	}
	b.WriteString(" $")
	b.WriteString(p.Name)
	if p.HasDefault {
		b.WriteString(" = ")
		b.WriteString(p.Default)
	}
	return b.String()
}
