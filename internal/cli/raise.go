package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/objkernel/internal/contracts"
	"github.com/roach88/objkernel/internal/incident"
	"github.com/roach88/objkernel/internal/runtime"
	"github.com/roach88/objkernel/internal/store"
	"github.com/roach88/objkernel/internal/trace"
)

// RaiseOptions holds flags for the raise command.
type RaiseOptions struct {
	*RootOptions
	Database string
	Class    string
	Message  string
	Code     int64
	At       string
	Frames   []string
	Causes   []string
}

// NewRaiseCommand creates the raise command.
func NewRaiseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RaiseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "raise",
		Short: "Raise an uncaught throwable and record the incident",
		Long: `Construct a throwable, raise it with the given call stack and handle it
as uncaught: the fatal diagnostic is printed and the incident is stored.

Frames are given outermost first as function@file:line, where function may
be qualified as Class->method or Class::method. Causes are given oldest
first as "Class: message"; each is raised at the same site and becomes the
previous of the next.

Examples:
  objkernel raise --db ./incidents.db --message boom --at /app/a.php:3
  objkernel raise --db ./incidents.db --class RuntimeException --message "save failed" \
      --at /app/repo.php:40 --frame main@/app/index.php:3 --frame Repo->save@/app/index.php:12 \
      --cause "LogicException: disk full"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRaise(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Class, "class", "Exception", "throwable class")
	cmd.Flags().StringVar(&opts.Message, "message", "", "message")
	cmd.Flags().Int64Var(&opts.Code, "code", 0, "code")
	cmd.Flags().StringVar(&opts.At, "at", "", "raise site as file:line (required)")
	_ = cmd.MarkFlagRequired("at")
	cmd.Flags().StringArrayVar(&opts.Frames, "frame", nil, "call frame function@file:line, outermost first (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Causes, "cause", nil, `cause "Class: message", oldest first (repeatable)`)

	return cmd
}

func runRaise(opts *RaiseOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	loc, err := parseLocation(opts.At)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --at", err)
	}
	frames := make([]trace.Frame, 0, len(opts.Frames))
	for _, spec := range opts.Frames {
		f, err := parseFrame(spec)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --frame", err)
		}
		frames = append(frames, f)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	maxSeq, err := st.MaxSeq(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read incident log", err)
	}

	rt := runtime.New(
		runtime.WithIncidentSink(st),
		runtime.WithClock(runtime.NewClockAt(maxSeq)),
		runtime.WithLogger(newLogger(opts.RootOptions, cmd)),
	)
	for _, f := range frames {
		if err := rt.Enter(f); err != nil {
			return WrapExitError(ExitCommandError, "failed to enter frame", err)
		}
	}

	var previous contracts.Throwable
	for _, spec := range opts.Causes {
		class, message := parseCause(spec)
		e, err := rt.NewException(class, message, 0, previous)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --cause", err)
		}
		if _, ok := rt.Catch(rt.Raise(e, loc)); !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("failed to raise cause %q", spec))
		}
		previous = e
	}

	thrown := rt.Throw(opts.Class, opts.Message, opts.Code, previous, loc)
	if _, ok := runtime.AsThrown(thrown); !ok {
		return WrapExitError(ExitCommandError, "invalid --class", thrown)
	}

	inc, err := rt.Uncaught(ctx, thrown)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to record incident", err)
	}

	if formatter.IsJSON() {
		return formatter.Success(inc)
	}
	writeIncidentText(formatter, inc)
	return nil
}

func writeIncidentText(formatter *OutputFormatter, inc incident.Incident) {
	fmt.Fprintln(formatter.Writer, inc.Diagnostic)
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintf(formatter.Writer, "incident %s (seq %d, fingerprint %s)\n", inc.ID, inc.Seq, shortFingerprint(inc.Fingerprint))
}

// parseLocation parses "file:line". The file may itself contain colons.
func parseLocation(s string) (trace.Location, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 {
		return trace.Location{}, fmt.Errorf("expected file:line, got %q", s)
	}
	line, err := strconv.Atoi(s[i+1:])
	if err != nil || line < 0 {
		return trace.Location{}, fmt.Errorf("invalid line in %q", s)
	}
	return trace.Location{File: s[:i], Line: line}, nil
}

// parseFrame parses "function@file:line" or a bare "function" for an
// internal frame. function may be Class->method or Class::method.
func parseFrame(s string) (trace.Frame, error) {
	callee, site, hasSite := strings.Cut(s, "@")
	if callee == "" {
		return trace.Frame{}, fmt.Errorf("missing function in %q", s)
	}

	var f trace.Frame
	switch {
	case strings.Contains(callee, trace.CallInstance):
		f.Class, f.Function, _ = strings.Cut(callee, trace.CallInstance)
		f.CallType = trace.CallInstance
	case strings.Contains(callee, trace.CallStatic):
		f.Class, f.Function, _ = strings.Cut(callee, trace.CallStatic)
		f.CallType = trace.CallStatic
	default:
		f.Function = callee
	}
	if f.Function == "" || (f.CallType != "" && f.Class == "") {
		return trace.Frame{}, fmt.Errorf("invalid function %q", callee)
	}

	if hasSite {
		loc, err := parseLocation(site)
		if err != nil {
			return trace.Frame{}, err
		}
		f.File, f.Line = loc.File, loc.Line
	}
	return f, nil
}

// parseCause splits "Class: message". Without a colon the whole text is
// the message of a plain Exception.
func parseCause(s string) (class, message string) {
	class, message, ok := strings.Cut(s, ": ")
	if !ok || strings.ContainsAny(class, " \t") {
		return "", s
	}
	return class, message
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
