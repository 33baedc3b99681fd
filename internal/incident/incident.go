package incident

import (
	"fmt"

	"github.com/roach88/objkernel/internal/contracts"
	"github.com/roach88/objkernel/internal/exception"
	"github.com/roach88/objkernel/internal/trace"
)

// DiagnosticPrefix starts every uncaught-throwable diagnostic.
const DiagnosticPrefix = "PHP Fatal error:  Uncaught "

// Cause is one older link of the cause chain. Depth 1 is the direct
// previous of the head.
type Cause struct {
	Depth   int    `json:"depth"`
	Class   string `json:"class"`
	Message string `json:"message"`
	Code    int64  `json:"code"`
	File    string `json:"file"`
	Line    int    `json:"line"`
}

// Incident records an uncaught throwable.
type Incident struct {
	ID            string        `json:"id"`
	Seq           int64         `json:"seq"`
	Fingerprint   string        `json:"fingerprint"`
	Class         string        `json:"class"`
	Message       string        `json:"message"`
	Code          int64         `json:"code"`
	File          string        `json:"file"`
	Line          int           `json:"line"`
	Trace         []trace.Frame `json:"trace"`
	TraceString   string        `json:"trace_string"`
	Diagnostic    string        `json:"diagnostic"`
	Causes        []Cause       `json:"causes"`
	KernelVersion string        `json:"kernel_version"`
}

// Diagnostic renders the fatal-error text for an uncaught throwable: the
// stored string form (rendered on the spot when empty) followed by the
// throw site.
func Diagnostic(t contracts.Throwable) string {
	rendered := t.String()
	if rendered == "" {
		rendered = exception.Render(t)
	}
	return fmt.Sprintf("%s%s\n  thrown in %s on line %d", DiagnosticPrefix, rendered, t.File(), t.Line())
}

// FromThrowable flattens t into an Incident with the given id and seq and
// computes its fingerprint. Trace arguments are kept only in TraceString.
func FromThrowable(id string, seq int64, t contracts.Throwable) (Incident, error) {
	inc := Incident{
		ID:            id,
		Seq:           seq,
		Class:         exception.ClassOf(t),
		Message:       t.Message(),
		Code:          t.Code(),
		File:          t.File(),
		Line:          t.Line(),
		Trace:         StripArgs(t.Trace()),
		TraceString:   t.TraceAsString(),
		Diagnostic:    Diagnostic(t),
		Causes:        []Cause{},
		KernelVersion: KernelVersion,
	}
	for depth, c := range exception.Chain(t) {
		if depth == 0 {
			continue
		}
		inc.Causes = append(inc.Causes, Cause{
			Depth:   depth,
			Class:   exception.ClassOf(c),
			Message: c.Message(),
			Code:    c.Code(),
			File:    c.File(),
			Line:    c.Line(),
		})
	}

	fp, err := Fingerprint(inc)
	if err != nil {
		return Incident{}, err
	}
	inc.Fingerprint = fp
	return inc, nil
}

// StripArgs copies frames without their arguments.
func StripArgs(frames []trace.Frame) []trace.Frame {
	out := make([]trace.Frame, len(frames))
	for i, f := range frames {
		f.Args = nil
		out[i] = f
	}
	return out
}
