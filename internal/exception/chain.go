package exception

import (
	"fmt"
	"strings"

	"github.com/roach88/objkernel/internal/contracts"
	"github.com/roach88/objkernel/internal/trace"
	"github.com/roach88/objkernel/internal/values"
)

// IsNil reports whether t is nil, including a nil *Exception stored in the
// interface.
func IsNil(t contracts.Throwable) bool {
	if t == nil {
		return true
	}
	e, ok := t.(*Exception)
	return ok && e == nil
}

// Chain returns t followed by its causes, newest first.
func Chain(t contracts.Throwable) []contracts.Throwable {
	var chain []contracts.Throwable
	for cur := t; !IsNil(cur); cur = cur.Previous() {
		chain = append(chain, cur)
	}
	return chain
}

// Root returns the oldest cause in t's chain, or t itself.
func Root(t contracts.Throwable) contracts.Throwable {
	if IsNil(t) {
		return nil
	}
	for !IsNil(t.Previous()) {
		t = t.Previous()
	}
	return t
}

// ClassOf returns the type tag of t, or "Throwable" when it carries none.
func ClassOf(t contracts.Throwable) string {
	if cn, ok := t.(values.ClassNamer); ok {
		return cn.ClassName()
	}
	return contracts.NameThrowable
}

// Render produces the diagnostic for t and its causes from the accessors.
// The root cause comes first; each newer throwable follows a blank line
// and a "Next " prefix:
//
//	Exception: disk full in /app/io.php:7
//	Stack trace:
//	#0 /app/main.php(3): write()
//	#1 {main}
//
//	Next Exception: save failed in /app/main.php:4
//	Stack trace:
//	#0 {main}
func Render(t contracts.Throwable) string {
	if IsNil(t) {
		return ""
	}
	loc := trace.Location{File: t.File(), Line: t.Line()}
	return render(ClassOf(t), t.Message(), loc, t.Trace(), t.Previous())
}

func render(class, message string, loc trace.Location, frames []trace.Frame, previous contracts.Throwable) string {
	var b strings.Builder
	if !IsNil(previous) {
		b.WriteString(Render(previous))
		b.WriteString("\n\nNext ")
	}
	b.WriteString(class)
	if message != "" {
		b.WriteString(": ")
		b.WriteString(message)
	}
	fmt.Fprintf(&b, " in %s\nStack trace:\n", loc)
	for _, line := range trace.Render(frames) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "#%d {main}", len(frames))
	return b.String()
}
