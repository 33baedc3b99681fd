package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/objkernel/internal/contracts"
	"github.com/roach88/objkernel/internal/exception"
	"github.com/roach88/objkernel/internal/incident"
)

// AssertionContext holds what assertions are evaluated against.
type AssertionContext struct {
	// Throwables maps scenario names to constructed throwables.
	Throwables map[string]contracts.Throwable

	// Incidents are the stored incidents, ordered by seq.
	Incidents []incident.Incident
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type      string
	Throwable string
	Expected  string
	Actual    string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Throwable != "" {
		fmt.Fprintf(&buf, " (%s)", e.Throwable)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns failure messages.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluateAssertion(a, actx); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluateAssertion(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertIncidentCount:
		return assertIncidentCount(actx.Incidents, a)
	case AssertDiagnosticContains:
		return assertDiagnosticContains(actx.Incidents, a)
	}

	t, ok := actx.Throwables[a.Throwable]
	if !ok {
		return &AssertionError{Type: a.Type, Throwable: a.Throwable, Expected: "a constructed throwable", Actual: "never constructed"}
	}

	switch a.Type {
	case AssertMessage:
		return compare(a, *a.Equals, t.Message())
	case AssertCode:
		return compare(a, *a.Code, t.Code())
	case AssertPrevious:
		return assertPrevious(t, a, actx.Throwables)
	case AssertChain:
		return compare(a, a.Classes, chainClasses(t))
	case AssertSite:
		return compare(a, fmt.Sprintf("%s:%d", a.File, a.Line), fmt.Sprintf("%s:%d", t.File(), t.Line()))
	case AssertTraceString:
		return compare(a, *a.Equals, t.TraceAsString())
	case AssertRenderedContains:
		if !strings.Contains(t.String(), a.Contains) {
			return &AssertionError{Type: a.Type, Throwable: a.Throwable, Expected: fmt.Sprintf("string form containing %q", a.Contains), Actual: fmt.Sprintf("%q", t.String())}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func compare(a Assertion, expected, actual any) error {
	if reflect.DeepEqual(expected, actual) {
		return nil
	}
	return &AssertionError{
		Type:      a.Type,
		Throwable: a.Throwable,
		Expected:  fmt.Sprintf("%#v", expected),
		Actual:    fmt.Sprintf("%#v", actual),
	}
}

// assertPrevious checks reference identity, not equality of contents.
func assertPrevious(t contracts.Throwable, a Assertion, thrown map[string]contracts.Throwable) error {
	prev := t.Previous()
	want := *a.Previous

	if want == "" {
		if prev != nil {
			return &AssertionError{Type: a.Type, Throwable: a.Throwable, Expected: "no previous", Actual: nameOf(prev, thrown)}
		}
		return nil
	}

	expected, ok := thrown[want]
	if !ok {
		return &AssertionError{Type: a.Type, Throwable: a.Throwable, Expected: want, Actual: want + " was never constructed"}
	}
	if prev != expected {
		return &AssertionError{Type: a.Type, Throwable: a.Throwable, Expected: want, Actual: nameOf(prev, thrown)}
	}
	return nil
}

// nameOf returns the scenario name of t for messages.
func nameOf(t contracts.Throwable, thrown map[string]contracts.Throwable) string {
	if t == nil {
		return "no previous"
	}
	names := make([]string, 0, len(thrown))
	for name := range thrown {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if thrown[name] == t {
			return name
		}
	}
	return fmt.Sprintf("unnamed %s", exception.ClassOf(t))
}

func chainClasses(t contracts.Throwable) []string {
	chain := exception.Chain(t)
	classes := make([]string, len(chain))
	for i, c := range chain {
		classes[i] = exception.ClassOf(c)
	}
	return classes
}

func assertIncidentCount(incidents []incident.Incident, a Assertion) error {
	if len(incidents) != *a.Count {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d incidents", *a.Count), Actual: fmt.Sprintf("%d incidents", len(incidents))}
	}
	return nil
}

func assertDiagnosticContains(incidents []incident.Incident, a Assertion) error {
	for _, inc := range incidents {
		if strings.Contains(inc.Diagnostic, a.Contains) {
			return nil
		}
	}
	return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("a diagnostic containing %q", a.Contains), Actual: fmt.Sprintf("%d diagnostics without it", len(incidents))}
}
