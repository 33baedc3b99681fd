package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as text for golden comparison: each step's
// outcome with the throwable's string form, then each incident's
// diagnostic.
//
//	# scenario_name
//
//	## step 0 e1 uncaught
//	Exception: boom in /app/a.php:3
//	Stack trace:
//	#0 {main}
//
//	## incident 1 incident-0001
//	PHP Fatal error:  Uncaught Exception: boom in /app/a.php:3
//	Stack trace:
//	#0 {main}
//	  thrown in /app/a.php on line 3
func Snapshot(name string, result *Result) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n", name)
	for _, s := range result.Steps {
		fmt.Fprintf(&b, "\n## step %d %s %s\n", s.Step, s.Throwable, s.Outcome)
		if s.Error != "" {
			fmt.Fprintf(&b, "error: %s\n", s.Error)
		}
		if s.Rendered != "" {
			b.WriteString(s.Rendered)
			b.WriteByte('\n')
		}
	}
	for _, inc := range result.Incidents {
		fmt.Fprintf(&b, "\n## incident %d %s\n%s\n", inc.Seq, inc.ID, inc.Diagnostic)
	}
	return b.Bytes()
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	AssertGolden(t, scenario.Name, result)
	return nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(name, result))
}
