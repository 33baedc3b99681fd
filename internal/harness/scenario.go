package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance scenario: a sequence of raises and the
// assertions that must hold afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Declarations is an optional directory of user CUE class declarations,
	// merged over the builtins. Relative to the scenario file.
	Declarations string `yaml:"declarations,omitempty"`

	// IncidentPrefix prefixes incident IDs. Default "incident".
	IncidentPrefix string `yaml:"incident_prefix,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the throwables and incidents after all steps.
	Assertions []Assertion `yaml:"assertions"`
}

// Step raises a new throwable or re-raises an earlier one.
type Step struct {
	// Throw names a new throwable built from Class, Message, Code and
	// Previous.
	Throw string `yaml:"throw,omitempty"`

	// Rethrow names an earlier throwable to raise again.
	Rethrow string `yaml:"rethrow,omitempty"`

	// Class defaults to Exception.
	Class    string `yaml:"class,omitempty"`
	Message  string `yaml:"message,omitempty"`
	Code     int64  `yaml:"code,omitempty"`
	Previous string `yaml:"previous,omitempty"`

	// At is the raise site.
	At Site `yaml:"at"`

	// Stack lists the active calls, outermost first.
	Stack []FrameSpec `yaml:"stack,omitempty"`

	// Catch lists handler types. Empty means the raise is uncaught.
	Catch []string `yaml:"catch,omitempty"`

	// Expect optionally checks the outcome.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Site is a file and line.
type Site struct {
	File string `yaml:"file"`
	Line int    `yaml:"line"`
}

// FrameSpec declares one call frame.
type FrameSpec struct {
	Function string `yaml:"function"`
	Class    string `yaml:"class,omitempty"`
	Type     string `yaml:"type,omitempty"`
	File     string `yaml:"file,omitempty"`
	Line     int    `yaml:"line,omitempty"`
	Args     []any  `yaml:"args,omitempty"`
}

// ExpectClause specifies the expected step outcome.
type ExpectClause struct {
	// Outcome is caught, uncaught or error.
	Outcome string `yaml:"outcome"`

	// Error is the expected runtime error code for the error outcome,
	// e.g. UNKNOWN_CLASS.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates a throwable or the incident log.
type Assertion struct {
	Type      string `yaml:"type"`
	Throwable string `yaml:"throwable,omitempty"`

	// Equals is the expected text for message and trace_string.
	Equals *string `yaml:"equals,omitempty"`

	// Contains is the substring for rendered_contains and
	// diagnostic_contains.
	Contains string `yaml:"contains,omitempty"`

	// Code is the expected code for code.
	Code *int64 `yaml:"code,omitempty"`

	// Previous names the expected previous throwable; empty means none.
	Previous *string `yaml:"previous,omitempty"`

	// Classes is the expected chain, newest first.
	Classes []string `yaml:"classes,omitempty"`

	// File and Line are the expected site.
	File string `yaml:"file,omitempty"`
	Line int    `yaml:"line,omitempty"`

	// Count is the expected number of incidents.
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertMessage            = "message"
	AssertCode               = "code"
	AssertPrevious           = "previous"
	AssertChain              = "chain"
	AssertSite               = "site"
	AssertTraceString        = "trace_string"
	AssertRenderedContains   = "rendered_contains"
	AssertIncidentCount      = "incident_count"
	AssertDiagnosticContains = "diagnostic_contains"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly. A relative declarations directory is
// resolved against the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Declarations != "" && !filepath.IsAbs(scenario.Declarations) {
		scenario.Declarations = filepath.Join(filepath.Dir(path), scenario.Declarations)
	}
	return scenario, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and references between steps.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	declared := make(map[string]bool)
	for i, step := range s.Steps {
		if err := validateStep(i, &step, declared); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, declared); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *Step, declared map[string]bool) error {
	switch {
	case step.Throw == "" && step.Rethrow == "":
		return fmt.Errorf("steps[%d]: one of throw or rethrow is required", index)
	case step.Throw != "" && step.Rethrow != "":
		return fmt.Errorf("steps[%d]: throw and rethrow are mutually exclusive", index)
	}

	if step.Rethrow != "" {
		if !declared[step.Rethrow] {
			return fmt.Errorf("steps[%d]: rethrow of undeclared throwable %q", index, step.Rethrow)
		}
		if step.Class != "" || step.Message != "" || step.Code != 0 || step.Previous != "" {
			return fmt.Errorf("steps[%d]: rethrow cannot set class, message, code or previous", index)
		}
	} else {
		if declared[step.Throw] {
			return fmt.Errorf("steps[%d]: throwable %q declared twice", index, step.Throw)
		}
		if step.Previous != "" && !declared[step.Previous] {
			return fmt.Errorf("steps[%d]: previous refers to undeclared throwable %q", index, step.Previous)
		}
	}

	if step.At.File == "" {
		return fmt.Errorf("steps[%d]: at.file is required", index)
	}
	for j, f := range step.Stack {
		if f.Function == "" {
			return fmt.Errorf("steps[%d].stack[%d]: function is required", index, j)
		}
	}

	if step.Expect != nil {
		switch step.Expect.Outcome {
		case OutcomeCaught, OutcomeUncaught:
			if step.Expect.Error != "" {
				return fmt.Errorf("steps[%d].expect: error is only valid with outcome %q", index, OutcomeError)
			}
		case OutcomeError:
		default:
			return fmt.Errorf("steps[%d].expect: unknown outcome %q", index, step.Expect.Outcome)
		}
	}

	if step.Throw != "" {
		declared[step.Throw] = true
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, declared map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertIncidentCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for incident_count", index)
		}
		return nil
	case AssertDiagnosticContains:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for diagnostic_contains", index)
		}
		return nil
	case AssertMessage, AssertCode, AssertPrevious, AssertChain, AssertSite, AssertTraceString, AssertRenderedContains:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Throwable == "" {
		return fmt.Errorf("assertions[%d]: throwable is required for %s", index, a.Type)
	}
	if !declared[a.Throwable] {
		return fmt.Errorf("assertions[%d]: unknown throwable %q", index, a.Throwable)
	}

	switch a.Type {
	case AssertMessage, AssertTraceString:
		if a.Equals == nil {
			return fmt.Errorf("assertions[%d]: equals is required for %s", index, a.Type)
		}
	case AssertCode:
		if a.Code == nil {
			return fmt.Errorf("assertions[%d]: code is required for code", index)
		}
	case AssertPrevious:
		if a.Previous == nil {
			return fmt.Errorf("assertions[%d]: previous is required for previous (use \"\" for none)", index)
		}
		if *a.Previous != "" && !declared[*a.Previous] {
			return fmt.Errorf("assertions[%d]: unknown throwable %q", index, *a.Previous)
		}
	case AssertChain:
		if len(a.Classes) == 0 {
			return fmt.Errorf("assertions[%d]: classes list is required for chain", index)
		}
	case AssertSite:
		if a.File == "" {
			return fmt.Errorf("assertions[%d]: file is required for site", index)
		}
	case AssertRenderedContains:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for rendered_contains", index)
		}
	}
	return nil
}
