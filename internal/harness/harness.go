package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/objkernel/internal/contracts"
	"github.com/roach88/objkernel/internal/registry"
	"github.com/roach88/objkernel/internal/runtime"
	"github.com/roach88/objkernel/internal/store"
	"github.com/roach88/objkernel/internal/testutil"
	"github.com/roach88/objkernel/internal/trace"
	"github.com/roach88/objkernel/internal/values"
)

// DefaultIncidentPrefix prefixes incident IDs when a scenario sets none.
const DefaultIncidentPrefix = "incident"

// Harness executes one scenario against a fresh runtime and store.
type Harness struct {
	store   *store.Store
	runtime *runtime.Runtime
	thrown  map[string]contracts.Throwable
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each run uses a fresh in-memory database and deterministic incident IDs
// and seqs. An error is returned only when the scenario cannot be
// executed at all; failed expectations are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	reg, err := loadRegistry(scenario.Declarations)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	prefix := scenario.IncidentPrefix
	if prefix == "" {
		prefix = DefaultIncidentPrefix
	}

	logger := testutil.DiscardLogger()
	h := &Harness{
		store: st,
		runtime: runtime.New(
			runtime.WithRegistry(reg),
			runtime.WithIncidentSink(st),
			runtime.WithIDGenerator(testutil.NewSequentialIDs(prefix)),
			runtime.WithLogger(logger),
		),
		thrown: make(map[string]contracts.Throwable),
		logger: logger,
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("failed to execute step %d: %w", i, err)
		}
	}

	incidents, err := st.ListIncidents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read incidents: %w", err)
	}
	result.Incidents = incidents

	actx := &AssertionContext{Throwables: h.thrown, Incidents: incidents}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// loadRegistry returns the builtins, or the builtins merged with the user
// declarations in dir.
func loadRegistry(dir string) (*registry.Registry, error) {
	if dir == "" {
		return registry.Builtins(), nil
	}

	res, errs := registry.LoadDir(dir, nil, registry.LoadModeCollectAll)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load declarations: %w", errors.Join(errs...))
	}

	if verrs := res.Merged.Validate(); len(verrs) > 0 {
		joined := make([]error, len(verrs))
		for i := range verrs {
			joined[i] = verrs[i]
		}
		return nil, fmt.Errorf("invalid declarations: %w", errors.Join(joined...))
	}
	return res.Merged, nil
}

// executeStep enters the step's frames, raises, then either catches or
// reports the throwable as uncaught. The stack is unwound afterwards.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	name := step.Throw
	if name == "" {
		name = step.Rethrow
	}
	outcome := StepOutcome{Step: index, Throwable: name}

	depth := h.runtime.Depth()
	defer h.unwind(depth)

	for j, spec := range step.Stack {
		frame, err := toFrame(spec)
		if err != nil {
			return fmt.Errorf("stack[%d]: %w", j, err)
		}
		if err := h.runtime.Enter(frame); err != nil {
			h.recordError(&outcome, err)
			h.finishStep(index, step, outcome, result)
			return nil
		}
	}

	var t contracts.Throwable
	if step.Rethrow != "" {
		t = h.thrown[step.Rethrow]
		if t == nil {
			h.recordError(&outcome, fmt.Errorf("throwable %q was never constructed", step.Rethrow))
			h.finishStep(index, step, outcome, result)
			return nil
		}
	} else {
		var previous contracts.Throwable
		if step.Previous != "" {
			previous = h.thrown[step.Previous]
		}
		e, err := h.runtime.NewException(step.Class, step.Message, step.Code, previous)
		if err != nil {
			h.recordError(&outcome, err)
			h.finishStep(index, step, outcome, result)
			return nil
		}
		h.thrown[step.Throw] = e
		t = e
	}

	raised := h.runtime.Raise(t, trace.Location{File: step.At.File, Line: step.At.Line})
	if _, ok := runtime.AsThrown(raised); !ok {
		h.recordError(&outcome, raised)
		h.finishStep(index, step, outcome, result)
		return nil
	}
	outcome.Rendered = t.String()

	if len(step.Catch) > 0 {
		if _, ok := h.runtime.Catch(raised, step.Catch...); ok {
			outcome.Outcome = OutcomeCaught
			h.finishStep(index, step, outcome, result)
			return nil
		}
	}

	if _, err := h.runtime.Uncaught(ctx, raised); err != nil {
		return fmt.Errorf("uncaught handling: %w", err)
	}
	outcome.Outcome = OutcomeUncaught
	h.finishStep(index, step, outcome, result)
	return nil
}

func (h *Harness) unwind(depth int) {
	for h.runtime.Depth() > depth {
		if err := h.runtime.Leave(); err != nil {
			return
		}
	}
}

// recordError marks the outcome as a runtime error, keeping the error code
// when there is one.
func (h *Harness) recordError(outcome *StepOutcome, err error) {
	outcome.Outcome = OutcomeError
	var rerr *runtime.RuntimeError
	if errors.As(err, &rerr) {
		outcome.Error = string(rerr.Code)
	} else {
		outcome.Error = err.Error()
	}
	h.logger.Debug("step failed", "step", outcome.Step, "throwable", outcome.Throwable, "error", err)
}

// finishStep records the outcome and checks the expect clause.
func (h *Harness) finishStep(index int, step Step, outcome StepOutcome, result *Result) {
	result.AddStep(outcome)

	if step.Expect == nil {
		if outcome.Outcome == OutcomeError {
			result.AddError(fmt.Sprintf("steps[%d]: unexpected runtime error %s", index, outcome.Error))
		}
		return
	}
	if step.Expect.Outcome != outcome.Outcome {
		result.AddError(fmt.Sprintf("steps[%d]: expected outcome %s, got %s", index, step.Expect.Outcome, outcome.Outcome))
		return
	}
	if step.Expect.Error != "" && step.Expect.Error != outcome.Error {
		result.AddError(fmt.Sprintf("steps[%d]: expected error %s, got %s", index, step.Expect.Error, outcome.Error))
	}
}

// toFrame converts a frame declaration into a trace frame.
func toFrame(spec FrameSpec) (trace.Frame, error) {
	frame := trace.Frame{
		Function: spec.Function,
		Class:    spec.Class,
		CallType: spec.Type,
		File:     spec.File,
		Line:     spec.Line,
	}
	for i, arg := range spec.Args {
		v, err := toValue(arg)
		if err != nil {
			return trace.Frame{}, fmt.Errorf("args[%d]: %w", i, err)
		}
		frame.Args = append(frame.Args, v)
	}
	return frame, nil
}

// toValue converts a decoded YAML value into a runtime value. Mapping keys
// are sorted because YAML maps decode without order.
func toValue(v any) (values.Value, error) {
	switch val := v.(type) {
	case nil:
		return values.Null{}, nil
	case bool:
		return values.Bool(val), nil
	case int:
		return values.Int(val), nil
	case int64:
		return values.Int(val), nil
	case uint64:
		return values.Int(int64(val)), nil
	case float64:
		return values.Float(val), nil
	case string:
		return values.Str(val), nil
	case []any:
		list := values.NewArray()
		for i, item := range val {
			iv, err := toValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list.Append(iv)
		}
		return list, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		arr := values.NewArray()
		for _, k := range keys {
			iv, err := toValue(val[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			if err := arr.Set(values.Str(k), iv); err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unsupported argument type %T", v)
	}
}
