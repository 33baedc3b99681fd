package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objkernel/internal/contracts"
	"github.com/roach88/objkernel/internal/exception"
	"github.com/roach88/objkernel/internal/incident"
	"github.com/roach88/objkernel/internal/store"
	"github.com/roach88/objkernel/internal/testutil"
	"github.com/roach88/objkernel/internal/trace"
	"github.com/roach88/objkernel/internal/values"
)

func newTestRuntime(t *testing.T, opts ...Option) (*Runtime, *testutil.RecordingSink, *testutil.LogCapture) {
	t.Helper()
	logger, capture := testutil.CaptureLogger()
	sink := &testutil.RecordingSink{}
	base := []Option{
		WithLogger(logger),
		WithIncidentSink(sink),
		WithIDGenerator(testutil.NewSequentialIDs("inc")),
	}
	return New(append(base, opts...)...), sink, capture
}

func at(file string, line int) trace.Location {
	return trace.Location{File: file, Line: line}
}

func TestNew_Defaults(t *testing.T) {
	rt := New()
	assert.NotNil(t, rt.Registry())
	assert.NotNil(t, rt.Clock())
	assert.Equal(t, 0, rt.Depth())
	assert.Empty(t, rt.Snapshot())
}

func TestNewException_ResolvesClass(t *testing.T) {
	rt := New()

	e, err := rt.NewException("runtimeexception", "boom", 3, nil)
	require.NoError(t, err)
	assert.Equal(t, "RuntimeException", e.ClassName())
	assert.Equal(t, int64(3), e.Code())

	e, err = rt.NewException("", "plain", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "Exception", e.ClassName())
}

func TestNewException_UnknownClass(t *testing.T) {
	_, err := New().NewException("NoSuchException", "x", 0, nil)
	require.Error(t, err)
	assert.True(t, IsUnknownClass(err))
}

func TestNewException_NotThrowable(t *testing.T) {
	_, err := New().NewException("stdClass", "x", 0, nil)
	require.Error(t, err)
	assert.True(t, IsNotThrowable(err))

	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "stdClass", rerr.Class)
}

func TestEnterLeave(t *testing.T) {
	rt := New()

	require.NoError(t, rt.Enter(trace.Frame{Function: "main", File: "/app/index.php", Line: 1}))
	require.NoError(t, rt.Enter(trace.Frame{Function: "run", File: "/app/index.php", Line: 5}))
	assert.Equal(t, 2, rt.Depth())

	snap := rt.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "run", snap[0].Function)

	require.NoError(t, rt.Leave())
	require.NoError(t, rt.Leave())

	err := rt.Leave()
	require.Error(t, err)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeStackUnderflow, rerr.Code)
}

func TestEnter_StackOverflow(t *testing.T) {
	rt := New(WithMaxStackDepth(2))

	require.NoError(t, rt.Enter(trace.Frame{Function: "a"}))
	require.NoError(t, rt.Enter(trace.Frame{Function: "b"}))

	err := rt.Enter(trace.Frame{Function: "c"})
	require.Error(t, err)
	assert.True(t, IsStackOverflow(err))
	assert.ErrorIs(t, err, trace.ErrStackOverflow)
	assert.Equal(t, 2, rt.Depth())
}

func TestRaise_FinalizesWithSnapshot(t *testing.T) {
	rt, _, _ := newTestRuntime(t)
	require.NoError(t, rt.Enter(trace.Frame{Function: "main", File: "/app/index.php", Line: 2}))
	require.NoError(t, rt.Enter(trace.Frame{Function: "save", Class: "Repo", File: "/app/index.php", Line: 9}))

	e := exception.New("disk full", 28, nil)
	err := rt.Raise(e, at("/app/repo.php", 14))
	require.Error(t, err)

	assert.True(t, e.Finalized())
	assert.Equal(t, "/app/repo.php", e.File())
	assert.Equal(t, 14, e.Line())
	require.Len(t, e.Trace(), 2)
	assert.Equal(t, "save", e.Trace()[0].Function)
	assert.Equal(t, "main", e.Trace()[1].Function)

	// Later stack changes do not reach the published trace.
	require.NoError(t, rt.Leave())
	assert.Len(t, e.Trace(), 2)
}

func TestRaise_ReturnsThrown(t *testing.T) {
	rt, _, _ := newTestRuntime(t)
	e := exception.New("boom", 0, nil)

	err := rt.Raise(e, at("/a.php", 1))

	var thrown *Thrown
	require.ErrorAs(t, err, &thrown)
	assert.Same(t, e, thrown.Throwable)
	assert.Equal(t, "Exception: boom", err.Error())

	var target *exception.Exception
	require.ErrorAs(t, err, &target)
	assert.Same(t, e, target)
}

func TestRaise_RethrowKeepsSite(t *testing.T) {
	rt, _, capture := newTestRuntime(t)
	e := exception.New("boom", 0, nil)

	require.NoError(t, rt.Enter(trace.Frame{Function: "inner", File: "/a.php", Line: 3}))
	_ = rt.Raise(e, at("/a.php", 10))
	require.NoError(t, rt.Leave())

	err := rt.Raise(e, at("/b.php", 99))
	require.Error(t, err)

	assert.Equal(t, "/a.php", e.File())
	assert.Equal(t, 10, e.Line())
	assert.Len(t, e.Trace(), 1)

	records := capture.Records()
	require.Len(t, records, 2)
	assert.Equal(t, false, records[0]["rethrow"])
	assert.Equal(t, true, records[1]["rethrow"])
	assert.Equal(t, []string{"throwable raised", "throwable raised"}, capture.Messages(slog.LevelDebug))
}

func TestRaise_Nil(t *testing.T) {
	err := New().Raise(nil, at("/a.php", 1))
	assert.True(t, IsNotThrowable(err))

	var typed *exception.Exception
	err = New().Raise(typed, at("/a.php", 1))
	assert.True(t, IsNotThrowable(err))
}

// siteless satisfies Throwable but cannot take a raise site.
type siteless struct{}

func (siteless) Message() string               { return "boom" }
func (siteless) Code() int64                   { return 0 }
func (siteless) File() string                  { return "" }
func (siteless) Line() int                     { return 0 }
func (siteless) Trace() []trace.Frame          { return nil }
func (siteless) TraceAsString() string         { return "" }
func (siteless) Previous() contracts.Throwable { return nil }
func (siteless) String() string                { return "" }

func TestRaise_RejectsThrowableWithoutSite(t *testing.T) {
	rt := New()
	err := rt.Raise(siteless{}, at("/app/x.php", 9))

	require.Error(t, err)
	assert.True(t, IsNotThrowable(err))
	_, caught := rt.Catch(err)
	assert.False(t, caught)
}

func TestRaise_MaxTraceDepth(t *testing.T) {
	rt, _, _ := newTestRuntime(t, WithMaxTraceDepth(2))
	for i := 1; i <= 5; i++ {
		require.NoError(t, rt.Enter(trace.Frame{Function: fmt.Sprintf("f%d", i), File: "/a.php", Line: i}))
	}

	e := exception.New("deep", 0, nil)
	_ = rt.Raise(e, at("/a.php", 50))

	require.Len(t, e.Trace(), 2)
	assert.Equal(t, "f5", e.Trace()[0].Function)
	assert.Equal(t, "f4", e.Trace()[1].Function)
}

func TestThrow(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	err := rt.Throw("InvalidArgumentException", "bad id", 400, nil, at("/api.php", 7))
	th, ok := rt.Catch(err)
	require.True(t, ok)
	assert.Equal(t, "InvalidArgumentException", exception.ClassOf(th))
	assert.Equal(t, "/api.php", th.File())

	err = rt.Throw("Nope", "x", 0, nil, at("/api.php", 8))
	assert.True(t, IsUnknownClass(err))
}

func TestCatch_MatchesHierarchy(t *testing.T) {
	rt, _, _ := newTestRuntime(t)
	err := rt.Throw("InvalidArgumentException", "bad", 0, nil, at("/a.php", 1))

	tests := []struct {
		types  []string
		caught bool
	}{
		{nil, true},
		{[]string{"InvalidArgumentException"}, true},
		{[]string{"LogicException"}, true},
		{[]string{"Exception"}, true},
		{[]string{"Throwable"}, true},
		{[]string{"throwable"}, true},
		{[]string{"RuntimeException"}, false},
		{[]string{"RuntimeException", "LogicException"}, true},
		{[]string{"ArrayIterator"}, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.types), func(t *testing.T) {
			th, ok := rt.Catch(err, tt.types...)
			assert.Equal(t, tt.caught, ok)
			if tt.caught {
				assert.NotNil(t, th)
			} else {
				assert.Nil(t, th)
			}
		})
	}
}

func TestCatch_WrappedThrown(t *testing.T) {
	rt, _, _ := newTestRuntime(t)
	err := rt.Throw("", "inner", 0, nil, at("/a.php", 1))
	wrapped := fmt.Errorf("evaluating call: %w", err)

	th, ok := rt.Catch(wrapped, "Exception")
	require.True(t, ok)
	assert.Equal(t, "inner", th.Message())
}

func TestCatch_PlainErrorNeverCaught(t *testing.T) {
	rt := New()
	_, ok := rt.Catch(errors.New("io failure"))
	assert.False(t, ok)
	_, ok = rt.Catch(nil)
	assert.False(t, ok)
}

func TestTry_NearestMatchingHandler(t *testing.T) {
	rt, _, _ := newTestRuntime(t)
	require.NoError(t, rt.Enter(trace.Frame{Function: "main"}))

	var handledBy string
	err := rt.Try(func() error {
		return rt.Try(func() error {
			if err := rt.Enter(trace.Frame{Function: "validate"}); err != nil {
				return err
			}
			return rt.Throw("InvalidArgumentException", "bad", 0, nil, at("/v.php", 3))
		}, []string{"RuntimeException"}, func(contracts.Throwable) error {
			handledBy = "inner"
			return nil
		})
	}, []string{"LogicException"}, func(th contracts.Throwable) error {
		handledBy = "outer"
		assert.Equal(t, "bad", th.Message())
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "outer", handledBy)
	assert.Equal(t, 1, rt.Depth(), "stack unwound to the guarded block's depth")
}

func TestTry_UnmatchedPropagates(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	err := rt.Try(func() error {
		return rt.Throw("RuntimeException", "io", 0, nil, at("/a.php", 1))
	}, []string{"LogicException"}, func(contracts.Throwable) error {
		t.Fatal("handler must not run")
		return nil
	})

	th, ok := AsThrown(err)
	require.True(t, ok)
	assert.Equal(t, "io", th.Message())
}

func TestTry_HandlerRethrows(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	err := rt.Try(func() error {
		return rt.Throw("", "first", 0, nil, at("/a.php", 1))
	}, []string{"Exception"}, func(prev contracts.Throwable) error {
		return rt.Throw("RuntimeException", "second", 0, prev, at("/a.php", 2))
	})

	th, ok := AsThrown(err)
	require.True(t, ok)
	assert.Equal(t, "second", th.Message())
	require.NotNil(t, th.Previous())
	assert.Equal(t, "first", th.Previous().Message())
}

func TestUncaught_RecordsIncident(t *testing.T) {
	rt, sink, capture := newTestRuntime(t)
	require.NoError(t, rt.Enter(trace.Frame{Function: "run", File: "/app/main.php", Line: 10}))

	err := rt.Throw("", "boom", 5, nil, at("/app/a.php", 3))
	inc, uerr := rt.Uncaught(context.Background(), err)
	require.NoError(t, uerr)

	want := incident.DiagnosticPrefix +
		"Exception: boom in /app/a.php:3\nStack trace:\n#0 /app/main.php(10): run()\n#1 {main}" +
		"\n  thrown in /app/a.php on line 3"
	assert.Equal(t, want, inc.Diagnostic)
	assert.Equal(t, "inc-0001", inc.ID)
	assert.Equal(t, int64(1), inc.Seq)
	assert.Equal(t, "Exception", inc.Class)
	assert.Equal(t, int64(5), inc.Code)
	assert.NotEmpty(t, inc.Fingerprint)

	require.Len(t, sink.Incidents(), 1)
	assert.Equal(t, inc, sink.Incidents()[0])
	assert.Equal(t, []string{"uncaught throwable"}, capture.Messages(slog.LevelError))
}

func TestUncaught_CauseChain(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	e1, err := rt.NewException("RuntimeException", "disk full", 28, nil)
	require.NoError(t, err)
	_ = rt.Raise(e1, at("/io.php", 7))
	e2, err := rt.NewException("", "save failed", 0, e1)
	require.NoError(t, err)

	inc, err := rt.Uncaught(context.Background(), rt.Raise(e2, at("/main.php", 4)))
	require.NoError(t, err)

	require.Len(t, inc.Causes, 1)
	assert.Equal(t, incident.Cause{Depth: 1, Class: "RuntimeException", Message: "disk full", Code: 28, File: "/io.php", Line: 7}, inc.Causes[0])
	assert.Contains(t, inc.Diagnostic, "RuntimeException: disk full in /io.php:7")
	assert.Contains(t, inc.Diagnostic, "\n\nNext Exception: save failed in /main.php:4")
}

func TestUncaught_SeqIncreases(t *testing.T) {
	rt, _, _ := newTestRuntime(t, WithClock(NewClockAt(100)))

	a, err := rt.Uncaught(context.Background(), rt.Throw("", "a", 0, nil, at("/a.php", 1)))
	require.NoError(t, err)
	b, err := rt.Uncaught(context.Background(), rt.Throw("", "b", 0, nil, at("/a.php", 1)))
	require.NoError(t, err)

	assert.Equal(t, int64(101), a.Seq)
	assert.Equal(t, int64(102), b.Seq)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestUncaught_PlainError(t *testing.T) {
	rt, sink, _ := newTestRuntime(t)

	_, err := rt.Uncaught(context.Background(), errors.New("io failure"))
	require.Error(t, err)
	assert.True(t, IsNotThrowable(err))
	assert.Empty(t, sink.Incidents())
}

func TestUncaught_SinkFailure(t *testing.T) {
	rt, sink, _ := newTestRuntime(t)
	sink.Err = errors.New("disk full")

	inc, err := rt.Uncaught(context.Background(), rt.Throw("", "boom", 0, nil, at("/a.php", 1)))
	require.Error(t, err)
	assert.ErrorIs(t, err, sink.Err)
	assert.Equal(t, "inc-0001", inc.ID, "incident returned even when storing fails")
}

func TestUncaught_WithoutSink(t *testing.T) {
	rt := New(WithLogger(testutil.DiscardLogger()), WithIDGenerator(NewFixedGenerator("only")))

	inc, err := rt.Uncaught(context.Background(), rt.Throw("", "boom", 0, nil, at("/a.php", 1)))
	require.NoError(t, err)
	assert.Equal(t, "only", inc.ID)
}

func TestUncaught_StoreSink(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "incidents.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	rt := New(
		WithLogger(testutil.DiscardLogger()),
		WithIncidentSink(st),
		WithIDGenerator(NewFixedGenerator("stored-1")),
	)
	require.NoError(t, rt.Enter(trace.Frame{Function: "handle", File: "/app/index.php", Line: 20, Args: []values.Value{values.Str("GET")}}))

	inc, err := rt.Uncaught(context.Background(), rt.Throw("LogicException", "unreachable", 1, nil, at("/app/router.php", 44)))
	require.NoError(t, err)

	got, err := st.ReadIncident(context.Background(), "stored-1")
	require.NoError(t, err)
	assert.Equal(t, inc.Diagnostic, got.Diagnostic)
	assert.Equal(t, inc.Fingerprint, got.Fingerprint)
	assert.Contains(t, got.TraceString, "handle('GET')")
	require.Len(t, got.Trace, 1)
	assert.Nil(t, got.Trace[0].Args)
}
