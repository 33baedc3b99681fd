package incident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objkernel/internal/exception"
	"github.com/roach88/objkernel/internal/trace"
	"github.com/roach88/objkernel/internal/values"
)

func raised(t *testing.T, e *exception.Exception, file string, line int, frames ...trace.Frame) *exception.Exception {
	t.Helper()
	require.NoError(t, e.Finalize(trace.Location{File: file, Line: line}, frames))
	return e
}

func TestFromThrowable_Chain(t *testing.T) {
	e1 := raised(t, exception.New("disk full", 28, nil), "/app/io.php", 7)
	e2 := raised(t, exception.New("save failed", 0, e1, exception.WithClass("RuntimeException")),
		"/app/main.php", 4,
		trace.Frame{Function: "save", File: "/app/main.php", Line: 12, Args: []values.Value{values.Str("doc")}})

	inc, err := FromThrowable("inc-1", 3, e2)
	require.NoError(t, err)

	assert.Equal(t, "inc-1", inc.ID)
	assert.Equal(t, int64(3), inc.Seq)
	assert.Equal(t, "RuntimeException", inc.Class)
	assert.Equal(t, "save failed", inc.Message)
	assert.Equal(t, "/app/main.php", inc.File)
	assert.Equal(t, 4, inc.Line)
	assert.Equal(t, []trace.Frame{{Function: "save", File: "/app/main.php", Line: 12}}, inc.Trace)
	assert.Equal(t, "#0 /app/main.php(12): save('doc')", inc.TraceString)
	assert.Equal(t, []Cause{{Depth: 1, Class: "Exception", Message: "disk full", Code: 28, File: "/app/io.php", Line: 7}}, inc.Causes)
	assert.Equal(t, KernelVersion, inc.KernelVersion)
	assert.Len(t, inc.Fingerprint, 64)
}

func TestDiagnostic(t *testing.T) {
	e := raised(t, exception.New("boom", 0, nil), "/app/a.php", 9)

	assert.Equal(t,
		"PHP Fatal error:  Uncaught Exception: boom in /app/a.php:9\n"+
			"Stack trace:\n"+
			"#0 {main}\n"+
			"  thrown in /app/a.php on line 9",
		Diagnostic(e))
}

func TestDiagnostic_UnfinalizedRendersOnTheSpot(t *testing.T) {
	e := exception.New("late", 0, nil)
	assert.Contains(t, Diagnostic(e), "Uncaught Exception: late in :0")
}

func TestFingerprint_StableAcrossOccurrences(t *testing.T) {
	build := func(id string, seq int64, arg string) Incident {
		e := raised(t, exception.New("boom", 1, nil), "/a.php", 2,
			trace.Frame{Function: "f", File: "/a.php", Line: 5, Args: []values.Value{values.Str(arg)}})
		inc, err := FromThrowable(id, seq, e)
		require.NoError(t, err)
		return inc
	}

	a := build("a", 1, "x")
	b := build("b", 2, "y")
	assert.Equal(t, a.Fingerprint, b.Fingerprint)

	other := raised(t, exception.New("boom", 2, nil), "/a.php", 2)
	c, err := FromThrowable("c", 3, other)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestHashWithDomain_Separation(t *testing.T) {
	data := []byte("same")
	assert.NotEqual(t, hashWithDomain("a", data), hashWithDomain("b", data))
	assert.Equal(t, hashWithDomain("a", data), hashWithDomain("a", data))
}

func TestEncodeDecodeTrace(t *testing.T) {
	frames := []trace.Frame{
		{Function: "add", Class: "Cart", CallType: trace.CallInstance, File: "/c.php", Line: 3},
		{Function: "main"},
	}
	data, err := EncodeTrace(frames)
	require.NoError(t, err)

	got, err := DecodeTrace(data)
	require.NoError(t, err)
	assert.Equal(t, frames, got)

	_, err = DecodeTrace(`"nope"`)
	assert.Error(t, err)
	_, err = DecodeTrace(`[`)
	assert.Error(t, err)
}

func TestStripArgs(t *testing.T) {
	in := []trace.Frame{{Function: "f", Args: []values.Value{values.Int(1)}}}
	out := StripArgs(in)
	assert.Nil(t, out[0].Args)
	assert.NotNil(t, in[0].Args)
}
