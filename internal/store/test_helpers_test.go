package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/objkernel/internal/incident"
	"github.com/roach88/objkernel/internal/trace"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestIncident creates an incident with one frame and no causes.
func createTestIncident(id string, seq int64) incident.Incident {
	return incident.Incident{
		ID:            id,
		Seq:           seq,
		Fingerprint:   "fp-" + id,
		Class:         "Exception",
		Message:       "boom",
		Code:          1,
		File:          "/app/main.php",
		Line:          10,
		Trace:         []trace.Frame{{Function: "run", File: "/app/main.php", Line: 20}},
		TraceString:   "#0 /app/main.php(20): run()",
		Diagnostic:    "PHP Fatal error:  Uncaught Exception: boom",
		Causes:        []incident.Cause{},
		KernelVersion: incident.KernelVersion,
	}
}
