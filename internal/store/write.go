package store

import (
	"context"
	"fmt"

	"github.com/roach88/objkernel/internal/incident"
)

// WriteIncident inserts an incident and its causes in one transaction.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - rewriting the same ID
// is silently ignored, causes included. A different incident reusing an
// existing seq is a constraint violation.
//
// The trace is serialized to canonical JSON per RFC 8785.
func (s *Store) WriteIncident(ctx context.Context, inc incident.Incident) error {
	traceJSON, err := incident.EncodeTrace(inc.Trace)
	if err != nil {
		return fmt.Errorf("write incident: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write incident: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO incidents
		(id, seq, fingerprint, class, message, code, file, line, trace, trace_string, diagnostic, kernel_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		inc.ID,
		inc.Seq,
		inc.Fingerprint,
		inc.Class,
		inc.Message,
		inc.Code,
		inc.File,
		inc.Line,
		traceJSON,
		inc.TraceString,
		inc.Diagnostic,
		inc.KernelVersion,
	)
	if err != nil {
		return fmt.Errorf("write incident: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write incident: rows affected: %w", err)
	}
	if inserted == 0 {
		return nil
	}

	for _, c := range inc.Causes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO incident_causes
			(incident_id, depth, class, message, code, file, line)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, inc.ID, c.Depth, c.Class, c.Message, c.Code, c.File, c.Line)
		if err != nil {
			return fmt.Errorf("write incident cause %d: %w", c.Depth, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write incident: commit: %w", err)
	}
	return nil
}
