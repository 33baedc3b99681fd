package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/objkernel/internal/incident"
)

const incidentColumns = `id, seq, fingerprint, class, message, code, file, line, trace, trace_string, diagnostic, kernel_version`

// ReadIncident returns the incident with the given ID, causes included.
// Returns ErrNotFound when no such incident exists.
func (s *Store) ReadIncident(ctx context.Context, id string) (incident.Incident, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+incidentColumns+`
		FROM incidents
		WHERE id = ?
	`, id)

	inc, err := scanIncident(row)
	if errors.Is(err, sql.ErrNoRows) {
		return incident.Incident{}, fmt.Errorf("read incident %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return incident.Incident{}, fmt.Errorf("read incident %s: %w", id, err)
	}

	inc.Causes, err = s.readCauses(ctx, id)
	if err != nil {
		return incident.Incident{}, err
	}
	return inc, nil
}

// ListIncidents returns every incident in seq order, causes included.
func (s *Store) ListIncidents(ctx context.Context) ([]incident.Incident, error) {
	return s.queryIncidents(ctx, `
		SELECT `+incidentColumns+`
		FROM incidents
		ORDER BY seq ASC, id ASC COLLATE BINARY
	`)
}

// IncidentsByFingerprint returns the occurrences of one failure in seq order.
func (s *Store) IncidentsByFingerprint(ctx context.Context, fingerprint string) ([]incident.Incident, error) {
	return s.queryIncidents(ctx, `
		SELECT `+incidentColumns+`
		FROM incidents
		WHERE fingerprint = ?
		ORDER BY seq ASC, id ASC COLLATE BINARY
	`, fingerprint)
}

// MaxSeq returns the highest stored seq, or 0 for an empty store. A clock
// resumed at this value continues the sequence.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM incidents`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq.Int64, nil
}

func (s *Store) queryIncidents(ctx context.Context, query string, args ...any) ([]incident.Incident, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query incidents: %w", err)
	}

	incidents := []incident.Incident{}
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}
	rows.Close()

	// Causes are read after the cursor is closed: the pool holds a single
	// connection.
	for i := range incidents {
		incidents[i].Causes, err = s.readCauses(ctx, incidents[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return incidents, nil
}

func (s *Store) readCauses(ctx context.Context, id string) ([]incident.Cause, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT depth, class, message, code, file, line
		FROM incident_causes
		WHERE incident_id = ?
		ORDER BY depth ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("read causes %s: %w", id, err)
	}
	defer rows.Close()

	causes := []incident.Cause{}
	for rows.Next() {
		var c incident.Cause
		if err := rows.Scan(&c.Depth, &c.Class, &c.Message, &c.Code, &c.File, &c.Line); err != nil {
			return nil, fmt.Errorf("scan cause: %w", err)
		}
		causes = append(causes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate causes: %w", err)
	}
	return causes, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (incident.Incident, error) {
	var inc incident.Incident
	var traceJSON string
	err := row.Scan(
		&inc.ID,
		&inc.Seq,
		&inc.Fingerprint,
		&inc.Class,
		&inc.Message,
		&inc.Code,
		&inc.File,
		&inc.Line,
		&traceJSON,
		&inc.TraceString,
		&inc.Diagnostic,
		&inc.KernelVersion,
	)
	if err != nil {
		return incident.Incident{}, err
	}

	inc.Trace, err = incident.DecodeTrace(traceJSON)
	if err != nil {
		return incident.Incident{}, err
	}
	return inc, nil
}
