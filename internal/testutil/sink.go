package testutil

import (
	"context"
	"sync"

	"github.com/roach88/objkernel/internal/incident"
)

// RecordingSink keeps incidents in memory. Set Err to make writes fail.
type RecordingSink struct {
	mu        sync.Mutex
	incidents []incident.Incident
	Err       error
}

// WriteIncident records inc unless Err is set.
func (s *RecordingSink) WriteIncident(_ context.Context, inc incident.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.incidents = append(s.incidents, inc)
	return nil
}

// Incidents returns a copy of everything recorded so far.
func (s *RecordingSink) Incidents() []incident.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]incident.Incident(nil), s.incidents...)
}
