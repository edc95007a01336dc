package sinkmock

import (
	"context"
	"sync"

	"loanflow/internal/domain/audit"
)

// Sink records events in memory for assertions.
type Sink struct {
	mu     sync.Mutex
	Events []Event
}

type Event struct {
	Type      string
	SubjectID string
	Details   string
}

var _ audit.Sink = (*Sink)(nil)

func (s *Sink) Record(_ context.Context, eventType, subjectID, details string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, Event{Type: eventType, SubjectID: subjectID, Details: details})
}

func (s *Sink) Types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.Events))
	for _, e := range s.Events {
		out = append(out, e.Type)
	}
	return out
}
