package assignment

import (
	"context"
	"sort"
	"sync"
	"time"

	id "atiende/pkg/domain"
	"atiende/pkg/platform/sentinel"
)

// InMemoryStore keeps assignments in memory for tests and local runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	byID     map[id.AssignmentID]*Assignment
	byReport map[id.ReportID][]id.AssignmentID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:     make(map[id.AssignmentID]*Assignment),
		byReport: make(map[id.ReportID][]id.AssignmentID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, a *Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	s.byID[a.ID] = &cp
	s.byReport[a.ReportID] = append(s.byReport[a.ReportID], a.ID)
	return nil
}

func (s *InMemoryStore) FindCurrent(_ context.Context, reportID id.ReportID) (*Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, aid := range s.byReport[reportID] {
		if a := s.byID[aid]; a.Active() {
			cp := *a
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Supersede(_ context.Context, assignmentID id.AssignmentID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[assignmentID]
	if !ok {
		return sentinel.ErrNotFound
	}
	t := at
	a.ReemplazadaEn = &t
	return nil
}

func (s *InMemoryStore) ListByReport(_ context.Context, reportID id.ReportID) ([]*Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Assignment, 0, len(s.byReport[reportID]))
	for _, aid := range s.byReport[reportID] {
		cp := *s.byID[aid]
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreadoEn.After(out[j].CreadoEn) })
	return out, nil
}
