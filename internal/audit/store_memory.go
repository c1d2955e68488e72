package audit

import (
	"context"
	"sort"
	"sync"

	id "atiende/pkg/domain"
)

// InMemoryStore keeps entries per report for tests and local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.ReportID][]*Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.ReportID][]*Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries[entry.ReportID] = append(s.entries[entry.ReportID], &cp)
	return nil
}

func (s *InMemoryStore) ListByReport(_ context.Context, reportID id.ReportID) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entry, 0, len(s.entries[reportID]))
	for _, e := range s.entries[reportID] {
		cp := *e
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreadoEn.Before(out[j].CreadoEn) })
	return out, nil
}
