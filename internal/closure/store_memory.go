package closure

import (
	"context"
	"sort"
	"sync"
	"time"

	id "atiende/pkg/domain"
	"atiende/pkg/platform/sentinel"
)

// InMemoryStore keeps closure requests in memory for tests and local runs.
type InMemoryStore struct {
	mu   sync.RWMutex
	byID map[id.ClosureID]*Request
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[id.ClosureID]*Request)}
}

func (s *InMemoryStore) Create(_ context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.byID {
		if existing.ReportID == req.ReportID && existing.Pending() {
			return sentinel.ErrConflict
		}
	}
	cp := clone(req)
	s.byID[req.ID] = cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, closureID id.ClosureID) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.byID[closureID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(req), nil
}

func (s *InMemoryStore) Review(_ context.Context, closureID id.ClosureID, verdict int, supervisorID id.UserID, notas string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.byID[closureID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !req.Pending() {
		return sentinel.ErrInvalidState
	}
	req.Aprobado = verdict
	req.SupervisorID = supervisorID
	req.NotasSupervisor = notas
	t := at
	req.FechaRevision = &t
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter ListFilter) ([]*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	verdict := VerdictPending
	if filter.Verdict != nil {
		verdict = *filter.Verdict
	}

	var out []*Request
	for _, req := range s.byID {
		if !filter.AllVerdicts && req.Aprobado != verdict {
			continue
		}
		if filter.Dependencia != "" && req.DependenciaSolicitante != filter.Dependencia {
			continue
		}
		if filter.From != nil && req.FechaSolicitud.Before(*filter.From) {
			continue
		}
		if filter.To != nil && req.FechaSolicitud.After(*filter.To) {
			continue
		}
		out = append(out, clone(req))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FechaSolicitud.Before(out[j].FechaSolicitud) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func clone(req *Request) *Request {
	cp := *req
	cp.EvidenciaFotos = append([]string(nil), req.EvidenciaFotos...)
	if req.FechaRevision != nil {
		t := *req.FechaRevision
		cp.FechaRevision = &t
	}
	return &cp
}
