package identity

import (
	"context"
	"sync"

	id "atiende/pkg/domain"
	"atiende/pkg/platform/sentinel"
)

// InMemoryStore holds staff records for tests and local development.
type InMemoryStore struct {
	mu    sync.RWMutex
	staff map[id.UserID]*Staff
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{staff: make(map[id.UserID]*Staff)}
}

// Put inserts or replaces a staff record.
func (s *InMemoryStore) Put(staff *Staff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *staff
	s.staff[staff.ID] = &cp
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	staff, ok := s.staff[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *staff
	return &cp, nil
}

func (s *InMemoryStore) FindSupervisor(_ context.Context, dep id.Department) (*Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, staff := range s.staff {
		if staff.Dependencia == dep && staff.Rol == id.RoleSupervisor && staff.Activo {
			cp := *staff
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
