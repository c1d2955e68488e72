package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"atiende/internal/reports/models"
	id "atiende/pkg/domain"
	"atiende/pkg/platform/sentinel"
)

// InMemory keeps reports in a map for tests and local development.
type InMemory struct {
	mu      sync.RWMutex
	reports map[id.ReportID]*models.Report
}

func NewInMemory() *InMemory {
	return &InMemory{reports: make(map[id.ReportID]*models.Report)}
}

func (s *InMemory) Create(_ context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reports[report.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *report
	s.reports[report.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, reportID id.ReportID) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[reportID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *report
	return &cp, nil
}

func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Report
	for _, r := range s.reports {
		if !matches(r, filter) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreadoEn.After(out[j].CreadoEn) })
	return out, nil
}

func (s *InMemory) UpdateState(_ context.Context, reportID id.ReportID, from, to id.ReportState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, ok := s.reports[reportID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if report.Estado != from {
		return sentinel.ErrInvalidState
	}
	report.Estado = to
	return nil
}

func (s *InMemory) UpdateLocation(_ context.Context, reportID id.ReportID, colonia, codigoPostal, municipio, estadoRegion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, ok := s.reports[reportID]
	if !ok {
		return sentinel.ErrNotFound
	}
	report.Colonia = colonia
	report.CodigoPostal = codigoPostal
	report.Municipio = municipio
	report.EstadoRegion = estadoRegion
	return nil
}

func (s *InMemory) CountRecentNear(_ context.Context, tipo string, lat, lng, radiusMeters float64, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, r := range s.reports {
		if r.Tipo != tipo || r.CreadoEn.Before(since) {
			continue
		}
		if haversineMeters(lat, lng, r.Lat, r.Lng) <= radiusMeters {
			count++
		}
	}
	return count, nil
}

func matches(r *models.Report, f models.ListFilter) bool {
	if f.MinLat != nil && f.MaxLat != nil && f.MinLng != nil && f.MaxLng != nil {
		if r.Lat < *f.MinLat || r.Lat > *f.MaxLat || r.Lng < *f.MinLng || r.Lng > *f.MaxLng {
			return false
		}
	}
	if len(f.Tipos) > 0 {
		found := false
		for _, t := range f.Tipos {
			if r.Tipo == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	switch f.Estado {
	case "":
	case models.EstadoAbiertos:
		if r.Estado == id.StateClosed {
			return false
		}
	default:
		if r.Estado.String() != f.Estado {
			return false
		}
	}
	if f.Dependencia != "" && r.Dependencia.String() != f.Dependencia {
		return false
	}
	if f.From != nil && r.CreadoEn.Before(*f.From) {
		return false
	}
	if f.To != nil && r.CreadoEn.After(*f.To) {
		return false
	}
	return true
}

const earthRadiusMeters = 6371000

func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}
