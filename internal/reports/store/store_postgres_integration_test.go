//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"atiende/internal/reports/models"
	"atiende/internal/reports/store"
	id "atiende/pkg/domain"
	"atiende/pkg/platform/sentinel"
	"atiende/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "historial_cambios", "cierres_pendientes", "asignaciones", "reportes", "usuarios")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) seedReport(tipo string, estado id.ReportState) *models.Report {
	report := &models.Report{
		ID:          id.NewReportID(),
		Tipo:        tipo,
		Descripcion: "incidente de prueba",
		Lat:         19.43,
		Lng:         -99.13,
		Peso:        1,
		Dependencia: "obras_publicas",
		Estado:      estado,
		CreadoEn:    time.Now().UTC(),
	}
	s.Require().NoError(s.store.Create(context.Background(), report))
	return report
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	report := s.seedReport("baches", id.StateOpen)

	found, err := s.store.FindByID(context.Background(), report.ID)
	s.Require().NoError(err)
	s.Equal(report.ID, found.ID)
	s.Equal("baches", found.Tipo)
	s.Equal(id.StateOpen, found.Estado)
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(context.Background(), id.NewReportID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentStateTransitions verifies the conditional UPDATE closes the
// race: many writers race the open->assigned edge and exactly one wins.
func (s *PostgresStoreSuite) TestConcurrentStateTransitions() {
	ctx := context.Background()
	report := s.seedReport("baches", id.StateOpen)

	const goroutines = 20
	var wg sync.WaitGroup
	var wins atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.UpdateState(ctx, report.ID, id.StateOpen, id.StateAssigned); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())

	found, err := s.store.FindByID(ctx, report.ID)
	s.Require().NoError(err)
	s.Equal(id.StateAssigned, found.Estado)
}

func (s *PostgresStoreSuite) TestListFilters() {
	ctx := context.Background()
	s.seedReport("baches", id.StateOpen)
	s.seedReport("basura", id.StateOpen)
	closed := s.seedReport("baches", id.StateOpen)
	s.Require().NoError(s.store.UpdateState(ctx, closed.ID, id.StateOpen, id.StateAssigned))
	s.Require().NoError(s.store.UpdateState(ctx, closed.ID, id.StateAssigned, id.StatePendingClosure))
	s.Require().NoError(s.store.UpdateState(ctx, closed.ID, id.StatePendingClosure, id.StateClosed))

	open, err := s.store.List(ctx, models.ListFilter{Estado: models.EstadoAbiertos})
	s.Require().NoError(err)
	s.Len(open, 2)

	baches, err := s.store.List(ctx, models.ListFilter{Tipos: []string{"baches"}})
	s.Require().NoError(err)
	s.Len(baches, 2)
}

func (s *PostgresStoreSuite) TestCountRecentNear() {
	ctx := context.Background()
	s.seedReport("baches", id.StateOpen)

	count, err := s.store.CountRecentNear(ctx, "baches", 19.43001, -99.13001, 50, time.Now().Add(-time.Hour))
	s.Require().NoError(err)
	s.Equal(1, count)

	count, err = s.store.CountRecentNear(ctx, "baches", 19.5, -99.2, 50, time.Now().Add(-time.Hour))
	s.Require().NoError(err)
	s.Zero(count)
}
