package service_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"atiende/internal/audit"
	"atiende/internal/platform/config"
	"atiende/internal/reports/dedupe"
	"atiende/internal/reports/models"
	"atiende/internal/reports/service"
	reportstore "atiende/internal/reports/store"
	id "atiende/pkg/domain"
	dErrors "atiende/pkg/domain-errors"
	"atiende/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	store      *reportstore.InMemory
	auditStore *audit.InMemoryStore
	service    *service.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = reportstore.NewInMemory()
	s.auditStore = audit.NewInMemoryStore()
	recorder := audit.NewRecorder(s.auditStore, logger)
	s.service = service.New(s.store, recorder, dedupe.Disabled{}, service.NoopTxRunner{}, logger, nil)
}

func (s *ServiceSuite) adminCtx() context.Context {
	return requestcontext.WithActor(context.Background(), requestcontext.Actor{
		UserID:     id.NewUserID(),
		Name:       "Admin Uno",
		Role:       id.RoleAdmin,
		Department: id.DepartmentAdministration,
	})
}

func (s *ServiceSuite) staffCtx(role id.Role, dep id.Department) context.Context {
	return requestcontext.WithActor(context.Background(), requestcontext.Actor{
		UserID:     id.NewUserID(),
		Role:       role,
		Department: dep,
	})
}

func (s *ServiceSuite) TestCreateRoutesByCategory() {
	report, err := s.service.Create(context.Background(), service.CreateInput{
		Tipo:        "baches",
		Descripcion: "bache grande en la avenida",
		Lat:         19.43,
		Lng:         -99.13,
	})
	s.Require().NoError(err)
	s.Equal(id.Department("obras_publicas"), report.Dependencia)
	s.Equal(id.StateOpen, report.Estado)
	s.Equal(1, report.Peso)
}

func (s *ServiceSuite) TestCreateNormalizesCategory() {
	report, err := s.service.Create(context.Background(), service.CreateInput{
		Tipo: " Fuga-Agua ",
		Lat:  19.43,
		Lng:  -99.13,
	})
	s.Require().NoError(err)
	s.Equal("fuga_agua", report.Tipo)
	s.Equal(id.Department("agua_potable"), report.Dependencia)
}

func (s *ServiceSuite) TestCreateUnknownCategoryFallsBack() {
	report, err := s.service.Create(context.Background(), service.CreateInput{
		Tipo: "ovni",
		Lat:  19.43,
		Lng:  -99.13,
	})
	s.Require().NoError(err)
	s.Equal(id.DepartmentAdministration, report.Dependencia)
}

func (s *ServiceSuite) TestCreateValidatesCoordinates() {
	_, err := s.service.Create(context.Background(), service.CreateInput{
		Tipo: "baches",
		Lat:  91,
		Lng:  0,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Create(context.Background(), service.CreateInput{
		Tipo: "baches",
		Lat:  0,
		Lng:  -181,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestCreateDerivesShortDescription() {
	long := strings.Repeat("a", 150)
	report, err := s.service.Create(context.Background(), service.CreateInput{
		Tipo:        "basura",
		Descripcion: long,
		Lat:         19.43,
		Lng:         -99.13,
	})
	s.Require().NoError(err)
	s.Len(report.DescripcionCorta, 103)
	s.True(strings.HasSuffix(report.DescripcionCorta, "..."))
}

func (s *ServiceSuite) TestCreateWithDedupeEnabled() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(s.auditStore, logger)
	checker := dedupe.NewStoreChecker(s.store, config.DedupeConfig{
		Enabled:      true,
		RadiusMeters: 50,
		Window:       24 * time.Hour,
	})
	svc := service.New(s.store, recorder, checker, service.NoopTxRunner{}, logger, nil)

	first, err := svc.Create(context.Background(), service.CreateInput{
		Tipo: "baches",
		Lat:  19.4300,
		Lng:  -99.1300,
	})
	s.Require().NoError(err)
	s.NotNil(first)

	// Same category a few meters away inside the window.
	_, err = svc.Create(context.Background(), service.CreateInput{
		Tipo: "baches",
		Lat:  19.43001,
		Lng:  -99.13001,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	// Different category at the same spot is fine.
	_, err = svc.Create(context.Background(), service.CreateInput{
		Tipo: "alumbrado",
		Lat:  19.4300,
		Lng:  -99.1300,
	})
	s.NoError(err)
}

func (s *ServiceSuite) TestGetUnknownReport() {
	_, err := s.service.Get(context.Background(), id.NewReportID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestListFiltersByState() {
	for _, tipo := range []string{"baches", "basura"} {
		_, err := s.service.Create(context.Background(), service.CreateInput{
			Tipo: tipo,
			Lat:  19.43,
			Lng:  -99.13,
		})
		s.Require().NoError(err)
	}

	open, err := s.service.List(context.Background(), models.ListFilter{Estado: id.StateOpen.String()})
	s.Require().NoError(err)
	s.Len(open, 2)

	closed, err := s.service.List(context.Background(), models.ListFilter{Estado: id.StateClosed.String()})
	s.Require().NoError(err)
	s.Empty(closed)
}

func (s *ServiceSuite) TestReopenRequiresAdmin() {
	report := s.seedClosedReport()

	_, err := s.service.Reopen(s.staffCtx(id.RoleSupervisor, "obras_publicas"), report.ID, "la obra quedo mal hecha")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
}

func (s *ServiceSuite) TestReopenRequiresJustification() {
	report := s.seedClosedReport()

	for _, razon := range []string{"", "corto", "   espacios    "} {
		_, err := s.service.Reopen(s.adminCtx(), report.ID, razon)
		s.Require().Error(err, "razon %q", razon)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation), "razon %q", razon)
	}
}

func (s *ServiceSuite) TestReopenOnlyFromClosed() {
	report, err := s.service.Create(context.Background(), service.CreateInput{
		Tipo: "baches",
		Lat:  19.43,
		Lng:  -99.13,
	})
	s.Require().NoError(err)

	_, err = s.service.Reopen(s.adminCtx(), report.ID, "se reabre por seguimiento")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	var de *dErrors.Error
	s.Require().ErrorAs(err, &de)
	s.Contains(de.Message, "abierto")
}

func (s *ServiceSuite) TestReopenWritesAuditEntry() {
	report := s.seedClosedReport()
	ctx := s.adminCtx()

	reopened, err := s.service.Reopen(ctx, report.ID, "la obra quedo mal hecha")
	s.Require().NoError(err)
	s.Equal(id.StateOpen, reopened.Estado)

	stored, err := s.store.FindByID(ctx, report.ID)
	s.Require().NoError(err)
	s.Equal(id.StateOpen, stored.Estado)

	entries, err := s.auditStore.ListByReport(ctx, report.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(audit.ChangeReopened, entries[0].TipoCambio)
	s.Equal("estado", entries[0].CampoModificado)
	s.Equal("cerrado", entries[0].ValorAnterior)
	s.Equal("abierto", entries[0].ValorNuevo)
	s.Equal("la obra quedo mal hecha", entries[0].Razon)
}

func (s *ServiceSuite) seedClosedReport() *models.Report {
	ctx := context.Background()
	report, err := s.service.Create(ctx, service.CreateInput{
		Tipo: "baches",
		Lat:  19.43,
		Lng:  -99.13,
	})
	s.Require().NoError(err)

	s.Require().NoError(s.store.UpdateState(ctx, report.ID, id.StateOpen, id.StateAssigned))
	s.Require().NoError(s.store.UpdateState(ctx, report.ID, id.StateAssigned, id.StatePendingClosure))
	s.Require().NoError(s.store.UpdateState(ctx, report.ID, id.StatePendingClosure, id.StateClosed))
	report.Estado = id.StateClosed
	return report
}
