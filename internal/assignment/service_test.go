package assignment_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"atiende/internal/assignment"
	"atiende/internal/audit"
	"atiende/internal/identity"
	"atiende/internal/reports/models"
	reportstore "atiende/internal/reports/store"
	id "atiende/pkg/domain"
	dErrors "atiende/pkg/domain-errors"
	"atiende/pkg/requestcontext"
)

type noopTx struct{}

func (noopTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type AssignmentSuite struct {
	suite.Suite
	reports    *reportstore.InMemory
	staff      *identity.InMemoryStore
	auditStore *audit.InMemoryStore
	service    *assignment.Service
}

func TestAssignmentSuite(t *testing.T) {
	suite.Run(t, new(AssignmentSuite))
}

func (s *AssignmentSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.reports = reportstore.NewInMemory()
	s.staff = identity.NewInMemoryStore()
	s.auditStore = audit.NewInMemoryStore()
	recorder := audit.NewRecorder(s.auditStore, logger)
	s.service = assignment.New(assignment.NewInMemoryStore(), s.reports, s.staff, recorder, noopTx{}, logger, nil)
}

func (s *AssignmentSuite) seedStaff(role id.Role, dep id.Department) *identity.Staff {
	member := &identity.Staff{
		ID:          id.NewUserID(),
		Nombre:      "Empleado Prueba",
		Dependencia: dep,
		Rol:         role,
		Activo:      true,
	}
	s.staff.Put(member)
	return member
}

func (s *AssignmentSuite) seedReport(dep id.Department) *models.Report {
	report := &models.Report{
		ID:          id.NewReportID(),
		Tipo:        "baches",
		Lat:         19.43,
		Lng:         -99.13,
		Peso:        1,
		Dependencia: dep,
		Estado:      id.StateOpen,
	}
	s.Require().NoError(s.reports.Create(context.Background(), report))
	return report
}

func (s *AssignmentSuite) ctxFor(member *identity.Staff) context.Context {
	return requestcontext.WithActor(context.Background(), requestcontext.Actor{
		UserID:     member.ID,
		Name:       member.Nombre,
		Role:       member.Rol,
		Department: member.Dependencia,
	})
}

func (s *AssignmentSuite) TestAssignWithinDepartment() {
	report := s.seedReport("obras_publicas")
	actor := s.seedStaff(id.RoleSupervisor, "obras_publicas")
	target := s.seedStaff(id.RoleFuncionario, "obras_publicas")

	assigned, err := s.service.Assign(s.ctxFor(actor), report.ID, target.ID, "zona norte")
	s.Require().NoError(err)
	s.Equal(target.ID, assigned.UsuarioID)
	s.Equal(actor.ID, assigned.AsignadoPor)

	stored, err := s.reports.FindByID(context.Background(), report.ID)
	s.Require().NoError(err)
	s.Equal(id.StateAssigned, stored.Estado)
}

func (s *AssignmentSuite) TestAssignDeniedForFuncionario() {
	report := s.seedReport("obras_publicas")
	actor := s.seedStaff(id.RoleFuncionario, "obras_publicas")
	target := s.seedStaff(id.RoleFuncionario, "obras_publicas")

	_, err := s.service.Assign(s.ctxFor(actor), report.ID, target.ID, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
}

func (s *AssignmentSuite) TestAssignConfinedToOwnDepartment() {
	report := s.seedReport("obras_publicas")
	actor := s.seedStaff(id.RoleSupervisor, "salud")
	target := s.seedStaff(id.RoleFuncionario, "obras_publicas")

	// The department path is closed to outside supervisors; delegation
	// is the route for that.
	_, err := s.service.Assign(s.ctxFor(actor), report.ID, target.ID, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
}

func (s *AssignmentSuite) TestDelegateOntoForeignReport() {
	// A salud supervisor places obras_publicas staff on an obras_publicas
	// report without any department match with the actor.
	report := s.seedReport("obras_publicas")
	supervisor := s.seedStaff(id.RoleSupervisor, "salud")
	target := s.seedStaff(id.RoleFuncionario, "obras_publicas")

	assigned, err := s.service.Delegate(s.ctxFor(supervisor), report.ID, target.ID, "apoyo externo")
	s.Require().NoError(err)
	s.Equal(target.ID, assigned.UsuarioID)

	stored, err := s.reports.FindByID(context.Background(), report.ID)
	s.Require().NoError(err)
	s.Equal(id.StateAssigned, stored.Estado)
}

func (s *AssignmentSuite) TestDelegateOwnStaffAcrossDepartments() {
	report := s.seedReport("obras_publicas")
	supervisor := s.seedStaff(id.RoleSupervisor, "salud")
	delegate := s.seedStaff(id.RoleFuncionario, "salud")

	assigned, err := s.service.Delegate(s.ctxFor(supervisor), report.ID, delegate.ID, "apoyo externo")
	s.Require().NoError(err)
	s.Equal(delegate.ID, assigned.UsuarioID)
}

func (s *AssignmentSuite) TestDelegateDeniedForFuncionario() {
	report := s.seedReport("obras_publicas")
	actor := s.seedStaff(id.RoleFuncionario, "salud")
	target := s.seedStaff(id.RoleFuncionario, "obras_publicas")

	_, err := s.service.Delegate(s.ctxFor(actor), report.ID, target.ID, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
}

func (s *AssignmentSuite) TestAssignRejectsInactiveTarget() {
	report := s.seedReport("obras_publicas")
	actor := s.seedStaff(id.RoleSupervisor, "obras_publicas")
	target := s.seedStaff(id.RoleFuncionario, "obras_publicas")
	target.Activo = false
	s.staff.Put(target)

	_, err := s.service.Assign(s.ctxFor(actor), report.ID, target.ID, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *AssignmentSuite) TestAssignRejectsUnknownTarget() {
	report := s.seedReport("obras_publicas")
	actor := s.seedStaff(id.RoleSupervisor, "obras_publicas")

	_, err := s.service.Assign(s.ctxFor(actor), report.ID, id.NewUserID(), "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *AssignmentSuite) TestReassignmentSupersedes() {
	report := s.seedReport("obras_publicas")
	actor := s.seedStaff(id.RoleSupervisor, "obras_publicas")
	first := s.seedStaff(id.RoleFuncionario, "obras_publicas")
	second := s.seedStaff(id.RoleFuncionario, "obras_publicas")

	ctx := s.ctxFor(actor)
	a1, err := s.service.Assign(ctx, report.ID, first.ID, "")
	s.Require().NoError(err)
	a2, err := s.service.Assign(ctx, report.ID, second.ID, "relevo")
	s.Require().NoError(err)
	s.NotEqual(a1.ID, a2.ID)

	current, err := s.service.Current(ctx, report.ID)
	s.Require().NoError(err)
	s.Equal(second.ID, current.UsuarioID)

	chain, err := s.service.History(ctx, report.ID)
	s.Require().NoError(err)
	s.Require().Len(chain, 2)
	s.Equal(second.ID, chain[0].UsuarioID)
	s.NotNil(chain[1].ReemplazadaEn)
}

func (s *AssignmentSuite) TestSameAssigneeIsNoOp() {
	report := s.seedReport("obras_publicas")
	actor := s.seedStaff(id.RoleSupervisor, "obras_publicas")
	target := s.seedStaff(id.RoleFuncionario, "obras_publicas")

	ctx := s.ctxFor(actor)
	a1, err := s.service.Assign(ctx, report.ID, target.ID, "")
	s.Require().NoError(err)
	a2, err := s.service.Assign(ctx, report.ID, target.ID, "otra vez")
	s.Require().NoError(err)
	s.Equal(a1.ID, a2.ID)

	entries, err := s.auditStore.ListByReport(ctx, report.ID)
	s.Require().NoError(err)
	s.Len(entries, 1, "a no-op reassignment must not add history")
}

func (s *AssignmentSuite) TestDelegateAuditEntry() {
	report := s.seedReport("obras_publicas")
	supervisor := s.seedStaff(id.RoleSupervisor, "salud")
	delegate := s.seedStaff(id.RoleFuncionario, "salud")

	ctx := s.ctxFor(supervisor)
	_, err := s.service.Delegate(ctx, report.ID, delegate.ID, "apoyo externo")
	s.Require().NoError(err)

	entries, err := s.auditStore.ListByReport(ctx, report.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	entry := entries[0]
	s.Equal(audit.ChangeAssignment, entry.TipoCambio)
	s.Equal("asignado_a", entry.CampoModificado)
	s.Empty(entry.ValorAnterior)
	s.Equal(delegate.ID.String(), entry.ValorNuevo)
	s.Equal("salud", entry.Metadatos.Dependencia)
	s.Equal(supervisor.Nombre, entry.Metadatos.AsignadoPorNombre)
}

func (s *AssignmentSuite) TestAssignClosedReportFails() {
	report := s.seedReport("obras_publicas")
	actor := s.seedStaff(id.RoleSupervisor, "obras_publicas")
	target := s.seedStaff(id.RoleFuncionario, "obras_publicas")

	ctx := context.Background()
	s.Require().NoError(s.reports.UpdateState(ctx, report.ID, id.StateOpen, id.StateAssigned))
	s.Require().NoError(s.reports.UpdateState(ctx, report.ID, id.StateAssigned, id.StatePendingClosure))
	s.Require().NoError(s.reports.UpdateState(ctx, report.ID, id.StatePendingClosure, id.StateClosed))

	_, err := s.service.Assign(s.ctxFor(actor), report.ID, target.ID, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *AssignmentSuite) TestUnassignReturnsReportToOpen() {
	report := s.seedReport("obras_publicas")
	actor := s.seedStaff(id.RoleSupervisor, "obras_publicas")
	target := s.seedStaff(id.RoleFuncionario, "obras_publicas")

	ctx := s.ctxFor(actor)
	_, err := s.service.Assign(ctx, report.ID, target.ID, "")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Unassign(ctx, report.ID, target.ID))

	stored, err := s.reports.FindByID(ctx, report.ID)
	s.Require().NoError(err)
	s.Equal(id.StateOpen, stored.Estado)

	_, err = s.service.Current(ctx, report.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	entries, err := s.auditStore.ListByReport(ctx, report.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(audit.ChangeUnassignment, entries[1].TipoCambio)
}

func (s *AssignmentSuite) TestUnassignWrongStaffMember() {
	report := s.seedReport("obras_publicas")
	actor := s.seedStaff(id.RoleSupervisor, "obras_publicas")
	target := s.seedStaff(id.RoleFuncionario, "obras_publicas")
	other := s.seedStaff(id.RoleFuncionario, "obras_publicas")

	ctx := s.ctxFor(actor)
	_, err := s.service.Assign(ctx, report.ID, target.ID, "")
	s.Require().NoError(err)

	err = s.service.Unassign(ctx, report.ID, other.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	// The real assignment survives.
	current, err := s.service.Current(ctx, report.ID)
	s.Require().NoError(err)
	s.Equal(target.ID, current.UsuarioID)
}

func (s *AssignmentSuite) TestUnassignDeniedForFuncionario() {
	report := s.seedReport("obras_publicas")
	supervisor := s.seedStaff(id.RoleSupervisor, "obras_publicas")
	target := s.seedStaff(id.RoleFuncionario, "obras_publicas")

	_, err := s.service.Assign(s.ctxFor(supervisor), report.ID, target.ID, "")
	s.Require().NoError(err)

	err = s.service.Unassign(s.ctxFor(target), report.ID, target.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
}

func (s *AssignmentSuite) TestUnassignUnassignedReportFails() {
	report := s.seedReport("obras_publicas")
	actor := s.seedStaff(id.RoleSupervisor, "obras_publicas")

	err := s.service.Unassign(s.ctxFor(actor), report.ID, id.NewUserID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}
