package assignment

import (
	"context"
	"errors"
	"log/slog"

	"atiende/internal/audit"
	"atiende/internal/identity"
	"atiende/internal/platform/metrics"
	"atiende/internal/reports/models"
	reportstore "atiende/internal/reports/store"
	id "atiende/pkg/domain"
	dErrors "atiende/pkg/domain-errors"
	"atiende/pkg/platform/sentinel"
	"atiende/pkg/requestcontext"
)

// TxRunner executes fn inside one storage transaction carried on the context.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service owns the assignment lifecycle: who works a report, reassignment,
// and unassignment. Two authorization paths exist: staff assign within the
// report's department, while admins and supervisors may pull in staff from
// any department.
type Service struct {
	store    Store
	reports  reportstore.Store
	staff    identity.Store
	recorder *audit.Recorder
	tx       TxRunner
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func New(store Store, reports reportstore.Store, staff identity.Store, recorder *audit.Recorder, tx TxRunner, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		reports:  reports,
		staff:    staff,
		recorder: recorder,
		tx:       tx,
		logger:   logger,
		metrics:  m,
	}
}

// Assign gives the report to targetID through the department path: the
// actor must be a supervisor or admin with access to the report's home
// department. Reassignment supersedes the current assignment; assigning the
// same staff member again is a no-op that returns the existing assignment.
func (s *Service) Assign(ctx context.Context, reportID id.ReportID, targetID id.UserID, notas string) (*Assignment, error) {
	actor := requestcontext.ActorFrom(ctx)
	if !identity.CanManageAssignments(actor) {
		return nil, dErrors.New(dErrors.CodeAccessDenied,
			"assigning reports requires a supervisor or administrator")
	}

	report, target, err := s.loadPair(ctx, reportID, targetID)
	if err != nil {
		return nil, err
	}
	if !identity.CanAccessReport(actor, report.Dependencia) {
		return nil, dErrors.New(dErrors.CodeAccessDenied,
			"report belongs to department "+report.Dependencia.String())
	}

	return s.place(ctx, actor, report, target, notas)
}

// Delegate pulls targetID onto the report regardless of either party's
// department. Any supervisor or admin may delegate; the requesting
// supervisor's own chain of command reviews the eventual closure, so no
// department match is required here.
func (s *Service) Delegate(ctx context.Context, reportID id.ReportID, targetID id.UserID, notas string) (*Assignment, error) {
	actor := requestcontext.ActorFrom(ctx)
	if !identity.CanAssignCrossDepartment(actor) {
		return nil, dErrors.New(dErrors.CodeAccessDenied,
			"cross-department assignment requires a supervisor or administrator")
	}

	report, target, err := s.loadPair(ctx, reportID, targetID)
	if err != nil {
		return nil, err
	}

	return s.place(ctx, actor, report, target, notas)
}

func (s *Service) loadPair(ctx context.Context, reportID id.ReportID, targetID id.UserID) (*models.Report, *identity.Staff, error) {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, nil, err
	}
	switch report.Estado {
	case id.StateClosed:
		return nil, nil, dErrors.New(dErrors.CodeInvalidState, "cannot assign a closed report")
	case id.StatePendingClosure:
		return nil, nil, dErrors.New(dErrors.CodeInvalidState, "cannot reassign a report awaiting closure review")
	}

	target, err := s.staff.FindByID(ctx, targetID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "assignee does not exist")
	}
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load assignee")
	}
	if !target.Activo {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "assignee is not an active staff member")
	}
	return report, target, nil
}

func (s *Service) place(ctx context.Context, actor requestcontext.Actor, report *models.Report, target *identity.Staff, notas string) (*Assignment, error) {
	reportID := report.ID
	targetID := target.ID

	current, err := s.store.FindCurrent(ctx, reportID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load current assignment")
	}
	if current != nil && current.UsuarioID == targetID {
		return current, nil
	}

	now := requestcontext.Now(ctx)
	next := &Assignment{
		ID:          id.NewAssignmentID(),
		ReportID:    reportID,
		UsuarioID:   targetID,
		AsignadoPor: actor.UserID,
		Notas:       notas,
		CreadoEn:    now,
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if current != nil {
			if err := s.store.Supersede(ctx, current.ID, now); err != nil {
				return dErrors.Wrap(err, dErrors.CodeStorage, "failed to supersede assignment")
			}
		}
		if err := s.store.Create(ctx, next); err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "failed to create assignment")
		}
		if report.Estado == id.StateOpen {
			if err := s.transition(ctx, reportID, id.StateOpen, id.StateAssigned); err != nil {
				return err
			}
		}
		prev := ""
		if current != nil {
			prev = current.UsuarioID.String()
		}
		return s.recorder.Record(ctx, audit.Change{
			ReportID:          reportID,
			ActorID:           actor.UserID,
			TipoCambio:        audit.ChangeAssignment,
			CampoModificado:   "asignado_a",
			ValorAnterior:     prev,
			ValorNuevo:        targetID.String(),
			Razon:             notas,
			Dependencia:       target.Dependencia.String(),
			AsignadoPorNombre: actor.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTransition(string(audit.ChangeAssignment))
	s.logger.InfoContext(ctx, "report assigned",
		"report_id", reportID,
		"usuario_id", targetID,
		"dependencia", target.Dependencia,
		"cross_department", target.Dependencia != report.Dependencia,
	)
	return next, nil
}

// Unassign withdraws targetID's assignment and returns the report to the
// open state. Removing the last assignment reopens the report.
func (s *Service) Unassign(ctx context.Context, reportID id.ReportID, targetID id.UserID) error {
	actor := requestcontext.ActorFrom(ctx)
	if !identity.CanManageAssignments(actor) {
		return dErrors.New(dErrors.CodeAccessDenied,
			"unassigning reports requires a supervisor or administrator")
	}

	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return err
	}
	if report.Estado != id.StateAssigned {
		return dErrors.New(dErrors.CodeInvalidState,
			"report is not assigned (current state: "+report.Estado.String()+")")
	}

	current, err := s.store.FindCurrent(ctx, reportID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "report has no active assignment")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to load current assignment")
	}
	if current.UsuarioID != targetID {
		return dErrors.New(dErrors.CodeNotFound, "staff member is not assigned to this report")
	}

	now := requestcontext.Now(ctx)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Supersede(ctx, current.ID, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "failed to supersede assignment")
		}
		if err := s.transition(ctx, reportID, id.StateAssigned, id.StateOpen); err != nil {
			return err
		}
		return s.recorder.Record(ctx, audit.Change{
			ReportID:        reportID,
			ActorID:         actor.UserID,
			TipoCambio:      audit.ChangeUnassignment,
			CampoModificado: "asignado_a",
			ValorAnterior:   current.UsuarioID.String(),
			ValorNuevo:      "",
		})
	})
	if err != nil {
		return err
	}

	s.metrics.IncrementTransition(string(audit.ChangeUnassignment))
	s.logger.InfoContext(ctx, "report unassigned", "report_id", reportID, "actor_id", actor.UserID)
	return nil
}

// Current returns the report's active assignment. The closure service uses
// this to verify the requester actually works the report.
func (s *Service) Current(ctx context.Context, reportID id.ReportID) (*Assignment, error) {
	current, err := s.store.FindCurrent(ctx, reportID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "report has no active assignment")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load current assignment")
	}
	return current, nil
}

// History returns the report's assignment chain, newest first.
func (s *Service) History(ctx context.Context, reportID id.ReportID) ([]*Assignment, error) {
	actor := requestcontext.ActorFrom(ctx)
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !identity.CanAccessReport(actor, report.Dependencia) && !identity.CanAssignCrossDepartment(actor) {
		return nil, dErrors.New(dErrors.CodeAccessDenied,
			"report belongs to department "+report.Dependencia.String())
	}
	chain, err := s.store.ListByReport(ctx, reportID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list assignments")
	}
	return chain, nil
}

func (s *Service) loadReport(ctx context.Context, reportID id.ReportID) (*models.Report, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "report not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load report")
	}
	return report, nil
}

func (s *Service) transition(ctx context.Context, reportID id.ReportID, from, to id.ReportState) error {
	if err := s.reports.UpdateState(ctx, reportID, from, to); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.New(dErrors.CodeInvalidState, "report state changed concurrently")
		}
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to update report state")
	}
	return nil
}
