package closure

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"atiende/internal/assignment"
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

// AssignmentSource exposes the one assignment lookup this service needs.
type AssignmentSource interface {
	Current(ctx context.Context, reportID id.ReportID) (*assignment.Assignment, error)
}

// Service owns the supervised closure flow: staff petition to close a
// report, a supervisor from the requester's own department rules on it, and
// the report either closes or returns to the assignee.
type Service struct {
	store       Store
	reports     reportstore.Store
	assignments AssignmentSource
	staff       identity.Store
	recorder    *audit.Recorder
	tx          TxRunner
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

func New(store Store, reports reportstore.Store, assignments AssignmentSource, staff identity.Store, recorder *audit.Recorder, tx TxRunner, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:       store,
		reports:     reports,
		assignments: assignments,
		staff:       staff,
		recorder:    recorder,
		tx:          tx,
		logger:      logger,
		metrics:     m,
	}
}

// RequestInput is the content of a closure petition.
type RequestInput struct {
	NotasCierre    string
	FirmaDigital   string
	EvidenciaFotos []string
}

// RequestClosure files a closure petition for an assigned report. Only the
// report's current assignee (or an admin) may file one, and the reviewing
// supervisor comes from the requester's department.
func (s *Service) RequestClosure(ctx context.Context, reportID id.ReportID, in RequestInput) (*Request, error) {
	actor := requestcontext.ActorFrom(ctx)

	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	switch report.Estado {
	case id.StateClosed:
		return nil, dErrors.New(dErrors.CodeInvalidState, "report is already closed")
	case id.StatePendingClosure:
		return nil, dErrors.New(dErrors.CodeDuplicateRequest, "report already has a pending closure request")
	case id.StateOpen:
		return nil, dErrors.New(dErrors.CodeInvalidState, "report must be assigned before it can be closed")
	}

	if actor.Role != id.RoleAdmin {
		current, err := s.assignments.Current(ctx, reportID)
		if err != nil {
			return nil, err
		}
		if current.UsuarioID != actor.UserID {
			return nil, dErrors.New(dErrors.CodeAccessDenied, "only the assigned staff member may request closure")
		}
	}

	req := &Request{
		ID:                     id.NewClosureID(),
		ReportID:               reportID,
		SolicitanteID:          actor.UserID,
		DependenciaSolicitante: actor.Department,
		NotasCierre:            in.NotasCierre,
		FirmaDigital:           in.FirmaDigital,
		EvidenciaFotos:         in.EvidenciaFotos,
		Aprobado:               VerdictPending,
		FechaSolicitud:         requestcontext.Now(ctx),
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	supervisor, err := s.staff.FindSupervisor(ctx, actor.Department)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNoSupervisor,
			"no active supervisor configured for department "+actor.Department.String())
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to resolve supervisor")
	}
	req.SupervisorID = supervisor.ID

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, req); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeDuplicateRequest, "report already has a pending closure request")
			}
			return dErrors.Wrap(err, dErrors.CodeStorage, "failed to create closure request")
		}
		if err := s.transition(ctx, reportID, id.StateAssigned, id.StatePendingClosure); err != nil {
			return err
		}
		return s.recorder.Record(ctx, audit.Change{
			ReportID:        reportID,
			ActorID:         actor.UserID,
			TipoCambio:      audit.ChangeClosureRequested,
			CampoModificado: "estado",
			ValorAnterior:   id.StateAssigned.String(),
			ValorNuevo:      id.StatePendingClosure.String(),
			Razon:           in.NotasCierre,
			Dependencia:     actor.Department.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTransition(string(audit.ChangeClosureRequested))
	s.logger.InfoContext(ctx, "closure requested",
		"report_id", reportID,
		"closure_id", req.ID,
		"solicitante_id", actor.UserID,
		"supervisor_id", supervisor.ID,
		"fotos", len(in.EvidenciaFotos),
	)
	return req, nil
}

// Approve closes the report behind a pending request. Only an admin or a
// supervisor of the requester's department may approve.
func (s *Service) Approve(ctx context.Context, closureID id.ClosureID, notas string) (*Request, error) {
	return s.review(ctx, closureID, VerdictApproved, notas)
}

// Reject returns the report to its assignee. Supervisor notes explaining the
// rejection are mandatory.
func (s *Service) Reject(ctx context.Context, closureID id.ClosureID, notas string) (*Request, error) {
	if notas == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "rejection requires supervisor notes")
	}
	return s.review(ctx, closureID, VerdictRejected, notas)
}

func (s *Service) review(ctx context.Context, closureID id.ClosureID, verdict int, notas string) (*Request, error) {
	actor := requestcontext.ActorFrom(ctx)

	req, err := s.store.FindByID(ctx, closureID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "closure request not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load closure request")
	}
	if !req.Pending() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "closure request was already reviewed")
	}
	if !identity.CanReviewClosure(actor, req.DependenciaSolicitante) {
		return nil, dErrors.New(dErrors.CodeAccessDenied,
			"closure review belongs to supervisors of department "+req.DependenciaSolicitante.String())
	}

	to := id.StateClosed
	kind := audit.ChangeClosed
	outcome := "aprobado"
	if verdict == VerdictRejected {
		to = id.StateAssigned
		kind = audit.ChangeClosureRejected
		outcome = "rechazado"
	}

	now := requestcontext.Now(ctx)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Review(ctx, closureID, verdict, actor.UserID, notas, now); err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				return dErrors.New(dErrors.CodeInvalidState, "closure request was already reviewed")
			}
			return dErrors.Wrap(err, dErrors.CodeStorage, "failed to record review")
		}
		if err := s.transition(ctx, req.ReportID, id.StatePendingClosure, to); err != nil {
			return err
		}
		return s.recorder.Record(ctx, audit.Change{
			ReportID:        req.ReportID,
			ActorID:         actor.UserID,
			TipoCambio:      kind,
			CampoModificado: "estado",
			ValorAnterior:   id.StatePendingClosure.String(),
			ValorNuevo:      to.String(),
			Razon:           notas,
		})
	})
	if err != nil {
		return nil, err
	}

	req.Aprobado = verdict
	req.NotasSupervisor = notas
	req.SupervisorID = actor.UserID
	req.FechaRevision = &now

	s.metrics.IncrementClosureOutcome(outcome)
	s.metrics.IncrementTransition(string(kind))
	s.logger.InfoContext(ctx, "closure reviewed",
		"closure_id", closureID,
		"report_id", req.ReportID,
		"verdict", strconv.Itoa(verdict),
		"supervisor_id", actor.UserID,
	)
	return req, nil
}

// List returns closure requests visible to the actor. Supervisors see their
// own department's queue; admins see everything.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Request, error) {
	actor := requestcontext.ActorFrom(ctx)
	if actor.Role != id.RoleAdmin {
		filter.Dependencia = actor.Department
	}

	out, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list closure requests")
	}
	return out, nil
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
