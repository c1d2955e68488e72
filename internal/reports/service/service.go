package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"atiende/internal/audit"
	"atiende/internal/platform/metrics"
	"atiende/internal/reports/dedupe"
	"atiende/internal/reports/models"
	"atiende/internal/reports/routing"
	reportstore "atiende/internal/reports/store"
	id "atiende/pkg/domain"
	dErrors "atiende/pkg/domain-errors"
	"atiende/pkg/platform/sentinel"
	"atiende/pkg/requestcontext"
)

// TxRunner executes fn inside one storage transaction; the transaction rides
// the context so stores pick it up transparently. The no-op runner (memory
// stores) just calls fn.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopTxRunner runs the unit of work without transactional guarantees.
type NoopTxRunner struct{}

func (NoopTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Service owns report creation, listing, and the administrative reopen
// transition. Assignment and closure live in their own services.
type Service struct {
	store    reportstore.Store
	recorder *audit.Recorder
	checker  dedupe.Checker
	tx       TxRunner
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func New(store reportstore.Store, recorder *audit.Recorder, checker dedupe.Checker, tx TxRunner, logger *slog.Logger, m *metrics.Metrics) *Service {
	if checker == nil {
		checker = dedupe.Disabled{}
	}
	if tx == nil {
		tx = NoopTxRunner{}
	}
	return &Service{store: store, recorder: recorder, checker: checker, tx: tx, logger: logger, metrics: m}
}

// CreateInput is a citizen submission.
type CreateInput struct {
	Tipo             string
	Descripcion      string
	DescripcionCorta string
	Lat              float64
	Lng              float64
	Peso             int
}

// Create routes the submission to its owning department and persists it in
// the open state. Unknown categories never fail; they land in the
// administration catch-all.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Report, error) {
	tipo := routing.NormalizeCategory(in.Tipo)
	peso := in.Peso
	if peso == 0 {
		peso = 1
	}

	report := &models.Report{
		ID:               id.NewReportID(),
		Tipo:             tipo,
		Descripcion:      in.Descripcion,
		DescripcionCorta: in.DescripcionCorta,
		Lat:              in.Lat,
		Lng:              in.Lng,
		Peso:             peso,
		Dependencia:      routing.Resolve(tipo),
		Estado:           id.StateOpen,
		CreadoEn:         requestcontext.Now(ctx),
	}
	if err := report.Validate(); err != nil {
		return nil, err
	}
	report.DeriveShortDescription()

	dup, err := s.checker.IsDuplicate(ctx, report.Tipo, report.Lat, report.Lng)
	if err != nil {
		// The check is advisory; a broken checker must not block citizens.
		s.logger.WarnContext(ctx, "duplicate pre-check failed", "error", err)
	} else if dup {
		s.metrics.IncrementDedupeVerdict("duplicate")
		return nil, dErrors.New(dErrors.CodeValidation, "a similar report already exists nearby")
	}

	if err := s.store.Create(ctx, report); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to create report")
	}

	if obs, ok := s.checker.(dedupe.Observer); ok {
		if err := obs.Observe(ctx, report.Tipo, report.ID.String(), report.Lat, report.Lng); err != nil {
			s.logger.WarnContext(ctx, "failed to index report for dedupe", "error", err)
		}
	}

	s.metrics.IncrementReportsCreated(report.Dependencia.String())
	s.logger.InfoContext(ctx, "report created",
		"report_id", report.ID,
		"tipo", report.Tipo,
		"dependencia", report.Dependencia,
	)
	return report, nil
}

// Get returns one report.
func (s *Service) Get(ctx context.Context, reportID id.ReportID) (*models.Report, error) {
	report, err := s.store.FindByID(ctx, reportID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "report not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load report")
	}
	return report, nil
}

// List returns reports matching the filter.
func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]*models.Report, error) {
	reports, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list reports")
	}
	return reports, nil
}

// History returns the report's change history, oldest first.
func (s *Service) History(ctx context.Context, reportID id.ReportID) ([]*audit.Entry, error) {
	if _, err := s.Get(ctx, reportID); err != nil {
		return nil, err
	}
	return s.recorder.History(ctx, reportID)
}

// minReopenReasonLen is the mandatory justification floor for reopening.
const minReopenReasonLen = 10

// Reopen moves a closed report back to open. Admin-only (enforced again
// here, not just at the route), with a mandatory justification. The state
// change and its audit entry commit in one transaction.
func (s *Service) Reopen(ctx context.Context, reportID id.ReportID, razon string) (*models.Report, error) {
	actor := requestcontext.ActorFrom(ctx)
	if actor.Role != id.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeAccessDenied, "only administrators may reopen reports")
	}

	razon = strings.TrimSpace(razon)
	if len(razon) < minReopenReasonLen {
		return nil, dErrors.New(dErrors.CodeValidation, "reopening requires a justification of at least 10 characters")
	}

	report, err := s.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.Estado != id.StateClosed {
		return nil, dErrors.New(dErrors.CodeInvalidState,
			"report is not closed (current state: "+report.Estado.String()+")")
	}

	prev := report.Estado
	if err := report.TransitionTo(id.StateOpen); err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateState(ctx, reportID, prev, id.StateOpen); err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				return dErrors.New(dErrors.CodeInvalidState, "report state changed concurrently")
			}
			return dErrors.Wrap(err, dErrors.CodeStorage, "failed to reopen report")
		}
		return s.recorder.Record(ctx, audit.Change{
			ReportID:        reportID,
			ActorID:         actor.UserID,
			TipoCambio:      audit.ChangeReopened,
			CampoModificado: "estado",
			ValorAnterior:   prev.String(),
			ValorNuevo:      id.StateOpen.String(),
			Razon:           razon,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTransition(string(audit.ChangeReopened))
	s.logger.InfoContext(ctx, "report reopened",
		"report_id", reportID,
		"actor_id", actor.UserID,
	)
	return report, nil
}
