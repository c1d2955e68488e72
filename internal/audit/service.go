package audit

import (
	"context"
	"log/slog"

	id "atiende/pkg/domain"
	dErrors "atiende/pkg/domain-errors"
	"atiende/pkg/requestcontext"
)

// Store persists audit entries. Append never mutates existing rows.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	ListByReport(ctx context.Context, reportID id.ReportID) ([]*Entry, error)
}

// Recorder is the single writer path shared by every workflow transition.
// When the caller runs it inside a transaction (pkg/platform/tx), the entry
// commits atomically with the state change it documents.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Change captures one transition for recording.
type Change struct {
	ReportID        id.ReportID
	ActorID         id.UserID
	TipoCambio      ChangeKind
	CampoModificado string
	ValorAnterior   string
	ValorNuevo      string
	Razon           string

	// Optional denormalized context.
	Dependencia       string
	AsignadoPorNombre string
}

// Record appends one entry, pulling client IP, User-Agent, and the request
// clock from context. A failed append surfaces as a storage error so the
// enclosing transaction rolls back; audit writes are not fire-and-forget.
func (r *Recorder) Record(ctx context.Context, change Change) error {
	entry := &Entry{
		ID:              id.NewAuditEntryID(),
		ReportID:        change.ReportID,
		ActorID:         change.ActorID,
		TipoCambio:      change.TipoCambio,
		CampoModificado: change.CampoModificado,
		ValorAnterior:   change.ValorAnterior,
		ValorNuevo:      change.ValorNuevo,
		Razon:           change.Razon,
		Metadatos: Metadata{
			IP:                requestcontext.ClientIP(ctx),
			UserAgent:         requestcontext.UserAgent(ctx),
			Timestamp:         requestcontext.Now(ctx),
			Dependencia:       change.Dependencia,
			AsignadoPorNombre: change.AsignadoPorNombre,
		},
		CreadoEn: requestcontext.Now(ctx),
	}

	if err := r.store.Append(ctx, entry); err != nil {
		r.logger.ErrorContext(ctx, "audit append failed",
			"report_id", change.ReportID,
			"tipo_cambio", change.TipoCambio,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to record change history")
	}
	return nil
}

// History returns a report's full change history, oldest first.
func (r *Recorder) History(ctx context.Context, reportID id.ReportID) ([]*Entry, error) {
	entries, err := r.store.ListByReport(ctx, reportID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load change history")
	}
	return entries, nil
}
