package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atiende/internal/audit"
	"atiende/internal/reports/models"
	"atiende/internal/reports/service"
	id "atiende/pkg/domain"
	dErrors "atiende/pkg/domain-errors"
	"atiende/pkg/platform/httputil"
	"atiende/pkg/platform/middleware/auth"
)

// Service is the report operations surface the handler consumes.
type Service interface {
	Create(ctx context.Context, in service.CreateInput) (*models.Report, error)
	Get(ctx context.Context, reportID id.ReportID) (*models.Report, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Report, error)
	History(ctx context.Context, reportID id.ReportID) ([]*audit.Entry, error)
	Reopen(ctx context.Context, reportID id.ReportID, razon string) (*models.Report, error)
}

// Handler serves the report endpoints.
type Handler struct {
	reports   Service
	logger    *slog.Logger
	validator auth.TokenValidator
}

func New(reports Service, validator auth.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{reports: reports, validator: validator, logger: logger}
}

// Register mounts the report routes. Creation and reads are open to
// citizens; history and reopening require a staff session.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/reportes", h.handleCreate)
	r.Get("/api/reportes", h.handleList)
	r.Get("/api/reportes/{id}", h.handleGet)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(h.validator, h.logger))
		r.Get("/api/reportes/{id}/historial", h.handleHistory)
		r.With(auth.RequireRole(h.logger, id.RoleAdmin)).
			Post("/api/reportes/{id}/reabrir", h.handleReopen)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[createReportRequest](w, r, h.logger)
	if !ok {
		return
	}

	report, err := h.reports.Create(r.Context(), service.CreateInput{
		Tipo:             req.Tipo,
		Descripcion:      req.Descripcion,
		DescripcionCorta: req.DescripcionCorta,
		Lat:              req.Lat,
		Lng:              req.Lng,
		Peso:             req.Peso,
	})
	if err != nil {
		h.logger.WarnContext(r.Context(), "report creation rejected", "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, newReportResponse(report))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reports, err := h.reports.List(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list reports", "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, newReportListResponse(reports))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reportID, err := id.ParseReportID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.reports.Get(r.Context(), reportID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, newReportResponse(report))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	reportID, err := id.ParseReportID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.reports.History(r.Context(), reportID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load report history",
			"report_id", reportID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, newHistoryResponse(reportID, entries))
}

func (h *Handler) handleReopen(w http.ResponseWriter, r *http.Request) {
	reportID, err := id.ParseReportID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[reopenRequest](w, r, h.logger)
	if !ok {
		return
	}

	report, err := h.reports.Reopen(r.Context(), reportID, req.Razon)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeStorage) {
			h.logger.ErrorContext(r.Context(), "failed to reopen report",
				"report_id", reportID, "error", err)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reopenResponse{
		Mensaje: "reporte reabierto",
		Reporte: newReportResponse(report),
	})
}
