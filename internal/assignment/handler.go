package assignment

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	id "atiende/pkg/domain"
	"atiende/pkg/platform/httputil"
	"atiende/pkg/platform/middleware/auth"
)

// Handler serves the assignment endpoints. All of them require a staff
// session; the mutating routes are a supervisor/admin surface, and the
// service decides department-level access.
type Handler struct {
	service   *Service
	logger    *slog.Logger
	validator auth.TokenValidator
}

func NewHandler(service *Service, validator auth.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{service: service, validator: validator, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(h.validator, h.logger))
		r.Get("/api/reportes/{id}/asignaciones", h.handleHistory)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(h.logger, id.RoleSupervisor, id.RoleAdmin))
			r.Post("/api/reportes/{id}/asignar", h.handleAssign)
			r.Post("/api/reportes/{id}/asignaciones", h.handleDelegate)
			r.Delete("/api/reportes/{id}/asignaciones/{usuarioId}", h.handleUnassign)
		})
	})
}

type assignRequest struct {
	UsuarioID string `json:"usuario_id"`
	Notas     string `json:"notas"`
}

type assignmentResponse struct {
	ID            string     `json:"id"`
	ReporteID     string     `json:"reporte_id"`
	UsuarioID     string     `json:"usuario_id"`
	AsignadoPor   string     `json:"asignado_por"`
	Notas         string     `json:"notas,omitempty"`
	CreadoEn      time.Time  `json:"creado_en"`
	ReemplazadaEn *time.Time `json:"reemplazada_en,omitempty"`
}

func newAssignmentResponse(a *Assignment) assignmentResponse {
	return assignmentResponse{
		ID:            a.ID.String(),
		ReporteID:     a.ReportID.String(),
		UsuarioID:     a.UsuarioID.String(),
		AsignadoPor:   a.AsignadoPor.String(),
		Notas:         a.Notas,
		CreadoEn:      a.CreadoEn,
		ReemplazadaEn: a.ReemplazadaEn,
	}
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	reportID, err := id.ParseReportID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[assignRequest](w, r, h.logger)
	if !ok {
		return
	}
	targetID, err := id.ParseUserID(req.UsuarioID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	assigned, err := h.service.Assign(r.Context(), reportID, targetID, req.Notas)
	if err != nil {
		h.logger.WarnContext(r.Context(), "assignment rejected",
			"report_id", reportID, "usuario_id", targetID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, newAssignmentResponse(assigned))
}

// handleDelegate serves the cross-department path. Responds 201 because the
// delegation always produces a fresh assignment visible to both chains of
// command.
func (h *Handler) handleDelegate(w http.ResponseWriter, r *http.Request) {
	reportID, err := id.ParseReportID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[assignRequest](w, r, h.logger)
	if !ok {
		return
	}
	targetID, err := id.ParseUserID(req.UsuarioID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	assigned, err := h.service.Delegate(r.Context(), reportID, targetID, req.Notas)
	if err != nil {
		h.logger.WarnContext(r.Context(), "delegation rejected",
			"report_id", reportID, "usuario_id", targetID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, newAssignmentResponse(assigned))
}

func (h *Handler) handleUnassign(w http.ResponseWriter, r *http.Request) {
	reportID, err := id.ParseReportID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	targetID, err := id.ParseUserID(chi.URLParam(r, "usuarioId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Unassign(r.Context(), reportID, targetID); err != nil {
		h.logger.WarnContext(r.Context(), "unassignment rejected",
			"report_id", reportID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	reportID, err := id.ParseReportID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	chain, err := h.service.History(r.Context(), reportID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]assignmentResponse, 0, len(chain))
	for _, a := range chain {
		out = append(out, newAssignmentResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"reporte_id":   reportID.String(),
		"asignaciones": out,
		"total":        len(out),
	})
}
