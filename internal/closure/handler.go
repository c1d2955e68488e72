package closure

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	id "atiende/pkg/domain"
	dErrors "atiende/pkg/domain-errors"
	"atiende/pkg/platform/httputil"
	"atiende/pkg/platform/middleware/auth"
)

// Handler serves the closure endpoints. Filing requires any staff session;
// the review queue and verdict routes are limited to supervisors and admins.
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
		r.Post("/api/reportes/{id}/solicitar-cierre", h.handleRequest)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(h.logger, id.RoleSupervisor, id.RoleAdmin))
			r.Get("/api/reportes/cierres-pendientes", h.handleList)
			r.Post("/api/reportes/cierres/{id}/aprobar", h.handleApprove)
			r.Post("/api/reportes/cierres/{id}/rechazar", h.handleReject)
		})
	})
}

type requestClosureRequest struct {
	NotasCierre    string   `json:"notas_cierre"`
	FirmaDigital   string   `json:"firma_digital"`
	EvidenciaFotos []string `json:"evidencia_fotos"`
}

type reviewRequest struct {
	NotasSupervisor string `json:"notas_supervisor"`
}

type closureResponse struct {
	ID string `json:"id"`

	// CierreID duplicates ID under the name mobile clients already bind to.
	CierreID               string     `json:"cierre_id"`
	ReporteID              string     `json:"reporte_id"`
	SolicitanteID          string     `json:"solicitante_id"`
	SupervisorID           string     `json:"supervisor_id"`
	DependenciaSolicitante string     `json:"dependencia_solicitante"`
	NotasCierre            string     `json:"notas_cierre"`
	EvidenciaFotos         int        `json:"evidencia_fotos"`
	Aprobado               int        `json:"aprobado"`
	NotasSupervisor        string     `json:"notas_supervisor,omitempty"`
	FechaSolicitud         time.Time  `json:"fecha_solicitud"`
	FechaRevision          *time.Time `json:"fecha_revision,omitempty"`
}

func newClosureResponse(req *Request) closureResponse {
	return closureResponse{
		ID:                     req.ID.String(),
		CierreID:               req.ID.String(),
		ReporteID:              req.ReportID.String(),
		SolicitanteID:          req.SolicitanteID.String(),
		SupervisorID:           req.SupervisorID.String(),
		DependenciaSolicitante: req.DependenciaSolicitante.String(),
		NotasCierre:            req.NotasCierre,
		EvidenciaFotos:         len(req.EvidenciaFotos),
		Aprobado:               req.Aprobado,
		NotasSupervisor:        req.NotasSupervisor,
		FechaSolicitud:         req.FechaSolicitud,
		FechaRevision:          req.FechaRevision,
	}
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	reportID, err := id.ParseReportID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[requestClosureRequest](w, r, h.logger)
	if !ok {
		return
	}

	created, err := h.service.RequestClosure(r.Context(), reportID, RequestInput{
		NotasCierre:    req.NotasCierre,
		FirmaDigital:   req.FirmaDigital,
		EvidenciaFotos: req.EvidenciaFotos,
	})
	if err != nil {
		h.logger.WarnContext(r.Context(), "closure request rejected",
			"report_id", reportID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, newClosureResponse(created))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	requests, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list closure requests", "error", err)
		httputil.WriteError(w, err)
		return
	}

	out := make([]closureResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, newClosureResponse(req))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"cierres": out,
		"total":   len(out),
	})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleReview(w, r, h.service.Approve)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.handleReview(w, r, h.service.Reject)
}

type reviewFunc func(ctx context.Context, closureID id.ClosureID, notas string) (*Request, error)

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request, review reviewFunc) {
	closureID, err := id.ParseClosureID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[reviewRequest](w, r, h.logger)
	if !ok {
		return
	}

	reviewed, err := review(r.Context(), closureID, req.NotasSupervisor)
	if err != nil {
		h.logger.WarnContext(r.Context(), "closure review rejected",
			"closure_id", closureID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, newClosureResponse(reviewed))
}

func listFilterFromQuery(r *http.Request) (ListFilter, error) {
	var filter ListFilter
	q := r.URL.Query()

	switch estado := q.Get("estado"); estado {
	case "", "pendiente":
		// pending is the default queue view
	case "aprobado":
		v := VerdictApproved
		filter.Verdict = &v
	case "rechazado":
		v := VerdictRejected
		filter.Verdict = &v
	case "todos":
		filter.AllVerdicts = true
	default:
		return filter, dErrors.New(dErrors.CodeValidation, "invalid estado, expected pendiente, aprobado, rechazado, or todos")
	}

	for _, bound := range []struct {
		name string
		dst  **time.Time
	}{
		{"fecha_inicio", &filter.From},
		{"fecha_fin", &filter.To},
	} {
		raw := q.Get(bound.name)
		if raw == "" {
			continue
		}
		v, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeValidation, "invalid "+bound.name+", expected RFC 3339")
		}
		*bound.dst = &v
	}

	for _, bound := range []struct {
		name string
		dst  *int
	}{
		{"limit", &filter.Limit},
		{"offset", &filter.Offset},
	} {
		raw := q.Get(bound.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return filter, dErrors.New(dErrors.CodeValidation, "invalid "+bound.name)
		}
		*bound.dst = v
	}

	return filter, nil
}
