package handler

import (
	"time"

	"atiende/internal/audit"
	"atiende/internal/reports/models"
	id "atiende/pkg/domain"
)

type reportResponse struct {
	ID               string    `json:"id"`
	Tipo             string    `json:"tipo"`
	Descripcion      string    `json:"descripcion,omitempty"`
	DescripcionCorta string    `json:"descripcion_corta,omitempty"`
	Lat              float64   `json:"lat"`
	Lng              float64   `json:"lng"`
	Peso             int       `json:"peso"`
	Dependencia      string    `json:"dependencia"`
	Estado           string    `json:"estado"`
	Colonia          string    `json:"colonia,omitempty"`
	CodigoPostal     string    `json:"codigo_postal,omitempty"`
	Municipio        string    `json:"municipio,omitempty"`
	CreadoEn         time.Time `json:"creado_en"`
}

func newReportResponse(r *models.Report) reportResponse {
	return reportResponse{
		ID:               r.ID.String(),
		Tipo:             r.Tipo,
		Descripcion:      r.Descripcion,
		DescripcionCorta: r.DescripcionCorta,
		Lat:              r.Lat,
		Lng:              r.Lng,
		Peso:             r.Peso,
		Dependencia:      r.Dependencia.String(),
		Estado:           r.Estado.String(),
		Colonia:          r.Colonia,
		CodigoPostal:     r.CodigoPostal,
		Municipio:        r.Municipio,
		CreadoEn:         r.CreadoEn,
	}
}

type reportListResponse struct {
	Reportes []reportResponse `json:"reportes"`
	Total    int              `json:"total"`
}

func newReportListResponse(reports []*models.Report) reportListResponse {
	out := reportListResponse{Reportes: make([]reportResponse, 0, len(reports))}
	for _, r := range reports {
		out.Reportes = append(out.Reportes, newReportResponse(r))
	}
	out.Total = len(out.Reportes)
	return out
}

type historyEntryResponse struct {
	ID              string          `json:"id"`
	UsuarioID       string          `json:"usuario_id,omitempty"`
	TipoCambio      string          `json:"tipo_cambio"`
	CampoModificado string          `json:"campo_modificado"`
	ValorAnterior   string          `json:"valor_anterior,omitempty"`
	ValorNuevo      string          `json:"valor_nuevo,omitempty"`
	Razon           string          `json:"razon,omitempty"`
	Metadatos       *audit.Metadata `json:"metadatos,omitempty"`
	CreadoEn        time.Time       `json:"creado_en"`
}

type historyResponse struct {
	ReporteID string                 `json:"reporte_id"`
	Historial []historyEntryResponse `json:"historial"`
	Total     int                    `json:"total"`
}

func newHistoryResponse(reportID id.ReportID, entries []*audit.Entry) historyResponse {
	out := historyResponse{
		ReporteID: reportID.String(),
		Historial: make([]historyEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		item := historyEntryResponse{
			ID:              e.ID.String(),
			TipoCambio:      string(e.TipoCambio),
			CampoModificado: e.CampoModificado,
			ValorAnterior:   e.ValorAnterior,
			ValorNuevo:      e.ValorNuevo,
			Razon:           e.Razon,
			CreadoEn:        e.CreadoEn,
		}
		if !e.ActorID.IsNil() {
			item.UsuarioID = e.ActorID.String()
		}
		meta := e.Metadatos
		item.Metadatos = &meta
		out.Historial = append(out.Historial, item)
	}
	out.Total = len(out.Historial)
	return out
}

type reopenResponse struct {
	Mensaje string         `json:"mensaje"`
	Reporte reportResponse `json:"reporte"`
}
