package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"atiende/internal/reports/models"
	dErrors "atiende/pkg/domain-errors"
)

type createReportRequest struct {
	Tipo             string  `json:"tipo"`
	Descripcion      string  `json:"descripcion"`
	DescripcionCorta string  `json:"descripcion_corta"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	Peso             int     `json:"peso"`
}

type reopenRequest struct {
	Razon string `json:"razon"`
}

// filterFromQuery builds a list filter from the query string. All parameters
// are optional; malformed values are rejected rather than ignored.
func filterFromQuery(r *http.Request) (models.ListFilter, error) {
	var filter models.ListFilter
	q := r.URL.Query()

	for _, bound := range []struct {
		name string
		dst  **float64
	}{
		{"min_lat", &filter.MinLat},
		{"max_lat", &filter.MaxLat},
		{"min_lng", &filter.MinLng},
		{"max_lng", &filter.MaxLng},
	} {
		raw := q.Get(bound.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeValidation, "invalid "+bound.name)
		}
		*bound.dst = &v
	}

	if tipos := q.Get("tipos"); tipos != "" {
		for _, t := range strings.Split(tipos, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filter.Tipos = append(filter.Tipos, t)
			}
		}
	}
	filter.Estado = q.Get("estado")
	filter.Dependencia = q.Get("dependencia")

	for _, bound := range []struct {
		name string
		dst  **time.Time
	}{
		{"desde", &filter.From},
		{"hasta", &filter.To},
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

	return filter, nil
}
