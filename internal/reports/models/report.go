package models

import (
	"time"

	id "atiende/pkg/domain"
	dErrors "atiende/pkg/domain-errors"
)

// Report is a citizen-submitted complaint. The department is stamped at
// creation from the routing table and never re-derived, even if the table
// later changes, so historical routing stays auditable.
type Report struct {
	ID               id.ReportID
	Tipo             string
	Descripcion      string
	DescripcionCorta string
	Lat              float64
	Lng              float64
	Peso             int
	Dependencia      id.Department
	Estado           id.ReportState

	// Location enrichment, populated asynchronously after creation by an
	// out-of-scope geocoder. Empty until then.
	Colonia      string
	CodigoPostal string
	Municipio    string
	EstadoRegion string

	CreadoEn time.Time
}

// shortDescriptionLimit bounds the auto-derived public description.
const shortDescriptionLimit = 100

// Validate checks creation invariants.
func (r *Report) Validate() error {
	if r.Tipo == "" {
		return dErrors.New(dErrors.CodeValidation, "tipo is required")
	}
	if r.Lat < -90 || r.Lat > 90 {
		return dErrors.New(dErrors.CodeValidation, "lat must be within [-90, 90]")
	}
	if r.Lng < -180 || r.Lng > 180 {
		return dErrors.New(dErrors.CodeValidation, "lng must be within [-180, 180]")
	}
	if r.Peso < 1 {
		return dErrors.New(dErrors.CodeValidation, "peso must be a positive integer")
	}
	return nil
}

// DeriveShortDescription fills DescripcionCorta from the long description
// when the submitter did not provide one.
func (r *Report) DeriveShortDescription() {
	if r.DescripcionCorta != "" {
		return
	}
	if len(r.Descripcion) > shortDescriptionLimit {
		r.DescripcionCorta = r.Descripcion[:shortDescriptionLimit] + "..."
		return
	}
	r.DescripcionCorta = r.Descripcion
}

// TransitionTo validates the lifecycle edge and applies it. Every state
// mutation in the workflow goes through here; there are no ad hoc estado
// checks in handlers.
func (r *Report) TransitionTo(next id.ReportState) error {
	if !r.Estado.CanTransition(next) {
		return dErrors.New(dErrors.CodeInvalidState,
			"cannot transition report from "+r.Estado.String()+" to "+next.String())
	}
	r.Estado = next
	return nil
}

// ListFilter narrows report listings.
type ListFilter struct {
	// Bounding box; applied only when all four bounds are set.
	MinLat, MaxLat *float64
	MinLng, MaxLng *float64

	// Tipos filters by one or more categories (normalized).
	Tipos []string

	// Estado filters by lifecycle state. The special value "abiertos"
	// matches everything not closed.
	Estado string

	Dependencia string

	// Creation date range (inclusive).
	From, To *time.Time
}

// EstadoAbiertos is the pseudo-state matching every non-closed report.
const EstadoAbiertos = "abiertos"
