package store

import (
	"context"
	"time"

	"atiende/internal/reports/models"
	id "atiende/pkg/domain"
)

// Store persists reports.
//
// UpdateState is conditional on the expected current state so two racing
// transitions cannot both apply: the loser sees sentinel.ErrInvalidState.
type Store interface {
	Create(ctx context.Context, report *models.Report) error
	FindByID(ctx context.Context, reportID id.ReportID) (*models.Report, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Report, error)
	UpdateState(ctx context.Context, reportID id.ReportID, from, to id.ReportState) error

	// UpdateLocation writes the async enrichment fields and nothing else.
	UpdateLocation(ctx context.Context, reportID id.ReportID, colonia, codigoPostal, municipio, estadoRegion string) error

	// CountRecentNear counts reports of the same category created since the
	// cutoff within radiusMeters of the point. Used by the optional
	// duplicate pre-check.
	CountRecentNear(ctx context.Context, tipo string, lat, lng, radiusMeters float64, since time.Time) (int, error)
}
