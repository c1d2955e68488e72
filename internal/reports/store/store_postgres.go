package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"atiende/internal/reports/models"
	id "atiende/pkg/domain"
	"atiende/pkg/platform/sentinel"
	txcontext "atiende/pkg/platform/tx"
)

// Postgres persists reports in the reportes table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const reportColumns = `id, tipo, descripcion, descripcion_corta, lat, lng, peso, dependencia, estado,
	colonia, codigo_postal, municipio, estado_region, creado_en`

func (s *Postgres) Create(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reportes (id, tipo, descripcion, descripcion_corta, lat, lng, peso, dependencia, estado, creado_en)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(report.ID),
		report.Tipo,
		report.Descripcion,
		report.DescripcionCorta,
		report.Lat,
		report.Lng,
		report.Peso,
		report.Dependencia.String(),
		report.Estado.String(),
		report.CreadoEn,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, reportID id.ReportID) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reportes WHERE id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(reportID))
	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find report: %w", err)
	}
	return report, nil
}

func (s *Postgres) List(ctx context.Context, filter models.ListFilter) ([]*models.Report, error) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.MinLat != nil && filter.MaxLat != nil && filter.MinLng != nil && filter.MaxLng != nil {
		conds = append(conds, fmt.Sprintf("lat BETWEEN %s AND %s", arg(*filter.MinLat), arg(*filter.MaxLat)))
		conds = append(conds, fmt.Sprintf("lng BETWEEN %s AND %s", arg(*filter.MinLng), arg(*filter.MaxLng)))
	}
	if len(filter.Tipos) > 0 {
		conds = append(conds, fmt.Sprintf("tipo = ANY(%s)", arg(pq.Array(filter.Tipos))))
	}
	switch filter.Estado {
	case "":
	case models.EstadoAbiertos:
		conds = append(conds, "estado != 'cerrado'")
	default:
		conds = append(conds, fmt.Sprintf("estado = %s", arg(filter.Estado)))
	}
	if filter.Dependencia != "" {
		conds = append(conds, fmt.Sprintf("dependencia = %s", arg(filter.Dependencia)))
	}
	if filter.From != nil {
		conds = append(conds, fmt.Sprintf("creado_en >= %s", arg(*filter.From)))
	}
	if filter.To != nil {
		conds = append(conds, fmt.Sprintf("creado_en <= %s", arg(*filter.To)))
	}

	query := `SELECT ` + reportColumns + ` FROM reportes`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY creado_en DESC"

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

func (s *Postgres) UpdateState(ctx context.Context, reportID id.ReportID, from, to id.ReportState) error {
	query := `UPDATE reportes SET estado = $1 WHERE id = $2 AND estado = $3`
	res, err := s.execer(ctx).ExecContext(ctx, query, to.String(), uuid.UUID(reportID), from.String())
	if err != nil {
		return fmt.Errorf("update report state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report state: %w", err)
	}
	if affected == 0 {
		// Either the report vanished or a concurrent transition won.
		if _, findErr := s.FindByID(ctx, reportID); findErr != nil {
			return findErr
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *Postgres) UpdateLocation(ctx context.Context, reportID id.ReportID, colonia, codigoPostal, municipio, estadoRegion string) error {
	query := `
		UPDATE reportes
		SET colonia = $1, codigo_postal = $2, municipio = $3, estado_region = $4
		WHERE id = $5
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, colonia, codigoPostal, municipio, estadoRegion, uuid.UUID(reportID))
	if err != nil {
		return fmt.Errorf("update report location: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) CountRecentNear(ctx context.Context, tipo string, lat, lng, radiusMeters float64, since time.Time) (int, error) {
	// Haversine in SQL; fine at municipal scale without PostGIS.
	query := `
		SELECT COUNT(*)
		FROM reportes
		WHERE tipo = $1
		  AND creado_en >= $2
		  AND 2 * 6371000 * asin(sqrt(
		        power(sin(radians(lat - $3) / 2), 2) +
		        cos(radians($3)) * cos(radians(lat)) * power(sin(radians(lng - $4) / 2), 2)
		  )) <= $5
	`
	var count int
	err := s.execer(ctx).QueryRowContext(ctx, query, tipo, since, lat, lng, radiusMeters).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count recent reports: %w", err)
	}
	return count, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanReport(row scannable) (*models.Report, error) {
	var r models.Report
	var reportID uuid.UUID
	var dep, estado string
	var colonia, codigoPostal, municipio, estadoRegion sql.NullString
	err := row.Scan(&reportID, &r.Tipo, &r.Descripcion, &r.DescripcionCorta,
		&r.Lat, &r.Lng, &r.Peso, &dep, &estado,
		&colonia, &codigoPostal, &municipio, &estadoRegion, &r.CreadoEn)
	if err != nil {
		return nil, err
	}
	r.ID = id.ReportID(reportID)
	r.Dependencia = id.Department(dep)
	state, err := id.ParseReportState(estado)
	if err != nil {
		return nil, err
	}
	r.Estado = state
	r.Colonia = colonia.String
	r.CodigoPostal = codigoPostal.String
	r.Municipio = municipio.String
	r.EstadoRegion = estadoRegion.String
	return &r, nil
}
