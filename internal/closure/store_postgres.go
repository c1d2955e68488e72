package closure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "atiende/pkg/domain"
	"atiende/pkg/platform/sentinel"
	txcontext "atiende/pkg/platform/tx"
)

// PostgresStore persists closure requests in the cierres_pendientes table.
// A partial unique index on (reporte_id) WHERE aprobado = 0 enforces the
// one-pending-request-per-report rule at the database level.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const closureColumns = `id, reporte_id, solicitante_id, supervisor_id, dependencia_solicitante,
	notas_cierre, firma_digital, evidencia_fotos, aprobado, notas_supervisor,
	fecha_solicitud, fecha_revision`

const uniqueViolation = "23505"

func (s *PostgresStore) Create(ctx context.Context, req *Request) error {
	query := `
		INSERT INTO cierres_pendientes (
			id, reporte_id, solicitante_id, supervisor_id, dependencia_solicitante,
			notas_cierre, firma_digital, evidencia_fotos, aprobado, fecha_solicitud
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(req.ID),
		uuid.UUID(req.ReportID),
		uuid.UUID(req.SolicitanteID),
		uuid.UUID(req.SupervisorID),
		req.DependenciaSolicitante.String(),
		req.NotasCierre,
		req.FirmaDigital,
		pq.Array(req.EvidenciaFotos),
		req.Aprobado,
		req.FechaSolicitud,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert closure request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, closureID id.ClosureID) (*Request, error) {
	query := `
		SELECT ` + closureColumns + `
		FROM cierres_pendientes
		WHERE id = $1
	`
	req, err := scanClosure(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(closureID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *PostgresStore) Review(ctx context.Context, closureID id.ClosureID, verdict int, supervisorID id.UserID, notas string, at time.Time) error {
	query := `
		UPDATE cierres_pendientes
		SET aprobado = $1, supervisor_id = $2, notas_supervisor = $3, fecha_revision = $4
		WHERE id = $5 AND aprobado = 0
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, verdict, uuid.UUID(supervisorID), notas, at, uuid.UUID(closureID))
	if err != nil {
		return fmt.Errorf("review closure request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("review closure request rows: %w", err)
	}
	if n == 0 {
		// Distinguish an already-reviewed request from a missing one.
		if _, findErr := s.FindByID(ctx, closureID); findErr != nil {
			return findErr
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*Request, error) {
	query := `
		SELECT ` + closureColumns + `
		FROM cierres_pendientes
		WHERE TRUE
	`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if !filter.AllVerdicts {
		verdict := VerdictPending
		if filter.Verdict != nil {
			verdict = *filter.Verdict
		}
		query += " AND aprobado = " + arg(verdict)
	}
	if filter.Dependencia != "" {
		query += " AND dependencia_solicitante = " + arg(filter.Dependencia.String())
	}
	if filter.From != nil {
		query += " AND fecha_solicitud >= " + arg(*filter.From)
	}
	if filter.To != nil {
		query += " AND fecha_solicitud <= " + arg(*filter.To)
	}
	query += " ORDER BY fecha_solicitud ASC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list closure requests: %w", err)
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		req, err := scanClosure(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClosure(row rowScanner) (*Request, error) {
	var (
		req                    Request
		cID, rID, solID, supID uuid.UUID
		dependencia            string
		fotos                  pq.StringArray
		notasSupervisor        sql.NullString
		fechaRevision          sql.NullTime
	)
	err := row.Scan(&cID, &rID, &solID, &supID, &dependencia,
		&req.NotasCierre, &req.FirmaDigital, &fotos, &req.Aprobado, &notasSupervisor,
		&req.FechaSolicitud, &fechaRevision)
	if err != nil {
		return nil, err
	}
	req.ID = id.ClosureID(cID)
	req.ReportID = id.ReportID(rID)
	req.SolicitanteID = id.UserID(solID)
	req.SupervisorID = id.UserID(supID)
	req.DependenciaSolicitante = id.Department(dependencia)
	req.EvidenciaFotos = fotos
	req.NotasSupervisor = notasSupervisor.String
	if fechaRevision.Valid {
		t := fechaRevision.Time
		req.FechaRevision = &t
	}
	return &req, nil
}
