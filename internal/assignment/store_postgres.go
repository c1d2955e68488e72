package assignment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "atiende/pkg/domain"
	"atiende/pkg/platform/sentinel"
	txcontext "atiende/pkg/platform/tx"
)

// PostgresStore persists assignments in the asignaciones table.
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

const assignmentColumns = `id, reporte_id, usuario_id, asignado_por, notas, creado_en, reemplazada_en`

func (s *PostgresStore) Create(ctx context.Context, a *Assignment) error {
	query := `
		INSERT INTO asignaciones (id, reporte_id, usuario_id, asignado_por, notas, creado_en)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(a.ID),
		uuid.UUID(a.ReportID),
		uuid.UUID(a.UsuarioID),
		uuid.UUID(a.AsignadoPor),
		a.Notas,
		a.CreadoEn,
	)
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindCurrent(ctx context.Context, reportID id.ReportID) (*Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM asignaciones
		WHERE reporte_id = $1 AND reemplazada_en IS NULL
	`
	return s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(reportID)))
}

func (s *PostgresStore) Supersede(ctx context.Context, assignmentID id.AssignmentID, at time.Time) error {
	query := `
		UPDATE asignaciones
		SET reemplazada_en = $1
		WHERE id = $2 AND reemplazada_en IS NULL
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, at, uuid.UUID(assignmentID))
	if err != nil {
		return fmt.Errorf("supersede assignment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("supersede assignment rows: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByReport(ctx context.Context, reportID id.ReportID) ([]*Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM asignaciones
		WHERE reporte_id = $1
		ORDER BY creado_en DESC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(reportID))
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []*Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanOne(row *sql.Row) (*Assignment, error) {
	a, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func scanAssignment(row rowScanner) (*Assignment, error) {
	var (
		a             Assignment
		aID, rID      uuid.UUID
		userID, byID  uuid.UUID
		reemplazadaEn sql.NullTime
	)
	err := row.Scan(&aID, &rID, &userID, &byID, &a.Notas, &a.CreadoEn, &reemplazadaEn)
	if err != nil {
		return nil, err
	}
	a.ID = id.AssignmentID(aID)
	a.ReportID = id.ReportID(rID)
	a.UsuarioID = id.UserID(userID)
	a.AsignadoPor = id.UserID(byID)
	if reemplazadaEn.Valid {
		t := reemplazadaEn.Time
		a.ReemplazadaEn = &t
	}
	return &a, nil
}
