package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "atiende/pkg/domain"
	"atiende/pkg/platform/sentinel"
)

// PostgresStore reads staff records from the usuarios table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*Staff, error) {
	query := `
		SELECT id, nombre, email, dependencia, rol, activo, creado_en
		FROM usuarios
		WHERE id = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, uuid.UUID(userID)))
}

func (s *PostgresStore) FindSupervisor(ctx context.Context, dep id.Department) (*Staff, error) {
	query := `
		SELECT id, nombre, email, dependencia, rol, activo, creado_en
		FROM usuarios
		WHERE dependencia = $1 AND rol = 'supervisor' AND activo
		ORDER BY creado_en
		LIMIT 1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, dep.String()))
}

func (s *PostgresStore) scanOne(row *sql.Row) (*Staff, error) {
	var staff Staff
	var uid uuid.UUID
	var dep, rol string
	err := row.Scan(&uid, &staff.Nombre, &staff.Email, &dep, &rol, &staff.Activo, &staff.CreadoEn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan staff: %w", err)
	}
	staff.ID = id.UserID(uid)
	staff.Dependencia = id.Department(dep)
	parsedRole, err := id.ParseRole(rol)
	if err != nil {
		return nil, fmt.Errorf("scan staff: %w", err)
	}
	staff.Rol = parsedRole
	return &staff, nil
}
