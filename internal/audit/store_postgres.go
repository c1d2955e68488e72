package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "atiende/pkg/domain"
	txcontext "atiende/pkg/platform/tx"
)

// PostgresStore persists entries in the historial_cambios table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// execer picks the transaction from context when the caller opened one, so
// the audit row commits with its triggering state change.
func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry *Entry) error {
	metadatos, err := json.Marshal(entry.Metadatos)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	var actorID any
	if !entry.ActorID.IsNil() {
		actorID = uuid.UUID(entry.ActorID)
	}

	query := `
		INSERT INTO historial_cambios (
			id, usuario_id, entidad, entidad_id, tipo_cambio, campo_modificado,
			valor_anterior, valor_nuevo, razon, metadatos, creado_en
		)
		VALUES ($1, $2, 'reporte', $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(entry.ID),
		actorID,
		uuid.UUID(entry.ReportID),
		string(entry.TipoCambio),
		entry.CampoModificado,
		nullStr(entry.ValorAnterior),
		nullStr(entry.ValorNuevo),
		entry.Razon,
		metadatos,
		entry.CreadoEn,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByReport(ctx context.Context, reportID id.ReportID) ([]*Entry, error) {
	query := `
		SELECT id, usuario_id, entidad_id, tipo_cambio, campo_modificado,
		       valor_anterior, valor_nuevo, razon, metadatos, creado_en
		FROM historial_cambios
		WHERE entidad = 'reporte' AND entidad_id = $1
		ORDER BY creado_en ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(reportID))
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var entryID, entidadID uuid.UUID
		var actorID uuid.NullUUID
		var tipoCambio string
		var anterior, nuevo sql.NullString
		var metadatos []byte
		if err := rows.Scan(&entryID, &actorID, &entidadID, &tipoCambio, &e.CampoModificado,
			&anterior, &nuevo, &e.Razon, &metadatos, &e.CreadoEn); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ID = id.AuditEntryID(entryID)
		e.ReportID = id.ReportID(entidadID)
		if actorID.Valid {
			e.ActorID = id.UserID(actorID.UUID)
		}
		e.TipoCambio = ChangeKind(tipoCambio)
		e.ValorAnterior = anterior.String
		e.ValorNuevo = nuevo.String
		if len(metadatos) > 0 {
			if err := json.Unmarshal(metadatos, &e.Metadatos); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
