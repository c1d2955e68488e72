package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atiende/internal/reports/models"
	"atiende/internal/reports/store"
	id "atiende/pkg/domain"
	"atiende/pkg/platform/sentinel"
)

func newMockStore(t *testing.T) (*store.Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return store.NewPostgres(db), mock
}

func reportRows(reportID id.ReportID, estado id.ReportState) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tipo", "descripcion", "descripcion_corta", "lat", "lng", "peso",
		"dependencia", "estado", "colonia", "codigo_postal", "municipio",
		"estado_region", "creado_en",
	}).AddRow(
		uuid.UUID(reportID), "baches", "bache grande", "bache grande",
		19.43, -99.13, 1, "obras_publicas", estado.String(),
		nil, nil, nil, nil, time.Now(),
	)
}

func TestPostgresCreate(t *testing.T) {
	st, mock := newMockStore(t)
	reportID := id.NewReportID()

	mock.ExpectExec(`INSERT INTO reportes`).
		WithArgs(uuid.UUID(reportID), "baches", "bache grande", "bache grande",
			19.43, -99.13, 1, "obras_publicas", "abierto", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := st.Create(context.Background(), &models.Report{
		ID:               reportID,
		Tipo:             "baches",
		Descripcion:      "bache grande",
		DescripcionCorta: "bache grande",
		Lat:              19.43,
		Lng:              -99.13,
		Peso:             1,
		Dependencia:      "obras_publicas",
		Estado:           id.StateOpen,
		CreadoEn:         time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		st, mock := newMockStore(t)
		reportID := id.NewReportID()

		mock.ExpectQuery(`SELECT .+ FROM reportes WHERE id = \$1`).
			WithArgs(uuid.UUID(reportID)).
			WillReturnRows(reportRows(reportID, id.StateOpen))

		report, err := st.FindByID(context.Background(), reportID)
		require.NoError(t, err)
		assert.Equal(t, reportID, report.ID)
		assert.Equal(t, id.StateOpen, report.Estado)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing maps to sentinel", func(t *testing.T) {
		st, mock := newMockStore(t)
		reportID := id.NewReportID()

		mock.ExpectQuery(`SELECT .+ FROM reportes WHERE id = \$1`).
			WithArgs(uuid.UUID(reportID)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := st.FindByID(context.Background(), reportID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresUpdateState(t *testing.T) {
	t.Run("conditional update succeeds", func(t *testing.T) {
		st, mock := newMockStore(t)
		reportID := id.NewReportID()

		mock.ExpectExec(`UPDATE reportes SET estado = \$1 WHERE id = \$2 AND estado = \$3`).
			WithArgs("asignado", uuid.UUID(reportID), "abierto").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := st.UpdateState(context.Background(), reportID, id.StateOpen, id.StateAssigned)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale precondition maps to invalid state", func(t *testing.T) {
		st, mock := newMockStore(t)
		reportID := id.NewReportID()

		mock.ExpectExec(`UPDATE reportes SET estado = \$1 WHERE id = \$2 AND estado = \$3`).
			WithArgs("cerrado", uuid.UUID(reportID), "pendiente_cierre").
			WillReturnResult(sqlmock.NewResult(0, 0))
		// Zero rows triggers a lookup to tell a missing report apart
		// from a concurrent state change.
		mock.ExpectQuery(`SELECT .+ FROM reportes WHERE id = \$1`).
			WithArgs(uuid.UUID(reportID)).
			WillReturnRows(reportRows(reportID, id.StateAssigned))

		err := st.UpdateState(context.Background(), reportID, id.StatePendingClosure, id.StateClosed)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing report maps to not found", func(t *testing.T) {
		st, mock := newMockStore(t)
		reportID := id.NewReportID()

		mock.ExpectExec(`UPDATE reportes SET estado = \$1 WHERE id = \$2 AND estado = \$3`).
			WithArgs("asignado", uuid.UUID(reportID), "abierto").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT .+ FROM reportes WHERE id = \$1`).
			WithArgs(uuid.UUID(reportID)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		err := st.UpdateState(context.Background(), reportID, id.StateOpen, id.StateAssigned)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresListBuildsFilters(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM reportes WHERE estado != 'cerrado' AND dependencia = \$1 ORDER BY creado_en DESC`).
		WithArgs("obras_publicas").
		WillReturnRows(reportRows(id.NewReportID(), id.StateOpen))

	reports, err := st.List(context.Background(), models.ListFilter{
		Estado:      models.EstadoAbiertos,
		Dependencia: "obras_publicas",
	})
	require.NoError(t, err)
	assert.Len(t, reports, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
