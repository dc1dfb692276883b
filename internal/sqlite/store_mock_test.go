package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinerary-router/internal/database"
	"itinerary-router/internal/models"
)

func newMockStore(t *testing.T, driver string) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger, _ := test.NewNullLogger()
	return newStore(sqlx.NewDb(db, driver), driver, 0, logger), mock
}

func TestPostgresPlaceholders(t *testing.T) {
	store, mock := newMockStore(t, DriverPostgres)

	mock.ExpectQuery(`SELECT session_id, payload, created_at, updated_at FROM itineraries WHERE session_id = \$1`).
		WithArgs("sess-9").
		WillReturnRows(sqlmock.NewRows([]string{"session_id", "payload", "created_at", "updated_at"}).
			AddRow("sess-9", `{"stops":[{"id":"a","name":"Fort","order":1}],"geometry":[]}`, int64(1000), int64(2000)))

	it, err := store.Itineraries().Get(context.Background(), "sess-9")
	require.NoError(t, err)
	assert.Equal(t, "sess-9", it.SessionID)
	assert.Equal(t, "Fort", it.Stops[0].Name)
	assert.Equal(t, int64(2000), it.UpdatedAt.UnixMilli())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRollsBackOnWriteError(t *testing.T) {
	store, mock := newMockStore(t, DriverSQLite)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT session_id, payload`).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"session_id", "payload", "created_at", "updated_at"}).
			AddRow("sess-1", `{"stops":[],"geometry":[]}`, int64(1), int64(1)))
	mock.ExpectExec(`UPDATE itineraries SET payload = \?, updated_at = \? WHERE session_id = \?`).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	stale := true
	_, err := store.Itineraries().Update(context.Background(), "sess-1", models.ItineraryPatch{RouteStale: &stale})
	assert.ErrorContains(t, err, "failed to update itinerary")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissingRollsBack(t *testing.T) {
	store, mock := newMockStore(t, DriverSQLite)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT session_id, payload`).
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"session_id", "payload", "created_at", "updated_at"}))
	mock.ExpectRollback()

	_, err := store.Itineraries().Update(context.Background(), "gone", models.ItineraryPatch{})
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCorruptPayload(t *testing.T) {
	store, mock := newMockStore(t, DriverSQLite)

	mock.ExpectQuery(`SELECT session_id, payload`).
		WillReturnRows(sqlmock.NewRows([]string{"session_id", "payload", "created_at", "updated_at"}).
			AddRow("sess-1", `{not json`, int64(1), int64(1)))

	_, err := store.Itineraries().Get(context.Background(), "sess-1")
	assert.ErrorContains(t, err, "failed to decode itinerary")
}

func TestDeleteDatabaseError(t *testing.T) {
	store, mock := newMockStore(t, DriverSQLite)

	mock.ExpectExec(`DELETE FROM itineraries`).WithArgs("sess-1").WillReturnError(errors.New("locked"))

	err := store.Itineraries().Delete(context.Background(), "sess-1")
	assert.ErrorContains(t, err, "failed to delete itinerary")
	assert.NotErrorIs(t, err, database.ErrNotFound)
}
