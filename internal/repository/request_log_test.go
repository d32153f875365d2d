package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/audit"
)

func TestRequestLogRepository_Log(t *testing.T) {
	t.Run("inserts then prunes past the limit", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO request_logs`).
			WithArgs(pgxmock.AnyArg(), "hikcentral", "POST", "/api/resource/v1/person/single/add",
				200, true, "", "{}", `{"code":"0"}`, int64(12), false, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(`DELETE FROM request_logs`).
			WithArgs(1000).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err = NewRequestLogRepository(mock, 0).Log(context.Background(), audit.Event{
			System:       audit.SystemHikCentral,
			Method:       "POST",
			Endpoint:     "/api/resource/v1/person/single/add",
			StatusCode:   200,
			Success:      true,
			RequestBody:  "{}",
			ResponseBody: `{"code":"0"}`,
			DurationMs:   12,
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO request_logs`).WillReturnError(errors.New("db down"))

		err = NewRequestLogRepository(mock, 10).Log(context.Background(), audit.Event{})
		assert.Error(t, err)
	})
}

func TestRequestLogRepository_ListRecent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	now := time.Now()
	rows := pgxmock.NewRows([]string{
		"id", "system", "method", "endpoint", "status_code", "success", "message",
		"request_body", "response_body", "duration_ms", "dry_run", "created_at",
	}).AddRow(id, "roster", "GET", "/pending", 200, true, "", "", "[]", int64(5), false, now)

	mock.ExpectQuery(`SELECT .* FROM request_logs ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(50).
		WillReturnRows(rows)

	events, err := NewRequestLogRepository(mock, 100).ListRecent(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)
	assert.Equal(t, audit.SystemRoster, events[0].System)
	assert.NoError(t, mock.ExpectationsWereMet())
}
