package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"event-reports/internal/domain/events"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventColumns = []string{"id", "user_id", "event_type", "name", "info", "data", "created_at", "updated_at"}

func TestEventsRepo_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewEventsRepo(db)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	info := "hello"

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO events")).
		WithArgs("e1", "u1", "click", "button", "hello", `{"k":"v"}`, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Insert(context.Background(), events.Event{
		ID: "e1", UserID: "u1", EventType: "click", Name: "button",
		Info: &info, Data: json.RawMessage(`{"k":"v"}`),
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventsRepo_Insert_WrapsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection refused")
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO events")).WillReturnError(boom)

	err = NewEventsRepo(db).Insert(context.Background(), events.Event{ID: "e1", UserID: "u", EventType: "t", Name: "n"})
	assert.ErrorIs(t, err, boom)
}

func TestEventsRepo_Stream_FilterAndLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(eventColumns).
		AddRow("e1", "u1", "click", "button", nil, []byte(`{"a":1}`), ts, ts).
		AddRow("e2", "u1", "click", "link", "note", nil, ts.Add(time.Second), ts.Add(time.Second))

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, user_id, event_type, name, info, data, created_at, updated_at FROM events WHERE user_id = $1 AND event_type = $2 ORDER BY seq ASC LIMIT $3",
	)).WithArgs("u1", "click", 10).WillReturnRows(rows)

	var got []events.Event
	for e, err := range NewEventsRepo(db).Stream(context.Background(), events.Filter{UserID: "u1", EventType: "click", Limit: 10}) {
		require.NoError(t, err)
		got = append(got, e)
	}

	require.Len(t, got, 2)
	assert.Nil(t, got[0].Info)
	assert.JSONEq(t, `{"a":1}`, string(got[0].Data))
	require.NotNil(t, got[1].Info)
	assert.Equal(t, "note", *got[1].Info)
	assert.False(t, got[1].HasData())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventsRepo_Find_NoFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, user_id, event_type, name, info, data, created_at, updated_at FROM events ORDER BY seq ASC",
	)).WillReturnRows(sqlmock.NewRows(eventColumns))

	got, err := NewEventsRepo(db).Find(context.Background(), events.Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventsRepo_Find_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("db unavailable")
	mock.ExpectQuery("SELECT").WillReturnError(boom)

	_, err = NewEventsRepo(db).Find(context.Background(), events.Filter{UserID: "u1"})
	assert.ErrorIs(t, err, boom)
}

func TestBuildFindQuery(t *testing.T) {
	q, args := buildFindQuery(events.Filter{Name: "button"})
	assert.Contains(t, q, "WHERE name = $1")
	assert.NotContains(t, q, "LIMIT")
	assert.Equal(t, []any{"button"}, args)
	assert.True(t, strings.HasSuffix(q, " ORDER BY seq ASC"), q)
	assert.NotContains(t, q, "id ASC")
}

func TestEnsureSchema_AddsInsertionSequence(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE events ADD COLUMN IF NOT EXISTS seq BIGSERIAL")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureSchema(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Contains(t, schema, "CREATE INDEX IF NOT EXISTS events_seq_idx ON events (seq)")
}
