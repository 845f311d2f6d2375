package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LawsuitMonitor/internal/domain"
	"LawsuitMonitor/internal/ledger"
)

const (
	selectDaySQL     = `SELECT day, runs, stats, updated_at FROM ledger_days WHERE day <= $1 ORDER BY day DESC LIMIT 1`
	selectEntriesSQL = `SELECT dedup_key, first_seen FROM ledger_entries WHERE day = $1`
	upsertDaySQL     = `INSERT INTO ledger_days (day,runs,stats,updated_at) VALUES ($1,$2,$3,$4) ON CONFLICT (day) DO UPDATE`
	insertEntriesSQL = `INSERT INTO ledger_entries (day,dedup_key,first_seen) VALUES ($1,$2,$3),($4,$5,$6) ON CONFLICT (day, dedup_key) DO NOTHING`
)

func TestPostgresStore_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	updated := time.Date(2025, 3, 10, 4, 0, 0, 0, time.UTC)
	seen := time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(selectDaySQL)).
		WithArgs("2025-03-10").
		WillReturnRows(pgxmock.NewRows([]string{"day", "runs", "stats", "updated_at"}).
			AddRow("2025-03-10", 2, []byte(`{"nature_of_suit":{"820":1},"bands":{"critical":1},"items":1}`), updated))
	mock.ExpectQuery(regexp.QuoteMeta(selectEntriesSQL)).
		WithArgs("2025-03-10").
		WillReturnRows(pgxmock.NewRows([]string{"dedup_key", "first_seen"}).
			AddRow("docket:cand:123", seen))

	got, err := NewPostgresStore(mock).Load(context.Background(), "2025-03-10")
	require.NoError(t, err)

	assert.Equal(t, "2025-03-10", got.Day)
	assert.Equal(t, 2, got.Runs)
	assert.Equal(t, 1, got.Stats.NatureOfSuit["820"])
	assert.Equal(t, 1, got.Stats.Bands[domain.BandCritical])
	assert.True(t, got.Entries["docket:cand:123"].Equal(seen))
	assert.True(t, got.UpdatedAt.Equal(updated))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadNoRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectDaySQL)).
		WithArgs("2025-03-10").
		WillReturnError(pgx.ErrNoRows)

	got, err := NewPostgresStore(mock).Load(context.Background(), "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "", got.Day)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadFailureIsUnavailable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectDaySQL)).
		WithArgs("2025-03-10").
		WillReturnError(errors.New("connection refused"))

	_, err = NewPostgresStore(mock).Load(context.Background(), "2025-03-10")
	require.ErrorIs(t, err, ledger.ErrUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveCommits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC)
	snapshot := sampleLedger("2025-03-10", at)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(upsertDaySQL)).
		WithArgs("2025-03-10", 2, pgxmock.AnyArg(), snapshot.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(insertEntriesSQL)).
		WithArgs(
			"2025-03-10", "docket:cand:123", at,
			"2025-03-10", "news:example.com/story", at.Add(time.Minute),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	require.NoError(t, NewPostgresStore(mock).Save(context.Background(), snapshot))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRollsBackOnFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	snapshot := sampleLedger("2025-03-10", time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(upsertDaySQL)).
		WithArgs("2025-03-10", 2, pgxmock.AnyArg(), snapshot.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(insertEntriesSQL)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = NewPostgresStore(mock).Save(context.Background(), snapshot)
	require.ErrorIs(t, err, ledger.ErrUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS ledger_days")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, NewPostgresStore(mock).EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
