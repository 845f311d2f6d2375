package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"LawsuitMonitor/internal/domain"
	"LawsuitMonitor/internal/ledger"
	"LawsuitMonitor/internal/ports"
)

// Schema creates the ledger tables.
const Schema = `
CREATE TABLE IF NOT EXISTS ledger_days (
    day        TEXT PRIMARY KEY,
    runs       INTEGER NOT NULL DEFAULT 0,
    stats      JSONB NOT NULL DEFAULT '{}'::jsonb,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS ledger_entries (
    day        TEXT NOT NULL REFERENCES ledger_days(day) ON DELETE CASCADE,
    dedup_key  TEXT NOT NULL,
    first_seen TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (day, dedup_key)
);`

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore persists day ledgers into Postgres.
type PostgresStore struct {
	db   DB
	psql sq.StatementBuilderType
}

var _ ports.LedgerStore = (*PostgresStore)(nil)

// NewPostgresStore wires a pgx pool (or any DB implementation).
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{
		db:   db,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// EnsureSchema creates tables when missing.
func (r *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

// Load returns the latest snapshot at or before day.
func (r *PostgresStore) Load(ctx context.Context, day string) (domain.DayLedger, error) {
	query, args, err := r.psql.
		Select("day", "runs", "stats", "updated_at").
		From("ledger_days").
		Where(sq.LtOrEq{"day": day}).
		OrderBy("day DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.DayLedger{}, fmt.Errorf("build day query: %w", err)
	}

	var (
		snapshot = domain.NewDayLedger("")
		rawStats []byte
	)
	err = r.db.QueryRow(ctx, query, args...).Scan(&snapshot.Day, &snapshot.Runs, &rawStats, &snapshot.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DayLedger{}, nil
	}
	if err != nil {
		return domain.DayLedger{}, fmt.Errorf("%w: query day: %v", ledger.ErrUnavailable, err)
	}

	if len(rawStats) > 0 {
		var stats domain.DailyStats
		if err := json.Unmarshal(rawStats, &stats); err != nil {
			return domain.DayLedger{}, fmt.Errorf("%w: decode stats: %v", ledger.ErrUnavailable, err)
		}
		snapshot.Stats = stats.Clone()
	}

	query, args, err = r.psql.
		Select("dedup_key", "first_seen").
		From("ledger_entries").
		Where(sq.Eq{"day": snapshot.Day}).
		ToSql()
	if err != nil {
		return domain.DayLedger{}, fmt.Errorf("build entries query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return domain.DayLedger{}, fmt.Errorf("%w: query entries: %v", ledger.ErrUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key       string
			firstSeen time.Time
		)
		if err := rows.Scan(&key, &firstSeen); err != nil {
			return domain.DayLedger{}, fmt.Errorf("%w: scan entry: %v", ledger.ErrUnavailable, err)
		}
		snapshot.Entries[domain.DedupKey(key)] = firstSeen
	}
	if err := rows.Err(); err != nil {
		return domain.DayLedger{}, fmt.Errorf("%w: rows iteration: %v", ledger.ErrUnavailable, err)
	}

	return snapshot, nil
}

// Save upserts the day row and inserts new entries in one transaction.
// Existing entries keep their first-seen time.
func (r *PostgresStore) Save(ctx context.Context, snapshot domain.DayLedger) error {
	rawStats, err := json.Marshal(snapshot.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	dayQuery, dayArgs, err := r.psql.
		Insert("ledger_days").
		Columns("day", "runs", "stats", "updated_at").
		Values(snapshot.Day, snapshot.Runs, rawStats, snapshot.UpdatedAt).
		Suffix("ON CONFLICT (day) DO UPDATE SET runs = EXCLUDED.runs, stats = EXCLUDED.stats, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build day upsert: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ledger.ErrUnavailable, err)
	}

	if err := r.saveTx(ctx, tx, snapshot, dayQuery, dayArgs); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", ledger.ErrUnavailable, err)
	}
	return nil
}

func (r *PostgresStore) saveTx(ctx context.Context, tx pgx.Tx, snapshot domain.DayLedger, dayQuery string, dayArgs []any) error {
	if _, err := tx.Exec(ctx, dayQuery, dayArgs...); err != nil {
		return fmt.Errorf("upsert day: %w", err)
	}
	if len(snapshot.Entries) == 0 {
		return nil
	}

	keys := make([]string, 0, len(snapshot.Entries))
	for k := range snapshot.Entries {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	insert := r.psql.
		Insert("ledger_entries").
		Columns("day", "dedup_key", "first_seen")
	for _, k := range keys {
		insert = insert.Values(snapshot.Day, k, snapshot.Entries[domain.DedupKey(k)])
	}
	query, args, err := insert.Suffix("ON CONFLICT (day, dedup_key) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build entries insert: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert entries: %w", err)
	}
	return nil
}
