package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"LawsuitMonitor/internal/domain"
	"LawsuitMonitor/internal/ledger"
	"LawsuitMonitor/internal/ports"
)

const defaultRedisPrefix = "lawsuitmonitor:ledger"

// RedisStore keeps each day as an entries hash plus a meta hash; a sorted
// set indexes stored days for rollover lookups.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ ports.LedgerStore = (*RedisStore)(nil)

// NewRedisStore wraps an existing client. ttl 0 keeps keys forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: defaultRedisPrefix, ttl: ttl}
}

// NewRedisStoreWithURL creates a store from a redis:// URL.
func NewRedisStoreWithURL(url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStore(redis.NewClient(opts), ttl), nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) entriesKey(day string) string { return s.prefix + ":" + day + ":entries" }
func (s *RedisStore) metaKey(day string) string    { return s.prefix + ":" + day + ":meta" }
func (s *RedisStore) daysKey() string              { return s.prefix + ":days" }

// Load returns the latest snapshot at or before day.
func (s *RedisStore) Load(ctx context.Context, day string) (domain.DayLedger, error) {
	score, err := dayScore(day)
	if err != nil {
		return domain.DayLedger{}, err
	}

	days, err := s.client.ZRevRangeByScore(ctx, s.daysKey(), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(score, 10),
		Count: 1,
	}).Result()
	if err != nil {
		return domain.DayLedger{}, fmt.Errorf("%w: list days: %v", ledger.ErrUnavailable, err)
	}
	if len(days) == 0 {
		return domain.DayLedger{}, nil
	}
	target := days[0]

	meta, err := s.client.HGetAll(ctx, s.metaKey(target)).Result()
	if err != nil {
		return domain.DayLedger{}, fmt.Errorf("%w: read meta: %v", ledger.ErrUnavailable, err)
	}
	if len(meta) == 0 {
		// expired
		return domain.DayLedger{}, nil
	}

	snapshot := domain.NewDayLedger(target)
	if snapshot.Runs, err = strconv.Atoi(meta["runs"]); err != nil {
		return domain.DayLedger{}, fmt.Errorf("%w: decode runs: %v", ledger.ErrUnavailable, err)
	}
	if raw := meta["stats"]; raw != "" {
		var stats domain.DailyStats
		if err := json.Unmarshal([]byte(raw), &stats); err != nil {
			return domain.DayLedger{}, fmt.Errorf("%w: decode stats: %v", ledger.ErrUnavailable, err)
		}
		snapshot.Stats = stats.Clone()
	}
	if raw := meta["updated_at"]; raw != "" {
		snapshot.UpdatedAt, _ = time.Parse(time.RFC3339Nano, raw)
	}

	entries, err := s.client.HGetAll(ctx, s.entriesKey(target)).Result()
	if err != nil {
		return domain.DayLedger{}, fmt.Errorf("%w: read entries: %v", ledger.ErrUnavailable, err)
	}
	for k, v := range entries {
		seen, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return domain.DayLedger{}, fmt.Errorf("%w: decode entry %s: %v", ledger.ErrUnavailable, k, err)
		}
		snapshot.Entries[domain.DedupKey(k)] = seen
	}
	return snapshot, nil
}

// Save writes the snapshot in one MULTI/EXEC. HSETNX keeps first-seen
// times of entries that already exist.
func (s *RedisStore) Save(ctx context.Context, snapshot domain.DayLedger) error {
	score, err := dayScore(snapshot.Day)
	if err != nil {
		return err
	}
	rawStats, err := json.Marshal(snapshot.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	entriesKey := s.entriesKey(snapshot.Day)
	metaKey := s.metaKey(snapshot.Day)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range snapshot.Entries {
			pipe.HSetNX(ctx, entriesKey, string(k), v.UTC().Format(time.RFC3339Nano))
		}
		pipe.HSet(ctx, metaKey,
			"runs", snapshot.Runs,
			"stats", string(rawStats),
			"updated_at", snapshot.UpdatedAt.UTC().Format(time.RFC3339Nano),
		)
		pipe.ZAdd(ctx, s.daysKey(), redis.Z{Score: float64(score), Member: snapshot.Day})
		if s.ttl > 0 {
			pipe.Expire(ctx, entriesKey, s.ttl)
			pipe.Expire(ctx, metaKey, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: exec: %v", ledger.ErrUnavailable, err)
	}
	return nil
}

// dayScore maps 2006-01-02 to 20060102 so days sort numerically.
func dayScore(day string) (int64, error) {
	if _, err := time.Parse(ledger.DayLayout, day); err != nil {
		return 0, fmt.Errorf("invalid ledger day %q: %w", day, err)
	}
	return strconv.ParseInt(strings.ReplaceAll(day, "-", ""), 10, 64)
}
