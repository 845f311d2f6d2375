package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"LawsuitMonitor/internal/domain"
	"LawsuitMonitor/internal/ledger"
	"LawsuitMonitor/internal/ports"
)

const (
	filePrefix = "ledger-"
	fileSuffix = ".json"
)

// FileStore keeps one JSON snapshot per reporting day in a directory.
type FileStore struct {
	dir        string
	retainDays int
	mu         sync.Mutex
	logger     *slog.Logger
}

var _ ports.LedgerStore = (*FileStore)(nil)

// NewFileStore stores snapshots under dir and prunes days older than
// retainDays (0 keeps everything).
func NewFileStore(dir string, retainDays int, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		dir:        dir,
		retainDays: retainDays,
		logger:     logger.With("component", "file_ledger"),
	}
}

// Load returns the latest snapshot at or before day.
func (s *FileStore) Load(ctx context.Context, day string) (domain.DayLedger, error) {
	if err := ctx.Err(); err != nil {
		return domain.DayLedger{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	days, err := s.listDays()
	if err != nil {
		return domain.DayLedger{}, fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}

	target := ""
	for _, d := range days {
		if d <= day {
			target = d
		}
	}
	if target == "" {
		return domain.DayLedger{}, nil
	}

	raw, err := os.ReadFile(s.path(target))
	if err != nil {
		return domain.DayLedger{}, fmt.Errorf("%w: read %s: %v", ledger.ErrUnavailable, target, err)
	}

	var snapshot domain.DayLedger
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return domain.DayLedger{}, fmt.Errorf("%w: decode %s: %v", ledger.ErrUnavailable, target, err)
	}
	if snapshot.Entries == nil {
		snapshot.Entries = map[domain.DedupKey]time.Time{}
	}
	if snapshot.Stats.NatureOfSuit == nil || snapshot.Stats.Bands == nil {
		snapshot.Stats = snapshot.Stats.Clone()
	}
	return snapshot, nil
}

// Save writes the snapshot to a temp file and renames it into place.
func (s *FileStore) Save(ctx context.Context, snapshot domain.DayLedger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snapshot.Day == "" {
		return fmt.Errorf("%w: snapshot without day", ledger.ErrUnavailable)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create dir: %v", ledger.ErrUnavailable, err)
	}

	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, filePrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("%w: temp file: %v", ledger.ErrUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write: %v", ledger.ErrUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: sync: %v", ledger.ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ledger.ErrUnavailable, err)
	}
	if err := os.Rename(tmpName, s.path(snapshot.Day)); err != nil {
		return fmt.Errorf("%w: rename: %v", ledger.ErrUnavailable, err)
	}

	s.prune(snapshot.Day)
	return nil
}

func (s *FileStore) path(day string) string {
	return filepath.Join(s.dir, filePrefix+day+fileSuffix)
}

// listDays returns stored days in ascending order.
func (s *FileStore) listDays() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var days []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		day := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		if _, err := time.Parse(ledger.DayLayout, day); err != nil {
			continue
		}
		days = append(days, day)
	}
	sort.Strings(days)
	return days, nil
}

// prune removes snapshots older than retainDays before current. Failures are logged only.
func (s *FileStore) prune(current string) {
	if s.retainDays <= 0 {
		return
	}
	cur, err := time.Parse(ledger.DayLayout, current)
	if err != nil {
		return
	}
	cutoff := cur.AddDate(0, 0, -s.retainDays).Format(ledger.DayLayout)

	days, err := s.listDays()
	if err != nil {
		s.logger.Warn("list ledger files", "error", err)
		return
	}
	for _, d := range days {
		if d >= cutoff {
			break
		}
		if err := os.Remove(s.path(d)); err != nil {
			s.logger.Warn("prune ledger file", "day", d, "error", err)
			continue
		}
		s.logger.Debug("pruned ledger file", "day", d)
	}
}
