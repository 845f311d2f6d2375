package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LawsuitMonitor/internal/config"
	"LawsuitMonitor/internal/ports"
)

const undatedFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>AI lawsuits</title>
    <item>
      <title>Authors sue AI lab over training data</title>
      <link>https://news.example.com/authors-sue</link>
      <description>A new copyright complaint was filed.</description>
    </item>
  </channel>
</rss>`

func testConfig(t *testing.T, baseURL string) config.Config {
	t.Helper()
	return config.Config{
		Logging:   config.LoggingConfig{Level: "error", Format: "text"},
		Scheduler: config.SchedulerConfig{Interval: time.Hour, Timezone: "UTC"},
		Ledger:    config.LedgerConfig{Backend: "file", Dir: t.TempDir(), RetainDays: 2},
		Archive: config.ArchiveConfig{
			BaseURL:     baseURL,
			Queries:     []string{`"training data"`},
			MaxResults:  5,
			Concurrency: 1,
		},
		Matching: config.MatchingConfig{
			LookbackDays:       3,
			ConfirmThreshold:   0.6,
			CandidateThreshold: 0.35,
			TextWeight:         0.7,
		},
		Report:   config.ReportConfig{TopN: 3},
		Keywords: []string{"sue"},
		Sites: []config.SiteConfig{{
			Name:       "feed",
			Scanner:    "rss",
			Categories: []config.CategoryConfig{{Name: "ai", URL: baseURL + "/feed"}},
		}},
	}
}

func TestApplicationRunDeduplicatesAcrossRuns(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/rest/v4/search/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":0,"results":[]}`))
	})
	mux.HandleFunc("/feed", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(undatedFeed))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	application, err := New(context.Background(), testConfig(t, server.URL), logger)
	require.NoError(t, err)
	defer application.Close()

	first, err := application.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, first.Degraded)
	assert.Equal(t, 1, first.NewsCount)
	require.Len(t, first.New, 1)
	assert.Empty(t, first.Duplicate)

	second, err := application.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second.New)
	require.Len(t, second.Duplicate, 1)
	assert.Equal(t, first.New[0].Key, second.Duplicate[0].Key)
}

func TestNewRejectsInvalidRedisURL(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Ledger = config.LedgerConfig{Backend: "redis", RedisURL: "not a url"}

	_, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}

type failingDriver struct{}

func (failingDriver) Start(context.Context, func(time.Time)) error { return errors.New("driver down") }
func (failingDriver) Stop(context.Context) error { return nil }

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestServeReleasesMetricsListenerWhenSchedulerFails(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Metrics.Addr = freeAddr(t)

	application, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer application.Close()
	application.newDriver = func(time.Duration) ports.Scheduler { return failingDriver{} }

	err = application.Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start scheduler")

	ln, err := net.Listen("tcp", cfg.Metrics.Addr)
	require.NoError(t, err, "metrics port still held after failed start")
	_ = ln.Close()
}
