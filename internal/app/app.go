package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"LawsuitMonitor/internal/config"
	"LawsuitMonitor/internal/domain"
	"LawsuitMonitor/internal/infrastructure/courtlistener"
	"LawsuitMonitor/internal/infrastructure/parser"
	"LawsuitMonitor/internal/infrastructure/scheduler"
	"LawsuitMonitor/internal/infrastructure/slack"
	"LawsuitMonitor/internal/infrastructure/storage"
	"LawsuitMonitor/internal/logging"
	"LawsuitMonitor/internal/matcher"
	"LawsuitMonitor/internal/ports"
	"LawsuitMonitor/internal/scanner"
	"LawsuitMonitor/internal/scoring"
	"LawsuitMonitor/internal/stats"
	"LawsuitMonitor/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	closers  []func()

	newDriver func(interval time.Duration) ports.Scheduler
}

// New builds a runnable application instance from configuration.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	}
	a := &Application{
		cfg:    cfg,
		logger: baseLogger.With("component", "app"),
		newDriver: func(interval time.Duration) ports.Scheduler {
			return scheduler.NewTickerScheduler(interval)
		},
	}

	m, err := matcher.New(matcher.Options{
		LookbackDays:       cfg.Matching.LookbackDays,
		ConfirmThreshold:   cfg.Matching.ConfirmThreshold,
		CandidateThreshold: cfg.Matching.CandidateThreshold,
		TextWeight:         cfg.Matching.TextWeight,
	})
	if err != nil {
		return nil, fmt.Errorf("matcher: %w", err)
	}

	sc, err := scoring.New(scoring.Options{
		MaxScanChars:    cfg.Scoring.MaxScanChars,
		MaxExcerptChars: cfg.Scoring.MaxExcerptChars,
	})
	if err != nil {
		return nil, fmt.Errorf("scorer: %w", err)
	}

	store, err := a.ledgerStore(ctx, baseLogger)
	if err != nil {
		a.Close()
		return nil, err
	}

	registry := scanner.NewRegistry(parser.NewRSSScanner(nil), parser.NewHTMLScanner(nil))
	news := parser.NewStrategySource(registry, cfg.Sites, cfg.Keywords, baseLogger)

	dockets := courtlistener.New(courtlistener.Options{
		BaseURL:          cfg.Archive.BaseURL,
		Token:            cfg.Archive.Token,
		Queries:          cfg.Archive.Queries,
		MaxResults:       cfg.Archive.MaxResults,
		Concurrency:      cfg.Archive.Concurrency,
		SkipDocumentText: cfg.Archive.SkipDocumentText,
		Logger:           baseLogger,
	})

	var sink ports.ReportSink
	if cfg.Notifications.Slack.WebhookURL != "" {
		notifier := slack.NewNotifier(cfg.Notifications.Slack.WebhookURL, cfg.Scheduler.Location())
		notifier.SkipEmpty = cfg.Notifications.Slack.SkipEmpty
		sink = notifier
	} else {
		a.logger.Info("slack webhook not configured, reports are not posted")
	}

	a.pipeline, err = usecase.NewPipeline(usecase.PipelineDeps{
		Dockets:    dockets,
		News:       news,
		Store:      store,
		Sink:       sink,
		Matcher:    m,
		Scorer:     sc,
		Aggregator: stats.New(stats.Options{NewOnly: !cfg.Report.CountDuplicates, ShowCandidates: cfg.Matching.ShowCandidates}),
		Logger:     baseLogger,

		Location:       cfg.Scheduler.Location(),
		LookbackDays:   cfg.Matching.LookbackDays,
		TopN:           cfg.Report.TopN,
		ShowCandidates: cfg.Matching.ShowCandidates,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return a, nil
}

func (a *Application) ledgerStore(ctx context.Context, logger *slog.Logger) (ports.LedgerStore, error) {
	cfg := a.cfg.Ledger
	switch cfg.Backend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		store := storage.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			// Runs still degrade cleanly when the database is down.
			a.logger.Warn("postgres schema not ensured", "error", err)
		}
		return store, nil
	case "redis":
		store, err := storage.NewRedisStoreWithURL(cfg.RedisURL, cfg.RedisTTL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		return store, nil
	default:
		return storage.NewFileStore(cfg.Dir, cfg.RetainDays, logger), nil
	}
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context) (domain.RunReport, error) {
	now := time.Now().In(a.cfg.Scheduler.Location())
	return a.pipeline.Run(ctx, now)
}

// Serve runs the pipeline on the configured interval and exposes /metrics
// until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	sched := usecase.NewScheduler(a.newDriver(a.cfg.Scheduler.Interval), a.pipeline, a.cfg.Scheduler.Interval, a.logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{
		Addr:              a.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen metrics: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("metrics listener started", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if err := sched.Start(ctx); err != nil {
		a.shutdownListener(srv, ln)
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "interval", a.cfg.Scheduler.Interval.String())

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		a.logger.Error("metrics listener failed", "error", serveErr)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		a.logger.Warn("scheduler stop", "error", err)
	}
	a.shutdownListener(srv, ln)
	return serveErr
}

// shutdownListener stops the metrics server and releases its socket even
// when Serve has not picked the listener up yet.
func (a *Application) shutdownListener(srv *http.Server, ln net.Listener) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		a.logger.Warn("metrics shutdown", "error", err)
	}
	_ = ln.Close()
}

// Close releases backend connections.
func (a *Application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
