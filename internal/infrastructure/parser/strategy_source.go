package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"LawsuitMonitor/internal/config"
	"LawsuitMonitor/internal/domain"
	"LawsuitMonitor/internal/ports"
	"LawsuitMonitor/internal/scanner"
)

// ErrAllSitesFailed is returned when no configured site could be scanned.
var ErrAllSitesFailed = errors.New("all news sites failed")

// StrategySource implements NewsSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SiteConfig
	keywords []string
	logger   *slog.Logger
}

var _ ports.NewsSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sites. Items
// must mention one of keywords (case-insensitive) unless keywords is empty.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, keywords []string, log *slog.Logger) *StrategySource {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	if log != nil {
		log = log.With("component", "news_source")
	}
	return &StrategySource{
		registry: reg,
		sites:    sites,
		keywords: lowered,
		logger:   log,
	}
}

// FetchNews iterates over configured sites and executes their scanners.
// A failing site is skipped with a warning; the call fails only when every site does.
func (s *StrategySource) FetchNews(ctx context.Context, window ports.Window) ([]domain.NewsItem, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch news", "sites", len(s.sites), "from", window.From, "to", window.To)

	var (
		aggregated []domain.NewsItem
		failures   []error
	)
	seen := map[string]struct{}{}

	for _, site := range s.sites {
		s.debug("process site", "site", site.Name, "scanner", site.Scanner, "categories", len(site.Categories))
		results, err := s.scanSite(ctx, site, window)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.warn("skip site", "site", site.Name, "error", err)
			failures = append(failures, fmt.Errorf("site %s: %w", site.Name, err))
			continue
		}

		kept := 0
		for _, item := range results {
			if item.Source == "" {
				item.Source = site.Name
			}
			if !inWindow(item, window) || !s.relevant(item) {
				continue
			}
			id := item.URL
			if id == "" {
				id = item.Source + "|" + item.Title
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			aggregated = append(aggregated, item)
			kept++
		}
		s.debug("site produced items", "site", site.Name, "scanned", len(results), "kept", kept)
	}

	if len(s.sites) > 0 && len(failures) == len(s.sites) {
		return nil, fmt.Errorf("%w: %w", ErrAllSitesFailed, errors.Join(failures...))
	}

	s.debug("strategy source done", "total_items", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) scanSite(ctx context.Context, site config.SiteConfig, window ports.Window) ([]domain.NewsItem, error) {
	strategy, err := s.registry.Resolve(site.Scanner)
	if err != nil {
		return nil, err
	}

	req := scanner.Request{
		From:       window.From,
		To:         window.To,
		SiteName:   site.Name,
		Options:    site.Options,
		Categories: toScannerCategories(site.Categories),
	}
	return strategy.Scan(ctx, req)
}

// inWindow keeps undated items; feeds without dates are still worth matching.
func inWindow(item domain.NewsItem, window ports.Window) bool {
	if item.PublishedAt.IsZero() || (window.From.IsZero() && window.To.IsZero()) {
		return true
	}
	return window.Contains(item.PublishedAt)
}

func (s *StrategySource) relevant(item domain.NewsItem) bool {
	if len(s.keywords) == 0 {
		return true
	}
	text := strings.ToLower(item.Title + " " + item.Summary)
	for _, k := range s.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func toScannerCategories(cfg []config.CategoryConfig) []scanner.Category {
	categories := make([]scanner.Category, 0, len(cfg))
	for _, cat := range cfg {
		categories = append(categories, scanner.Category{
			Name: cat.Name,
			URL:  cat.URL,
		})
	}
	return categories
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
