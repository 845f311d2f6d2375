package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"LawsuitMonitor/internal/domain"
	"LawsuitMonitor/internal/scanner"
)

const userAgent = "LawsuitMonitor/1.0"

// RSSScanner reads RSS/Atom feeds configured as site categories.
type RSSScanner struct {
	client    *http.Client
	sanitizer *Sanitizer
}

// NewRSSScanner wires an HTTP client; nil falls back to a 20s timeout client.
func NewRSSScanner(client *http.Client) *RSSScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RSSScanner{client: client, sanitizer: NewSanitizer()}
}

// Name identifies the strategy inside the registry.
func (s *RSSScanner) Name() string {
	return "rss"
}

// Scan parses each feed and returns its items. Window filtering is left to the caller.
func (s *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.NewsItem, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no feeds provided for site %s", req.SiteName)
	}

	var results []domain.NewsItem
	seen := map[string]struct{}{}

	for _, cat := range req.Categories {
		feed, err := s.fetchFeed(ctx, cat.URL)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", cat.Name, err)
		}

		for _, entry := range feed.Items {
			item := s.toNewsItem(entry, req.SiteName)
			if item.Title == "" {
				continue
			}
			id := item.URL
			if id == "" {
				id = item.Title
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			results = append(results, item)
		}
	}

	return results, nil
}

func (s *RSSScanner) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

func (s *RSSScanner) toNewsItem(entry *gofeed.Item, siteName string) domain.NewsItem {
	item := domain.NewsItem{
		Title:   strings.TrimSpace(s.sanitizer.PlainText(entry.Title)),
		Summary: s.sanitizer.PlainText(entry.Description),
		URL:     strings.TrimSpace(entry.Link),
		Source:  siteName,
	}
	if item.Summary == "" {
		item.Summary = s.sanitizer.PlainText(entry.Content)
	}

	switch {
	case entry.PublishedParsed != nil:
		item.PublishedAt = entry.PublishedParsed.UTC()
	case entry.UpdatedParsed != nil:
		item.PublishedAt = entry.UpdatedParsed.UTC()
	}
	return item
}
