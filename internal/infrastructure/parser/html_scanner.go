package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"LawsuitMonitor/internal/domain"
	"LawsuitMonitor/internal/scanner"
)

// Selector options understood by HTMLScanner, with their defaults.
const (
	optItem       = "item"
	optTitle      = "title"
	optLink       = "link"
	optSummary    = "summary"
	optDate       = "date"
	optDateAttr   = "dateAttr"
	optDateLayout = "dateLayout"
	optPageParam  = "pageParam"
	optMaxPages   = "maxPages"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// HTMLScanner crawls news listing pages using CSS selectors from site options.
type HTMLScanner struct {
	client *http.Client
}

// NewHTMLScanner wires an HTTP client; nil falls back to a 20s timeout client.
func NewHTMLScanner(client *http.Client) *HTMLScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTMLScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (h *HTMLScanner) Name() string {
	return "html"
}

// Scan walks each listing (and its following pages when pageParam is set)
// until a page is empty or reaches items older than the request window.
func (h *HTMLScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.NewsItem, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided for site %s", req.SiteName)
	}

	maxPages := 1
	if v, err := strconv.Atoi(req.Option(optMaxPages, "1")); err == nil && v > 0 {
		maxPages = v
	}
	pageParam := req.Option(optPageParam, "")
	if pageParam == "" {
		maxPages = 1
	}

	var results []domain.NewsItem
	seen := map[string]struct{}{}

	for _, cat := range req.Categories {
		for page := 1; page <= maxPages; page++ {
			pageURL, err := buildPageURL(cat.URL, pageParam, page)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat.Name, err)
			}

			doc, err := h.fetchDocument(ctx, pageURL)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat.Name, err)
			}

			items, shouldContinue := extractItems(doc, req, pageURL)
			for _, item := range items {
				if _, ok := seen[item.URL]; ok {
					continue
				}
				seen[item.URL] = struct{}{}
				results = append(results, item)
			}

			if !shouldContinue {
				break
			}
		}
	}

	return results, nil
}

func (h *HTMLScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// extractItems reports whether the next page may still hold in-window items.
func extractItems(doc *goquery.Document, req scanner.Request, pageURL string) ([]domain.NewsItem, bool) {
	var (
		collected    []domain.NewsItem
		continueScan = true
		processed    int
	)

	doc.Find(req.Option(optItem, "article")).Each(func(_ int, sel *goquery.Selection) {
		processed++
		item, ok := parseEntry(sel, req, pageURL)
		if !ok {
			return
		}
		if !req.From.IsZero() && !item.PublishedAt.IsZero() && item.PublishedAt.Before(req.From) {
			continueScan = false
		}
		collected = append(collected, item)
	})

	if processed == 0 {
		continueScan = false
	}
	return collected, continueScan
}

func parseEntry(sel *goquery.Selection, req scanner.Request, pageURL string) (domain.NewsItem, bool) {
	title := strings.Join(strings.Fields(sel.Find(req.Option(optTitle, "h2, h3")).First().Text()), " ")
	if title == "" {
		return domain.NewsItem{}, false
	}

	href, _ := sel.Find(req.Option(optLink, "a[href]")).First().Attr("href")
	link := resolveURL(pageURL, href)
	if link == "" {
		return domain.NewsItem{}, false
	}

	summary := strings.Join(strings.Fields(sel.Find(req.Option(optSummary, "p")).First().Text()), " ")

	dateSel := sel.Find(req.Option(optDate, "time")).First()
	dateText, ok := dateSel.Attr(req.Option(optDateAttr, "datetime"))
	if !ok || strings.TrimSpace(dateText) == "" {
		dateText = dateSel.Text()
	}

	return domain.NewsItem{
		Title:       title,
		Summary:     summary,
		URL:         link,
		Source:      req.SiteName,
		PublishedAt: parseDate(dateText, req.Option(optDateLayout, "")),
	}, true
}

// parseDate returns the zero time when no layout fits.
func parseDate(raw, layout string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	layouts := dateLayouts
	if layout != "" {
		layouts = append([]string{layout}, dateLayouts...)
	}
	for _, l := range layouts {
		if parsed, err := time.Parse(l, raw); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}

func buildPageURL(base, pageParam string, page int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid category url %s: %w", base, err)
	}
	if pageParam == "" || page <= 1 {
		return parsed.String(), nil
	}

	query := parsed.Query()
	query.Set(pageParam, strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
