// Package courtlistener reads RECAP dockets and filed documents from the
// CourtListener REST API.
package courtlistener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"LawsuitMonitor/internal/domain"
	"LawsuitMonitor/internal/ports"
)

const (
	searchPath        = "/api/rest/v4/search/"
	recapDocumentPath = "/api/rest/v4/recap-documents/"
	userAgent         = "LawsuitMonitor/1.0"
	dateLayout        = "2006-01-02"
)

// errUnauthorized marks 401/403 answers; the archive is then treated as empty.
var errUnauthorized = errors.New("courtlistener rejected credentials")

// Options configures the archive client.
type Options struct {
	BaseURL          string
	Token            string
	Queries          []string
	MaxResults       int
	Concurrency      int
	SkipDocumentText bool
	HTTPClient       *http.Client
	Logger           *slog.Logger
}

// Client implements ports.DocketSource over CourtListener search.
type Client struct {
	baseURL     string
	token       string
	queries     []string
	maxResults  int
	concurrency int
	skipDocText bool
	httpClient  *http.Client
	logger      *slog.Logger
}

var _ ports.DocketSource = (*Client)(nil)

// New builds a client; zero options fall back to conservative defaults.
func New(opts Options) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		token:       strings.TrimSpace(opts.Token),
		queries:     opts.Queries,
		maxResults:  opts.MaxResults,
		concurrency: opts.Concurrency,
		skipDocText: opts.SkipDocumentText,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = "https://www.courtlistener.com"
	}
	if c.maxResults <= 0 {
		c.maxResults = 20
	}
	if c.concurrency <= 0 {
		c.concurrency = 4
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 25 * time.Second}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("component", "courtlistener")
	return c
}

type searchResponse struct {
	Count   int            `json:"count"`
	Results []searchResult `json:"results"`
}

type searchResult struct {
	DocketID          int64            `json:"docket_id"`
	CaseName          string           `json:"caseName"`
	DocketNumber      string           `json:"docketNumber"`
	CourtID           string           `json:"court_id"`
	DateFiled         string           `json:"dateFiled"`
	SuitNature        string           `json:"suitNature"`
	DocketAbsoluteURL string           `json:"docket_absolute_url"`
	Party             []string         `json:"party"`
	RecapDocuments    []searchDocument `json:"recap_documents"`
}

type searchDocument struct {
	ID             int64  `json:"id"`
	Description    string `json:"description"`
	ShortDesc      string `json:"short_description"`
	Snippet        string `json:"snippet"`
	AbsoluteURL    string `json:"absolute_url"`
	EntryDateFiled string `json:"entry_date_filed"`
}

type recapDocumentsResponse struct {
	Results []recapDocument `json:"results"`
}

type recapDocument struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	PlainText   string `json:"plain_text"`
	AbsoluteURL string `json:"absolute_url"`
	DateCreated string `json:"date_created"`
}

// FetchDockets runs every configured query for dockets filed inside the
// window, merges them by docket id and optionally attaches document text.
// Rejected credentials yield an empty result, not an error.
func (c *Client) FetchDockets(ctx context.Context, window ports.Window) ([]domain.DocketRecord, error) {
	merged := map[string]*domain.DocketRecord{}
	var order []string
	failures := 0

	for _, q := range c.queries {
		results, err := c.search(ctx, q, window)
		if errors.Is(err, errUnauthorized) {
			c.logger.Warn("archive credentials rejected, continuing without dockets")
			return nil, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures++
			c.logger.Warn("search failed", "query", q, "error", err)
			continue
		}

		for _, r := range results {
			record := c.toDocket(r)
			key := record.Court + "|" + record.DocketID
			if existing, ok := merged[key]; ok {
				mergeDocuments(existing, record.Documents)
				continue
			}
			merged[key] = &record
			order = append(order, key)
		}
	}

	if len(c.queries) > 0 && failures == len(c.queries) {
		return nil, fmt.Errorf("courtlistener: all %d searches failed", failures)
	}

	dockets := make([]domain.DocketRecord, 0, len(order))
	for _, key := range order {
		dockets = append(dockets, *merged[key])
	}

	if !c.skipDocText && len(dockets) > 0 {
		if err := c.attachDocumentText(ctx, dockets); err != nil {
			return nil, err
		}
	}

	c.logger.Debug("dockets fetched", "queries", len(c.queries), "dockets", len(dockets))
	return dockets, nil
}

func (c *Client) search(ctx context.Context, query string, window ports.Window) ([]searchResult, error) {
	params := url.Values{}
	params.Set("type", "r")
	params.Set("q", query)
	params.Set("order_by", "dateFiled desc")
	if !window.From.IsZero() {
		params.Set("filed_after", window.From.UTC().Format(dateLayout))
	}

	var resp searchResponse
	if err := c.getJSON(ctx, searchPath, params, &resp); err != nil {
		return nil, err
	}

	results := resp.Results
	if len(results) > c.maxResults {
		results = results[:c.maxResults]
	}
	return results, nil
}

// attachDocumentText fills plain text for each docket's filed documents.
// Per-docket failures are logged and leave that docket unchanged.
func (c *Client) attachDocumentText(ctx context.Context, dockets []domain.DocketRecord) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	var mu sync.Mutex
	for i := range dockets {
		i := i // per-iteration copy; module targets go 1.21 loop semantics
		g.Go(func() error {
			docs, err := c.listDocuments(gctx, dockets[i].DocketID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Debug("document text unavailable", "docket", dockets[i].DocketID, "error", err)
				return nil
			}
			mu.Lock()
			mergeDocuments(&dockets[i], docs)
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

func (c *Client) listDocuments(ctx context.Context, docketID string) ([]domain.DocumentRef, error) {
	params := url.Values{}
	params.Set("docket", docketID)
	params.Set("page_size", "50")

	var resp recapDocumentsResponse
	if err := c.getJSON(ctx, recapDocumentPath, params, &resp); err != nil {
		return nil, err
	}

	docs := make([]domain.DocumentRef, 0, len(resp.Results))
	for _, d := range resp.Results {
		docs = append(docs, domain.DocumentRef{
			ID:          strconv.FormatInt(d.ID, 10),
			Description: strings.TrimSpace(d.Description),
			URL:         c.absURL(d.AbsoluteURL),
			FiledAt:     parseDate(d.DateCreated),
			Text:        strings.TrimSpace(d.PlainText),
		})
	}
	return docs, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errUnauthorized
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("courtlistener returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) toDocket(r searchResult) domain.DocketRecord {
	record := domain.DocketRecord{
		DocketID:     strconv.FormatInt(r.DocketID, 10),
		CaseNumber:   strings.TrimSpace(r.DocketNumber),
		Court:        strings.TrimSpace(r.CourtID),
		CaseTitle:    strings.TrimSpace(r.CaseName),
		FiledAt:      parseDate(r.DateFiled),
		NatureOfSuit: strings.TrimSpace(r.SuitNature),
		URL:          c.absURL(r.DocketAbsoluteURL),
	}
	for _, p := range r.Party {
		if p = strings.TrimSpace(p); p != "" {
			record.Parties = append(record.Parties, p)
		}
	}
	for _, d := range r.RecapDocuments {
		desc := strings.TrimSpace(d.Description)
		if desc == "" {
			desc = strings.TrimSpace(d.ShortDesc)
		}
		if desc == "" {
			desc = flattenSnippet(d.Snippet)
		}
		record.Documents = append(record.Documents, domain.DocumentRef{
			ID:          strconv.FormatInt(d.ID, 10),
			Description: desc,
			URL:         c.absURL(d.AbsoluteURL),
			FiledAt:     parseDate(d.EntryDateFiled),
		})
	}
	return record
}

// mergeDocuments adds docs to the record, filling text for documents it already holds.
func mergeDocuments(record *domain.DocketRecord, docs []domain.DocumentRef) {
	index := make(map[string]int, len(record.Documents))
	for i, d := range record.Documents {
		index[d.ID] = i
	}
	for _, d := range docs {
		pos, ok := index[d.ID]
		if !ok {
			index[d.ID] = len(record.Documents)
			record.Documents = append(record.Documents, d)
			continue
		}
		existing := &record.Documents[pos]
		if existing.Text == "" {
			existing.Text = d.Text
		}
		if existing.Description == "" {
			existing.Description = d.Description
		}
		if existing.URL == "" {
			existing.URL = d.URL
		}
	}
	sort.SliceStable(record.Documents, func(i, j int) bool {
		return record.Documents[i].FiledAt.Before(record.Documents[j].FiledAt)
	})
}

// flattenSnippet strips search highlight markup.
func flattenSnippet(snippet string) string {
	if strings.TrimSpace(snippet) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
	if err != nil {
		return strings.TrimSpace(snippet)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func (c *Client) absURL(u string) string {
	u = strings.TrimSpace(u)
	switch {
	case u == "":
		return ""
	case strings.HasPrefix(u, "http"):
		return u
	case strings.HasPrefix(u, "/"):
		return c.baseURL + u
	default:
		return u
	}
}

func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(dateLayout) {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t.UTC()
		}
		raw = raw[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
