package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"LawsuitMonitor/internal/domain"
	"LawsuitMonitor/internal/ports"
	"LawsuitMonitor/internal/report"
)

// Notifier posts run digests to a Slack incoming webhook.
type Notifier struct {
	webhookURL string
	loc        *time.Location
	client     *http.Client
	// SkipEmpty suppresses posts for runs without new items or warnings.
	SkipEmpty bool
}

var _ ports.ReportSink = (*Notifier)(nil)

// NewNotifier registers the webhook URL; loc sets the digest timestamp zone.
func NewNotifier(webhookURL string, loc *time.Location) *Notifier {
	return &Notifier{
		webhookURL: strings.TrimSpace(webhookURL),
		loc:        loc,
		client:     &http.Client{Timeout: 20 * time.Second},
	}
}

// Publish posts the run summary as a Slack message.
func (n *Notifier) Publish(ctx context.Context, r domain.RunReport) error {
	if n.webhookURL == "" || n.client == nil {
		return fmt.Errorf("slack notifier misconfigured")
	}
	if n.SkipEmpty && len(r.New) == 0 && len(r.Warnings) == 0 {
		return nil
	}

	body, err := json.Marshal(map[string]string{"text": report.Summary(r, n.loc)})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("slack error: %s %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	return nil
}
