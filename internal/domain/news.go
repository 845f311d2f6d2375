package domain

import "time"

// NewsItem is a syndicated article fetched from a feed collaborator.
type NewsItem struct {
	Title       string
	Summary     string
	URL         string
	Source      string
	PublishedAt time.Time
}
