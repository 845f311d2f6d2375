package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LawsuitMonitor/internal/domain"
)

type namedScanner string

func (n namedScanner) Name() string { return string(n) }

func (n namedScanner) Scan(context.Context, Request) ([]domain.NewsItem, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(namedScanner("rss"), namedScanner("html"))

	s, err := reg.Resolve("rss")
	require.NoError(t, err)
	assert.Equal(t, "rss", s.Name())

	_, err = reg.Resolve("arxiv")
	assert.Error(t, err)

	assert.Equal(t, []string{"html", "rss"}, reg.Names())
}

func TestRequestOption(t *testing.T) {
	t.Parallel()

	req := Request{Options: map[string]string{"item": "li.story", "title": ""}}
	assert.Equal(t, "li.story", req.Option("item", "article"))
	assert.Equal(t, "h2", req.Option("title", "h2"))
	assert.Equal(t, "a", req.Option("link", "a"))
}
