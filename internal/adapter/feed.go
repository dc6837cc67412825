package adapter

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/amishk599/pitchdesk/internal/model"
)

var _ model.EntryFetcher = (*FeedAdapter)(nil)

// FeedAdapter fetches and parses one RSS/Atom feed.
type FeedAdapter struct {
	url    string
	client *http.Client
	parser *gofeed.Parser
}

// NewFeedAdapter creates an adapter for the feed at url.
func NewFeedAdapter(url string, client *http.Client) *FeedAdapter {
	return &FeedAdapter{
		url:    url,
		client: client,
		parser: gofeed.NewParser(),
	}
}

// FetchEntries downloads the feed and normalizes its items. Items without a
// link are dropped since the link is the posting identity.
func (a *FeedAdapter) FetchEntries(ctx context.Context) ([]model.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, fmt.Errorf("feed fetch for %s: %w", a.url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed fetch for %s: %w", a.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed fetch for %s: %w", a.url, statusError(resp, "feed"))
	}

	feed, err := a.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("feed parse for %s: %w", a.url, err)
	}

	entries := make([]model.Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || strings.TrimSpace(item.Link) == "" {
			continue
		}
		entries = append(entries, normalizeItem(item))
	}
	return entries, nil
}

func normalizeItem(item *gofeed.Item) model.Entry {
	e := model.Entry{
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Description: extractText(cmp.Or(item.Description, item.Content)),
		Author:      authorName(item),
		Published:   item.PublishedParsed,
	}
	if e.Published == nil {
		e.Published = item.UpdatedParsed
	}
	if item.Custom != nil {
		e.Budget = strings.TrimSpace(item.Custom["budget"])
	}
	return e
}

func authorName(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, p := range item.Authors {
		if p != nil && p.Name != "" {
			return p.Name
		}
	}
	return ""
}
