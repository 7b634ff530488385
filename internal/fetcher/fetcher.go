// Package fetcher handles feed downloading, parsing, and mapping of
// feed items into dispatchable entries.
package fetcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mmcdole/gofeed"

	"rss_discord/internal/model"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads and parses feeds.
type Fetcher struct {
	client  HTTPClient
	timeout time.Duration
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{
		client:  client,
		timeout: 30 * time.Second,
	}
}

// Fetch downloads and parses a feed from the given URL. The whole
// download is bounded by the fetcher's timeout.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "DiscordFeedNotifier/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// ItemGUID returns the GUID for a feed item.
// If the item has no GUID, a SHA-256 hash of title+link is used.
func ItemGUID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	h := sha256.Sum256([]byte(item.Title + "|" + item.Link))
	return fmt.Sprintf("sha256:%x", h[:16])
}

// EntryFromItem maps a parsed feed item into a dispatchable entry.
// The category falls back to the feed's own first category when the
// operator did not assign one.
func EntryFromItem(feed *gofeed.Feed, item *gofeed.Item, category string) model.Entry {
	if category == "" && len(feed.Categories) > 0 {
		category = feed.Categories[0]
	}

	published := time.Now().UTC()
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	content := item.Content
	if content == "" {
		content = item.Description
	}

	return model.Entry{
		Link:      item.Link,
		Title:     item.Title,
		Content:   content,
		Published: published,
		Thumbnail: itemThumbnail(item),
		Feed: model.FeedInfo{
			Name:     feed.Title,
			Website:  feed.Link,
			Category: category,
		},
	}
}

// itemThumbnail extracts a preview image, preferring a media:thumbnail
// extension (which may carry dimensions) over the item image.
func itemThumbnail(item *gofeed.Item) *model.Thumbnail {
	if exts, ok := item.Extensions["media"]; ok {
		for _, ext := range exts["thumbnail"] {
			url := ext.Attrs["url"]
			if url == "" {
				continue
			}
			width, _ := strconv.Atoi(ext.Attrs["width"])
			height, _ := strconv.Atoi(ext.Attrs["height"])
			return &model.Thumbnail{URL: url, Width: width, Height: height}
		}
	}
	if item.Image != nil && item.Image.URL != "" {
		return &model.Thumbnail{URL: item.Image.URL}
	}
	return nil
}
