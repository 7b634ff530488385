// Package scheduler polls the configured feeds and pushes every unseen
// item through the dispatch pipeline.
package scheduler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sethvargo/go-retry"

	"rss_discord/internal/dispatch"
	"rss_discord/internal/fetcher"
	"rss_discord/internal/model"
	"rss_discord/internal/storage"
	"rss_discord/internal/webhook"
)

const seenRetention = 90 * 24 * time.Hour

// Feed is one feed to poll.
type Feed struct {
	URL      string
	Category string
}

// Dispatcher delivers a single entry to its webhook endpoint.
type Dispatcher interface {
	Dispatch(ctx context.Context, e *model.Entry, s dispatch.Settings) webhook.Result
}

// Scheduler periodically checks feeds and dispatches new entries.
type Scheduler struct {
	store      storage.Storage
	fetcher    *fetcher.Fetcher
	dispatcher Dispatcher
	settings   dispatch.Settings
	feeds      []Feed
	log        *slog.Logger
	tick       time.Duration
	lastPrune  time.Time
}

// New creates a Scheduler with the default HTTP client.
func New(store storage.Storage, d Dispatcher, settings dispatch.Settings, feeds []Feed, log *slog.Logger) *Scheduler {
	return NewWithFetcher(store, fetcher.New(http.DefaultClient), d, settings, feeds, log)
}

// NewWithFetcher creates a Scheduler with a custom fetcher (useful for testing).
func NewWithFetcher(store storage.Storage, f *fetcher.Fetcher, d Dispatcher, settings dispatch.Settings, feeds []Feed, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:      store,
		fetcher:    f,
		dispatcher: d,
		settings:   settings,
		feeds:      feeds,
		log:        log,
		tick:       15 * time.Minute,
	}
}

// SetTickInterval overrides the default 15-minute check interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.checkAll(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAll(ctx)
		}
	}
}

func (s *Scheduler) checkAll(ctx context.Context) {
	for _, feed := range s.feeds {
		if ctx.Err() != nil {
			return
		}
		s.processFeed(ctx, feed)
	}
	s.maybePrune(ctx)
}

func (s *Scheduler) processFeed(ctx context.Context, feed Feed) {
	s.log.Debug("checking feed", "url", feed.URL)

	parsed, err := s.fetchWithRetry(ctx, feed.URL)
	if err != nil {
		s.log.Error("fetch feed", "url", feed.URL, "error", err)
		return
	}

	sent := 0
	for _, item := range parsed.Items {
		if ctx.Err() != nil {
			return
		}

		guid := fetcher.ItemGUID(item)
		seen, err := s.store.IsSeen(ctx, feed.URL, guid)
		if err != nil {
			s.log.Error("check seen", "url", feed.URL, "guid", guid, "error", err)
			continue
		}
		if seen {
			continue
		}

		entry := fetcher.EntryFromItem(parsed, item, feed.Category)
		result := s.dispatcher.Dispatch(ctx, &entry, s.settings)
		s.log.Debug("dispatched entry", "link", entry.Link, "outcome", result.Outcome)
		if result.Outcome != webhook.Skipped {
			sent++
		}

		if err := s.store.MarkSeen(ctx, feed.URL, guid); err != nil {
			s.log.Error("mark seen", "url", feed.URL, "guid", guid, "error", err)
		}
	}

	if sent > 0 {
		s.log.Info("dispatched notifications", "url", feed.URL, "count", sent)
	}
}

// fetchWithRetry fetches a feed, retrying transient failures with
// exponential backoff.
func (s *Scheduler) fetchWithRetry(ctx context.Context, url string) (*gofeed.Feed, error) {
	var parsed *gofeed.Feed
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		f, err := s.fetcher.Fetch(ctx, url)
		if err != nil {
			return retry.RetryableError(err)
		}
		parsed = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

func (s *Scheduler) maybePrune(ctx context.Context) {
	if time.Since(s.lastPrune) < 24*time.Hour {
		return
	}
	s.lastPrune = time.Now()

	n, err := s.store.PruneSeen(ctx, time.Now().Add(-seenRetention))
	if err != nil {
		s.log.Error("prune seen items", "error", err)
		return
	}
	if n > 0 {
		s.log.Info("pruned seen items", "count", n)
	}
}
