// Package dispatch orchestrates delivery of a single entry: route,
// classify, compose, deliver. Failures are contained here; nothing
// propagates to the ingestion side as a fault.
package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"rss_discord/internal/media"
	"rss_discord/internal/message"
	"rss_discord/internal/model"
	"rss_discord/internal/route"
	"rss_discord/internal/webhook"
)

// ErrNoEndpoint reports that no webhook endpoint is configured for an
// entry that needs one.
var ErrNoEndpoint = errors.New("webhook endpoint is not configured")

// Settings is the per-dispatch snapshot of operator configuration. It
// is read-only for the duration of a dispatch and safe to share across
// concurrent dispatches.
type Settings struct {
	Endpoint       string
	Identity       message.Identity
	IgnoreAutoread bool
	LinkPatterns   []string
	ImagePatterns  []string
	Routes         route.CategoryMap
}

// ImageFetcher downloads and validates remote images.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*media.Image, error)
}

// Sender delivers payloads to webhook endpoints.
type Sender interface {
	SendContent(ctx context.Context, endpoint string, id message.Identity, content string) webhook.Result
	SendEmbed(ctx context.Context, endpoint string, id message.Identity, embed message.Embed) webhook.Result
	SendImage(ctx context.Context, endpoint string, id message.Identity, img *media.Image) webhook.Result
}

// Pipeline dispatches entries to webhook endpoints.
type Pipeline struct {
	composer *message.Composer
	images   ImageFetcher
	sender   Sender
	log      *slog.Logger
}

// New creates a Pipeline.
func New(composer *message.Composer, images ImageFetcher, sender Sender, log *slog.Logger) *Pipeline {
	return &Pipeline{
		composer: composer,
		images:   images,
		sender:   sender,
		log:      log,
	}
}

// Dispatch routes and delivers one entry. It never returns an error to
// the caller and never mutates the entry: a notification failure must
// not block ingestion. The result is returned for observability only.
func (p *Pipeline) Dispatch(ctx context.Context, e *model.Entry, s Settings) webhook.Result {
	if s.IgnoreAutoread && e.Read {
		p.log.Debug("skipping already-read entry", "link", e.Link)
		return webhook.Result{Outcome: webhook.Skipped}
	}

	mode := route.Classify(e.Link, s.LinkPatterns, s.ImagePatterns)

	endpoint := s.Routes.Resolve(e.Feed.Category, s.Endpoint)
	if endpoint == "" {
		p.log.Error("webhook endpoint is not configured", "link", e.Link)
		return webhook.Result{Outcome: webhook.TransportFailed, Err: ErrNoEndpoint}
	}
	if endpoint != s.Endpoint {
		p.log.Info("routing to category webhook",
			"category", e.Feed.Category, "endpoint", endpoint)
	}

	switch mode {
	case route.ModeLink:
		return p.sender.SendContent(ctx, endpoint, s.Identity, e.Link)
	case route.ModeImage:
		return p.dispatchImage(ctx, endpoint, s.Identity, e.Link)
	default:
		embed, err := p.composer.Embed(e, s.Identity)
		if err != nil {
			p.log.Error("compose embed failed", "link", e.Link, "error", err)
			return webhook.Result{Outcome: webhook.TransportFailed, Err: err}
		}
		return p.sender.SendEmbed(ctx, endpoint, s.Identity, embed)
	}
}

// dispatchImage runs the image path: download, validate, upload. A
// failed download or an undecodable body aborts this entry's delivery;
// it is not retried as an embed.
func (p *Pipeline) dispatchImage(ctx context.Context, endpoint string, id message.Identity, imageURL string) webhook.Result {
	img, err := p.images.Fetch(ctx, imageURL)
	if err != nil {
		if errors.Is(err, media.ErrNotImage) {
			p.log.Error("invalid image format", "url", imageURL, "error", err)
		} else {
			p.log.Error("image download failed", "url", imageURL, "error", err)
		}
		return webhook.Result{Outcome: webhook.TransportFailed, Err: err}
	}
	return p.sender.SendImage(ctx, endpoint, id, img)
}
