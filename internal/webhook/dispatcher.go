// Package webhook delivers payloads to Discord webhook endpoints and
// classifies the outcome of each attempt.
package webhook

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"rss_discord/internal/media"
	"rss_discord/internal/message"
)

const defaultTimeout = 30 * time.Second

// Outcome classifies the terminal state of one delivery.
type Outcome int

// Delivery outcomes.
const (
	Delivered Outcome = iota
	DeliveredWithFallback
	Rejected
	TransportFailed
	Skipped // no delivery was attempted
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case DeliveredWithFallback:
		return "delivered_with_fallback"
	case Rejected:
		return "rejected"
	case TransportFailed:
		return "transport_failed"
	case Skipped:
		return "skipped"
	}
	return "unknown"
}

// Result is the outcome of a delivery attempt. Status is set for
// Rejected outcomes, Err for TransportFailed ones.
type Result struct {
	Outcome Outcome
	Status  int
	Err     error
}

// Dispatcher posts payloads to webhook endpoints.
type Dispatcher struct {
	client *http.Client
	log    *slog.Logger
}

// NewDispatcher creates a Dispatcher. A nil client gets a default one
// with a 30-second timeout.
func NewDispatcher(client *http.Client, log *slog.Logger) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Dispatcher{client: client, log: log}
}

type jsonBody struct {
	Username  string          `json:"username"`
	AvatarURL string          `json:"avatar_url"`
	Content   string          `json:"content,omitempty"`
	Embeds    []message.Embed `json:"embeds,omitempty"`
}

// SendContent delivers a plain text message.
func (d *Dispatcher) SendContent(ctx context.Context, endpoint string, id message.Identity, content string) Result {
	return d.sendJSON(ctx, endpoint, jsonBody{
		Username:  id.Username,
		AvatarURL: id.AvatarURL,
		Content:   content,
	})
}

// SendEmbed delivers a single rich-card embed.
func (d *Dispatcher) SendEmbed(ctx context.Context, endpoint string, id message.Identity, embed message.Embed) Result {
	return d.sendJSON(ctx, endpoint, jsonBody{
		Username:  id.Username,
		AvatarURL: id.AvatarURL,
		Embeds:    []message.Embed{embed},
	})
}

// sendJSON posts the body as application/json. The response status is
// deliberately not inspected: the JSON path is fire-and-forget.
func (d *Dispatcher) sendJSON(ctx context.Context, endpoint string, body jsonBody) Result {
	payload, err := json.Marshal(body)
	if err != nil {
		return Result{Outcome: TransportFailed, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{Outcome: TransportFailed, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.log.Error("webhook post failed", "endpoint", endpoint, "error", err)
		return Result{Outcome: TransportFailed, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	return Result{Outcome: Delivered, Status: resp.StatusCode}
}

// SendImage delivers an image as a multipart file upload. A 413
// response falls back to a plain link message carrying the image URL
// against the same endpoint and identity; this is the one automatic
// retry in the system and it changes delivery shape, not payload size.
func (d *Dispatcher) SendImage(ctx context.Context, endpoint string, id message.Identity, img *media.Image) Result {
	body, contentType, err := multipartBody(id, img)
	if err != nil {
		return Result{Outcome: TransportFailed, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return Result{Outcome: TransportFailed, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := d.client.Do(req)
	if err != nil {
		d.log.Error("image upload failed", "endpoint", endpoint, "error", err)
		return Result{Outcome: TransportFailed, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		d.log.Warn("image too large, falling back to link",
			"url", img.SourceURL, "bytes", len(img.Data))
		if res := d.SendContent(ctx, endpoint, id, img.SourceURL); res.Outcome != Delivered {
			return res
		}
		return Result{Outcome: DeliveredWithFallback, Status: resp.StatusCode}
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		d.log.Info("image uploaded", "url", img.SourceURL)
		return Result{Outcome: Delivered, Status: resp.StatusCode}
	default:
		d.log.Error("image upload rejected", "url", img.SourceURL, "status", resp.StatusCode)
		return Result{Outcome: Rejected, Status: resp.StatusCode}
	}
}

func multipartBody(id message.Identity, img *media.Image) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(newBoundary()); err != nil {
		return nil, "", fmt.Errorf("set boundary: %w", err)
	}

	if err := w.WriteField("username", id.Username); err != nil {
		return nil, "", fmt.Errorf("write username: %w", err)
	}
	if err := w.WriteField("avatar_url", id.AvatarURL); err != nil {
		return nil, "", fmt.Errorf("write avatar_url: %w", err)
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, img.Filename))
	header.Set("Content-Type", img.MIME)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// newBoundary returns a unique, prefixed multipart boundary token.
func newBoundary() string {
	var token [16]byte
	_, _ = rand.Read(token[:])
	return "DiscordNotify" + hex.EncodeToString(token[:])
}
