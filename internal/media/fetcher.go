// Package media downloads remote images for the file-upload delivery
// path and validates that they are decodable raster images.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // decoder registration
	_ "image/jpeg" // decoder registration
	_ "image/png"  // decoder registration
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/gabriel-vasile/mimetype"

	_ "golang.org/x/image/bmp"  // decoder registration
	_ "golang.org/x/image/tiff" // decoder registration
	_ "golang.org/x/image/webp" // decoder registration
)

const (
	fetchTimeout = 10 * time.Second
	maxRedirects = 5
	maxBodySize  = 25 * 1024 * 1024 // Discord's upload ceiling
)

// ErrNotImage reports that a downloaded body is not a decodable image.
var ErrNotImage = errors.New("not a decodable image")

// Image is a downloaded, validated image ready for upload.
type Image struct {
	Data      []byte
	MIME      string
	Filename  string
	SourceURL string
}

// Fetcher downloads images over HTTP.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher. A nil client gets a default one with a
// 10-second total timeout and a 5-redirect cap.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{
			Timeout: fetchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		}
	}
	return &Fetcher{client: client}
}

// Fetch downloads an image and validates it decodes as a known raster
// format. The returned Image carries the detected MIME type and a
// filename taken from the URL's final path segment.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := readLimited(resp.Body, maxBodySize)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	return &Image{
		Data:      data,
		MIME:      mimetype.Detect(data).String(),
		Filename:  filenameFromURL(rawURL),
		SourceURL: rawURL,
	}, nil
}

// readLimited reads at most limit bytes and fails on a longer body. A
// truncated image could still carry a valid header and pass decode
// validation, so oversize bodies are rejected rather than cut short.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("body exceeds %d bytes", limit)
	}
	return data, nil
}

func filenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "image"
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return "image"
	}
	return name
}
