package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"rss_discord/internal/media"
	"rss_discord/internal/message"
	"rss_discord/internal/model"
	"rss_discord/internal/route"
	"rss_discord/internal/webhook"
)

type senderCall struct {
	kind     string // "content", "embed", "image"
	endpoint string
	content  string
	embed    message.Embed
	img      *media.Image
}

type fakeSender struct {
	calls  []senderCall
	result webhook.Result
}

func (f *fakeSender) SendContent(_ context.Context, endpoint string, _ message.Identity, content string) webhook.Result {
	f.calls = append(f.calls, senderCall{kind: "content", endpoint: endpoint, content: content})
	return f.result
}

func (f *fakeSender) SendEmbed(_ context.Context, endpoint string, _ message.Identity, embed message.Embed) webhook.Result {
	f.calls = append(f.calls, senderCall{kind: "embed", endpoint: endpoint, embed: embed})
	return f.result
}

func (f *fakeSender) SendImage(_ context.Context, endpoint string, _ message.Identity, img *media.Image) webhook.Result {
	f.calls = append(f.calls, senderCall{kind: "image", endpoint: endpoint, img: img})
	return f.result
}

type fakeImages struct {
	img   *media.Image
	err   error
	calls []string
}

func (f *fakeImages) Fetch(_ context.Context, url string) (*media.Image, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return nil, f.err
	}
	return f.img, nil
}

type passthroughConverter struct{}

func (passthroughConverter) PlainText(html string) (string, error) { return html, nil }

func testEntry() *model.Entry {
	return &model.Entry{
		Link:      "https://blog.example.com/post/7",
		Title:     "Post seven",
		Content:   "body text",
		Published: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Feed: model.FeedInfo{
			Name:     "Example Blog",
			Website:  "https://blog.example.com",
			Category: "Tech",
		},
	}
}

func testSettings() Settings {
	return Settings{
		Endpoint: "https://hook/default",
		Identity: message.Identity{Username: "bot", AvatarURL: "https://cdn/a.png"},
	}
}

func newTestPipeline(sender *fakeSender, images *fakeImages) *Pipeline {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(message.NewComposer(passthroughConverter{}), images, sender, log)
}

func TestDispatchEmbedDefault(t *testing.T) {
	sender := &fakeSender{result: webhook.Result{Outcome: webhook.Delivered}}
	p := newTestPipeline(sender, &fakeImages{})

	res := p.Dispatch(context.Background(), testEntry(), testSettings())
	if res.Outcome != webhook.Delivered {
		t.Fatalf("outcome = %v, want %v", res.Outcome, webhook.Delivered)
	}

	if len(sender.calls) != 1 || sender.calls[0].kind != "embed" {
		t.Fatalf("calls = %+v, want one embed delivery", sender.calls)
	}
	call := sender.calls[0]
	if call.endpoint != "https://hook/default" {
		t.Errorf("endpoint = %q", call.endpoint)
	}
	if call.embed.URL != "https://blog.example.com/post/7" {
		t.Errorf("embed url = %q", call.embed.URL)
	}
	if call.embed.Description != "body text" {
		t.Errorf("embed description = %q", call.embed.Description)
	}
}

func TestDispatchLinkMode(t *testing.T) {
	sender := &fakeSender{result: webhook.Result{Outcome: webhook.Delivered}}
	images := &fakeImages{}
	p := newTestPipeline(sender, images)

	s := testSettings()
	s.LinkPatterns = []string{`blog\.example\.com`}
	s.ImagePatterns = []string{`.*`} // link check precedes image check

	res := p.Dispatch(context.Background(), testEntry(), s)
	if res.Outcome != webhook.Delivered {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	if len(sender.calls) != 1 || sender.calls[0].kind != "content" {
		t.Fatalf("calls = %+v, want one content delivery", sender.calls)
	}
	if sender.calls[0].content != "https://blog.example.com/post/7" {
		t.Errorf("content = %q, want entry link", sender.calls[0].content)
	}
	if len(images.calls) != 0 {
		t.Errorf("image fetcher called on link path: %v", images.calls)
	}
}

func TestDispatchImageMode(t *testing.T) {
	img := &media.Image{
		Data:      []byte{1, 2, 3},
		MIME:      "image/png",
		Filename:  "post7.png",
		SourceURL: "https://blog.example.com/post/7",
	}
	sender := &fakeSender{result: webhook.Result{Outcome: webhook.Delivered}}
	images := &fakeImages{img: img}
	p := newTestPipeline(sender, images)

	s := testSettings()
	s.ImagePatterns = []string{`post/\d+`}

	res := p.Dispatch(context.Background(), testEntry(), s)
	if res.Outcome != webhook.Delivered {
		t.Fatalf("outcome = %v", res.Outcome)
	}

	if len(images.calls) != 1 || images.calls[0] != "https://blog.example.com/post/7" {
		t.Fatalf("image fetch calls = %v, want entry link", images.calls)
	}
	if len(sender.calls) != 1 || sender.calls[0].kind != "image" {
		t.Fatalf("calls = %+v, want one image delivery", sender.calls)
	}
	if sender.calls[0].img != img {
		t.Error("uploaded image is not the fetched image")
	}
}

func TestDispatchImageFetchFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "download failure", err: errors.New("connection refused")},
		{name: "undecodable body", err: media.ErrNotImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			p := newTestPipeline(sender, &fakeImages{err: tt.err})

			s := testSettings()
			s.ImagePatterns = []string{`.*`}

			res := p.Dispatch(context.Background(), testEntry(), s)
			if res.Outcome != webhook.TransportFailed {
				t.Fatalf("outcome = %v, want %v", res.Outcome, webhook.TransportFailed)
			}
			if !errors.Is(res.Err, tt.err) {
				t.Fatalf("err = %v, want %v", res.Err, tt.err)
			}
			// The image path aborts; the entry is not retried as an embed.
			if len(sender.calls) != 0 {
				t.Fatalf("unexpected deliveries: %+v", sender.calls)
			}
		})
	}
}

func TestDispatchCategoryRouting(t *testing.T) {
	sender := &fakeSender{result: webhook.Result{Outcome: webhook.Delivered}}
	p := newTestPipeline(sender, &fakeImages{})

	s := testSettings()
	s.Routes = route.ParseCategoryMap("Tech=https://hook/tech\nGames=https://hook/games")

	if res := p.Dispatch(context.Background(), testEntry(), s); res.Outcome != webhook.Delivered {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	if sender.calls[0].endpoint != "https://hook/tech" {
		t.Errorf("endpoint = %q, want category route", sender.calls[0].endpoint)
	}

	// An unmapped category goes to the default endpoint.
	entry := testEntry()
	entry.Feed.Category = "Music"
	if res := p.Dispatch(context.Background(), entry, s); res.Outcome != webhook.Delivered {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	if sender.calls[1].endpoint != "https://hook/default" {
		t.Errorf("endpoint = %q, want default", sender.calls[1].endpoint)
	}
}

func TestDispatchSkipsReadEntries(t *testing.T) {
	sender := &fakeSender{}
	images := &fakeImages{}
	p := newTestPipeline(sender, images)

	entry := testEntry()
	entry.Read = true

	s := testSettings()
	s.IgnoreAutoread = true

	res := p.Dispatch(context.Background(), entry, s)
	if res.Outcome != webhook.Skipped {
		t.Fatalf("outcome = %v, want %v", res.Outcome, webhook.Skipped)
	}
	if len(sender.calls) != 0 || len(images.calls) != 0 {
		t.Fatal("skipped entry must cause no HTTP activity")
	}

	// Without the flag, a read entry is still delivered.
	s.IgnoreAutoread = false
	if res := p.Dispatch(context.Background(), entry, s); res.Outcome == webhook.Skipped {
		t.Fatal("entry skipped with IgnoreAutoread disabled")
	}
	if len(sender.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(sender.calls))
	}
}

func TestDispatchMissingEndpoint(t *testing.T) {
	sender := &fakeSender{}
	p := newTestPipeline(sender, &fakeImages{})

	s := testSettings()
	s.Endpoint = ""

	res := p.Dispatch(context.Background(), testEntry(), s)
	if res.Outcome != webhook.TransportFailed {
		t.Fatalf("outcome = %v, want %v", res.Outcome, webhook.TransportFailed)
	}
	if !errors.Is(res.Err, ErrNoEndpoint) {
		t.Fatalf("err = %v, want ErrNoEndpoint", res.Err)
	}
	if len(sender.calls) != 0 {
		t.Fatalf("unexpected deliveries: %+v", sender.calls)
	}
}
