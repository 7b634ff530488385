// Package message builds the outbound payload shapes accepted by the
// Discord webhook API.
package message

import (
	"net/url"
	"strings"
	"time"

	"rss_discord/internal/model"
)

const (
	// embedColor is the accent color Discord renders on the card.
	embedColor = 2605643

	// descriptionLimit is Discord's maximum embed description length.
	descriptionLimit = 4000

	faviconBase = "https://favicon.im/"
)

// Identity is the sender identity attached to every delivery.
type Identity struct {
	Username  string
	AvatarURL string
}

// Embed is the rich-card message format.
type Embed struct {
	URL         string          `json:"url"`
	Title       string          `json:"title"`
	Color       int             `json:"color"`
	Description string          `json:"description"`
	Timestamp   string          `json:"timestamp"`
	Author      EmbedAuthor     `json:"author"`
	Footer      EmbedFooter     `json:"footer"`
	Thumbnail   *EmbedThumbnail `json:"thumbnail,omitempty"`
}

// EmbedAuthor names the feed the entry came from.
type EmbedAuthor struct {
	Name    string `json:"name"`
	IconURL string `json:"icon_url"`
}

// EmbedFooter carries the sender identity on the card.
type EmbedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url"`
}

// EmbedThumbnail is the optional preview image. Unknown dimensions are
// omitted from the wire format, never sent as zero or null.
type EmbedThumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// HTMLConverter strips markup from entry HTML. Supplied by the host.
type HTMLConverter interface {
	PlainText(html string) (string, error)
}

// Composer builds embeds from entries.
type Composer struct {
	conv HTMLConverter
}

// NewComposer creates a Composer using the given HTML converter.
func NewComposer(conv HTMLConverter) *Composer {
	return &Composer{conv: conv}
}

// Embed builds the rich-card payload for an entry. The description is
// the entry body stripped of markup and truncated to Discord's limit.
func (c *Composer) Embed(e *model.Entry, id Identity) (Embed, error) {
	descr, err := c.conv.PlainText(e.Content)
	if err != nil {
		return Embed{}, err
	}

	embed := Embed{
		URL:         e.Link,
		Title:       e.Title,
		Color:       embedColor,
		Description: Truncate(descr, descriptionLimit),
		Timestamp:   e.Published.UTC().Format(time.RFC3339),
		Author: EmbedAuthor{
			Name:    e.Feed.Name,
			IconURL: FaviconURL(e.Feed.Website),
		},
		Footer: EmbedFooter{
			Text:    id.Username,
			IconURL: id.AvatarURL,
		},
	}

	if t := e.Thumbnail; t != nil {
		embed.Thumbnail = &EmbedThumbnail{
			URL:    t.URL,
			Width:  t.Width,
			Height: t.Height,
		}
	}

	return embed, nil
}

// FaviconURL returns a favicon lookup URL for the host of a website URL.
func FaviconURL(website string) string {
	u, err := url.Parse(website)
	if err != nil {
		return faviconBase
	}
	return faviconBase + u.Hostname()
}

// Truncate shortens text to at most limit bytes plus a "..." suffix,
// trimming back to the last space so words are not split. A prefix
// without any space is kept whole; a leading space degrades to just the
// suffix. Cutting is byte-wise and can split a multi-byte rune.
func Truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if i := strings.LastIndexByte(cut, ' '); i >= 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
