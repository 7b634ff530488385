// Package htmltext converts entry HTML into plain text for embed
// descriptions, stripping all markup.
package htmltext

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Converter strips markup from HTML fragments.
type Converter struct{}

// NewConverter creates a Converter.
func NewConverter() *Converter {
	return &Converter{}
}

// PlainText returns the text content of an HTML fragment with all tags
// removed and runs of whitespace collapsed to single spaces.
func (c *Converter) PlainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}
