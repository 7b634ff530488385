package route

import (
	"fmt"
	"strings"
)

// Route maps a feed category to a dedicated webhook endpoint.
type Route struct {
	Category string
	Endpoint string
}

// CategoryMap is an ordered set of category routes. It is immutable for
// the duration of a dispatch once parsed.
type CategoryMap []Route

// ParseCategoryMap parses a multi-line "category=endpoint" table.
// Whitespace around both sides is trimmed and the split happens on the
// first '=' only, so endpoints may themselves contain '='. Blank lines,
// lines without '=', and lines with an empty key or value are discarded.
func ParseCategoryMap(blob string) CategoryMap {
	var m CategoryMap
	for _, line := range strings.Split(blob, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		m = append(m, Route{Category: key, Endpoint: value})
	}
	return m
}

// Format renders the map back into its textual "category=endpoint"
// form, one route per line. Format is the inverse of ParseCategoryMap.
func (m CategoryMap) Format() string {
	var b strings.Builder
	for i, r := range m {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s=%s", r.Category, r.Endpoint)
	}
	return b.String()
}

// Resolve returns the endpoint mapped to category, or defaultEndpoint
// when no route matches. Matching is exact on the category name.
func (m CategoryMap) Resolve(category, defaultEndpoint string) string {
	for _, r := range m {
		if r.Category == category {
			return r.Endpoint
		}
	}
	return defaultEndpoint
}
