// Package route decides where an entry goes and in what shape: the
// delivery mode is chosen by matching the entry URL against ordered
// pattern lists, and the destination webhook by the feed's category.
package route

import (
	"log/slog"
	"regexp"
	"strings"
)

// Mode is the delivery shape chosen for an entry.
type Mode int

// Supported delivery modes.
const (
	ModeEmbed Mode = iota // rich card, the default
	ModeLink              // plain link message
	ModeImage             // raw image upload
)

func (m Mode) String() string {
	switch m {
	case ModeLink:
		return "link"
	case ModeImage:
		return "image"
	default:
		return "embed"
	}
}

// SplitPatterns splits a multi-line pattern blob into trimmed,
// non-empty lines, preserving declaration order.
func SplitPatterns(blob string) []string {
	var patterns []string
	for _, line := range strings.Split(blob, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// Classify picks the delivery mode for a URL. Link patterns are
// evaluated before image patterns, each list in order, and the first
// match wins. A pattern that fails to compile counts as no match for
// that pattern only; classification continues.
func Classify(url string, linkPatterns, imagePatterns []string) Mode {
	for _, p := range linkPatterns {
		if matches(p, url) {
			return ModeLink
		}
	}
	for _, p := range imagePatterns {
		if matches(p, url) {
			return ModeImage
		}
	}
	return ModeEmbed
}

func matches(pattern, url string) bool {
	if pattern == "" {
		return false
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		slog.Warn("skipping invalid pattern", "pattern", pattern, "error", err)
		return false
	}
	return re.MatchString(url)
}
