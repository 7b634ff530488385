// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// FeedSpec is one feed to poll, with an optional category assigned by
// the operator.
type FeedSpec struct {
	URL      string
	Category string
}

// Config holds the application configuration.
type Config struct {
	WebhookURL       string
	Username         string
	AvatarURL        string
	IgnoreAutoread   bool
	LinkPatterns     string // raw multi-line blob, one regex per line
	ImagePatterns    string // raw multi-line blob, one regex per line
	CategoryWebhooks string // raw multi-line "category=endpoint" blob
	Feeds            []FeedSpec
	DatabasePath     string
	LogLevel         string
	PollInterval     time.Duration
	WebhookTimeout   time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		WebhookURL:       os.Getenv("DISCORD_WEBHOOK_URL"),
		Username:         os.Getenv("DISCORD_USERNAME"),
		AvatarURL:        os.Getenv("DISCORD_AVATAR_URL"),
		LinkPatterns:     os.Getenv("EMBED_AS_LINK_PATTERNS"),
		ImagePatterns:    os.Getenv("EMBED_AS_IMAGE_PATTERNS"),
		CategoryWebhooks: os.Getenv("CATEGORY_WEBHOOKS"),
		DatabasePath:     os.Getenv("DATABASE_PATH"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
	}

	if cfg.Username == "" {
		cfg.Username = "FreshRSS"
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "./data/notifier.db"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if raw := os.Getenv("IGNORE_AUTOREAD"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid IGNORE_AUTOREAD %q: %w", raw, err)
		}
		cfg.IgnoreAutoread = v
	}

	var err error
	cfg.PollInterval, err = durationEnv("POLL_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.WebhookTimeout, err = durationEnv("WEBHOOK_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.Feeds, err = parseFeeds(os.Getenv("FEEDS"))
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseFeeds parses a comma-separated feed list. Each token is either a
// bare URL or "category|url".
func parseFeeds(raw string) ([]FeedSpec, error) {
	var feeds []FeedSpec
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		spec := FeedSpec{URL: token}
		if category, url, ok := strings.Cut(token, "|"); ok {
			spec.Category = strings.TrimSpace(category)
			spec.URL = strings.TrimSpace(url)
		}
		if !strings.HasPrefix(spec.URL, "http://") && !strings.HasPrefix(spec.URL, "https://") {
			return nil, fmt.Errorf("invalid feed URL %q in FEEDS", spec.URL)
		}
		feeds = append(feeds, spec)
	}
	return feeds, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}
