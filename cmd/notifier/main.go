package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"rss_discord/internal/config"
	"rss_discord/internal/dispatch"
	"rss_discord/internal/htmltext"
	"rss_discord/internal/media"
	"rss_discord/internal/message"
	"rss_discord/internal/route"
	"rss_discord/internal/scheduler"
	"rss_discord/internal/storage"
	"rss_discord/internal/webhook"
)

func main() {
	testMessage := flag.Bool("test", false, "send a test message to the configured webhook and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	identity := message.Identity{Username: cfg.Username, AvatarURL: cfg.AvatarURL}
	dispatcher := webhook.NewDispatcher(&http.Client{Timeout: cfg.WebhookTimeout}, log)

	if *testMessage {
		if cfg.WebhookURL == "" {
			log.Error("DISCORD_WEBHOOK_URL is required for a test message")
			os.Exit(1)
		}
		content := fmt.Sprintf("Test message from %s posted at %s",
			cfg.Username, time.Now().Format("01/02/2006 15:04:05"))
		res := dispatcher.SendContent(context.Background(), cfg.WebhookURL, identity, content)
		if res.Outcome != webhook.Delivered {
			log.Error("test message failed", "outcome", res.Outcome, "error", res.Err)
			os.Exit(1)
		}
		log.Info("test message sent")
		return
	}

	if len(cfg.Feeds) == 0 {
		log.Error("FEEDS is required")
		os.Exit(1)
	}
	if cfg.WebhookURL == "" {
		log.Warn("DISCORD_WEBHOOK_URL is empty; only category-routed entries can be delivered")
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	settings := dispatch.Settings{
		Endpoint:       cfg.WebhookURL,
		Identity:       identity,
		IgnoreAutoread: cfg.IgnoreAutoread,
		LinkPatterns:   route.SplitPatterns(cfg.LinkPatterns),
		ImagePatterns:  route.SplitPatterns(cfg.ImagePatterns),
		Routes:         route.ParseCategoryMap(cfg.CategoryWebhooks),
	}

	pipeline := dispatch.New(
		message.NewComposer(htmltext.NewConverter()),
		media.NewFetcher(nil),
		dispatcher,
		log,
	)

	feeds := make([]scheduler.Feed, 0, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		feeds = append(feeds, scheduler.Feed{URL: f.URL, Category: f.Category})
	}

	sched := scheduler.New(store, pipeline, settings, feeds, log)
	sched.SetTickInterval(cfg.PollInterval)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting notifier", "feeds", len(feeds), "interval", cfg.PollInterval)

	sched.Run(ctx)

	log.Info("notifier stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
