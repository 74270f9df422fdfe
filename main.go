package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/sehyunk/jangter/config"
	"github.com/sehyunk/jangter/data"
	"github.com/sehyunk/jangter/data/repos"
	"github.com/sehyunk/jangter/engine"
	"github.com/sehyunk/jangter/enums"
	"github.com/sehyunk/jangter/notifiers"
	"github.com/sehyunk/jangter/observability"
	"github.com/sehyunk/jangter/scrape"
)

func main() {
	cfg := config.MustLoad()

	opts := slog.HandlerOptions{Level: cfg.SlogLevel()}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &opts))
	slog.SetDefault(logger)

	db, err := data.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := data.RunMigrations(db.DB); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	if err := data.BackfillNumericPrices(db); err != nil {
		slog.Error("failed to backfill numeric prices", "error", err)
		os.Exit(1)
	}

	repo := repos.NewListingRepo(db, cfg.FuzzyThreshold)

	client, err := scrape.NewHTTPClient(cfg.ProxyURL)
	if err != nil {
		slog.Error("failed to create http client", "error", err)
		os.Exit(1)
	}

	searchers := []engine.Searcher{
		scrape.NewSafe(scrape.NewBunjang(client)),
	}

	// A browser that will not start degrades the engine to API-only
	// scraping instead of taking the process down.
	browser, err := scrape.NewBrowser(cfg.Headless)
	if err != nil {
		slog.Error("browser failed to start, browser-driven platforms disabled", "error", err)
		browser = nil
	} else {
		searchers = append(searchers,
			scrape.NewSafe(scrape.NewDanggeun(browser, cfg.ScrapeTimeout)),
			scrape.NewSafe(scrape.NewJoonggonara(browser, cfg.ScrapeTimeout)),
		)
	}

	channels := buildNotifiers(cfg)
	queue := engine.NewQueue(repo, channels, cfg.Schedule)

	var eng *engine.Engine
	if browser != nil {
		eng = engine.New(cfg, repo, searchers, browser, queue, engine.Callbacks{})
	} else {
		eng = engine.New(cfg, repo, searchers, nil, queue, engine.Callbacks{})
	}

	observability.Start(cfg.MetricsPort)

	if err := eng.Start(); err != nil {
		slog.Error("failed to start engine", "error", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-sigCh

	slog.Info("Shutting down...")
	eng.Stop()
	if browser != nil {
		browser.Close(cfg.ShutdownTimeout)
	}
}

func buildNotifiers(cfg *config.Config) []notifiers.Notifier {
	var channels []notifiers.Notifier
	for _, nc := range cfg.Notifiers {
		if !nc.Enabled {
			continue
		}
		switch nc.Type {
		case enums.ChannelTelegram:
			channels = append(channels, notifiers.NewTelegram(nc.Token, nc.ChatID))
		case enums.ChannelDiscord:
			channels = append(channels, notifiers.NewDiscord(nc.WebhookURL))
		case enums.ChannelSlack:
			channels = append(channels, notifiers.NewSlack(nc.WebhookURL))
		default:
			slog.Warn("unknown notifier type, skipping", "type", nc.Type)
		}
	}
	return channels
}
