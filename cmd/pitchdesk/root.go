package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/pitchdesk/internal/adapter"
	"github.com/amishk599/pitchdesk/internal/ai"
	"github.com/amishk599/pitchdesk/internal/config"
	"github.com/amishk599/pitchdesk/internal/model"
	"github.com/amishk599/pitchdesk/internal/notifier"
	"github.com/amishk599/pitchdesk/internal/poller"
	"github.com/amishk599/pitchdesk/internal/ratelimit"
	"github.com/amishk599/pitchdesk/internal/retry"
	"github.com/amishk599/pitchdesk/internal/scheduler"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "pitchdesk",
	Short: "Freelance job desk: ingest feeds, draft proposals, enrich clients",
	Long:  "Pitchdesk polls freelance job feeds, stores new postings once, and serves an API that drafts proposals and enriches client contacts on demand.",
	// Bare `pitchdesk` runs the daemon.
	RunE:         runStart,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: PITCHDESK_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > PITCHDESK_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("PITCHDESK_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// createFetcher builds the fetch chain for a remote source:
// feed adapter, then per-host rate limiting, then retries.
func createFetcher(cfg *config.Config, src model.Source, limiter *ratelimit.HostLimiter, httpClient *http.Client, logger *slog.Logger) model.EntryFetcher {
	var fetcher model.EntryFetcher = adapter.NewFeedAdapter(src.URL, httpClient)
	fetcher = ratelimit.NewRateLimitedFetcher(fetcher, limiter, src.URL)
	return retry.NewRetryFetcher(fetcher, src.Name, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)
}

// pollerFactory returns the scheduler's constructor for source loops.
// Manual sources get no fetcher.
func pollerFactory(cfg *config.Config, sources poller.SourceReader, ingester poller.Ingester, httpClient *http.Client, logger *slog.Logger) scheduler.PollerFactory {
	limiter := ratelimit.NewHostLimiter(feedRatePerSec, feedBurst)
	return func(src model.Source) scheduler.Poller {
		var fetcher model.EntryFetcher
		if !src.Manual() {
			fetcher = createFetcher(cfg, src, limiter, httpClient, logger)
		}
		return poller.NewSourcePoller(src, sources, fetcher, ingester, logger.With("source", src.Name))
	}
}

func setupGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (model.Generator, error) {
	gen, err := ai.NewProvider(ctx, ai.Options{
		Provider:   cfg.AI.Provider,
		BaseURL:    cfg.AI.BaseURL,
		Model:      cfg.AI.Model,
		APIKey:     cfg.AI.APIKey,
		HTTPClient: &http.Client{Timeout: cfg.AI.Timeout},
	}, logger)
	if err != nil {
		return nil, err
	}
	if _, ok := gen.(*ai.NopGenerator); ok {
		return gen, nil
	}
	return retry.NewRetryGenerator(gen, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger), nil
}

// setupCatalog returns nil when no catalog is configured, which makes the
// proposal stage fall back to its built-in examples.
func setupCatalog(cfg *config.Config) model.CatalogSearcher {
	if cfg.Catalog.BaseURL == "" {
		return nil
	}
	client := adapter.NewCatalogClient(cfg.Catalog.BaseURL, &http.Client{Timeout: cfg.Catalog.Timeout})
	if cfg.Catalog.RatePerSec == 0 {
		return client
	}
	limiter := ratelimit.NewHostLimiter(cfg.Catalog.RatePerSec, cfg.Catalog.Burst)
	return ratelimit.NewRateLimitedSearcher(client, limiter, client.Host())
}

// setupContacts returns nil without an API key; enrichment then reports
// found=false.
func setupContacts(cfg *config.Config) model.ContactResolver {
	if cfg.Contact.APIKey == "" {
		return nil
	}
	return adapter.NewContactClient(cfg.Contact.BaseURL, cfg.Contact.APIKey, &http.Client{Timeout: cfg.Contact.Timeout})
}
