package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/pitchdesk/internal/ai"
	"github.com/amishk599/pitchdesk/internal/api"
	"github.com/amishk599/pitchdesk/internal/config"
	"github.com/amishk599/pitchdesk/internal/ingest"
	"github.com/amishk599/pitchdesk/internal/model"
	"github.com/amishk599/pitchdesk/internal/pipeline"
	"github.com/amishk599/pitchdesk/internal/scheduler"
	"github.com/amishk599/pitchdesk/internal/store"
)

const (
	manualSourceName = "Manual Jobs"
	manualSourceURL  = model.ManualScheme + "jobs"

	defaultFeedName = "Web Development"
	defaultFeedURL  = "https://www.vollna.com/rss/Xnd57USkgSJf2jAewZTD"

	// Feeds share one host, so keep well under its limits.
	feedRatePerSec = 0.5
	feedBurst      = 1

	shutdownTimeout = 10 * time.Second
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the ingestion scheduler and the API server",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"interval", cfg.PollInterval.String(),
		"database", cfg.Database.Driver,
		"addr", cfg.HTTP.Addr,
		"ai_provider", cfg.AI.Provider,
		"notification", cfg.Notification.Type,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	n := setupNotifier(cfg, httpClient, logger)
	ingestor := ingest.New(st, n, logger)

	sched := scheduler.NewScheduler(st, pollerFactory(cfg, st, ingestor, httpClient, logger), cfg.PollInterval, logger)

	gen, err := setupGenerator(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up generator", "error", err)
		os.Exit(1)
	}
	p := pipeline.New(st, gen, setupCatalog(cfg), setupContacts(cfg), logger)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewServer(api.NewHandler(st, ingestor, p, sched, logger), cfg.HTTP.APIKey, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("api listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("daemon error", "error", err)
		os.Exit(1)
	}
	logger.Info("goodbye")
	return nil
}

// openStore opens the configured backend, applies migrations and seeds the
// manual source, the default feed and any feeds named in the config.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.SQLStore, error) {
	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	version, dirty, err := st.Migrate()
	if err != nil {
		st.Close()
		return nil, err
	}
	logger.Info("database ready", "driver", cfg.Database.Driver, "schema_version", version, "dirty", dirty)

	seeds := []model.Source{
		{Name: manualSourceName, URL: manualSourceURL, Active: true},
		{Name: defaultFeedName, URL: defaultFeedURL, Active: true},
	}
	for _, sc := range cfg.Sources {
		seeds = append(seeds, model.Source{Name: sc.Name, URL: sc.URL, Active: sc.Active})
	}
	for _, src := range seeds {
		src.ExtractionPrompt = ai.DefaultExtractionPrompt
		src.NarrativePrompt = ai.DefaultNarrativePrompt
		src.EnrichmentPrompt = ai.DefaultEnrichmentPrompt
		created, err := st.SeedSource(ctx, src)
		if err != nil {
			st.Close()
			return nil, err
		}
		if created {
			logger.Info("seeded source", "name", src.Name, "url", src.URL)
		}
	}
	return st, nil
}
