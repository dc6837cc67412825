package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/pitchdesk/internal/ingest"
	"github.com/amishk599/pitchdesk/internal/model"
	"github.com/amishk599/pitchdesk/internal/notifier"
	"github.com/amishk599/pitchdesk/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Poll every active feed once, print new postings, exit",
	Long:  "One-shot poll: fetches each active remote source once and logs the postings that would be created. Does not write postings to the store.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// checkStore reads sources from the real store and routes posting writes
// through a NopStore.
type checkStore struct {
	sources *store.SQLStore
	nop     *store.NopStore
}

func (c checkStore) GetSource(ctx context.Context, id int64) (model.Source, error) {
	return c.sources.GetSource(ctx, id)
}

func (c checkStore) ListSources(ctx context.Context) ([]model.Source, error) {
	return c.sources.ListSources(ctx)
}

func (c checkStore) HasPosting(ctx context.Context, id string) (bool, error) {
	return c.nop.HasPosting(ctx, id)
}

func (c checkStore) InsertPosting(ctx context.Context, p model.Posting) (bool, error) {
	return c.nop.InsertPosting(ctx, p)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("check mode: no postings will be stored")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	cs := checkStore{sources: st, nop: store.NewNopStore(st)}
	ingestor := ingest.New(cs, notifier.NewLogNotifier(logger), logger)
	httpClient := &http.Client{Timeout: 30 * time.Second}
	newPoller := pollerFactory(cfg, cs, ingestor, httpClient, logger)

	srcs, err := st.ListSources(ctx)
	if err != nil {
		logger.Error("failed to list sources", "error", err)
		os.Exit(1)
	}

	total, polled := 0, 0
	for _, src := range srcs {
		if src.Manual() || !src.Active {
			continue
		}
		polled++
		n, err := newPoller(src).Poll(ctx)
		if err != nil {
			logger.Error("poll failed", "source", src.Name, "error", err)
			continue
		}
		fmt.Printf("%-30s %d new\n", src.Name, n)
		total += n
	}
	if polled == 0 {
		logger.Error("no active feeds to poll")
		os.Exit(1)
	}

	logger.Info("check complete", "sources", polled, "new_postings", total)
	return nil
}
