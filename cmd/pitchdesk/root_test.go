package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/pitchdesk/internal/config"
	"github.com/amishk599/pitchdesk/internal/model"
	"github.com/amishk599/pitchdesk/internal/notifier"
	"github.com/amishk599/pitchdesk/internal/ratelimit"
	"github.com/amishk599/pitchdesk/internal/store"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_PathPrecedence(t *testing.T) {
	dir := t.TempDir()
	explicit := writeConfig(t, dir, "poll_interval: 1m\n")

	envDir := t.TempDir()
	fromEnv := writeConfig(t, envDir, "poll_interval: 2m\n")
	t.Setenv("PITCHDESK_CONFIG", fromEnv)

	cfg, err := loadConfig(explicit)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.PollInterval)

	cfg, err = loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.PollInterval)
}

func TestSetupNotifier(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	n := setupNotifier(&config.Config{Notification: config.NotificationConfig{Type: "log"}}, http.DefaultClient, logger)
	assert.IsType(t, &notifier.LogNotifier{}, n)

	n = setupNotifier(&config.Config{Notification: config.NotificationConfig{
		Type:       "slack",
		WebhookURL: "https://hooks.slack.com/services/x",
	}}, http.DefaultClient, logger)
	assert.IsType(t, &notifier.SlackNotifier{}, n)
}

func TestSetupOptionalCollaborators(t *testing.T) {
	cfg := &config.Config{}
	assert.Nil(t, setupCatalog(cfg))
	assert.Nil(t, setupContacts(cfg))

	cfg.Catalog = config.CatalogConfig{BaseURL: "http://localhost:3000", RatePerSec: 2, Burst: 2, Timeout: time.Second}
	cfg.Contact = config.ContactConfig{BaseURL: "https://contacts.example.com", APIKey: "k", Timeout: time.Second}
	assert.IsType(t, &ratelimit.RateLimitedSearcher{}, setupCatalog(cfg))
	assert.NotNil(t, setupContacts(cfg))
}

type countingIngester struct{ calls int }

func (c *countingIngester) Ingest(context.Context, model.Source, []model.Entry) (int, error) {
	c.calls++
	return 0, nil
}

func TestOpenStoreSeedsOnceAndManualPollerNeverFetches(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg, err := config.Parse([]byte(`
database:
  driver: sqlite
  dsn: ` + filepath.Join(t.TempDir(), "seed.db") + `
sources:
  - name: Go Jobs
    url: https://feeds.example.com/go
    active: false
`))
	require.NoError(t, err)

	ctx := context.Background()
	st, err := openStore(ctx, cfg, logger)
	require.NoError(t, err)
	st.Close()

	st, err = openStore(ctx, cfg, logger)
	require.NoError(t, err)
	defer st.Close()

	srcs, err := st.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, srcs, 3)

	var manual model.Source
	for _, s := range srcs {
		if s.Manual() {
			manual = s
		}
		if s.URL == "https://feeds.example.com/go" {
			assert.False(t, s.Active)
		}
		assert.NotEmpty(t, s.ExtractionPrompt)
	}
	require.Equal(t, manualSourceURL, manual.URL)

	ing := &countingIngester{}
	p := pollerFactory(cfg, st, ing, http.DefaultClient, logger)(manual)
	n, err := p.Poll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, ing.calls)
}

func TestCheckStoreNeverWrites(t *testing.T) {
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "check.db"))
	require.NoError(t, err)
	defer st.Close()
	_, _, err = st.Migrate()
	require.NoError(t, err)

	cs := checkStore{sources: st, nop: store.NewNopStore(st)}
	created, err := cs.InsertPosting(context.Background(), model.Posting{ID: "abc", Title: "x"})
	require.NoError(t, err)
	assert.True(t, created)

	seen, err := st.HasPosting(context.Background(), "abc")
	require.NoError(t, err)
	assert.False(t, seen)
}
