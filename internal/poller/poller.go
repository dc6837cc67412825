package poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/pitchdesk/internal/model"
)

// SourceReader reads the current registry entry of a source.
type SourceReader interface {
	GetSource(ctx context.Context, id int64) (model.Source, error)
}

// Ingester stores the entries of one fetch.
type Ingester interface {
	Ingest(ctx context.Context, src model.Source, entries []model.Entry) (int, error)
}

// SourcePoller owns one poll cycle for a single source:
// reload source → fetch → ingest.
type SourcePoller struct {
	ID       int64
	Name     string
	sources  SourceReader
	fetcher  model.EntryFetcher
	ingester Ingester
	logger   *slog.Logger
}

// NewSourcePoller creates a poller for src. fetcher may be nil for manual sources.
func NewSourcePoller(
	src model.Source,
	sources SourceReader,
	fetcher model.EntryFetcher,
	ingester Ingester,
	logger *slog.Logger,
) *SourcePoller {
	return &SourcePoller{
		ID:       src.ID,
		Name:     src.Name,
		sources:  sources,
		fetcher:  fetcher,
		ingester: ingester,
		logger:   logger,
	}
}

// Poll runs one cycle and returns the number of new postings. The source is
// re-read first so an inactive source is skipped; manual sources never fetch.
func (p *SourcePoller) Poll(ctx context.Context) (int, error) {
	src, err := p.sources.GetSource(ctx, p.ID)
	if err != nil {
		return 0, fmt.Errorf("polling %s: loading source: %w", p.Name, err)
	}
	if !src.Active {
		p.logger.Debug("source inactive, skipping cycle", "source", src.Name)
		return 0, nil
	}
	if src.Manual() || p.fetcher == nil {
		return 0, nil
	}

	entries, err := p.fetcher.FetchEntries(ctx)
	if err != nil {
		return 0, fmt.Errorf("polling %s: %w", src.Name, err)
	}

	added, err := p.ingester.Ingest(ctx, src, entries)
	if err != nil {
		return added, fmt.Errorf("polling %s: %w", src.Name, err)
	}

	p.logger.Info("polled source",
		"source", src.Name,
		"fetched", len(entries),
		"new", added,
	)
	return added, nil
}
