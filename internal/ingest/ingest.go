package ingest

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amishk599/pitchdesk/internal/model"
)

const unknownClient = "Unknown"

// Store is the storage surface the ingestor needs.
type Store interface {
	GetSource(ctx context.Context, id int64) (model.Source, error)
	ListSources(ctx context.Context) ([]model.Source, error)
	HasPosting(ctx context.Context, id string) (bool, error)
	InsertPosting(ctx context.Context, p model.Posting) (bool, error)
}

// ManualEntry is a posting submitted directly rather than discovered in a feed.
// Zero SourceID routes it to the first manual source.
type ManualEntry struct {
	URL         string
	Title       string
	Description string
	Client      string
	Budget      string
	HourlyRate  string
	Skills      string
	Categories  string
	PostedAt    *time.Time
	SourceID    int64
}

// Ingestor turns raw entries into stored postings, exactly once per link.
type Ingestor struct {
	store    Store
	notifier model.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an ingestor. notifier may be nil.
func New(store Store, notifier model.Notifier, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Ingest stores every entry whose link has not been seen before, tagging it
// with src. It returns the number of rows actually created. Storage failures
// abort the batch; notification failures are only logged.
func (in *Ingestor) Ingest(ctx context.Context, src model.Source, entries []model.Entry) (int, error) {
	var created []model.Posting
	for _, e := range entries {
		link := strings.TrimSpace(e.Link)
		if link == "" {
			continue
		}
		id := Identity(link)

		seen, err := in.store.HasPosting(ctx, id)
		if err != nil {
			return len(created), fmt.Errorf("ingesting %s: checking %s: %w", src.Name, id, err)
		}
		if seen {
			continue
		}

		p := in.fromEntry(src, id, link, e)
		ok, err := in.store.InsertPosting(ctx, p)
		if err != nil {
			return len(created), fmt.Errorf("ingesting %s: inserting %s: %w", src.Name, id, err)
		}
		// Another writer may have claimed the identity between the check and the insert.
		if ok {
			created = append(created, p)
		}
	}

	in.announce(created)
	return len(created), nil
}

func (in *Ingestor) fromEntry(src model.Source, id, link string, e model.Entry) model.Posting {
	f := parseMarkers(e.Title, e.Description)
	posted := in.now()
	if e.Published != nil {
		posted = *e.Published
	}
	return model.Posting{
		ID:          id,
		Title:       e.Title,
		Description: f.Description,
		URL:         link,
		Client:      cmp.Or(strings.TrimSpace(e.Author), unknownClient),
		Budget:      cmp.Or(strings.TrimSpace(e.Budget), model.NotSpecified),
		HourlyRate:  f.HourlyRate,
		Skills:      f.Skills,
		Categories:  f.Categories,
		PostedAt:    posted,
		SourceID:    src.ID,
	}
}

// Submit stores a manually supplied posting. It reports the posting ID and
// whether a new row was created; resubmitting a known link is not an error.
func (in *Ingestor) Submit(ctx context.Context, m ManualEntry) (string, bool, error) {
	link := strings.TrimSpace(m.URL)
	if link == "" {
		return "", false, fmt.Errorf("manual submission: url is required: %w", model.ErrInvalidInput)
	}
	id := Identity(link)

	src, err := in.manualSource(ctx, m.SourceID)
	if err != nil {
		return id, false, fmt.Errorf("manual submission: %w", err)
	}

	posted := in.now()
	if m.PostedAt != nil {
		posted = *m.PostedAt
	}
	p := model.Posting{
		ID:          id,
		Title:       strings.TrimSpace(m.Title),
		Description: strings.TrimSpace(m.Description),
		URL:         link,
		Client:      cmp.Or(strings.TrimSpace(m.Client), unknownClient),
		Budget:      cmp.Or(strings.TrimSpace(m.Budget), model.NotSpecified),
		HourlyRate:  cmp.Or(strings.TrimSpace(m.HourlyRate), model.NotSpecified),
		Skills:      cmp.Or(strings.TrimSpace(m.Skills), model.NotSpecified),
		Categories:  cmp.Or(strings.TrimSpace(m.Categories), model.NotSpecified),
		PostedAt:    posted,
		SourceID:    src.ID,
	}

	created, err := in.store.InsertPosting(ctx, p)
	if err != nil {
		return id, false, fmt.Errorf("manual submission: inserting %s: %w", id, err)
	}
	if created {
		in.logger.Info("manual posting stored", "id", id, "source", src.Name)
		in.announce([]model.Posting{p})
	} else {
		in.logger.Debug("manual posting already known", "id", id)
	}
	return id, created, nil
}

// Exists reports whether a posting for link is already stored.
func (in *Ingestor) Exists(ctx context.Context, link string) (string, bool, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", false, fmt.Errorf("url is required: %w", model.ErrInvalidInput)
	}
	id := Identity(link)
	ok, err := in.store.HasPosting(ctx, id)
	if err != nil {
		return id, false, fmt.Errorf("checking %s: %w", id, err)
	}
	return id, ok, nil
}

func (in *Ingestor) manualSource(ctx context.Context, id int64) (model.Source, error) {
	if id != 0 {
		return in.store.GetSource(ctx, id)
	}
	sources, err := in.store.ListSources(ctx)
	if err != nil {
		return model.Source{}, fmt.Errorf("listing sources: %w", err)
	}
	for _, s := range sources {
		if s.Manual() {
			return s, nil
		}
	}
	return model.Source{}, errors.New("no manual source configured")
}

func (in *Ingestor) announce(postings []model.Posting) {
	if len(postings) == 0 || in.notifier == nil {
		return
	}
	if err := in.notifier.Notify(postings); err != nil {
		in.logger.Warn("notifying new postings", "count", len(postings), "error", err)
	}
}
