package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/amishk599/pitchdesk/internal/model"
	"github.com/amishk599/pitchdesk/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory Store for ingestor tests.
type memStore struct {
	mu       sync.Mutex
	sources  []model.Source
	postings map[string]model.Posting
	failHas  error
}

func newMemStore(sources ...model.Source) *memStore {
	return &memStore{sources: sources, postings: make(map[string]model.Posting)}
}

func (m *memStore) GetSource(_ context.Context, id int64) (model.Source, error) {
	for _, s := range m.sources {
		if s.ID == id {
			return s, nil
		}
	}
	return model.Source{}, model.ErrNotFound
}

func (m *memStore) ListSources(context.Context) ([]model.Source, error) { return m.sources, nil }

func (m *memStore) HasPosting(_ context.Context, id string) (bool, error) {
	if m.failHas != nil {
		return false, m.failHas
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.postings[id]
	return ok, nil
}

func (m *memStore) InsertPosting(_ context.Context, p model.Posting) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.postings[p.ID]; ok {
		return false, nil
	}
	m.postings[p.ID] = p
	return true, nil
}

type recordingNotifier struct {
	got [][]model.Posting
	err error
}

func (r *recordingNotifier) Notify(p []model.Posting) error {
	r.got = append(r.got, p)
	return r.err
}

var (
	feedSource   = model.Source{ID: 1, Name: "Web Development", URL: "https://feeds.example.com/web", Active: true}
	manualSource = model.Source{ID: 2, Name: "Manual Jobs", URL: "manual://jobs", Active: true}
)

func TestIdentityIsStable(t *testing.T) {
	a := Identity("https://example.com/jobs/1")
	b := Identity("  https://example.com/jobs/1 ")
	if a != b {
		t.Errorf("identity changed with surrounding whitespace: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(a))
	}
	if a == Identity("https://example.com/jobs/2") {
		t.Error("different links must not collide")
	}
}

func TestParseMarkers(t *testing.T) {
	f := parseMarkers("Go dev (Hourly Rate: $30-$50)", "Build an API. Skills: Go, Rust Categories: Backend")
	if f.HourlyRate != "$30-$50" {
		t.Errorf("hourly rate = %q", f.HourlyRate)
	}
	if f.Skills != "Go, Rust" {
		t.Errorf("skills = %q", f.Skills)
	}
	if f.Categories != "Backend" {
		t.Errorf("categories = %q", f.Categories)
	}
	if f.Description != "Build an API." {
		t.Errorf("description = %q", f.Description)
	}
}

func TestParseMarkers_Absent(t *testing.T) {
	f := parseMarkers("Plain title", "Just a body with no markers.")
	for name, got := range map[string]string{
		"hourly rate": f.HourlyRate,
		"skills":      f.Skills,
		"categories":  f.Categories,
	} {
		if got != model.NotSpecified {
			t.Errorf("%s = %q, want %q", name, got, model.NotSpecified)
		}
	}
	if f.Description != "Just a body with no markers." {
		t.Errorf("description = %q", f.Description)
	}
}

func TestParseMarkers_CDATAAndCategoriesOnly(t *testing.T) {
	f := parseMarkers("t", "<![CDATA[Body text Categories: Mobile]]>")
	if f.Skills != model.NotSpecified {
		t.Errorf("skills = %q", f.Skills)
	}
	if f.Categories != "Mobile" {
		t.Errorf("categories = %q", f.Categories)
	}
	if f.Description != "Body text" {
		t.Errorf("description = %q", f.Description)
	}
}

func TestIngest_Idempotent(t *testing.T) {
	st := newMemStore(feedSource)
	n := &recordingNotifier{}
	in := New(st, n, discardLogger())
	ctx := context.Background()

	entries := []model.Entry{
		{Title: "A", Link: "https://example.com/a", Description: "x"},
		{Title: "B", Link: "https://example.com/b", Description: "y"},
		{Title: "no link"},
	}
	got, err := in.Ingest(ctx, feedSource, entries)
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected 2 new postings, got %d", got)
	}

	got, err = in.Ingest(ctx, feedSource, entries)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if got != 0 {
		t.Errorf("expected 0 new postings on re-ingest, got %d", got)
	}
	if len(st.postings) != 2 {
		t.Errorf("expected 2 stored postings, got %d", len(st.postings))
	}
	if len(n.got) != 1 || len(n.got[0]) != 2 {
		t.Errorf("expected one notification batch of 2, got %v", n.got)
	}
}

func TestIngest_Defaults(t *testing.T) {
	st := newMemStore(feedSource)
	in := New(st, nil, discardLogger())
	fixed := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	in.now = func() time.Time { return fixed }

	_, err := in.Ingest(context.Background(), feedSource, []model.Entry{
		{Title: "T", Link: "https://example.com/t", Description: "body"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := st.postings[Identity("https://example.com/t")]
	if p.Client != "Unknown" {
		t.Errorf("client = %q", p.Client)
	}
	if p.Budget != model.NotSpecified {
		t.Errorf("budget = %q", p.Budget)
	}
	if !p.PostedAt.Equal(fixed) {
		t.Errorf("posted_at = %v, want %v", p.PostedAt, fixed)
	}
	if p.SourceID != feedSource.ID {
		t.Errorf("source id = %d", p.SourceID)
	}
}

func TestIngest_StorageErrorPropagates(t *testing.T) {
	st := newMemStore(feedSource)
	st.failHas = errors.New("database is locked")
	in := New(st, nil, discardLogger())

	_, err := in.Ingest(context.Background(), feedSource, []model.Entry{{Link: "https://example.com/x"}})
	if err == nil {
		t.Fatal("expected storage error")
	}
}

func TestIngest_NotifierErrorIsAbsorbed(t *testing.T) {
	st := newMemStore(feedSource)
	in := New(st, &recordingNotifier{err: errors.New("webhook down")}, discardLogger())

	got, err := in.Ingest(context.Background(), feedSource, []model.Entry{{Link: "https://example.com/x"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("expected 1 new posting, got %d", got)
	}
}

func TestSubmit_RoutesToManualSource(t *testing.T) {
	st := newMemStore(feedSource, manualSource)
	in := New(st, nil, discardLogger())
	ctx := context.Background()

	id, created, err := in.Submit(ctx, ManualEntry{URL: "https://example.com/m", Title: "Manual"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected created")
	}
	p := st.postings[id]
	if p.SourceID != manualSource.ID {
		t.Errorf("source id = %d, want %d", p.SourceID, manualSource.ID)
	}
	if p.Skills != model.NotSpecified || p.HourlyRate != model.NotSpecified || p.Categories != model.NotSpecified {
		t.Errorf("expected sentinel defaults, got %+v", p)
	}

	id2, created, err := in.Submit(ctx, ManualEntry{URL: "https://example.com/m"})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if created || id2 != id {
		t.Errorf("resubmit: created=%v id=%s, want false %s", created, id2, id)
	}
}

func TestSubmit_ExplicitSourceAndValidation(t *testing.T) {
	st := newMemStore(feedSource, manualSource)
	in := New(st, nil, discardLogger())
	ctx := context.Background()

	id, _, err := in.Submit(ctx, ManualEntry{URL: "https://example.com/s", SourceID: feedSource.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.postings[id].SourceID != feedSource.ID {
		t.Errorf("expected explicit source to win")
	}

	if _, _, err := in.Submit(ctx, ManualEntry{}); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := in.Submit(ctx, ManualEntry{URL: "https://example.com/z", SourceID: 99}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExists(t *testing.T) {
	st := newMemStore(manualSource)
	in := New(st, nil, discardLogger())
	ctx := context.Background()

	if _, ok, _ := in.Exists(ctx, "https://example.com/e"); ok {
		t.Fatal("expected not to exist")
	}
	in.Submit(ctx, ManualEntry{URL: "https://example.com/e"})
	id, ok, err := in.Exists(ctx, "https://example.com/e")
	if err != nil || !ok {
		t.Fatalf("expected to exist, got ok=%v err=%v", ok, err)
	}
	if id != Identity("https://example.com/e") {
		t.Errorf("id = %s", id)
	}
}

// Feed source A and manual source B both see link L1; whichever ingests first owns it.
func TestCrossSourceSameLink(t *testing.T) {
	for _, feedFirst := range []bool{true, false} {
		name := "manual first"
		if feedFirst {
			name = "feed first"
		}
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "ingest.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			if _, _, err := s.Migrate(); err != nil {
				t.Fatalf("Migrate: %v", err)
			}
			a, err := s.AddSource(ctx, model.Source{Name: "A", URL: "https://feeds.example.com/a", Active: true})
			if err != nil {
				t.Fatalf("AddSource: %v", err)
			}
			b, err := s.AddSource(ctx, model.Source{Name: "B", URL: "manual://jobs", Active: true})
			if err != nil {
				t.Fatalf("AddSource: %v", err)
			}

			in := New(s, nil, discardLogger())
			const l1 = "https://example.com/jobs/L1"
			fromFeed := func() {
				if _, err := in.Ingest(ctx, a, []model.Entry{{Title: "L1", Link: l1}}); err != nil {
					t.Fatalf("Ingest: %v", err)
				}
			}
			fromManual := func() {
				if _, _, err := in.Submit(ctx, ManualEntry{URL: l1, SourceID: b.ID}); err != nil {
					t.Fatalf("Submit: %v", err)
				}
			}

			want := b.ID
			if feedFirst {
				fromFeed()
				fromManual()
				want = a.ID
			} else {
				fromManual()
				fromFeed()
			}

			all, err := s.ListPostings(ctx, model.PostingFilter{})
			if err != nil {
				t.Fatalf("ListPostings: %v", err)
			}
			if len(all) != 1 {
				t.Fatalf("expected exactly one posting, got %d", len(all))
			}
			if all[0].SourceID != want {
				t.Errorf("posting attributed to source %d, want %d", all[0].SourceID, want)
			}
		})
	}
}
