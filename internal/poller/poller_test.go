package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/amishk599/pitchdesk/internal/model"
)

// --- Mock/Fake Implementations ---

// MockFetcher returns canned entries or an error.
type MockFetcher struct {
	Entries []model.Entry
	Err     error
	Calls   int
}

func (m *MockFetcher) FetchEntries(_ context.Context) ([]model.Entry, error) {
	m.Calls++
	return m.Entries, m.Err
}

// StaticSources serves a fixed source, or an error.
type StaticSources struct {
	Source model.Source
	Err    error
}

func (s *StaticSources) GetSource(_ context.Context, _ int64) (model.Source, error) {
	return s.Source, s.Err
}

// RecordingIngester records every batch it is handed.
type RecordingIngester struct {
	Batches [][]model.Entry
	Err     error
}

func (r *RecordingIngester) Ingest(_ context.Context, _ model.Source, entries []model.Entry) (int, error) {
	r.Batches = append(r.Batches, entries)
	return len(entries), r.Err
}

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeEntries(links ...string) []model.Entry {
	entries := make([]model.Entry, len(links))
	for i, l := range links {
		entries[i] = model.Entry{Title: "Job " + l, Link: l}
	}
	return entries
}

var remote = model.Source{ID: 1, Name: "Web Development", URL: "https://feeds.example.com/web", Active: true}

// --- Tests ---

func TestPoll_FetchesAndIngests(t *testing.T) {
	fetcher := &MockFetcher{Entries: makeEntries("a", "b")}
	ing := &RecordingIngester{}
	p := NewSourcePoller(remote, &StaticSources{Source: remote}, fetcher, ing, discardLogger())

	n, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 new, got %d", n)
	}
	if len(ing.Batches) != 1 || len(ing.Batches[0]) != 2 {
		t.Errorf("expected one batch of 2, got %v", ing.Batches)
	}
}

func TestPoll_InactiveSkips(t *testing.T) {
	inactive := remote
	inactive.Active = false
	fetcher := &MockFetcher{Entries: makeEntries("a")}
	ing := &RecordingIngester{}
	p := NewSourcePoller(remote, &StaticSources{Source: inactive}, fetcher, ing, discardLogger())

	n, err := p.Poll(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected (0, nil), got (%d, %v)", n, err)
	}
	if fetcher.Calls != 0 {
		t.Errorf("inactive source must not fetch, got %d calls", fetcher.Calls)
	}
}

func TestPoll_ManualNeverFetches(t *testing.T) {
	manual := model.Source{ID: 2, Name: "Manual Jobs", URL: "manual://jobs", Active: true}
	fetcher := &MockFetcher{Entries: makeEntries("a")}
	p := NewSourcePoller(manual, &StaticSources{Source: manual}, fetcher, &RecordingIngester{}, discardLogger())

	if _, err := p.Poll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.Calls != 0 {
		t.Errorf("manual source must not fetch, got %d calls", fetcher.Calls)
	}
}

func TestPoll_FetchErrorHasNoSideEffects(t *testing.T) {
	fetcher := &MockFetcher{Err: errors.New("connection refused")}
	ing := &RecordingIngester{}
	p := NewSourcePoller(remote, &StaticSources{Source: remote}, fetcher, ing, discardLogger())

	n, err := p.Poll(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 0 {
		t.Errorf("expected 0 new, got %d", n)
	}
	if len(ing.Batches) != 0 {
		t.Error("ingester must not be called on fetch failure")
	}
}

func TestPoll_SourceLookupError(t *testing.T) {
	fetcher := &MockFetcher{}
	p := NewSourcePoller(remote, &StaticSources{Err: errors.New("db closed")}, fetcher, &RecordingIngester{}, discardLogger())

	if _, err := p.Poll(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if fetcher.Calls != 0 {
		t.Error("fetcher must not be called when the source cannot be loaded")
	}
}
