package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/amishk599/pitchdesk/internal/model"
)

func TestWait_SameHost_EnforcesRate(t *testing.T) {
	limiter := NewHostLimiter(10, 1) // one request per 100ms
	ctx := context.Background()

	if err := limiter.Wait(ctx, "feeds.example.com"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "feeds.example.com"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Allow 20ms for timer jitter.
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentHosts_NoCrossBlocking(t *testing.T) {
	limiter := NewHostLimiter(5, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "a.example.com"); err != nil {
		t.Fatalf("a wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "b.example.com"); err != nil {
		t.Fatalf("b wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected b wait to be near-instant, got %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewHostLimiter(0.2, 1) // one request per 5s
	if err := limiter.Wait(context.Background(), "slow.example.com"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, "slow.example.com"); err == nil {
		t.Fatal("expected error when the wait outlives the context")
	}
}

func TestWaitURL_KeysByHost(t *testing.T) {
	limiter := NewHostLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.WaitURL(ctx, "https://feeds.example.com/a"); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	start := time.Now()
	if err := limiter.WaitURL(ctx, "https://other.example.com/a"); err != nil {
		t.Fatalf("other host wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("different host should not block, waited %v", elapsed)
	}
	if len(limiter.m) != 2 {
		t.Errorf("expected 2 buckets, got %d", len(limiter.m))
	}
}

type stubFetcher struct{ calls int }

func (s *stubFetcher) FetchEntries(_ context.Context) ([]model.Entry, error) {
	s.calls++
	return []model.Entry{{Link: "https://example.com/1"}}, nil
}

func TestRateLimitedFetcher_Delegates(t *testing.T) {
	inner := &stubFetcher{}
	f := NewRateLimitedFetcher(inner, NewHostLimiter(100, 1), "https://feeds.example.com/rss")

	entries, err := f.FetchEntries(context.Background())
	if err != nil {
		t.Fatalf("FetchEntries: %v", err)
	}
	if len(entries) != 1 || inner.calls != 1 {
		t.Fatalf("expected delegation, got %d entries and %d calls", len(entries), inner.calls)
	}
}

type stubSearcher struct{ queries []model.CatalogQuery }

func (s *stubSearcher) Search(_ context.Context, q model.CatalogQuery) ([]model.CatalogApp, error) {
	s.queries = append(s.queries, q)
	return nil, nil
}

func TestRateLimitedSearcher_CancelledContext(t *testing.T) {
	inner := &stubSearcher{}
	limiter := NewHostLimiter(0.1, 1)
	s := NewRateLimitedSearcher(inner, limiter, "catalog.example.com")

	if _, err := s.Search(context.Background(), model.CatalogQuery{Term: "fitness"}); err != nil {
		t.Fatalf("first search: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Search(ctx, model.CatalogQuery{Term: "travel"}); err == nil {
		t.Fatal("expected error with cancelled context")
	}
	if len(inner.queries) != 1 {
		t.Errorf("inner searcher should run once, ran %d times", len(inner.queries))
	}
}
