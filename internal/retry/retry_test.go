package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amishk599/pitchdesk/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockFetcher calls a function on each invocation, tracking call count.
type mockFetcher struct {
	calls int
	fn    func(attempt int) ([]model.Entry, error)
}

func (m *mockFetcher) FetchEntries(_ context.Context) ([]model.Entry, error) {
	m.calls++
	return m.fn(m.calls)
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	entries := []model.Entry{{Link: "https://example.com/1", Title: "Build an app"}}
	mock := &mockFetcher{fn: func(_ int) ([]model.Entry, error) {
		return entries, nil
	}}

	rf := NewRetryFetcher(mock, "web", 2, 10*time.Millisecond, discardLogger())
	got, err := rf.FetchEntries(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Link != "https://example.com/1" {
		t.Fatalf("unexpected entries: %v", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	mock := &mockFetcher{fn: func(attempt int) ([]model.Entry, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{StatusCode: 503, Err: errors.New("service unavailable")}
		}
		return []model.Entry{{Link: "a"}}, nil
	}}

	rf := NewRetryFetcher(mock, "web", 2, 10*time.Millisecond, discardLogger())
	got, err := rf.FetchEntries(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryOn4xx(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) ([]model.Entry, error) {
		return nil, &model.HTTPError{StatusCode: 404, Err: errors.New("not found")}
	}}

	rf := NewRetryFetcher(mock, "web", 2, 10*time.Millisecond, discardLogger())
	_, err := rf.FetchEntries(context.Background())
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Fatalf("expected HTTPError with status 404, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.calls)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) ([]model.Entry, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	rf := NewRetryFetcher(mock, "web", 2, 10*time.Millisecond, discardLogger())
	if _, err := rf.FetchEntries(context.Background()); err == nil {
		t.Fatal("expected error after max retries, got nil")
	}
	// 1 initial + 2 retries = 3
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls (1 + 2 retries), got %d", mock.calls)
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) ([]model.Entry, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rf := NewRetryFetcher(mock, "web", 2, time.Second, discardLogger())
	_, err := rf.FetchEntries(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", mock.calls)
	}
}

func TestDo_UsesRetryAfter(t *testing.T) {
	p := Policy{MaxRetries: 1, BaseDelay: time.Hour}
	calls := 0
	start := time.Now()
	got, err := Do(context.Background(), p, "slack", func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &model.HTTPError{StatusCode: 429, RetryAfter: 20 * time.Millisecond}
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("Do = %q, %v", got, err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Retry-After should override the base delay, waited %v", elapsed)
	}
}

type flakyGenerator struct {
	calls int
	fail  error
}

func (g *flakyGenerator) Complete(_ context.Context, req model.GenerateRequest) (string, error) {
	g.calls++
	if g.calls == 1 {
		return "", g.fail
	}
	return "text for " + req.Prompt, nil
}

func TestRetryGenerator(t *testing.T) {
	tests := []struct {
		name      string
		fail      error
		wantCalls int
		wantErr   bool
	}{
		{"rate limited then ok", &model.HTTPError{StatusCode: 429, RetryAfter: time.Millisecond}, 2, false},
		{"bad request not retried", &model.HTTPError{StatusCode: 400}, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &flakyGenerator{fail: tt.fail}
			g := NewRetryGenerator(inner, 2, time.Millisecond, discardLogger())

			got, err := g.Complete(context.Background(), model.GenerateRequest{Prompt: "p"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != "text for p" {
				t.Errorf("got %q", got)
			}
			if inner.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", inner.calls, tt.wantCalls)
			}
		})
	}
}
