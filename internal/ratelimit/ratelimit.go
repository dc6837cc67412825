package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/time/rate"

	"github.com/amishk599/pitchdesk/internal/model"
)

// HostLimiter keeps one token bucket per remote host.
type HostLimiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
	r  rate.Limit
	b  int
}

// NewHostLimiter allows reqPerSec sustained requests per host with the given burst.
func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		m: make(map[string]*rate.Limiter),
		r: rate.Limit(reqPerSec),
		b: burst,
	}
}

func (hl *HostLimiter) limiterFor(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if lim, ok := hl.m[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(hl.r, hl.b)
	hl.m[host] = lim
	return lim
}

// Wait blocks until a request to host is allowed or ctx is done.
func (hl *HostLimiter) Wait(ctx context.Context, host string) error {
	if err := hl.limiterFor(host).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", host, err)
	}
	return nil
}

// WaitURL is Wait keyed by the host of raw. Unparseable URLs share one bucket.
func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return hl.Wait(ctx, "_")
	}
	return hl.Wait(ctx, u.Host)
}

// RateLimitedFetcher is a decorator that waits on the host limiter before
// delegating to the wrapped EntryFetcher. Sources on the same host share a bucket.
type RateLimitedFetcher struct {
	inner   model.EntryFetcher
	limiter *HostLimiter
	url     string
}

// NewRateLimitedFetcher wraps a fetcher for the feed at feedURL.
func NewRateLimitedFetcher(inner model.EntryFetcher, limiter *HostLimiter, feedURL string) *RateLimitedFetcher {
	return &RateLimitedFetcher{inner: inner, limiter: limiter, url: feedURL}
}

// FetchEntries waits for the limiter, then delegates.
func (f *RateLimitedFetcher) FetchEntries(ctx context.Context) ([]model.Entry, error) {
	if err := f.limiter.WaitURL(ctx, f.url); err != nil {
		return nil, err
	}
	return f.inner.FetchEntries(ctx)
}

// RateLimitedSearcher is the same decorator for catalog searches.
type RateLimitedSearcher struct {
	inner   model.CatalogSearcher
	limiter *HostLimiter
	host    string
}

// NewRateLimitedSearcher wraps a searcher whose requests go to host.
func NewRateLimitedSearcher(inner model.CatalogSearcher, limiter *HostLimiter, host string) *RateLimitedSearcher {
	return &RateLimitedSearcher{inner: inner, limiter: limiter, host: host}
}

// Search waits for the limiter, then delegates.
func (s *RateLimitedSearcher) Search(ctx context.Context, q model.CatalogQuery) ([]model.CatalogApp, error) {
	if err := s.limiter.Wait(ctx, s.host); err != nil {
		return nil, err
	}
	return s.inner.Search(ctx, q)
}
