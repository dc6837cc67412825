package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amishk599/pitchdesk/internal/model"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel>
    <title>Web Development</title>
    <link>https://example.com</link>
    <description>jobs</description>
    <item>
      <title>Build a booking site (Hourly Rate: $20-$40)</title>
      <link>https://example.com/jobs/1</link>
      <dc:creator>Jane Doe</dc:creator>
      <pubDate>Mon, 12 Oct 2026 09:00:00 GMT</pubDate>
      <budget>$500</budget>
      <description><![CDATA[<p>Need a React developer for a booking flow.</p><p>Skills: React, Node.js</p><p>Categories: Web Development</p>]]></description>
    </item>
    <item>
      <title>No link here</title>
      <description>ignored</description>
    </item>
    <item>
      <title>Second job</title>
      <link>https://example.com/jobs/2</link>
      <description>Plain text body</description>
    </item>
  </channel>
</rss>`

func TestFeedAdapter_FetchEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected User-Agent header")
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	a := NewFeedAdapter(srv.URL, srv.Client())
	entries, err := a.FetchEntries(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries (item without link dropped), got %d", len(entries))
	}

	e := entries[0]
	if e.Link != "https://example.com/jobs/1" {
		t.Errorf("link = %q", e.Link)
	}
	if e.Title != "Build a booking site (Hourly Rate: $20-$40)" {
		t.Errorf("title = %q", e.Title)
	}
	if e.Author != "Jane Doe" {
		t.Errorf("author = %q, want Jane Doe", e.Author)
	}
	if e.Published == nil {
		t.Fatal("expected published time")
	}
	if e.Published.Day() != 12 {
		t.Errorf("published day = %d, want 12", e.Published.Day())
	}
	if !strings.Contains(e.Description, "Skills: React, Node.js") {
		t.Errorf("description lost skills marker: %q", e.Description)
	}
	if strings.Contains(e.Description, "<p>") {
		t.Errorf("description still contains markup: %q", e.Description)
	}

	if entries[1].Published != nil {
		t.Errorf("expected nil published for item without date")
	}
	if entries[1].Description != "Plain text body" {
		t.Errorf("description = %q", entries[1].Description)
	}
}

func TestFeedAdapter_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewFeedAdapter(srv.URL, srv.Client()).FetchEntries(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *model.HTTPError, got %T", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d", httpErr.StatusCode)
	}
	if httpErr.RetryAfter.Seconds() != 30 {
		t.Errorf("retry after = %v", httpErr.RetryAfter)
	}
}

func TestFeedAdapter_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a feed"))
	}))
	defer srv.Close()

	if _, err := NewFeedAdapter(srv.URL, srv.Client()).FetchEntries(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  hello   world ", "hello world"},
		{"paragraphs", "<p>one</p><p>two</p>", "one\ntwo"},
		{"br", "a<br>b<br/>c", "a\nb\nc"},
		{"entities", "Tom &amp; Jerry", "Tom & Jerry"},
		{"cdata", "<![CDATA[<b>bold</b> text]]>", "bold text"},
		{"script", "<p>keep</p><script>drop()</script>", "keep"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractText(tt.in); got != tt.want {
				t.Errorf("extractText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
