package newsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
)

func newTestClient(endpoint string) *Client {
	return NewClient(config.SourceConfig{
		Endpoint: endpoint,
		Language: "fr",
		PageSize: 5,
		Timeout:  2 * time.Second,
	}, nil)
}

func TestFetchTopHeadlines(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("category") != "science" || q.Get("language") != "fr" || q.Get("pageSize") != "5" || q.Get("apiKey") != "key" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"articles": [
				{"title": " Fusion record ", "description": "<p>Un <b>nouveau</b> record &amp; plus</p>", "url": "https://ex.org/a", "source": {"name": "Le Monde"}, "publishedAt": "2025-11-08T10:00:00Z"},
				{"title": "A", "description": "", "url": "u", "source": {"name": "S"}, "publishedAt": "t"}
			]
		}`))
	}))
	defer server.Close()

	articles, err := newTestClient(server.URL+"/v2/top-headlines").FetchTopHeadlines(context.Background(), domain.CategoryScience, "key")
	if err != nil {
		t.Fatalf("FetchTopHeadlines error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	first := articles[0]
	if first.Title != "Fusion record" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if first.Description != "Un nouveau record & plus" {
		t.Fatalf("unexpected description: %q", first.Description)
	}
	if first.SourceName != "Le Monde" || first.URL != "https://ex.org/a" {
		t.Fatalf("unexpected article: %+v", first)
	}
	if !first.PublishedAt.Equal(time.Date(2025, time.November, 8, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected published date: %v", first.PublishedAt)
	}
	if !articles[1].PublishedAt.IsZero() {
		t.Fatalf("unparseable date should stay zero, got %v", articles[1].PublishedAt)
	}
}

func TestFetchTopHeadlinesProviderError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":"error","code":"rateLimited","message":"rate limited"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchTopHeadlines(context.Background(), domain.CategoryGeneral, "key")
	var srcErr *domain.SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("expected SourceError, got %v", err)
	}
	if srcErr.Reason != "rate limited" {
		t.Fatalf("unexpected reason: %q", srcErr.Reason)
	}
}

func TestFetchTopHeadlinesFallbackReason(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchTopHeadlines(context.Background(), domain.CategoryGeneral, "key")
	var srcErr *domain.SourceError
	if !errors.As(err, &srcErr) || srcErr.Reason != fallbackReason {
		t.Fatalf("expected fallback SourceError, got %v", err)
	}
}

func TestFetchTopHeadlinesMalformedBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchTopHeadlines(context.Background(), domain.CategoryGeneral, "key")
	var srcErr *domain.SourceError
	if !errors.As(err, &srcErr) || srcErr.Reason != domain.ReasonTransport {
		t.Fatalf("expected transport SourceError, got %v", err)
	}
}

func TestFetchTopHeadlinesRejectsInputWithoutCalling(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.FetchTopHeadlines(context.Background(), domain.CategoryGeneral, ""); err == nil {
		t.Fatalf("expected error for empty token")
	}
	if _, err := client.FetchTopHeadlines(context.Background(), domain.Category("weather"), "key"); err == nil {
		t.Fatalf("expected error for unknown category")
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no network call, got %d", calls.Load())
	}
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	if got := plainText("  simple text "); got != "simple text" {
		t.Fatalf("unexpected plain text: %q", got)
	}
	if got := plainText("<div>line one<br>line   two</div>"); got != "line oneline two" {
		t.Fatalf("unexpected stripped text: %q", got)
	}
}
