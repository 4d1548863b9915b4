package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/infrastructure/storage"
	"NewsRelay/internal/logging"
)

func newTestPipeline(src *fakeSource, pub *fakePublisher, ring *logging.Ring, sent *storage.MemoryRepository) *Pipeline {
	deps := PipelineDeps{
		Source:     src,
		Filter:     NewItemFilter(nil, nil),
		Dispatcher: NewDispatcher(pub, time.Millisecond, nil),
		Activity:   ring,
	}
	if sent != nil {
		deps.Filter = NewItemFilter(sent, nil)
		deps.Sent = sent
	}
	return NewPipeline(deps)
}

func hasEntry(entries []domain.LogEntry, level domain.LogLevel, fragment string) bool {
	for _, e := range entries {
		if e.Level == level && strings.Contains(e.Message, fragment) {
			return true
		}
	}
	return false
}

func TestPipelineAllItemsFilteredOut(t *testing.T) {
	t.Parallel()

	src := &fakeSource{articles: []domain.Article{{Title: "A", Description: "", URL: "u", SourceName: "S"}}}
	pub := &fakePublisher{}
	ring := logging.NewRing(50, nil)

	result := newTestPipeline(src, pub, ring, nil).Run(context.Background(), validConfig(), domain.TriggerManual)

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Report != nil {
		t.Fatalf("dispatcher should not run, got report %+v", result.Report)
	}
	if len(pub.Calls()) != 0 {
		t.Fatalf("expected no sink calls, got %d", len(pub.Calls()))
	}
	if result.Fetched != 1 || result.Kept != 0 {
		t.Fatalf("unexpected counts: fetched=%d kept=%d", result.Fetched, result.Kept)
	}

	entries := ring.Entries(0)
	if !hasEntry(entries, domain.LevelInfo, "Aucun nouvel article trouvé") {
		t.Fatalf("expected informational no-items entry, got %+v", entries)
	}
	if hasEntry(entries, domain.LevelError, "") {
		t.Fatalf("no-items run must not log errors: %+v", entries)
	}
}

func TestPipelineSourceErrorAbortsRun(t *testing.T) {
	t.Parallel()

	src := &fakeSource{err: &domain.SourceError{Reason: "rate limited"}}
	pub := &fakePublisher{}
	ring := logging.NewRing(50, nil)

	result := newTestPipeline(src, pub, ring, nil).Run(context.Background(), validConfig(), domain.TriggerTimer)

	var srcErr *domain.SourceError
	if !errors.As(result.Err, &srcErr) || srcErr.Reason != "rate limited" {
		t.Fatalf("expected SourceError, got %v", result.Err)
	}
	if len(pub.Calls()) != 0 {
		t.Fatalf("dispatcher must not be called after a source error")
	}
	if !hasEntry(ring.Entries(0), domain.LevelError, "rate limited") {
		t.Fatalf("expected error entry mentioning the provider message")
	}
	if result.FinishedAt.Before(result.StartedAt) {
		t.Fatalf("finished before start: %+v", result)
	}
}

func TestPipelinePartialFailure(t *testing.T) {
	t.Parallel()

	src := &fakeSource{articles: []domain.Article{article("a", "1"), article("b", "2"), article("c", "3")}}
	pub := &fakePublisher{failAt: map[int]string{1: "Forbidden: bot was kicked"}}
	ring := logging.NewRing(50, nil)

	cfg := validConfig()
	result := newTestPipeline(src, pub, ring, nil).Run(context.Background(), cfg, domain.TriggerManual)

	if result.Err != nil {
		t.Fatalf("delivery failures must not fail the run: %v", result.Err)
	}
	if result.Report == nil || len(result.Report.Outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %+v", result.Report)
	}
	if result.Report.OverallSuccess || result.Report.Summary != SummaryPartial {
		t.Fatalf("expected partial report, got %+v", result.Report)
	}
	if result.Succeeded() {
		t.Fatalf("partial run must not be reported as succeeded")
	}
	for _, call := range pub.Calls() {
		if call.target != cfg.Target() {
			t.Fatalf("unexpected target %+v", call.target)
		}
	}

	entries := ring.Entries(0)
	if !hasEntry(entries, domain.LevelSuccess, "3 articles trouvés") {
		t.Fatalf("expected found entry: %+v", entries)
	}
	if !hasEntry(entries, domain.LevelError, "Forbidden: bot was kicked") {
		t.Fatalf("expected per-item failure entry: %+v", entries)
	}
}

func TestPipelineSkipsArticlesDeliveredEarlier(t *testing.T) {
	t.Parallel()

	src := &fakeSource{articles: []domain.Article{article("a", "1"), article("b", "2")}}
	pub := &fakePublisher{failAt: map[int]string{1: "Too Many Requests"}}
	ring := logging.NewRing(50, nil)
	p := newTestPipeline(src, pub, ring, storage.NewMemoryRepository(10))

	first := p.Run(context.Background(), validConfig(), domain.TriggerTimer)
	if first.Report == nil || first.Report.Delivered() != 1 {
		t.Fatalf("unexpected first run: %+v", first.Report)
	}

	second := p.Run(context.Background(), validConfig(), domain.TriggerTimer)
	if second.Kept != 1 || second.Report == nil || second.Report.Outcomes[0].Article.Title != "b" {
		t.Fatalf("expected only the failed article to be retried, got %+v", second)
	}
	if len(pub.Calls()) != 3 {
		t.Fatalf("expected 3 sink calls overall, got %d", len(pub.Calls()))
	}
}
