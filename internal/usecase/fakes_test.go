package usecase

import (
	"context"
	"sync"
	"time"

	"NewsRelay/internal/domain"
)

type fakeSource struct {
	mu       sync.Mutex
	articles []domain.Article
	err      error
	calls    int
}

func (f *fakeSource) FetchTopHeadlines(ctx context.Context, category domain.Category, token string) ([]domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Article, len(f.articles))
	copy(out, f.articles)
	return out, nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type publishCall struct {
	target  domain.SinkTarget
	article domain.Article
	start   time.Time
	end     time.Time
}

type fakePublisher struct {
	mu      sync.Mutex
	calls   []publishCall
	failAt  map[int]string
	panicAt map[int]bool
	delay   time.Duration
}

func (f *fakePublisher) Publish(ctx context.Context, target domain.SinkTarget, article domain.Article) error {
	start := time.Now()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	idx := len(f.calls)
	f.calls = append(f.calls, publishCall{target: target, article: article, start: start, end: time.Now()})
	reason, fail := f.failAt[idx]
	shouldPanic := f.panicAt[idx]
	f.mu.Unlock()

	if shouldPanic {
		panic("publisher exploded")
	}
	if fail {
		return &domain.SinkError{Reason: reason}
	}
	return nil
}

func (f *fakePublisher) Calls() []publishCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]publishCall, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeDriver struct {
	mu       sync.Mutex
	job      func(time.Time)
	interval time.Duration
	starts   int
	stops    int
}

func (f *fakeDriver) Start(ctx context.Context, every time.Duration, job func(time.Time)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.job != nil {
		return nil
	}
	f.job = job
	f.interval = every
	f.starts++
	return nil
}

func (f *fakeDriver) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.job == nil {
		return nil
	}
	f.job = nil
	f.stops++
	return nil
}

func (f *fakeDriver) Next() (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.job == nil {
		return time.Time{}, false
	}
	return time.Now().Add(f.interval), true
}

// fire simulates a timer tick; it returns false when the timer is disarmed.
func (f *fakeDriver) fire() bool {
	f.mu.Lock()
	job := f.job
	f.mu.Unlock()
	if job == nil {
		return false
	}
	job(time.Now())
	return true
}

func (f *fakeDriver) counts() (starts, stops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops
}

func validConfig() domain.AgentConfig {
	return domain.AgentConfig{
		SourceToken:     "news-key",
		SinkBotToken:    "bot-token",
		SinkChannelID:   "@channel",
		Category:        domain.CategoryTechnology,
		IntervalMinutes: 30,
	}
}

func article(title, description string) domain.Article {
	return domain.Article{
		Title:       title,
		Description: description,
		URL:         "https://ex.org/" + title,
		SourceName:  "Example",
	}
}
