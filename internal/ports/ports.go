package ports

import (
	"context"
	"time"

	"NewsRelay/internal/domain"
)

// ArticleSource pulls the current headlines from the news provider.
type ArticleSource interface {
	FetchTopHeadlines(ctx context.Context, category domain.Category, token string) ([]domain.Article, error)
}

// Publisher delivers a single article to the messaging sink.
type Publisher interface {
	Publish(ctx context.Context, target domain.SinkTarget, article domain.Article) error
}

// SentRepository remembers delivered articles for deduplication across runs.
type SentRepository interface {
	AlreadySent(ctx context.Context, links []string) (map[string]bool, error)
	MarkSent(ctx context.Context, article domain.Article) error
}

// ActivityLog records operator-facing log lines.
type ActivityLog interface {
	Append(level domain.LogLevel, message string) domain.LogEntry
}

// Scheduler fires a job at a fixed period until stopped.
type Scheduler interface {
	Start(ctx context.Context, every time.Duration, job func(time.Time)) error
	Stop(ctx context.Context) error
	Next() (time.Time, bool)
}
