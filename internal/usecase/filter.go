package usecase

import (
	"context"
	"log/slog"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// ItemFilter drops articles that cannot be delivered and, when a repository
// is wired, articles already delivered earlier in the process lifetime.
type ItemFilter struct {
	sent   ports.SentRepository
	logger *slog.Logger
}

// NewItemFilter builds a filter; sent may be nil.
func NewItemFilter(sent ports.SentRepository, logger *slog.Logger) *ItemFilter {
	return &ItemFilter{sent: sent, logger: logger}
}

// Filter keeps the source order. Dropped items are not failures.
func (f *ItemFilter) Filter(ctx context.Context, items []domain.Article) []domain.Article {
	kept := make([]domain.Article, 0, len(items))
	for _, item := range items {
		if item.Deliverable() {
			kept = append(kept, item)
		}
	}

	if f == nil || f.sent == nil || len(kept) == 0 {
		return kept
	}

	links := make([]string, len(kept))
	for i, item := range kept {
		links[i] = item.URL
	}

	sent, err := f.sent.AlreadySent(ctx, links)
	if err != nil {
		if f.logger != nil {
			f.logger.Warn("sent lookup failed, keeping all items", "error", err)
		}
		return kept
	}

	fresh := make([]domain.Article, 0, len(kept))
	for _, item := range kept {
		if sent[item.URL] {
			continue
		}
		fresh = append(fresh, item)
	}
	return fresh
}
