package storage

import (
	"context"
	"strings"
	"sync"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// MemoryRepository remembers the links of delivered articles for the process lifetime.
// It keeps at most capacity links and forgets the oldest first.
type MemoryRepository struct {
	mu       sync.Mutex
	capacity int
	order    []string
	links    map[string]struct{}
}

var _ ports.SentRepository = (*MemoryRepository)(nil)

// NewMemoryRepository builds a bounded repository.
func NewMemoryRepository(capacity int) *MemoryRepository {
	if capacity <= 0 {
		capacity = 500
	}
	return &MemoryRepository{
		capacity: capacity,
		links:    make(map[string]struct{}, capacity),
	}
}

// AlreadySent returns a map with the links that were delivered before.
func (r *MemoryRepository) AlreadySent(ctx context.Context, links []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(links) == 0 {
		return result, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, link := range links {
		key := linkKey(link)
		if key == "" {
			continue
		}
		if _, ok := r.links[key]; ok {
			result[link] = true
		}
	}
	return result, nil
}

// MarkSent records a delivered article; articles without a link are ignored.
func (r *MemoryRepository) MarkSent(ctx context.Context, article domain.Article) error {
	key := linkKey(article.URL)
	if key == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.links[key]; ok {
		return nil
	}
	if len(r.order) >= r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.links, oldest)
	}
	r.order = append(r.order, key)
	r.links[key] = struct{}{}
	return nil
}

func linkKey(link string) string {
	return strings.TrimSuffix(strings.TrimSpace(link), "/")
}
