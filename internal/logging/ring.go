package logging

import (
	"log/slog"
	"sync"
	"time"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// DefaultRingCapacity matches the number of lines an operator screen keeps.
const DefaultRingCapacity = 50

// Ring is a bounded activity log: the newest entries are kept, the oldest evicted.
type Ring struct {
	mu      sync.Mutex
	entries []domain.LogEntry
	start   int
	size    int
	seq     uint64
	now     func() time.Time
	logger  *slog.Logger
}

var _ ports.ActivityLog = (*Ring)(nil)

// NewRing allocates a ring; entries are mirrored into logger when it is not nil.
func NewRing(capacity int, logger *slog.Logger) *Ring {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	return &Ring{
		entries: make([]domain.LogEntry, capacity),
		now:     time.Now,
		logger:  logger,
	}
}

// Append stores a new entry, evicting the oldest one when full.
func (r *Ring) Append(level domain.LogLevel, message string) domain.LogEntry {
	r.mu.Lock()
	r.seq++
	entry := domain.LogEntry{
		Seq:     r.seq,
		Time:    r.now(),
		Message: message,
		Level:   level,
	}

	capacity := len(r.entries)
	if r.size < capacity {
		r.entries[(r.start+r.size)%capacity] = entry
		r.size++
	} else {
		r.entries[r.start] = entry
		r.start = (r.start + 1) % capacity
	}
	r.mu.Unlock()

	r.mirror(entry)
	return entry
}

// Entries returns the retained entries with Seq greater than after, oldest first.
func (r *Ring) Entries(after uint64) []domain.LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.LogEntry, 0, r.size)
	capacity := len(r.entries)
	for i := 0; i < r.size; i++ {
		entry := r.entries[(r.start+i)%capacity]
		if entry.Seq > after {
			out = append(out, entry)
		}
	}
	return out
}

// Len reports how many entries are retained.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

func (r *Ring) mirror(entry domain.LogEntry) {
	if r.logger == nil {
		return
	}
	if entry.Level == domain.LevelError {
		r.logger.Error(entry.Message, "seq", entry.Seq)
		return
	}
	r.logger.Info(entry.Message, "seq", entry.Seq, "level", string(entry.Level))
}
