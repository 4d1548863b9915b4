package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// DefaultSendInterval respects the sink's per-chat rate limit.
const DefaultSendInterval = time.Second

// Dispatcher delivers articles one by one with a fixed pause between attempts.
type Dispatcher struct {
	publisher ports.Publisher
	interval  time.Duration
	logger    *slog.Logger
}

// NewDispatcher builds a dispatcher; a non-positive interval means DefaultSendInterval.
func NewDispatcher(publisher ports.Publisher, interval time.Duration, logger *slog.Logger) *Dispatcher {
	if interval <= 0 {
		interval = DefaultSendInterval
	}
	return &Dispatcher{publisher: publisher, interval: interval, logger: logger}
}

// Dispatch attempts every item in order; a failed item never stops the others.
// The pause runs between attempts only, never before the first or after the last.
func (d *Dispatcher) Dispatch(ctx context.Context, items []domain.Article, target domain.SinkTarget) domain.RunReport {
	outcomes := make([]domain.DispatchOutcome, 0, len(items))

	for i, article := range items {
		if i > 0 {
			pause(ctx, d.interval)
		}

		outcome := domain.DispatchOutcome{Article: article, Success: true}
		if err := d.publish(ctx, target, article); err != nil {
			outcome.Success = false
			outcome.ErrorDetail = sinkDetail(err)
			d.warn("delivery failed", "title", article.Title, "error", err)
		}
		outcomes = append(outcomes, outcome)
	}

	return NewRunReport(outcomes)
}

func (d *Dispatcher) publish(ctx context.Context, target domain.SinkTarget, article domain.Article) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.SinkError{Reason: fmt.Sprintf("publisher panic: %v", r)}
		}
	}()
	if d.publisher == nil {
		return &domain.SinkError{Reason: "no publisher configured"}
	}
	return d.publisher.Publish(ctx, target, article)
}

// pause waits on a timer; a cancelled context ends the wait early.
func pause(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func sinkDetail(err error) string {
	var sinkErr *domain.SinkError
	if errors.As(err, &sinkErr) {
		return sinkErr.Detail()
	}
	return err.Error()
}

func (d *Dispatcher) warn(msg string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}
