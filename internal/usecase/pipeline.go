package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// PipelineDeps wires all driven adapters into the run pipeline.
type PipelineDeps struct {
	Source     ports.ArticleSource
	Filter     *ItemFilter
	Dispatcher *Dispatcher
	Sent       ports.SentRepository
	Activity   ports.ActivityLog
	Logger     *slog.Logger
}

// Pipeline implements one fetch, filter and dispatch run.
type Pipeline struct {
	source     ports.ArticleSource
	filter     *ItemFilter
	dispatcher *Dispatcher
	sent       ports.SentRepository
	activity   ports.ActivityLog
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:     deps.Source,
		filter:     deps.Filter,
		dispatcher: deps.Dispatcher,
		sent:       deps.Sent,
		activity:   deps.Activity,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// Run executes one run. Failures end up in the result and the activity log, never as a panic.
// Credentials are expected to be validated by the caller.
func (p *Pipeline) Run(ctx context.Context, cfg domain.AgentConfig, trigger domain.Trigger) domain.RunResult {
	cfg = cfg.Normalize()
	result := domain.RunResult{
		ID:        uuid.New(),
		Trigger:   trigger,
		StartedAt: p.now(),
	}

	if p.source == nil {
		result.Err = &domain.SourceError{Reason: "no source configured"}
		p.record(domain.LevelError, "Erreur lors de la recherche: "+result.Err.Error())
		return p.finish(result)
	}

	p.record(domain.LevelInfo, "Recherche de nouvelles news...")
	articles, err := p.source.FetchTopHeadlines(ctx, cfg.Category, cfg.SourceToken)
	if err != nil {
		result.Err = fmt.Errorf("fetch headlines: %w", err)
		p.record(domain.LevelError, "Erreur lors de la recherche: "+err.Error())
		return p.finish(result)
	}
	result.Fetched = len(articles)

	kept := p.filter.Filter(ctx, articles)
	result.Kept = len(kept)
	if len(kept) == 0 {
		p.record(domain.LevelInfo, "Aucun nouvel article trouvé")
		return p.finish(result)
	}
	p.record(domain.LevelSuccess, fmt.Sprintf("%d articles trouvés", len(kept)))

	p.record(domain.LevelInfo, "Envoi vers Telegram...")
	report := p.dispatcher.Dispatch(ctx, kept, cfg.Target())
	result.Report = &report

	for _, line := range reportLines(report) {
		p.record(line.level, line.message)
	}

	p.markSent(ctx, report)
	return p.finish(result)
}

func (p *Pipeline) markSent(ctx context.Context, report domain.RunReport) {
	if p.sent == nil {
		return
	}
	for _, o := range report.Outcomes {
		if !o.Success {
			continue
		}
		if err := p.sent.MarkSent(ctx, o.Article); err != nil {
			p.logWarn("mark sent failed", "url", o.Article.URL, "error", err)
		}
	}
}

func (p *Pipeline) finish(result domain.RunResult) domain.RunResult {
	result.FinishedAt = p.now()
	if p.logger == nil {
		return result
	}

	args := []any{
		"run", result.ID,
		"trigger", result.Trigger,
		"fetched", result.Fetched,
		"kept", result.Kept,
		"duration", result.FinishedAt.Sub(result.StartedAt),
	}
	if result.Report != nil {
		args = append(args, "delivered", result.Report.Delivered(), "failed", result.Report.Failed())
	}
	if result.Err != nil {
		p.logger.Warn("run aborted", append(args, "error", result.Err)...)
		return result
	}
	p.logger.Info("run finished", args...)
	return result
}

func (p *Pipeline) record(level domain.LogLevel, message string) {
	if p.activity != nil {
		p.activity.Append(level, message)
	}
}

func (p *Pipeline) logWarn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
