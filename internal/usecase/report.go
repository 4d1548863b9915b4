package usecase

import (
	"fmt"

	"NewsRelay/internal/domain"
)

const (
	SummaryAllDelivered = "Tous les articles ont été envoyés"
	SummaryPartial      = "Certains articles n'ont pas pu être envoyés"
)

// NewRunReport aggregates outcomes; zero outcomes is a vacuous success.
func NewRunReport(outcomes []domain.DispatchOutcome) domain.RunReport {
	success := true
	for _, o := range outcomes {
		if !o.Success {
			success = false
			break
		}
	}

	summary := SummaryAllDelivered
	if !success {
		summary = SummaryPartial
	}

	return domain.RunReport{
		Outcomes:       outcomes,
		OverallSuccess: success,
		Summary:        summary,
	}
}

type logLine struct {
	level   domain.LogLevel
	message string
}

// reportLines renders the activity log lines of a finished dispatch.
func reportLines(report domain.RunReport) []logLine {
	if report.OverallSuccess {
		return []logLine{{
			level:   domain.LevelSuccess,
			message: fmt.Sprintf("✓ %d articles envoyés sur Telegram", len(report.Outcomes)),
		}}
	}

	lines := make([]logLine, 0, report.Failed()+1)
	for _, o := range report.Outcomes {
		if o.Success {
			continue
		}
		lines = append(lines, logLine{
			level:   domain.LevelError,
			message: fmt.Sprintf("✗ %s: %s", o.Article.Title, o.ErrorDetail),
		})
	}
	lines = append(lines, logLine{
		level: domain.LevelError,
		message: fmt.Sprintf("✗ Erreur Telegram: %s (%d/%d envoyés)",
			report.Summary, report.Delivered(), len(report.Outcomes)),
	})
	return lines
}
