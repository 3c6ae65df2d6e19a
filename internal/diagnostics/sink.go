package diagnostics

import (
	"context"
	"log/slog"
	"time"

	"github.com/maltedev/offer-resolver/internal/models"
)

// Report is the diagnostic trail of one resolution.
type Report struct {
	ResolutionID string                     `json:"resolution_id"`
	URL          string                     `json:"url"`
	Retailer     models.Retailer            `json:"retailer,omitempty"`
	Status       models.Status              `json:"status"`
	Attempts     []models.ExtractionAttempt `json:"attempts"`
	ResolvedAt   time.Time                  `json:"resolved_at"`
}

func NewReport(rec *models.ProductRecord, rawURL string) *Report {
	return &Report{
		ResolutionID: rec.ID,
		URL:          rawURL,
		Retailer:     rec.Retailer,
		Status:       rec.Status,
		Attempts:     rec.Attempts,
		ResolvedAt:   rec.ResolvedAt,
	}
}

// Counts tallies attempts by outcome.
func (r *Report) Counts() map[models.Outcome]int {
	counts := make(map[models.Outcome]int)
	for _, a := range r.Attempts {
		counts[a.Outcome]++
	}
	return counts
}

// Sink receives a Report after every resolution. Sink errors never fail a resolution.
type Sink interface {
	Record(ctx context.Context, report *Report) error
	Close() error
}

// LogSink writes reports as structured log lines.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "diagnostics")}
}

func (s *LogSink) Record(ctx context.Context, report *Report) error {
	counts := report.Counts()
	s.logger.InfoContext(ctx, "resolution finished",
		"resolution_id", report.ResolutionID,
		"url", report.URL,
		"retailer", report.Retailer,
		"status", report.Status,
		"attempts", len(report.Attempts),
		"succeeded", counts[models.OutcomeSuccess],
		"failed", counts[models.OutcomeFailed],
		"blocked", counts[models.OutcomeBlocked],
	)
	for _, a := range report.Attempts {
		if a.Outcome == models.OutcomeFailed || a.Outcome == models.OutcomeBlocked {
			s.logger.DebugContext(ctx, "attempt detail",
				"resolution_id", report.ResolutionID,
				"strategy", a.Strategy,
				"outcome", a.Outcome,
				"reason", a.Reason,
				"error", a.Error,
			)
		}
	}
	return nil
}

func (s *LogSink) Close() error { return nil }
