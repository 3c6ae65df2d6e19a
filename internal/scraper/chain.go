package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/offer-resolver/internal/models"
)

const (
	reasonTimeout   = "timeout"
	reasonDeadline  = "deadline exceeded"
	reasonPopulated = "fields already populated"
	reasonBlocked   = "blocked earlier in chain"
	reasonChallenge = "challenge page"
	reasonNoMarkers = "no markers found"
	reasonPanicked  = "strategy panicked"
)

var errStrategyPanicked = errors.New("strategy panicked")

// DefaultRequired are the fields whose absence justifies paying for the next strategy.
var DefaultRequired = []models.Field{models.FieldName, models.FieldCurrentPrice}

// Chain runs strategies in order, cheapest first. A strategy only runs while one of the
// required fields it can fill is still missing, and it never overwrites a field found earlier.
type Chain struct {
	retailer   models.Retailer
	strategies []Strategy
	required   []models.Field
	timeout    time.Duration
	logger     *slog.Logger
}

func NewChain(retailer models.Retailer, strategies []Strategy, timeout time.Duration, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		retailer:   retailer,
		strategies: strategies,
		required:   DefaultRequired,
		timeout:    timeout,
		logger:     logger.With("component", "chain", "retailer", string(retailer)),
	}
}

// WithRequired overrides the fields that keep the chain going.
func (c *Chain) WithRequired(fields ...models.Field) *Chain {
	c.required = fields
	return c
}

// Run executes the chain against target and merges every strategy's output into raw.
func (c *Chain) Run(ctx context.Context, target Target, raw *models.RawExtraction) {
	for i, s := range c.strategies {
		if raw.Blocked {
			c.skip(raw, c.strategies[i:], reasonBlocked)
			return
		}
		if ctx.Err() != nil {
			c.skip(raw, c.strategies[i:], reasonDeadline)
			return
		}
		if !c.wanted(raw, s) {
			c.skip(raw, []Strategy{s}, reasonPopulated)
			continue
		}

		attempt := c.runOne(ctx, s, target, raw)
		raw.Attempts = append(raw.Attempts, attempt)
		c.log(attempt)
	}
}

func (c *Chain) wanted(raw *models.RawExtraction, s Strategy) bool {
	missing := raw.Missing(c.required)
	for _, m := range missing {
		for _, f := range s.Fills() {
			if f == m {
				return true
			}
		}
	}
	return false
}

func (c *Chain) runOne(ctx context.Context, s Strategy, target Target, raw *models.RawExtraction) models.ExtractionAttempt {
	attempt := models.ExtractionAttempt{
		Retailer: c.retailer,
		Strategy: s.Name(),
	}

	sctx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := safeRun(sctx, s, target)
	attempt.Duration = time.Since(start)

	switch {
	case errors.Is(err, ErrBlocked):
		raw.Blocked = true
		attempt.Outcome = models.OutcomeBlocked
		attempt.Reason = reasonChallenge
		attempt.Error = err.Error()
	case err != nil:
		attempt.Outcome = models.OutcomeFailed
		attempt.Error = err.Error()
		switch {
		case ctx.Err() != nil:
			attempt.Reason = reasonDeadline
		case errors.Is(err, context.DeadlineExceeded) || sctx.Err() != nil:
			attempt.Reason = reasonTimeout
		case errors.Is(err, errStrategyPanicked):
			attempt.Reason = reasonPanicked
		case errors.Is(err, ErrNotApplicable):
			attempt.Outcome = models.OutcomeSkipped
			attempt.Reason = err.Error()
			attempt.Error = ""
		}
	default:
		attempt.Filled = raw.Fill(result)
		if len(attempt.Filled) > 0 {
			attempt.Outcome = models.OutcomeSuccess
		} else {
			attempt.Outcome = models.OutcomeEmpty
			attempt.Reason = reasonNoMarkers
		}
	}

	return attempt
}

// safeRun turns a panicking strategy into an ordinary failure.
func safeRun(ctx context.Context, s Strategy, target Target) (result *models.RawExtraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", errStrategyPanicked, r)
		}
	}()
	return s.Run(ctx, target)
}

func (c *Chain) skip(raw *models.RawExtraction, rest []Strategy, reason string) {
	for _, s := range rest {
		attempt := models.ExtractionAttempt{
			Retailer: c.retailer,
			Strategy: s.Name(),
			Outcome:  models.OutcomeSkipped,
			Reason:   reason,
		}
		raw.Attempts = append(raw.Attempts, attempt)
		c.log(attempt)
	}
}

func (c *Chain) log(a models.ExtractionAttempt) {
	level := slog.LevelInfo
	if a.Outcome == models.OutcomeFailed || a.Outcome == models.OutcomeBlocked {
		level = slog.LevelWarn
	}
	c.logger.Log(context.Background(), level, "strategy attempt",
		"strategy", a.Strategy,
		"outcome", a.Outcome,
		"reason", a.Reason,
		"filled", a.Filled,
		"error", a.Error,
		"duration", a.Duration,
	)
}
