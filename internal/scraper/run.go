package scraper

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pharmawatch/eofscraper/internal/metrics"
)

// Runner orchestrates one full scrape across every configured category
// and records the outcome in the scrape log.
type Runner struct {
	store      Store
	walker     *Walker
	clock      Clock
	logger     *zap.Logger
	categories []CategoryConfig
}

// NewRunner constructs a Runner. A nil category list falls back to
// DefaultCategories.
func NewRunner(store Store, walker *Walker, clock Clock, logger *zap.Logger, categories []CategoryConfig) *Runner {
	if categories == nil {
		categories = DefaultCategories()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		store:      store,
		walker:     walker,
		clock:      clock,
		logger:     logger,
		categories: categories,
	}
}

// RunFullScrape executes one full scrape. One bad category is recorded
// and skipped; only a failure of the orchestration itself (or of the
// scrape log bookkeeping) is returned as an error. Cancellation is
// honored between categories: in-flight category work always finishes.
func (r *Runner) RunFullScrape(ctx context.Context) (err error) {
	start := r.clock.Now().UTC()
	logID, err := r.store.StartScrapeLog(ctx, start)
	if err != nil {
		return fmt.Errorf("start scrape log: %w", err)
	}

	var total CategoryResult
	var errs []string

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("scrape panicked: %v", p)
		}
		end := r.clock.Now().UTC()
		entry := ScrapeLog{
			ID:              logID,
			StartTime:       start,
			EndTime:         &end,
			PostsScraped:    total.Scraped,
			PostsNew:        total.New,
			PostsUpdated:    total.Updated,
			Errors:          strings.Join(errs, "\n"),
			DurationSeconds: int(end.Sub(start).Seconds()),
		}
		switch {
		case err != nil:
			entry.Status = RunStatusFailed
			entry.Errors = err.Error()
		case len(errs) > 0:
			entry.Status = RunStatusPartial
		default:
			entry.Status = RunStatusSuccess
		}
		// Record the outcome even when the run was canceled.
		if finishErr := r.store.FinishScrapeLog(context.WithoutCancel(ctx), entry); finishErr != nil {
			r.logger.Error("finish scrape log failed", zap.Error(finishErr))
			if err == nil {
				err = fmt.Errorf("finish scrape log: %w", finishErr)
			}
		}
		metrics.RunCompleted(string(entry.Status), end.Sub(start))
	}()

	// Category work runs on a non-cancelable context so a shutdown
	// signal drains the current category instead of aborting it.
	workCtx := context.WithoutCancel(ctx)
	for _, cat := range r.categories {
		if ctx.Err() != nil {
			r.logger.Info("shutdown requested, draining run early")
			break
		}
		res, walkErrs := r.walker.WalkTree(workCtx, cat)
		total.Add(res)
		errs = append(errs, walkErrs...)
	}

	r.logger.Info("scrape complete",
		zap.Int("scraped", total.Scraped),
		zap.Int("new", total.New),
		zap.Int("updated", total.Updated),
		zap.Int("errors", len(errs)),
	)
	return nil
}
