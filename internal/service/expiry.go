package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/metrics"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
)

// Sweep names, shared by the scheduler, the admin CLI and metrics labels
const (
	SweepReportExpiry       = "report-expiry"
	SweepResolvedCleanup    = "resolved-cleanup"
	SweepRestrictionCleanup = "restriction-cleanup"
)

// DefaultResolvedRetention is how long resolved reports stay visible before archiving
const DefaultResolvedRetention = 30 * 24 * time.Hour

// SweepResult summarises one scheduler pass
type SweepResult struct {
	Name      string        `json:"name"`
	Matched   int           `json:"matched"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Partial   bool          `json:"partial"`
	Duration  time.Duration `json:"duration"`

	started time.Time
}

func newSweepResult(name string) *SweepResult {
	return &SweepResult{Name: name, started: time.Now()}
}

func (r *SweepResult) finish() {
	r.Duration = time.Since(r.started)
}

// String renders the one-line summary logged after each run
func (r *SweepResult) String() string {
	s := fmt.Sprintf("%s: processed %d of %d", r.Name, r.Processed, r.Matched)
	if r.Failed > 0 {
		s += fmt.Sprintf(", %d failed", r.Failed)
	}
	if r.Partial {
		s += " (stopped early)"
	}
	return s + fmt.Sprintf(" in %s", r.Duration.Round(time.Millisecond))
}

// ExpiryStore is the report storage used by the expiry sweeps
type ExpiryStore interface {
	ListDueForExpiry(ctx context.Context, limit int) ([]*model.Report, error)
	Expire(ctx context.Context, id string) (*model.Report, error)
	ListResolvedBefore(ctx context.Context, retention time.Duration, limit int) ([]string, error)
	Archive(ctx context.Context, id string) error
}

// ExpiryService auto-resolves reports past their deadline and archives old
// resolved reports
type ExpiryService struct {
	reports   ExpiryStore
	points    *PointsService
	retention time.Duration
	metrics   *metrics.Metrics
}

// ExpiryServiceConfig holds configuration for the expiry service
type ExpiryServiceConfig struct {
	Reports   ExpiryStore
	Points    *PointsService
	Retention time.Duration
	Metrics   *metrics.Metrics
}

// NewExpiryService creates a new expiry service
func NewExpiryService(cfg ExpiryServiceConfig) *ExpiryService {
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultResolvedRetention
	}
	return &ExpiryService{
		reports:   cfg.Reports,
		points:    cfg.Points,
		retention: cfg.Retention,
		metrics:   cfg.Metrics,
	}
}

// ExpireDue moves every open report whose deadline has passed to Resolved.
// A report resolved concurrently by someone else is skipped, not failed.
func (s *ExpiryService) ExpireDue(ctx context.Context) (*SweepResult, error) {
	result := newSweepResult(SweepReportExpiry)
	defer result.finish()

	due, err := s.reports.ListDueForExpiry(ctx, sweepBatchSize)
	if err != nil {
		return result, fmt.Errorf("list due reports: %w", err)
	}
	result.Matched = len(due)

	for _, report := range due {
		if ctx.Err() != nil {
			result.Partial = true
			break
		}

		updated, err := s.reports.Expire(ctx, report.ID)
		if err != nil {
			result.Failed++
			slog.Warn("report expiry failed", slog.String("report_id", report.ID), slog.String("error", err.Error()))
			continue
		}
		if updated == nil {
			continue
		}

		result.Processed++
		s.metrics.StatusTransition(string(model.PathScheduler), string(model.ReportStatusResolved))
		s.points.refreshAfter(ctx, updated)
	}
	return result, nil
}

// ArchiveResolved retires reports resolved longer ago than the retention
// period. Their likes, views, thumbs and comments are deleted; the report
// records stay behind, hidden, so authors keep the points they earned.
func (s *ExpiryService) ArchiveResolved(ctx context.Context) (*SweepResult, error) {
	result := newSweepResult(SweepResolvedCleanup)
	defer result.finish()

	ids, err := s.reports.ListResolvedBefore(ctx, s.retention, sweepBatchSize)
	if err != nil {
		return result, fmt.Errorf("list resolved reports: %w", err)
	}
	result.Matched = len(ids)

	for _, id := range ids {
		if ctx.Err() != nil {
			result.Partial = true
			break
		}
		if err := s.reports.Archive(ctx, id); err != nil {
			result.Failed++
			slog.Warn("resolved report archive failed", slog.String("report_id", id), slog.String("error", err.Error()))
			continue
		}
		result.Processed++
	}
	return result, nil
}
