package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
)

// RestrictionStore persists reporting restrictions
type RestrictionStore interface {
	SetRestriction(ctx context.Context, userID, reason string, duration time.Duration) (*model.User, error)
	ListExpiredRestrictions(ctx context.Context, limit int) ([]string, error)
	ClearRestriction(ctx context.Context, userID string) (bool, error)
}

// DefaultRestrictionDuration applies when none is configured
const DefaultRestrictionDuration = 7 * 24 * time.Hour

// sweepBatchSize bounds how many records one sweep pass loads
const sweepBatchSize = 500

// RestrictionService bars authors of fake reports from posting for a while
// and lifts the bar once it lapses
type RestrictionService struct {
	users    RestrictionStore
	duration time.Duration
}

// RestrictionServiceConfig holds configuration for the restriction service
type RestrictionServiceConfig struct {
	Users    RestrictionStore
	Duration time.Duration
}

// NewRestrictionService creates a new restriction service
func NewRestrictionService(cfg RestrictionServiceConfig) *RestrictionService {
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultRestrictionDuration
	}
	return &RestrictionService{
		users:    cfg.Users,
		duration: cfg.Duration,
	}
}

// Duration returns how long a restriction lasts
func (s *RestrictionService) Duration() time.Duration {
	return s.duration
}

// RestrictForFakeReport restricts the author of a report that was marked fake
func (s *RestrictionService) RestrictForFakeReport(ctx context.Context, report *model.Report) (*model.User, error) {
	reason := fmt.Sprintf("report %s was marked as fake", report.ID)
	user, err := s.users.SetRestriction(ctx, report.ReportedBy, reason, s.duration)
	if err != nil {
		return nil, fmt.Errorf("restrict %s: %w", report.ReportedBy, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	slog.Info("reporter restricted",
		slog.String("user_id", report.ReportedBy),
		slog.String("report_id", report.ID),
		slog.Duration("duration", s.duration),
	)
	return user, nil
}

// ClearExpired lifts every restriction whose end date has passed. Each user
// is handled on its own; failures are counted and the sweep continues until
// ctx is done.
func (s *RestrictionService) ClearExpired(ctx context.Context) (*SweepResult, error) {
	result := newSweepResult(SweepRestrictionCleanup)
	defer result.finish()

	ids, err := s.users.ListExpiredRestrictions(ctx, sweepBatchSize)
	if err != nil {
		return result, fmt.Errorf("list expired restrictions: %w", err)
	}
	result.Matched = len(ids)

	for _, id := range ids {
		if ctx.Err() != nil {
			result.Partial = true
			break
		}
		cleared, err := s.users.ClearRestriction(ctx, id)
		if err != nil {
			result.Failed++
			slog.Warn("restriction cleanup failed", slog.String("user_id", id), slog.String("error", err.Error()))
			continue
		}
		if cleared {
			result.Processed++
		}
	}
	return result, nil
}
