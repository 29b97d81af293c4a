package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
)

// AuthoredReportSource lists the reports that count towards a user's score,
// archived ones included
type AuthoredReportSource interface {
	ListScoringHistory(ctx context.Context, authorID string) ([]*model.Report, error)
}

// ScoreStore reads users and overwrites their gamification fields
type ScoreStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	UpdateScore(ctx context.Context, userID string, score model.Score) error
	ListIDsByRole(ctx context.Context, role model.UserRole) ([]string, error)
}

// PointsService recomputes points, badge and level from report history
type PointsService struct {
	reports AuthoredReportSource
	users   ScoreStore
}

// PointsServiceConfig holds configuration for the points service
type PointsServiceConfig struct {
	Reports AuthoredReportSource
	Users   ScoreStore
}

// NewPointsService creates a new points service
func NewPointsService(cfg PointsServiceConfig) *PointsService {
	return &PointsService{
		reports: cfg.Reports,
		users:   cfg.Users,
	}
}

// RecalculateUser recomputes one user's score from their current reports and
// overwrites the stored values
func (s *PointsService) RecalculateUser(ctx context.Context, userID string) (*model.Score, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	reports, err := s.reports.ListScoringHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load reports for %s: %w", userID, err)
	}

	score := model.ComputeScore(reports)
	if err := s.users.UpdateScore(ctx, userID, score); err != nil {
		return nil, fmt.Errorf("store score for %s: %w", userID, err)
	}
	return &score, nil
}

// RecalculateAll recomputes every citizen. A failure on one user is logged and
// counted; the pass continues with the next user until ctx is done.
func (s *PointsService) RecalculateAll(ctx context.Context) (*model.RecalculateResult, error) {
	ids, err := s.users.ListIDsByRole(ctx, model.UserRoleCitizen)
	if err != nil {
		return nil, fmt.Errorf("list citizens: %w", err)
	}

	result := &model.RecalculateResult{Users: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.RecalculateUser(ctx, id); err != nil {
			result.Failed++
			slog.Warn("points recalculation failed",
				slog.String("user_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		result.Updated++
	}

	slog.Info("points recalculated",
		slog.Int("users", result.Users),
		slog.Int("updated", result.Updated),
		slog.Int("failed", result.Failed),
	)
	return result, ctx.Err()
}

// refreshAfter recalculates a reporter's points after a report changed state.
// Failures are logged; the triggering operation has already succeeded.
func (s *PointsService) refreshAfter(ctx context.Context, report *model.Report) {
	if s == nil || report == nil || report.ReportedBy == "" {
		return
	}
	if _, err := s.RecalculateUser(ctx, report.ReportedBy); err != nil {
		slog.Warn("points refresh failed",
			slog.String("report_id", report.ID),
			slog.String("user_id", report.ReportedBy),
			slog.String("error", err.Error()),
		)
	}
}
