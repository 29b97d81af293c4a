package service

import (
	"context"
	"log/slog"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/metrics"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
)

// DefaultFakeVoteThreshold is the number of fake votes that marks a report fake
const DefaultFakeVoteThreshold = 3

// PollStore is the report storage used by the community poll
type PollStore interface {
	GetByID(ctx context.Context, id string) (*model.Report, error)
	CastPollVote(ctx context.Context, reportID, userID string, choice model.PollChoice, selfResolve bool, fakeThreshold int) (*model.Report, error)
}

// PollService handles community poll votes on reports
type PollService struct {
	reports       PollStore
	points        *PointsService
	restrictions  *RestrictionService
	metrics       *metrics.Metrics
	fakeThreshold int
}

// PollServiceConfig holds configuration for the poll service
type PollServiceConfig struct {
	Reports       PollStore
	Points        *PointsService
	Restrictions  *RestrictionService
	Metrics       *metrics.Metrics
	FakeThreshold int
}

// NewPollService creates a new poll service
func NewPollService(cfg PollServiceConfig) *PollService {
	if cfg.FakeThreshold <= 0 {
		cfg.FakeThreshold = DefaultFakeVoteThreshold
	}
	return &PollService{
		reports:       cfg.Reports,
		points:        cfg.Points,
		restrictions:  cfg.Restrictions,
		metrics:       cfg.Metrics,
		fakeThreshold: cfg.FakeThreshold,
	}
}

// FakeThreshold returns the configured fake-vote threshold
func (s *PollService) FakeThreshold() int {
	return s.fakeThreshold
}

// CastVote records the caller's poll choice, replacing any earlier one. The
// reporter voting "resolved" resolves the report at once; reaching the fake
// threshold marks it fake and restricts the reporter. Closed reports refuse
// votes without being touched.
func (s *PollService) CastVote(ctx context.Context, actor Actor, reportID, rawChoice string) (*model.VoteResult, error) {
	choice := model.PollChoice(rawChoice)
	if !choice.IsValid() {
		return nil, ErrInvalidPollChoice
	}

	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report == nil || !report.IsActive {
		return nil, ErrReportNotFound
	}
	if report.IsTerminal() {
		return nil, ErrReportTerminal
	}

	selfResolve := choice == model.PollResolved && report.ReportedBy == actor.UserID

	updated, err := s.reports.CastPollVote(ctx, reportID, actor.UserID, choice, selfResolve, s.fakeThreshold)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Closed between the read and the update
		return nil, ErrReportTerminal
	}
	s.metrics.PollVote(string(choice))

	result := &model.VoteResult{
		ReportID:     reportID,
		Choice:       choice,
		Tally:        updated.Poll.PollTally,
		Status:       updated.Status,
		SelfResolved: selfResolve && updated.Status == model.ReportStatusResolved,
		MarkedFake:   updated.Status == model.ReportStatusFake,
	}

	if updated.IsTerminal() {
		s.metrics.StatusTransition(string(model.PathCommunity), string(updated.Status))
		slog.Info("report closed by poll",
			slog.String("report_id", reportID),
			slog.String("status", string(updated.Status)),
			slog.String("voter_id", actor.UserID),
		)
	}
	if result.MarkedFake && s.restrictions != nil {
		if _, err := s.restrictions.RestrictForFakeReport(ctx, updated); err != nil {
			slog.Warn("restricting reporter failed",
				slog.String("report_id", reportID),
				slog.String("error", err.Error()),
			)
		}
	}
	if updated.IsTerminal() {
		s.points.refreshAfter(ctx, updated)
	}
	return result, nil
}
