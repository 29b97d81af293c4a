package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/metrics"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
)

// ReportStore defines the interface for report data access
type ReportStore interface {
	Create(ctx context.Context, report *model.Report) error
	GetByID(ctx context.Context, id string) (*model.Report, error)
	List(ctx context.Context, filter model.ReportFilter) ([]*model.Report, error)
	ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*model.Report, error)
	ListInBoundingBox(ctx context.Context, box model.BoundingBox, openOnly bool, limit int) ([]*model.Report, error)
	Transition(ctx context.Context, change model.StatusChange) (*model.Report, error)
	RecordView(ctx context.Context, reportID, userID string) (bool, error)
	ToggleLike(ctx context.Context, reportID, userID string) (*model.LikeResult, error)
	SetThumb(ctx context.Context, reportID, userID string, direction model.ThumbDirection) (*model.ThumbCounts, error)
	SoftDelete(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
}

// UserLookup reads users by ID
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID string
	Role   model.UserRole
}

// IsAdmin reports whether the caller is an admin
func (a Actor) IsAdmin() bool {
	return a.Role == model.UserRoleAdmin
}

// IsAuthority reports whether the caller may verify or reject reports
func (a Actor) IsAuthority() bool {
	return a.Role.IsAuthority()
}

// maxNearbyCandidates caps the nearest-first bounding-box candidates before
// exact ranking. It stays well above MaxNearbyLimit.
const maxNearbyCandidates = 500

// ReportService handles report lifecycle operations outside the poll
type ReportService struct {
	reports      ReportStore
	users        UserLookup
	geo          *GeoService
	points       *PointsService
	restrictions *RestrictionService
	metrics      *metrics.Metrics
	now          func() time.Time
}

// ReportServiceConfig holds configuration for the report service
type ReportServiceConfig struct {
	Reports      ReportStore
	Users        UserLookup
	Geo          *GeoService
	Points       *PointsService
	Restrictions *RestrictionService
	Metrics      *metrics.Metrics
}

// NewReportService creates a new report service
func NewReportService(cfg ReportServiceConfig) *ReportService {
	if cfg.Geo == nil {
		cfg.Geo = NewGeoService()
	}
	return &ReportService{
		reports:      cfg.Reports,
		users:        cfg.Users,
		geo:          cfg.Geo,
		points:       cfg.Points,
		restrictions: cfg.Restrictions,
		metrics:      cfg.Metrics,
		now:          time.Now,
	}
}

// ============================================================================
// Create and read
// ============================================================================

// Create files a new Active report. Restricted users are refused with a
// problem carrying the restriction end date.
func (s *ReportService) Create(ctx context.Context, actor Actor, req *model.CreateReportRequest) (*model.Report, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.CanReport(s.now()) {
		reason := ""
		if user.RestrictionReason != nil {
			reason = *user.RestrictionReason
		}
		return nil, model.NewRestrictedError(reason, user.RestrictionEndDate)
	}

	report := &model.Report{
		Type:        model.ReportType(req.Type),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Location:    req.Location,
		Severity:    model.Severity(req.Severity),
		ReportedBy:  actor.UserID,
		Photos:      req.Photos,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	slog.Info("report created",
		slog.String("report_id", report.ID),
		slog.String("type", string(report.Type)),
		slog.String("user_id", actor.UserID),
	)
	s.points.refreshAfter(ctx, report)
	return report, nil
}

// List returns active reports matching the filter
func (s *ReportService) List(ctx context.Context, filter model.ReportFilter) ([]*model.Report, error) {
	filter.Normalize()
	return s.reports.List(ctx, filter)
}

// Get returns a report. When viewerID is set the viewer is counted once.
func (s *ReportService) Get(ctx context.Context, id, viewerID string) (*model.Report, error) {
	report, err := s.getActive(ctx, id)
	if err != nil {
		return nil, err
	}

	if viewerID != "" {
		counted, err := s.reports.RecordView(ctx, id, viewerID)
		if err != nil {
			slog.Warn("view count failed", slog.String("report_id", id), slog.String("error", err.Error()))
		} else if counted {
			report.Views++
		}
	}
	return report, nil
}

// Mine returns the caller's own reports, newest first
func (s *ReportService) Mine(ctx context.Context, actor Actor, limit, offset int) ([]*model.Report, error) {
	if limit <= 0 || limit > model.MaxReportListLimit {
		limit = model.DefaultReportListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.reports.ListByAuthor(ctx, actor.UserID, limit, offset)
}

// NearbyQuery describes a radius search around a point
type NearbyQuery struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
	Limit    int
	OpenOnly bool
}

// Nearby returns reports within the radius, nearest first
func (s *ReportService) Nearby(ctx context.Context, q NearbyQuery) ([]model.ReportWithDistance, error) {
	if q.RadiusKm == 0 {
		q.RadiusKm = DefaultSearchRadiusKm
	}
	if q.RadiusKm > MaxSearchRadiusKm {
		q.RadiusKm = MaxSearchRadiusKm
	}
	if q.Limit <= 0 {
		q.Limit = DefaultNearbyLimit
	}
	if q.Limit > MaxNearbyLimit {
		q.Limit = MaxNearbyLimit
	}
	if err := s.geo.ValidateCenter(q.Lat, q.Lng, q.RadiusKm); err != nil {
		return nil, err
	}

	box := s.geo.GetBoundingBox(q.Lat, q.Lng, q.RadiusKm)
	candidates, err := s.reports.ListInBoundingBox(ctx, box, q.OpenOnly, maxNearbyCandidates)
	if err != nil {
		return nil, err
	}
	return s.geo.RankByDistance(q.Lat, q.Lng, q.RadiusKm, candidates, q.Limit), nil
}

// NotificationFeed returns the closest open reports within the feed radius
func (s *ReportService) NotificationFeed(ctx context.Context, lat, lng float64) ([]model.ReportWithDistance, error) {
	return s.Nearby(ctx, NearbyQuery{
		Lat:      lat,
		Lng:      lng,
		RadiusKm: model.NotificationFeedRadiusKm,
		Limit:    model.NotificationFeedLimit,
		OpenOnly: true,
	})
}

// ============================================================================
// Status changes
// ============================================================================

// UpdateStatus applies a manual status change by the reporter or an admin.
// An admin marking someone else's report fake restricts its author.
func (s *ReportService) UpdateStatus(ctx context.Context, actor Actor, reportID string, req *model.UpdateStatusRequest) (*model.Report, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}
	target := model.ReportStatus(req.Status)

	report, err := s.getActive(ctx, reportID)
	if err != nil {
		return nil, err
	}
	isOwner := report.ReportedBy == actor.UserID
	if !isOwner && !actor.IsAdmin() {
		return nil, ErrNotReportOwner
	}
	if report.IsTerminal() {
		return nil, ErrReportTerminal
	}
	if !report.Status.CanTransitionTo(target, model.PathManual) {
		return nil, ErrInvalidTransition
	}
	if target == report.Status {
		return report, nil
	}

	updated, err := s.transition(ctx, model.StatusChange{
		ReportID: reportID,
		From:     model.OpenStatuses(),
		To:       target,
		ActorID:  actor.UserID,
		Reason:   req.Reason,
	}, model.PathManual)
	if err != nil {
		return nil, err
	}

	if target == model.ReportStatusFake && !isOwner && s.restrictions != nil {
		if _, err := s.restrictions.RestrictForFakeReport(ctx, updated); err != nil {
			slog.Warn("restricting reporter failed",
				slog.String("report_id", reportID),
				slog.String("error", err.Error()),
			)
		}
	}
	return updated, nil
}

// Verify confirms an Active report on behalf of an authority
func (s *ReportService) Verify(ctx context.Context, actor Actor, reportID string) (*model.Report, error) {
	return s.authorityTransition(ctx, actor, reportID, model.ReportStatusVerified, nil)
}

// Reject closes an open report as not genuine on behalf of an authority
func (s *ReportService) Reject(ctx context.Context, actor Actor, reportID string, reason *string) (*model.Report, error) {
	return s.authorityTransition(ctx, actor, reportID, model.ReportStatusRejected, reason)
}

func (s *ReportService) authorityTransition(ctx context.Context, actor Actor, reportID string, target model.ReportStatus, reason *string) (*model.Report, error) {
	if !actor.IsAuthority() {
		return nil, ErrNotAuthority
	}

	report, err := s.getActive(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.IsTerminal() {
		return nil, ErrReportTerminal
	}
	if !report.Status.CanTransitionTo(target, model.PathAuthority) {
		return nil, ErrInvalidTransition
	}

	return s.transition(ctx, model.StatusChange{
		ReportID: reportID,
		From:     []model.ReportStatus{report.Status},
		To:       target,
		ActorID:  actor.UserID,
		Reason:   reason,
	}, model.PathAuthority)
}

// transition applies a guarded change. A guard miss means another writer moved
// the report first; the caller gets the error matching the current state.
func (s *ReportService) transition(ctx context.Context, change model.StatusChange, path model.TransitionPath) (*model.Report, error) {
	updated, err := s.reports.Transition(ctx, change)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		current, err := s.getActive(ctx, change.ReportID)
		if err != nil {
			return nil, err
		}
		if current.IsTerminal() {
			return nil, ErrReportTerminal
		}
		return nil, ErrInvalidTransition
	}

	s.metrics.StatusTransition(string(path), string(change.To))
	slog.Info("report status changed",
		slog.String("report_id", change.ReportID),
		slog.String("status", string(change.To)),
		slog.String("path", string(path)),
		slog.String("actor_id", change.ActorID),
	)
	if updated.IsTerminal() {
		s.points.refreshAfter(ctx, updated)
	}
	return updated, nil
}

// ============================================================================
// Delete and engagement
// ============================================================================

// Delete hides a report (owner or admin). A hard delete removes it with every
// like, view, thumb and comment and is admin only.
func (s *ReportService) Delete(ctx context.Context, actor Actor, reportID string, hard bool) error {
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return err
	}
	if report == nil || (!report.IsActive && !hard) {
		return ErrReportNotFound
	}

	if hard {
		if !actor.IsAdmin() {
			return ErrForbidden
		}
		err = s.reports.HardDelete(ctx, reportID)
	} else {
		if report.ReportedBy != actor.UserID && !actor.IsAdmin() {
			return ErrNotReportOwner
		}
		err = s.reports.SoftDelete(ctx, reportID)
	}
	if err != nil {
		return err
	}

	slog.Info("report deleted",
		slog.String("report_id", reportID),
		slog.String("actor_id", actor.UserID),
		slog.Bool("hard", hard),
	)
	s.points.refreshAfter(ctx, report)
	return nil
}

// ToggleLike likes the report, or removes the caller's like
func (s *ReportService) ToggleLike(ctx context.Context, actor Actor, reportID string) (*model.LikeResult, error) {
	if _, err := s.getActive(ctx, reportID); err != nil {
		return nil, err
	}
	return s.reports.ToggleLike(ctx, reportID, actor.UserID)
}

// Thumb records the caller's up or down vote
func (s *ReportService) Thumb(ctx context.Context, actor Actor, reportID string, req *model.ThumbRequest) (*model.ThumbCounts, error) {
	if errs := model.Validate(req); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}
	if _, err := s.getActive(ctx, reportID); err != nil {
		return nil, err
	}
	return s.reports.SetThumb(ctx, reportID, actor.UserID, model.ThumbDirection(req.Direction))
}

func (s *ReportService) getActive(ctx context.Context, id string) (*model.Report, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil || !report.IsActive {
		return nil, ErrReportNotFound
	}
	return report, nil
}
