package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/pkg/jwt"
)

// ============================================================================
// Mock Report Repository
// ============================================================================

type mockReportRepo struct {
	createFunc             func(ctx context.Context, report *model.Report) error
	getByIDFunc            func(ctx context.Context, id string) (*model.Report, error)
	listFunc               func(ctx context.Context, filter model.ReportFilter) ([]*model.Report, error)
	listByAuthorFunc       func(ctx context.Context, authorID string, limit, offset int) ([]*model.Report, error)
	listInBoundingBoxFunc  func(ctx context.Context, box model.BoundingBox, openOnly bool, limit int) ([]*model.Report, error)
	transitionFunc         func(ctx context.Context, change model.StatusChange) (*model.Report, error)
	castPollVoteFunc       func(ctx context.Context, reportID, userID string, choice model.PollChoice, selfResolve bool, threshold int) (*model.Report, error)
	recordViewFunc         func(ctx context.Context, reportID, userID string) (bool, error)
	toggleLikeFunc         func(ctx context.Context, reportID, userID string) (*model.LikeResult, error)
	setThumbFunc           func(ctx context.Context, reportID, userID string, direction model.ThumbDirection) (*model.ThumbCounts, error)
	softDeleteFunc         func(ctx context.Context, id string) error
	hardDeleteFunc         func(ctx context.Context, id string) error
	archiveFunc            func(ctx context.Context, id string) error
	scoringHistoryFunc     func(ctx context.Context, authorID string) ([]*model.Report, error)
	listDueForExpiryFunc   func(ctx context.Context, limit int) ([]*model.Report, error)
	expireFunc             func(ctx context.Context, id string) (*model.Report, error)
	listResolvedBeforeFunc func(ctx context.Context, retention time.Duration, limit int) ([]string, error)

	mu          sync.Mutex
	transitions []model.StatusChange
}

func (m *mockReportRepo) Create(ctx context.Context, report *model.Report) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, report)
	}
	report.ID = "report:new"
	report.Status = model.ReportStatusActive
	report.IsActive = true
	return nil
}

func (m *mockReportRepo) GetByID(ctx context.Context, id string) (*model.Report, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockReportRepo) List(ctx context.Context, filter model.ReportFilter) ([]*model.Report, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockReportRepo) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*model.Report, error) {
	if m.listByAuthorFunc != nil {
		return m.listByAuthorFunc(ctx, authorID, limit, offset)
	}
	return nil, nil
}

func (m *mockReportRepo) ListScoringHistory(ctx context.Context, authorID string) ([]*model.Report, error) {
	if m.scoringHistoryFunc != nil {
		return m.scoringHistoryFunc(ctx, authorID)
	}
	return nil, nil
}

func (m *mockReportRepo) ListInBoundingBox(ctx context.Context, box model.BoundingBox, openOnly bool, limit int) ([]*model.Report, error) {
	if m.listInBoundingBoxFunc != nil {
		return m.listInBoundingBoxFunc(ctx, box, openOnly, limit)
	}
	return nil, nil
}

func (m *mockReportRepo) Transition(ctx context.Context, change model.StatusChange) (*model.Report, error) {
	m.mu.Lock()
	m.transitions = append(m.transitions, change)
	m.mu.Unlock()
	if m.transitionFunc != nil {
		return m.transitionFunc(ctx, change)
	}
	return &model.Report{ID: change.ReportID, Status: change.To, IsActive: true}, nil
}

func (m *mockReportRepo) CastPollVote(ctx context.Context, reportID, userID string, choice model.PollChoice, selfResolve bool, threshold int) (*model.Report, error) {
	if m.castPollVoteFunc != nil {
		return m.castPollVoteFunc(ctx, reportID, userID, choice, selfResolve, threshold)
	}
	return nil, nil
}

func (m *mockReportRepo) RecordView(ctx context.Context, reportID, userID string) (bool, error) {
	if m.recordViewFunc != nil {
		return m.recordViewFunc(ctx, reportID, userID)
	}
	return false, nil
}

func (m *mockReportRepo) ToggleLike(ctx context.Context, reportID, userID string) (*model.LikeResult, error) {
	if m.toggleLikeFunc != nil {
		return m.toggleLikeFunc(ctx, reportID, userID)
	}
	return &model.LikeResult{Liked: true, Likes: 1}, nil
}

func (m *mockReportRepo) SetThumb(ctx context.Context, reportID, userID string, direction model.ThumbDirection) (*model.ThumbCounts, error) {
	if m.setThumbFunc != nil {
		return m.setThumbFunc(ctx, reportID, userID, direction)
	}
	return &model.ThumbCounts{}, nil
}

func (m *mockReportRepo) SoftDelete(ctx context.Context, id string) error {
	if m.softDeleteFunc != nil {
		return m.softDeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockReportRepo) Archive(ctx context.Context, id string) error {
	if m.archiveFunc != nil {
		return m.archiveFunc(ctx, id)
	}
	return nil
}

func (m *mockReportRepo) HardDelete(ctx context.Context, id string) error {
	if m.hardDeleteFunc != nil {
		return m.hardDeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockReportRepo) ListDueForExpiry(ctx context.Context, limit int) ([]*model.Report, error) {
	if m.listDueForExpiryFunc != nil {
		return m.listDueForExpiryFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockReportRepo) Expire(ctx context.Context, id string) (*model.Report, error) {
	if m.expireFunc != nil {
		return m.expireFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockReportRepo) ListResolvedBefore(ctx context.Context, retention time.Duration, limit int) ([]string, error) {
	if m.listResolvedBeforeFunc != nil {
		return m.listResolvedBeforeFunc(ctx, retention, limit)
	}
	return nil, nil
}

func (m *mockReportRepo) transitionCalls() []model.StatusChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.StatusChange(nil), m.transitions...)
}

// ============================================================================
// Mock User Repository
// ============================================================================

type restrictionCall struct {
	userID   string
	reason   string
	duration time.Duration
}

type mockUserRepo struct {
	createFunc                  func(ctx context.Context, user *model.User) error
	getByIDFunc                 func(ctx context.Context, id string) (*model.User, error)
	getByEmailFunc              func(ctx context.Context, email string) (*model.User, error)
	setRoleFunc                 func(ctx context.Context, userID string, role model.UserRole) (*model.User, error)
	updateScoreFunc             func(ctx context.Context, userID string, score model.Score) error
	setRestrictionFunc          func(ctx context.Context, userID, reason string, duration time.Duration) (*model.User, error)
	listExpiredRestrictionsFunc func(ctx context.Context, limit int) ([]string, error)
	clearRestrictionFunc        func(ctx context.Context, userID string) (bool, error)
	listIDsByRoleFunc           func(ctx context.Context, role model.UserRole) ([]string, error)
	leaderboardFunc             func(ctx context.Context, limit int) ([]*model.User, error)
	updateProviderFunc          func(ctx context.Context, userID string, profile model.ProviderProfile) (*model.User, error)
	listProvidersFunc           func(ctx context.Context, serviceType model.ServiceType, box model.BoundingBox, limit int) ([]*model.User, error)

	mu           sync.Mutex
	scores       map[string]model.Score
	restrictions []restrictionCall
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	user.ID = "user:new"
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &model.User{ID: id, Role: model.UserRoleCitizen}, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) SetRole(ctx context.Context, userID string, role model.UserRole) (*model.User, error) {
	if m.setRoleFunc != nil {
		return m.setRoleFunc(ctx, userID, role)
	}
	return &model.User{ID: userID, Role: role}, nil
}

func (m *mockUserRepo) UpdateScore(ctx context.Context, userID string, score model.Score) error {
	m.mu.Lock()
	if m.scores == nil {
		m.scores = make(map[string]model.Score)
	}
	m.scores[userID] = score
	m.mu.Unlock()
	if m.updateScoreFunc != nil {
		return m.updateScoreFunc(ctx, userID, score)
	}
	return nil
}

func (m *mockUserRepo) SetRestriction(ctx context.Context, userID, reason string, duration time.Duration) (*model.User, error) {
	m.mu.Lock()
	m.restrictions = append(m.restrictions, restrictionCall{userID, reason, duration})
	m.mu.Unlock()
	if m.setRestrictionFunc != nil {
		return m.setRestrictionFunc(ctx, userID, reason, duration)
	}
	return &model.User{ID: userID}, nil
}

func (m *mockUserRepo) ListExpiredRestrictions(ctx context.Context, limit int) ([]string, error) {
	if m.listExpiredRestrictionsFunc != nil {
		return m.listExpiredRestrictionsFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockUserRepo) ClearRestriction(ctx context.Context, userID string) (bool, error) {
	if m.clearRestrictionFunc != nil {
		return m.clearRestrictionFunc(ctx, userID)
	}
	return true, nil
}

func (m *mockUserRepo) ListIDsByRole(ctx context.Context, role model.UserRole) ([]string, error) {
	if m.listIDsByRoleFunc != nil {
		return m.listIDsByRoleFunc(ctx, role)
	}
	return nil, nil
}

func (m *mockUserRepo) Leaderboard(ctx context.Context, limit int) ([]*model.User, error) {
	if m.leaderboardFunc != nil {
		return m.leaderboardFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockUserRepo) UpdateProvider(ctx context.Context, userID string, profile model.ProviderProfile) (*model.User, error) {
	if m.updateProviderFunc != nil {
		return m.updateProviderFunc(ctx, userID, profile)
	}
	return &model.User{ID: userID, Role: model.UserRoleServiceProvider, Provider: &profile}, nil
}

func (m *mockUserRepo) ListAvailableProviders(ctx context.Context, serviceType model.ServiceType, box model.BoundingBox, limit int) ([]*model.User, error) {
	if m.listProvidersFunc != nil {
		return m.listProvidersFunc(ctx, serviceType, box, limit)
	}
	return nil, nil
}

func (m *mockUserRepo) scoreOf(userID string) (model.Score, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scores[userID]
	return s, ok
}

func (m *mockUserRepo) restrictionCalls() []restrictionCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]restrictionCall(nil), m.restrictions...)
}

// ============================================================================
// Shared Helpers
// ============================================================================

var (
	citizen = Actor{UserID: "user:reporter", Role: model.UserRoleCitizen}
	other   = Actor{UserID: "user:other", Role: model.UserRoleCitizen}
	police  = Actor{UserID: "user:police", Role: model.UserRolePolice}
	admin   = Actor{UserID: "user:admin", Role: model.UserRoleAdmin}
)

func activeReport(id string) *model.Report {
	return &model.Report{
		ID:         id,
		Type:       model.ReportTypeAccident,
		Status:     model.ReportStatusActive,
		ReportedBy: citizen.UserID,
		IsActive:   true,
		Poll:       model.Poll{Votes: []model.PollVote{}},
	}
}

func reportWithStatus(id string, status model.ReportStatus) *model.Report {
	r := activeReport(id)
	r.Status = status
	return r
}

func reportAt(id string, lat, lng float64) *model.Report {
	r := activeReport(id)
	r.Location.Coordinates = &model.GeoPoint{Lat: lat, Lng: lng}
	return r
}

func fixedReport(r *model.Report) func(context.Context, string) (*model.Report, error) {
	return func(_ context.Context, id string) (*model.Report, error) {
		if id != r.ID {
			return nil, nil
		}
		cp := *r
		return &cp, nil
	}
}

var (
	jwtOnce sync.Once
	jwtKey  *rsa.PrivateKey
)

func newTestJWT(t *testing.T) *jwt.Service {
	t.Helper()
	jwtOnce.Do(func() {
		var err error
		jwtKey, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
	})
	return jwt.NewTestService(jwtKey, "raasta-test", time.Hour)
}
