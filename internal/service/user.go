package service

import (
	"context"
	"log/slog"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
)

// DefaultLeaderboardSize is the number of citizens shown when no limit is given
const DefaultLeaderboardSize = 10

// UserStore defines the user storage needed for profile operations
type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	SetRole(ctx context.Context, userID string, role model.UserRole) (*model.User, error)
	Leaderboard(ctx context.Context, limit int) ([]*model.User, error)
	UpdateProvider(ctx context.Context, userID string, profile model.ProviderProfile) (*model.User, error)
}

// UserService handles profile, role and leaderboard operations
type UserService struct {
	users UserStore
}

// NewUserService creates a new user service
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// Me returns the caller's own account
func (s *UserService) Me(ctx context.Context, actor Actor) (*model.User, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	user.Hash = nil
	return user, nil
}

// Leaderboard returns the top citizens by points
func (s *UserService) Leaderboard(ctx context.Context, limit int) ([]model.UserSummary, error) {
	if limit <= 0 || limit > model.MaxReportListLimit {
		limit = DefaultLeaderboardSize
	}
	users, err := s.users.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]model.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out, nil
}

// SetRole changes another user's role. Admin only.
func (s *UserService) SetRole(ctx context.Context, actor Actor, userID string, req *model.UpdateRoleRequest) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if errs := model.Validate(req); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	user, err := s.users.SetRole(ctx, userID, model.UserRole(req.Role))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	slog.Info("user role changed",
		slog.String("user_id", userID),
		slog.String("role", req.Role),
		slog.String("admin_id", actor.UserID),
	)
	user.Hash = nil
	return user, nil
}

// UpdateProvider sets the caller's service type, location and availability
func (s *UserService) UpdateProvider(ctx context.Context, actor Actor, req *model.UpdateProviderRequest) (*model.User, error) {
	if actor.Role != model.UserRoleServiceProvider {
		return nil, ErrRoleNotProvider
	}
	if errs := model.Validate(req); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}
	if !req.Location.InRange() {
		return nil, ErrInvalidCoordinates
	}

	user, err := s.users.UpdateProvider(ctx, actor.UserID, model.ProviderProfile{
		ServiceType: model.ServiceType(req.ServiceType),
		Location:    req.Location,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	user.Hash = nil
	return user, nil
}
