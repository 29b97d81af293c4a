package handler

import (
	"context"
	"net/http"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/service"
)

// UserOperations is the account behaviour the handler needs
type UserOperations interface {
	Me(ctx context.Context, actor service.Actor) (*model.User, error)
	Leaderboard(ctx context.Context, limit int) ([]model.UserSummary, error)
	SetRole(ctx context.Context, actor service.Actor, userID string, req *model.UpdateRoleRequest) (*model.User, error)
	UpdateProvider(ctx context.Context, actor service.Actor, req *model.UpdateProviderRequest) (*model.User, error)
}

// PointsRecalculator recomputes stored gamification values
type PointsRecalculator interface {
	RecalculateUser(ctx context.Context, userID string) (*model.Score, error)
	RecalculateAll(ctx context.Context) (*model.RecalculateResult, error)
}

// UserHandler handles user and leaderboard requests
type UserHandler struct {
	users  UserOperations
	points PointsRecalculator
}

// UserHandlerConfig holds dependencies for the user handler
type UserHandlerConfig struct {
	Users  UserOperations
	Points PointsRecalculator
}

// NewUserHandler creates a new user handler
func NewUserHandler(cfg UserHandlerConfig) *UserHandler {
	return &UserHandler{users: cfg.Users, points: cfg.Points}
}

// Me handles GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	user, err := h.users.Me(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "get current user")
		return
	}
	WriteData(w, http.StatusOK, user, map[string]string{"reports": "/api/reports/my-reports"})
}

// UpdateProvider handles PATCH /api/users/me/provider
func (h *UserHandler) UpdateProvider(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req model.UpdateProviderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.users.UpdateProvider(r.Context(), actor, &req)
	if err != nil {
		writeServiceError(w, r, err, "update provider profile")
		return
	}
	WriteData(w, http.StatusOK, user, nil)
}

// Leaderboard handles GET /api/users/leaderboard?limit=
func (h *UserHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	limit := q.int("limit", 0)
	if !q.check(w) {
		return
	}

	users, err := h.users.Leaderboard(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err, "leaderboard")
		return
	}
	WriteCollection(w, http.StatusOK, users, nil, nil)
}

// SetRole handles PATCH /api/users/{userId}/role (admin)
func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req model.UpdateRoleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.users.SetRole(r.Context(), actor, r.PathValue("userId"), &req)
	if err != nil {
		writeServiceError(w, r, err, "set user role")
		return
	}
	WriteData(w, http.StatusOK, user, nil)
}

// RecalculateAll handles POST /api/users/recalculate-points (admin)
func (h *UserHandler) RecalculateAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.points.RecalculateAll(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "recalculate points")
		return
	}
	WriteData(w, http.StatusOK, result, nil)
}

// RecalculateUser handles POST /api/users/{userId}/recalculate-points (admin)
func (h *UserHandler) RecalculateUser(w http.ResponseWriter, r *http.Request) {
	score, err := h.points.RecalculateUser(r.Context(), r.PathValue("userId"))
	if err != nil {
		writeServiceError(w, r, err, "recalculate user points")
		return
	}
	WriteData(w, http.StatusOK, score, nil)
}
