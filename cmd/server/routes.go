package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/handler"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/metrics"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/middleware"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
)

type routeDeps struct {
	metrics     *metrics.Metrics
	auth        middleware.Middleware
	optional    middleware.Middleware
	limiter     *middleware.RateLimiter
	authLimiter *middleware.RateLimiter
	idempotency *middleware.IdempotencyStore

	health          *handler.HealthHandler
	authH           *handler.AuthHandler
	reports         *handler.ReportHandler
	comments        *handler.CommentHandler
	users           *handler.UserHandler
	serviceRequests *handler.ServiceRequestHandler
}

// registerRoutes mounts the API. Every route is instrumented under its own
// pattern so metrics carry the route template, not the raw path.
func registerRoutes(mux *http.ServeMux, d routeDeps) {
	route := func(pattern string, h http.HandlerFunc, mws ...middleware.Middleware) {
		chain := append([]middleware.Middleware{middleware.Instrument(d.metrics, pattern)}, mws...)
		mux.Handle(pattern, middleware.Chain(h, chain...))
	}

	authority := middleware.RequireRole(model.UserRolePolice, model.UserRoleMunicipal, model.UserRoleAdmin)
	admin := middleware.RequireRole(model.UserRoleAdmin)
	limited := middleware.RateLimit(d.limiter)
	throttled := middleware.RateLimit(d.authLimiter)
	idempotent := middleware.Idempotency(d.idempotency)

	// Health check
	route("GET /health", d.health.Health)

	// Auth endpoints (public)
	route("POST /api/auth/register", d.authH.Register, throttled)
	route("POST /api/auth/register/verify", d.authH.VerifyRegistration, throttled)
	route("POST /api/auth/login", d.authH.Login, throttled)

	// Reports
	route("GET /api/reports", d.reports.List)
	route("POST /api/reports", d.reports.Create, d.auth, limited, idempotent)
	route("GET /api/reports/my-reports", d.reports.Mine, d.auth)
	route("GET /api/reports/nearby", d.reports.Nearby)
	route("GET /api/reports/feed", d.reports.Feed)
	route("GET /api/reports/{id}", d.reports.Get, d.optional)
	route("DELETE /api/reports/{id}", d.reports.Delete, d.auth)
	route("POST /api/reports/{id}/vote", d.reports.Vote, d.auth, limited)
	route("PUT /api/reports/{id}/status", d.reports.UpdateStatus, d.auth)
	route("POST /api/reports/{id}/verify", d.reports.Verify, d.auth, authority)
	route("POST /api/reports/{id}/reject", d.reports.Reject, d.auth, authority)
	route("POST /api/reports/{id}/like", d.reports.Like, d.auth)
	route("POST /api/reports/{id}/thumbs", d.reports.Thumbs, d.auth)

	// Comments
	route("GET /api/reports/{id}/comments", d.comments.List)
	route("POST /api/reports/{id}/comments", d.comments.Add, d.auth, limited, idempotent)
	route("PUT /api/reports/{id}/comments/{commentId}", d.comments.Edit, d.auth)
	route("DELETE /api/reports/{id}/comments/{commentId}", d.comments.Delete, d.auth)
	route("POST /api/reports/{id}/comments/{commentId}/replies", d.comments.Reply, d.auth, limited, idempotent)
	route("POST /api/reports/{id}/comments/{commentId}/like", d.comments.Like, d.auth)
	route("POST /api/reports/{id}/comments/{commentId}/dislike", d.comments.Dislike, d.auth)

	// Users
	route("GET /api/users/me", d.users.Me, d.auth)
	route("PATCH /api/users/me/provider", d.users.UpdateProvider, d.auth)
	route("GET /api/users/leaderboard", d.users.Leaderboard)
	route("PATCH /api/users/{userId}/role", d.users.SetRole, d.auth, admin)
	route("POST /api/users/recalculate-points", d.users.RecalculateAll, d.auth, admin)
	route("POST /api/users/{userId}/recalculate-points", d.users.RecalculateUser, d.auth, admin)

	// Service requests
	route("POST /api/service-requests", d.serviceRequests.Create, d.auth, limited, idempotent)
	route("GET /api/service-requests/mine", d.serviceRequests.Mine, d.auth)
	route("GET /api/service-requests/nearby", d.serviceRequests.Nearby, d.auth)
	route("GET /api/service-requests/{id}", d.serviceRequests.Get, d.auth)
	route("PATCH /api/service-requests/{id}/status", d.serviceRequests.UpdateStatus, d.auth, idempotent)
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
