// Package middleware provides HTTP middleware for the Raasta Sathi API.
//
// # Available Middleware
//
//   - RequestID, Logger, Recovery, CORS, Compress: applied to every request
//   - Instrument: Prometheus request metrics for one route pattern
//   - Auth, OptionalAuth: bearer token validation
//   - RequireRole, AdminOnly: role gates, applied after Auth
//   - RateLimit: token bucket per caller on report and vote writes
//   - Idempotency: replays POST and PATCH responses for a repeated Idempotency-Key
//
// # Authentication
//
//	protected := middleware.Chain(handler, middleware.Auth(jwtService))
//	authority := middleware.Chain(handler,
//		middleware.Auth(jwtService),
//		middleware.RequireRole(model.UserRolePolice, model.UserRoleMunicipal, model.UserRoleAdmin),
//	)
//
// # Context Values
//
//   - GetUserID(ctx): authenticated user ID
//   - GetUserRole(ctx): authenticated user's role
//   - GetClaims(ctx): full token claims
//   - GetRequestID(ctx): unique request identifier
package middleware
