// Package service implements the business logic layer for Raasta Sathi.
//
// Services hold the report lifecycle, community polls, points and badges,
// author restrictions, comments, registration, and provider matching.
// Handlers call services; services call repositories through interfaces
// declared next to the service that needs them.
//
// # Service Pattern
//
//   - Constructor function (NewXxxService) accepts a config struct with its dependencies
//   - Methods take an Actor (caller ID and role) when authorization applies
//   - Errors are package-level sentinels from errors.go, wrapped with %w for context
//   - Context is passed through for cancellation and request-scoped values
//
// # Side Effects
//
// Points refresh and fake-report restrictions run after the triggering write
// has committed. Their failures are logged and never fail the request.
//
// # Example Usage
//
//	reports := NewReportService(ReportServiceConfig{
//	    Reports:      reportRepository,
//	    Users:        userRepository,
//	    Points:       pointsService,
//	    Restrictions: restrictionService,
//	})
//	report, err := reports.Create(ctx, actor, &model.CreateReportRequest{...})
package service
