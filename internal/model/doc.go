// Package model defines domain entities and data structures for the Raasta Sathi API.
//
// The model package contains the struct definitions for domain objects, request/response
// types, and error definitions. Models are used across all layers of the application.
//
// # Domain Entities
//
// Core domain entities include:
//
//   - Report: A geotagged road incident with a status, a community poll, and engagement counters
//   - User: A citizen, authority, or service provider account with gamification and restriction state
//   - Comment: A remark on a report, optionally replying to another comment
//   - ServiceRequest: A citizen's call for roadside help, matched to nearby providers
//
// # Report Status
//
// ReportStatus is the single status vocabulary. Legacy lowercase values from the
// authority workflow are accepted through ParseReportStatus:
//
//	st, ok := model.ParseReportStatus("pending") // ReportStatusActive, true
//
// Transitions are checked per path (authority, manual, community, scheduler):
//
//	model.ReportStatusActive.CanTransitionTo(model.ReportStatusVerified, model.PathAuthority)
//
// # Validation
//
// Request DTOs carry validate tags and expose Validate() []FieldError, backed by
// go-playground/validator with the report_type, severity, poll_choice and
// service_type rules registered.
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go:
//
//	type ProblemDetails struct {
//	    Type    string    `json:"type"`
//	    Title   string    `json:"title"`
//	    Status  int       `json:"status"`
//	    Detail  string    `json:"detail"`
//	}
package model
