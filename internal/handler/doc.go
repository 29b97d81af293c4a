// Package handler provides HTTP request handlers for the Raasta Sathi API.
//
// Each handler struct wraps the service behaviour it needs through a small
// interface declared here, so tests can substitute function-field mocks.
//
// # Handler Pattern
//
//   - Constructor function (NewXxxHandler) accepts its dependencies or a config struct
//   - Methods serve one endpoint each and read path values with r.PathValue
//   - Response helpers from response.go standardize output format
//   - Service errors go through MapServiceError into RFC 9457 Problem Details
//
// # Response Format
//
//   - WriteData: Single resource with optional HATEOAS links
//   - WriteCollection: List of resources with offset pagination
//   - WriteJSON: Raw JSON response
//   - WriteError: RFC 9457 Problem Details error response
//
// # Authentication
//
// Routes are wrapped with middleware.Auth or middleware.OptionalAuth in
// cmd/server. Handlers turn the context values into a service.Actor and
// answer 401 when a protected endpoint is reached without one.
//
// # Example Usage
//
//	reports := handler.NewReportHandler(handler.ReportHandlerConfig{
//	    Reports: reportService,
//	    Polls:   pollService,
//	    Photos:  photoStore,
//	})
//	mux.HandleFunc("GET /api/reports", reports.List)
package handler
