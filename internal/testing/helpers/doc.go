// Package helpers provides test utilities for end-to-end API tests.
//
// # JWT Helpers
//
// Mint tokens with an in-memory key and wire the same key into the router:
//
//	jwtHelper := helpers.NewJWTHelper(t)
//	auth := middleware.Auth(jwtHelper.Service())
//	token := jwtHelper.GenerateToken(citizen)
//
// # Request Builders
//
// JSON and multipart requests, optionally authenticated:
//
//	req := helpers.NewRequest(t, http.MethodPost, "/api/reports").
//	    WithAuth(jwtHelper, citizen).
//	    WithFormField("type", "pothole").
//	    WithPhoto(pngBytes).
//	    Build()
//
// # Assertion Helpers
//
//	helpers.AssertProblemDetails(t, rr, http.StatusForbidden, model.ErrCodeRestricted)
//	helpers.AssertValidationError(t, rr, "location")
//	helpers.AssertRecordNotExists(t, db, "report", reportID)
package helpers
