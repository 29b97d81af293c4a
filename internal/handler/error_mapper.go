package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/database"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/service"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/storage"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	// Services may return a ready-made problem (validation, restriction)
	var problem *model.ProblemDetails
	if errors.As(err, &problem) {
		return problem
	}

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrInvalidCredentials):
		return model.NewUnauthorizedError(err.Error())

	// ===== Registration Errors → 400 =====
	case errors.Is(err, service.ErrRegistrationNotFound),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrTooManyAttempts),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrPasswordTooLong),
		errors.Is(err, service.ErrInvalidEmail):
		return model.NewBadRequestError(err.Error())

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrNotAuthority),
		errors.Is(err, service.ErrNotReportOwner),
		errors.Is(err, service.ErrNotCommentAuthor),
		errors.Is(err, service.ErrNotServiceParticipant),
		errors.Is(err, service.ErrRoleNotProvider),
		errors.Is(err, service.ErrProviderMismatch):
		return model.NewForbiddenError(err.Error())

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	case errors.Is(err, service.ErrReportNotFound):
		return model.NewNotFoundError("report")
	case errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrCommentWrongReport):
		return model.NewNotFoundError("comment")
	case errors.Is(err, service.ErrServiceRequestNotFound):
		return model.NewNotFoundError("service request")
	case errors.Is(err, service.ErrUnknownSweep):
		return model.NewNotFoundError("sweep")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrEmailAlreadyExists),
		errors.Is(err, database.ErrDuplicate):
		return model.NewConflictError(err.Error())
	case errors.Is(err, service.ErrServiceRequestTaken):
		return model.NewConflictError(err.Error())

	// ===== State Errors → 400 =====
	case errors.Is(err, service.ErrReportTerminal),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInvalidServiceTransition),
		errors.Is(err, service.ErrNestedReply):
		return model.NewInvalidStateError(err.Error())

	// ===== Input Errors → 400 =====
	case errors.Is(err, service.ErrInvalidPollChoice):
		return model.NewBadRequestError(err.Error())
	case errors.Is(err, service.ErrInvalidCoordinates),
		errors.Is(err, service.ErrInvalidRadius),
		errors.Is(err, service.ErrInvalidRole):
		return model.NewValidationError([]model.FieldError{{Field: "query", Message: err.Error()}})
	case errors.Is(err, service.ErrTooManyPhotos),
		errors.Is(err, storage.ErrUnsupportedType),
		errors.Is(err, storage.ErrTooLarge),
		errors.Is(err, storage.ErrEmpty):
		return model.NewValidationError([]model.FieldError{{Field: "photos", Message: err.Error()}})

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext converts a service error to a ProblemDetails response
// with additional context about the operation that failed.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == http.StatusInternalServerError {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}

// writeServiceError maps err and writes it, logging unexpected failures
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	pd := MapServiceErrorWithContext(err, operation)
	if pd.Status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), operation+" failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	WriteError(w, pd)
}
