package service

import "errors"

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Authentication Errors =====
var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrEmailAlreadyExists   = errors.New("email already registered")
	ErrUserNotFound         = errors.New("user not found")
	ErrPasswordTooShort     = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong      = errors.New("password must be at most 128 characters")
	ErrInvalidEmail         = errors.New("invalid email format")
	ErrRegistrationNotFound = errors.New("no pending registration for this email, or it has expired")
	ErrInvalidCode          = errors.New("invalid verification code")
	ErrTooManyAttempts      = errors.New("too many verification attempts")
)

// ===== Authorization Errors =====
var (
	ErrForbidden       = errors.New("not authorized to perform this action")
	ErrNotAuthority    = errors.New("only police, municipal or admin users can do this")
	ErrNotReportOwner  = errors.New("only the reporter or an admin can do this")
	ErrInvalidRole     = errors.New("invalid role")
	ErrRoleNotProvider = errors.New("only service providers have a provider profile")
)

// ===== Report Errors =====
var (
	ErrReportNotFound     = errors.New("report not found")
	ErrReportTerminal     = errors.New("report is closed and can no longer change")
	ErrInvalidTransition  = errors.New("status change not allowed from the current status")
	ErrInvalidPollChoice  = errors.New("choice must be one of stillThere, resolved, fake")
	ErrInvalidCoordinates = errors.New("latitude must be within [-90, 90] and longitude within [-180, 180]")
	ErrInvalidRadius      = errors.New("radius must be positive")
	ErrTooManyPhotos      = errors.New("too many photos")
)

// ===== Comment Errors =====
var (
	ErrCommentNotFound    = errors.New("comment not found")
	ErrNotCommentAuthor   = errors.New("only the author can change this comment")
	ErrNestedReply        = errors.New("replies cannot be nested")
	ErrCommentWrongReport = errors.New("comment does not belong to this report")
)

// ===== Service Request Errors =====
var (
	ErrServiceRequestNotFound   = errors.New("service request not found")
	ErrServiceRequestTaken      = errors.New("service request was updated by someone else")
	ErrInvalidServiceTransition = errors.New("service request status change not allowed")
	ErrNotServiceParticipant    = errors.New("not the requester or assigned provider")
	ErrProviderMismatch         = errors.New("provider does not offer this service type")
)

// ===== Scheduler Errors =====
var (
	ErrUnknownSweep = errors.New("unknown sweep")
)
