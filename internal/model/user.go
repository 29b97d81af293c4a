package model

import "time"

// UserRole represents the role of a user in the system
type UserRole string

const (
	UserRoleCitizen         UserRole = "citizen"          // Default role, files reports
	UserRolePolice          UserRole = "police"           // Authority: verifies and rejects reports
	UserRoleMunicipal       UserRole = "municipal"        // Authority: verifies and rejects reports
	UserRoleServiceProvider UserRole = "service_provider" // Responds to service requests
	UserRoleAdmin           UserRole = "admin"            // Full access
)

// IsValid reports whether r is a known role
func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleCitizen, UserRolePolice, UserRoleMunicipal, UserRoleServiceProvider, UserRoleAdmin:
		return true
	}
	return false
}

// IsAuthority reports whether the role may verify or reject reports
func (r UserRole) IsAuthority() bool {
	return r == UserRolePolice || r == UserRoleMunicipal || r == UserRoleAdmin
}

// User represents an account
type User struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Phone *string  `json:"phone,omitempty"`
	Hash  *string  `json:"-"` // Never expose password hash
	Role  UserRole `json:"role"`
	Gamification
	Restriction
	Provider  *ProviderProfile `json:"provider,omitempty"`
	CreatedOn time.Time        `json:"created_on"`
	UpdatedOn time.Time        `json:"updated_on"`
}

// Gamification is the derived scoring state of a citizen. Every field is
// recomputed from the citizen's reports; none is a running counter.
type Gamification struct {
	Points          int        `json:"points"`
	Badge           Badge      `json:"badge"`
	Level           int        `json:"level"`
	Streak          int        `json:"streak"`
	ReportsCount    int        `json:"reports_count"`
	PointsUpdatedOn *time.Time `json:"points_updated_on,omitempty"`
}

// Restriction is a temporary ban from filing reports
type Restriction struct {
	IsRestrictedFromReporting bool       `json:"is_restricted_from_reporting"`
	RestrictionStartDate      *time.Time `json:"restriction_start_date,omitempty"`
	RestrictionEndDate        *time.Time `json:"restriction_end_date,omitempty"`
	RestrictionReason         *string    `json:"restriction_reason,omitempty"`
}

// IsActiveAt reports whether the restriction still applies at now
func (r Restriction) IsActiveAt(now time.Time) bool {
	if !r.IsRestrictedFromReporting {
		return false
	}
	if r.RestrictionEndDate == nil {
		return true
	}
	return now.Before(*r.RestrictionEndDate)
}

// IsExpiredAt reports whether a restriction is set but its end date has passed
func (r Restriction) IsExpiredAt(now time.Time) bool {
	return r.IsRestrictedFromReporting && r.RestrictionEndDate != nil && !now.Before(*r.RestrictionEndDate)
}

// ProviderProfile holds the fields a service provider uses for matching
type ProviderProfile struct {
	ServiceType ServiceType `json:"service_type"`
	Location    *GeoPoint   `json:"location,omitempty"`
	IsAvailable bool        `json:"is_available"`
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// CanReport reports whether the user may file a new report at now
func (u *User) CanReport(now time.Time) bool {
	return !u.Restriction.IsActiveAt(now)
}

// UserSummary is the public view used in leaderboards
type UserSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Points       int    `json:"points"`
	Badge        Badge  `json:"badge"`
	Level        int    `json:"level"`
	ReportsCount int    `json:"reports_count"`
}

// Summary returns the leaderboard view of the user
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:           u.ID,
		Name:         u.Name,
		Points:       u.Points,
		Badge:        u.Badge,
		Level:        u.Level,
		ReportsCount: u.ReportsCount,
	}
}

// Request DTOs

// RegisterRequest starts an email-verified registration
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email,max=254"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	Name     string  `json:"name" validate:"required,min=2,max=100"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,e164"`
	Role     string  `json:"role,omitempty" validate:"omitempty,oneof=citizen service_provider"`
}

// VerifyRegistrationRequest completes a registration with the emailed code
type VerifyRegistrationRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// LoginRequest authenticates with email and password
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateRoleRequest changes a user's role (admin only)
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=citizen police municipal service_provider admin"`
}

// UpdateProviderRequest sets a service provider's matching profile
type UpdateProviderRequest struct {
	ServiceType string    `json:"service_type" validate:"required,service_type"`
	Location    *GeoPoint `json:"location" validate:"required"`
	IsAvailable bool      `json:"is_available"`
}

// AuthResult is returned by login and registration verification
type AuthResult struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// PendingRegistration is held in the expiring cache until the emailed code is confirmed
type PendingRegistration struct {
	Email     string
	Name      string
	Phone     *string
	Role      UserRole
	Hash      string
	CodeHash  string
	Attempts  int
	ExpiresAt time.Time
}
