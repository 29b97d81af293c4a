package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/database"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// Factory creates test entities in the database
type Factory struct {
	db      database.Database
	users   *repository.UserRepository
	reports *repository.ReportRepository
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{
		db:      db,
		users:   repository.NewUserRepository(db),
		reports: repository.NewReportRepository(db),
	}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// ============================================================================
// User Fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	Email    string
	Name     string
	Password string
	Role     model.UserRole
}

// CreateUser creates a user with optional customizations
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	o := &UserOpts{
		Email:    fmt.Sprintf("user_%s@test.local", randomID()),
		Name:     "Test Citizen",
		Password: "testpass123",
		Role:     model.UserRoleCitizen,
	}
	for _, fn := range opts {
		fn(o)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: failed to hash password: %v", err)
	}
	h := string(hash)

	user := &model.User{Email: o.Email, Name: o.Name, Hash: &h, Role: o.Role}
	if err := f.users.Create(ctx(t), user); err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}
	user.Hash = nil // Don't expose hash in fixture
	return user
}

// CreateAdmin creates an admin user
func (f *Factory) CreateAdmin(t *testing.T) *model.User {
	return f.CreateUser(t, func(o *UserOpts) {
		o.Role = model.UserRoleAdmin
		o.Name = "Test Admin"
	})
}

// CreatePolice creates a police authority user
func (f *Factory) CreatePolice(t *testing.T) *model.User {
	return f.CreateUser(t, func(o *UserOpts) {
		o.Role = model.UserRolePolice
		o.Name = "Test Officer"
	})
}

// CreateProvider creates an available service provider at the given point
func (f *Factory) CreateProvider(t *testing.T, serviceType model.ServiceType, at model.GeoPoint) *model.User {
	t.Helper()

	user := f.CreateUser(t, func(o *UserOpts) {
		o.Role = model.UserRoleServiceProvider
		o.Name = "Test Provider"
	})
	updated, err := f.users.UpdateProvider(ctx(t), user.ID, model.ProviderProfile{
		ServiceType: serviceType,
		Location:    &at,
		IsAvailable: true,
	})
	if err != nil || updated == nil {
		t.Fatalf("fixtures: failed to set provider profile: %v", err)
	}
	return updated
}

// ============================================================================
// Report Fixtures
// ============================================================================

// Noida Sector 62, used as the default report location
var DefaultPoint = model.GeoPoint{Lng: 77.3569, Lat: 28.6100}

// ReportOpts customizes report creation
type ReportOpts struct {
	Type     model.ReportType
	Title    string
	Severity model.Severity
	Point    *model.GeoPoint
	City     string
	Photos   []string
}

// WithReportType sets the report type
func WithReportType(rt model.ReportType) func(*ReportOpts) {
	return func(o *ReportOpts) { o.Type = rt }
}

// WithPoint sets the report coordinates
func WithPoint(p model.GeoPoint) func(*ReportOpts) {
	return func(o *ReportOpts) { o.Point = &p }
}

// WithPhotos attaches photo references
func WithPhotos(photos ...string) func(*ReportOpts) {
	return func(o *ReportOpts) { o.Photos = photos }
}

// CreateReport files an Active report authored by reporter
func (f *Factory) CreateReport(t *testing.T, reporter *model.User, opts ...func(*ReportOpts)) *model.Report {
	t.Helper()

	point := DefaultPoint
	o := &ReportOpts{
		Type:     model.ReportTypeAccident,
		Title:    "Collision near metro station",
		Severity: model.SeverityMedium,
		Point:    &point,
		City:     "Noida",
	}
	for _, fn := range opts {
		fn(o)
	}

	report := &model.Report{
		Type:     o.Type,
		Title:    o.Title,
		Severity: o.Severity,
		Location: model.Location{
			Address:     "Sector 62, Noida",
			Coordinates: o.Point,
			City:        o.City,
			Country:     "India",
		},
		ReportedBy: reporter.ID,
		Photos:     o.Photos,
	}
	if err := f.reports.Create(ctx(t), report); err != nil {
		t.Fatalf("fixtures: failed to create report: %v", err)
	}
	return report
}

// ExpireReport moves a report's deadline into the past
func (f *Factory) ExpireReport(t *testing.T, report *model.Report) {
	t.Helper()

	query := `UPDATE type::record($id) SET expires_at = time::now() - 1m`
	if err := f.db.Execute(ctx(t), query, map[string]interface{}{"id": report.ID}); err != nil {
		t.Fatalf("fixtures: failed to expire report: %v", err)
	}
}

// ResolveReportDaysAgo marks a report Resolved with a backdated resolved_at
func (f *Factory) ResolveReportDaysAgo(t *testing.T, report *model.Report, days int) {
	t.Helper()

	query := `
		UPDATE type::record($id) SET
			status = "Resolved",
			resolved_at = time::now() - type::duration($ago)
	`
	vars := map[string]interface{}{"id": report.ID, "ago": fmt.Sprintf("%dd", days)}
	if err := f.db.Execute(ctx(t), query, vars); err != nil {
		t.Fatalf("fixtures: failed to resolve report: %v", err)
	}
}

// SetLegacyStatus writes a raw status value, bypassing the model vocabulary
func (f *Factory) SetLegacyStatus(t *testing.T, report *model.Report, status string) {
	t.Helper()

	query := `UPDATE type::record($id) SET status = $status`
	if err := f.db.Execute(ctx(t), query, map[string]interface{}{"id": report.ID, "status": status}); err != nil {
		t.Fatalf("fixtures: failed to set legacy status: %v", err)
	}
}

// RestrictUserUntilPast gives a user a restriction that has already lapsed
func (f *Factory) RestrictUserUntilPast(t *testing.T, user *model.User) {
	t.Helper()

	query := `
		UPDATE type::record($id) SET
			is_restricted_from_reporting = true,
			restriction_start_date = time::now() - 8d,
			restriction_end_date = time::now() - 1d,
			restriction_reason = "fixture"
	`
	if err := f.db.Execute(ctx(t), query, map[string]interface{}{"id": user.ID}); err != nil {
		t.Fatalf("fixtures: failed to restrict user: %v", err)
	}
}
