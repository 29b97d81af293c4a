package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/database"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
)

// UserRepository handles user data access
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	// Default to citizen role if not specified
	role := user.Role
	if role == "" {
		role = model.UserRoleCitizen
	}

	query := `
		CREATE user CONTENT {
			email: $email,
			name: $name,
			phone: IF $phone THEN $phone ELSE NONE END,
			hash: IF $hash THEN $hash ELSE NONE END,
			role: $role,
			points: 0,
			badge: $badge,
			level: 1,
			streak: 0,
			reports_count: 0,
			is_restricted_from_reporting: false,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"email": user.Email,
		"name":  user.Name,
		"phone": ptrToNone(user.Phone),
		"hash":  ptrToNone(user.Hash),
		"role":  role,
		"badge": model.BadgeNewReporter,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: email already exists", database.ErrDuplicate)
		}
		return err
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}

	user.ID = created.ID
	user.Role = role
	user.Badge = model.BadgeNewReporter
	user.Level = 1
	user.CreatedOn = created.CreatedOn
	user.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT * FROM user WHERE email = $email LIMIT 1`, map[string]interface{}{"email": email})
}

func (r *UserRepository) getOne(ctx context.Context, query string, vars map[string]interface{}) (*model.User, error) {
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	return parseUser(data), nil
}

// SetRole updates a user's role
func (r *UserRepository) SetRole(ctx context.Context, userID string, role model.UserRole) (*model.User, error) {
	query := `UPDATE type::record($id) SET role = $role, updated_on = time::now() RETURN AFTER`
	return r.updateOne(ctx, query, map[string]interface{}{"id": userID, "role": role})
}

// UpdateScore overwrites the derived gamification fields
func (r *UserRepository) UpdateScore(ctx context.Context, userID string, score model.Score) error {
	query := `
		UPDATE type::record($id) SET
			points = $points,
			badge = $badge,
			level = $level,
			streak = $streak,
			reports_count = $reports_count,
			points_updated_on = time::now(),
			updated_on = time::now()
	`
	vars := map[string]interface{}{
		"id":            userID,
		"points":        score.Points,
		"badge":         score.Badge,
		"level":         score.Level,
		"streak":        score.Streak,
		"reports_count": score.ReportsCount,
	}
	return r.db.Execute(ctx, query, vars)
}

// SetRestriction bars a user from reporting for the given duration
func (r *UserRepository) SetRestriction(ctx context.Context, userID, reason string, duration time.Duration) (*model.User, error) {
	query := `
		UPDATE type::record($id) SET
			is_restricted_from_reporting = true,
			restriction_start_date = time::now(),
			restriction_end_date = time::now() + type::duration($duration),
			restriction_reason = $reason,
			updated_on = time::now()
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":       userID,
		"reason":   reason,
		"duration": surrealDuration(duration),
	}
	return r.updateOne(ctx, query, vars)
}

// ListExpiredRestrictions returns IDs of users whose restriction end date has passed
func (r *UserRepository) ListExpiredRestrictions(ctx context.Context, limit int) ([]string, error) {
	query := `
		SELECT id FROM user
		WHERE is_restricted_from_reporting = true
		AND restriction_end_date != NONE
		AND restriction_end_date <= time::now()
		LIMIT $limit
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list expired restrictions: %w", err)
	}
	return collectIDs(result), nil
}

// ClearRestriction lifts a lapsed restriction. It returns false when the
// restriction was extended or already cleared.
func (r *UserRepository) ClearRestriction(ctx context.Context, userID string) (bool, error) {
	query := `
		UPDATE type::record($id) SET
			is_restricted_from_reporting = false,
			restriction_start_date = NONE,
			restriction_end_date = NONE,
			restriction_reason = NONE,
			updated_on = time::now()
		WHERE is_restricted_from_reporting = true
		AND restriction_end_date <= time::now()
		RETURN id
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"id": userID})
	if err != nil {
		return false, fmt.Errorf("failed to clear restriction: %w", err)
	}
	return lastRecord(result) != nil, nil
}

// ListIDsByRole returns the IDs of every user with the given role
func (r *UserRepository) ListIDsByRole(ctx context.Context, role model.UserRole) ([]string, error) {
	query := `SELECT id FROM user WHERE role = $role ORDER BY created_on ASC`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"role": role})
	if err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	return collectIDs(result), nil
}

// Leaderboard returns citizens ordered by points
func (r *UserRepository) Leaderboard(ctx context.Context, limit int) ([]*model.User, error) {
	query := `
		SELECT * FROM user
		WHERE role = $role
		ORDER BY points DESC, reports_count DESC
		LIMIT $limit
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"role": model.UserRoleCitizen, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return parseUsers(result), nil
}

// UpdateProvider sets a service provider's matching profile
func (r *UserRepository) UpdateProvider(ctx context.Context, userID string, profile model.ProviderProfile) (*model.User, error) {
	query := `
		UPDATE type::record($id) SET
			provider = {
				service_type: $service_type,
				location: $location,
				is_available: $is_available
			},
			updated_on = time::now()
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":           userID,
		"service_type": profile.ServiceType,
		"location":     geoPointVar(profile.Location),
		"is_available": profile.IsAvailable,
	}
	return r.updateOne(ctx, query, vars)
}

// ListAvailableProviders returns available providers of a service type inside the box, nearest first
func (r *UserRepository) ListAvailableProviders(ctx context.Context, serviceType model.ServiceType, box model.BoundingBox, limit int) ([]*model.User, error) {
	vars := map[string]interface{}{
		"role":         model.UserRoleServiceProvider,
		"service_type": serviceType,
		"limit":        limit,
	}
	rank := nearestFirst("provider.location", box, vars)
	query := `
		SELECT *, ` + rank + ` FROM user
		WHERE role = $role
		AND provider.service_type = $service_type
		AND provider.is_available = true
		AND provider.location != NONE
		AND provider.location[1] >= $min_lat AND provider.location[1] <= $max_lat
		AND provider.location[0] >= $min_lng AND provider.location[0] <= $max_lng
		ORDER BY distance_rank ASC
		LIMIT $limit
	`

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return parseUsers(result), nil
}

func (r *UserRepository) updateOne(ctx context.Context, query string, vars map[string]interface{}) (*model.User, error) {
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	data := lastRecord(result)
	if data == nil {
		return nil, nil
	}
	return parseUser(data), nil
}

// Parsing

func parseUser(data map[string]interface{}) *model.User {
	user := &model.User{
		ID:    convertSurrealID(data["id"]),
		Email: getString(data, "email"),
		Name:  getString(data, "name"),
		Phone: getStringPtr(data, "phone"),
		Hash:  getStringPtr(data, "hash"),
		Role:  model.UserRole(getString(data, "role")),
		Gamification: model.Gamification{
			Points:          getInt(data, "points"),
			Badge:           model.Badge(getString(data, "badge")),
			Level:           getInt(data, "level"),
			Streak:          getInt(data, "streak"),
			ReportsCount:    getInt(data, "reports_count"),
			PointsUpdatedOn: getTime(data, "points_updated_on"),
		},
		Restriction: model.Restriction{
			IsRestrictedFromReporting: getBool(data, "is_restricted_from_reporting"),
			RestrictionStartDate:      getTime(data, "restriction_start_date"),
			RestrictionEndDate:        getTime(data, "restriction_end_date"),
			RestrictionReason:         getStringPtr(data, "restriction_reason"),
		},
	}
	if user.Badge == "" {
		user.Badge = model.BadgeFor(user.Points)
	}
	if user.Level == 0 {
		user.Level = model.LevelFor(user.Points)
	}

	if p := getMap(data, "provider"); p != nil {
		user.Provider = &model.ProviderProfile{
			ServiceType: model.ServiceType(getString(p, "service_type")),
			Location:    getGeoPoint(p, "location"),
			IsAvailable: getBool(p, "is_available"),
		}
	}

	if t := getTime(data, "created_on"); t != nil {
		user.CreatedOn = *t
	}
	if t := getTime(data, "updated_on"); t != nil {
		user.UpdatedOn = *t
	}
	return user
}

func parseUsers(result []interface{}) []*model.User {
	users := make([]*model.User, 0)
	eachRecord(result, func(data map[string]interface{}) {
		users = append(users, parseUser(data))
	})
	return users
}

func collectIDs(result []interface{}) []string {
	ids := make([]string, 0)
	eachRecord(result, func(data map[string]interface{}) {
		if id := convertSurrealID(data["id"]); id != "" {
			ids = append(ids, id)
		}
	})
	return ids
}
