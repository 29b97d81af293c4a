package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/database"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
)

// ServiceRequestRepository handles roadside service request data access
type ServiceRequestRepository struct {
	db database.Database
}

// NewServiceRequestRepository creates a new service request repository
func NewServiceRequestRepository(db database.Database) *ServiceRequestRepository {
	return &ServiceRequestRepository{db: db}
}

// Create inserts a pending request
func (r *ServiceRequestRepository) Create(ctx context.Context, req *model.ServiceRequest) error {
	query := `
		CREATE service_request CONTENT {
			requester: type::record($requester),
			service_type: $service_type,
			location: {
				address: $address,
				coordinates: $coordinates,
				city: $city,
				state: $state,
				country: $country
			},
			description: $description,
			status: $status,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"requester":    req.RequesterID,
		"service_type": req.ServiceType,
		"address":      req.Location.Address,
		"coordinates":  geoPointVar(req.Location.Coordinates),
		"city":         req.Location.City,
		"state":        req.Location.State,
		"country":      req.Location.Country,
		"description":  req.Description,
		"status":       model.ServiceRequestPending,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create service request: %w", err)
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return fmt.Errorf("failed to extract created service request: %w", err)
	}

	req.ID = created.ID
	req.Status = model.ServiceRequestPending
	req.CreatedOn = created.CreatedOn
	req.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a service request by ID
func (r *ServiceRequestRepository) GetByID(ctx context.Context, id string) (*model.ServiceRequest, error) {
	result, err := r.db.QueryOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get service request: %w", err)
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	return parseServiceRequest(data), nil
}

// ListByRequester returns a citizen's requests, newest first
func (r *ServiceRequestRepository) ListByRequester(ctx context.Context, requesterID string, limit, offset int) ([]*model.ServiceRequest, error) {
	query := `
		SELECT * FROM service_request
		WHERE requester = type::record($requester)
		ORDER BY created_on DESC
		LIMIT $limit START $offset
	`
	vars := map[string]interface{}{"requester": requesterID, "limit": limit, "offset": offset}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list service requests: %w", err)
	}
	return parseServiceRequests(result), nil
}

// ListByProvider returns requests assigned to a provider, newest first
func (r *ServiceRequestRepository) ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]*model.ServiceRequest, error) {
	query := `
		SELECT * FROM service_request
		WHERE provider = type::record($provider)
		ORDER BY created_on DESC
		LIMIT $limit START $offset
	`
	vars := map[string]interface{}{"provider": providerID, "limit": limit, "offset": offset}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list provider service requests: %w", err)
	}
	return parseServiceRequests(result), nil
}

// ListPendingInBoundingBox returns pending requests of a type inside the box, nearest to its center first
func (r *ServiceRequestRepository) ListPendingInBoundingBox(ctx context.Context, serviceType model.ServiceType, box model.BoundingBox, limit int) ([]*model.ServiceRequest, error) {
	vars := map[string]interface{}{
		"status":       model.ServiceRequestPending,
		"service_type": serviceType,
		"limit":        limit,
	}
	rank := nearestFirst("location.coordinates", box, vars)
	query := `
		SELECT *, ` + rank + ` FROM service_request
		WHERE status = $status
		AND service_type = $service_type
		AND location.coordinates[1] >= $min_lat AND location.coordinates[1] <= $max_lat
		AND location.coordinates[0] >= $min_lng AND location.coordinates[0] <= $max_lng
		ORDER BY distance_rank ASC
		LIMIT $limit
	`

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending service requests: %w", err)
	}
	return parseServiceRequests(result), nil
}

// Transition moves a request from one status to another. Accepting assigns the
// provider. Returns nil when the stored status no longer matches from, so two
// providers cannot accept the same request.
func (r *ServiceRequestRepository) Transition(ctx context.Context, id string, from, to model.ServiceRequestStatus, providerID string) (*model.ServiceRequest, error) {
	query := `
		UPDATE type::record($id) SET
			status = $to,
			provider = IF $to = "accepted" THEN type::record($provider) ELSE provider END,
			accepted_at = IF $to = "accepted" THEN time::now() ELSE accepted_at END,
			started_at = IF $to = "in_progress" THEN time::now() ELSE started_at END,
			completed_at = IF $to = "completed" THEN time::now() ELSE completed_at END,
			cancelled_at = IF $to = "cancelled" THEN time::now() ELSE cancelled_at END,
			updated_on = time::now()
		WHERE status = $from
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":       id,
		"from":     from,
		"to":       to,
		"provider": providerID,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to update service request: %w", err)
	}
	data := lastRecord(result)
	if data == nil {
		return nil, nil
	}
	return parseServiceRequest(data), nil
}

func parseServiceRequest(data map[string]interface{}) *model.ServiceRequest {
	req := &model.ServiceRequest{
		ID:          convertSurrealID(data["id"]),
		RequesterID: convertSurrealID(data["requester"]),
		ServiceType: model.ServiceType(getString(data, "service_type")),
		Description: getString(data, "description"),
		Status:      model.ServiceRequestStatus(getString(data, "status")),
		ProviderID:  getRecordIDPtr(data, "provider"),
		AcceptedAt:  getTime(data, "accepted_at"),
		StartedAt:   getTime(data, "started_at"),
		CompletedAt: getTime(data, "completed_at"),
		CancelledAt: getTime(data, "cancelled_at"),
	}
	if loc := getMap(data, "location"); loc != nil {
		req.Location = model.Location{
			Address:     getString(loc, "address"),
			Coordinates: getGeoPoint(loc, "coordinates"),
			City:        getString(loc, "city"),
			State:       getString(loc, "state"),
			Country:     getString(loc, "country"),
		}
	}
	if t := getTime(data, "created_on"); t != nil {
		req.CreatedOn = *t
	}
	if t := getTime(data, "updated_on"); t != nil {
		req.UpdatedOn = *t
	}
	return req
}

func parseServiceRequests(result []interface{}) []*model.ServiceRequest {
	out := make([]*model.ServiceRequest, 0)
	eachRecord(result, func(data map[string]interface{}) {
		out = append(out, parseServiceRequest(data))
	})
	return out
}
