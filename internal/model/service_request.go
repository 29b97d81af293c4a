package model

import "time"

// ServiceType is the kind of roadside help a citizen can request
type ServiceType string

const (
	ServiceAmbulance ServiceType = "ambulance"
	ServiceMechanic  ServiceType = "mechanic"
	ServiceFuel      ServiceType = "fuel"
	ServiceTowing    ServiceType = "towing"
)

// IsValid reports whether t is a known service type
func (t ServiceType) IsValid() bool {
	switch t {
	case ServiceAmbulance, ServiceMechanic, ServiceFuel, ServiceTowing:
		return true
	}
	return false
}

// ServiceRequestStatus tracks a request from creation to completion
type ServiceRequestStatus string

const (
	ServiceRequestPending    ServiceRequestStatus = "pending"
	ServiceRequestAccepted   ServiceRequestStatus = "accepted"
	ServiceRequestInProgress ServiceRequestStatus = "in_progress"
	ServiceRequestCompleted  ServiceRequestStatus = "completed"
	ServiceRequestCancelled  ServiceRequestStatus = "cancelled"
)

// IsValid reports whether s is a known service request status
func (s ServiceRequestStatus) IsValid() bool {
	switch s {
	case ServiceRequestPending, ServiceRequestAccepted, ServiceRequestInProgress,
		ServiceRequestCompleted, ServiceRequestCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the request is finished
func (s ServiceRequestStatus) IsTerminal() bool {
	return s == ServiceRequestCompleted || s == ServiceRequestCancelled
}

// ServiceActor is the side of a service request attempting a transition
type ServiceActor string

const (
	ServiceActorRequester ServiceActor = "requester"
	ServiceActorProvider  ServiceActor = "provider"
)

type serviceTransition struct {
	from  ServiceRequestStatus
	to    ServiceRequestStatus
	actor ServiceActor
}

var serviceTransitions = []serviceTransition{
	{ServiceRequestPending, ServiceRequestAccepted, ServiceActorProvider},
	{ServiceRequestAccepted, ServiceRequestInProgress, ServiceActorProvider},
	{ServiceRequestInProgress, ServiceRequestCompleted, ServiceActorProvider},
	{ServiceRequestPending, ServiceRequestCancelled, ServiceActorRequester},
	{ServiceRequestAccepted, ServiceRequestCancelled, ServiceActorRequester},
}

// CanTransitionTo reports whether actor may move a request from s to next
func (s ServiceRequestStatus) CanTransitionTo(next ServiceRequestStatus, actor ServiceActor) bool {
	for _, t := range serviceTransitions {
		if t.from == s && t.to == next && t.actor == actor {
			return true
		}
	}
	return false
}

// ServiceRequest is a citizen's call for roadside help
type ServiceRequest struct {
	ID          string               `json:"id"`
	RequesterID string               `json:"requester_id"`
	ServiceType ServiceType          `json:"service_type"`
	Location    Location             `json:"location"`
	Description string               `json:"description,omitempty"`
	Status      ServiceRequestStatus `json:"status"`
	ProviderID  *string              `json:"provider_id,omitempty"`
	AcceptedAt  *time.Time           `json:"accepted_at,omitempty"`
	StartedAt   *time.Time           `json:"started_at,omitempty"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
	CancelledAt *time.Time           `json:"cancelled_at,omitempty"`
	CreatedOn   time.Time            `json:"created_on"`
	UpdatedOn   time.Time            `json:"updated_on"`
}

// MatchedProvider is a provider offered for a request, nearest first
type MatchedProvider struct {
	UserID      string      `json:"user_id"`
	Name        string      `json:"name"`
	Phone       *string     `json:"phone,omitempty"`
	ServiceType ServiceType `json:"service_type"`
	DistanceKm  float64     `json:"distance_km"`
}

// ServiceRequestCreated is returned from POST /service-requests
type ServiceRequestCreated struct {
	Request   *ServiceRequest   `json:"request"`
	Providers []MatchedProvider `json:"providers"`
}

// CreateServiceRequestRequest is the body of POST /service-requests
type CreateServiceRequestRequest struct {
	ServiceType string   `json:"service_type" validate:"required,service_type"`
	Location    Location `json:"location" validate:"required"`
	Description string   `json:"description" validate:"max=1000"`
}

// Validate checks the request and returns field errors. Matching needs
// coordinates, so they are required here even though reports allow an
// address alone.
func (r *CreateServiceRequestRequest) Validate() []FieldError {
	errs := Validate(r)
	if r.Location.Coordinates == nil {
		errs = append(errs, FieldError{Field: "location.coordinates", Message: "coordinates are required"})
	}
	return errs
}

// UpdateServiceRequestStatusRequest is the body of PATCH /service-requests/{id}/status
type UpdateServiceRequestStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted in_progress completed cancelled"`
}

// ServiceRequestWithDistance pairs a request with its distance from a provider
type ServiceRequestWithDistance struct {
	*ServiceRequest
	DistanceKm float64 `json:"distance_km"`
}
