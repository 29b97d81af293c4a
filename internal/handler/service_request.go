package handler

import (
	"context"
	"net/http"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/service"
)

// ServiceRequestOperations is the roadside assistance behaviour the handler needs
type ServiceRequestOperations interface {
	Create(ctx context.Context, actor service.Actor, req *model.CreateServiceRequestRequest) (*model.ServiceRequestCreated, error)
	Get(ctx context.Context, actor service.Actor, id string) (*model.ServiceRequest, error)
	Mine(ctx context.Context, actor service.Actor, limit, offset int) ([]*model.ServiceRequest, error)
	NearbyPending(ctx context.Context, actor service.Actor, lat, lng, radiusKm float64) ([]model.ServiceRequestWithDistance, error)
	UpdateStatus(ctx context.Context, actor service.Actor, id string, req *model.UpdateServiceRequestStatusRequest) (*model.ServiceRequest, error)
}

// ServiceRequestHandler handles service request HTTP requests
type ServiceRequestHandler struct {
	requests ServiceRequestOperations
}

// NewServiceRequestHandler creates a new service request handler
func NewServiceRequestHandler(requests ServiceRequestOperations) *ServiceRequestHandler {
	return &ServiceRequestHandler{requests: requests}
}

// Create handles POST /api/service-requests
func (h *ServiceRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req model.CreateServiceRequestRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := h.requests.Create(r.Context(), actor, &req)
	if err != nil {
		writeServiceError(w, r, err, "create service request")
		return
	}
	WriteData(w, http.StatusCreated, created, map[string]string{
		"self": "/api/service-requests/" + created.Request.ID,
	})
}

// Get handles GET /api/service-requests/{id}
func (h *ServiceRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	sr, err := h.requests.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "get service request")
		return
	}
	WriteData(w, http.StatusOK, sr, nil)
}

// Mine handles GET /api/service-requests/mine
func (h *ServiceRequestHandler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	q := newQueryParams(r)
	limit := q.int("limit", model.DefaultReportListLimit)
	offset := q.int("offset", 0)
	if !q.check(w) {
		return
	}

	requests, err := h.requests.Mine(r.Context(), actor, limit, offset)
	if err != nil {
		writeServiceError(w, r, err, "list own service requests")
		return
	}
	WriteCollection(w, http.StatusOK, requests, offsetPage(len(requests), limit, offset), nil)
}

// Nearby handles GET /api/service-requests/nearby?lat=&lng=&radius= for providers
func (h *ServiceRequestHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	q := newQueryParams(r)
	lat := q.float("lat", true)
	lng := q.float("lng", true)
	radius := q.float("radius", false)
	if !q.check(w) {
		return
	}

	requests, err := h.requests.NearbyPending(r.Context(), actor, lat, lng, radius)
	if err != nil {
		writeServiceError(w, r, err, "nearby service requests")
		return
	}
	WriteCollection(w, http.StatusOK, requests, nil, nil)
}

// UpdateStatus handles PATCH /api/service-requests/{id}/status
func (h *ServiceRequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req model.UpdateServiceRequestStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sr, err := h.requests.UpdateStatus(r.Context(), actor, r.PathValue("id"), &req)
	if err != nil {
		writeServiceError(w, r, err, "update service request status")
		return
	}
	WriteData(w, http.StatusOK, sr, nil)
}
