package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/service"
)

// ============================================================================
// Mock ServiceRequestOperations
// ============================================================================

type mockServiceRequests struct {
	createFunc       func(ctx context.Context, actor service.Actor, req *model.CreateServiceRequestRequest) (*model.ServiceRequestCreated, error)
	getFunc          func(ctx context.Context, actor service.Actor, id string) (*model.ServiceRequest, error)
	mineFunc         func(ctx context.Context, actor service.Actor, limit, offset int) ([]*model.ServiceRequest, error)
	nearbyFunc       func(ctx context.Context, actor service.Actor, lat, lng, radiusKm float64) ([]model.ServiceRequestWithDistance, error)
	updateStatusFunc func(ctx context.Context, actor service.Actor, id string, req *model.UpdateServiceRequestStatusRequest) (*model.ServiceRequest, error)
}

func (m *mockServiceRequests) Create(ctx context.Context, actor service.Actor, req *model.CreateServiceRequestRequest) (*model.ServiceRequestCreated, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, actor, req)
	}
	return &model.ServiceRequestCreated{Request: &model.ServiceRequest{ID: "service_request:1"}}, nil
}

func (m *mockServiceRequests) Get(ctx context.Context, actor service.Actor, id string) (*model.ServiceRequest, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, actor, id)
	}
	return &model.ServiceRequest{ID: id}, nil
}

func (m *mockServiceRequests) Mine(ctx context.Context, actor service.Actor, limit, offset int) ([]*model.ServiceRequest, error) {
	if m.mineFunc != nil {
		return m.mineFunc(ctx, actor, limit, offset)
	}
	return nil, nil
}

func (m *mockServiceRequests) NearbyPending(ctx context.Context, actor service.Actor, lat, lng, radiusKm float64) ([]model.ServiceRequestWithDistance, error) {
	if m.nearbyFunc != nil {
		return m.nearbyFunc(ctx, actor, lat, lng, radiusKm)
	}
	return nil, nil
}

func (m *mockServiceRequests) UpdateStatus(ctx context.Context, actor service.Actor, id string, req *model.UpdateServiceRequestStatusRequest) (*model.ServiceRequest, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, actor, id, req)
	}
	return &model.ServiceRequest{ID: id, Status: model.ServiceRequestStatus(req.Status)}, nil
}

// ============================================================================
// Service Request Handler Tests
// ============================================================================

func TestServiceRequestCreate(t *testing.T) {
	t.Parallel()

	h := NewServiceRequestHandler(&mockServiceRequests{
		createFunc: func(ctx context.Context, actor service.Actor, req *model.CreateServiceRequestRequest) (*model.ServiceRequestCreated, error) {
			return &model.ServiceRequestCreated{
				Request:   &model.ServiceRequest{ID: "service_request:9", RequesterID: actor.UserID, ServiceType: model.ServiceType(req.ServiceType)},
				Providers: []model.MatchedProvider{{UserID: "user:mech", DistanceKm: 1.2}},
			}, nil
		},
	})

	body := map[string]interface{}{
		"service_type": "mechanic",
		"location":     map[string]interface{}{"address": "Baner Road", "coordinates": []float64{73.78, 18.56}},
	}
	rr := serve("POST /api/service-requests", h.Create,
		withActor(makeJSONRequest(http.MethodPost, "/api/service-requests", body), "user:1", model.UserRoleCitizen))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created model.ServiceRequestCreated
	parseData(t, rr.Body.Bytes(), &created)
	if created.Request.RequesterID != "user:1" || len(created.Providers) != 1 {
		t.Errorf("unexpected result %+v", created)
	}
}

func TestServiceRequestGet_NonParticipant(t *testing.T) {
	t.Parallel()
	h := NewServiceRequestHandler(&mockServiceRequests{
		getFunc: func(ctx context.Context, actor service.Actor, id string) (*model.ServiceRequest, error) {
			return nil, service.ErrNotServiceParticipant
		},
	})

	rr := serve("GET /api/service-requests/{id}", h.Get,
		withActor(httptest.NewRequest(http.MethodGet, "/api/service-requests/service_request:1", nil), "user:stranger", model.UserRoleCitizen))

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rr.Code)
	}
}

func TestServiceRequestNearby(t *testing.T) {
	t.Parallel()

	var gotRadius float64
	h := NewServiceRequestHandler(&mockServiceRequests{
		nearbyFunc: func(ctx context.Context, actor service.Actor, lat, lng, radiusKm float64) ([]model.ServiceRequestWithDistance, error) {
			if actor.Role != model.UserRoleServiceProvider {
				return nil, service.ErrRoleNotProvider
			}
			gotRadius = radiusKm
			return nil, nil
		},
	})

	rr := serve("GET /api/service-requests/nearby", h.Nearby,
		withActor(httptest.NewRequest(http.MethodGet, "/api/service-requests/nearby?lat=18.5&lng=73.8&radius=7", nil), "user:p", model.UserRoleServiceProvider))
	if rr.Code != http.StatusOK || gotRadius != 7 {
		t.Errorf("provider: code=%d radius=%v", rr.Code, gotRadius)
	}

	rr = serve("GET /api/service-requests/nearby", h.Nearby,
		withActor(httptest.NewRequest(http.MethodGet, "/api/service-requests/nearby?lat=18.5&lng=73.8", nil), "user:c", model.UserRoleCitizen))
	if rr.Code != http.StatusForbidden {
		t.Errorf("citizen: expected 403, got %d", rr.Code)
	}

	rr = serve("GET /api/service-requests/nearby", h.Nearby,
		withActor(httptest.NewRequest(http.MethodGet, "/api/service-requests/nearby?lat=north&lng=73.8", nil), "user:p", model.UserRoleServiceProvider))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad lat: expected 422, got %d", rr.Code)
	}
}

func TestServiceRequestUpdateStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"accepted", nil, http.StatusOK},
		{"already taken", service.ErrServiceRequestTaken, http.StatusConflict},
		{"bad transition", service.ErrInvalidServiceTransition, http.StatusBadRequest},
		{"missing", service.ErrServiceRequestNotFound, http.StatusNotFound},
		{"store failure", errors.New("timeout"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewServiceRequestHandler(&mockServiceRequests{
				updateStatusFunc: func(ctx context.Context, actor service.Actor, id string, req *model.UpdateServiceRequestStatusRequest) (*model.ServiceRequest, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &model.ServiceRequest{ID: id, Status: model.ServiceRequestAccepted}, nil
				},
			})

			rr := serve("PATCH /api/service-requests/{id}/status", h.UpdateStatus,
				withActor(makeJSONRequest(http.MethodPatch, "/api/service-requests/service_request:1/status", map[string]string{"status": "accepted"}), "user:p", model.UserRoleServiceProvider))

			if rr.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}

func TestServiceRequestMine_Paging(t *testing.T) {
	t.Parallel()

	var gotLimit, gotOffset int
	h := NewServiceRequestHandler(&mockServiceRequests{
		mineFunc: func(ctx context.Context, actor service.Actor, limit, offset int) ([]*model.ServiceRequest, error) {
			gotLimit, gotOffset = limit, offset
			return []*model.ServiceRequest{}, nil
		},
	})

	rr := serve("GET /api/service-requests/mine", h.Mine,
		withActor(httptest.NewRequest(http.MethodGet, "/api/service-requests/mine?limit=5&offset=10", nil), "user:1", model.UserRoleCitizen))

	if rr.Code != http.StatusOK || gotLimit != 5 || gotOffset != 10 {
		t.Errorf("code=%d limit=%d offset=%d", rr.Code, gotLimit, gotOffset)
	}
}
