package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
)

// DefaultProviderMatchRadiusKm is used when no match radius is configured
const DefaultProviderMatchRadiusKm = 10.0

// maxMatchedProviders caps the providers returned for a new request
const maxMatchedProviders = 10

// ServiceRequestStore defines the interface for service request data access
type ServiceRequestStore interface {
	Create(ctx context.Context, req *model.ServiceRequest) error
	GetByID(ctx context.Context, id string) (*model.ServiceRequest, error)
	ListByRequester(ctx context.Context, requesterID string, limit, offset int) ([]*model.ServiceRequest, error)
	ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]*model.ServiceRequest, error)
	ListPendingInBoundingBox(ctx context.Context, serviceType model.ServiceType, box model.BoundingBox, limit int) ([]*model.ServiceRequest, error)
	Transition(ctx context.Context, id string, from, to model.ServiceRequestStatus, providerID string) (*model.ServiceRequest, error)
}

// ProviderDirectory finds service providers
type ProviderDirectory interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	ListAvailableProviders(ctx context.Context, serviceType model.ServiceType, box model.BoundingBox, limit int) ([]*model.User, error)
}

// ServiceRequestService matches citizens needing roadside help with nearby providers
type ServiceRequestService struct {
	requests    ServiceRequestStore
	providers   ProviderDirectory
	geo         *GeoService
	matchRadius float64
}

// ServiceRequestServiceConfig holds configuration for the service request service
type ServiceRequestServiceConfig struct {
	Requests      ServiceRequestStore
	Providers     ProviderDirectory
	Geo           *GeoService
	MatchRadiusKm float64
}

// NewServiceRequestService creates a new service request service
func NewServiceRequestService(cfg ServiceRequestServiceConfig) *ServiceRequestService {
	if cfg.Geo == nil {
		cfg.Geo = NewGeoService()
	}
	if cfg.MatchRadiusKm <= 0 {
		cfg.MatchRadiusKm = DefaultProviderMatchRadiusKm
	}
	return &ServiceRequestService{
		requests:    cfg.Requests,
		providers:   cfg.Providers,
		geo:         cfg.Geo,
		matchRadius: cfg.MatchRadiusKm,
	}
}

// Create opens a pending request and returns the providers that can serve it
func (s *ServiceRequestService) Create(ctx context.Context, actor Actor, req *model.CreateServiceRequestRequest) (*model.ServiceRequestCreated, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	sr := &model.ServiceRequest{
		RequesterID: actor.UserID,
		ServiceType: model.ServiceType(req.ServiceType),
		Location:    req.Location,
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.requests.Create(ctx, sr); err != nil {
		return nil, err
	}

	providers, err := s.MatchProviders(ctx, sr.ServiceType, *sr.Location.Coordinates)
	if err != nil {
		// The request exists; providers can still find it from their side
		slog.Warn("provider matching failed",
			slog.String("service_request_id", sr.ID),
			slog.String("error", err.Error()),
		)
		providers = []model.MatchedProvider{}
	}

	slog.Info("service request created",
		slog.String("service_request_id", sr.ID),
		slog.String("service_type", string(sr.ServiceType)),
		slog.Int("matched", len(providers)),
	)
	return &model.ServiceRequestCreated{Request: sr, Providers: providers}, nil
}

// MatchProviders returns available providers of the service type within the
// match radius, nearest first
func (s *ServiceRequestService) MatchProviders(ctx context.Context, serviceType model.ServiceType, at model.GeoPoint) ([]model.MatchedProvider, error) {
	box := s.geo.GetBoundingBox(at.Lat, at.Lng, s.matchRadius)
	candidates, err := s.providers.ListAvailableProviders(ctx, serviceType, box, maxNearbyCandidates)
	if err != nil {
		return nil, err
	}

	matched := make([]model.MatchedProvider, 0, len(candidates))
	for _, u := range candidates {
		if u.Provider == nil || u.Provider.Location == nil {
			continue
		}
		loc := u.Provider.Location
		d := s.geo.HaversineDistance(at.Lat, at.Lng, loc.Lat, loc.Lng)
		if d > s.matchRadius {
			continue
		}
		matched = append(matched, model.MatchedProvider{
			UserID:      u.ID,
			Name:        u.Name,
			Phone:       u.Phone,
			ServiceType: u.Provider.ServiceType,
			DistanceKm:  d,
		})
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].DistanceKm < matched[j].DistanceKm })
	if len(matched) > maxMatchedProviders {
		matched = matched[:maxMatchedProviders]
	}
	return matched, nil
}

// Get returns a request visible to the caller: its requester, its assigned
// provider, an admin, or a provider of the right type while it is pending
func (s *ServiceRequestService) Get(ctx context.Context, actor Actor, id string) (*model.ServiceRequest, error) {
	sr, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.IsAdmin(), sr.RequesterID == actor.UserID:
		return sr, nil
	case sr.ProviderID != nil && *sr.ProviderID == actor.UserID:
		return sr, nil
	case sr.Status == model.ServiceRequestPending && actor.Role == model.UserRoleServiceProvider:
		if provider, err := s.providerProfile(ctx, actor); err == nil && provider.ServiceType == sr.ServiceType {
			return sr, nil
		}
	}
	return nil, ErrNotServiceParticipant
}

// Mine lists the caller's requests: assigned ones for providers, filed ones otherwise
func (s *ServiceRequestService) Mine(ctx context.Context, actor Actor, limit, offset int) ([]*model.ServiceRequest, error) {
	if limit <= 0 || limit > model.MaxReportListLimit {
		limit = model.DefaultReportListLimit
	}
	if offset < 0 {
		offset = 0
	}
	if actor.Role == model.UserRoleServiceProvider {
		return s.requests.ListByProvider(ctx, actor.UserID, limit, offset)
	}
	return s.requests.ListByRequester(ctx, actor.UserID, limit, offset)
}

// NearbyPending lists pending requests a provider could accept, nearest first
func (s *ServiceRequestService) NearbyPending(ctx context.Context, actor Actor, lat, lng, radiusKm float64) ([]model.ServiceRequestWithDistance, error) {
	provider, err := s.providerProfile(ctx, actor)
	if err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		radiusKm = s.matchRadius
	}
	if err := s.geo.ValidateCenter(lat, lng, radiusKm); err != nil {
		return nil, err
	}

	box := s.geo.GetBoundingBox(lat, lng, radiusKm)
	pending, err := s.requests.ListPendingInBoundingBox(ctx, provider.ServiceType, box, maxNearbyCandidates)
	if err != nil {
		return nil, err
	}

	out := make([]model.ServiceRequestWithDistance, 0, len(pending))
	for _, sr := range pending {
		p := sr.Location.Coordinates
		if p == nil {
			continue
		}
		d := s.geo.HaversineDistance(lat, lng, p.Lat, p.Lng)
		if d > radiusKm {
			continue
		}
		out = append(out, model.ServiceRequestWithDistance{ServiceRequest: sr, DistanceKm: d})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

// UpdateStatus moves a request along its lifecycle. Providers accept, start
// and complete; requesters cancel before work starts.
func (s *ServiceRequestService) UpdateStatus(ctx context.Context, actor Actor, id string, req *model.UpdateServiceRequestStatusRequest) (*model.ServiceRequest, error) {
	if errs := model.Validate(req); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}
	next := model.ServiceRequestStatus(req.Status)

	sr, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	var side model.ServiceActor
	switch {
	case sr.RequesterID == actor.UserID:
		side = model.ServiceActorRequester
	case actor.Role == model.UserRoleServiceProvider:
		side = model.ServiceActorProvider
	default:
		return nil, ErrNotServiceParticipant
	}
	if !sr.Status.CanTransitionTo(next, side) {
		return nil, ErrInvalidServiceTransition
	}

	if side == model.ServiceActorProvider {
		if next == model.ServiceRequestAccepted {
			provider, err := s.providerProfile(ctx, actor)
			if err != nil {
				return nil, err
			}
			if provider.ServiceType != sr.ServiceType {
				return nil, ErrProviderMismatch
			}
		} else if sr.ProviderID == nil || *sr.ProviderID != actor.UserID {
			return nil, ErrNotServiceParticipant
		}
	}

	updated, err := s.requests.Transition(ctx, id, sr.Status, next, actor.UserID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrServiceRequestTaken
	}

	slog.Info("service request status changed",
		slog.String("service_request_id", id),
		slog.String("from", string(sr.Status)),
		slog.String("to", string(next)),
		slog.String("actor_id", actor.UserID),
	)
	return updated, nil
}

func (s *ServiceRequestService) get(ctx context.Context, id string) (*model.ServiceRequest, error) {
	sr, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sr == nil {
		return nil, ErrServiceRequestNotFound
	}
	return sr, nil
}

func (s *ServiceRequestService) providerProfile(ctx context.Context, actor Actor) (*model.ProviderProfile, error) {
	if actor.Role != model.UserRoleServiceProvider {
		return nil, ErrRoleNotProvider
	}
	user, err := s.providers.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Provider == nil {
		return nil, ErrRoleNotProvider
	}
	return user.Provider, nil
}
