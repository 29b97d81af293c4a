package service

import (
	"math"
	"sort"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
)

// GeoService handles geographic calculations
type GeoService struct{}

// NewGeoService creates a new geo service
func NewGeoService() *GeoService {
	return &GeoService{}
}

// EarthRadiusKm is the Earth's radius in kilometers
const EarthRadiusKm = 6371.0

// Default search radii
const (
	DefaultSearchRadiusKm = 5.0
	MaxSearchRadiusKm     = 100.0
	DefaultNearbyLimit    = 20
	MaxNearbyLimit        = 100
)

// HaversineDistance calculates the distance between two points in kilometers
// using the Haversine formula (accounts for Earth's curvature)
func (s *GeoService) HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// IsWithinRadius checks if a point is within a given radius of another point
func (s *GeoService) IsWithinRadius(centerLat, centerLng, pointLat, pointLng, radiusKm float64) bool {
	return s.HaversineDistance(centerLat, centerLng, pointLat, pointLng) <= radiusKm
}

// GetBoundingBox returns a bounding box around a center point with given radius.
// It is deliberately loose; callers apply HaversineDistance afterwards.
func (s *GeoService) GetBoundingBox(lat, lng, radiusKm float64) model.BoundingBox {
	// 1 degree latitude ≈ 111 km; longitude shrinks with cos(lat)
	latDelta := radiusKm / 111.0
	cosLat := math.Cos(lat * math.Pi / 180)
	lngDelta := 180.0
	if cosLat > 1e-6 {
		lngDelta = math.Min(radiusKm/(111.0*cosLat), 180.0)
	}

	return model.BoundingBox{
		MinLat: math.Max(lat-latDelta, -90),
		MaxLat: math.Min(lat+latDelta, 90),
		MinLng: math.Max(lng-lngDelta, -180),
		MaxLng: math.Min(lng+lngDelta, 180),
		Center: model.GeoPoint{Lat: lat, Lng: lng},
	}
}

// RankByDistance keeps reports within radiusKm of the center and sorts them
// nearest first. Reports without coordinates are dropped. A limit of 0 keeps
// every match.
func (s *GeoService) RankByDistance(lat, lng, radiusKm float64, reports []*model.Report, limit int) []model.ReportWithDistance {
	ranked := make([]model.ReportWithDistance, 0, len(reports))
	for _, r := range reports {
		p := r.Location.Coordinates
		if p == nil {
			continue
		}
		d := s.HaversineDistance(lat, lng, p.Lat, p.Lng)
		if d > radiusKm {
			continue
		}
		ranked = append(ranked, model.ReportWithDistance{Report: r, DistanceKm: d})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// ValidateCenter checks a query point and radius
func (s *GeoService) ValidateCenter(lat, lng, radiusKm float64) error {
	if !(model.GeoPoint{Lat: lat, Lng: lng}).InRange() {
		return ErrInvalidCoordinates
	}
	if radiusKm <= 0 || math.IsNaN(radiusKm) {
		return ErrInvalidRadius
	}
	return nil
}
