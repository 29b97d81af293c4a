package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ReportType is the kind of road incident being reported
type ReportType string

const (
	ReportTypeAccident     ReportType = "accident"
	ReportTypePolice       ReportType = "police"
	ReportTypePothole      ReportType = "pothole"
	ReportTypeConstruction ReportType = "construction"
	ReportTypeCongestion   ReportType = "congestion"
	ReportTypeClosure      ReportType = "closure"
	ReportTypeWeather      ReportType = "weather"
	ReportTypeVIP          ReportType = "vip"
)

// AllReportTypes lists every accepted report type in display order
var AllReportTypes = []ReportType{
	ReportTypeAccident, ReportTypePolice, ReportTypePothole, ReportTypeConstruction,
	ReportTypeCongestion, ReportTypeClosure, ReportTypeWeather, ReportTypeVIP,
}

// IsValid reports whether t is a known report type
func (t ReportType) IsValid() bool {
	for _, known := range AllReportTypes {
		if t == known {
			return true
		}
	}
	return false
}

// reportExpiry maps a type to its time-to-live. Types missing here are
// long-lived and only leave Active through a manual or community action.
var reportExpiry = map[ReportType]time.Duration{
	ReportTypeAccident:   120 * time.Minute,
	ReportTypeCongestion: 45 * time.Minute,
	ReportTypeClosure:    45 * time.Minute,
	ReportTypeWeather:    45 * time.Minute,
	ReportTypePolice:     60 * time.Minute,
	ReportTypeVIP:        60 * time.Minute,
}

// ExpiryFor returns the report's auto-resolve duration and whether the type expires at all
func (t ReportType) ExpiryFor() (time.Duration, bool) {
	d, ok := reportExpiry[t]
	return d, ok
}

// ExpiresAt computes the deadline for a report of this type created at createdOn.
// Returns nil for manually managed types (construction, pothole).
func (t ReportType) ExpiresAt(createdOn time.Time) *time.Time {
	d, ok := t.ExpiryFor()
	if !ok {
		return nil
	}
	deadline := createdOn.Add(d)
	return &deadline
}

// Severity of a report
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// IsValid reports whether s is a known severity
func (s Severity) IsValid() bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// Field limits
const (
	MinReportTitleLength     = 3
	MaxReportTitleLength     = 120
	MaxReportDescLength      = 1000
	MaxReportPhotos          = 5
	MaxCommentLength         = 500
	MaxStatusReasonLength    = 300
	DefaultReportListLimit   = 20
	MaxReportListLimit       = 100
	NotificationFeedRadiusKm = 5.0
	NotificationFeedLimit    = 5
)

// GeoPoint is a longitude/latitude pair. It is encoded as a [lng, lat] array
// to match GeoJSON ordering.
type GeoPoint struct {
	Lng float64 `validate:"longitude"`
	Lat float64 `validate:"latitude"`
}

// MarshalJSON encodes the point as [lng, lat]
func (p GeoPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Lng, p.Lat})
}

// UnmarshalJSON decodes a [lng, lat] array
func (p *GeoPoint) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("coordinates must be a [lng, lat] array: %w", err)
	}
	if len(pair) != 2 {
		return errors.New("coordinates must contain exactly two numbers [lng, lat]")
	}
	p.Lng, p.Lat = pair[0], pair[1]
	return nil
}

// InRange reports whether both components are valid WGS84 values
func (p GeoPoint) InRange() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// BoundingBox is a lat/lng rectangle used to prefilter geo queries. Center is
// the query point; stores return candidates nearest to it first.
type BoundingBox struct {
	MinLat float64  `json:"min_lat"`
	MaxLat float64  `json:"max_lat"`
	MinLng float64  `json:"min_lng"`
	MaxLng float64  `json:"max_lng"`
	Center GeoPoint `json:"center"`
}

// Contains reports whether p lies inside the box, edges included
func (b BoundingBox) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// Location is where an incident happened
type Location struct {
	Address     string    `json:"address" validate:"required,max=300"`
	Coordinates *GeoPoint `json:"coordinates,omitempty" validate:"omitempty"`
	City        string    `json:"city,omitempty" validate:"max=100"`
	State       string    `json:"state,omitempty" validate:"max=100"`
	Country     string    `json:"country,omitempty" validate:"max=100"`
}

// PollTally holds the aggregate community poll counts
type PollTally struct {
	StillThere int `json:"still_there"`
	Resolved   int `json:"resolved"`
	Fake       int `json:"fake"`
}

// Poll is the community poll attached to a report
type Poll struct {
	PollTally
	Votes []PollVote `json:"votes"`
}

// ThumbCounts holds general up/down votes, separate from the poll
type ThumbCounts struct {
	Up   int `json:"up"`
	Down int `json:"down"`
}

// Report is a geotagged road incident filed by a citizen
type Report struct {
	ID          string       `json:"id"`
	Type        ReportType   `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Location    Location     `json:"location"`
	Severity    Severity     `json:"severity"`
	Status      ReportStatus `json:"status"`
	ReportedBy  string       `json:"reported_by"`
	VerifiedBy  *string      `json:"verified_by,omitempty"`
	VerifiedAt  *time.Time   `json:"verified_at,omitempty"`
	ResolvedAt  *time.Time   `json:"resolved_at,omitempty"`
	Photos      []string     `json:"photos"`
	Likes       int          `json:"likes"`
	Views       int          `json:"views"`
	Votes       ThumbCounts  `json:"votes"`
	Poll        Poll         `json:"poll"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
	IsActive    bool         `json:"is_active"`
	ArchivedOn  *time.Time   `json:"archived_on,omitempty"`
	CreatedOn   time.Time    `json:"created_on"`
	UpdatedOn   time.Time    `json:"updated_on"`
}

// IsTerminal reports whether the report can no longer change status
func (r *Report) IsTerminal() bool {
	return r.Status.IsTerminal()
}

// IsExpired reports whether the report is past its deadline
func (r *Report) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}

// IsGenuine reports whether the report counts towards its author's points
func (r *Report) IsGenuine() bool {
	return r.Status != ReportStatusFake
}

// HasPhoto reports whether at least one photo is attached
func (r *Report) HasPhoto() bool {
	return len(r.Photos) > 0
}

// VoteOf returns the given user's poll choice, if any
func (r *Report) VoteOf(userID string) (PollChoice, bool) {
	for _, v := range r.Poll.Votes {
		if v.UserID == userID {
			return v.Choice, true
		}
	}
	return "", false
}

// StatusChange describes a guarded status update
type StatusChange struct {
	ReportID string
	From     []ReportStatus // Update applies only while the stored status is one of these
	To       ReportStatus
	ActorID  string  // Recorded as verified_by when To is Verified
	Reason   *string // Stored as status_reason when set
}

// ReportWithDistance pairs a report with its distance from a query point
type ReportWithDistance struct {
	*Report
	DistanceKm float64 `json:"distance_km"`
}

// ReportFilter narrows report listings
type ReportFilter struct {
	Type     *ReportType
	Status   *ReportStatus
	Severity *Severity
	City     *string
	Limit    int
	Offset   int
}

// Normalize clamps paging values into the accepted range
func (f *ReportFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultReportListLimit
	}
	if f.Limit > MaxReportListLimit {
		f.Limit = MaxReportListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// Request DTOs

// CreateReportRequest is the body of POST /reports
type CreateReportRequest struct {
	Type        string   `json:"type" validate:"required,report_type"`
	Title       string   `json:"title" validate:"required,min=3,max=120"`
	Description string   `json:"description" validate:"max=1000"`
	Location    Location `json:"location" validate:"required"`
	Severity    string   `json:"severity" validate:"required,severity"`
	Photos      []string `json:"photos" validate:"max=5,dive,required,max=500"`
}

// Validate checks the request and returns field errors
func (r *CreateReportRequest) Validate() []FieldError {
	return Validate(r)
}

// UpdateStatusRequest is the body of PUT /reports/{id}/status
type UpdateStatusRequest struct {
	Status string  `json:"status"`
	Reason *string `json:"reason,omitempty"`
}

// Validate checks the request and returns field errors. "Fake Report" contains
// a space, so the allowed set is checked by hand rather than with a oneof tag.
func (r *UpdateStatusRequest) Validate() []FieldError {
	var errs []FieldError
	switch ReportStatus(r.Status) {
	case ReportStatusActive, ReportStatusResolved, ReportStatusFake:
	case "":
		errs = append(errs, FieldError{Field: "status", Message: "status is required"})
	default:
		errs = append(errs, FieldError{Field: "status", Message: "status must be Active, Resolved, or Fake Report"})
	}
	if r.Reason != nil && len(*r.Reason) > MaxStatusReasonLength {
		errs = append(errs, FieldError{Field: "reason", Message: "reason must be 300 characters or less"})
	}
	return errs
}

// ThumbRequest is the body of POST /reports/{id}/thumbs
type ThumbRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

// ThumbDirection is an up or down vote
type ThumbDirection string

const (
	ThumbUp   ThumbDirection = "up"
	ThumbDown ThumbDirection = "down"
)

// LikeResult is returned by the like toggle
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}
