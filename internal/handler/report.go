package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/middleware"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/service"
)

// ReportOperations is the report behaviour the handler needs
type ReportOperations interface {
	Create(ctx context.Context, actor service.Actor, req *model.CreateReportRequest) (*model.Report, error)
	List(ctx context.Context, filter model.ReportFilter) ([]*model.Report, error)
	Get(ctx context.Context, id, viewerID string) (*model.Report, error)
	Mine(ctx context.Context, actor service.Actor, limit, offset int) ([]*model.Report, error)
	Nearby(ctx context.Context, q service.NearbyQuery) ([]model.ReportWithDistance, error)
	NotificationFeed(ctx context.Context, lat, lng float64) ([]model.ReportWithDistance, error)
	UpdateStatus(ctx context.Context, actor service.Actor, reportID string, req *model.UpdateStatusRequest) (*model.Report, error)
	Verify(ctx context.Context, actor service.Actor, reportID string) (*model.Report, error)
	Reject(ctx context.Context, actor service.Actor, reportID string, reason *string) (*model.Report, error)
	Delete(ctx context.Context, actor service.Actor, reportID string, hard bool) error
	ToggleLike(ctx context.Context, actor service.Actor, reportID string) (*model.LikeResult, error)
	Thumb(ctx context.Context, actor service.Actor, reportID string, req *model.ThumbRequest) (*model.ThumbCounts, error)
}

// PollVoter records community poll votes
type PollVoter interface {
	CastVote(ctx context.Context, actor service.Actor, reportID, rawChoice string) (*model.VoteResult, error)
}

// PhotoSaver stores uploaded report photos
type PhotoSaver interface {
	Save(ctx context.Context, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
	MaxBytes() int64
}

// ReportHandler handles report HTTP requests
type ReportHandler struct {
	reports   ReportOperations
	polls     PollVoter
	photos    PhotoSaver
	maxPhotos int
}

// ReportHandlerConfig holds dependencies for the report handler
type ReportHandlerConfig struct {
	Reports   ReportOperations
	Polls     PollVoter
	Photos    PhotoSaver // Optional; multipart uploads are refused without it
	MaxPhotos int        // Default 5
}

// NewReportHandler creates a new report handler
func NewReportHandler(cfg ReportHandlerConfig) *ReportHandler {
	if cfg.MaxPhotos <= 0 {
		cfg.MaxPhotos = 5
	}
	return &ReportHandler{
		reports:   cfg.Reports,
		polls:     cfg.Polls,
		photos:    cfg.Photos,
		maxPhotos: cfg.MaxPhotos,
	}
}

// multipartOverhead bounds the non-file parts of an upload
const multipartOverhead = 1 << 20

// Create handles POST /api/reports. The body is JSON, or multipart/form-data
// with the report fields as form values, location as a JSON string and up to
// five "photos" file parts.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req model.CreateReportRequest
	var saved []string
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		var pd *model.ProblemDetails
		saved, pd = h.readMultipart(w, r, &req)
		if pd != nil {
			WriteError(w, pd)
			return
		}
	} else if !decodeBody(w, r, &req) {
		return
	}

	report, err := h.reports.Create(r.Context(), actor, &req)
	if err != nil {
		h.discardPhotos(r.Context(), saved)
		writeServiceError(w, r, err, "create report")
		return
	}

	WriteData(w, http.StatusCreated, report, reportLinks(report.ID))
}

// readMultipart fills req from a multipart form and stores its photos. Photos
// already saved are removed again when a later part fails.
func (h *ReportHandler) readMultipart(w http.ResponseWriter, r *http.Request, req *model.CreateReportRequest) ([]string, *model.ProblemDetails) {
	var perPhoto int64 = 5 << 20
	if h.photos != nil {
		perPhoto = h.photos.MaxBytes()
	}
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.maxPhotos)*perPhoto+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, MapServiceError(service.ErrTooManyPhotos)
		}
		return nil, model.NewBadRequestError("invalid multipart form")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req.Type = r.FormValue("type")
	req.Title = r.FormValue("title")
	req.Description = r.FormValue("description")
	req.Severity = r.FormValue("severity")
	if raw := strings.TrimSpace(r.FormValue("location")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Location); err != nil {
			return nil, model.NewValidationError([]model.FieldError{{Field: "location", Message: "must be a JSON object"}})
		}
	}

	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		return nil, nil
	}
	if h.photos == nil {
		return nil, model.NewBadRequestError("photo uploads are not enabled")
	}
	if len(files) > h.maxPhotos {
		return nil, MapServiceError(service.ErrTooManyPhotos)
	}

	saved := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			h.discardPhotos(r.Context(), saved)
			return nil, model.NewBadRequestError("could not read photo " + fh.Filename)
		}
		ref, err := h.photos.Save(r.Context(), f)
		_ = f.Close()
		if err != nil {
			h.discardPhotos(r.Context(), saved)
			return nil, MapServiceErrorWithContext(err, "save photo")
		}
		saved = append(saved, ref)
	}
	req.Photos = saved
	return saved, nil
}

func (h *ReportHandler) discardPhotos(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := h.photos.Delete(ctx, ref); err != nil {
			slog.Warn("failed to remove orphaned photo",
				slog.String("photo", ref),
				slog.String("error", err.Error()),
			)
		}
	}
}

// List handles GET /api/reports
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	filter := model.ReportFilter{
		City:   q.string("city"),
		Limit:  q.int("limit", model.DefaultReportListLimit),
		Offset: q.int("offset", 0),
	}
	if v := q.string("type"); v != nil {
		t := model.ReportType(*v)
		if !t.IsValid() {
			q.invalid("type", "unknown report type")
		}
		filter.Type = &t
	}
	if v := q.string("severity"); v != nil {
		sev := model.Severity(*v)
		if !sev.IsValid() {
			q.invalid("severity", "unknown severity")
		}
		filter.Severity = &sev
	}
	if v := q.string("status"); v != nil {
		st, ok := model.ParseReportStatus(*v)
		if !ok {
			q.invalid("status", "unknown status")
		}
		filter.Status = &st
	}
	if !q.check(w) {
		return
	}

	reports, err := h.reports.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err, "list reports")
		return
	}
	WriteCollection(w, http.StatusOK, reports, offsetPage(len(reports), filter.Limit, filter.Offset), nil)
}

// Get handles GET /api/reports/{id}. An authenticated viewer is counted once.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetUserID(r.Context())
	report, err := h.reports.Get(r.Context(), r.PathValue("id"), viewerID)
	if err != nil {
		writeServiceError(w, r, err, "get report")
		return
	}
	WriteData(w, http.StatusOK, report, nil)
}

// Mine handles GET /api/reports/my-reports
func (h *ReportHandler) Mine(w http.ResponseWriter, r *http.Request) {
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

	reports, err := h.reports.Mine(r.Context(), actor, limit, offset)
	if err != nil {
		writeServiceError(w, r, err, "list own reports")
		return
	}
	WriteCollection(w, http.StatusOK, reports, offsetPage(len(reports), limit, offset), nil)
}

// Nearby handles GET /api/reports/nearby?lat=&lng=&radius=&limit=&open=
func (h *ReportHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	query := service.NearbyQuery{
		Lat:      q.float("lat", true),
		Lng:      q.float("lng", true),
		RadiusKm: q.float("radius", false),
		Limit:    q.int("limit", 0),
		OpenOnly: q.bool("open"),
	}
	if !q.check(w) {
		return
	}

	reports, err := h.reports.Nearby(r.Context(), query)
	if err != nil {
		writeServiceError(w, r, err, "nearby reports")
		return
	}
	WriteCollection(w, http.StatusOK, reports, nil, nil)
}

// Feed handles GET /api/reports/feed?lat=&lng=
func (h *ReportHandler) Feed(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	lat := q.float("lat", true)
	lng := q.float("lng", true)
	if !q.check(w) {
		return
	}

	reports, err := h.reports.NotificationFeed(r.Context(), lat, lng)
	if err != nil {
		writeServiceError(w, r, err, "notification feed")
		return
	}
	WriteCollection(w, http.StatusOK, reports, nil, nil)
}

// Vote handles POST /api/reports/{id}/vote
func (h *ReportHandler) Vote(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req model.CastVoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.polls.CastVote(r.Context(), actor, r.PathValue("id"), req.Choice)
	if err != nil {
		writeServiceError(w, r, err, "cast vote")
		return
	}
	WriteData(w, http.StatusOK, result, nil)
}

// UpdateStatus handles PUT /api/reports/{id}/status
func (h *ReportHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req model.UpdateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	report, err := h.reports.UpdateStatus(r.Context(), actor, r.PathValue("id"), &req)
	if err != nil {
		writeServiceError(w, r, err, "update report status")
		return
	}
	WriteData(w, http.StatusOK, report, nil)
}

// Verify handles POST /api/reports/{id}/verify
func (h *ReportHandler) Verify(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	report, err := h.reports.Verify(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "verify report")
		return
	}
	WriteData(w, http.StatusOK, report, nil)
}

type rejectRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// Reject handles POST /api/reports/{id}/reject with an optional reason
func (h *ReportHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req rejectRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	report, err := h.reports.Reject(r.Context(), actor, r.PathValue("id"), req.Reason)
	if err != nil {
		writeServiceError(w, r, err, "reject report")
		return
	}
	WriteData(w, http.StatusOK, report, nil)
}

// Delete handles DELETE /api/reports/{id}[?hard=true]
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	q := newQueryParams(r)
	hard := q.bool("hard")
	if !q.check(w) {
		return
	}

	if err := h.reports.Delete(r.Context(), actor, r.PathValue("id"), hard); err != nil {
		writeServiceError(w, r, err, "delete report")
		return
	}
	WriteNoContent(w)
}

// Like handles POST /api/reports/{id}/like
func (h *ReportHandler) Like(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	result, err := h.reports.ToggleLike(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "like report")
		return
	}
	WriteData(w, http.StatusOK, result, nil)
}

// Thumbs handles POST /api/reports/{id}/thumbs
func (h *ReportHandler) Thumbs(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req model.ThumbRequest
	if !decodeBody(w, r, &req) {
		return
	}

	counts, err := h.reports.Thumb(r.Context(), actor, r.PathValue("id"), &req)
	if err != nil {
		writeServiceError(w, r, err, "thumb report")
		return
	}
	WriteData(w, http.StatusOK, counts, nil)
}
