package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/middleware"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/service"
)

// ============================================================================
// Mock ReportOperations
// ============================================================================

type mockReports struct {
	createFunc       func(ctx context.Context, actor service.Actor, req *model.CreateReportRequest) (*model.Report, error)
	listFunc         func(ctx context.Context, filter model.ReportFilter) ([]*model.Report, error)
	getFunc          func(ctx context.Context, id, viewerID string) (*model.Report, error)
	mineFunc         func(ctx context.Context, actor service.Actor, limit, offset int) ([]*model.Report, error)
	nearbyFunc       func(ctx context.Context, q service.NearbyQuery) ([]model.ReportWithDistance, error)
	feedFunc         func(ctx context.Context, lat, lng float64) ([]model.ReportWithDistance, error)
	updateStatusFunc func(ctx context.Context, actor service.Actor, reportID string, req *model.UpdateStatusRequest) (*model.Report, error)
	verifyFunc       func(ctx context.Context, actor service.Actor, reportID string) (*model.Report, error)
	rejectFunc       func(ctx context.Context, actor service.Actor, reportID string, reason *string) (*model.Report, error)
	deleteFunc       func(ctx context.Context, actor service.Actor, reportID string, hard bool) error
	likeFunc         func(ctx context.Context, actor service.Actor, reportID string) (*model.LikeResult, error)
	thumbFunc        func(ctx context.Context, actor service.Actor, reportID string, req *model.ThumbRequest) (*model.ThumbCounts, error)
}

func (m *mockReports) Create(ctx context.Context, actor service.Actor, req *model.CreateReportRequest) (*model.Report, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, actor, req)
	}
	return &model.Report{ID: "report:new"}, nil
}

func (m *mockReports) List(ctx context.Context, filter model.ReportFilter) ([]*model.Report, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockReports) Get(ctx context.Context, id, viewerID string) (*model.Report, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id, viewerID)
	}
	return &model.Report{ID: id}, nil
}

func (m *mockReports) Mine(ctx context.Context, actor service.Actor, limit, offset int) ([]*model.Report, error) {
	if m.mineFunc != nil {
		return m.mineFunc(ctx, actor, limit, offset)
	}
	return nil, nil
}

func (m *mockReports) Nearby(ctx context.Context, q service.NearbyQuery) ([]model.ReportWithDistance, error) {
	if m.nearbyFunc != nil {
		return m.nearbyFunc(ctx, q)
	}
	return nil, nil
}

func (m *mockReports) NotificationFeed(ctx context.Context, lat, lng float64) ([]model.ReportWithDistance, error) {
	if m.feedFunc != nil {
		return m.feedFunc(ctx, lat, lng)
	}
	return nil, nil
}

func (m *mockReports) UpdateStatus(ctx context.Context, actor service.Actor, reportID string, req *model.UpdateStatusRequest) (*model.Report, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, actor, reportID, req)
	}
	return &model.Report{ID: reportID}, nil
}

func (m *mockReports) Verify(ctx context.Context, actor service.Actor, reportID string) (*model.Report, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, actor, reportID)
	}
	return &model.Report{ID: reportID, Status: model.ReportStatusVerified}, nil
}

func (m *mockReports) Reject(ctx context.Context, actor service.Actor, reportID string, reason *string) (*model.Report, error) {
	if m.rejectFunc != nil {
		return m.rejectFunc(ctx, actor, reportID, reason)
	}
	return &model.Report{ID: reportID, Status: model.ReportStatusRejected}, nil
}

func (m *mockReports) Delete(ctx context.Context, actor service.Actor, reportID string, hard bool) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, actor, reportID, hard)
	}
	return nil
}

func (m *mockReports) ToggleLike(ctx context.Context, actor service.Actor, reportID string) (*model.LikeResult, error) {
	if m.likeFunc != nil {
		return m.likeFunc(ctx, actor, reportID)
	}
	return &model.LikeResult{Liked: true, Likes: 1}, nil
}

func (m *mockReports) Thumb(ctx context.Context, actor service.Actor, reportID string, req *model.ThumbRequest) (*model.ThumbCounts, error) {
	if m.thumbFunc != nil {
		return m.thumbFunc(ctx, actor, reportID, req)
	}
	return &model.ThumbCounts{}, nil
}

type mockVoter struct {
	castVoteFunc func(ctx context.Context, actor service.Actor, reportID, rawChoice string) (*model.VoteResult, error)
}

func (m *mockVoter) CastVote(ctx context.Context, actor service.Actor, reportID, rawChoice string) (*model.VoteResult, error) {
	if m.castVoteFunc != nil {
		return m.castVoteFunc(ctx, actor, reportID, rawChoice)
	}
	return &model.VoteResult{ReportID: reportID, Choice: model.PollChoice(rawChoice)}, nil
}

// mockPhotos records saved and deleted references
type mockPhotos struct {
	saveFunc func(ctx context.Context, r io.Reader) (string, error)
	saved    []string
	deleted  []string
}

func (m *mockPhotos) Save(ctx context.Context, r io.Reader) (string, error) {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, r)
	}
	ref := "/uploads/photo-" + string(rune('a'+len(m.saved))) + ".png"
	m.saved = append(m.saved, ref)
	return ref, nil
}

func (m *mockPhotos) Delete(ctx context.Context, ref string) error {
	m.deleted = append(m.deleted, ref)
	return nil
}

func (m *mockPhotos) MaxBytes() int64 { return 1 << 20 }

// ============================================================================
// Test Helpers
// ============================================================================

func makeJSONRequest(method, path string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withActor(req *http.Request, userID string, role model.UserRole) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	ctx = context.WithValue(ctx, middleware.UserRoleKey, role)
	return req.WithContext(ctx)
}

// serve routes req through a mux so path values are populated
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func parseErrorResponse(t *testing.T, body []byte) *model.ProblemDetails {
	t.Helper()
	var problem model.ProblemDetails
	if err := json.Unmarshal(body, &problem); err != nil {
		t.Fatalf("failed to parse error response: %v", err)
	}
	return &problem
}

func parseData(t *testing.T, body []byte, v interface{}) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("failed to parse data: %v", err)
	}
}
