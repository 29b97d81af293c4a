package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// ============================================================================
// DecodeJSON Tests
// ============================================================================

type sampleBody struct {
	Title string `json:"title"`
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "single object", body: `{"title":"Pothole"}`},
		{name: "trailing whitespace", body: "{\"title\":\"Pothole\"}\n  "},
		{name: "unknown field", body: `{"title":"Pothole","points":500}`, wantErr: true},
		{name: "two values", body: `{"title":"a"}{"title":"b"}`, wantErr: true},
		{name: "empty", body: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(tt.body))
			var got sampleBody
			err := DecodeJSON(httptest.NewRecorder(), req, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && got.Title != "Pothole" {
				t.Errorf("expected title Pothole, got %q", got.Title)
			}
		})
	}
}

func TestDecodeBody_OversizedBody(t *testing.T) {
	t.Parallel()

	big := `{"title":"` + strings.Repeat("x", maxJSONBody) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/reports/report:1/comments", strings.NewReader(big))
	rr := httptest.NewRecorder()

	var got sampleBody
	if decodeBody(rr, req, &got) {
		t.Fatal("expected oversized body to be rejected")
	}
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rr.Code)
	}
}

func TestDecodeBody_EmptyBodyIsBadRequest(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", http.NoBody)
	rr := httptest.NewRecorder()

	var got sampleBody
	if decodeBody(rr, req, &got) {
		t.Fatal("expected empty body to be rejected")
	}
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "request body is required") {
		t.Errorf("unexpected problem body: %s", rr.Body.String())
	}
}

func TestDecodeOptionalBody_AcceptsEmpty(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/api/reports/report:1/vote", http.NoBody)
	var got sampleBody
	if !decodeOptionalBody(httptest.NewRecorder(), req, &got) {
		t.Error("expected empty body to be accepted")
	}
}

func TestBodyProblem_GenericError(t *testing.T) {
	t.Parallel()

	if pd := bodyProblem(errors.New("boom")); pd.Status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", pd.Status)
	}
}

// ============================================================================
// Envelope Tests
// ============================================================================

func TestWriteData_NoStoreAndLinks(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	WriteData(rr, http.StatusCreated, map[string]string{"id": "report:1"}, reportLinks("report:1"))

	if got := rr.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("expected no-store, got %q", got)
	}
	var env struct {
		Links map[string]string `json:"_links"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Links["comments"] != "/api/reports/report:1/comments" {
		t.Errorf("unexpected links: %v", env.Links)
	}
}

func TestOffsetPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                    string
		returned, limit, offset int
		wantMore                bool
		wantCursor              string
	}{
		{name: "short page ends feed", returned: 3, limit: 20, offset: 0},
		{name: "no limit", returned: 50, limit: 0, offset: 0},
		{name: "full page continues", returned: 20, limit: 20, offset: 40, wantMore: true, wantCursor: "60"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := offsetPage(tt.returned, tt.limit, tt.offset)
			if got.HasMore != tt.wantMore || got.Cursor != tt.wantCursor {
				t.Errorf("got %+v", got)
			}
		})
	}
}
