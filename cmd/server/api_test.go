// End-to-end acceptance tests run the full router against a real SurrealDB.
//
// To run them:
//  1. Start SurrealDB: surreal start memory -A --user root --pass root
//  2. Run tests: go test ./cmd/server/...
//
// Without a reachable database they are skipped (see internal/testing/testdb).
package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/config"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/middleware"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/service"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/storage"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/testing/fixtures"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/testing/helpers"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/testing/testdb"
)

/*
FEATURE: Raasta Sathi API
DOMAIN: Community traffic reporting

ACCEPTANCE CRITERIA:
===================

AC-API-001: Registration
  GIVEN a new email address
  WHEN the user registers and confirms the emailed code
  THEN an account is created and an access token returned
  AND the same credentials can log in

AC-API-002: Community Fake Detection
  GIVEN an Active report
  WHEN three different users vote "fake"
  THEN the report becomes "Fake Report"
  AND its author is refused new reports with a restriction problem

AC-API-003: Authority Verification
  GIVEN an Active report
  WHEN a citizen tries to verify it
  THEN the request is forbidden
  WHEN a police officer verifies it
  THEN the report is Verified

AC-API-004: Photo Reports
  GIVEN a citizen with a PNG photo
  WHEN a report is filed as multipart form data
  THEN the photo is stored and referenced by the report

AC-API-005: Comments
  GIVEN a report with a comment
  WHEN another user replies
  THEN both appear in the thread
  AND replies to replies are refused

AC-API-006: Roadside Help
  GIVEN a pending mechanic request near an available mechanic
  WHEN the mechanic lists nearby requests and accepts it
  THEN the request is accepted by that mechanic

AC-API-007: Report Expiry Sweep
  GIVEN a police checkpoint report past its deadline
  WHEN the report-expiry sweep runs
  THEN the report is Resolved

AC-API-008: Sign-in Throttling
  GIVEN a client with no trusted proxy in front of it
  WHEN it retries login past its quota while rotating X-Forwarded-For
  THEN further attempts are refused with 429
  AND authenticated report writes keep their own quota
*/

// capturingMailer keeps the last code sent to each address
type capturingMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *capturingMailer) SendVerificationCode(ctx context.Context, email, name, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[email] = code
	return nil
}

func (m *capturingMailer) codeFor(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

type testServer struct {
	handler http.Handler
	app     *app
	jwt     *helpers.JWTHelper
	tdb     *testdb.TestDB
	f       *fixtures.Factory
	mailer  *capturingMailer
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			RateLimit:      1000,
			AuthRateLimit:  1000,
			IdempotencyTTL: time.Hour,
		},
		Scheduler: config.SchedulerConfig{
			Timeout:           time.Minute,
			ResolvedRetention: 30 * 24 * time.Hour,
		},
		Moderation: config.ModerationConfig{
			FakeVoteThreshold:   3,
			RestrictionDuration: 7 * 24 * time.Hour,
		},
		Geo:          config.GeoConfig{ProviderMatchRadiusKm: 10},
		Registration: config.RegistrationConfig{CodeTTL: 15 * time.Minute, MaxAttempts: 5},
		Uploads:      config.UploadsConfig{MaxPhotos: 5},
	}
}

func newTestServer(t *testing.T, tweaks ...func(*config.Config)) *testServer {
	t.Helper()

	cfg := testConfig()
	for _, tweak := range tweaks {
		tweak(cfg)
	}

	tdb := testdb.New(t)
	t.Cleanup(tdb.Close)

	photos, err := storage.NewLocalPhotoStore(storage.Config{Fs: afero.NewMemMapFs()})
	require.NoError(t, err)

	jwtHelper := helpers.NewJWTHelper(t)
	mailer := &capturingMailer{codes: make(map[string]string)}
	application := newApp(appDeps{
		cfg:    cfg,
		db:     tdb.DB,
		jwt:    jwtHelper.Service(),
		photos: photos,
		mailer: mailer,
	})
	t.Cleanup(application.Close)

	mux := http.NewServeMux()
	registerRoutes(mux, application.routes)
	mux.Handle("GET /uploads/", photos.Handler())

	return &testServer{
		handler: middleware.Chain(mux, middleware.RequestID, middleware.Recovery),
		app:     application,
		jwt:     jwtHelper,
		tdb:     tdb,
		f:       fixtures.New(tdb.DB),
		mailer:  mailer,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func reportBody(title string) map[string]any {
	return map[string]any{
		"type":     "congestion",
		"title":    title,
		"severity": "high",
		"location": map[string]any{
			"address":     "NH-24, Ghaziabad",
			"coordinates": []float64{77.40, 28.65},
			"city":        "Ghaziabad",
		},
	}
}

// ============================================================================
// AC-API-001: Registration
// ============================================================================

func TestAPI_RegistrationFlow(t *testing.T) {
	s := newTestServer(t)
	email := fmt.Sprintf("asha_%d@example.com", time.Now().UnixNano())

	rr := s.do(helpers.NewRequest(t, http.MethodPost, "/api/auth/register").
		WithBody(model.RegisterRequest{Email: email, Password: "correct-horse", Name: "Asha"}).
		Build())
	helpers.AssertStatus(t, rr, http.StatusAccepted)

	code := s.mailer.codeFor(email)
	require.Len(t, code, 6)

	rr = s.do(helpers.NewRequest(t, http.MethodPost, "/api/auth/register/verify").
		WithBody(model.VerifyRegistrationRequest{Email: email, Code: code}).
		Build())
	helpers.AssertStatus(t, rr, http.StatusCreated)

	var verified struct {
		Data model.AuthResult `json:"data"`
	}
	helpers.DecodeResponse(t, rr, &verified)
	require.NotEmpty(t, verified.Data.AccessToken)
	assert.Equal(t, model.UserRoleCitizen, verified.Data.User.Role)

	rr = s.do(helpers.NewRequest(t, http.MethodPost, "/api/auth/login").
		WithBody(model.LoginRequest{Email: email, Password: "correct-horse"}).
		Build())
	helpers.AssertStatus(t, rr, http.StatusOK)

	rr = s.do(helpers.NewRequest(t, http.MethodPost, "/api/auth/login").
		WithBody(model.LoginRequest{Email: email, Password: "wrong-password"}).
		Build())
	helpers.AssertProblemDetails(t, rr, http.StatusUnauthorized, 0)

	rr = s.do(helpers.NewRequest(t, http.MethodGet, "/api/users/me").
		WithHeader("Authorization", "Bearer "+verified.Data.AccessToken).
		Build())
	helpers.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, email, helpers.GetDataFromResponse(t, rr)["email"])
}

// ============================================================================
// AC-API-002: Community Fake Detection
// ============================================================================

func TestAPI_FakeVotesRestrictAuthor(t *testing.T) {
	s := newTestServer(t)

	author := s.f.CreateUser(t)
	report := s.f.CreateReport(t, author)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		voter := s.f.CreateUser(t)
		last = s.do(helpers.NewRequest(t, http.MethodPost, "/api/reports/"+report.ID+"/vote").
			WithAuth(s.jwt, voter).
			WithBody(model.CastVoteRequest{Choice: string(model.PollFake)}).
			Build())
		helpers.AssertStatus(t, last, http.StatusOK)
	}
	data := helpers.GetDataFromResponse(t, last)
	assert.Equal(t, string(model.ReportStatusFake), data["status"])
	assert.Equal(t, true, data["marked_fake"])

	// Closed reports take no more votes
	rr := s.do(helpers.NewRequest(t, http.MethodPost, "/api/reports/"+report.ID+"/vote").
		WithAuth(s.jwt, s.f.CreateUser(t)).
		WithBody(model.CastVoteRequest{Choice: string(model.PollStillThere)}).
		Build())
	helpers.AssertProblemDetails(t, rr, http.StatusBadRequest, model.ErrCodeInvalidState)

	rr = s.do(helpers.NewRequest(t, http.MethodPost, "/api/reports").
		WithAuth(s.jwt, author).
		WithBody(reportBody("Jam after flyover")).
		Build())
	helpers.AssertProblemDetails(t, rr, http.StatusForbidden, model.ErrCodeRestricted)
}

// ============================================================================
// AC-API-003: Authority Verification
// ============================================================================

func TestAPI_OnlyAuthoritiesVerify(t *testing.T) {
	s := newTestServer(t)

	citizen := s.f.CreateUser(t)
	report := s.f.CreateReport(t, citizen)

	rr := s.do(helpers.NewRequest(t, http.MethodPost, "/api/reports/"+report.ID+"/verify").
		WithAuth(s.jwt, s.f.CreateUser(t)).
		Build())
	helpers.AssertProblemDetails(t, rr, http.StatusForbidden, 0)

	police := s.f.CreatePolice(t)
	rr = s.do(helpers.NewRequest(t, http.MethodPost, "/api/reports/"+report.ID+"/verify").
		WithAuth(s.jwt, police).
		Build())
	helpers.AssertStatus(t, rr, http.StatusOK)
	data := helpers.GetDataFromResponse(t, rr)
	assert.Equal(t, string(model.ReportStatusVerified), data["status"])
	assert.Equal(t, police.ID, data["verified_by"])

	rr = s.do(helpers.NewRequest(t, http.MethodGet, "/api/reports/"+report.ID).Build())
	helpers.AssertStatus(t, rr, http.StatusOK)
}

func TestAPI_ExpiredTokenRejected(t *testing.T) {
	s := newTestServer(t)
	citizen := s.f.CreateUser(t)

	rr := s.do(helpers.NewRequest(t, http.MethodGet, "/api/reports/my-reports").
		WithHeader("Authorization", "Bearer "+s.jwt.GenerateExpiredToken(citizen)).
		Build())
	helpers.AssertProblemDetails(t, rr, http.StatusUnauthorized, 0)
}

// ============================================================================
// AC-API-004: Photo Reports
// ============================================================================

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestAPI_MultipartReportWithPhoto(t *testing.T) {
	s := newTestServer(t)
	citizen := s.f.CreateUser(t)

	rr := s.do(helpers.NewRequest(t, http.MethodPost, "/api/reports").
		WithAuth(s.jwt, citizen).
		WithFormField("type", "pothole").
		WithFormField("title", "Deep pothole on service lane").
		WithFormField("severity", "medium").
		WithFormField("location", `{"address":"Sector 18, Noida","coordinates":[77.32,28.57]}`).
		WithPhoto(pngHeader).
		Build())
	helpers.AssertStatus(t, rr, http.StatusCreated)

	photos, ok := helpers.GetDataFromResponse(t, rr)["photos"].([]any)
	require.True(t, ok)
	require.Len(t, photos, 1)

	ref, _ := photos[0].(string)
	rr = s.do(httptest.NewRequest(http.MethodGet, ref, nil))
	helpers.AssertStatus(t, rr, http.StatusOK)
}

func TestAPI_CreateReportValidation(t *testing.T) {
	s := newTestServer(t)
	citizen := s.f.CreateUser(t)

	body := reportBody("ok")
	body["title"] = "x"
	rr := s.do(helpers.NewRequest(t, http.MethodPost, "/api/reports").
		WithAuth(s.jwt, citizen).
		WithBody(body).
		Build())
	helpers.AssertValidationError(t, rr, "title")
}

// ============================================================================
// AC-API-005: Comments
// ============================================================================

func TestAPI_CommentThread(t *testing.T) {
	s := newTestServer(t)
	author := s.f.CreateUser(t)
	report := s.f.CreateReport(t, author)
	base := "/api/reports/" + report.ID + "/comments"

	rr := s.do(helpers.NewRequest(t, http.MethodPost, base).
		WithAuth(s.jwt, author).
		WithBody(model.CommentRequest{Text: "Two lanes blocked"}).
		Build())
	helpers.AssertStatus(t, rr, http.StatusCreated)
	commentID, _ := helpers.GetDataFromResponse(t, rr)["id"].(string)
	require.NotEmpty(t, commentID)

	rr = s.do(helpers.NewRequest(t, http.MethodPost, base+"/"+commentID+"/replies").
		WithAuth(s.jwt, s.f.CreateUser(t)).
		WithBody(model.CommentRequest{Text: "Cleared now"}).
		Build())
	helpers.AssertStatus(t, rr, http.StatusCreated)
	replyID, _ := helpers.GetDataFromResponse(t, rr)["id"].(string)

	rr = s.do(helpers.NewRequest(t, http.MethodPost, base+"/"+replyID+"/replies").
		WithAuth(s.jwt, author).
		WithBody(model.CommentRequest{Text: "Thanks"}).
		Build())
	helpers.AssertProblemDetails(t, rr, http.StatusBadRequest, model.ErrCodeInvalidState)

	rr = s.do(helpers.NewRequest(t, http.MethodGet, base).Build())
	helpers.AssertStatus(t, rr, http.StatusOK)
	var thread struct {
		Data []model.CommentThread `json:"data"`
	}
	helpers.DecodeResponse(t, rr, &thread)
	require.Len(t, thread.Data, 1)
	assert.Equal(t, commentID, thread.Data[0].ID)
	require.Len(t, thread.Data[0].Replies, 1)
	assert.Equal(t, replyID, thread.Data[0].Replies[0].ID)
}

// ============================================================================
// AC-API-006: Roadside Help
// ============================================================================

func TestAPI_ProviderAcceptsNearbyRequest(t *testing.T) {
	s := newTestServer(t)
	citizen := s.f.CreateUser(t)
	mechanic := s.f.CreateProvider(t, model.ServiceMechanic, fixtures.DefaultPoint)

	rr := s.do(helpers.NewRequest(t, http.MethodPost, "/api/service-requests").
		WithAuth(s.jwt, citizen).
		WithBody(model.CreateServiceRequestRequest{
			ServiceType: string(model.ServiceMechanic),
			Location: model.Location{
				Address:     "Sector 63, Noida",
				Coordinates: &model.GeoPoint{Lng: 77.3800, Lat: 28.6270},
			},
			Description: "Flat tyre",
		}).
		Build())
	helpers.AssertStatus(t, rr, http.StatusCreated)

	var created struct {
		Data struct {
			Request *model.ServiceRequest `json:"request"`
		} `json:"data"`
	}
	helpers.DecodeResponse(t, rr, &created)
	require.NotNil(t, created.Data.Request)
	requestID := created.Data.Request.ID

	rr = s.do(helpers.NewRequest(t, http.MethodGet, "/api/service-requests/nearby?lat=28.61&lng=77.3569").
		WithAuth(s.jwt, mechanic).
		Build())
	helpers.AssertStatus(t, rr, http.StatusOK)

	rr = s.do(helpers.NewRequest(t, http.MethodPatch, "/api/service-requests/"+requestID+"/status").
		WithAuth(s.jwt, mechanic).
		WithBody(model.UpdateServiceRequestStatusRequest{Status: string(model.ServiceRequestAccepted)}).
		Build())
	helpers.AssertStatus(t, rr, http.StatusOK)
	data := helpers.GetDataFromResponse(t, rr)
	assert.Equal(t, string(model.ServiceRequestAccepted), data["status"])
	assert.Equal(t, mechanic.ID, data["provider_id"])
}

// ============================================================================
// AC-API-007: Report Expiry Sweep
// ============================================================================

func TestAPI_ReportExpirySweep(t *testing.T) {
	s := newTestServer(t)
	report := s.f.CreateReport(t, s.f.CreateUser(t), fixtures.WithReportType(model.ReportTypePolice))
	s.f.ExpireReport(t, report)

	var ran bool
	for _, sweep := range s.app.sweeps {
		if sweep.Name != service.SweepReportExpiry {
			continue
		}
		result, err := sweep.Run(s.tdb.Ctx())
		require.NoError(t, err)
		assert.Equal(t, 1, result.Processed)
		ran = true
	}
	require.True(t, ran)

	rr := s.do(helpers.NewRequest(t, http.MethodGet, "/api/reports/"+report.ID).Build())
	helpers.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, string(model.ReportStatusResolved), helpers.GetDataFromResponse(t, rr)["status"])
}

// ============================================================================
// AC-API-008: Sign-in Throttling
// ============================================================================

func TestAPI_LoginThrottledPerClient(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Server.AuthRateLimit = 1 })

	// rate 1 + burst 2
	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		req := helpers.NewRequest(t, http.MethodPost, "/api/auth/login").
			WithBody(model.LoginRequest{Email: "nobody@example.com", Password: "guess-" + fmt.Sprint(i)}).
			Build()
		req.RemoteAddr = "203.0.113.9:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		codes = append(codes, s.do(req).Code)
	}
	assert.Equal(t, http.StatusUnauthorized, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[3], "codes: %v", codes)
	assert.Equal(t, http.StatusTooManyRequests, codes[4], "codes: %v", codes)

	author := s.f.CreateUser(t)
	req := helpers.NewRequest(t, http.MethodPost, "/api/reports").
		WithAuth(s.jwt, author).
		WithBody(reportBody("Stalled truck on the flyover")).
		Build()
	req.RemoteAddr = "203.0.113.9:4000"
	helpers.AssertStatus(t, s.do(req), http.StatusCreated)
}

func TestAPI_Health(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	helpers.AssertStatus(t, rr, http.StatusOK)
}
