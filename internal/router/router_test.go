package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/job-board/backend/internal/testutil"
	"github.com/anonto42/job-board/backend/pkg/config"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiClient struct {
	t *testing.T
	e *echo.Echo
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{
		Env:              "development",
		MongoDatabase:    "jobboard",
		JWTSecret:        "router-test-secret",
		JWTTTL:           time.Hour,
		PasswordResetURL: "http://localhost:3000/auth/reset-password",
		CORSAllowOrigins: []string{"*"},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := echo.New()
	require.NoError(t, SetupRoutes(ctx, e, testutil.NewDB(t), nil, nil, cfg, logger))
	return &apiClient{t: t, e: e}
}

func (a *apiClient) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func (a *apiClient) signUp(email string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"email":    email,
		"password": "password123",
	}, "")
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	decode(a.t, rec, &resp)
	require.NotEmpty(a.t, resp.Token)
	return resp.Token
}

type jobJSON struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	JobType string `json:"job_type"`
	UserID  string `json:"user_id"`
	IsSaved bool   `json:"is_saved"`
}

func jobBody(title string) map[string]string {
	return map[string]string{
		"title":       title,
		"company":     "Acme",
		"location":    "Remote",
		"job_type":    "Full-Time",
		"description": strings.Repeat("Ship reliable backend services. ", 3),
	}
}

func TestHealth(t *testing.T) {
	api := newAPI(t)
	rec := api.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestCreateJobValidation(t *testing.T) {
	api := newAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/jobs", jobBody("Backend Engineer"), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := api.signUp("poster@example.com")
	rec = api.do(http.MethodPost, "/api/v1/jobs", map[string]string{
		"title":       "   ",
		"company":     "Acme",
		"location":    "Remote",
		"job_type":    "Internship",
		"description": "too short",
	}, token)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	decode(t, rec, &body)
	assert.Equal(t, map[string]string{
		"title":       "Job title is required",
		"description": "Description must be at least 50 characters",
		"job_type":    "Job type must be one of Full-Time, Part-Time, Contract",
	}, body.Errors)

	rec = api.do(http.MethodGet, "/api/v1/jobs", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestJobLifecycle(t *testing.T) {
	api := newAPI(t)
	owner := api.signUp("owner@example.com")
	reader := api.signUp("reader@example.com")

	rec := api.do(http.MethodPost, "/api/v1/jobs", jobBody("Backend Engineer"), owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created jobJSON
	decode(t, rec, &created)
	jobPath := "/api/v1/jobs/" + created.ID

	// bookmarks are per caller
	rec = api.do(http.MethodPost, jobPath+"/save/toggle", nil, reader)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true, "data": {"saved": true}}`, rec.Body.String())

	var listed []jobJSON
	rec = api.do(http.MethodGet, "/api/v1/jobs?sort_by=company", nil, reader)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &listed)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].IsSaved)

	rec = api.do(http.MethodGet, "/api/v1/jobs?job_type=Full-Time", nil, "")
	decode(t, rec, &listed)
	require.Len(t, listed, 1)
	assert.False(t, listed[0].IsSaved)

	rec = api.do(http.MethodGet, jobPath+"/saved", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true, "data": {"saved": false}}`, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/v1/saved-jobs", nil, reader)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Backend Engineer")

	// only the owner may edit
	rec = api.do(http.MethodPut, jobPath, map[string]string{"title": "Hijacked"}, reader)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPut, jobPath, map[string]string{"title": "Staff Backend Engineer"}, owner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated jobJSON
	decode(t, rec, &updated)
	assert.Equal(t, "Staff Backend Engineer", updated.Title)

	rec = api.do(http.MethodGet, "/api/v1/me/jobs", nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []jobJSON
	decode(t, rec, &mine)
	require.Len(t, mine, 1)

	rec = api.do(http.MethodGet, "/api/v1/users/"+mine[0].UserID+"/jobs", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &mine)
	assert.Len(t, mine, 1)

	rec = api.do(http.MethodGet, "/api/v1/dashboard", nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)
	var dash struct {
		TotalJobs  int            `json:"total_jobs"`
		JobsByType map[string]int `json:"jobs_by_type"`
	}
	decode(t, rec, &dash)
	assert.Equal(t, 1, dash.TotalJobs)
	assert.Equal(t, 1, dash.JobsByType["Full-Time"])

	rec = api.do(http.MethodDelete, jobPath, nil, owner)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodGet, jobPath, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/saved-jobs", nil, reader)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestMalformedRequests(t *testing.T) {
	api := newAPI(t)
	token := api.signUp("someone@example.com")

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/v1/jobs/not-a-uuid", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/jobs/7b0c6a53-5a34-4a5e-9a43-0a3c3c1b9f10", nil, "").Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	api.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublicRoutesIgnoreMalformedAuthorization(t *testing.T) {
	api := newAPI(t)
	owner := api.signUp("owner@example.com")

	rec := api.do(http.MethodPost, "/api/v1/jobs", jobBody("Backend Engineer"), owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created jobJSON
	decode(t, rec, &created)
	jobPath := "/api/v1/jobs/" + created.ID

	for _, header := range []string{"Basic dXNlcjpwYXNz", "Bearer", "Bearer a b"} {
		for _, path := range []string{"/api/v1/jobs", jobPath, jobPath + "/saved"} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.Header.Set(echo.HeaderAuthorization, header)
			rec := httptest.NewRecorder()
			api.e.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code, "%s with %q: %s", path, header, rec.Body.String())
		}

		req := httptest.NewRequest(http.MethodPost, jobPath+"/save/toggle", nil)
		req.Header.Set(echo.HeaderAuthorization, header)
		rec := httptest.NewRecorder()
		api.e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}

func TestAuthFlow(t *testing.T) {
	api := newAPI(t)
	token := api.signUp("jane@example.com")

	rec := api.do(http.MethodPost, "/api/v1/auth/signup", map[string]string{"email": "jane@example.com", "password": "password123"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/auth/signin", map[string]string{"email": "jane@example.com", "password": "nope-nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/auth/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jane@example.com")
	assert.NotContains(t, rec.Body.String(), "password")

	rec = api.do(http.MethodPut, "/api/v1/profile", map[string]string{"display_name": "Jane"}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"display_name":"Jane"`)

	rec = api.do(http.MethodPost, "/api/v1/auth/password/forgot", map[string]string{"email": "unknown@example.com"}, "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/auth/oauth/firebase", map[string]string{"idToken": "abc"}, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/auth/signout", nil, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/v1/auth/me", nil, token).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/v1/profile", nil, token).Code)
}
