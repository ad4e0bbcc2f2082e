package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/jobs"
	"github.com/jobsift/jobsift/internal/store/memory"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func seededServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New(fixedClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)})
	err := store.Upsert(context.Background(), jobs.Job{
		SiteID:       "acme",
		JobID:        "101",
		Title:        "Product Manager",
		CompanyName:  "Acme",
		ApplyURL:     "https://acme.example.com/apply/101",
		SourceURL:    "https://acme.example.com",
		LocationCity: "san francisco",
		Remote:       true,
	})
	require.NoError(t, err)
	return NewServer(store, zap.NewNop()), store
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	server, _ := seededServer(t)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestListJobsJSON(t *testing.T) {
	t.Parallel()

	server, _ := seededServer(t)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/jobs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Jobs  []jobs.Job `json:"jobs"`
		Count int        `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Product Manager", body.Jobs[0].Title)
	assert.True(t, body.Jobs[0].Remote)
}

func TestIndexRendersHTMLTable(t *testing.T) {
	t.Parallel()

	server, _ := seededServer(t)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Product Manager")
	assert.Contains(t, rec.Body.String(), "https://acme.example.com/apply/101")
}

func TestUpdateStatus(t *testing.T) {
	t.Parallel()

	server, store := seededServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/update_status",
		strings.NewReader(`{"job_id":"101","site_id":"acme","status":"applied"}`))
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	listing, err := store.ListJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, listing, 1)
	assert.Equal(t, "applied", listing[0].Status)
}

func TestUpdateStatusValidation(t *testing.T) {
	t.Parallel()

	server, _ := seededServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "missing job_id", body: `{"site_id":"acme","status":"applied"}`, want: http.StatusBadRequest},
		{name: "missing site_id", body: `{"job_id":"101","status":"applied"}`, want: http.StatusBadRequest},
		{name: "unknown job", body: `{"job_id":"999","site_id":"acme","status":"applied"}`, want: http.StatusNotFound},
		{name: "invalid JSON", body: `{`, want: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/update_status", strings.NewReader(tc.body))
			server.Handler().ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestUpdateStatusAcceptsFreeText(t *testing.T) {
	t.Parallel()

	server, store := seededServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/update_status",
		strings.NewReader(`{"job_id":"101","site_id":"acme","status":"waiting on take-home"}`))
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	listing, err := store.ListJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "waiting on take-home", listing[0].Status)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	server, _ := seededServer(t)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
