package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/mediaconv/internal/healthcheck"
)

type staticChecker struct {
	status string
}

func (c staticChecker) ListChecks(context.Context) []healthcheck.CheckResult {
	return []healthcheck.CheckResult{{ID: "static", Type: "static", Status: c.status}}
}

func doRequest(t *testing.T, h *PingHandler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.Register(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthPlainOK(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, NewPingHandler(nil, nil), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = doRequest(t, NewPingHandler(nil, nil), http.MethodHead, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPing(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, NewPingHandler(nil, nil), http.MethodGet, "/ping")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["version"])
}

func TestChecks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     string
		wantStatus int
	}{
		{name: "healthy", status: healthcheck.StatusOK, wantStatus: http.StatusOK},
		{name: "warning", status: healthcheck.StatusWarn, wantStatus: http.StatusOK},
		{name: "failing", status: healthcheck.StatusError, wantStatus: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewPingHandler(nil, healthcheck.NewAggregator(staticChecker{status: tt.status}))
			rec := doRequest(t, h, http.MethodGet, "/health/checks")
			assert.Equal(t, tt.wantStatus, rec.Code)

			var report healthcheck.Report
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
			assert.Equal(t, tt.status, report.Status)
			require.Len(t, report.Checks, 1)
		})
	}
}

func TestChecksWithoutAggregator(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, NewPingHandler(nil, nil), http.MethodGet, "/health/checks")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":[]}`, rec.Body.String())
}
