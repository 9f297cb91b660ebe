package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubChecker struct {
	status  Status
	message string
	calls   atomic.Int32
}

func (s *stubChecker) Check(ctx context.Context) Check {
	s.calls.Add(1)
	return Check{Status: s.status, Message: s.message, LastChecked: time.Now()}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func TestHealthCheck_Check_NoCheckers(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())

	response := hc.Check(context.Background())

	assert.Equal(t, StatusHealthy, response.Status)
	assert.Equal(t, "1.0.0", response.Version)
	assert.Empty(t, response.Checks)
}

func TestHealthCheck_Check_AggregatesStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := New("1.0.0", zap.NewNop())
			for i, s := range tt.statuses {
				hc.Register(string(rune('a'+i)), &stubChecker{status: s})
			}

			response := hc.Check(context.Background())

			assert.Equal(t, tt.want, response.Status)
			require.Len(t, response.Checks, len(tt.statuses))
			assert.Equal(t, "a", response.Checks[0].Name, "checks are sorted by name")
		})
	}
}

func TestHealthCheck_Check_IsCached(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	checker := &stubChecker{status: StatusHealthy}
	hc.Register("cache", checker)

	hc.Check(context.Background())
	hc.Check(context.Background())
	assert.Equal(t, int32(1), checker.calls.Load())

	hc.SetCacheTTL(0)
	hc.Check(context.Background())
	assert.Equal(t, int32(2), checker.calls.Load())
}

func TestHealthCheck_Handlers(t *testing.T) {
	tests := []struct {
		name          string
		status        Status
		healthCode    int
		readinessCode int
	}{
		{"healthy", StatusHealthy, http.StatusOK, http.StatusOK},
		{"degraded", StatusDegraded, http.StatusOK, http.StatusOK},
		{"unhealthy", StatusUnhealthy, http.StatusServiceUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := New("1.0.0", zap.NewNop())
			hc.Register("dep", &stubChecker{status: tt.status})

			rec := httptest.NewRecorder()
			hc.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.healthCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, string(tt.status), body["status"])

			rec = httptest.NewRecorder()
			hc.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			assert.Equal(t, tt.readinessCode, rec.Code)
		})
	}
}

func TestHealthCheck_LivenessHandler(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	hc.Register("dep", &stubChecker{status: StatusUnhealthy})

	rec := httptest.NewRecorder()
	hc.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"alive"`)
}

func TestPingChecker(t *testing.T) {
	ok := NewPingChecker("cache", stubPinger{}).Check(context.Background())
	assert.Equal(t, StatusHealthy, ok.Status)

	failed := NewPingChecker("cache", stubPinger{err: errors.New("connection refused")}).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, failed.Status)
	assert.Equal(t, "connection refused", failed.Message)
}

func TestCredentialChecker(t *testing.T) {
	missing := NewCredentialChecker("groq", "GROQ_API_KEY", "").Check(context.Background())
	assert.Equal(t, StatusDegraded, missing.Status)
	assert.Equal(t, "GROQ_API_KEY is not set", missing.Message)

	present := NewCredentialChecker("groq", "GROQ_API_KEY", "gsk_secret").Check(context.Background())
	assert.Equal(t, StatusHealthy, present.Status)

	data, err := json.Marshal(present)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "gsk_secret")
}

func TestExternalServiceChecker(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   Status
	}{
		{"ok", http.StatusOK, StatusHealthy},
		{"unauthorized", http.StatusUnauthorized, StatusDegraded},
		{"server error", http.StatusBadGateway, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var auth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				auth = r.Header.Get("Authorization")
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			headers := http.Header{"Authorization": []string{"Bearer key"}}
			check := NewExternalServiceChecker("groq_api", srv.URL, time.Second, headers).Check(context.Background())

			assert.Equal(t, tt.want, check.Status)
			assert.Equal(t, "Bearer key", auth)
		})
	}
}

func TestExternalServiceChecker_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	check := NewExternalServiceChecker("groq_api", url, time.Second, nil).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, check.Status)
}

func TestCustomChecker(t *testing.T) {
	checker := NewCustomChecker("documents", func(ctx context.Context) (Status, string, interface{}) {
		return StatusDegraded, "slow", map[string]interface{}{"entries": 3}
	})

	check := checker.Check(context.Background())
	assert.Equal(t, StatusDegraded, check.Status)
	assert.Equal(t, "slow", check.Message)
}
