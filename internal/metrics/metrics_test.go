package metrics

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	m := New()
	m.RegisterDBPoolCollector(func() (int32, int32, int32) { return 10, 7, 3 })

	m.ObserveRequest(KindAPI, "GET", "/api/v1/projects", 200, 20*time.Millisecond, 512)
	m.ObserveRequest(KindAPI, "GET", "/api/v1/projects", 200, 30*time.Millisecond, 512)
	m.ObserveRequest(KindAPI, "PATCH", "/api/v1/tasks", 403, 10*time.Millisecond, 64)
	m.ObserveRequest(KindAPI, "GET", "/api/v1/notes", 500, 10*time.Millisecond, 64)
	m.ObserveRequest(KindAuth, "POST", "/api/v1/auth/login", 401, 90*time.Millisecond, 64)

	m.IncAuthSuccess("local")
	m.IncAuthFailure("local")
	m.IncRateLimitRejection("auth")
	m.IncPolicyDenied("task.toggle", "not_owner")
	m.IncAccountEvent("signup", "success")
	m.IncAccountEvent("invite", "failure")
	m.ObserveActivityFlush(4, nil)
	m.ObserveActivityFlush(2, errors.New("db down"))

	s, err := m.Summarize()
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}

	if s.API.TotalRequests != 4 || s.API.ErrorRate != 0.5 {
		t.Errorf("api summary = %+v", s.API)
	}
	if s.Auth.TotalRequests != 1 || s.Auth.ErrorRate != 1 {
		t.Errorf("auth summary = %+v", s.Auth)
	}
	if s.Public.TotalRequests != 0 {
		t.Errorf("public summary = %+v", s.Public)
	}
	if s.API.P50Latency <= 0 || s.API.P99Latency < s.API.P50Latency {
		t.Errorf("latencies = %+v", s.API)
	}
	if s.Access.PolicyDenials != 1 || s.Access.RateLimitRejections != 1 || s.Access.AuthFailures != 1 || s.Access.AuthSuccesses != 1 {
		t.Errorf("access = %+v", s.Access)
	}
	if s.Accounts.Signups != 1 || s.Accounts.Invitations != 1 || s.Accounts.Failures != 1 {
		t.Errorf("accounts = %+v", s.Accounts)
	}
	if s.Activity.Flushes != 2 || s.Activity.FlushErrors != 1 || s.Activity.Users != 4 {
		t.Errorf("activity = %+v", s.Activity)
	}
	if s.DB.TotalConns != 10 || s.DB.IdleConns != 7 || s.DB.AcquiredConns != 3 {
		t.Errorf("db = %+v", s.DB)
	}
	if s.Server.StartTime == 0 {
		t.Error("start time not set")
	}
}

func TestHandler(t *testing.T) {
	m := New()
	rec := httptest.NewRecorder()
	m.Handler()(rec, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache, no-store" {
		t.Errorf("Cache-Control = %q", cc)
	}
	var s Summary
	if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
		t.Fatalf("decoding: %v", err)
	}
}

func TestHistogramPercentile_Empty(t *testing.T) {
	if got := histogramPercentile(nil, 0.5, "", ""); got != 0 || math.IsNaN(got) {
		t.Errorf("histogramPercentile(nil) = %v", got)
	}
}
