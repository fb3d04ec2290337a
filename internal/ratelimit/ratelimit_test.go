package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/flowmatrix/roiportal/internal/auth"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(rate int, window time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(rate, window)
	l.now = clock.Now
	return l, clock
}

func TestAllowPerKey(t *testing.T) {
	l, _ := newTestLimiter(2, time.Minute)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow("a") {
		t.Fatal("third request should be denied")
	}
	if !l.Allow("b") {
		t.Fatal("another key has its own bucket")
	}
}

func TestRefill(t *testing.T) {
	// 60 per minute is one token per second.
	l, clock := newTestLimiter(60, time.Minute)
	for i := 0; i < 60; i++ {
		l.Allow("k")
	}
	if l.Allow("k") {
		t.Fatal("bucket should be empty")
	}

	clock.Advance(3 * time.Second)
	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("refilled request %d should be allowed", i+1)
		}
	}
	if l.Allow("k") {
		t.Fatal("only three tokens should have refilled")
	}

	clock.Advance(time.Hour)
	if _, remaining, _ := l.Status("k"); remaining != 60 {
		t.Errorf("remaining = %d, want cap of 60", remaining)
	}
}

func TestStatus(t *testing.T) {
	l, clock := newTestLimiter(10, time.Minute)

	_, _, resetAt := l.Status("s")
	if !resetAt.Equal(clock.Now()) {
		t.Errorf("full bucket should reset now, got %v", resetAt)
	}

	l.Allow("s")
	l.Allow("s")
	l.Allow("s")
	limit, remaining, resetAt := l.Status("s")
	if limit != 10 || remaining != 7 {
		t.Errorf("status = %d/%d, want 10/7", limit, remaining)
	}
	// Three tokens at one per six seconds.
	if want := clock.Now().Add(18 * time.Second); !resetAt.Equal(want) {
		t.Errorf("resetAt = %v, want %v", resetAt, want)
	}
}

func TestConcurrentAccess(t *testing.T) {
	l, _ := newTestLimiter(100, time.Minute)

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow("shared")
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	if count != 100 {
		t.Fatalf("allowed %d, want exactly 100", count)
	}
}

func TestSweep(t *testing.T) {
	l, clock := newTestLimiter(5, time.Minute)
	l.Allow("idle")
	l.Allow("busy")
	for i := 0; i < 4; i++ {
		l.Allow("busy")
	}

	clock.Advance(20 * time.Second)
	if n := l.Sweep(); n != 1 {
		t.Errorf("Sweep() removed %d, want 1", n)
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestByUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5123"
	if got := ByUser(req); got != "ip:203.0.113.9" {
		t.Errorf("anonymous key = %q", got)
	}

	req = req.WithContext(auth.ContextWithUser(req.Context(), &auth.User{ID: "u-1"}))
	if got := ByUser(req); got != "user:u-1" {
		t.Errorf("user key = %q", got)
	}
}

func TestMiddleware(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	var rejected []string
	h := Middleware(l, "auth", ByIP, func(scope string) { rejected = append(rejected, scope) })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }),
	)

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "198.51.100.4:80"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := do()
	if first.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", first.Code)
	}
	if first.Header().Get("X-RateLimit-Limit") != "1" || first.Header().Get("X-RateLimit-Remaining") != "1" {
		t.Errorf("headers = %v", first.Header())
	}

	second := do()
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(second.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["code"] != "rate_limited" {
		t.Errorf("body = %v", body)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	if len(rejected) != 1 || rejected[0] != "auth" {
		t.Errorf("rejections = %v", rejected)
	}
}

func TestMiddleware_EmptyKeySkips(t *testing.T) {
	l, _ := newTestLimiter(0, time.Minute)
	h := Middleware(l, "api", func(*http.Request) string { return "" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
