package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// SecurityHeaders
// ---------------------------------------------------------------------------

func serveSecured(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	SecurityHeaders("/uploads")(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestSecurityHeaders_Common(t *testing.T) {
	rec := serveSecured("/api/health")

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	}
	for name, v := range want {
		if got := rec.Header().Get(name); got != v {
			t.Errorf("%s: want %q, got %q", name, v, got)
		}
	}
	if !strings.Contains(rec.Header().Get("Strict-Transport-Security"), "max-age=") {
		t.Errorf("HSTS missing max-age: %q", rec.Header().Get("Strict-Transport-Security"))
	}
	if rec.Code != http.StatusOK {
		t.Errorf("inner handler status lost, got %d", rec.Code)
	}
}

func TestSecurityHeaders_APIIsNotCached(t *testing.T) {
	rec := serveSecured("/api/projects/p1/workspace")

	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("expected no-store, got %q", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); !strings.Contains(got, "frame-ancestors 'none'") {
		t.Errorf("unexpected CSP %q", got)
	}
}

func TestSecurityHeaders_UploadsAreSandboxed(t *testing.T) {
	rec := serveSecured("/uploads/projects/p1/abc.html")

	if got := rec.Header().Get("Content-Security-Policy"); !strings.Contains(got, "sandbox") {
		t.Errorf("uploaded files should be sandboxed, got %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "" {
		t.Errorf("uploads may be cached, got %q", got)
	}
}

// ---------------------------------------------------------------------------
// RateLimiter
// ---------------------------------------------------------------------------

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(perMinute, proxies int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(perMinute, proxies)
	rl.now = clock.now
	return rl, clock
}

func hit(h http.Handler, remoteAddr, xff string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/client/projects/p1/messages", nil)
	req.RemoteAddr = remoteAddr
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BurstThenBlock(t *testing.T) {
	rl, _ := newTestLimiter(5, 0)
	h := rl.Middleware(okHandler())

	for i := 0; i < 5; i++ {
		if rec := hit(h, "192.168.1.1:12345", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
	rec := hit(h, "192.168.1.1:12345", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if !strings.Contains(rec.Body.String(), `"rate_limited"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	rl, clock := newTestLimiter(60, 0)
	h := rl.Middleware(okHandler())

	for i := 0; i < 60; i++ {
		hit(h, "10.0.0.1:1", "")
	}
	if rec := hit(h, "10.0.0.1:1", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	clock.advance(time.Second)
	if rec := hit(h, "10.0.0.1:1", ""); rec.Code != http.StatusOK {
		t.Errorf("one token should refill per second, got %d", rec.Code)
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl, _ := newTestLimiter(1, 0)
	h := rl.Middleware(okHandler())

	hit(h, "10.0.0.1:1", "")
	if rec := hit(h, "10.0.0.2:1", ""); rec.Code != http.StatusOK {
		t.Errorf("different IP should not be limited, got %d", rec.Code)
	}
}

func TestRateLimiter_ForwardedFor(t *testing.T) {
	cases := []struct {
		name    string
		proxies int
		first   string
		second  string
		blocked bool
	}{
		{"rightmost entry is the client", 1, "203.0.113.50", "1.2.3.4, 203.0.113.50", true},
		{"spoofed leftmost cannot reset", 1, "9.9.9.9, 203.0.113.50", "8.8.8.8, 203.0.113.50", true},
		{"two proxies read second from right", 2, "203.0.113.50, 10.1.1.1", "203.0.113.51, 10.1.1.1", false},
		{"header ignored without proxies", 0, "203.0.113.50", "203.0.113.51", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rl, _ := newTestLimiter(1, tc.proxies)
			h := rl.Middleware(okHandler())

			if rec := hit(h, "10.0.0.99:1234", tc.first); rec.Code != http.StatusOK {
				t.Fatalf("first request should pass, got %d", rec.Code)
			}
			rec := hit(h, "10.0.0.99:1234", tc.second)
			if got := rec.Code == http.StatusTooManyRequests; got != tc.blocked {
				t.Errorf("blocked=%v, want %v", got, tc.blocked)
			}
		})
	}
}
