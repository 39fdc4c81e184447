package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"perfreview/internal/domain/auth"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func noContent() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

type rlRequest struct {
	method string
	path   string
	addr   string
	body   string
	user   *auth.UserContext
}

func serve(h http.Handler, in rlRequest) *httptest.ResponseRecorder {
	method := in.method
	if method == "" {
		method = http.MethodPost
	}
	var body io.Reader
	if in.body != "" {
		body = strings.NewReader(in.body)
	}
	req := httptest.NewRequest(method, in.path, body)
	if in.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if in.addr != "" {
		req.RemoteAddr = in.addr
	}
	if in.user != nil {
		req = req.WithContext(WithUser(context.Background(), *in.user))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitKeysOnUserAcrossAddresses(t *testing.T) {
	h := RateLimit(1, time.Minute)(noContent())
	admin := &auth.UserContext{UserID: 1, Role: auth.RoleAdmin}

	if rec := serve(h, rlRequest{path: "/api/v1/reviews", addr: "198.51.100.11:2222", user: admin}); rec.Code != http.StatusNoContent {
		t.Fatalf("first request: %d", rec.Code)
	}
	if rec := serve(h, rlRequest{path: "/api/v1/reviews", addr: "198.51.100.12:3333", user: admin}); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected the user bucket to throttle, got %d", rec.Code)
	}
}

func TestRateLimitFallsBackToClientAddress(t *testing.T) {
	h := RateLimit(1, time.Minute)(noContent())

	serve(h, rlRequest{path: "/api/v1/auth/register", addr: "203.0.113.10:4444"})
	if rec := serve(h, rlRequest{path: "/api/v1/auth/register", addr: "203.0.113.10:5555"}); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected same address to be throttled, got %d", rec.Code)
	}
	if rec := serve(h, rlRequest{path: "/api/v1/auth/register", addr: "203.0.113.99:5555"}); rec.Code != http.StatusNoContent {
		t.Fatalf("expected another address to pass, got %d", rec.Code)
	}
}

func TestRateLimitWindowResetsAndHeaders(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	h := RateLimit(1, time.Minute, withClock(clock.now))(noContent())
	in := rlRequest{path: "/api/v1/auth/login", addr: "192.0.2.20:1111"}

	first := serve(h, in)
	if first.Header().Get("X-RateLimit-Limit") != "1" || first.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected headers: %v", first.Header())
	}

	clock.advance(20 * time.Second)
	second := serve(h, in)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected throttle, got %d", second.Code)
	}
	if got := second.Header().Get("Retry-After"); got != "40" {
		t.Fatalf("expected Retry-After 40, got %q", got)
	}

	clock.advance(40 * time.Second)
	if rec := serve(h, in); rec.Code != http.StatusNoContent {
		t.Fatalf("expected a fresh window, got %d", rec.Code)
	}
}

func TestRateLimitSweepsExpiredBuckets(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	l := newLimiter(5, time.Minute, nil, withClock(clock.now))
	for _, key := range []string{"a", "b", "c"} {
		l.take(key)
	}
	if l.tracked() != 3 {
		t.Fatalf("expected 3 buckets, got %d", l.tracked())
	}

	clock.advance(2 * time.Minute)
	l.take("d")
	if l.tracked() != 1 {
		t.Fatalf("expected expired buckets to be dropped, got %d", l.tracked())
	}
}

func TestRateLimitExemptPaths(t *testing.T) {
	h := RateLimit(1, time.Minute, WithExemptPaths("/healthz"))(noContent())
	for i := 0; i < 3; i++ {
		if rec := serve(h, rlRequest{method: http.MethodGet, path: "/healthz", addr: "192.0.2.1:1"}); rec.Code != http.StatusNoContent {
			t.Fatalf("health check %d throttled: %d", i, rec.Code)
		}
	}
}

func TestSensitiveLimitKeysLoginOnEmail(t *testing.T) {
	// base 4 gives one credential attempt per address and per email
	h := SensitiveMutationRateLimit(4, time.Minute)(noContent())
	body := `{"email":"Ada@Example.com","password":"x"}`

	if rec := serve(h, rlRequest{path: "/api/v1/auth/login", addr: "192.0.2.30:1", body: body}); rec.Code != http.StatusNoContent {
		t.Fatalf("first login: %d", rec.Code)
	}
	rec := serve(h, rlRequest{path: "/api/v1/auth/login", addr: "192.0.2.31:1", body: `{"email":"ada@example.com"}`})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected email bucket to throttle from a new address, got %d", rec.Code)
	}
}

func TestEmailKeyKeepsLongBodyIntact(t *testing.T) {
	body := `{"email":"ada@example.com","note":"` + strings.Repeat("x", 80*1024) + `"}`
	var got string
	h := SensitiveMutationRateLimit(40, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		got = string(raw)
		w.WriteHeader(http.StatusNoContent)
	}))

	if rec := serve(h, rlRequest{path: "/api/v1/auth/register", addr: "192.0.2.32:1", body: body}); rec.Code != http.StatusNoContent {
		t.Fatalf("register: %d", rec.Code)
	}
	if got != body {
		t.Fatalf("expected the full %d byte body, handler read %d bytes", len(body), len(got))
	}
}

func TestRateLimitIgnoresClientForwardedFor(t *testing.T) {
	h := RateLimit(1, time.Minute)(noContent())
	for i, fwd := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "198.51.100.77:4000"
		req.Header.Set("X-Forwarded-For", fwd)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if i == 1 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected a new forwarding header not to open a fresh bucket, got %d", rec.Code)
		}
	}
}

func TestSensitiveLimitScopes(t *testing.T) {
	h := SensitiveMutationRateLimit(4, time.Minute)(noContent())

	for i := 0; i < 6; i++ {
		if rec := serve(h, rlRequest{method: http.MethodGet, path: "/api/v1/reviews/stats", addr: "198.51.100.40:8888"}); rec.Code != http.StatusNoContent {
			t.Fatalf("read %d should bypass sensitive limits, got %d", i+1, rec.Code)
		}
	}

	admin := &auth.UserContext{UserID: 2, Role: auth.RoleAdmin}
	for i := 0; i < 3; i++ {
		rec := serve(h, rlRequest{method: http.MethodDelete, path: "/api/v1/feedback/7", user: admin})
		if i < 2 && rec.Code != http.StatusNoContent {
			t.Fatalf("write %d should pass, got %d", i+1, rec.Code)
		}
		if i == 2 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("third write should be throttled, got %d", rec.Code)
		}
	}
}

func TestMutationScope(t *testing.T) {
	cases := []struct {
		method, path string
		want         scope
	}{
		{http.MethodPost, "/api/v1/auth/login", scopeCredentials},
		{http.MethodPost, "/api/v1/auth/register", scopeCredentials},
		{http.MethodGet, "/api/v1/auth/me", scopeNone},
		{http.MethodPatch, "/api/v1/users/3/activate", scopeReviewData},
		{http.MethodPut, "/api/v1/feedback/9", scopeReviewData},
		{http.MethodPost, "/api/v1/assignments", scopeReviewData},
		{http.MethodGet, "/api/v1/audit/events", scopeNone},
		{http.MethodPost, "/api/v1/reviewsx", scopeNone},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if got := mutationScope(req); got != tc.want {
			t.Fatalf("%s %s: got %v want %v", tc.method, tc.path, got, tc.want)
		}
	}
}
