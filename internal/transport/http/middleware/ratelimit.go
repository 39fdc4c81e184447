package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"perfreview/internal/transport/http/api"
	"perfreview/internal/transport/http/shared"
)

// RateLimitKeyFunc picks the bucket a request is counted against.
type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*limiter)

// WithExemptPaths skips counting for exact path matches such as health checks.
func WithExemptPaths(paths ...string) RateLimitOption {
	return func(l *limiter) {
		for _, p := range paths {
			l.exempt[p] = struct{}{}
		}
	}
}

func withClock(now func() time.Time) RateLimitOption {
	return func(l *limiter) { l.now = now }
}

type bucket struct {
	hits    int
	resetAt time.Time
}

type verdict struct {
	allowed   bool
	remaining int
	resetIn   time.Duration
}

type limiter struct {
	mu        sync.Mutex
	limit     int
	period    time.Duration
	key       RateLimitKeyFunc
	exempt    map[string]struct{}
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

func newLimiter(limit int, period time.Duration, key RateLimitKeyFunc, opts ...RateLimitOption) *limiter {
	l := &limiter{
		limit:   limit,
		period:  period,
		key:     key,
		exempt:  map[string]struct{}{},
		buckets: map[string]*bucket{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.key == nil {
		l.key = actorOrIPKey
	}
	return l
}

// take counts one hit for key in a fixed window.
func (l *limiter) take(key string) verdict {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(l.period)}
		l.buckets[key] = b
	}
	b.hits++
	return verdict{
		allowed:   b.hits <= l.limit,
		remaining: max(l.limit-b.hits, 0),
		resetIn:   b.resetAt.Sub(now),
	}
}

// sweep drops expired buckets at most once per period. Caller holds mu.
func (l *limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.period {
		return
	}
	for key, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

func (l *limiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// guard reports whether r may proceed and writes the 429 when it may not.
func (l *limiter) guard(w http.ResponseWriter, r *http.Request) bool {
	if l.limit <= 0 {
		return true
	}
	if _, ok := l.exempt[r.URL.Path]; ok {
		return true
	}

	key := l.key(r)
	if key == "" {
		key = clientIPKey(r)
	}
	v := l.take(key)
	resetSec := ceilSeconds(v.resetIn)

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(resetSec))
	if v.allowed {
		return true
	}

	h.Set("Retry-After", strconv.Itoa(max(resetSec, 1)))
	slog.Warn("rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path, "limit", l.limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// RateLimit caps every caller at limit requests per window, keyed by user
// when authenticated and by client address otherwise.
func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	l := newLimiter(limit, window, actorOrIPKey, opts...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.guard(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SensitiveMutationRateLimit adds tighter limits on top of RateLimit:
// credential endpoints get a quarter of baseLimit per address and per email,
// writes to review data get half of it per actor.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	credLimit := max(baseLimit/4, 1)
	writeLimit := max(baseLimit/2, 1)
	byIP := newLimiter(credLimit, window, clientIPKey, opts...)
	byEmail := newLimiter(credLimit, window, AuthEmailOrIPKey("email"), opts...)
	byActor := newLimiter(writeLimit, window, actorOrIPKey, opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch mutationScope(r) {
			case scopeCredentials:
				if !byIP.guard(w, r) || !byEmail.guard(w, r) {
					return
				}
			case scopeReviewData:
				if !byActor.guard(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthEmailOrIPKey keys on a JSON body field, restoring the body for the
// handler. Requests without the field fall back to the client address.
func AuthEmailOrIPKey(field string) RateLimitKeyFunc {
	field = strings.TrimSpace(field)
	if field == "" {
		field = "email"
	}
	return func(r *http.Request) string {
		if email := jsonBodyField(r, field); email != "" {
			return "email:" + strings.ToLower(email)
		}
		return clientIPKey(r)
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID > 0 {
		return "user:" + strconv.FormatInt(user.UserID, 10)
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	return "ip:" + shared.ClientIP(r)
}

func jsonBodyField(r *http.Request, field string) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	body := r.Body
	raw, err := io.ReadAll(io.LimitReader(body, 64*1024))
	r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(raw), body), Closer: body}
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}

// readCloser puts back a partly read body while keeping the original Close.
type readCloser struct {
	io.Reader
	io.Closer
}

type scope int

const (
	scopeNone scope = iota
	scopeCredentials
	scopeReviewData
)

var credentialRoutes = map[string]bool{
	"/auth/login":    true,
	"/auth/register": true,
}

var reviewDataAreas = []string{"/users", "/reviews", "/assignments", "/feedback"}

func mutationScope(r *http.Request) scope {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return scopeNone
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	if credentialRoutes[path] {
		return scopeCredentials
	}
	for _, area := range reviewDataAreas {
		if path == area || strings.HasPrefix(path, area+"/") {
			return scopeReviewData
		}
	}
	return scopeNone
}
