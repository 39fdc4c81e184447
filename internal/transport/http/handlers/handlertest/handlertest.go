// Package handlertest holds helpers shared by the HTTP handler tests.
package handlertest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"perfreview/internal/domain/audit"
	"perfreview/internal/domain/auth"
	"perfreview/internal/transport/http/api"
	"perfreview/internal/transport/http/middleware"
)

const Secret = "handler-test-secret"

// Router returns a chi router with request ids and bearer auth installed;
// register handlers on it.
func Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Auth(Secret))
	return r
}

func Token(t *testing.T, user auth.UserContext) string {
	t.Helper()
	token, err := auth.GenerateToken(Secret, auth.Claims{UserID: user.UserID, Email: user.Email, Role: user.Role}, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

// Do sends a JSON request as user (anonymous when user is nil) and decodes
// the envelope.
func Do(t *testing.T, h http.Handler, method, path string, user *auth.UserContext, body any) (*httptest.ResponseRecorder, api.Envelope) {
	t.Helper()
	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		if err := json.NewEncoder(&buf).Encode(v); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+Token(t, *user))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env api.Envelope
	if ct := rec.Header().Get("Content-Type"); ct == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

// ErrorCode returns the envelope's error code or "".
func ErrorCode(env api.Envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

// Auditor records entries in memory.
type Auditor struct {
	mu      sync.Mutex
	Entries []audit.Entry
}

func (a *Auditor) Record(_ context.Context, entry audit.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Entries = append(a.Entries, entry)
	return nil
}

// Actions lists "entity.action" for every recorded entry.
func (a *Auditor) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.Entries))
	for _, entry := range a.Entries {
		out = append(out, entry.EntityType+"."+entry.Action)
	}
	return out
}
