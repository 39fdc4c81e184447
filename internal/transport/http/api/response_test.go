package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"perfreview/internal/domain/apperr"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, map[string]int{"id": 1}, "req-1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	env := decode(t, rec)
	if !env.Success || env.RequestID != "req-1" || env.Error != nil {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestFailErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.NotFound("review not found"), http.StatusNotFound, "not_found"},
		{apperr.Forbidden("not your assignment"), http.StatusForbidden, "forbidden"},
		{apperr.InvalidOperation("review not active"), http.StatusUnprocessableEntity, "invalid_operation"},
		{apperr.Conflict("already assigned"), http.StatusConflict, "conflict"},
		{apperr.Validation([]apperr.FieldIssue{{Field: "review_period", Reason: "too short"}}), http.StatusBadRequest, "validation_error"},
		{apperr.Internal(errors.New("connection reset")), http.StatusInternalServerError, "internal_error"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		FailError(rec, tc.err, "req")
		if rec.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
		}
		env := decode(t, rec)
		if env.Success || env.Error == nil || env.Error.Code != tc.code {
			t.Fatalf("%v: unexpected envelope %+v", tc.err, env)
		}
	}
}

func TestFailErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	FailError(rec, errors.New("pq: password authentication failed"), "req")
	env := decode(t, rec)
	if env.Error.Message != "internal server error" {
		t.Fatalf("expected opaque message, got %q", env.Error.Message)
	}
}

func TestFailErrorIncludesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	FailError(rec, apperr.Validation([]apperr.FieldIssue{{Field: "b", Reason: "bad"}, {Field: "a", Reason: "bad"}}), "req")
	env := decode(t, rec)
	fields, ok := env.Error.Details["fields"].([]any)
	if !ok || len(fields) != 2 {
		t.Fatalf("expected two field issues, got %+v", env.Error.Details)
	}
	first := fields[0].(map[string]any)
	if first["field"] != "a" {
		t.Fatalf("expected sorted fields, got %v", fields)
	}
}
