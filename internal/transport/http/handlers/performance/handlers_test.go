package performancehandler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"perfreview/internal/domain/auth"
	"perfreview/internal/domain/performance"
	"perfreview/internal/domain/performance/perftest"
	"perfreview/internal/platform/metrics"
	"perfreview/internal/transport/http/handlers/handlertest"
)

type env struct {
	router    http.Handler
	store     *perftest.Store
	auditor   *handlertest.Auditor
	collector *metrics.Collector
	admin     auth.UserContext
	employee  auth.UserContext
	reviewer  auth.UserContext
	other     auth.UserContext
}

func setup() env {
	store := perftest.New()
	adminID := store.AddUser(perftest.User{Email: "admin@example.com", FirstName: "Ada", LastName: "Admin", Role: auth.RoleAdmin, IsActive: true})
	employeeID := store.AddUser(perftest.User{Email: "emp@example.com", FirstName: "Eve", LastName: "Employee", Role: auth.RoleEmployee, IsActive: true})
	reviewerID := store.AddUser(perftest.User{Email: "rev@example.com", FirstName: "Ray", LastName: "Reviewer", Role: auth.RoleEmployee, IsActive: true})
	otherID := store.AddUser(perftest.User{Email: "oth@example.com", FirstName: "Oli", LastName: "Other", Role: auth.RoleEmployee, IsActive: true})

	auditor := &handlertest.Auditor{}
	collector := metrics.New()
	r := handlertest.Router()
	NewHandler(performance.NewService(store), auth.StaticPermissions{}, auditor, collector).RegisterRoutes(r)
	return env{
		router:    r,
		store:     store,
		auditor:   auditor,
		collector: collector,
		admin:     auth.UserContext{UserID: adminID, Role: auth.RoleAdmin},
		employee:  auth.UserContext{UserID: employeeID, Role: auth.RoleEmployee},
		reviewer:  auth.UserContext{UserID: reviewerID, Role: auth.RoleEmployee},
		other:     auth.UserContext{UserID: otherID, Role: auth.RoleEmployee},
	}
}

func (e env) mustID(t *testing.T, method, path string, user auth.UserContext, body any) int64 {
	t.Helper()
	rec, out := handlertest.Do(t, e.router, method, path, &user, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("%s %s: expected 201, got %d: %s", method, path, rec.Code, rec.Body.String())
	}
	return int64(out.Data.(map[string]any)["id"].(float64))
}

func validAnswers() map[string]any {
	return map[string]any{
		"strengths":             "Clear communicator in reviews",
		"areas_for_improvement": "Could delegate more often",
		"overall_rating":        4,
	}
}

func TestFeedbackJourney(t *testing.T) {
	e := setup()

	reviewID := e.mustID(t, http.MethodPost, "/reviews", e.admin, map[string]any{"employee_id": e.employee.UserID, "review_period": "Q1 2024", "status": "active"})
	assignmentID := e.mustID(t, http.MethodPost, "/assignments", e.admin, map[string]any{"review_id": reviewID, "reviewer_id": e.reviewer.UserID})

	rec, out := handlertest.Do(t, e.router, http.MethodGet, "/assignments/my-assignments", &e.reviewer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	mine := out.Data.([]any)
	if len(mine) != 1 || mine[0].(map[string]any)["hasFeedback"] != false {
		t.Fatalf("unexpected assignments %v", mine)
	}

	feedbackID := e.mustID(t, http.MethodPost, "/feedback", e.reviewer, map[string]any{"assignment_id": assignmentID, "answers": validAnswers()})

	rec, out = handlertest.Do(t, e.router, http.MethodGet, "/feedback/my-assignments", &e.reviewer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	first := out.Data.([]any)[0].(map[string]any)
	if first["hasFeedback"] != true || first["feedbackId"] != float64(feedbackID) || first["status"] != performance.AssignmentStatusSubmitted {
		t.Fatalf("expected submitted assignment with feedback, got %v", first)
	}

	rec, out = handlertest.Do(t, e.router, http.MethodPost, "/feedback", &e.reviewer, map[string]any{"assignment_id": assignmentID, "answers": validAnswers()})
	if rec.Code != http.StatusConflict || handlertest.ErrorCode(out) != "conflict" {
		t.Fatalf("expected duplicate submit conflict, got %d %+v", rec.Code, out.Error)
	}

	rec, out = handlertest.Do(t, e.router, http.MethodGet, fmt.Sprintf("/feedback/assignment/%d", assignmentID), &e.reviewer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if out.Data.(map[string]any)["feedback"] == nil {
		t.Fatal("expected feedback on assignment detail")
	}

	rec, _ = handlertest.Do(t, e.router, http.MethodGet, fmt.Sprintf("/feedback/assignment/%d", assignmentID), &e.other, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another employee, got %d", rec.Code)
	}

	rec, out = handlertest.Do(t, e.router, http.MethodGet, fmt.Sprintf("/feedback/review/%d", reviewID), &e.admin, nil)
	if rec.Code != http.StatusOK || len(out.Data.([]any)) != 1 {
		t.Fatalf("expected one feedback row, got %d %v", rec.Code, out.Data)
	}

	rec, out = handlertest.Do(t, e.router, http.MethodGet, fmt.Sprintf("/assignments/review/%d", reviewID), &e.admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	stats := out.Data.(map[string]any)["stats"].(map[string]any)
	if stats["submitted"] != float64(1) || stats["pending"] != float64(0) {
		t.Fatalf("unexpected stats %v", stats)
	}

	rec, _ = handlertest.Do(t, e.router, http.MethodDelete, fmt.Sprintf("/feedback/%d", feedbackID), &e.admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	assignment, ok := e.store.Assignment(assignmentID)
	if !ok || assignment.Status != performance.AssignmentStatusPending {
		t.Fatalf("expected reopened assignment, got %+v", assignment)
	}

	want := []string{"review.create", "assignment.create", "feedback.delete"}
	if got := e.auditor.Actions(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected audit %v, got %v", want, got)
	}
	events := e.collector.Snapshot()["events"].(map[string]uint64)
	if events[metrics.EventFeedbackSubmitted] != 1 || events[metrics.EventFeedbackReopened] != 1 {
		t.Fatalf("unexpected counters %v", events)
	}
}

func TestRoleGates(t *testing.T) {
	e := setup()

	cases := []struct {
		name   string
		method string
		path   string
		user   *auth.UserContext
		status int
	}{
		{"anonymous list", http.MethodGet, "/reviews", nil, http.StatusUnauthorized},
		{"employee list", http.MethodGet, "/reviews", &e.employee, http.StatusForbidden},
		{"employee stats", http.MethodGet, "/reviews/stats", &e.employee, http.StatusForbidden},
		{"employee assign", http.MethodPost, "/assignments", &e.employee, http.StatusForbidden},
		{"admin my assignments", http.MethodGet, "/assignments/my-assignments", &e.admin, http.StatusForbidden},
		{"admin submit", http.MethodPost, "/feedback", &e.admin, http.StatusForbidden},
		{"employee delete feedback", http.MethodDelete, "/feedback/1", &e.reviewer, http.StatusForbidden},
		{"admin stats", http.MethodGet, "/reviews/stats", &e.admin, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := handlertest.Do(t, e.router, tc.method, tc.path, tc.user, map[string]any{})
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestReviewErrors(t *testing.T) {
	e := setup()

	rec, out := handlertest.Do(t, e.router, http.MethodPost, "/reviews", &e.admin, map[string]any{"review_period": "Q", "status": "archived"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if fields := out.Error.Details["fields"].([]any); len(fields) != 3 {
		t.Fatalf("expected three field issues, got %v", fields)
	}

	rec, out = handlertest.Do(t, e.router, http.MethodPost, "/reviews", &e.admin, map[string]any{"employee_id": 999, "review_period": "Q1 2024"})
	if rec.Code != http.StatusNotFound || handlertest.ErrorCode(out) != "not_found" {
		t.Fatalf("expected 404 for unknown employee, got %d %+v", rec.Code, out.Error)
	}

	rec, _ = handlertest.Do(t, e.router, http.MethodPost, "/reviews", &e.admin, `{"employee_id": "two"`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", rec.Code)
	}

	reviewID := e.mustID(t, http.MethodPost, "/reviews", e.admin, map[string]any{"employee_id": e.employee.UserID, "review_period": "Q2 2024"})

	rec, out = handlertest.Do(t, e.router, http.MethodPost, "/assignments", &e.admin, map[string]any{"review_id": reviewID, "reviewer_id": e.employee.UserID})
	if rec.Code != http.StatusUnprocessableEntity || handlertest.ErrorCode(out) != "invalid_operation" {
		t.Fatalf("expected self review rejection, got %d %+v", rec.Code, out.Error)
	}

	rec, out = handlertest.Do(t, e.router, http.MethodPut, fmt.Sprintf("/reviews/%d", reviewID), &e.admin, map[string]any{"status": "active"})
	if rec.Code != http.StatusOK || out.Data.(map[string]any)["status"] != "active" {
		t.Fatalf("expected activation, got %d %v", rec.Code, out.Data)
	}

	e.mustID(t, http.MethodPost, "/assignments", e.admin, map[string]any{"review_id": reviewID, "reviewer_id": e.reviewer.UserID})
	rec, out = handlertest.Do(t, e.router, http.MethodDelete, fmt.Sprintf("/reviews/%d", reviewID), &e.admin, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected delete with assignments to be rejected, got %d %+v", rec.Code, out.Error)
	}

	rec, _ = handlertest.Do(t, e.router, http.MethodGet, "/reviews/404", &e.admin, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSubmitValidation(t *testing.T) {
	e := setup()
	reviewID := e.mustID(t, http.MethodPost, "/reviews", e.admin, map[string]any{"employee_id": e.employee.UserID, "review_period": "Q3 2024", "status": "active"})
	assignmentID := e.mustID(t, http.MethodPost, "/assignments", e.admin, map[string]any{"review_id": reviewID, "reviewer_id": e.reviewer.UserID})

	rec, out := handlertest.Do(t, e.router, http.MethodPost, "/feedback", &e.reviewer, map[string]any{
		"assignment_id": assignmentID,
		"answers":       map[string]any{"strengths": "short", "overall_rating": 9},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if fields := out.Error.Details["fields"].([]any); len(fields) != 3 {
		t.Fatalf("expected every invalid answer field, got %v", fields)
	}

	rec, _ = handlertest.Do(t, e.router, http.MethodPost, "/feedback", &e.other, map[string]any{"assignment_id": assignmentID, "answers": validAnswers()})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", rec.Code)
	}

	rec, _ = handlertest.Do(t, e.router, http.MethodPost, "/feedback", &e.reviewer, map[string]any{"assignment_id": 999, "answers": validAnswers()})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown assignment, got %d", rec.Code)
	}
	if e.store.FeedbackCount() != 0 {
		t.Fatal("expected no feedback rows")
	}
}

func TestSubmitValidationListsEveryField(t *testing.T) {
	e := setup()
	rec, out := handlertest.Do(t, e.router, http.MethodPost, "/feedback", &e.reviewer, map[string]any{
		"assignment_id": 0,
		"answers":       map[string]any{"strengths": 5},
	})
	if rec.Code != http.StatusBadRequest || handlertest.ErrorCode(out) != "validation_error" {
		t.Fatalf("expected 400 validation_error, got %d %s", rec.Code, rec.Body.String())
	}
	got := map[string]bool{}
	for _, raw := range out.Error.Details["fields"].([]any) {
		got[raw.(map[string]any)["field"].(string)] = true
	}
	want := []string{"assignment_id", "answers.strengths", "answers.areas_for_improvement", "answers.overall_rating"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for _, field := range want {
		if !got[field] {
			t.Fatalf("expected %s in %v", field, got)
		}
	}
}

func TestUpdateFeedbackByOwner(t *testing.T) {
	e := setup()
	reviewID := e.mustID(t, http.MethodPost, "/reviews", e.admin, map[string]any{"employee_id": e.employee.UserID, "review_period": "Q4 2024", "status": "active"})
	assignmentID := e.mustID(t, http.MethodPost, "/assignments", e.admin, map[string]any{"review_id": reviewID, "reviewer_id": e.reviewer.UserID})
	feedbackID := e.mustID(t, http.MethodPost, "/feedback", e.reviewer, map[string]any{"assignment_id": assignmentID, "answers": validAnswers()})

	changed := validAnswers()
	changed["overall_rating"] = 5
	rec, out := handlertest.Do(t, e.router, http.MethodPut, fmt.Sprintf("/feedback/%d", feedbackID), &e.reviewer, map[string]any{"answers": changed})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	answers := out.Data.(map[string]any)["answers"].(map[string]any)
	if answers["overall_rating"] != float64(5) {
		t.Fatalf("expected updated rating, got %v", answers)
	}

	rec, _ = handlertest.Do(t, e.router, http.MethodPut, fmt.Sprintf("/feedback/%d", feedbackID), &e.other, map[string]any{"answers": changed})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec, out = handlertest.Do(t, e.router, http.MethodGet, fmt.Sprintf("/feedback/assignment/%d/feedback", assignmentID), &e.admin, nil)
	if rec.Code != http.StatusOK || out.Data.(map[string]any)["id"] != float64(feedbackID) {
		t.Fatalf("expected feedback for admin, got %d %v", rec.Code, out.Data)
	}
}

func TestReviewReportPDF(t *testing.T) {
	e := setup()
	reviewID := e.mustID(t, http.MethodPost, "/reviews", e.admin, map[string]any{"employee_id": e.employee.UserID, "review_period": "H1 2025", "status": "active"})

	rec, _ := handlertest.Do(t, e.router, http.MethodGet, fmt.Sprintf("/reviews/%d/report.pdf", reviewID), &e.admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("expected pdf body")
	}
}
