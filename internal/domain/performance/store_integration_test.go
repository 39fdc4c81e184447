package performance_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"perfreview/internal/domain/apperr"
	"perfreview/internal/domain/auth"
	"perfreview/internal/domain/performance"
	"perfreview/internal/testutil"
)

type pgFixture struct {
	store    *performance.Store
	svc      *performance.Service
	admin    auth.UserContext
	employee int64
	reviewer auth.UserContext
}

func newPGFixture(t *testing.T) pgFixture {
	t.Helper()
	pool := testutil.Pool(t)
	store := performance.NewStore(pool)
	adminID := testutil.CreateUser(t, pool, "admin@example.com", auth.RoleAdmin, true)
	employeeID := testutil.CreateUser(t, pool, "emp@example.com", auth.RoleEmployee, true)
	reviewerID := testutil.CreateUser(t, pool, "rev@example.com", auth.RoleEmployee, true)
	return pgFixture{
		store:    store,
		svc:      performance.NewService(store),
		admin:    auth.UserContext{UserID: adminID, Role: auth.RoleAdmin},
		employee: employeeID,
		reviewer: auth.UserContext{UserID: reviewerID, Role: auth.RoleEmployee},
	}
}

func TestPostgresLifecycle(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	review, err := f.svc.CreateReview(ctx, f.admin, performance.CreateReviewInput{EmployeeID: f.employee, ReviewPeriod: "Q1 2024", Status: performance.ReviewStatusActive})
	if err != nil {
		t.Fatalf("create review: %v", err)
	}
	assignment, err := f.svc.CreateAssignment(ctx, f.admin, review.ID, f.reviewer.UserID)
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}

	feedback, err := f.svc.SubmitFeedback(ctx, f.reviewer, assignment.ID, validAnswers())
	if err != nil {
		t.Fatalf("submit feedback: %v", err)
	}
	detail, err := f.svc.GetAssignment(ctx, f.reviewer, assignment.ID)
	if err != nil {
		t.Fatalf("get assignment: %v", err)
	}
	if detail.Status != performance.AssignmentStatusSubmitted {
		t.Fatalf("expected submitted, got %s", detail.Status)
	}
	if detail.Feedback == nil || detail.Feedback.Answers.OverallRating != 4 {
		t.Fatalf("expected decoded feedback, got %+v", detail.Feedback)
	}

	if _, err := f.store.CreateFeedback(ctx, assignment.ID, validAnswers()); !errors.Is(err, performance.ErrDuplicate) {
		t.Fatalf("expected unique violation to map to ErrDuplicate, got %v", err)
	}

	if err := f.svc.DeleteFeedback(ctx, f.admin, feedback.ID); err != nil {
		t.Fatalf("delete feedback: %v", err)
	}
	view, err := f.store.GetAssignment(ctx, assignment.ID)
	if err != nil {
		t.Fatalf("get assignment view: %v", err)
	}
	if view.Status != performance.AssignmentStatusPending || view.HasFeedback {
		t.Fatalf("expected reopened assignment, got %+v", view)
	}

	err = f.svc.DeleteReview(ctx, f.admin, review.ID)
	expectKind(t, err, apperr.KindInvalidOperation)
}

func TestPostgresConcurrentAssignmentCreate(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	review, err := f.svc.CreateReview(ctx, f.admin, performance.CreateReviewInput{EmployeeID: f.employee, ReviewPeriod: "Q2 2024"})
	if err != nil {
		t.Fatalf("create review: %v", err)
	}

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateAssignment(ctx, f.admin, review.ID, f.reviewer.UserID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case apperr.KindOf(err) == apperr.KindConflict:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || conflicts != workers-1 {
		t.Fatalf("expected 1 create and %d conflicts, got %d and %d", workers-1, created, conflicts)
	}
	count, err := f.store.CountAssignments(ctx, review.ID)
	if err != nil {
		t.Fatalf("count assignments: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row, got %d", count)
	}
}
