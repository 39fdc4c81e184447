package users

import (
	"context"
	"errors"
	"testing"

	"perfreview/internal/domain/apperr"
	"perfreview/internal/domain/auth"
	"perfreview/internal/testutil"
)

func TestStorePostgres(t *testing.T) {
	pool := testutil.Pool(t)
	store := NewStore(pool)
	ctx := context.Background()

	created, err := store.Create(ctx, CreateInput{Email: "a@example.com", FirstName: "Ann", LastName: "Able", Role: auth.RoleEmployee}, "hash", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.IsActive {
		t.Fatal("expected inactive user")
	}

	if _, err := store.Create(ctx, CreateInput{Email: "a@example.com", FirstName: "Ann", LastName: "Able", Role: auth.RoleEmployee}, "hash", true); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	last := "Baker"
	updated, err := store.Update(ctx, created.ID, Changes{LastName: &last})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.LastName != "Baker" || updated.FirstName != "Ann" {
		t.Fatalf("unexpected update result %+v", updated)
	}

	activated, err := store.SetActive(ctx, created.ID, true)
	if err != nil || !activated.IsActive {
		t.Fatalf("activate: %+v %v", activated, err)
	}

	adminID := testutil.CreateUser(t, pool, "root@example.com", auth.RoleAdmin, true)
	if _, err := pool.Exec(ctx, `
    INSERT INTO performance_reviews (employee_id, review_period, created_by) VALUES ($1, 'Q1 2024', $2)
  `, created.ID, adminID); err != nil {
		t.Fatalf("insert review: %v", err)
	}
	if err := store.Delete(ctx, created.ID); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse for referenced user, got %v", err)
	}

	svc := NewService(store)
	actor := auth.UserContext{UserID: adminID, Role: auth.RoleAdmin}
	promote := UpdateInput{Role: strPtr(auth.RoleAdmin)}
	if _, err := svc.Update(ctx, actor, created.ID, promote); apperr.KindOf(err) != apperr.KindInvalidOperation {
		t.Fatalf("expected invalid operation promoting a reviewed employee, got %v", err)
	}
	if u, _ := store.Get(ctx, created.ID); u.Role != auth.RoleEmployee {
		t.Fatalf("expected role unchanged, got %q", u.Role)
	}

	reviewerID := testutil.CreateUser(t, pool, "rev@example.com", auth.RoleEmployee, true)
	if _, err := pool.Exec(ctx, `
    INSERT INTO review_assignments (review_id, reviewer_id)
    SELECT id, $1 FROM performance_reviews WHERE employee_id = $2
  `, reviewerID, created.ID); err != nil {
		t.Fatalf("insert assignment: %v", err)
	}
	if _, err := svc.Update(ctx, actor, reviewerID, promote); apperr.KindOf(err) != apperr.KindInvalidOperation {
		t.Fatalf("expected invalid operation promoting an assigned reviewer, got %v", err)
	}

	freeID := testutil.CreateUser(t, pool, "free@example.com", auth.RoleEmployee, true)
	promoted, err := svc.Update(ctx, actor, freeID, promote)
	if err != nil || promoted.Role != auth.RoleAdmin {
		t.Fatalf("expected unreferenced employee to be promoted, got %+v %v", promoted, err)
	}

	if err := store.Delete(ctx, 999999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
