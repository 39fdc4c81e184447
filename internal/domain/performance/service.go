package performance

import (
	"errors"

	"perfreview/internal/domain/apperr"
	"perfreview/internal/domain/auth"
)

// Service owns the review cycle, assignment and feedback lifecycle. Every
// operation takes the acting user and checks role and ownership itself, so
// callers other than the HTTP layer get the same guarantees.
type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func requireAdmin(actor auth.UserContext) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("admin role required")
	}
	return nil
}

// requireReviewerOrAdmin lets admins read anything and reviewers read what
// is assigned to them.
func requireReviewerOrAdmin(actor auth.UserContext, reviewerID int64) error {
	if actor.IsAdmin() || actor.UserID == reviewerID {
		return nil
	}
	return apperr.Forbidden("not your assignment")
}

// internal wraps unexpected store failures. Errors that already carry a kind
// pass through untouched.
func internal(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal(err)
}

func orNotFound(err error, format string, args ...any) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound(format, args...)
	}
	return internal(err)
}

// checkEmployee resolves a user who may be reviewed or may review: the user
// must exist with the employee role and be active.
func checkEmployee(ref UserRef, err error, label string) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("%s not found", label)
	}
	if err != nil {
		return internal(err)
	}
	if ref.Role != auth.RoleEmployee {
		return apperr.NotFound("%s not found", label)
	}
	if !ref.IsActive {
		return apperr.InvalidOperation("%s is not active", label)
	}
	return nil
}
