package users

import (
	"context"
	"errors"
	"strings"

	"perfreview/internal/domain/apperr"
	"perfreview/internal/domain/auth"
)

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

func translate(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("user not found")
	case errors.Is(err, ErrDuplicate):
		return apperr.Conflict("email already in use")
	case errors.Is(err, ErrInUse):
		return apperr.InvalidOperation("user is referenced by reviews or assignments")
	}
	return apperr.Internal(err)
}

func (s *Service) List(ctx context.Context, actor auth.UserContext) ([]User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	out, err := s.store.List(ctx)
	return out, translate(err)
}

func (s *Service) Get(ctx context.Context, actor auth.UserContext, id int64) (User, error) {
	if err := requireAdmin(actor); err != nil {
		return User{}, err
	}
	u, err := s.store.Get(ctx, id)
	return u, translate(err)
}

// Create adds an account on behalf of an admin. Role defaults to employee and
// the account is active unless the caller says otherwise.
func (s *Service) Create(ctx context.Context, actor auth.UserContext, in CreateInput) (User, error) {
	if err := requireAdmin(actor); err != nil {
		return User{}, err
	}
	in.Email = auth.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.Role == "" {
		in.Role = auth.RoleEmployee
	}

	var issues apperr.Issues
	auth.ValidateEmail(&issues, "email", in.Email)
	auth.ValidatePassword(&issues, "password", in.Password)
	auth.ValidateName(&issues, "first_name", in.FirstName)
	auth.ValidateName(&issues, "last_name", in.LastName)
	if !auth.ValidRole(in.Role) {
		issues.Add("role", "must be either admin or employee")
	}
	if err := issues.Err(); err != nil {
		return User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, apperr.Internal(err)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	u, err := s.store.Create(ctx, in, hash, active)
	return u, translate(err)
}

func (s *Service) Update(ctx context.Context, actor auth.UserContext, id int64, in UpdateInput) (User, error) {
	if err := requireAdmin(actor); err != nil {
		return User{}, err
	}
	var issues apperr.Issues
	if in.Empty() {
		issues.Add("body", "no fields to update")
		return User{}, issues.Err()
	}

	var c Changes
	if in.Email != nil {
		email := auth.NormalizeEmail(*in.Email)
		auth.ValidateEmail(&issues, "email", email)
		c.Email = &email
	}
	if in.FirstName != nil {
		name := strings.TrimSpace(*in.FirstName)
		auth.ValidateName(&issues, "first_name", name)
		c.FirstName = &name
	}
	if in.LastName != nil {
		name := strings.TrimSpace(*in.LastName)
		auth.ValidateName(&issues, "last_name", name)
		c.LastName = &name
	}
	if in.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*in.Role))
		if !auth.ValidRole(role) {
			issues.Add("role", "must be either admin or employee")
		}
		c.Role = &role
	}
	if in.Password != nil {
		auth.ValidatePassword(&issues, "password", *in.Password)
	}
	if err := issues.Err(); err != nil {
		return User{}, err
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return User{}, apperr.Internal(err)
		}
		c.PasswordHash = &hash
	}

	if c.Role == nil || *c.Role == auth.RoleEmployee {
		u, err := s.store.Update(ctx, id, c)
		return u, translate(err)
	}

	// Reviews and assignments may only reference employees.
	var out User
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Role == auth.RoleEmployee {
			inReviews, err := tx.InReviews(ctx, id)
			if err != nil {
				return err
			}
			if inReviews {
				return apperr.InvalidOperation("user is the employee or reviewer on existing reviews and must remain an employee")
			}
		}
		out, err = tx.Update(ctx, id, c)
		return err
	})
	return out, translate(err)
}

func (s *Service) SetActive(ctx context.Context, actor auth.UserContext, id int64, active bool) (User, error) {
	if err := requireAdmin(actor); err != nil {
		return User{}, err
	}
	if !active && actor.UserID == id {
		return User{}, apperr.InvalidOperation("you cannot deactivate your own account")
	}
	u, err := s.store.SetActive(ctx, id, active)
	return u, translate(err)
}

// Delete hard-deletes an account. Users referenced by reviews, assignments
// or created cycles are kept by the foreign keys and reported as an invalid
// operation.
func (s *Service) Delete(ctx context.Context, actor auth.UserContext, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.UserID == id {
		return apperr.InvalidOperation("you cannot delete your own account")
	}
	return translate(s.store.Delete(ctx, id))
}
