package performance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"perfreview/internal/domain/apperr"
	"perfreview/internal/domain/auth"
)

func validatePeriod(issues *apperr.Issues, period string) {
	if utf8.RuneCountInString(period) < MinReviewPeriodLength {
		issues.Add("review_period", fmt.Sprintf("must be at least %d characters", MinReviewPeriodLength))
	}
}

func validateStatus(issues *apperr.Issues, status string) {
	if !ValidReviewStatus(status) {
		issues.Add("status", "must be draft, active, or completed")
	}
}

func (s *Service) CreateReview(ctx context.Context, actor auth.UserContext, in CreateReviewInput) (Review, error) {
	if err := requireAdmin(actor); err != nil {
		return Review{}, err
	}
	period := strings.TrimSpace(in.ReviewPeriod)
	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" {
		status = ReviewStatusDraft
	}
	var issues apperr.Issues
	if in.EmployeeID <= 0 {
		issues.Add("employee_id", "is required")
	}
	validatePeriod(&issues, period)
	validateStatus(&issues, status)
	if err := issues.Err(); err != nil {
		return Review{}, err
	}

	var out Review
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		ref, err := tx.UserRef(ctx, in.EmployeeID)
		if err := checkEmployee(ref, err, "employee"); err != nil {
			return err
		}
		out, err = tx.CreateReview(ctx, Review{EmployeeID: in.EmployeeID, ReviewPeriod: period, Status: status, CreatedBy: actor.UserID})
		return internal(err)
	})
	return out, err
}

// UpdateReview changes only the supplied fields. A new employee is checked
// like on create, and may not already be a reviewer on the same cycle.
func (s *Service) UpdateReview(ctx context.Context, actor auth.UserContext, reviewID int64, in ReviewUpdate) (Review, error) {
	if err := requireAdmin(actor); err != nil {
		return Review{}, err
	}
	var issues apperr.Issues
	if in.Empty() {
		issues.Add("body", "no fields to update")
		return Review{}, issues.Err()
	}
	var period, status string
	if in.ReviewPeriod != nil {
		period = strings.TrimSpace(*in.ReviewPeriod)
		validatePeriod(&issues, period)
	}
	if in.Status != nil {
		status = strings.ToLower(strings.TrimSpace(*in.Status))
		validateStatus(&issues, status)
	}
	if in.EmployeeID != nil && *in.EmployeeID <= 0 {
		issues.Add("employee_id", "must be a positive integer")
	}
	if err := issues.Err(); err != nil {
		return Review{}, err
	}

	var out Review
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		current, err := tx.LockReview(ctx, reviewID)
		if err != nil {
			return orNotFound(err, "review not found")
		}
		next := current
		if in.ReviewPeriod != nil {
			next.ReviewPeriod = period
		}
		if in.Status != nil {
			next.Status = status
		}
		if in.EmployeeID != nil && *in.EmployeeID != current.EmployeeID {
			ref, err := tx.UserRef(ctx, *in.EmployeeID)
			if err := checkEmployee(ref, err, "employee"); err != nil {
				return err
			}
			assigned, err := tx.AssignmentExists(ctx, reviewID, *in.EmployeeID)
			if err != nil {
				return internal(err)
			}
			if assigned {
				return apperr.InvalidOperation("cannot review self: employee is already a reviewer on this review")
			}
			next.EmployeeID = *in.EmployeeID
		}
		out, err = tx.UpdateReview(ctx, next)
		return orNotFound(err, "review not found")
	})
	return out, err
}

// DeleteReview refuses to remove a cycle that still has assignments; they
// have to be removed first.
func (s *Service) DeleteReview(ctx context.Context, actor auth.UserContext, reviewID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.store.InTx(ctx, func(tx StoreAPI) error {
		if _, err := tx.LockReview(ctx, reviewID); err != nil {
			return orNotFound(err, "review not found")
		}
		count, err := tx.CountAssignments(ctx, reviewID)
		if err != nil {
			return internal(err)
		}
		if count > 0 {
			return apperr.InvalidOperation("cannot delete review with %d assignment(s); remove them first", count)
		}
		err = tx.DeleteReview(ctx, reviewID)
		if errors.Is(err, ErrInUse) {
			return apperr.InvalidOperation("cannot delete review with assignments; remove them first")
		}
		return orNotFound(err, "review not found")
	})
}

func (s *Service) GetReview(ctx context.Context, actor auth.UserContext, reviewID int64) (ReviewView, error) {
	if err := requireAdmin(actor); err != nil {
		return ReviewView{}, err
	}
	out, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return ReviewView{}, orNotFound(err, "review not found")
	}
	return out, nil
}

func (s *Service) ListReviews(ctx context.Context, actor auth.UserContext) ([]ReviewView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	out, err := s.store.ListReviews(ctx)
	return out, internal(err)
}

func (s *Service) ReviewStats(ctx context.Context, actor auth.UserContext) (ReviewStats, error) {
	if err := requireAdmin(actor); err != nil {
		return ReviewStats{}, err
	}
	out, err := s.store.ReviewStats(ctx)
	return out, internal(err)
}
