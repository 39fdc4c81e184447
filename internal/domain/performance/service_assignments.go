package performance

import (
	"context"
	"errors"

	"perfreview/internal/domain/apperr"
	"perfreview/internal/domain/auth"
)

// CreateAssignment links a reviewer to a review. The review row is locked for
// the duration so its employee cannot change between the self-review check
// and the insert. The pre-check only produces the friendly message; the
// unique key decides races.
func (s *Service) CreateAssignment(ctx context.Context, actor auth.UserContext, reviewID, reviewerID int64) (Assignment, error) {
	if err := requireAdmin(actor); err != nil {
		return Assignment{}, err
	}
	var issues apperr.Issues
	if reviewID <= 0 {
		issues.Add("review_id", "is required")
	}
	if reviewerID <= 0 {
		issues.Add("reviewer_id", "is required")
	}
	if err := issues.Err(); err != nil {
		return Assignment{}, err
	}

	var out Assignment
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		review, err := tx.LockReview(ctx, reviewID)
		if err != nil {
			return orNotFound(err, "review not found")
		}
		ref, err := tx.UserRef(ctx, reviewerID)
		if err := checkEmployee(ref, err, "reviewer"); err != nil {
			return err
		}
		if reviewerID == review.EmployeeID {
			return apperr.InvalidOperation("cannot review self")
		}
		exists, err := tx.AssignmentExists(ctx, reviewID, reviewerID)
		if err != nil {
			return internal(err)
		}
		if exists {
			return apperr.Conflict("reviewer already assigned to this review")
		}
		out, err = tx.CreateAssignment(ctx, reviewID, reviewerID)
		if errors.Is(err, ErrDuplicate) {
			return apperr.Conflict("reviewer already assigned to this review")
		}
		return internal(err)
	})
	return out, err
}

// DeleteAssignment only removes assignments nobody has answered yet.
func (s *Service) DeleteAssignment(ctx context.Context, actor auth.UserContext, assignmentID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.store.InTx(ctx, func(tx StoreAPI) error {
		assignment, err := tx.LockAssignment(ctx, assignmentID)
		if err != nil {
			return orNotFound(err, "assignment not found")
		}
		_, err = tx.FeedbackByAssignment(ctx, assignmentID)
		switch {
		case err == nil:
			return apperr.InvalidOperation("cannot remove assignment: feedback already submitted")
		case !errors.Is(err, ErrNotFound):
			return internal(err)
		}
		if assignment.Status == AssignmentStatusSubmitted {
			return apperr.InvalidOperation("cannot remove assignment: feedback already submitted")
		}
		err = tx.DeleteAssignment(ctx, assignmentID)
		if errors.Is(err, ErrInUse) {
			return apperr.InvalidOperation("cannot remove assignment: feedback already submitted")
		}
		return orNotFound(err, "assignment not found")
	})
}

// updateAssignmentStatus is the only path that changes an assignment's
// status. It must run inside the transaction that changes the feedback.
func updateAssignmentStatus(ctx context.Context, tx StoreAPI, assignmentID int64, status string) error {
	if err := tx.SetAssignmentStatus(ctx, assignmentID, status); err != nil {
		return orNotFound(err, "assignment not found")
	}
	return nil
}

// ReviewAssignments lists a review's assignments with their stats.
func (s *Service) ReviewAssignments(ctx context.Context, actor auth.UserContext, reviewID int64) (ReviewAssignments, error) {
	if err := requireAdmin(actor); err != nil {
		return ReviewAssignments{}, err
	}
	if _, err := s.store.GetReview(ctx, reviewID); err != nil {
		return ReviewAssignments{}, orNotFound(err, "review not found")
	}
	list, err := s.store.ListAssignmentsByReview(ctx, reviewID)
	if err != nil {
		return ReviewAssignments{}, internal(err)
	}
	stats, err := s.store.AssignmentStats(ctx, reviewID)
	if err != nil {
		return ReviewAssignments{}, internal(err)
	}
	if list == nil {
		list = []AssignmentView{}
	}
	return ReviewAssignments{Assignments: list, Stats: stats}, nil
}

// MyAssignments lists what the caller has to review, with feedback markers.
func (s *Service) MyAssignments(ctx context.Context, actor auth.UserContext) ([]AssignmentView, error) {
	if actor.UserID <= 0 {
		return nil, apperr.Forbidden("authentication required")
	}
	out, err := s.store.ListAssignmentsByReviewer(ctx, actor.UserID)
	if err != nil {
		return nil, internal(err)
	}
	if out == nil {
		out = []AssignmentView{}
	}
	return out, nil
}

// GetAssignment returns one assignment with its feedback, if any, to its
// reviewer or an admin.
func (s *Service) GetAssignment(ctx context.Context, actor auth.UserContext, assignmentID int64) (AssignmentDetail, error) {
	view, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return AssignmentDetail{}, orNotFound(err, "assignment not found")
	}
	if err := requireReviewerOrAdmin(actor, view.ReviewerID); err != nil {
		return AssignmentDetail{}, err
	}
	detail := AssignmentDetail{AssignmentView: view}
	feedback, err := s.store.FeedbackByAssignment(ctx, assignmentID)
	switch {
	case err == nil:
		detail.Feedback = &feedback
	case !errors.Is(err, ErrNotFound):
		return AssignmentDetail{}, internal(err)
	}
	return detail, nil
}

func (s *Service) AssignmentStats(ctx context.Context, actor auth.UserContext, reviewID int64) (AssignmentStats, error) {
	if err := requireAdmin(actor); err != nil {
		return AssignmentStats{}, err
	}
	out, err := s.store.AssignmentStats(ctx, reviewID)
	return out, internal(err)
}
