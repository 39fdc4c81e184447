package performance

import (
	"context"
	"errors"

	"perfreview/internal/domain/apperr"
	"perfreview/internal/domain/auth"
)

// SubmitFeedback records a reviewer's answers and marks the assignment
// submitted. Checks run in a fixed order: existence, ownership, review
// status, duplicate, answers. Both writes commit together or not at all.
func (s *Service) SubmitFeedback(ctx context.Context, actor auth.UserContext, assignmentID int64, answers Answers) (Feedback, error) {
	var out Feedback
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		assignment, err := tx.LockAssignment(ctx, assignmentID)
		if err != nil {
			return orNotFound(err, "assignment not found")
		}
		if assignment.ReviewerID != actor.UserID {
			return apperr.Forbidden("not your assignment")
		}
		if assignment.ReviewStatus != ReviewStatusActive {
			return apperr.InvalidOperation("review not active")
		}
		_, err = tx.FeedbackByAssignment(ctx, assignmentID)
		switch {
		case err == nil:
			return apperr.Conflict("feedback already submitted")
		case !errors.Is(err, ErrNotFound):
			return internal(err)
		}
		if err := answers.Validate(); err != nil {
			return err
		}
		out, err = tx.CreateFeedback(ctx, assignmentID, answers.Normalize())
		if errors.Is(err, ErrDuplicate) {
			return apperr.Conflict("feedback already submitted")
		}
		if err != nil {
			return internal(err)
		}
		return updateAssignmentStatus(ctx, tx, assignmentID, AssignmentStatusSubmitted)
	})
	if err != nil {
		return Feedback{}, err
	}
	return out, nil
}

// UpdateFeedback lets the reviewer edit submitted answers. The review does
// not have to be active and the assignment status is left alone.
func (s *Service) UpdateFeedback(ctx context.Context, actor auth.UserContext, feedbackID int64, answers Answers) (Feedback, error) {
	var out Feedback
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		current, err := tx.GetFeedback(ctx, feedbackID)
		if err != nil {
			return orNotFound(err, "feedback not found")
		}
		assignment, err := tx.LockAssignment(ctx, current.AssignmentID)
		if err != nil {
			return orNotFound(err, "assignment not found")
		}
		if assignment.ReviewerID != actor.UserID {
			return apperr.Forbidden("not your feedback")
		}
		if _, err := tx.LockFeedback(ctx, feedbackID); err != nil {
			return orNotFound(err, "feedback not found")
		}
		if err := answers.Validate(); err != nil {
			return err
		}
		out, err = tx.UpdateFeedback(ctx, feedbackID, answers.Normalize())
		return orNotFound(err, "feedback not found")
	})
	if err != nil {
		return Feedback{}, err
	}
	return out, nil
}

// DeleteFeedback removes feedback and puts its assignment back to pending so
// the reviewer can submit again.
func (s *Service) DeleteFeedback(ctx context.Context, actor auth.UserContext, feedbackID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.store.InTx(ctx, func(tx StoreAPI) error {
		current, err := tx.GetFeedback(ctx, feedbackID)
		if err != nil {
			return orNotFound(err, "feedback not found")
		}
		if _, err := tx.LockAssignment(ctx, current.AssignmentID); err != nil {
			return orNotFound(err, "assignment not found")
		}
		if _, err := tx.LockFeedback(ctx, feedbackID); err != nil {
			return orNotFound(err, "feedback not found")
		}
		if err := tx.DeleteFeedback(ctx, feedbackID); err != nil {
			return orNotFound(err, "feedback not found")
		}
		return updateAssignmentStatus(ctx, tx, current.AssignmentID, AssignmentStatusPending)
	})
}

func (s *Service) GetFeedback(ctx context.Context, actor auth.UserContext, feedbackID int64) (Feedback, error) {
	out, err := s.store.GetFeedback(ctx, feedbackID)
	if err != nil {
		return Feedback{}, orNotFound(err, "feedback not found")
	}
	assignment, err := s.store.GetAssignment(ctx, out.AssignmentID)
	if err != nil {
		return Feedback{}, orNotFound(err, "assignment not found")
	}
	if err := requireReviewerOrAdmin(actor, assignment.ReviewerID); err != nil {
		return Feedback{}, err
	}
	return out, nil
}

// FeedbackForAssignment returns the feedback on an assignment, or NotFound
// when none was submitted.
func (s *Service) FeedbackForAssignment(ctx context.Context, actor auth.UserContext, assignmentID int64) (Feedback, error) {
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Feedback{}, orNotFound(err, "assignment not found")
	}
	if err := requireReviewerOrAdmin(actor, assignment.ReviewerID); err != nil {
		return Feedback{}, err
	}
	out, err := s.store.FeedbackByAssignment(ctx, assignmentID)
	if err != nil {
		return Feedback{}, orNotFound(err, "no feedback submitted for this assignment")
	}
	return out, nil
}

func (s *Service) ReviewFeedback(ctx context.Context, actor auth.UserContext, reviewID int64) ([]FeedbackView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.store.GetReview(ctx, reviewID); err != nil {
		return nil, orNotFound(err, "review not found")
	}
	out, err := s.store.ListFeedbackByReview(ctx, reviewID)
	if err != nil {
		return nil, internal(err)
	}
	if out == nil {
		out = []FeedbackView{}
	}
	return out, nil
}
