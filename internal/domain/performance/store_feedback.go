package performance

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
)

const feedbackColumns = "id, assignment_id, answers, submitted_at, updated_at"

func scanFeedback(row pgx.Row) (Feedback, error) {
	var f Feedback
	var answers []byte
	if err := row.Scan(&f.ID, &f.AssignmentID, &answers, &f.SubmittedAt, &f.UpdatedAt); err != nil {
		return Feedback{}, err
	}
	if err := json.Unmarshal(answers, &f.Answers); err != nil {
		return Feedback{}, err
	}
	return f, nil
}

// CreateFeedback relies on feedback_assignment_key; a second row for the
// same assignment surfaces as ErrDuplicate.
func (s *Store) CreateFeedback(ctx context.Context, assignmentID int64, answers Answers) (Feedback, error) {
	payload, err := json.Marshal(answers)
	if err != nil {
		return Feedback{}, err
	}
	out, err := scanFeedback(s.DB.QueryRow(ctx, `
    INSERT INTO feedback (assignment_id, answers)
    VALUES ($1,$2)
    RETURNING `+feedbackColumns, assignmentID, payload))
	return out, writeErr(err)
}

func (s *Store) GetFeedback(ctx context.Context, feedbackID int64) (Feedback, error) {
	out, err := scanFeedback(s.DB.QueryRow(ctx, "SELECT "+feedbackColumns+" FROM feedback WHERE id = $1", feedbackID))
	return out, notFound(err)
}

func (s *Store) LockFeedback(ctx context.Context, feedbackID int64) (Feedback, error) {
	out, err := scanFeedback(s.DB.QueryRow(ctx, "SELECT "+feedbackColumns+" FROM feedback WHERE id = $1 FOR UPDATE", feedbackID))
	return out, notFound(err)
}

func (s *Store) FeedbackByAssignment(ctx context.Context, assignmentID int64) (Feedback, error) {
	out, err := scanFeedback(s.DB.QueryRow(ctx, "SELECT "+feedbackColumns+" FROM feedback WHERE assignment_id = $1", assignmentID))
	return out, notFound(err)
}

func (s *Store) ListFeedbackByReview(ctx context.Context, reviewID int64) ([]FeedbackView, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT f.id, f.assignment_id, f.answers, f.submitted_at, f.updated_at,
           ra.review_id, ra.reviewer_id, u.first_name, u.last_name, u.email
    FROM feedback f
    JOIN review_assignments ra ON ra.id = f.assignment_id
    JOIN users u ON u.id = ra.reviewer_id
    WHERE ra.review_id = $1
    ORDER BY f.submitted_at DESC, f.id DESC
  `, reviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FeedbackView
	for rows.Next() {
		var v FeedbackView
		var answers []byte
		if err := rows.Scan(&v.ID, &v.AssignmentID, &answers, &v.SubmittedAt, &v.UpdatedAt,
			&v.ReviewID, &v.ReviewerID, &v.ReviewerFirstName, &v.ReviewerLastName, &v.ReviewerEmail); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answers, &v.Answers); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) UpdateFeedback(ctx context.Context, feedbackID int64, answers Answers) (Feedback, error) {
	payload, err := json.Marshal(answers)
	if err != nil {
		return Feedback{}, err
	}
	out, err := scanFeedback(s.DB.QueryRow(ctx, `
    UPDATE feedback SET answers = $1, updated_at = now()
    WHERE id = $2
    RETURNING `+feedbackColumns, payload, feedbackID))
	return out, notFound(err)
}

func (s *Store) DeleteFeedback(ctx context.Context, feedbackID int64) error {
	cmd, err := s.DB.Exec(ctx, "DELETE FROM feedback WHERE id = $1", feedbackID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
