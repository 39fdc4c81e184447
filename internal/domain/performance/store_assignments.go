package performance

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const assignmentColumns = "id, review_id, reviewer_id, status, created_at"

const assignmentViewQuery = `
    SELECT ra.id, ra.review_id, ra.reviewer_id, ra.status, ra.created_at,
           r.first_name, r.last_name, r.email,
           pr.review_period, pr.status, pr.employee_id,
           e.first_name, e.last_name,
           f.id
    FROM review_assignments ra
    JOIN users r ON r.id = ra.reviewer_id
    JOIN performance_reviews pr ON pr.id = ra.review_id
    JOIN users e ON e.id = pr.employee_id
    LEFT JOIN feedback f ON f.assignment_id = ra.id`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.ReviewID, &a.ReviewerID, &a.Status, &a.CreatedAt)
	return a, err
}

func scanAssignmentView(row pgx.Row) (AssignmentView, error) {
	var v AssignmentView
	err := row.Scan(
		&v.ID, &v.ReviewID, &v.ReviewerID, &v.Status, &v.CreatedAt,
		&v.ReviewerFirstName, &v.ReviewerLastName, &v.ReviewerEmail,
		&v.ReviewPeriod, &v.ReviewStatus, &v.EmployeeID,
		&v.EmployeeFirstName, &v.EmployeeLastName,
		&v.FeedbackID,
	)
	v.HasFeedback = v.FeedbackID != nil
	return v, err
}

func (s *Store) listAssignmentViews(ctx context.Context, query string, args ...any) ([]AssignmentView, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssignmentView
	for rows.Next() {
		v, err := scanAssignmentView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CreateAssignment relies on review_assignments_review_reviewer_key; a
// concurrent duplicate surfaces as ErrDuplicate.
func (s *Store) CreateAssignment(ctx context.Context, reviewID, reviewerID int64) (Assignment, error) {
	out, err := scanAssignment(s.DB.QueryRow(ctx, `
    INSERT INTO review_assignments (review_id, reviewer_id, status)
    VALUES ($1,$2,$3)
    RETURNING `+assignmentColumns, reviewID, reviewerID, AssignmentStatusPending))
	return out, writeErr(err)
}

func (s *Store) AssignmentExists(ctx context.Context, reviewID, reviewerID int64) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM review_assignments WHERE review_id = $1 AND reviewer_id = $2)
  `, reviewID, reviewerID).Scan(&exists)
	return exists, err
}

func (s *Store) CountAssignments(ctx context.Context, reviewID int64) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM review_assignments WHERE review_id = $1", reviewID).Scan(&count)
	return count, err
}

func (s *Store) GetAssignment(ctx context.Context, assignmentID int64) (AssignmentView, error) {
	out, err := scanAssignmentView(s.DB.QueryRow(ctx, assignmentViewQuery+" WHERE ra.id = $1", assignmentID))
	return out, notFound(err)
}

// LockAssignment locks the assignment row for update and its review row for
// share, so the review status cannot change underneath a submission.
func (s *Store) LockAssignment(ctx context.Context, assignmentID int64) (AssignmentContext, error) {
	var out AssignmentContext
	err := s.DB.QueryRow(ctx, `
    SELECT ra.id, ra.review_id, ra.reviewer_id, ra.status, ra.created_at, pr.status, pr.employee_id
    FROM review_assignments ra
    JOIN performance_reviews pr ON pr.id = ra.review_id
    WHERE ra.id = $1
    FOR UPDATE OF ra FOR SHARE OF pr
  `, assignmentID).Scan(&out.ID, &out.ReviewID, &out.ReviewerID, &out.Status, &out.CreatedAt, &out.ReviewStatus, &out.EmployeeID)
	return out, notFound(err)
}

func (s *Store) ListAssignmentsByReview(ctx context.Context, reviewID int64) ([]AssignmentView, error) {
	return s.listAssignmentViews(ctx, assignmentViewQuery+" WHERE ra.review_id = $1 ORDER BY ra.created_at, ra.id", reviewID)
}

func (s *Store) ListAssignmentsByReviewer(ctx context.Context, reviewerID int64) ([]AssignmentView, error) {
	return s.listAssignmentViews(ctx, assignmentViewQuery+" WHERE ra.reviewer_id = $1 ORDER BY ra.created_at DESC, ra.id DESC", reviewerID)
}

func (s *Store) SetAssignmentStatus(ctx context.Context, assignmentID int64, status string) error {
	cmd, err := s.DB.Exec(ctx, "UPDATE review_assignments SET status = $1 WHERE id = $2", status, assignmentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteAssignment(ctx context.Context, assignmentID int64) error {
	cmd, err := s.DB.Exec(ctx, "DELETE FROM review_assignments WHERE id = $1", assignmentID)
	if err != nil {
		return writeErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) AssignmentStats(ctx context.Context, reviewID int64) (AssignmentStats, error) {
	var out AssignmentStats
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1),
           COALESCE(SUM(CASE WHEN status = $2 THEN 1 ELSE 0 END),0),
           COALESCE(SUM(CASE WHEN status = $3 THEN 1 ELSE 0 END),0)
    FROM review_assignments
    WHERE review_id = $1
  `, reviewID, AssignmentStatusPending, AssignmentStatusSubmitted).Scan(&out.Total, &out.Pending, &out.Submitted)
	return out, err
}
