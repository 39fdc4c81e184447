package performance

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const reviewColumns = "id, employee_id, review_period, status, created_by, created_at, updated_at"

const reviewViewQuery = `
    SELECT pr.id, pr.employee_id, pr.review_period, pr.status, pr.created_by, pr.created_at, pr.updated_at,
           e.first_name, e.last_name, e.email,
           c.first_name, c.last_name,
           (SELECT COUNT(1) FROM review_assignments ra WHERE ra.review_id = pr.id),
           (SELECT COUNT(1) FROM review_assignments ra WHERE ra.review_id = pr.id AND ra.status = 'submitted')
    FROM performance_reviews pr
    JOIN users e ON e.id = pr.employee_id
    JOIN users c ON c.id = pr.created_by`

func scanReview(row pgx.Row) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.EmployeeID, &r.ReviewPeriod, &r.Status, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func scanReviewView(row pgx.Row) (ReviewView, error) {
	var v ReviewView
	err := row.Scan(
		&v.ID, &v.EmployeeID, &v.ReviewPeriod, &v.Status, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt,
		&v.EmployeeFirstName, &v.EmployeeLastName, &v.EmployeeEmail,
		&v.CreatorFirstName, &v.CreatorLastName,
		&v.AssignmentCount, &v.SubmittedCount,
	)
	return v, err
}

func (s *Store) CreateReview(ctx context.Context, review Review) (Review, error) {
	out, err := scanReview(s.DB.QueryRow(ctx, `
    INSERT INTO performance_reviews (employee_id, review_period, status, created_by)
    VALUES ($1,$2,$3,$4)
    RETURNING `+reviewColumns, review.EmployeeID, review.ReviewPeriod, review.Status, review.CreatedBy))
	return out, writeErr(err)
}

func (s *Store) GetReview(ctx context.Context, reviewID int64) (ReviewView, error) {
	out, err := scanReviewView(s.DB.QueryRow(ctx, reviewViewQuery+" WHERE pr.id = $1", reviewID))
	return out, notFound(err)
}

func (s *Store) LockReview(ctx context.Context, reviewID int64) (Review, error) {
	out, err := scanReview(s.DB.QueryRow(ctx, "SELECT "+reviewColumns+" FROM performance_reviews WHERE id = $1 FOR UPDATE", reviewID))
	return out, notFound(err)
}

func (s *Store) ListReviews(ctx context.Context) ([]ReviewView, error) {
	rows, err := s.DB.Query(ctx, reviewViewQuery+" ORDER BY pr.created_at DESC, pr.id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReviewView
	for rows.Next() {
		v, err := scanReviewView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) UpdateReview(ctx context.Context, review Review) (Review, error) {
	out, err := scanReview(s.DB.QueryRow(ctx, `
    UPDATE performance_reviews
    SET employee_id = $1, review_period = $2, status = $3, updated_at = now()
    WHERE id = $4
    RETURNING `+reviewColumns, review.EmployeeID, review.ReviewPeriod, review.Status, review.ID))
	return out, writeErr(err)
}

func (s *Store) DeleteReview(ctx context.Context, reviewID int64) error {
	cmd, err := s.DB.Exec(ctx, "DELETE FROM performance_reviews WHERE id = $1", reviewID)
	if err != nil {
		return writeErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ReviewStats(ctx context.Context) (ReviewStats, error) {
	var out ReviewStats
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1),
           COALESCE(SUM(CASE WHEN status = $1 THEN 1 ELSE 0 END),0),
           COALESCE(SUM(CASE WHEN status = $2 THEN 1 ELSE 0 END),0),
           COALESCE(SUM(CASE WHEN status = $3 THEN 1 ELSE 0 END),0)
    FROM performance_reviews
  `, ReviewStatusDraft, ReviewStatusActive, ReviewStatusCompleted).Scan(&out.Total, &out.Draft, &out.Active, &out.Completed)
	return out, err
}
