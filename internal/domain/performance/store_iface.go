package performance

import "context"

// StoreAPI is the persistence surface of the review lifecycle. Lock* methods
// take row locks and are only meaningful inside InTx.
type StoreAPI interface {
	InTx(ctx context.Context, fn func(tx StoreAPI) error) error

	UserRef(ctx context.Context, userID int64) (UserRef, error)

	CreateReview(ctx context.Context, review Review) (Review, error)
	GetReview(ctx context.Context, reviewID int64) (ReviewView, error)
	LockReview(ctx context.Context, reviewID int64) (Review, error)
	ListReviews(ctx context.Context) ([]ReviewView, error)
	UpdateReview(ctx context.Context, review Review) (Review, error)
	DeleteReview(ctx context.Context, reviewID int64) error
	ReviewStats(ctx context.Context) (ReviewStats, error)

	CreateAssignment(ctx context.Context, reviewID, reviewerID int64) (Assignment, error)
	AssignmentExists(ctx context.Context, reviewID, reviewerID int64) (bool, error)
	CountAssignments(ctx context.Context, reviewID int64) (int, error)
	GetAssignment(ctx context.Context, assignmentID int64) (AssignmentView, error)
	LockAssignment(ctx context.Context, assignmentID int64) (AssignmentContext, error)
	ListAssignmentsByReview(ctx context.Context, reviewID int64) ([]AssignmentView, error)
	ListAssignmentsByReviewer(ctx context.Context, reviewerID int64) ([]AssignmentView, error)
	SetAssignmentStatus(ctx context.Context, assignmentID int64, status string) error
	DeleteAssignment(ctx context.Context, assignmentID int64) error
	AssignmentStats(ctx context.Context, reviewID int64) (AssignmentStats, error)

	CreateFeedback(ctx context.Context, assignmentID int64, answers Answers) (Feedback, error)
	GetFeedback(ctx context.Context, feedbackID int64) (Feedback, error)
	LockFeedback(ctx context.Context, feedbackID int64) (Feedback, error)
	FeedbackByAssignment(ctx context.Context, assignmentID int64) (Feedback, error)
	ListFeedbackByReview(ctx context.Context, reviewID int64) ([]FeedbackView, error)
	UpdateFeedback(ctx context.Context, feedbackID int64, answers Answers) (Feedback, error)
	DeleteFeedback(ctx context.Context, feedbackID int64) error
}
