package performance

import "time"

// UserRef is what the lifecycle rules need to know about a user.
type UserRef struct {
	ID       int64
	Role     string
	IsActive bool
}

type Review struct {
	ID           int64     `json:"id"`
	EmployeeID   int64     `json:"employee_id"`
	ReviewPeriod string    `json:"review_period"`
	Status       string    `json:"status"`
	CreatedBy    int64     `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ReviewView struct {
	Review
	EmployeeFirstName string `json:"employee_first_name"`
	EmployeeLastName  string `json:"employee_last_name"`
	EmployeeEmail     string `json:"employee_email"`
	CreatorFirstName  string `json:"created_by_first_name"`
	CreatorLastName   string `json:"created_by_last_name"`
	AssignmentCount   int    `json:"assignment_count"`
	SubmittedCount    int    `json:"submitted_count"`
}

type CreateReviewInput struct {
	EmployeeID   int64
	ReviewPeriod string
	Status       string
}

// ReviewUpdate carries only the fields the caller supplied.
type ReviewUpdate struct {
	EmployeeID   *int64
	ReviewPeriod *string
	Status       *string
}

func (u ReviewUpdate) Empty() bool {
	return u.EmployeeID == nil && u.ReviewPeriod == nil && u.Status == nil
}

type ReviewStats struct {
	Total     int `json:"total"`
	Draft     int `json:"draft"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

type Assignment struct {
	ID         int64     `json:"id"`
	ReviewID   int64     `json:"review_id"`
	ReviewerID int64     `json:"reviewer_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// AssignmentContext is an assignment locked together with the state of its
// parent review.
type AssignmentContext struct {
	Assignment
	ReviewStatus string
	EmployeeID   int64
}

type AssignmentView struct {
	Assignment
	ReviewerFirstName string `json:"reviewer_first_name"`
	ReviewerLastName  string `json:"reviewer_last_name"`
	ReviewerEmail     string `json:"reviewer_email"`
	ReviewPeriod      string `json:"review_period"`
	ReviewStatus      string `json:"review_status"`
	EmployeeID        int64  `json:"employee_id"`
	EmployeeFirstName string `json:"employee_first_name"`
	EmployeeLastName  string `json:"employee_last_name"`
	HasFeedback       bool   `json:"hasFeedback"`
	FeedbackID        *int64 `json:"feedbackId"`
}

type AssignmentDetail struct {
	AssignmentView
	Feedback *Feedback `json:"feedback"`
}

type AssignmentStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Submitted int `json:"submitted"`
}

type ReviewAssignments struct {
	Assignments []AssignmentView `json:"assignments"`
	Stats       AssignmentStats  `json:"stats"`
}

type Answers struct {
	Strengths           string `json:"strengths"`
	AreasForImprovement string `json:"areas_for_improvement"`
	OverallRating       int    `json:"overall_rating"`
	Achievements        string `json:"achievements,omitempty"`
	Suggestions         string `json:"suggestions,omitempty"`
	AdditionalComments  string `json:"additional_comments,omitempty"`
}

type Feedback struct {
	ID           int64     `json:"id"`
	AssignmentID int64     `json:"assignment_id"`
	Answers      Answers   `json:"answers"`
	SubmittedAt  time.Time `json:"submitted_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type FeedbackView struct {
	Feedback
	ReviewID          int64  `json:"review_id"`
	ReviewerID        int64  `json:"reviewer_id"`
	ReviewerFirstName string `json:"reviewer_first_name"`
	ReviewerLastName  string `json:"reviewer_last_name"`
	ReviewerEmail     string `json:"reviewer_email"`
}
