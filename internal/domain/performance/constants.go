package performance

const (
	ReviewStatusDraft     = "draft"
	ReviewStatusActive    = "active"
	ReviewStatusCompleted = "completed"

	AssignmentStatusPending   = "pending"
	AssignmentStatusSubmitted = "submitted"

	MinReviewPeriodLength = 3
	MinAnswerLength       = 10
	MinRating             = 1
	MaxRating             = 5
)

var ReviewStatuses = []string{ReviewStatusDraft, ReviewStatusActive, ReviewStatusCompleted}

func ValidReviewStatus(status string) bool {
	for _, candidate := range ReviewStatuses {
		if status == candidate {
			return true
		}
	}
	return false
}
