package perftest

import (
	"context"
	"sort"
	"time"

	"perfreview/internal/domain/performance"
)

func (s *Store) CreateFeedback(_ context.Context, assignmentID int64, answers performance.Answers) (performance.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateFeedback"); err != nil {
		return performance.Feedback{}, err
	}
	if _, ok := s.st.assignments[assignmentID]; !ok {
		return performance.Feedback{}, performance.ErrInUse
	}
	if _, ok := s.feedbackFor(assignmentID); ok {
		return performance.Feedback{}, performance.ErrDuplicate
	}
	now := time.Now().UTC()
	f := performance.Feedback{ID: s.id(), AssignmentID: assignmentID, Answers: answers, SubmittedAt: now, UpdatedAt: now}
	s.st.feedback[f.ID] = f
	return f, nil
}

func (s *Store) GetFeedback(_ context.Context, feedbackID int64) (performance.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("GetFeedback"); err != nil {
		return performance.Feedback{}, err
	}
	f, ok := s.st.feedback[feedbackID]
	if !ok {
		return performance.Feedback{}, performance.ErrNotFound
	}
	return f, nil
}

func (s *Store) LockFeedback(ctx context.Context, feedbackID int64) (performance.Feedback, error) {
	return s.GetFeedback(ctx, feedbackID)
}

func (s *Store) FeedbackByAssignment(_ context.Context, assignmentID int64) (performance.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("FeedbackByAssignment"); err != nil {
		return performance.Feedback{}, err
	}
	f, ok := s.feedbackFor(assignmentID)
	if !ok {
		return performance.Feedback{}, performance.ErrNotFound
	}
	return f, nil
}

func (s *Store) ListFeedbackByReview(_ context.Context, reviewID int64) ([]performance.FeedbackView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("ListFeedbackByReview"); err != nil {
		return nil, err
	}
	var out []performance.FeedbackView
	for _, f := range s.st.feedback {
		a := s.st.assignments[f.AssignmentID]
		if a.ReviewID != reviewID {
			continue
		}
		reviewer := s.st.users[a.ReviewerID]
		out = append(out, performance.FeedbackView{
			Feedback:          f,
			ReviewID:          a.ReviewID,
			ReviewerID:        a.ReviewerID,
			ReviewerFirstName: reviewer.FirstName,
			ReviewerLastName:  reviewer.LastName,
			ReviewerEmail:     reviewer.Email,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) UpdateFeedback(_ context.Context, feedbackID int64, answers performance.Answers) (performance.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("UpdateFeedback"); err != nil {
		return performance.Feedback{}, err
	}
	f, ok := s.st.feedback[feedbackID]
	if !ok {
		return performance.Feedback{}, performance.ErrNotFound
	}
	f.Answers = answers
	f.UpdatedAt = time.Now().UTC()
	s.st.feedback[feedbackID] = f
	return f, nil
}

func (s *Store) DeleteFeedback(_ context.Context, feedbackID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("DeleteFeedback"); err != nil {
		return err
	}
	if _, ok := s.st.feedback[feedbackID]; !ok {
		return performance.ErrNotFound
	}
	delete(s.st.feedback, feedbackID)
	return nil
}
