package perftest

import (
	"context"
	"sort"
	"time"

	"perfreview/internal/domain/performance"
)

func (s *Store) feedbackFor(assignmentID int64) (performance.Feedback, bool) {
	for _, f := range s.st.feedback {
		if f.AssignmentID == assignmentID {
			return f, true
		}
	}
	return performance.Feedback{}, false
}

func (s *Store) assignmentView(a performance.Assignment) performance.AssignmentView {
	reviewer := s.st.users[a.ReviewerID]
	review := s.st.reviews[a.ReviewID]
	employee := s.st.users[review.EmployeeID]
	v := performance.AssignmentView{
		Assignment:        a,
		ReviewerFirstName: reviewer.FirstName,
		ReviewerLastName:  reviewer.LastName,
		ReviewerEmail:     reviewer.Email,
		ReviewPeriod:      review.ReviewPeriod,
		ReviewStatus:      review.Status,
		EmployeeID:        review.EmployeeID,
		EmployeeFirstName: employee.FirstName,
		EmployeeLastName:  employee.LastName,
	}
	if f, ok := s.feedbackFor(a.ID); ok {
		id := f.ID
		v.HasFeedback = true
		v.FeedbackID = &id
	}
	return v
}

func (s *Store) CreateAssignment(_ context.Context, reviewID, reviewerID int64) (performance.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateAssignment"); err != nil {
		return performance.Assignment{}, err
	}
	if _, ok := s.st.reviews[reviewID]; !ok {
		return performance.Assignment{}, performance.ErrInUse
	}
	if _, ok := s.st.users[reviewerID]; !ok {
		return performance.Assignment{}, performance.ErrInUse
	}
	for _, a := range s.st.assignments {
		if a.ReviewID == reviewID && a.ReviewerID == reviewerID {
			return performance.Assignment{}, performance.ErrDuplicate
		}
	}
	a := performance.Assignment{
		ID:         s.id(),
		ReviewID:   reviewID,
		ReviewerID: reviewerID,
		Status:     performance.AssignmentStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	s.st.assignments[a.ID] = a
	return a, nil
}

func (s *Store) AssignmentExists(_ context.Context, reviewID, reviewerID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("AssignmentExists"); err != nil {
		return false, err
	}
	if s.HideExisting {
		return false, nil
	}
	for _, a := range s.st.assignments {
		if a.ReviewID == reviewID && a.ReviewerID == reviewerID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CountAssignments(_ context.Context, reviewID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CountAssignments"); err != nil {
		return 0, err
	}
	count := 0
	for _, a := range s.st.assignments {
		if a.ReviewID == reviewID {
			count++
		}
	}
	return count, nil
}

func (s *Store) GetAssignment(_ context.Context, assignmentID int64) (performance.AssignmentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("GetAssignment"); err != nil {
		return performance.AssignmentView{}, err
	}
	a, ok := s.st.assignments[assignmentID]
	if !ok {
		return performance.AssignmentView{}, performance.ErrNotFound
	}
	return s.assignmentView(a), nil
}

func (s *Store) LockAssignment(_ context.Context, assignmentID int64) (performance.AssignmentContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("LockAssignment"); err != nil {
		return performance.AssignmentContext{}, err
	}
	a, ok := s.st.assignments[assignmentID]
	if !ok {
		return performance.AssignmentContext{}, performance.ErrNotFound
	}
	review := s.st.reviews[a.ReviewID]
	return performance.AssignmentContext{Assignment: a, ReviewStatus: review.Status, EmployeeID: review.EmployeeID}, nil
}

func (s *Store) listAssignments(match func(performance.Assignment) bool) []performance.AssignmentView {
	var out []performance.AssignmentView
	for _, a := range s.st.assignments {
		if match(a) {
			out = append(out, s.assignmentView(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) ListAssignmentsByReview(_ context.Context, reviewID int64) ([]performance.AssignmentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("ListAssignmentsByReview"); err != nil {
		return nil, err
	}
	return s.listAssignments(func(a performance.Assignment) bool { return a.ReviewID == reviewID }), nil
}

func (s *Store) ListAssignmentsByReviewer(_ context.Context, reviewerID int64) ([]performance.AssignmentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("ListAssignmentsByReviewer"); err != nil {
		return nil, err
	}
	return s.listAssignments(func(a performance.Assignment) bool { return a.ReviewerID == reviewerID }), nil
}

func (s *Store) SetAssignmentStatus(_ context.Context, assignmentID int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("SetAssignmentStatus"); err != nil {
		return err
	}
	a, ok := s.st.assignments[assignmentID]
	if !ok {
		return performance.ErrNotFound
	}
	a.Status = status
	s.st.assignments[assignmentID] = a
	return nil
}

func (s *Store) DeleteAssignment(_ context.Context, assignmentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("DeleteAssignment"); err != nil {
		return err
	}
	if _, ok := s.st.assignments[assignmentID]; !ok {
		return performance.ErrNotFound
	}
	if _, ok := s.feedbackFor(assignmentID); ok {
		return performance.ErrInUse
	}
	delete(s.st.assignments, assignmentID)
	return nil
}

func (s *Store) AssignmentStats(_ context.Context, reviewID int64) (performance.AssignmentStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("AssignmentStats"); err != nil {
		return performance.AssignmentStats{}, err
	}
	var out performance.AssignmentStats
	for _, a := range s.st.assignments {
		if a.ReviewID != reviewID {
			continue
		}
		out.Total++
		switch a.Status {
		case performance.AssignmentStatusPending:
			out.Pending++
		case performance.AssignmentStatusSubmitted:
			out.Submitted++
		}
	}
	return out, nil
}
