// Package perftest provides an in-memory performance.StoreAPI for tests.
// Transactions are serialized and roll back by restoring a snapshot; unique
// keys and restrictive foreign keys behave like the Postgres schema.
package perftest

import (
	"context"
	"sort"
	"sync"
	"time"

	"perfreview/internal/domain/performance"
)

type User struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
	Role      string
	IsActive  bool
}

type state struct {
	nextID      int64
	users       map[int64]User
	reviews     map[int64]performance.Review
	assignments map[int64]performance.Assignment
	feedback    map[int64]performance.Feedback
}

func (st state) clone() state {
	out := state{
		nextID:      st.nextID,
		users:       make(map[int64]User, len(st.users)),
		reviews:     make(map[int64]performance.Review, len(st.reviews)),
		assignments: make(map[int64]performance.Assignment, len(st.assignments)),
		feedback:    make(map[int64]performance.Feedback, len(st.feedback)),
	}
	for k, v := range st.users {
		out.users[k] = v
	}
	for k, v := range st.reviews {
		out.reviews[k] = v
	}
	for k, v := range st.assignments {
		out.assignments[k] = v
	}
	for k, v := range st.feedback {
		out.feedback[k] = v
	}
	return out
}

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   state
	fail map[string]error

	// HideExisting makes AssignmentExists report false so the unique key
	// is what rejects a duplicate.
	HideExisting bool
}

func New() *Store {
	return &Store{
		st: state{
			users:       map[int64]User{},
			reviews:     map[int64]performance.Review{},
			assignments: map[int64]performance.Assignment{},
			feedback:    map[int64]performance.Feedback{},
		},
		fail: map[string]error{},
	}
}

// FailOn makes every later call of the named StoreAPI method return err.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[method] = err
}

func (s *Store) failure(method string) error {
	return s.fail[method]
}

func (s *Store) AddUser(u User) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		s.st.nextID++
		u.ID = s.st.nextID
	} else if u.ID > s.st.nextID {
		s.st.nextID = u.ID
	}
	s.st.users[u.ID] = u
	return u.ID
}

func (s *Store) SetUserActive(id int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.st.users[id]
	u.IsActive = active
	s.st.users[id] = u
}

// Assignment reads an assignment without going through the service.
func (s *Store) Assignment(id int64) (performance.Assignment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.st.assignments[id]
	return a, ok
}

func (s *Store) FeedbackCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.feedback)
}

func (s *Store) AssignmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.assignments)
}

func (s *Store) id() int64 {
	s.st.nextID++
	return s.st.nextID
}

type txStore struct {
	*Store
}

func (t txStore) InTx(_ context.Context, fn func(tx performance.StoreAPI) error) error {
	return fn(t)
}

func (s *Store) InTx(_ context.Context, fn func(tx performance.StoreAPI) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(txStore{s}); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) UserRef(_ context.Context, userID int64) (performance.UserRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("UserRef"); err != nil {
		return performance.UserRef{}, err
	}
	u, ok := s.st.users[userID]
	if !ok {
		return performance.UserRef{}, performance.ErrNotFound
	}
	return performance.UserRef{ID: u.ID, Role: u.Role, IsActive: u.IsActive}, nil
}

func (s *Store) reviewView(r performance.Review) performance.ReviewView {
	emp := s.st.users[r.EmployeeID]
	creator := s.st.users[r.CreatedBy]
	v := performance.ReviewView{
		Review:            r,
		EmployeeFirstName: emp.FirstName,
		EmployeeLastName:  emp.LastName,
		EmployeeEmail:     emp.Email,
		CreatorFirstName:  creator.FirstName,
		CreatorLastName:   creator.LastName,
	}
	for _, a := range s.st.assignments {
		if a.ReviewID != r.ID {
			continue
		}
		v.AssignmentCount++
		if a.Status == performance.AssignmentStatusSubmitted {
			v.SubmittedCount++
		}
	}
	return v
}

func (s *Store) CreateReview(_ context.Context, review performance.Review) (performance.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateReview"); err != nil {
		return performance.Review{}, err
	}
	if _, ok := s.st.users[review.EmployeeID]; !ok {
		return performance.Review{}, performance.ErrInUse
	}
	now := time.Now().UTC()
	review.ID = s.id()
	review.CreatedAt = now
	review.UpdatedAt = now
	s.st.reviews[review.ID] = review
	return review, nil
}

func (s *Store) GetReview(_ context.Context, reviewID int64) (performance.ReviewView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("GetReview"); err != nil {
		return performance.ReviewView{}, err
	}
	r, ok := s.st.reviews[reviewID]
	if !ok {
		return performance.ReviewView{}, performance.ErrNotFound
	}
	return s.reviewView(r), nil
}

func (s *Store) LockReview(_ context.Context, reviewID int64) (performance.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("LockReview"); err != nil {
		return performance.Review{}, err
	}
	r, ok := s.st.reviews[reviewID]
	if !ok {
		return performance.Review{}, performance.ErrNotFound
	}
	return r, nil
}

func (s *Store) ListReviews(context.Context) ([]performance.ReviewView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("ListReviews"); err != nil {
		return nil, err
	}
	out := make([]performance.ReviewView, 0, len(s.st.reviews))
	for _, r := range s.st.reviews {
		out = append(out, s.reviewView(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) UpdateReview(_ context.Context, review performance.Review) (performance.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("UpdateReview"); err != nil {
		return performance.Review{}, err
	}
	current, ok := s.st.reviews[review.ID]
	if !ok {
		return performance.Review{}, performance.ErrNotFound
	}
	current.EmployeeID = review.EmployeeID
	current.ReviewPeriod = review.ReviewPeriod
	current.Status = review.Status
	current.UpdatedAt = time.Now().UTC()
	s.st.reviews[review.ID] = current
	return current, nil
}

func (s *Store) DeleteReview(_ context.Context, reviewID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("DeleteReview"); err != nil {
		return err
	}
	if _, ok := s.st.reviews[reviewID]; !ok {
		return performance.ErrNotFound
	}
	for _, a := range s.st.assignments {
		if a.ReviewID == reviewID {
			return performance.ErrInUse
		}
	}
	delete(s.st.reviews, reviewID)
	return nil
}

func (s *Store) ReviewStats(context.Context) (performance.ReviewStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("ReviewStats"); err != nil {
		return performance.ReviewStats{}, err
	}
	var out performance.ReviewStats
	for _, r := range s.st.reviews {
		out.Total++
		switch r.Status {
		case performance.ReviewStatusDraft:
			out.Draft++
		case performance.ReviewStatusActive:
			out.Active++
		case performance.ReviewStatusCompleted:
			out.Completed++
		}
	}
	return out, nil
}
