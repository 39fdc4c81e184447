package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"perfreview/internal/domain/apperr"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account pending admin approval")
)

type Service struct {
	Store  StoreAPI
	Secret string
	TTL    time.Duration
}

func NewService(store StoreAPI, secret string, ttl time.Duration) *Service {
	return &Service{Store: store, Secret: secret, TTL: ttl}
}

type Profile struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u AuthUser) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an inactive employee account. The account cannot log in
// until an admin activates it.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Profile, error) {
	var issues apperr.Issues
	ValidateEmail(&issues, "email", input.Email)
	ValidatePassword(&issues, "password", input.Password)
	ValidateName(&issues, "first_name", input.FirstName)
	ValidateName(&issues, "last_name", input.LastName)
	if err := issues.Err(); err != nil {
		return Profile{}, err
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return Profile{}, apperr.Internal(err)
	}
	user, err := s.Store.CreatePendingUser(ctx, NormalizeEmail(input.Email), hash, strings.TrimSpace(input.FirstName), strings.TrimSpace(input.LastName))
	if errors.Is(err, ErrDuplicate) {
		return Profile{}, apperr.Conflict("user with this email already exists")
	}
	if err != nil {
		return Profile{}, apperr.Internal(err)
	}
	return user.Profile(), nil
}

// Login checks credentials and issues a token. Unknown emails and wrong
// passwords are indistinguishable to the caller; the inactive state is only
// revealed once the password matched.
func (s *Service) Login(ctx context.Context, email, password string) (string, Profile, error) {
	user, err := s.Store.FindUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return "", Profile{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", Profile{}, apperr.Internal(err)
	}
	if err := CheckPassword(user.Password, password); err != nil {
		return "", Profile{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", Profile{}, ErrAccountInactive
	}
	token, err := GenerateToken(s.Secret, Claims{UserID: user.ID, Email: user.Email, Role: user.Role}, s.TTL)
	if err != nil {
		return "", Profile{}, apperr.Internal(err)
	}
	return token, user.Profile(), nil
}

func (s *Service) Me(ctx context.Context, userID int64) (Profile, error) {
	user, err := s.Store.FindUserByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Profile{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return Profile{}, apperr.Internal(err)
	}
	return user.Profile(), nil
}
