package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("email already registered")
)

// StoreAPI is the slice of the identity store the auth flows need.
type StoreAPI interface {
	FindUserByEmail(ctx context.Context, email string) (AuthUser, error)
	FindUserByID(ctx context.Context, id int64) (AuthUser, error)
	CreatePendingUser(ctx context.Context, email, hash, firstName, lastName string) (AuthUser, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type AuthUser struct {
	ID        int64
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	IsActive  bool
	CreatedAt time.Time
}

const authUserColumns = "id, email, password_hash, first_name, last_name, role, is_active, created_at"

func scanAuthUser(row pgx.Row) (AuthUser, error) {
	var out AuthUser
	err := row.Scan(&out.ID, &out.Email, &out.Password, &out.FirstName, &out.LastName, &out.Role, &out.IsActive, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return AuthUser{}, ErrNotFound
	}
	return out, err
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	return scanAuthUser(s.DB.QueryRow(ctx, "SELECT "+authUserColumns+" FROM users WHERE email = $1", email))
}

func (s *Store) FindUserByID(ctx context.Context, id int64) (AuthUser, error) {
	return scanAuthUser(s.DB.QueryRow(ctx, "SELECT "+authUserColumns+" FROM users WHERE id = $1", id))
}

// CreatePendingUser registers an inactive employee awaiting admin approval.
func (s *Store) CreatePendingUser(ctx context.Context, email, hash, firstName, lastName string) (AuthUser, error) {
	out, err := scanAuthUser(s.DB.QueryRow(ctx, `
    INSERT INTO users (email, password_hash, first_name, last_name, role, is_active)
    VALUES ($1,$2,$3,$4,$5,false)
    RETURNING `+authUserColumns, email, hash, firstName, lastName, RoleEmployee))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return AuthUser{}, ErrDuplicate
	}
	return out, err
}
