package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"perfreview/internal/platform/db"
)

// Store is the Postgres StoreAPI. Inside an InTx callback it runs on the
// transaction.
type Store struct {
	DB   db.DBTX
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool, pool: pool}
}

func (s *Store) InTx(ctx context.Context, fn func(tx StoreAPI) error) error {
	if s.pool == nil {
		return fn(s)
	}
	return db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&Store{DB: tx})
	})
}

const userColumns = "id, email, first_name, last_name, role, is_active, created_at, updated_at"

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func mapWriteErr(err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return ErrDuplicate
	case db.IsForeignKeyViolation(err):
		return ErrInUse
	}
	return err
}

func (s *Store) List(ctx context.Context) ([]User, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id int64) (User, error) {
	return scanUser(s.DB.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

// GetForUpdate reads a user and holds a row lock until the transaction ends.
func (s *Store) GetForUpdate(ctx context.Context, id int64) (User, error) {
	return scanUser(s.DB.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1 FOR UPDATE", id))
}

// InReviews reports whether the user is the employee of a review or the
// reviewer on an assignment.
func (s *Store) InReviews(ctx context.Context, id int64) (bool, error) {
	var found bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM performance_reviews WHERE employee_id = $1)
        OR EXISTS (SELECT 1 FROM review_assignments WHERE reviewer_id = $1)
  `, id).Scan(&found)
	return found, err
}

func (s *Store) Create(ctx context.Context, in CreateInput, passwordHash string, active bool) (User, error) {
	u, err := scanUser(s.DB.QueryRow(ctx, `
    INSERT INTO users (email, password_hash, first_name, last_name, role, is_active)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING `+userColumns, in.Email, passwordHash, in.FirstName, in.LastName, in.Role, active))
	return u, mapWriteErr(err)
}

func (s *Store) Update(ctx context.Context, id int64, c Changes) (User, error) {
	sets := []string{}
	args := []any{}
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("email", c.Email)
	add("first_name", c.FirstName)
	add("last_name", c.LastName)
	add("role", c.Role)
	add("password_hash", c.PasswordHash)
	if len(sets) == 0 {
		return s.Get(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s, updated_at = now() WHERE id = $%d RETURNING %s", strings.Join(sets, ", "), len(args), userColumns)
	u, err := scanUser(s.DB.QueryRow(ctx, query, args...))
	return u, mapWriteErr(err)
}

func (s *Store) SetActive(ctx context.Context, id int64, active bool) (User, error) {
	return scanUser(s.DB.QueryRow(ctx, `
    UPDATE users SET is_active = $1, updated_at = now()
    WHERE id = $2
    RETURNING `+userColumns, active, id))
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	cmd, err := s.DB.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return mapWriteErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
