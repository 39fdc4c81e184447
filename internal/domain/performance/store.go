package performance

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"perfreview/internal/platform/db"
)

// Store is the Postgres StoreAPI. A Store built by NewStore runs statements
// on the pool; the one handed to an InTx callback runs them on the
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

// UserRef takes a share lock so a concurrent role change waits for the
// review or assignment being written.
func (s *Store) UserRef(ctx context.Context, userID int64) (UserRef, error) {
	var out UserRef
	err := s.DB.QueryRow(ctx, "SELECT id, role, is_active FROM users WHERE id = $1 FOR SHARE", userID).Scan(&out.ID, &out.Role, &out.IsActive)
	return out, notFound(err)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func writeErr(err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return ErrDuplicate
	case db.IsForeignKeyViolation(err):
		return ErrInUse
	}
	return notFound(err)
}
