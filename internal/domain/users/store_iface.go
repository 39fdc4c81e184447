package users

import "context"

// StoreAPI is the persistence the users service needs. GetForUpdate only
// locks inside InTx.
type StoreAPI interface {
	InTx(ctx context.Context, fn func(tx StoreAPI) error) error
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	GetForUpdate(ctx context.Context, id int64) (User, error)
	InReviews(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, in CreateInput, passwordHash string, active bool) (User, error)
	Update(ctx context.Context, id int64, c Changes) (User, error)
	SetActive(ctx context.Context, id int64, active bool) (User, error)
	Delete(ctx context.Context, id int64) error
}
