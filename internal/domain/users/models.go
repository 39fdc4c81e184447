package users

import "time"

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	IsActive  *bool
}

// UpdateInput carries only the fields the caller supplied.
type UpdateInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Role      *string
	Password  *string
}

func (in UpdateInput) Empty() bool {
	return in.Email == nil && in.FirstName == nil && in.LastName == nil && in.Role == nil && in.Password == nil
}

// Changes is the column set written by Store.Update.
type Changes struct {
	Email        *string
	FirstName    *string
	LastName     *string
	Role         *string
	PasswordHash *string
}
