package users

import "errors"

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("email already in use")
	ErrInUse     = errors.New("user is referenced by review records")
)
