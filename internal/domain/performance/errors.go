package performance

import "errors"

// Store-level outcomes. The service turns them into apperr kinds.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
	ErrInUse     = errors.New("referenced by other records")
)
