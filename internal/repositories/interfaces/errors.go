package interfaces

import "errors"

// Sentinel errors every repository implementation returns so services can
// branch with errors.Is regardless of the backing store.
var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateResponder = errors.New("user is already a responder")
	ErrResponderMissing   = errors.New("user is not a responder")
	ErrIssueClosed        = errors.New("issue is resolved")
)
