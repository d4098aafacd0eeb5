package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrMissingIdentity occurs when a mutating request carries no user id.
	ErrMissingIdentity = errors.New("missing user identity")
)
