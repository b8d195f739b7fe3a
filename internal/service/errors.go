package service

import "errors"

// Domain errors recovered at the handler boundary and translated to a
// status code there. Anything else bubbling out of the store or crypto
// layer becomes a generic 500.
var (
	ErrValidation    = errors.New("missing or malformed fields")
	ErrEmailTaken    = errors.New("email already in use")
	ErrNotFound      = errors.New("user not found")
	ErrBadPassword   = errors.New("invalid password")
	ErrTokenRejected = errors.New("refresh token rejected")
)
