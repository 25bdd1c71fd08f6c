package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure: unknown login id, disabled user or password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates a malformed, badly signed, expired or revoked session token.
	ErrInvalidToken = errors.New("could not validate credentials")
	// ErrUnauthorized indicates a valid session lacking the requested operation.
	ErrUnauthorized = errors.New("not enough permissions")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("already exists")
	// ErrValidation indicates a rejected payload.
	ErrValidation = errors.New("validation failed")
)
