// Package common defines shared constants and sentinel errors used across
// the authbridge server and client. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token / signature).
	ErrInvalidToken     = errors.New("invalid token")
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")

	// Session lifecycle errors.
	ErrSessionExpired = errors.New("session expired")

	// Migration flow control. Both map to StatusAlreadyHandled and are not
	// failures from the caller's point of view.
	ErrAlreadyMigrated  = errors.New("user already exists")
	ErrNotAuthenticated = errors.New("user not signed into legacy auth")

	// Migration failures.
	ErrTicketNotIssued = errors.New("sign in token not created")
	ErrUserNotCreated  = errors.New("user not created")
)
