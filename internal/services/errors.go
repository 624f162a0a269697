// Package services defines the business logic for accounts, relationships,
// and status matching. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

var (
	// ErrUserNotFound indicates that a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateHandle is returned when registration reuses an external
	// handle or email that is already taken.
	ErrDuplicateHandle = errors.New("handle already registered")

	// ErrInvalidCredentials is returned when a login attempt presents an
	// unknown identity or a wrong secret. The two cases are deliberately
	// indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSelfRelation is returned when an edge would connect a user to
	// itself.
	ErrSelfRelation = errors.New("cannot relate a user to itself")
)
