// Package common defines the sentinel errors shared by services, repositories
// and the HTTP layer. Callers match them with errors.Is; the HTTP layer maps
// each sentinel to a status code.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Request validation: missing or malformed fields, not retryable.
	ErrValidation = errors.New("validation error")

	// Auth: absent/invalid/expired token or wrong password.
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Share lifecycle.
	ErrExpired      = errors.New("expired")
	ErrLimitReached = errors.New("limit reached")

	// Quota and rate limiting.
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrRateLimited   = errors.New("rate limited")

	// Server-side configuration is missing a required value.
	ErrMisconfigured = errors.New("server misconfigured")

	// Generic internal failure.
	ErrInternal = errors.New("internal error")
)
