// Package common defines shared constants and sentinel errors used across
// authgate layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Registration errors. The conflict errors identify the offending field
	// so the HTTP layer can report it in a machine-readable way.
	ErrInvalidUsername      = errors.New("invalid username")
	ErrEmailAlreadyTaken    = errors.New("email already taken")
	ErrUsernameAlreadyTaken = errors.New("username already taken")

	// Login errors. ErrLoginFailed is deliberately generic to avoid account
	// enumeration; ErrVerificationPending is intentionally more informative.
	ErrLoginFailed         = errors.New("login failed")
	ErrVerificationPending = errors.New("verification code sent")

	// Token lifecycle errors. ErrRefreshTokenInvalidated means a rotated-away
	// token was presented again, the canonical reuse/theft signal.
	ErrInvalidToken            = errors.New("invalid token")
	ErrTokenExpired            = errors.New("token expired")
	ErrRefreshTokenExpired     = errors.New("refresh token expired")
	ErrRefreshTokenInvalidated = errors.New("refresh token invalidated")
)
