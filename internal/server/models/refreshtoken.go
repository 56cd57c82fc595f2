package models

import "time"

// RefreshToken is one link in a rotation chain. ID doubles as the jti claim
// of the signed refresh token. Records are never hard-deleted: rotation only
// flips Valid to false and stamps InvalidatedAt, so the chain stays auditable
// back to the original login via PreviousTokenID.
type RefreshToken struct {
	ID              string
	ProfileID       string
	IssuedAt        time.Time
	ExpiresAt       time.Time
	InvalidatedAt   *time.Time
	PreviousTokenID *string
	Valid           bool
}

// RefreshTokenUpdate is the explicit partial update applied on rotation.
type RefreshTokenUpdate struct {
	Valid         *bool
	InvalidatedAt *time.Time
}
