package models

import "time"

// VerificationCode is a single-use numeric gate proving control of an email
// address. At most one code is outstanding per email: issuing a new one
// replaces the previous one.
type VerificationCode struct {
	ProfileID string
	Email     string
	Code      int
	CreatedAt time.Time
}
