// Package models holds the persisted entities of the authentication core:
// user profiles, refresh-token ledger records, and verification codes, plus
// the explicit partial-update structures used by the repositories.
package models

import "time"

// Role is the single authorization field carried by a profile.
type Role string

const (
	RoleUser       Role = "USER"
	RoleInstructor Role = "INSTRUCTOR"
	RoleMentor     Role = "MENTOR"
	RoleAdmin      Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleInstructor, RoleMentor, RoleAdmin:
		return true
	}
	return false
}

// UserProfile is the identity record. Email is stored lower-cased and is
// globally unique; Username is optional but unique when set. The record is
// created at registration and mutated only by login (LastLoginAt) and by
// verification-code consumption (IsVerified); it is never deleted.
type UserProfile struct {
	ID           string
	Username     *string
	Email        string
	PasswordHash string
	Role         Role
	IsVerified   bool
	LastLoginAt  *time.Time
	RegisteredAt time.Time
	AvatarID     string
}

// ProfileUpdate is an explicit partial update: only non-nil fields are
// written. Last write wins.
type ProfileUpdate struct {
	Username    *string
	IsVerified  *bool
	LastLoginAt *time.Time
	AvatarID    *string
}

// Empty reports whether the update would write nothing.
func (u ProfileUpdate) Empty() bool {
	return u.Username == nil && u.IsVerified == nil && u.LastLoginAt == nil && u.AvatarID == nil
}
