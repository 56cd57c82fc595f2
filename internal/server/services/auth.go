// Package services contains the server-side business logic: the
// authentication service orchestrating credential verification, dual-token
// issuance and refresh-token rotation, and the verification-code service
// gating unverified logins.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/r-scheele/authgate/internal/common"
	"github.com/r-scheele/authgate/internal/dbx"
	"github.com/r-scheele/authgate/internal/logging"
	"github.com/r-scheele/authgate/internal/server/password"
	"github.com/r-scheele/authgate/internal/server/repositories/repomanager"
	"github.com/r-scheele/authgate/internal/server/token"

	"github.com/r-scheele/authgate/internal/server/models"
)

// TokenPair bundles a freshly minted access/refresh token pair with their
// expiries and the owning profile id.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	ProfileID        string
}

// RegisterInput carries the fields accepted at registration. AvatarID is an
// opaque handle for the avatar subsystem; a fresh one is generated when empty.
type RegisterInput struct {
	Username *string
	Email    string
	Password string
	Role     models.Role
	AvatarID string
}

var usernameRx = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// AuthService implements register, login, refresh and profile updates on top
// of the repositories, the password hasher and the token codec.
type AuthService struct {
	db         *sql.DB
	repos      repomanager.RepositoryManager
	hasher     *password.Hasher
	codec      *token.Codec
	codes      *VerificationCodeService
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     logging.Logger
}

// NewAuthService wires the authentication service. db may be nil when the
// repository manager is purely in-memory; rotation then runs without a
// transaction, which matches that storage's (lack of) atomicity.
func NewAuthService(
	db *sql.DB,
	repos repomanager.RepositoryManager,
	hasher *password.Hasher,
	codec *token.Codec,
	codes *VerificationCodeService,
	accessTTL, refreshTTL time.Duration,
	logger logging.Logger,
) *AuthService {
	return &AuthService{
		db:         db,
		repos:      repos,
		hasher:     hasher,
		codec:      codec,
		codes:      codes,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// Register validates the username shape, hashes the password off the request
// path, and persists the profile. Verification-code issuance and mail are the
// caller's concern, keeping this method free of delivery details.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.UserProfile, error) {
	if in.Username != nil {
		name := *in.Username
		if len(name) < 2 || len(name) > 32 || !usernameRx.MatchString(name) {
			return nil, common.ErrInvalidUsername
		}
	}

	role := in.Role
	if !role.Valid() {
		role = models.RoleUser
	}
	avatarID := in.AvatarID
	if avatarID == "" {
		avatarID = uuid.NewString()
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	profile := &models.UserProfile{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        strings.ToLower(in.Email),
		PasswordHash: hash,
		Role:         role,
		RegisteredAt: time.Now(),
		AvatarID:     avatarID,
	}
	return s.repos.Profiles(s.db).Create(ctx, profile)
}

// Login verifies credentials and mints a fresh token pair. The password is
// always run through the hasher, even for unknown emails, so timing does not
// reveal whether an account exists. An unverified profile with an outstanding
// verification code fails with ErrVerificationPending instead of the generic
// ErrLoginFailed.
func (s *AuthService) Login(ctx context.Context, email, pw string) (*TokenPair, error) {
	profile, err := s.repos.Profiles(s.db).FindByEmail(ctx, strings.ToLower(email))
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("looking up profile: %w", err)
	}

	var hash string
	if profile != nil {
		hash = profile.PasswordHash
	}
	ok, err := s.hasher.Verify(ctx, pw, hash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if profile == nil || !ok {
		return nil, common.ErrLoginFailed
	}

	if !profile.IsVerified {
		if _, err := s.codes.FindByEmail(ctx, profile.Email); err == nil {
			return nil, common.ErrVerificationPending
		} else if !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("checking verification code: %w", err)
		}
	}

	return s.issueTokenPair(ctx, profile, nil, s.db)
}

// Refresh performs the rotation transition. Decode failures reject
// immediately with no state change. A missing ledger record or one already
// flipped invalid is reuse: rejected and logged, never silently re-issued.
// On success the old record is invalidated before the chained successor is
// created, and the access token is minted from a re-fetched profile so role
// or verification changes take effect at once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.DecodeRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	record, err := s.repos.RefreshTokens(s.db).FindByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "refresh token has no ledger record", "jti", claims.ID, "profile_id", claims.ProfileID)
			return nil, common.ErrRefreshTokenInvalidated
		}
		return nil, fmt.Errorf("looking up refresh token: %w", err)
	}
	if !record.Valid {
		s.logger.Warn(ctx, "rotated refresh token presented again",
			"jti", record.ID, "profile_id", record.ProfileID, "invalidated_at", record.InvalidatedAt)
		return nil, common.ErrRefreshTokenInvalidated
	}

	profile, err := s.repos.Profiles(s.db).FindByID(ctx, record.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("looking up profile: %w", err)
	}

	var pair *TokenPair
	err = s.runInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		invalid := false
		now := time.Now()
		upd := models.RefreshTokenUpdate{Valid: &invalid, InvalidatedAt: &now}
		if err := s.repos.RefreshTokens(tx).Update(ctx, record.ID, upd); err != nil {
			return fmt.Errorf("invalidating refresh token: %w", err)
		}
		var issueErr error
		pair, issueErr = s.issueTokenPair(ctx, profile, &record.ID, tx)
		return issueErr
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// UpdateProfile applies a last-write-wins partial update.
func (s *AuthService) UpdateProfile(ctx context.Context, profileID string, upd models.ProfileUpdate) error {
	return s.repos.Profiles(s.db).Update(ctx, profileID, upd)
}

// FindProfileByID returns the profile with the given id.
func (s *AuthService) FindProfileByID(ctx context.Context, profileID string) (*models.UserProfile, error) {
	return s.repos.Profiles(s.db).FindByID(ctx, profileID)
}

// --- helpers below ---

// issueTokenPair creates a new ACTIVE ledger record (chained when
// previousTokenID is set), then signs both tokens. The refresh token's jti
// equals the new record's id; a jti is never reused.
func (s *AuthService) issueTokenPair(ctx context.Context, profile *models.UserProfile, previousTokenID *string, db dbx.DBTX) (*TokenPair, error) {
	now := time.Now()

	record := &models.RefreshToken{
		ID:              uuid.NewString(),
		ProfileID:       profile.ID,
		IssuedAt:        now,
		ExpiresAt:       now.Add(s.refreshTTL),
		PreviousTokenID: previousTokenID,
		Valid:           true,
	}
	if err := s.repos.RefreshTokens(db).Create(ctx, record); err != nil {
		return nil, fmt.Errorf("saving refresh token: %w", err)
	}

	refresh, err := s.codec.EncodeRefresh(record)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}

	accessExp := now.Add(s.accessTTL)
	access, err := s.codec.EncodeAccess(profile, now, accessExp)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: record.ExpiresAt,
		ProfileID:        profile.ID,
	}, nil
}

// runInTx executes fn inside a database transaction when a connection is
// available; otherwise fn runs directly against the shared repositories.
func (s *AuthService) runInTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, s.db, nil, fn)
}
