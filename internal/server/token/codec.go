// Package token signs and verifies the two JWT shapes used by the service:
// self-contained access tokens carrying an identity snapshot, and minimal
// refresh tokens whose authority lives in the server-side ledger.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/r-scheele/authgate/internal/common"
	"github.com/r-scheele/authgate/internal/server/models"
)

// Identity is the snapshot of a profile embedded in access-token claims so
// downstream authorization needs no database round-trip.
type Identity struct {
	ID         string      `json:"id"`
	Email      string      `json:"email"`
	Role       models.Role `json:"role"`
	IsVerified bool        `json:"is_verified"`
	AvatarID   string      `json:"avatar_id"`
}

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	User Identity `json:"user"`
}

// RefreshClaims is the payload of a refresh token. The jti (RegisteredClaims.ID)
// equals the ledger record id; the ledger, not the payload, is the source of
// truth for refresh-token validity.
type RefreshClaims struct {
	jwt.RegisteredClaims
	ProfileID string `json:"profile_id"`
}

// Codec signs and verifies tokens with a shared secret and a fixed HMAC
// algorithm, both taken from configuration.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
}

// NewCodec builds a Codec for the named HMAC algorithm (HS256, HS384 or
// HS512).
func NewCodec(secret []byte, algorithm string) (*Codec, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q: only HMAC variants are allowed", algorithm)
	}
	return &Codec{secret: secret, method: method}, nil
}

// EncodeAccess signs an access token for the given profile expiring at exp.
func (c *Codec) EncodeAccess(profile *models.UserProfile, issuedAt, exp time.Time) (string, error) {
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		User: Identity{
			ID:         profile.ID,
			Email:      profile.Email,
			Role:       profile.Role,
			IsVerified: profile.IsVerified,
			AvatarID:   profile.AvatarID,
		},
	}
	return jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
}

// EncodeRefresh signs a refresh token for the given ledger record. The jti
// equals the record id.
func (c *Codec) EncodeRefresh(record *models.RefreshToken) (string, error) {
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        record.ID,
			IssuedAt:  jwt.NewNumericDate(record.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(record.ExpiresAt),
		},
		ProfileID: record.ProfileID,
	}
	return jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
}

// DecodeAccess verifies an access token. Expiry is checked here, not by
// callers; expired tokens yield common.ErrTokenExpired, anything else
// malformed or tampered yields common.ErrInvalidToken.
func (c *Codec) DecodeAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.parse(tokenString, claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// DecodeRefresh verifies a refresh token. Expired tokens yield
// common.ErrRefreshTokenExpired, distinguished from common.ErrInvalidToken
// for tampered or malformed input.
func (c *Codec) DecodeRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.parse(tokenString, claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrRefreshTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

func (c *Codec) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{c.method.Alg()}))
	if err != nil {
		return err
	}
	if !token.Valid {
		return common.ErrInvalidToken
	}
	return nil
}
