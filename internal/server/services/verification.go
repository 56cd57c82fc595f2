package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/r-scheele/authgate/internal/server/models"
	"github.com/r-scheele/authgate/internal/server/repositories/verificationcodes"
)

// VerificationCodeService issues and looks up the single-use numeric codes
// gating email verification. Consumption is two-step: callers Verify first,
// act on the match, then Delete exactly once.
type VerificationCodeService struct {
	codes verificationcodes.Repository
}

// NewVerificationCodeService constructs the service over a code repository.
func NewVerificationCodeService(codes verificationcodes.Repository) *VerificationCodeService {
	return &VerificationCodeService{codes: codes}
}

// Generate replaces any outstanding code for the email with a fresh random
// 6-digit one and returns it. Delivery is the caller's responsibility.
func (s *VerificationCodeService) Generate(ctx context.Context, profileID, email string) (*models.VerificationCode, error) {
	if err := s.codes.DeleteByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("replacing verification code: %w", err)
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return nil, fmt.Errorf("generating verification code: %w", err)
	}

	code := &models.VerificationCode{
		ProfileID: profileID,
		Email:     email,
		Code:      int(n.Int64()),
		CreatedAt: time.Now(),
	}
	if err := s.codes.Create(ctx, code); err != nil {
		return nil, fmt.Errorf("saving verification code: %w", err)
	}
	return code, nil
}

// Verify looks a code up by value and returns the matched record, including
// its owning profile id. It does not consume the code.
func (s *VerificationCodeService) Verify(ctx context.Context, code int) (*models.VerificationCode, error) {
	return s.codes.FindByCode(ctx, code)
}

// Delete consumes a code after the caller has acted on a successful match.
func (s *VerificationCodeService) Delete(ctx context.Context, code int) error {
	return s.codes.DeleteByCode(ctx, code)
}

// FindByEmail returns the outstanding code for an email, if any. Login uses
// it to distinguish "verification pending" from a plain bad-credentials
// failure.
func (s *VerificationCodeService) FindByEmail(ctx context.Context, email string) (*models.VerificationCode, error) {
	return s.codes.FindByEmail(ctx, email)
}
