package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// VerificationService consumes email-verification tokens and flips the
// account's verification flag.
type VerificationService struct {
	accounts AccountStore
	codec    *TokenCodec
	logger   *slog.Logger
}

// NewVerificationService creates a VerificationService.
func NewVerificationService(accounts AccountStore, codec *TokenCodec, logger *slog.Logger) (*VerificationService, error) {
	if accounts == nil {
		return nil, errors.New("account store is required")
	}
	if codec == nil {
		return nil, errors.New("token codec is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VerificationService{accounts: accounts, codec: codec, logger: logger}, nil
}

// Verify decodes a verification token and marks the bound account as
// verified. Decode failures of any kind (bad signature, wrong purpose,
// past max age) surface uniformly as TOKEN_INVALID_OR_EXPIRED. Verifying
// an already-verified account succeeds without mutation.
func (s *VerificationService) Verify(ctx context.Context, token string) (*Account, error) {
	email, ok := s.codec.DecodeVerificationToken(token)
	if !ok {
		return nil, oops.Code("TOKEN_INVALID_OR_EXPIRED").
			Errorf("invalid or expired verification token")
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("ACCOUNT_NOT_FOUND").
				With("email", email).
				Errorf("user not found")
		}
		return nil, oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}

	if account.Verified {
		return account.Redacted(), nil
	}

	account, err = s.accounts.MarkVerified(ctx, email)
	if err != nil {
		return nil, oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "mark verified").
			Wrap(err)
	}

	s.logger.Info("email verified", "email", email)
	return account.Redacted(), nil
}
