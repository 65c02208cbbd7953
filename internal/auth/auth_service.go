package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// dummyPasswordHash is verified against when a login targets an unknown
// email, so response time does not reveal whether the account exists.
// This is NOT a real credential - it never matched any password.
//
//nolint:gosec // G101: intentionally fake hash for timing-attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// AuthService authenticates credentials and issues access tokens.
type AuthService struct {
	accounts AccountStore
	hasher   PasswordHasher
	codec    *TokenCodec
	logger   *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(accounts AccountStore, hasher PasswordHasher, codec *TokenCodec, logger *slog.Logger) (*AuthService, error) {
	if accounts == nil {
		return nil, errors.New("account store is required")
	}
	if hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	if codec == nil {
		return nil, errors.New("token codec is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{accounts: accounts, hasher: hasher, codec: codec, logger: logger}, nil
}

// Login verifies the credentials and returns the account together with a
// freshly issued access token. An unknown email and a wrong password
// produce the identical AUTH_INVALID_CREDENTIALS error so callers cannot
// enumerate accounts.
//
// The verification flag is deliberately not checked here; an unverified
// account can log in.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Account, string, error) {
	email = NormalizeEmail(email)

	account, lookupErr := s.accounts.GetByEmail(ctx, email)

	// Verify against the real or the dummy hash either way to keep
	// response time independent of account existence.
	targetHash := dummyPasswordHash
	if lookupErr == nil {
		targetHash = account.PasswordHash
	} else if !errors.Is(lookupErr, ErrNotFound) {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get account by email").
			Wrap(lookupErr)
	}

	valid := s.hasher.Verify(password, targetHash)
	if lookupErr != nil || !valid {
		return nil, "", invalidCredentials()
	}

	token, err := s.codec.IssueAccessToken(account.Email)
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue access token").
			Wrap(err)
	}

	s.logger.Info("login succeeded", "email", account.Email)
	return account.Redacted(), token, nil
}

// invalidCredentials builds the single error returned for both unknown
// email and wrong password.
func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
}
