package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/oops"
)

// Mailer dispatches the verification email. Implementations live outside
// this package; the flow only needs the send to succeed or fail before it
// decides to commit.
type Mailer interface {
	// SendVerification delivers a verification link to the address.
	SendVerification(ctx context.Context, email, link string) error
}

// RegistrationService orchestrates account registration: policy
// validation, uniqueness check, hashing, verification-token issuance,
// and an atomic commit-or-rollback around the mail dispatch. Either the
// account is durable and a verification email went out, or neither.
type RegistrationService struct {
	accounts TransactionalAccountStore
	hasher   PasswordHasher
	codec    *TokenCodec
	mailer   Mailer
	baseURL  string
	logger   *slog.Logger
}

// NewRegistrationService creates a RegistrationService. baseURL is the
// public prefix embedded in verification links.
func NewRegistrationService(
	accounts TransactionalAccountStore,
	hasher PasswordHasher,
	codec *TokenCodec,
	mailer Mailer,
	baseURL string,
	logger *slog.Logger,
) (*RegistrationService, error) {
	if accounts == nil {
		return nil, errors.New("account store is required")
	}
	if hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	if codec == nil {
		return nil, errors.New("token codec is required")
	}
	if mailer == nil {
		return nil, errors.New("mailer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrationService{
		accounts: accounts,
		hasher:   hasher,
		codec:    codec,
		mailer:   mailer,
		baseURL:  baseURL,
		logger:   logger,
	}, nil
}

// Register creates an unverified account and emails a verification link.
//
// Failure modes, in check order: AUTH_INVALID_EMAIL for a malformed
// address, AUTH_DUPLICATE_EMAIL when the email is taken, and
// AUTH_WEAK_PASSWORD when the password fails policy. Any failure after
// the tentative insert (token issuance, mail dispatch, commit) rolls the
// insert back and surfaces a generic AUTH_REGISTRATION_FAILED without
// internal detail.
func (s *RegistrationService) Register(ctx context.Context, username, email, password string) (*Account, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	// Pre-check for a friendlier error. The unique index remains the
	// authoritative guard against concurrent registration; Create below
	// reports ErrDuplicateEmail when the pre-check raced.
	_, err := s.accounts.GetByEmail(ctx, email)
	if err == nil {
		return nil, oops.Code("AUTH_DUPLICATE_EMAIL").
			With("email", email).
			Errorf("email already registered")
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_REGISTRATION_FAILED").
			With("operation", "check uniqueness").
			Wrap(err)
	}

	if !AcceptablePassword(password) {
		return nil, oops.Code("AUTH_WEAK_PASSWORD").
			Errorf("password must be at least %d characters with upper and lower case letters, a digit, and a special character", MinPasswordLength)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTRATION_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account, err := NewAccount(username, email, hash)
	if err != nil {
		return nil, err
	}

	txErr := s.accounts.WithTx(ctx, func(tx AccountStore) error {
		if err := tx.Create(ctx, account); err != nil {
			return err
		}
		token, err := s.codec.IssueVerificationToken(email)
		if err != nil {
			return err
		}
		link := fmt.Sprintf("%s/verify/%s", s.baseURL, token)
		return s.mailer.SendVerification(ctx, email, link)
	})
	if txErr != nil {
		if errors.Is(txErr, ErrDuplicateEmail) {
			return nil, oops.Code("AUTH_DUPLICATE_EMAIL").
				With("email", email).
				Wrap(txErr)
		}
		// The tentative insert has been rolled back. Log the cause but
		// surface only a generic failure to the caller.
		s.logger.Error("registration rolled back",
			"email", email,
			"error", txErr,
		)
		return nil, oops.Code("AUTH_REGISTRATION_FAILED").
			Errorf("registration failed")
	}

	s.logger.Info("account registered", "email", email, "id", account.ID)
	return account.Redacted(), nil
}
