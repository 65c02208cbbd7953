package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/samber/oops"
)

// emailRegex accepts addresses of the shape local@domain.tld. It is a
// format sanity check, not RFC 5322 validation; mailbox ownership is
// proven by the verification flow.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Account represents a registered user identity.
type Account struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Verified     bool
	CreatedAt    time.Time
}

// NewAccount creates an unverified Account with a normalized email.
// The ID is zero until the store assigns one.
func NewAccount(username, email, passwordHash string) (*Account, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if username == "" {
		return nil, oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_EMPTY_HASH").Errorf("password hash cannot be empty")
	}
	return &Account{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Verified:     false,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Redacted returns a copy of the account without the password hash. The
// flows return this form; the hash stays inside the store and the
// credential check.
func (a *Account) Redacted() *Account {
	clone := *a
	clone.PasswordHash = ""
	return &clone
}

// NormalizeEmail lowercases and trims an email address so lookups and
// the uniqueness constraint see one canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the address format.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("email", email).
			Errorf("invalid email address")
	}
	return nil
}

// AccountStore manages account persistence.
type AccountStore interface {
	// Create inserts a new account and fills in the store-assigned ID.
	// Returns ErrDuplicateEmail if the email is already registered.
	Create(ctx context.Context, account *Account) error

	// GetByEmail retrieves an account by normalized email.
	// Returns ErrNotFound if no account has the given email.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// MarkVerified sets the verification flag for the account with the
	// given email and returns the updated account. Idempotent: an
	// already-verified account is returned unchanged without error.
	MarkVerified(ctx context.Context, email string) (*Account, error)
}

// TransactionalAccountStore is an AccountStore whose writes can be
// grouped into a transaction controlled by the caller.
type TransactionalAccountStore interface {
	AccountStore

	// WithTx runs fn against a transactional view of the store. The
	// transaction commits iff fn returns nil; any error rolls back
	// every write fn performed.
	WithTx(ctx context.Context, fn func(AccountStore) error) error
}
