package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// Default token lifetimes, overridable through TokenCodecConfig.
const (
	DefaultAccessTokenTTL       = 30 * time.Minute
	DefaultVerificationTokenTTL = time.Hour
)

// signingAlgorithm is the fixed JWT algorithm identifier for both token
// purposes.
const signingAlgorithm = "HS256"

// Token purposes. Each purpose signs with its own key, so a token issued
// for one purpose can never validate as the other.
const (
	purposeAccess       = "access"
	purposeVerification = "email_verification"
)

// ErrInvalidToken is returned when a token has a bad signature, a
// malformed structure, a wrong purpose, or a missing subject.
var ErrInvalidToken = errors.New("invalid token")

// ErrExpiredToken is returned when a structurally valid token has passed
// its expiry.
var ErrExpiredToken = errors.New("token expired")

// TokenCodecConfig configures a TokenCodec. Secret and VerificationSalt
// are required; the process must not start without them.
type TokenCodecConfig struct {
	// Secret is the root signing secret shared by both token purposes.
	Secret string

	// VerificationSalt is mixed into the verification-token signing key
	// so access and verification tokens cannot be substituted for one
	// another even though both derive from Secret.
	VerificationSalt string

	// AccessTokenTTL bounds access tokens. Defaults to DefaultAccessTokenTTL.
	AccessTokenTTL time.Duration

	// VerificationTokenTTL is the max age of verification tokens,
	// enforced at decode time. Defaults to DefaultVerificationTokenTTL.
	VerificationTokenTTL time.Duration

	// Now is the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// TokenCodec issues and decodes the two token kinds of the service:
// short-lived session access tokens and longer-lived email-verification
// tokens. Both are stateless signed assertions; validity is determined
// entirely by signature and age at decode time.
type TokenCodec struct {
	accessKey       []byte
	verificationKey []byte
	accessTTL       time.Duration
	verificationTTL time.Duration
	now             func() time.Time
}

// NewTokenCodec creates a TokenCodec from cfg.
func NewTokenCodec(cfg TokenCodecConfig) (*TokenCodec, error) {
	if cfg.Secret == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("signing secret is required")
	}
	if cfg.VerificationSalt == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("verification salt is required")
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if cfg.VerificationTokenTTL <= 0 {
		cfg.VerificationTokenTTL = DefaultVerificationTokenTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TokenCodec{
		accessKey:       []byte(cfg.Secret),
		verificationKey: deriveKey([]byte(cfg.Secret), []byte(cfg.VerificationSalt)),
		accessTTL:       cfg.AccessTokenTTL,
		verificationTTL: cfg.VerificationTokenTTL,
		now:             cfg.Now,
	}, nil
}

// deriveKey computes HMAC-SHA256(secret, salt) so the verification key is
// cryptographically separated from the root secret.
func deriveKey(secret, salt []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(salt)
	return mac.Sum(nil)
}

// accessClaims is the access-token payload: subject email plus expiry.
type accessClaims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose"`
}

// verificationClaims binds a single email address at issuance time. Max
// age is checked against IssuedAt when decoding rather than carried as
// an expiry claim.
type verificationClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

// IssueAccessToken returns a signed access token asserting the given
// subject email until now plus the configured TTL.
func (c *TokenCodec) IssueAccessToken(subjectEmail string) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectEmail,
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Purpose: purposeAccess,
	})

	signed, err := token.SignedString(c.accessKey)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// DecodeAccessToken verifies signature and expiry and returns the subject
// email. Returns ErrExpiredToken when the expiry has passed and
// ErrInvalidToken for every other failure.
func (c *TokenCodec) DecodeAccessToken(token string) (string, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return c.accessKey, nil },
		jwt.WithValidMethods([]string{signingAlgorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	if claims.Purpose != purposeAccess || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// IssueVerificationToken returns a signed email-verification token for
// the given address.
func (c *TokenCodec) IssueVerificationToken(email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, verificationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(c.now()),
		},
		Email:   email,
		Purpose: purposeVerification,
	})

	signed, err := token.SignedString(c.verificationKey)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// DecodeVerificationToken verifies signature and max age and returns the
// bound email. The second return is false on any failure; callers treat
// bad signature, wrong purpose, and expiry uniformly as invalid.
func (c *TokenCodec) DecodeVerificationToken(token string) (string, bool) {
	claims := &verificationClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return c.verificationKey, nil },
		jwt.WithValidMethods([]string{signingAlgorithm}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", false
	}
	if claims.Purpose != purposeVerification || claims.Email == "" {
		return "", false
	}
	if claims.IssuedAt == nil {
		return "", false
	}
	if c.now().Sub(claims.IssuedAt.Time) > c.verificationTTL {
		return "", false
	}
	return claims.Email, true
}
