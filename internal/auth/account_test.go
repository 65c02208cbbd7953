package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kayo09/mood-tracker/internal/auth"
)

func TestNewAccount(t *testing.T) {
	t.Run("valid account starts unverified", func(t *testing.T) {
		account, err := auth.NewAccount("kay", "Kay@Example.com", "hash123")
		require.NoError(t, err)
		assert.Equal(t, "kay@example.com", account.Email)
		assert.False(t, account.Verified)
		assert.Zero(t, account.ID)
		assert.False(t, account.CreatedAt.IsZero())
	})

	t.Run("empty username rejected", func(t *testing.T) {
		_, err := auth.NewAccount("", "kay@example.com", "hash123")
		assert.Error(t, err)
	})

	t.Run("empty hash rejected", func(t *testing.T) {
		_, err := auth.NewAccount("kay", "kay@example.com", "")
		assert.Error(t, err)
	})
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@b.com", "first.last@sub.example.org", "x+tag@example.co"}
	for _, email := range valid {
		assert.NoError(t, auth.ValidateEmail(email), "email: %q", email)
	}

	invalid := []string{"", "plain", "a@b", "a @b.com", "a@b .com", "@example.com"}
	for _, email := range invalid {
		assert.Error(t, auth.ValidateEmail(email), "email: %q", email)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "kay@example.com", auth.NormalizeEmail("  Kay@Example.COM "))
}
