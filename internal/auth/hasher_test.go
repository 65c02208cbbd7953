package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kayo09/mood-tracker/internal/auth"
)

func TestArgon2idHasher_Hash(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("produces PHC formatted hash", func(t *testing.T) {
		hash, err := hasher.Hash("Password1!")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
		assert.Len(t, strings.Split(hash, "$"), 6)
	})

	t.Run("fresh salt per call", func(t *testing.T) {
		first, err := hasher.Hash("Password1!")
		require.NoError(t, err)
		second, err := hasher.Hash("Password1!")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("empty password rejected", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrEmptyPassword)
	})
}

func TestArgon2idHasher_Verify(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("round trip", func(t *testing.T) {
		hash, err := hasher.Hash("Password1!")
		require.NoError(t, err)
		assert.True(t, hasher.Verify("Password1!", hash))
	})

	t.Run("wrong password", func(t *testing.T) {
		hash, err := hasher.Hash("Password1!")
		require.NoError(t, err)
		assert.False(t, hasher.Verify("Password2!", hash))
	})

	t.Run("hash of different password never matches", func(t *testing.T) {
		hash, err := hasher.Hash("CorrectHorse1!")
		require.NoError(t, err)
		assert.False(t, hasher.Verify("BatteryStaple1!", hash))
	})

	t.Run("malformed hashes return false without panicking", func(t *testing.T) {
		malformed := []string{
			"",
			"not-a-hash",
			"$argon2id$v=19$m=65536,t=1,p=4$toofewparts",
			"$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
			"$argon2id$vXX$m=65536,t=1,p=4$c2FsdA$aGFzaA",
			"$argon2id$v=19$mXX$c2FsdA$aGFzaA",
			"$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
			"$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!",
			"$argon2id$v=19$m=65536,t=1,p=999$c2FsdA$aGFzaA",
		}
		for _, hash := range malformed {
			assert.False(t, hasher.Verify("Password1!", hash), "hash: %q", hash)
		}
	})
}
