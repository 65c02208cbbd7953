package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kayo09/mood-tracker/pkg/errutil"
)

func TestCode(t *testing.T) {
	assert.Empty(t, errutil.Code(nil))
	assert.Empty(t, errutil.Code(errors.New("plain")))
	assert.Equal(t, "AUTH_WEAK_PASSWORD", errutil.Code(oops.Code("AUTH_WEAK_PASSWORD").Errorf("weak")))

	wrapped := oops.Code("TOKEN_INVALID").Wrap(errors.New("bad signature"))
	assert.Equal(t, "TOKEN_INVALID", errutil.Code(wrapped))

	// An oops error built without a code carries none.
	assert.Empty(t, errutil.Code(oops.With("email", "u@example.com").Errorf("uncoded")))
}

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("MAIL_SEND_FAILED").With("email", "u@example.com").Errorf("smtp down")
	errutil.LogError(logger, "send failed", err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "send failed", entry["msg"])
	assert.Equal(t, "MAIL_SEND_FAILED", entry["code"])
	assert.Contains(t, entry, "context")
}

func TestLogError_WithUncodedOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "boom", oops.With("email", "u@example.com").Errorf("no code set"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "boom", entry["msg"])
	assert.NotContains(t, entry, "code")
	assert.Contains(t, entry, "context")
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "boom", errors.New("plain failure"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "boom", entry["msg"])
	assert.Equal(t, "plain failure", entry["error"])
	assert.NotContains(t, entry, "code")
}

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("MY_CODE").Errorf("test error")
	errutil.AssertErrorCode(t, err, "MY_CODE")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("email", "u@example.com").Errorf("test error")
	errutil.AssertErrorContext(t, err, "email", "u@example.com")
}
