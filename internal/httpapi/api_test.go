package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kayo09/mood-tracker/internal/auth"
	"github.com/kayo09/mood-tracker/internal/auth/authtest"
	"github.com/kayo09/mood-tracker/internal/httpapi"
	"github.com/kayo09/mood-tracker/internal/journal"
	"github.com/kayo09/mood-tracker/internal/observability"
)

const (
	testSecret   = "api-test-secret"
	testSalt     = "api-test-salt"
	testPassword = "Sunny#Day1"
)

// memoryEntryStore is an in-memory journal.EntryStore.
type memoryEntryStore struct {
	entries []journal.Entry
	nextID  int64
}

func (s *memoryEntryStore) Create(_ context.Context, entry *journal.Entry) error {
	s.nextID++
	entry.ID = s.nextID
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *memoryEntryStore) ListByAccount(_ context.Context, accountID int64) ([]journal.Entry, error) {
	var out []journal.Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].AccountID == accountID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

type testEnv struct {
	handler  http.Handler
	accounts *authtest.MemoryAccountStore
	mailer   *authtest.MemoryMailer
	codec    *auth.TokenCodec
	entries  *memoryEntryStore
	registry *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	accounts := authtest.NewMemoryAccountStore()
	mailer := authtest.NewMemoryMailer()
	entries := &memoryEntryStore{}

	codec, err := auth.NewTokenCodec(auth.TokenCodecConfig{
		Secret:           testSecret,
		VerificationSalt: testSalt,
	})
	require.NoError(t, err)

	hasher := auth.NewArgon2idHasher()

	registration, err := auth.NewRegistrationService(accounts, hasher, codec, mailer, "https://mood.example.com", logger)
	require.NoError(t, err)
	login, err := auth.NewAuthService(accounts, hasher, codec, logger)
	require.NoError(t, err)
	verification, err := auth.NewVerificationService(accounts, codec, logger)
	require.NoError(t, err)
	journalSvc, err := journal.NewService(entries, logger)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	api, err := httpapi.NewAPI(httpapi.APIConfig{
		Registration: registration,
		Login:        login,
		Verification: verification,
		Journal:      journalSvc,
		Accounts:     accounts,
		Codec:        codec,
		Metrics:      metrics,
		Logger:       logger,
	})
	require.NoError(t, err)

	return &testEnv{
		handler:  api.Routes(),
		accounts: accounts,
		mailer:   mailer,
		codec:    codec,
		entries:  entries,
		registry: registry,
	}
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	resp := rec.Result()
	t.Cleanup(func() { _ = resp.Body.Close() })

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(body) == 0 {
		return resp, nil
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		// List endpoints return arrays; callers decode those themselves.
		return resp, nil
	}
	return resp, decoded
}

func registerJSON(t *testing.T, username, email, password string) *http.Request {
	t.Helper()
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func loginForm(t *testing.T, email, password string) *http.Request {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func (e *testEnv) register(t *testing.T, username, email string) {
	t.Helper()
	resp, _ := e.do(t, registerJSON(t, username, email, testPassword))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func (e *testEnv) accessToken(t *testing.T, email string) string {
	t.Helper()
	resp, body := e.do(t, loginForm(t, email, testPassword))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("creates account and sends mail", func(t *testing.T) {
		env := newTestEnv(t)

		resp, body := env.do(t, registerJSON(t, "ada", "ada@example.com", testPassword))

		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "ada", body["username"])
		assert.Equal(t, "ada@example.com", body["email"])
		assert.Equal(t, false, body["is_verified"])
		assert.NotContains(t, body, "password_hash")
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

		require.Len(t, env.mailer.Sent(), 1)
		assert.Contains(t, env.mailer.Sent()[0].Link, "https://mood.example.com/verify/")
	})

	t.Run("weak password rejected", func(t *testing.T) {
		env := newTestEnv(t)

		resp, body := env.do(t, registerJSON(t, "ada", "ada@example.com", "short"))

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "AUTH_WEAK_PASSWORD", body["code"])
		assert.Zero(t, env.accounts.Len())
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		env := newTestEnv(t)

		resp, body := env.do(t, registerJSON(t, "ada", "not-an-email", testPassword))

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "AUTH_INVALID_EMAIL", body["code"])
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "ada", "ada@example.com")

		resp, body := env.do(t, registerJSON(t, "other", "ada@example.com", testPassword))

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "AUTH_DUPLICATE_EMAIL", body["code"])
		assert.Equal(t, 1, env.accounts.Len())
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		env := newTestEnv(t)

		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader("{not json"))
		resp, body := env.do(t, req)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "BAD_REQUEST", body["code"])
	})

	t.Run("mail failure yields generic error", func(t *testing.T) {
		env := newTestEnv(t)
		env.mailer.Err = assert.AnError

		resp, body := env.do(t, registerJSON(t, "ada", "ada@example.com", testPassword))

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "AUTH_REGISTRATION_FAILED", body["code"])
		assert.Equal(t, "registration failed", body["detail"])
		assert.Zero(t, env.accounts.Len(), "tentative insert must be rolled back")
	})
}

func TestVerifyEndpoint(t *testing.T) {
	t.Run("marks account verified", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "ada", "ada@example.com")

		link := env.mailer.Sent()[0].Link
		token := link[strings.LastIndex(link, "/")+1:]

		resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/verify/"+token, nil))

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ada@example.com", body["email"])

		account, err := env.accounts.GetByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.True(t, account.Verified)
	})

	t.Run("garbage token", func(t *testing.T) {
		env := newTestEnv(t)

		resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/verify/garbage", nil))

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "TOKEN_INVALID_OR_EXPIRED", body["code"])
	})

	t.Run("valid token for missing account", func(t *testing.T) {
		env := newTestEnv(t)

		token, err := env.codec.IssueVerificationToken("ghost@example.com")
		require.NoError(t, err)

		resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/verify/"+token, nil))

		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "ACCOUNT_NOT_FOUND", body["code"])
	})
}

func TestRequestMetricsUseRoutePatterns(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "ada", "ada@example.com")

	link := env.mailer.Sent()[0].Link
	token := link[strings.LastIndex(link, "/")+1:]

	resp, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/verify/"+token, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	families, err := env.registry.Gather()
	require.NoError(t, err)

	var routes []string
	for _, family := range families {
		if family.GetName() != "moodtracker_http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "route" {
					routes = append(routes, label.GetValue())
				}
			}
		}
	}

	require.NotEmpty(t, routes)
	assert.Contains(t, routes, "POST /register")
	assert.Contains(t, routes, "GET /verify/{token}")
	for _, route := range routes {
		assert.NotContains(t, route, token, "route label must not carry the token")
	}
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("returns bearer token", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "ada", "ada@example.com")

		resp, body := env.do(t, loginForm(t, "ada@example.com", testPassword))

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "bearer", body["token_type"])
		assert.NotEmpty(t, body["access_token"])

		user, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "ada@example.com", user["email"])
	})

	t.Run("unverified account can log in", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "ada", "ada@example.com")

		resp, _ := env.do(t, loginForm(t, "ada@example.com", testPassword))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "ada", "ada@example.com")

		respWrong, bodyWrong := env.do(t, loginForm(t, "ada@example.com", "Wrong#Pass1"))
		respGhost, bodyGhost := env.do(t, loginForm(t, "ghost@example.com", testPassword))

		require.Equal(t, http.StatusBadRequest, respWrong.StatusCode)
		require.Equal(t, http.StatusBadRequest, respGhost.StatusCode)
		assert.Equal(t, bodyWrong["code"], bodyGhost["code"])
		assert.Equal(t, bodyWrong["detail"], bodyGhost["detail"])
	})
}

func TestEntriesEndpoint(t *testing.T) {
	t.Run("create and list", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "ada", "ada@example.com")
		token := env.accessToken(t, "ada@example.com")

		payload := `{"emotion": "joy", "notes": "sunny walk"}`
		req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(payload))
		req.Header.Set("Authorization", "Bearer "+token)
		resp, body := env.do(t, req)

		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "Joy", body["emotion"], "emotion is canonicalized")
		assert.Equal(t, "sunny walk", body["notes"])

		listReq := httptest.NewRequest(http.MethodGet, "/entries", nil)
		listReq.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, listReq)
		require.Equal(t, http.StatusOK, rec.Code)

		var listed []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
		require.Len(t, listed, 1)
		assert.Equal(t, "Joy", listed[0]["emotion"])
	})

	t.Run("explicit date_time is preserved", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "ada", "ada@example.com")
		token := env.accessToken(t, "ada@example.com")

		when := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
		payload, err := json.Marshal(map[string]any{"emotion": "Contentment", "date_time": when})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/entries", bytes.NewReader(payload))
		req.Header.Set("Authorization", "Bearer "+token)
		resp, body := env.do(t, req)

		require.Equal(t, http.StatusCreated, resp.StatusCode)
		got, err := time.Parse(time.RFC3339, body["date_time"].(string))
		require.NoError(t, err)
		assert.True(t, when.Equal(got))
	})

	t.Run("unknown emotion rejected", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "ada", "ada@example.com")
		token := env.accessToken(t, "ada@example.com")

		req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(`{"emotion": "bogus"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		resp, body := env.do(t, req)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "JOURNAL_UNKNOWN_EMOTION", body["code"])
	})

	t.Run("missing token", func(t *testing.T) {
		env := newTestEnv(t)

		resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/entries", nil))

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "AUTH_UNAUTHORIZED", body["code"])
		assert.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))
	})

	t.Run("garbage token", func(t *testing.T) {
		env := newTestEnv(t)

		req := httptest.NewRequest(http.MethodGet, "/entries", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		resp, _ := env.do(t, req)

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("verification token rejected as access token", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "ada", "ada@example.com")

		verificationToken, err := env.codec.IssueVerificationToken("ada@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/entries", nil)
		req.Header.Set("Authorization", "Bearer "+verificationToken)
		resp, _ := env.do(t, req)

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("entries are scoped to the authenticated account", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "ada", "ada@example.com")
		env.register(t, "bob", "bob@example.com")

		adaToken := env.accessToken(t, "ada@example.com")
		bobToken := env.accessToken(t, "bob@example.com")

		req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(`{"emotion": "Anger"}`))
		req.Header.Set("Authorization", "Bearer "+adaToken)
		resp, _ := env.do(t, req)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		listReq := httptest.NewRequest(http.MethodGet, "/entries", nil)
		listReq.Header.Set("Authorization", "Bearer "+bobToken)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, listReq)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]\n", rec.Body.String(), "bob sees no entries")
	})
}
