package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/kayo09/mood-tracker/internal/auth"
	"github.com/kayo09/mood-tracker/internal/journal"
	"github.com/kayo09/mood-tracker/internal/observability"
	"github.com/kayo09/mood-tracker/pkg/errutil"
)

// API holds the HTTP handlers for the service.
type API struct {
	registration *auth.RegistrationService
	login        *auth.AuthService
	verification *auth.VerificationService
	journal      *journal.Service
	accounts     auth.AccountStore
	codec        *auth.TokenCodec
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// APIConfig collects the dependencies for NewAPI.
type APIConfig struct {
	Registration *auth.RegistrationService
	Login        *auth.AuthService
	Verification *auth.VerificationService
	Journal      *journal.Service
	Accounts     auth.AccountStore
	Codec        *auth.TokenCodec
	Metrics      *observability.Metrics
	Logger       *slog.Logger
}

// NewAPI creates the API handler set.
func NewAPI(cfg APIConfig) (*API, error) {
	switch {
	case cfg.Registration == nil:
		return nil, oops.Errorf("registration service is required")
	case cfg.Login == nil:
		return nil, oops.Errorf("auth service is required")
	case cfg.Verification == nil:
		return nil, oops.Errorf("verification service is required")
	case cfg.Journal == nil:
		return nil, oops.Errorf("journal service is required")
	case cfg.Accounts == nil:
		return nil, oops.Errorf("account store is required")
	case cfg.Codec == nil:
		return nil, oops.Errorf("token codec is required")
	case cfg.Metrics == nil:
		return nil, oops.Errorf("metrics are required")
	case cfg.Logger == nil:
		return nil, oops.Errorf("logger is required")
	}

	return &API{
		registration: cfg.Registration,
		login:        cfg.Login,
		verification: cfg.Verification,
		journal:      cfg.Journal,
		accounts:     cfg.Accounts,
		codec:        cfg.Codec,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}, nil
}

// Routes returns the full handler chain for the public API.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /register", a.handleRegister)
	mux.HandleFunc("GET /verify/{token}", a.handleVerify)
	mux.HandleFunc("POST /login", a.handleLogin)
	mux.Handle("POST /entries", a.requireAuth(http.HandlerFunc(a.handleCreateEntry)))
	mux.Handle("GET /entries", a.requireAuth(http.HandlerFunc(a.handleListEntries)))

	return a.withRequestID(a.withLogging(mux))
}

type accountResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Verified  bool      `json:"is_verified"`
	CreatedAt time.Time `json:"created_at"`
}

func newAccountResponse(account *auth.Account) accountResponse {
	return accountResponse{
		ID:        account.ID,
		Username:  account.Username,
		Email:     account.Email,
		Verified:  account.Verified,
		CreatedAt: account.CreatedAt,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.metrics.RegistrationsTotal.WithLabelValues("BAD_REQUEST").Inc()
		writeErrorMessage(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	account, err := a.registration.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		a.metrics.RegistrationsTotal.WithLabelValues(statusLabel(err)).Inc()
		a.writeError(r, w, err)
		return
	}

	a.metrics.RegistrationsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusCreated, newAccountResponse(account))
}

type verifyResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	account, err := a.verification.Verify(r.Context(), r.PathValue("token"))
	if err != nil {
		a.metrics.VerificationsTotal.WithLabelValues(statusLabel(err)).Inc()
		a.writeError(r, w, err)
		return
	}

	a.metrics.VerificationsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, verifyResponse{
		Message: "email verified",
		Email:   account.Email,
	})
}

type loginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	User        accountResponse `json:"user"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.metrics.LoginsTotal.WithLabelValues("BAD_REQUEST").Inc()
		writeErrorMessage(w, http.StatusBadRequest, "BAD_REQUEST", "invalid form body")
		return
	}

	// The form field follows the OAuth2 password grant convention, but the
	// value is the account's email.
	email := r.PostFormValue("username")
	password := r.PostFormValue("password")

	account, token, err := a.login.Login(r.Context(), email, password)
	if err != nil {
		a.metrics.LoginsTotal.WithLabelValues(statusLabel(err)).Inc()
		a.writeError(r, w, err)
		return
	}

	a.metrics.LoginsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        newAccountResponse(account),
	})
}

type entryRequest struct {
	Emotion  string     `json:"emotion"`
	Notes    string     `json:"notes"`
	DateTime *time.Time `json:"date_time,omitempty"`
}

type entryResponse struct {
	ID         int64     `json:"id"`
	Emotion    string    `json:"emotion"`
	Notes      string    `json:"notes"`
	OccurredAt time.Time `json:"date_time"`
	CreatedAt  time.Time `json:"created_at"`
}

func newEntryResponse(entry *journal.Entry) entryResponse {
	return entryResponse{
		ID:         entry.ID,
		Emotion:    entry.Emotion,
		Notes:      entry.Notes,
		OccurredAt: entry.OccurredAt,
		CreatedAt:  entry.CreatedAt,
	}
}

func (a *API) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r.Context())

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	var occurredAt time.Time
	if req.DateTime != nil {
		occurredAt = *req.DateTime
	}

	entry, err := a.journal.Add(r.Context(), account.ID, req.Emotion, req.Notes, occurredAt)
	if err != nil {
		a.writeError(r, w, err)
		return
	}

	a.metrics.EntriesTotal.Inc()
	writeJSON(w, http.StatusCreated, newEntryResponse(entry))
}

func (a *API) handleListEntries(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r.Context())

	entries, err := a.journal.List(r.Context(), account.ID)
	if err != nil {
		a.writeError(r, w, err)
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, newEntryResponse(&entries[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

type errorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// statusFor maps domain error codes to HTTP status codes. Unknown codes are
// treated as internal failures so nothing unexpected leaks to clients.
func statusFor(code string) int {
	switch code {
	case "AUTH_INVALID_EMAIL", "AUTH_WEAK_PASSWORD", "AUTH_DUPLICATE_EMAIL",
		"AUTH_REGISTRATION_FAILED", "AUTH_INVALID_CREDENTIALS",
		"TOKEN_INVALID_OR_EXPIRED", "JOURNAL_UNKNOWN_EMOTION":
		return http.StatusBadRequest
	case "ACCOUNT_NOT_FOUND":
		return http.StatusNotFound
	case "AUTH_UNAUTHORIZED":
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func statusLabel(err error) string {
	if code := errutil.Code(err); code != "" {
		return code
	}
	return "ERROR"
}

func (a *API) writeError(r *http.Request, w http.ResponseWriter, err error) {
	code := errutil.Code(err)
	status := statusFor(code)

	if status == http.StatusInternalServerError {
		errutil.LogError(a.logger.With("route", r.Pattern), "request failed", err)
		writeErrorMessage(w, status, "INTERNAL", "internal server error")
		return
	}

	writeErrorMessage(w, status, code, errorDetails[code])
}

// errorDetails holds the client-facing message for each mappable code.
// Responses never echo err.Error() so wrapped causes cannot leak.
var errorDetails = map[string]string{
	"AUTH_INVALID_EMAIL":       "invalid email address",
	"AUTH_WEAK_PASSWORD":       "password must be at least 8 characters with upper and lower case letters, a digit, and a special character",
	"AUTH_DUPLICATE_EMAIL":     "email already registered",
	"AUTH_REGISTRATION_FAILED": "registration failed",
	"AUTH_INVALID_CREDENTIALS": "invalid email or password",
	"AUTH_UNAUTHORIZED":        "missing or invalid access token",
	"TOKEN_INVALID_OR_EXPIRED": "invalid or expired verification token",
	"ACCOUNT_NOT_FOUND":        "account not found",
	"JOURNAL_UNKNOWN_EMOTION":  "unknown emotion",
}

func writeErrorMessage(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // response write error means the client went away
	json.NewEncoder(w).Encode(body)
}
