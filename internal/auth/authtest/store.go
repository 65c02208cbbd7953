// Package authtest provides in-memory test doubles for auth storage and
// mail dispatch.
package authtest

import (
	"context"
	"sync"

	"github.com/kayo09/mood-tracker/internal/auth"
)

// MemoryAccountStore is an in-memory auth.TransactionalAccountStore.
// WithTx stages writes and publishes them only when fn succeeds, giving
// tests the same commit-or-rollback semantics as the postgres store.
type MemoryAccountStore struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[string]auth.Account // keyed by email

	// CreateErr, when set, is returned by Create. Lets tests simulate
	// storage-level rejections such as a concurrent duplicate insert.
	CreateErr error
}

// NewMemoryAccountStore creates an empty store.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{accounts: make(map[string]auth.Account)}
}

// Create inserts the account, assigning the next ID.
func (s *MemoryAccountStore) Create(_ context.Context, account *auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateErr != nil {
		return s.CreateErr
	}
	if _, exists := s.accounts[account.Email]; exists {
		return auth.ErrDuplicateEmail
	}
	s.nextID++
	account.ID = s.nextID
	s.accounts[account.Email] = *account
	return nil
}

// GetByEmail returns a copy of the stored account.
func (s *MemoryAccountStore) GetByEmail(_ context.Context, email string) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[email]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &account, nil
}

// MarkVerified flips the verification flag, idempotently.
func (s *MemoryAccountStore) MarkVerified(_ context.Context, email string) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[email]
	if !ok {
		return nil, auth.ErrNotFound
	}
	account.Verified = true
	s.accounts[email] = account
	return &account, nil
}

// WithTx runs fn against a staged copy and publishes it iff fn returns nil.
func (s *MemoryAccountStore) WithTx(_ context.Context, fn func(auth.AccountStore) error) error {
	s.mu.Lock()
	staged := &MemoryAccountStore{
		nextID:    s.nextID,
		accounts:  make(map[string]auth.Account, len(s.accounts)),
		CreateErr: s.CreateErr,
	}
	for email, account := range s.accounts {
		staged.accounts[email] = account
	}
	s.mu.Unlock()

	if err := fn(staged); err != nil {
		return err
	}

	s.mu.Lock()
	s.accounts = staged.accounts
	s.nextID = staged.nextID
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored accounts.
func (s *MemoryAccountStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

// Compile-time interface check.
var _ auth.TransactionalAccountStore = (*MemoryAccountStore)(nil)

// SentMail records one dispatched verification email.
type SentMail struct {
	Email string
	Link  string
}

// MemoryMailer is an in-memory auth.Mailer recording every send.
type MemoryMailer struct {
	mu   sync.Mutex
	sent []SentMail

	// Err, when set, is returned by SendVerification.
	Err error
}

// NewMemoryMailer creates a MemoryMailer.
func NewMemoryMailer() *MemoryMailer {
	return &MemoryMailer{}
}

// SendVerification records the send, or fails with Err.
func (m *MemoryMailer) SendVerification(_ context.Context, email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, SentMail{Email: email, Link: link})
	return nil
}

// Sent returns a copy of the recorded sends.
func (m *MemoryMailer) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.sent...)
}

// Compile-time interface check.
var _ auth.Mailer = (*MemoryMailer)(nil)
