package journal

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// Service coordinates journal entry operations for authenticated
// accounts.
type Service struct {
	entries EntryStore
	logger  *slog.Logger
}

// NewService creates a journal Service.
func NewService(entries EntryStore, logger *slog.Logger) (*Service, error) {
	if entries == nil {
		return nil, errors.New("entry store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{entries: entries, logger: logger}, nil
}

// Add records a new journal entry for the account. The emotion must come
// from the emotion vocabulary (any level of the hierarchy,
// case-insensitive); it is stored in canonical spelling. A zero
// occurredAt defaults to now.
func (s *Service) Add(ctx context.Context, accountID int64, emotion, notes string, occurredAt time.Time) (*Entry, error) {
	canonical, ok := CanonicalEmotion(emotion)
	if !ok {
		return nil, oops.Code("JOURNAL_UNKNOWN_EMOTION").
			With("emotion", emotion).
			Errorf("unknown emotion")
	}

	now := time.Now().UTC()
	if occurredAt.IsZero() {
		occurredAt = now
	}

	entry := &Entry{
		AccountID:  accountID,
		Emotion:    canonical,
		Notes:      notes,
		OccurredAt: occurredAt,
		CreatedAt:  now,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, oops.Code("JOURNAL_CREATE_FAILED").
			With("operation", "insert entry").
			With("account_id", accountID).
			Wrap(err)
	}

	s.logger.Info("journal entry added", "account_id", accountID, "emotion", canonical)
	return entry, nil
}

// List returns the account's entries, newest first.
func (s *Service) List(ctx context.Context, accountID int64) ([]Entry, error) {
	entries, err := s.entries.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, oops.Code("JOURNAL_LIST_FAILED").
			With("operation", "list entries").
			With("account_id", accountID).
			Wrap(err)
	}
	return entries, nil
}
