// Package journal implements mood journal entries: the entry model, the
// emotion vocabulary, and the service coordinating entry creation and
// listing per account.
package journal

import (
	"context"
	"time"
)

// Entry is one mood journal record belonging to an account.
type Entry struct {
	ID        int64
	AccountID int64
	Emotion   string
	Notes     string
	// OccurredAt is when the mood was felt; defaults to creation time
	// when the client does not supply one.
	OccurredAt time.Time
	CreatedAt  time.Time
}

// EntryStore manages journal entry persistence.
type EntryStore interface {
	// Create inserts a new entry and fills in the store-assigned ID.
	Create(ctx context.Context, entry *Entry) error

	// ListByAccount retrieves all entries for an account, newest first.
	ListByAccount(ctx context.Context, accountID int64) ([]Entry, error)
}
