// Package postgres implements journal storage on PostgreSQL.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/kayo09/mood-tracker/internal/journal"
)

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EntryRepository implements journal.EntryStore using PostgreSQL. The
// table keeps the original schema name "mood".
type EntryRepository struct {
	db DB
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Create inserts a new entry and fills in the store-assigned ID.
func (r *EntryRepository) Create(ctx context.Context, entry *journal.Entry) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO mood (user_id, emotion, notes, date_time, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		entry.AccountID,
		entry.Emotion,
		entry.Notes,
		entry.OccurredAt,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return oops.Code("ENTRY_CREATE_FAILED").
			With("operation", "insert entry").
			With("account_id", entry.AccountID).
			Wrap(err)
	}
	return nil
}

// ListByAccount retrieves all entries for an account, newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID int64) ([]journal.Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, emotion, notes, date_time, created_at
		FROM mood
		WHERE user_id = $1
		ORDER BY date_time DESC, id DESC
	`, accountID)
	if err != nil {
		return nil, oops.Code("ENTRY_LIST_FAILED").
			With("operation", "query entries").
			With("account_id", accountID).
			Wrap(err)
	}
	defer rows.Close()

	var entries []journal.Entry
	for rows.Next() {
		var entry journal.Entry
		if err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.Emotion,
			&entry.Notes,
			&entry.OccurredAt,
			&entry.CreatedAt,
		); err != nil {
			return nil, oops.Code("ENTRY_SCAN_FAILED").
				With("operation", "scan entry").
				Wrap(err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ENTRY_LIST_FAILED").
			With("operation", "iterate entries").
			Wrap(err)
	}

	return entries, nil
}

// Compile-time interface check.
var _ journal.EntryStore = (*EntryRepository)(nil)
