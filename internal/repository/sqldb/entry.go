package sqldb

import (
	"context"
	"fmt"

	"github.com/sakif/guestbook/internal/model"
	"github.com/sakif/guestbook/internal/repository"
)

var _ repository.EntryRepository = (*DB)(nil)

// Create inserts a new entry. The backend assigns id and created_at; only the
// id is copied back onto entry.
//
// PARAMETERIZED QUERIES:
// name and message are visitor input, so they only ever travel as bind
// parameters, never as part of the SQL text.
func (db *DB) Create(ctx context.Context, entry *model.Entry) error {
	if db.dialect.insertReturnsID {
		if err := db.conn.QueryRowContext(ctx, db.dialect.insert, entry.Name, entry.Message).Scan(&entry.ID); err != nil {
			return fmt.Errorf("sqldb: creating entry: %w", err)
		}
		return nil
	}

	result, err := db.conn.ExecContext(ctx, db.dialect.insert, entry.Name, entry.Message)
	if err != nil {
		return fmt.Errorf("sqldb: creating entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqldb: reading inserted id: %w", err)
	}
	entry.ID = id
	return nil
}

// List returns all entries ordered by id, newest first.
func (db *DB) List(ctx context.Context) ([]model.Entry, error) {
	rows, err := db.conn.QueryContext(ctx, selectEntries)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.Entry, 0)
	for rows.Next() {
		var e model.Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Message, timestamp{&e.CreatedAt}); err != nil {
			return nil, fmt.Errorf("sqldb: scanning entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqldb: iterating entries: %w", err)
	}

	return entries, nil
}
