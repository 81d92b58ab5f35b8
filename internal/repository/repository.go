package repository

import (
	"context"

	"github.com/sakif/guestbook/internal/model"
)

// EntryRepository is one open connection to the storage backend.
// Entries are append-only: there is no update or delete.
type EntryRepository interface {
	// EnsureSchema creates the entries table if it does not exist.
	// It never drops or alters existing data.
	EnsureSchema(ctx context.Context) error
	// Create inserts entry and sets entry.ID from the backend.
	Create(ctx context.Context, entry *model.Entry) error
	// List returns every entry, newest (highest id) first.
	List(ctx context.Context) ([]model.Entry, error)
	// Close releases the connection.
	Close() error
}

// Connector opens a fresh EntryRepository per request.
// Implementations return an apperror.ErrConnection error when the backend is
// unreachable or rejects the credentials.
type Connector interface {
	Connect(ctx context.Context) (EntryRepository, error)
}
