// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Entry is one guestbook submission.
//
// ID and CreatedAt are assigned by the storage backend on insert (auto-increment
// and DEFAULT CURRENT_TIMESTAMP), never by the visitor. Entries are never updated
// or deleted once written, so there is no UpdatedAt.
type Entry struct {
	ID        int64     `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	Message   string    `json:"message"   db:"message"` // may contain line breaks
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
