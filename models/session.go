package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a named, ordered list of round records
type Session struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Records   []RoundRecord
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SessionInfo is the list view of a stored session
type SessionInfo struct {
	ID         uuid.UUID `db:"id"`
	Name       string    `db:"name"`
	RoundCount int       `db:"round_count"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// BulkImport is decoded bulk data. Exactly one of Sessions or Records is set:
// a session map merges key by key, a bare record list replaces the active session.
type BulkImport struct {
	Sessions map[string][]RoundRecord
	Records  []RoundRecord
}

// IsSessionMap returns true when the bulk data is keyed by session name
func (b BulkImport) IsSessionMap() bool {
	return b.Sessions != nil
}
