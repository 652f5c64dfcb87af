package service

import (
	"context"

	"github.com/shopspring/decimal"

	"wheeltracker/events"
	"wheeltracker/models"
)

// SessionRepository defines the interface for session persistence
type SessionRepository interface {
	// Save overwrites the named session with a copy of records, creating it if needed
	Save(ctx context.Context, name string, records []models.RoundRecord) error

	// Load returns the named session or models.ErrSessionNotFound
	Load(ctx context.Context, name string) (*models.Session, error)

	// List returns every stored session ordered by name
	List(ctx context.Context) ([]models.SessionInfo, error)

	// Delete removes the named session or returns models.ErrSessionNotFound
	Delete(ctx context.Context, name string) error

	// DeleteAll removes every session
	DeleteAll(ctx context.Context) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork groups repository calls so they commit or roll back together
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SessionRepository() SessionRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates a fresh UnitOfWork per operation
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// TrackerService defines the interface for session ledger operations
type TrackerService interface {
	// AddRound appends a round to the session, creating the session if needed,
	// and returns the enriched row for it
	AddRound(ctx context.Context, session string, record models.RoundRecord) (*models.EnrichedRow, error)

	// DeleteRound removes the round at the 1-based position and returns the recomputed ledger
	DeleteRound(ctx context.Context, session string, position int) ([]models.EnrichedRow, error)

	// GetLedger returns the enriched rows of a session
	GetLedger(ctx context.Context, session string) ([]models.EnrichedRow, error)

	// GetSummary returns session aggregates, models.ErrInsufficientData when empty
	GetSummary(ctx context.Context, session string) (*models.Summary, error)

	// GetTopRounds returns the n rounds with the greatest net
	GetTopRounds(ctx context.Context, session string, n int) ([]models.EnrichedRow, error)

	// GetBigWinGaps returns the distances between rounds whose net reaches threshold
	GetBigWinGaps(ctx context.Context, session string, threshold decimal.Decimal) ([]models.Gap, error)

	// GetReport returns every view of the session using the configured parameters
	GetReport(ctx context.Context, session string) (*models.Report, error)

	// LoadSession returns the stored records of a session
	LoadSession(ctx context.Context, name string) (*models.Session, error)

	// ListSessions returns every stored session
	ListSessions(ctx context.Context) ([]models.SessionInfo, error)

	// CopySession saves the records of src under dst, overwriting dst
	CopySession(ctx context.Context, src, dst string) error

	// DeleteSession removes one session
	DeleteSession(ctx context.Context, name string) error

	// DeleteAllSessions clears the store
	DeleteAllSessions(ctx context.Context) error

	// ImportBulk merges decoded bulk data and returns the active session's records
	ImportBulk(ctx context.Context, active string, bulk models.BulkImport) ([]models.RoundRecord, error)

	// ExportSessions returns the records of the named sessions, or of every session when names is empty
	ExportSessions(ctx context.Context, names []string) (map[string][]models.RoundRecord, error)
}
