package store

import (
	"context"
	"errors"
	"fmt"

	"wheeltracker/ledger"
	"wheeltracker/models"
)

// Workspace is the host-owned state of one interaction: the active session
// name and its records. Operations return a new Workspace and never modify
// the receiver.
type Workspace struct {
	Active  string
	Records []models.RoundRecord
}

// NewWorkspace creates an empty workspace for the named session
func NewWorkspace(active string) Workspace {
	return Workspace{Active: active, Records: []models.RoundRecord{}}
}

// OpenWorkspace loads the named session from repo, or starts an empty one
// when it has never been saved.
func OpenWorkspace(ctx context.Context, repo Repository, name string) (Workspace, error) {
	session, err := repo.Load(ctx, name)
	if errors.Is(err, models.ErrSessionNotFound) {
		return NewWorkspace(name), nil
	}
	if err != nil {
		return Workspace{}, fmt.Errorf("failed to load session %q: %w", name, err)
	}
	return Workspace{Active: name, Records: session.Records}, nil
}

// Append returns a workspace with record added at the end
func (w Workspace) Append(record models.RoundRecord) (Workspace, error) {
	if err := record.Validate(); err != nil {
		return w, err
	}

	records := make([]models.RoundRecord, 0, len(w.Records)+1)
	records = append(records, models.CloneRecords(w.Records)...)
	records = append(records, record.Clone())
	return Workspace{Active: w.Active, Records: records}, nil
}

// DeleteAt returns a workspace without the record at the 1-based position
func (w Workspace) DeleteAt(position int) (Workspace, error) {
	records, err := ledger.DeleteAt(w.Records, position)
	if err != nil {
		return w, err
	}
	return Workspace{Active: w.Active, Records: records}, nil
}

// Replace returns a workspace holding a copy of records
func (w Workspace) Replace(records []models.RoundRecord) Workspace {
	return Workspace{Active: w.Active, Records: models.CloneRecords(records)}
}

// Len returns the number of recorded rounds
func (w Workspace) Len() int {
	return len(w.Records)
}

// Save stores the workspace records under the active session name
func (w Workspace) Save(ctx context.Context, repo Repository) error {
	return repo.Save(ctx, w.Active, w.Records)
}

// SaveAs stores the workspace records under another name and returns a
// workspace pointing at it. The two sessions share no state afterwards.
func (w Workspace) SaveAs(ctx context.Context, repo Repository, name string) (Workspace, error) {
	if err := repo.Save(ctx, name, w.Records); err != nil {
		return w, err
	}
	return Workspace{Active: name, Records: models.CloneRecords(w.Records)}, nil
}

// Enrich runs the ledger over the workspace records
func (w Workspace) Enrich(table *ledger.PayoutTable, opts ledger.Options) ([]models.EnrichedRow, error) {
	return ledger.Enrich(table, w.Records, opts)
}
