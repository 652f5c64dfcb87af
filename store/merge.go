package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"wheeltracker/models"
)

// MergeImport applies decoded bulk data to repo and returns the records of the
// active session afterwards.
//
// A session map is merged key by key and overwrites sessions with the same
// name. A bare record list replaces the active session. Every record is
// validated before anything is written, so a bad import leaves the store as it was.
func MergeImport(ctx context.Context, repo Repository, active string, bulk models.BulkImport) ([]models.RoundRecord, error) {
	if !bulk.IsSessionMap() {
		if err := validateRecords(active, bulk.Records); err != nil {
			return nil, err
		}
		if err := repo.Save(ctx, active, bulk.Records); err != nil {
			return nil, fmt.Errorf("failed to save session %q: %w", active, err)
		}
		return models.CloneRecords(bulk.Records), nil
	}

	names := make([]string, 0, len(bulk.Sessions))
	for name, records := range bulk.Sessions {
		if name == "" {
			return nil, &models.ImportError{Reason: "session name is empty"}
		}
		if err := validateRecords(name, records); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := repo.Save(ctx, name, bulk.Sessions[name]); err != nil {
			return nil, fmt.Errorf("failed to save session %q: %w", name, err)
		}
	}

	session, err := repo.Load(ctx, active)
	if errors.Is(err, models.ErrSessionNotFound) {
		return []models.RoundRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %q: %w", active, err)
	}
	return session.Records, nil
}

func validateRecords(session string, records []models.RoundRecord) error {
	for i, record := range records {
		if err := record.Validate(); err != nil {
			return &models.ImportError{
				Line:   i + 1,
				Reason: fmt.Sprintf("session %q: %v", session, err),
			}
		}
	}
	return nil
}
