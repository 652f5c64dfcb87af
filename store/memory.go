package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"wheeltracker/models"
)

// Repository is the session persistence contract shared by the in-memory
// store and the PostgreSQL repository.
type Repository interface {
	Save(ctx context.Context, name string, records []models.RoundRecord) error
	Load(ctx context.Context, name string) (*models.Session, error)
	List(ctx context.Context) ([]models.SessionInfo, error)
	Delete(ctx context.Context, name string) error
	DeleteAll(ctx context.Context) error
}

// MemoryStore keeps sessions in process memory. Every stored list is an
// independent copy, so callers never share record state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
		now:      time.Now,
	}
}

// Save overwrites the session called name with a copy of records
func (s *MemoryStore) Save(ctx context.Context, name string, records []models.RoundRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("session name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	existing, ok := s.sessions[name]
	if !ok {
		existing = &models.Session{
			ID:        uuid.New(),
			Name:      name,
			CreatedAt: now,
		}
		s.sessions[name] = existing
	}

	existing.Records = models.CloneRecords(records)
	if existing.Records == nil {
		existing.Records = []models.RoundRecord{}
	}
	existing.UpdatedAt = now
	return nil
}

// Load returns a copy of the named session
func (s *MemoryStore) Load(ctx context.Context, name string) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrSessionNotFound, name)
	}

	out := *session
	out.Records = models.CloneRecords(session.Records)
	return &out, nil
}

// List returns every stored session ordered by name
func (s *MemoryStore) List(ctx context.Context) ([]models.SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]models.SessionInfo, 0, len(s.sessions))
	for _, session := range s.sessions {
		infos = append(infos, models.SessionInfo{
			ID:         session.ID,
			Name:       session.Name,
			RoundCount: len(session.Records),
			UpdatedAt:  session.UpdatedAt,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos, nil
}

// Delete removes the named session
func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[name]; !ok {
		return fmt.Errorf("%w: %q", models.ErrSessionNotFound, name)
	}
	delete(s.sessions, name)
	return nil
}

// DeleteAll clears the store
func (s *MemoryStore) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*models.Session)
	return nil
}
