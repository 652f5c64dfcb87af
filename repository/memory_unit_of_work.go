package repository

import (
	"context"
	"fmt"
	"sort"

	"wheeltracker/events"
	"wheeltracker/models"
	"wheeltracker/service"
	"wheeltracker/store"
)

// NewMemoryUnitOfWorkFactory creates units of work over an in-memory store.
// Writes are staged and applied to the store on Commit.
func NewMemoryUnitOfWorkFactory(sessions *store.MemoryStore, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &memoryUnitOfWorkFactory{
		sessions: sessions,
		eventBus: eventBus,
	}
}

type memoryUnitOfWorkFactory struct {
	sessions *store.MemoryStore
	eventBus *events.Bus
}

func (f *memoryUnitOfWorkFactory) Create() service.UnitOfWork {
	return &memoryUnitOfWork{
		sessions:         f.sessions,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

type memoryUnitOfWork struct {
	sessions         *store.MemoryStore
	ctx              context.Context
	staged           *stagedSessionRepository
	transactionalBus *events.TransactionalBus
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error {
	if u.staged != nil {
		return fmt.Errorf("transaction already started")
	}
	u.ctx = ctx
	u.staged = newStagedSessionRepository(u.sessions)
	return nil
}

func (u *memoryUnitOfWork) Commit() error {
	if u.staged == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.staged.apply(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.staged = nil

	return u.transactionalBus.Flush(u.ctx)
}

func (u *memoryUnitOfWork) Rollback() error {
	if u.staged == nil {
		return nil
	}
	u.staged = nil
	u.transactionalBus.Discard()
	return nil
}

func (u *memoryUnitOfWork) SessionRepository() service.SessionRepository {
	if u.staged == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.staged
}

func (u *memoryUnitOfWork) EventBus() service.EventPublisher {
	return u.transactionalBus
}

// stagedSessionRepository reads through to the store and buffers writes
type stagedSessionRepository struct {
	base    *store.MemoryStore
	cleared bool
	saved   map[string][]models.RoundRecord
	deleted map[string]bool
}

func newStagedSessionRepository(base *store.MemoryStore) *stagedSessionRepository {
	return &stagedSessionRepository{
		base:    base,
		saved:   make(map[string][]models.RoundRecord),
		deleted: make(map[string]bool),
	}
}

func (r *stagedSessionRepository) Save(ctx context.Context, name string, records []models.RoundRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("session name is required")
	}

	copied := models.CloneRecords(records)
	if copied == nil {
		copied = []models.RoundRecord{}
	}
	r.saved[name] = copied
	delete(r.deleted, name)
	return nil
}

func (r *stagedSessionRepository) Load(ctx context.Context, name string) (*models.Session, error) {
	if records, ok := r.saved[name]; ok {
		session := &models.Session{Name: name}
		if !r.cleared {
			if stored, err := r.base.Load(ctx, name); err == nil {
				session = stored
			}
		}
		session.Records = models.CloneRecords(records)
		return session, nil
	}

	if r.cleared || r.deleted[name] {
		return nil, fmt.Errorf("%w: %q", models.ErrSessionNotFound, name)
	}
	return r.base.Load(ctx, name)
}

func (r *stagedSessionRepository) List(ctx context.Context) ([]models.SessionInfo, error) {
	byName := make(map[string]models.SessionInfo)

	if !r.cleared {
		infos, err := r.base.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			if !r.deleted[info.Name] {
				byName[info.Name] = info
			}
		}
	}

	for name, records := range r.saved {
		info := byName[name]
		info.Name = name
		info.RoundCount = len(records)
		byName[name] = info
	}

	out := make([]models.SessionInfo, 0, len(byName))
	for _, info := range byName {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *stagedSessionRepository) Delete(ctx context.Context, name string) error {
	_, staged := r.saved[name]

	stored := false
	if !r.cleared && !r.deleted[name] {
		if _, err := r.base.Load(ctx, name); err == nil {
			stored = true
		}
	}

	if !staged && !stored {
		return fmt.Errorf("%w: %q", models.ErrSessionNotFound, name)
	}

	delete(r.saved, name)
	if stored {
		r.deleted[name] = true
	}
	return nil
}

func (r *stagedSessionRepository) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.cleared = true
	r.saved = make(map[string][]models.RoundRecord)
	r.deleted = make(map[string]bool)
	return nil
}

// apply writes the staged changes to the store in clear, delete, save order
func (r *stagedSessionRepository) apply(ctx context.Context) error {
	if r.cleared {
		if err := r.base.DeleteAll(ctx); err != nil {
			return err
		}
	}

	for name := range r.deleted {
		if err := r.base.Delete(ctx, name); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(r.saved))
	for name := range r.saved {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := r.base.Save(ctx, name, r.saved[name]); err != nil {
			return err
		}
	}
	return nil
}
