package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"wheeltracker/config"
	"wheeltracker/events"
	"wheeltracker/ledger"
	"wheeltracker/models"
	"wheeltracker/store"
)

type trackerService struct {
	uowFactory UnitOfWorkFactory
	table      *ledger.PayoutTable
}

// NewTrackerService creates a new tracker service
func NewTrackerService(uowFactory UnitOfWorkFactory, table *ledger.PayoutTable) TrackerService {
	return &trackerService{
		uowFactory: uowFactory,
		table:      table,
	}
}

func (s *trackerService) ledgerOptions() ledger.Options {
	return ledger.Options{StartingBudget: config.Get().StartingBudget}
}

// AddRound appends a round and emits a bankroll alert when the session crosses a threshold
func (s *trackerService) AddRound(ctx context.Context, session string, record models.RoundRecord) (*models.EnrichedRow, error) {
	if session == "" {
		return nil, fmt.Errorf("session name is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	repo := uow.SessionRepository()

	ws, err := store.OpenWorkspace(ctx, repo, session)
	if err != nil {
		return nil, err
	}

	ws, err = ws.Append(record)
	if err != nil {
		return nil, fmt.Errorf("invalid round: %w", err)
	}

	rows, err := ws.Enrich(s.table, s.ledgerOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to compute ledger: %w", err)
	}

	if err := ws.Save(ctx, repo); err != nil {
		return nil, fmt.Errorf("failed to save session %q: %w", session, err)
	}

	last := rows[len(rows)-1]
	uow.EventBus().Publish(events.RoundRecordedEvent{
		Session:  session,
		Position: last.Index,
		Segment:  last.Round.WinningSegment,
		Net:      last.Net,
		Bankroll: last.Bankroll,
	})

	previous := decimal.Zero
	if len(rows) > 1 {
		previous = rows[len(rows)-2].Bankroll
	}
	if alert, crossed := s.crossedAlert(previous, last.Bankroll); crossed {
		uow.EventBus().Publish(events.BankrollAlertEvent{Session: session, Alert: alert})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"session":  session,
		"position": last.Index,
		"segment":  last.Round.WinningSegment,
		"net":      last.Net.String(),
		"bankroll": last.Bankroll.String(),
	}).Debug("Recorded round")

	return &last, nil
}

// crossedAlert reports an alert only when the level changes, so a session
// sitting above a threshold does not alert on every round.
func (s *trackerService) crossedAlert(previous, current decimal.Decimal) (models.Alert, bool) {
	thresholds := config.Get().AlertThresholds()
	alert := ledger.EvaluateAlert(current, thresholds)
	if !alert.Triggered() {
		return alert, false
	}
	return alert, ledger.EvaluateAlert(previous, thresholds).Level != alert.Level
}

// DeleteRound removes a round and recomputes the whole session
func (s *trackerService) DeleteRound(ctx context.Context, session string, position int) ([]models.EnrichedRow, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.SessionRepository()

	stored, err := repo.Load(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %q: %w", session, err)
	}

	ws, err := store.NewWorkspace(session).Replace(stored.Records).DeleteAt(position)
	if err != nil {
		return nil, err
	}

	rows, err := ws.Enrich(s.table, s.ledgerOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to compute ledger: %w", err)
	}

	if err := ws.Save(ctx, repo); err != nil {
		return nil, fmt.Errorf("failed to save session %q: %w", session, err)
	}

	bankroll := decimal.Zero
	if len(rows) > 0 {
		bankroll = rows[len(rows)-1].Bankroll
	}
	uow.EventBus().Publish(events.RoundDeletedEvent{
		Session:   session,
		Position:  position,
		Remaining: len(rows),
		Bankroll:  bankroll,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return rows, nil
}

// GetLedger loads and enriches a session
func (s *trackerService) GetLedger(ctx context.Context, session string) ([]models.EnrichedRow, error) {
	stored, err := s.LoadSession(ctx, session)
	if err != nil {
		return nil, err
	}

	rows, err := ledger.Enrich(s.table, stored.Records, s.ledgerOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to compute ledger for %q: %w", session, err)
	}
	return rows, nil
}

func (s *trackerService) GetSummary(ctx context.Context, session string) (*models.Summary, error) {
	rows, err := s.GetLedger(ctx, session)
	if err != nil {
		return nil, err
	}
	return ledger.Summarize(rows)
}

func (s *trackerService) GetTopRounds(ctx context.Context, session string, n int) ([]models.EnrichedRow, error) {
	rows, err := s.GetLedger(ctx, session)
	if err != nil {
		return nil, err
	}
	return ledger.TopNByNet(rows, n), nil
}

func (s *trackerService) GetBigWinGaps(ctx context.Context, session string, threshold decimal.Decimal) ([]models.Gap, error) {
	rows, err := s.GetLedger(ctx, session)
	if err != nil {
		return nil, err
	}
	return ledger.DistanceBetweenBigWins(rows, threshold)
}

// GetReport computes every view of a session. Views that lack data are left
// empty instead of failing the whole report.
func (s *trackerService) GetReport(ctx context.Context, session string) (*models.Report, error) {
	rows, err := s.GetLedger(ctx, session)
	if err != nil {
		return nil, err
	}

	cfg := config.Get()
	report := &models.Report{
		Session:         session,
		Rows:            rows,
		Top:             ledger.TopNByNet(rows, cfg.TopN),
		BigWinThreshold: cfg.BigWinThreshold,
		SpinsSinceLast:  ledger.SpinsSinceLast(s.table, rows),
	}

	summary, err := ledger.Summarize(rows)
	switch {
	case err == nil:
		report.Summary = summary
	case !errors.Is(err, models.ErrInsufficientData):
		return nil, err
	}

	gaps, err := ledger.DistanceBetweenBigWins(rows, cfg.BigWinThreshold)
	switch {
	case err == nil:
		report.BigWins = gaps
	case !errors.Is(err, models.ErrInsufficientData):
		return nil, err
	}

	bankroll := decimal.Zero
	if len(rows) > 0 {
		bankroll = rows[len(rows)-1].Bankroll
	}
	report.Alert = ledger.EvaluateAlert(bankroll, cfg.AlertThresholds())

	return report, nil
}

func (s *trackerService) LoadSession(ctx context.Context, name string) (*models.Session, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	stored, err := uow.SessionRepository().Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %q: %w", name, err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return stored, nil
}

func (s *trackerService) ListSessions(ctx context.Context) ([]models.SessionInfo, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	infos, err := uow.SessionRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return infos, nil
}

// CopySession snapshots src under dst. Later changes to either do not affect the other.
func (s *trackerService) CopySession(ctx context.Context, src, dst string) error {
	if dst == "" {
		return fmt.Errorf("destination session name is required")
	}
	if src == dst {
		return fmt.Errorf("cannot copy session %q onto itself", src)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.SessionRepository()

	stored, err := repo.Load(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to load session %q: %w", src, err)
	}

	if _, err := store.NewWorkspace(src).Replace(stored.Records).SaveAs(ctx, repo, dst); err != nil {
		return fmt.Errorf("failed to save session %q: %w", dst, err)
	}

	uow.EventBus().Publish(events.SessionImportedEvent{Sessions: []string{dst}, Rounds: len(stored.Records)})

	return uow.Commit()
}

func (s *trackerService) DeleteSession(ctx context.Context, name string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.SessionRepository().Delete(ctx, name); err != nil {
		return fmt.Errorf("failed to delete session %q: %w", name, err)
	}

	uow.EventBus().Publish(events.SessionDeletedEvent{Session: name})

	return uow.Commit()
}

func (s *trackerService) DeleteAllSessions(ctx context.Context) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.SessionRepository().DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	uow.EventBus().Publish(events.SessionDeletedEvent{})

	return uow.Commit()
}

// ImportBulk merges bulk data inside one unit of work, so a failing import writes nothing
func (s *trackerService) ImportBulk(ctx context.Context, active string, bulk models.BulkImport) ([]models.RoundRecord, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	records, err := store.MergeImport(ctx, uow.SessionRepository(), active, bulk)
	if err != nil {
		return nil, err
	}

	imported := &events.SessionImportedEvent{}
	if bulk.IsSessionMap() {
		for name, list := range bulk.Sessions {
			imported.Sessions = append(imported.Sessions, name)
			imported.Rounds += len(list)
		}
		sort.Strings(imported.Sessions)
	} else {
		imported.Sessions = []string{active}
		imported.Rounds = len(bulk.Records)
	}
	uow.EventBus().Publish(*imported)

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"sessions": imported.Sessions,
		"rounds":   imported.Rounds,
	}).Info("Imported rounds")

	return records, nil
}

func (s *trackerService) ExportSessions(ctx context.Context, names []string) (map[string][]models.RoundRecord, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.SessionRepository()

	if len(names) == 0 {
		infos, err := repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		for _, info := range infos {
			names = append(names, info.Name)
		}
	}

	out := make(map[string][]models.RoundRecord, len(names))
	for _, name := range names {
		stored, err := repo.Load(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load session %q: %w", name, err)
		}
		out[name] = stored.Records
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return out, nil
}
