package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wheeltracker/events"
	"wheeltracker/ledger"
	"wheeltracker/models"
)

var playedAt = time.Date(2024, 8, 9, 22, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// bigWinRound nets +95: 10 on the winning 5 with a 2x boost, 5 lost on 1
func bigWinRound() models.RoundRecord {
	r := models.NewRoundRecord(playedAt, models.SegmentFive, models.Stakes{
		models.SegmentFive: dec("10"),
		models.SegmentOne:  dec("5"),
	})
	r.ExtraMultiplier = dec("2")
	return r
}

// lostRound nets -20
func lostRound() models.RoundRecord {
	return models.NewRoundRecord(playedAt.Add(time.Minute), models.SegmentTwo, models.Stakes{
		models.SegmentFive: dec("15"),
		models.SegmentTen:  dec("5"),
	})
}

type serviceMocks struct {
	factory   *MockUnitOfWorkFactory
	uow       *MockUnitOfWork
	repo      *MockSessionRepository
	publisher *MockEventPublisher
	service   TrackerService
}

func setupServiceMocks(ctx context.Context) *serviceMocks {
	m := &serviceMocks{
		factory:   new(MockUnitOfWorkFactory),
		uow:       new(MockUnitOfWork),
		repo:      new(MockSessionRepository),
		publisher: new(MockEventPublisher),
	}
	m.uow.SetRepositories(m.repo, m.publisher)
	m.service = NewTrackerService(m.factory, ledger.DefaultPayoutTable())

	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	return m
}

func notFound(name string) error {
	return fmt.Errorf("%w: %q", models.ErrSessionNotFound, name)
}

func TestTrackerService_AddRound_NewSessionCrossesProfit(t *testing.T) {
	ctx := context.Background()
	m := setupServiceMocks(ctx)

	m.uow.On("Commit").Return(nil)
	m.repo.On("Load", ctx, "friday").Return(nil, notFound("friday"))
	m.repo.On("Save", ctx, "friday", mock.MatchedBy(func(records []models.RoundRecord) bool {
		return len(records) == 1 && records[0].WinningSegment == models.SegmentFive
	})).Return(nil)

	m.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		ev, ok := e.(events.RoundRecordedEvent)
		return ok && ev.Session == "friday" && ev.Position == 1 && ev.Net.Equal(dec("95"))
	})).Return().Once()
	m.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		ev, ok := e.(events.BankrollAlertEvent)
		return ok && ev.Alert.Level == models.AlertProfit && ev.Alert.Bankroll.Equal(dec("95"))
	})).Return().Once()

	row, err := m.service.AddRound(ctx, "friday", bigWinRound())

	require.NoError(t, err)
	assert.Equal(t, 1, row.Index)
	assert.True(t, row.Returned.Equal(dec("110")))
	assert.True(t, row.Net.Equal(dec("95")))
	assert.True(t, row.Bankroll.Equal(dec("95")))

	m.factory.AssertExpectations(t)
	m.uow.AssertExpectations(t)
	m.repo.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func TestTrackerService_AddRound_NoRepeatAlert(t *testing.T) {
	ctx := context.Background()
	m := setupServiceMocks(ctx)

	m.uow.On("Commit").Return(nil)
	m.repo.On("Load", ctx, "friday").Return(&models.Session{
		Name:    "friday",
		Records: []models.RoundRecord{bigWinRound()},
	}, nil)
	m.repo.On("Save", ctx, "friday", mock.Anything).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return()

	small := models.NewRoundRecord(playedAt, models.SegmentOne, models.SingleStake(models.SegmentOne, dec("1")))
	row, err := m.service.AddRound(ctx, "friday", small)

	require.NoError(t, err)
	assert.Equal(t, 2, row.Index)
	assert.True(t, row.Bankroll.Equal(dec("96")))

	// Only the round event, the session was already above the profit threshold
	m.publisher.AssertNumberOfCalls(t, "Publish", 1)
}

func TestTrackerService_AddRound_InvalidRound(t *testing.T) {
	ctx := context.Background()
	m := setupServiceMocks(ctx)

	m.repo.On("Load", ctx, "friday").Return(nil, notFound("friday"))

	bad := models.NewRoundRecord(playedAt, models.Segment("Jackpot"), nil)
	row, err := m.service.AddRound(ctx, "friday", bad)

	assert.Nil(t, row)
	assert.ErrorIs(t, err, models.ErrUnknownSegment)
	m.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	m.uow.AssertNotCalled(t, "Commit")
	m.publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestTrackerService_AddRound_SaveFails(t *testing.T) {
	ctx := context.Background()
	m := setupServiceMocks(ctx)

	m.repo.On("Load", ctx, "friday").Return(nil, notFound("friday"))
	m.repo.On("Save", ctx, "friday", mock.Anything).Return(errors.New("connection reset"))

	_, err := m.service.AddRound(ctx, "friday", bigWinRound())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save session")
	m.uow.AssertNotCalled(t, "Commit")
	m.uow.AssertCalled(t, "Rollback")
}

func TestTrackerService_AddRound_RequiresSession(t *testing.T) {
	service := NewTrackerService(new(MockUnitOfWorkFactory), ledger.DefaultPayoutTable())
	_, err := service.AddRound(context.Background(), "", bigWinRound())
	assert.Error(t, err)
}

func TestTrackerService_DeleteRound(t *testing.T) {
	ctx := context.Background()
	m := setupServiceMocks(ctx)

	m.uow.On("Commit").Return(nil)
	m.repo.On("Load", ctx, "friday").Return(&models.Session{
		Name:    "friday",
		Records: []models.RoundRecord{bigWinRound(), lostRound()},
	}, nil)
	m.repo.On("Save", ctx, "friday", mock.MatchedBy(func(records []models.RoundRecord) bool {
		return len(records) == 1 && records[0].WinningSegment == models.SegmentTwo
	})).Return(nil)
	m.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		ev, ok := e.(events.RoundDeletedEvent)
		return ok && ev.Position == 1 && ev.Remaining == 1 && ev.Bankroll.Equal(dec("-20"))
	})).Return()

	rows, err := m.service.DeleteRound(ctx, "friday", 1)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Index)
	assert.True(t, rows[0].Net.Equal(dec("-20")))
	assert.True(t, rows[0].Bankroll.Equal(dec("-20")))

	m.repo.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func TestTrackerService_DeleteRound_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown session", func(t *testing.T) {
		m := setupServiceMocks(ctx)
		m.repo.On("Load", ctx, "ghost").Return(nil, notFound("ghost"))

		_, err := m.service.DeleteRound(ctx, "ghost", 1)
		assert.ErrorIs(t, err, models.ErrSessionNotFound)
		m.uow.AssertNotCalled(t, "Commit")
	})

	t.Run("position out of range", func(t *testing.T) {
		m := setupServiceMocks(ctx)
		m.repo.On("Load", ctx, "friday").Return(&models.Session{
			Name:    "friday",
			Records: []models.RoundRecord{bigWinRound()},
		}, nil)

		_, err := m.service.DeleteRound(ctx, "friday", 2)
		assert.ErrorIs(t, err, models.ErrInvalidPosition)
		m.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTrackerService_GetReport(t *testing.T) {
	ctx := context.Background()
	m := setupServiceMocks(ctx)

	m.uow.On("Commit").Return(nil)
	m.repo.On("Load", ctx, "friday").Return(&models.Session{
		Name:    "friday",
		Records: []models.RoundRecord{bigWinRound(), lostRound()},
	}, nil)

	report, err := m.service.GetReport(ctx, "friday")
	require.NoError(t, err)

	assert.Equal(t, "friday", report.Session)
	require.Len(t, report.Rows, 2)
	require.NotNil(t, report.Summary)
	assert.True(t, report.Summary.MaxDrawdown.Equal(dec("-20")))
	assert.True(t, report.Summary.FinalBankroll.Equal(dec("75")))
	assert.Len(t, report.Top, 2)
	assert.Equal(t, 1, report.Top[0].Index)

	// Only one round reaches the big win threshold
	assert.Nil(t, report.BigWins)
	assert.True(t, report.BigWinThreshold.Equal(dec("10")))

	assert.Equal(t, models.AlertProfit, report.Alert.Level)
	assert.Equal(t, 0, report.SpinsSinceLast[models.SegmentTwo])
	assert.Equal(t, 1, report.SpinsSinceLast[models.SegmentFive])
}

func TestTrackerService_GetReport_EmptySession(t *testing.T) {
	ctx := context.Background()
	m := setupServiceMocks(ctx)

	m.uow.On("Commit").Return(nil)
	m.repo.On("Load", ctx, "empty").Return(&models.Session{Name: "empty"}, nil)

	report, err := m.service.GetReport(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, report.Rows)
	assert.Nil(t, report.Summary)
	assert.Empty(t, report.Top)
	assert.Equal(t, models.AlertNone, report.Alert.Level)
}

func TestTrackerService_GetSummary_InsufficientData(t *testing.T) {
	ctx := context.Background()
	m := setupServiceMocks(ctx)

	m.uow.On("Commit").Return(nil)
	m.repo.On("Load", ctx, "empty").Return(&models.Session{Name: "empty"}, nil)

	_, err := m.service.GetSummary(ctx, "empty")
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestTrackerService_ImportBulk(t *testing.T) {
	ctx := context.Background()

	t.Run("session map", func(t *testing.T) {
		m := setupServiceMocks(ctx)
		m.uow.On("Commit").Return(nil)
		m.repo.On("Save", ctx, "a", mock.Anything).Return(nil)
		m.repo.On("Save", ctx, "b", mock.Anything).Return(nil)
		m.repo.On("Load", ctx, "a").Return(&models.Session{
			Name:    "a",
			Records: []models.RoundRecord{bigWinRound(), lostRound()},
		}, nil)
		m.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			ev, ok := e.(events.SessionImportedEvent)
			return ok && assert.ObjectsAreEqual([]string{"a", "b"}, ev.Sessions) && ev.Rounds == 3
		})).Return()

		records, err := m.service.ImportBulk(ctx, "a", models.BulkImport{Sessions: map[string][]models.RoundRecord{
			"a": {bigWinRound(), lostRound()},
			"b": {lostRound()},
		}})

		require.NoError(t, err)
		assert.Len(t, records, 2)
		m.repo.AssertExpectations(t)
		m.publisher.AssertExpectations(t)
	})

	t.Run("invalid data writes nothing", func(t *testing.T) {
		m := setupServiceMocks(ctx)

		bad := lostRound()
		bad.ExtraMultiplier = dec("0.5")

		_, err := m.service.ImportBulk(ctx, "a", models.BulkImport{Records: []models.RoundRecord{bad}})

		assert.ErrorIs(t, err, models.ErrInvalidImport)
		m.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
		m.uow.AssertNotCalled(t, "Commit")
	})
}

func TestTrackerService_ExportSessions_All(t *testing.T) {
	ctx := context.Background()
	m := setupServiceMocks(ctx)

	m.uow.On("Commit").Return(nil)
	m.repo.On("List", ctx).Return([]models.SessionInfo{{Name: "a"}, {Name: "b"}}, nil)
	m.repo.On("Load", ctx, "a").Return(&models.Session{Name: "a", Records: []models.RoundRecord{bigWinRound()}}, nil)
	m.repo.On("Load", ctx, "b").Return(&models.Session{Name: "b", Records: []models.RoundRecord{}}, nil)

	out, err := m.service.ExportSessions(ctx, nil)

	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Len(t, out["a"], 1)
	assert.Empty(t, out["b"])
}

func TestTrackerService_CopySession(t *testing.T) {
	ctx := context.Background()

	t.Run("copies records", func(t *testing.T) {
		m := setupServiceMocks(ctx)
		m.uow.On("Commit").Return(nil)
		m.repo.On("Load", ctx, "src").Return(&models.Session{Name: "src", Records: []models.RoundRecord{bigWinRound()}}, nil)
		m.repo.On("Save", ctx, "dst", mock.MatchedBy(func(records []models.RoundRecord) bool {
			return len(records) == 1
		})).Return(nil)
		m.publisher.On("Publish", mock.Anything).Return()

		require.NoError(t, m.service.CopySession(ctx, "src", "dst"))
		m.repo.AssertExpectations(t)
	})

	t.Run("onto itself", func(t *testing.T) {
		service := NewTrackerService(new(MockUnitOfWorkFactory), ledger.DefaultPayoutTable())
		assert.Error(t, service.CopySession(ctx, "same", "same"))
	})
}

func TestTrackerService_DeleteSession(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes and publishes", func(t *testing.T) {
		m := setupServiceMocks(ctx)
		m.uow.On("Commit").Return(nil)
		m.repo.On("Delete", ctx, "old").Return(nil)
		m.publisher.On("Publish", events.SessionDeletedEvent{Session: "old"}).Return()

		require.NoError(t, m.service.DeleteSession(ctx, "old"))
		m.publisher.AssertExpectations(t)
	})

	t.Run("unknown session", func(t *testing.T) {
		m := setupServiceMocks(ctx)
		m.repo.On("Delete", ctx, "ghost").Return(notFound("ghost"))

		err := m.service.DeleteSession(ctx, "ghost")
		assert.ErrorIs(t, err, models.ErrSessionNotFound)
		m.uow.AssertNotCalled(t, "Commit")
	})

	t.Run("delete all", func(t *testing.T) {
		m := setupServiceMocks(ctx)
		m.uow.On("Commit").Return(nil)
		m.repo.On("DeleteAll", ctx).Return(nil)
		m.publisher.On("Publish", events.SessionDeletedEvent{}).Return()

		require.NoError(t, m.service.DeleteAllSessions(ctx))
		m.repo.AssertExpectations(t)
	})
}
