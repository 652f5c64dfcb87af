package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheeltracker/config"
	"wheeltracker/events"
	"wheeltracker/ledger"
	"wheeltracker/models"
	"wheeltracker/repository/testutil"
	"wheeltracker/service"
)

func TestSessionRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewSessionRepository(testDB.DB)
	ctx := context.Background()

	t.Run("load missing session", func(t *testing.T) {
		testDB.Truncate(t)

		_, err := repo.Load(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrSessionNotFound)
	})

	t.Run("read only transaction rejects writes", func(t *testing.T) {
		testDB.Truncate(t)

		err := testDB.DB.WithReadOnlyTransaction(ctx, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, `INSERT INTO sessions (id, name) VALUES (gen_random_uuid(), 'blocked')`)
			return err
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read-only")

		infos, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, infos)
	})

	t.Run("save and load keeps exact values", func(t *testing.T) {
		testDB.Truncate(t)

		records := []models.RoundRecord{
			testutil.CreateTestMultiStakeRound(models.SegmentFive, "2", map[models.Segment]string{
				models.SegmentFive: "10",
				models.SegmentOne:  "5",
			}),
			testutil.CreateTestMultiStakeRound(models.SegmentCashHunt, "37.25", map[models.Segment]string{
				models.SegmentCashHunt: "0.35",
			}),
			testutil.CreateTestRound(models.SegmentTen, "1.10"),
		}
		require.NoError(t, repo.Save(ctx, "friday", records))

		session, err := repo.Load(ctx, "friday")
		require.NoError(t, err)
		assert.Equal(t, "friday", session.Name)
		require.Len(t, session.Records, 3)

		for i, record := range records {
			got := session.Records[i]
			assert.Equal(t, record.WinningSegment, got.WinningSegment)
			assert.True(t, record.Timestamp.Equal(got.Timestamp))
			assert.True(t, record.ExtraMultiplier.Equal(got.ExtraMultiplier), "extra %s vs %s", record.ExtraMultiplier, got.ExtraMultiplier)
			assert.True(t, record.Stakes.Total().Equal(got.Stakes.Total()))
		}

		want, err := ledger.Enrich(ledger.DefaultPayoutTable(), records, ledger.Options{})
		require.NoError(t, err)
		got, err := ledger.Enrich(ledger.DefaultPayoutTable(), session.Records, ledger.Options{})
		require.NoError(t, err)
		assert.True(t, want[2].Bankroll.Equal(got[2].Bankroll))
	})

	t.Run("save overwrites and keeps id", func(t *testing.T) {
		testDB.Truncate(t)

		require.NoError(t, repo.Save(ctx, "s", testutil.CreateTestSession(4)))
		first, err := repo.Load(ctx, "s")
		require.NoError(t, err)

		require.NoError(t, repo.Save(ctx, "s", testutil.CreateTestSession(1)))
		second, err := repo.Load(ctx, "s")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Len(t, second.Records, 1)
	})

	t.Run("list delete and delete all", func(t *testing.T) {
		testDB.Truncate(t)

		require.NoError(t, repo.Save(ctx, "b", testutil.CreateTestSession(3)))
		require.NoError(t, repo.Save(ctx, "a", nil))

		infos, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, "a", infos[0].Name)
		assert.Equal(t, 0, infos[0].RoundCount)
		assert.Equal(t, 3, infos[1].RoundCount)

		require.NoError(t, repo.Delete(ctx, "b"))
		assert.ErrorIs(t, repo.Delete(ctx, "b"), models.ErrSessionNotFound)

		require.NoError(t, repo.DeleteAll(ctx))
		infos, err = repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, infos)
	})
}

func TestUnitOfWork_RollbackDiscardsWrites(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	factory := NewUnitOfWorkFactory(testDB.DB, bus)

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.SessionRepository().Save(ctx, "draft", testutil.CreateTestSession(2)))
	require.NoError(t, uow.Rollback())

	_, err := NewSessionRepository(testDB.DB).Load(ctx, "draft")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestTrackerService_WithPostgres(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	bus := events.NewBus()
	recorded := make(chan events.Event, 4)
	bus.Subscribe(events.EventTypeRoundRecorded, func(ctx context.Context, event events.Event) {
		recorded <- event
	})

	tracker := service.NewTrackerService(NewUnitOfWorkFactory(testDB.DB, bus), ledger.DefaultPayoutTable())

	_, err := tracker.AddRound(ctx, "live", testutil.CreateTestMultiStakeRound(models.SegmentFive, "2", map[models.Segment]string{
		models.SegmentFive: "10",
		models.SegmentOne:  "5",
	}))
	require.NoError(t, err)

	row, err := tracker.AddRound(ctx, "live", testutil.CreateTestMultiStakeRound(models.SegmentTwo, "1", map[models.Segment]string{
		models.SegmentFive: "15",
		models.SegmentTen:  "5",
	}))
	require.NoError(t, err)
	assert.True(t, row.Bankroll.Equal(decimal.NewFromInt(75)), "got %s", row.Bankroll)

	summary, err := tracker.GetSummary(ctx, "live")
	require.NoError(t, err)
	assert.True(t, summary.MaxDrawdown.Equal(row.Net))

	bus.Wait()
	assert.Len(t, recorded, 2)
}
