package data

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/tradebox/src/dbutils"
	"github.com/jiaming2012/tradebox/src/eventmodels"
)

func newTestOrder(active bool) *eventmodels.Order {
	return &eventmodels.Order{
		Side:                   eventmodels.OrderSideBuy,
		Symbol:                 "SPY",
		OptionType:             eventmodels.Call,
		Strike:                 450,
		Expiration:             "2024-06-21",
		Quantity:               2,
		Style:                  eventmodels.OrderStyleMarket,
		Active:                 active,
		EmergencyFillOnFailure: true,
		MaxOrderAttempts:       5,
		MessageOnSuccess:       "filled",
		Instrument: eventmodels.InstrumentMeta{
			ID:          "SPY240621C00450000",
			Symbol:      "SPY240621C00450000",
			BelowTick:   0.05,
			AboveTick:   0.10,
			CutoffPrice: 3.00,
		},
		CreatedAt: time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC),
	}
}

// runRepositoryContract exercises behavior every Repository implementation shares.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("create and get round trip", func(t *testing.T) {
		repo := newRepo(t)
		order := newTestOrder(true)
		order.ExecuteOnlyAfterID = eventmodels.UintPtr(99)

		id, err := repo.Create(ctx, order)
		require.NoError(t, err)

		got, err := repo.Get(ctx, id)
		require.NoError(t, err)

		assert.Equal(t, id, got.ID)
		assert.Equal(t, order.Symbol, got.Symbol)
		assert.Equal(t, order.Instrument, got.Instrument)
		assert.Equal(t, uint(99), *got.ExecuteOnlyAfterID)
		assert.Nil(t, got.DeactivatesOrderID)
		assert.True(t, got.CreatedAt.Equal(order.CreatedAt))
		assert.True(t, got.Active)
		assert.False(t, got.Executed)
	})

	t.Run("missing order", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Get(ctx, 404)
		assert.ErrorIs(t, err, eventmodels.ErrOrderNotFound)

		exists, err := repo.Exists(ctx, 404)
		require.NoError(t, err)
		assert.False(t, exists)

		assert.ErrorIs(t, repo.SetActive(ctx, 404, true), eventmodels.ErrOrderNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, 404), eventmodels.ErrOrderNotFound)
	})

	t.Run("executed is terminal", func(t *testing.T) {
		repo := newRepo(t)
		id, err := repo.Create(ctx, newTestOrder(true))
		require.NoError(t, err)

		require.NoError(t, repo.SetExecuted(ctx, id, true))
		assert.ErrorIs(t, repo.SetExecuted(ctx, id, false), eventmodels.ErrExecutedIsTerminal)

		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.Executed)
	})

	t.Run("claim flips flags and deactivates the target", func(t *testing.T) {
		repo := newRepo(t)
		targetID, err := repo.Create(ctx, newTestOrder(true))
		require.NoError(t, err)
		id, err := repo.Create(ctx, newTestOrder(true))
		require.NoError(t, err)

		claimed, err := repo.ClaimForExecution(ctx, id, &targetID)
		require.NoError(t, err)
		assert.True(t, claimed)

		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.Executed)
		assert.False(t, got.Active)

		target, err := repo.Get(ctx, targetID)
		require.NoError(t, err)
		assert.False(t, target.Active)
		assert.False(t, target.Executed)

		claimed, err = repo.ClaimForExecution(ctx, id, &targetID)
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("inactive orders cannot be claimed", func(t *testing.T) {
		repo := newRepo(t)
		id, err := repo.Create(ctx, newTestOrder(false))
		require.NoError(t, err)

		claimed, err := repo.ClaimForExecution(ctx, id, nil)
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("concurrent claims succeed exactly once", func(t *testing.T) {
		repo := newRepo(t)
		id, err := repo.Create(ctx, newTestOrder(true))
		require.NoError(t, err)

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			wins  int
			errs  []error
			tries = 8
		)

		for i := 0; i < tries; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				claimed, err := repo.ClaimForExecution(ctx, id, nil)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
				}
				if claimed {
					wins++
				}
			}()
		}
		wg.Wait()

		assert.Empty(t, errs)
		assert.Equal(t, 1, wins)
	})

	t.Run("list, delete and delete all", func(t *testing.T) {
		repo := newRepo(t)
		first, err := repo.Create(ctx, newTestOrder(true))
		require.NoError(t, err)
		second, err := repo.Create(ctx, newTestOrder(false))
		require.NoError(t, err)

		orders, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, first, orders[0].ID)
		assert.Equal(t, second, orders[1].ID)

		require.NoError(t, repo.Delete(ctx, first))
		orders, err = repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, orders, 1)

		require.NoError(t, repo.DeleteAll(ctx))
		orders, err = repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("execution records upsert", func(t *testing.T) {
		repo := newRepo(t)
		started := time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)
		report := eventmodels.NewPendingExecutionReport(uuid.New(), 7, started)

		require.NoError(t, repo.SaveExecution(ctx, report))

		got, err := repo.GetExecution(ctx, report.ExecutionID)
		require.NoError(t, err)
		assert.Equal(t, eventmodels.ExecutionOutcomePending, got.Outcome)

		report.Closing = 3
		report.BrokerOrderIDs = []string{"1", "2"}
		report.Complete(eventmodels.ExecutionOutcomeCompleted, started.Add(time.Minute))
		require.NoError(t, repo.SaveExecution(ctx, report))

		got, err = repo.GetExecution(ctx, report.ExecutionID)
		require.NoError(t, err)
		assert.Equal(t, eventmodels.ExecutionOutcomeCompleted, got.Outcome)
		assert.Equal(t, 3, got.Closing)
		assert.Equal(t, []string{"1", "2"}, got.BrokerOrderIDs)
		require.NotNil(t, got.CompletedAt)

		reports, err := repo.ListExecutions(ctx, 7)
		require.NoError(t, err)
		assert.Len(t, reports, 1)

		_, err = repo.GetExecution(ctx, uuid.New())
		assert.ErrorIs(t, err, eventmodels.ErrExecutionNotFound)
	})
}

func TestMemoryRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) Repository {
		return NewMemoryRepository()
	})

	t.Run("returned orders are copies", func(t *testing.T) {
		repo := NewMemoryRepository()
		id, err := repo.Create(context.Background(), newTestOrder(true))
		require.NoError(t, err)

		got, err := repo.Get(context.Background(), id)
		require.NoError(t, err)
		got.Active = false

		again, err := repo.Get(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, again.Active)
	})
}

func TestSQLiteRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) Repository {
		ctx := context.Background()

		db, err := dbutils.InitSQLite(ctx, filepath.Join(t.TempDir(), "tradebox.sqlite3"))
		require.NoError(t, err)

		repo, err := NewSQLiteRepository(ctx, db)
		require.NoError(t, err)

		t.Cleanup(func() { repo.Close() })
		return repo
	})
}
