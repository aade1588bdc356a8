//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/routable/internal/database/dbtest"
	"github.com/MrJamesThe3rd/routable/internal/item"
	itemStore "github.com/MrJamesThe3rd/routable/internal/item/store"
	"github.com/MrJamesThe3rd/routable/internal/lifecycle"
	"github.com/MrJamesThe3rd/routable/internal/transaction"
	"github.com/MrJamesThe3rd/routable/internal/transaction/store"
)

type env struct {
	items *item.Service
	txs   *transaction.Service
}

func newEnv(t *testing.T) env {
	t.Helper()

	db := dbtest.New(t)

	return env{
		items: item.NewService(itemStore.New(db)),
		txs:   transaction.NewService(store.New(db)),
	}
}

func (e env) newItem(t *testing.T) uuid.UUID {
	t.Helper()

	it, err := e.items.Create(context.Background(), decimal.RequireFromString("99.99"))
	require.NoError(t, err)

	return it.ID
}

func start(ctx context.Context, svc *transaction.Service, itemID uuid.UUID) error {
	_, err := svc.Create(ctx, transaction.CreateParams{
		ItemID:   itemID,
		Status:   lifecycle.Initial.Status,
		Location: lifecycle.Initial.Location,
	})

	return err
}

func TestIntegration_FullFlow(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	itemID := e.newItem(t)

	require.NoError(t, start(ctx, e.txs, itemID))
	require.NoError(t, e.txs.Move(ctx, itemID))
	require.NoError(t, e.txs.Error(ctx, itemID))

	it, err := e.items.Get(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, item.StateError, it.State)

	assert.ErrorIs(t, e.txs.Move(ctx, itemID), transaction.ErrTransactionErrored)

	require.NoError(t, e.txs.Fix(ctx, itemID))
	require.NoError(t, e.txs.Move(ctx, itemID))
	require.NoError(t, e.txs.Move(ctx, itemID))

	it, err = e.items.Get(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, item.StateResolved, it.State)

	history, err := e.txs.ListByItem(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, lifecycle.StatusCompleted, history[0].Status)
	assert.Equal(t, lifecycle.LocationDestination, history[0].Location)
	assert.False(t, history[0].IsActive)
	assert.Equal(t, lifecycle.StatusError, history[1].Status)
	assert.False(t, history[1].IsActive)

	assert.ErrorIs(t, start(ctx, e.txs, itemID), transaction.ErrTransactionCompleted)
	assert.ErrorIs(t, e.txs.Move(ctx, itemID), transaction.ErrNoActiveTransaction)
}

func TestIntegration_RefundFlow(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	itemID := e.newItem(t)

	require.NoError(t, start(ctx, e.txs, itemID))
	require.NoError(t, e.txs.Move(ctx, itemID))
	require.NoError(t, e.txs.Error(ctx, itemID))
	require.NoError(t, e.txs.Refund(ctx, itemID))

	it, err := e.items.Get(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, item.StateCorrecting, it.State)

	require.NoError(t, e.txs.Move(ctx, itemID))

	it, err = e.items.Get(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, item.StateResolved, it.State)

	history, err := e.txs.ListByItem(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, lifecycle.StatusRefunded, history[0].Status)
	assert.Equal(t, lifecycle.LocationOrigin, history[0].Location)

	assert.ErrorIs(t, start(ctx, e.txs, itemID), transaction.ErrTransactionRefunded)
}

func TestIntegration_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	itemID := e.newItem(t)

	const workers = 16

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := start(ctx, e.txs, itemID)

			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}

	wg.Wait()

	var ok int

	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, transaction.ErrActiveTransactionExists):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, ok)

	history, err := e.txs.ListByItem(ctx, itemID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestIntegration_MissingItem(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	assert.ErrorIs(t, start(ctx, e.txs, uuid.New()), item.ErrNotFound)
	assert.ErrorIs(t, e.txs.Move(ctx, uuid.New()), transaction.ErrNoActiveTransaction)
	assert.ErrorIs(t, e.txs.Fix(ctx, uuid.New()), transaction.ErrActionFailed)
}
