package transaction_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/routable/internal/item"
	"github.com/MrJamesThe3rd/routable/internal/lifecycle"
	"github.com/MrJamesThe3rd/routable/internal/transaction"
)

func initialParams(itemID uuid.UUID) transaction.CreateParams {
	return transaction.CreateParams{
		ItemID:   itemID,
		Status:   lifecycle.StatusProcessing,
		Location: lifecycle.LocationOrigin,
	}
}

func setup(t *testing.T) (*memStore, *transaction.Service, uuid.UUID) {
	t.Helper()

	store := newMemStore()
	svc := transaction.NewService(store)
	itemID := store.addItem(100)

	_, err := svc.Create(context.Background(), initialParams(itemID))
	require.NoError(t, err)

	return store, svc, itemID
}

func requireActive(t *testing.T, store *memStore, itemID uuid.UUID, want lifecycle.Step) transaction.Transaction {
	t.Helper()

	active := store.active(itemID)
	require.Len(t, active, 1)
	assert.Equal(t, want, active[0].Step())

	return active[0]
}

func TestEngine_MoveToCompletion(t *testing.T) {
	ctx := context.Background()
	store, svc, itemID := setup(t)

	requireActive(t, store, itemID, lifecycle.Initial)
	assert.Equal(t, item.StateProcessing, store.item(itemID).State)

	require.NoError(t, svc.Move(ctx, itemID))
	requireActive(t, store, itemID, lifecycle.Step{Status: lifecycle.StatusProcessing, Location: lifecycle.LocationRoutable})
	assert.Equal(t, item.StateProcessing, store.item(itemID).State)

	require.NoError(t, svc.Move(ctx, itemID))
	assert.Empty(t, store.active(itemID))

	history := store.history(itemID)
	require.Len(t, history, 1)
	assert.Equal(t, lifecycle.StatusCompleted, history[0].Status)
	assert.Equal(t, lifecycle.LocationDestination, history[0].Location)
	assert.False(t, history[0].IsActive)
	assert.Equal(t, item.StateResolved, store.item(itemID).State)

	// Terminal closure.
	assert.ErrorIs(t, svc.Move(ctx, itemID), transaction.ErrNoActiveTransaction)

	_, err := svc.Create(ctx, initialParams(itemID))
	assert.ErrorIs(t, err, transaction.ErrTransactionCompleted)
}

func TestEngine_ErrorGate(t *testing.T) {
	ctx := context.Background()
	store, svc, itemID := setup(t)

	// Still at the origin.
	assert.ErrorIs(t, svc.Error(ctx, itemID), transaction.ErrActionFailed)
	assert.Equal(t, item.StateProcessing, store.item(itemID).State)

	require.NoError(t, svc.Move(ctx, itemID))
	require.NoError(t, svc.Error(ctx, itemID))

	errored := requireActive(t, store, itemID, lifecycle.Step{Status: lifecycle.StatusError, Location: lifecycle.LocationRoutable})
	assert.True(t, errored.IsActive)
	assert.Equal(t, item.StateError, store.item(itemID).State)

	assert.ErrorIs(t, svc.Error(ctx, itemID), transaction.ErrActionFailed)
	assert.ErrorIs(t, svc.Move(ctx, itemID), transaction.ErrTransactionErrored)

	_, err := svc.Create(ctx, initialParams(itemID))
	assert.ErrorIs(t, err, transaction.ErrActiveTransactionExists)
}

func TestEngine_ErrorAfterCompletion(t *testing.T) {
	ctx := context.Background()
	_, svc, itemID := setup(t)

	require.NoError(t, svc.Move(ctx, itemID))
	require.NoError(t, svc.Move(ctx, itemID))

	assert.ErrorIs(t, svc.Error(ctx, itemID), transaction.ErrActionFailed)
}

func TestEngine_FixReentry(t *testing.T) {
	ctx := context.Background()
	store, svc, itemID := setup(t)

	require.NoError(t, svc.Move(ctx, itemID))
	require.NoError(t, svc.Error(ctx, itemID))
	erroredID := store.active(itemID)[0].ID

	require.NoError(t, svc.Fix(ctx, itemID))

	fixing := requireActive(t, store, itemID, lifecycle.Step{Status: lifecycle.StatusFixing, Location: lifecycle.LocationRoutable})
	assert.NotEqual(t, erroredID, fixing.ID)
	assert.Equal(t, item.StateCorrecting, store.item(itemID).State)

	old, err := svc.Get(ctx, erroredID)
	require.NoError(t, err)
	assert.False(t, old.IsActive)
	assert.Equal(t, lifecycle.StatusError, old.Status)

	require.NoError(t, svc.Move(ctx, itemID))
	requireActive(t, store, itemID, lifecycle.Step{Status: lifecycle.StatusProcessing, Location: lifecycle.LocationRoutable})
	assert.Equal(t, item.StateProcessing, store.item(itemID).State)

	require.NoError(t, svc.Move(ctx, itemID))
	assert.Empty(t, store.active(itemID))
	assert.Equal(t, item.StateResolved, store.item(itemID).State)
}

func TestEngine_RefundReentry(t *testing.T) {
	ctx := context.Background()
	store, svc, itemID := setup(t)

	require.NoError(t, svc.Move(ctx, itemID))
	require.NoError(t, svc.Error(ctx, itemID))
	require.NoError(t, svc.Refund(ctx, itemID))

	requireActive(t, store, itemID, lifecycle.Step{Status: lifecycle.StatusRefunding, Location: lifecycle.LocationRoutable})
	assert.Equal(t, item.StateCorrecting, store.item(itemID).State)

	require.NoError(t, svc.Move(ctx, itemID))
	assert.Empty(t, store.active(itemID))
	assert.Equal(t, item.StateResolved, store.item(itemID).State)

	history, err := svc.ListByItem(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, lifecycle.StatusRefunded, history[1].Status)
	assert.Equal(t, lifecycle.LocationOrigin, history[1].Location)

	_, err = svc.Create(ctx, initialParams(itemID))
	assert.ErrorIs(t, err, transaction.ErrTransactionRefunded)
}

func TestEngine_ReentryRequiresError(t *testing.T) {
	ctx := context.Background()
	store, svc, itemID := setup(t)

	assert.ErrorIs(t, svc.Fix(ctx, itemID), transaction.ErrActionFailed)
	assert.ErrorIs(t, svc.Refund(ctx, itemID), transaction.ErrActionFailed)

	assert.ErrorIs(t, svc.Fix(ctx, uuid.New()), transaction.ErrActionFailed)
	assert.ErrorIs(t, svc.Error(ctx, uuid.New()), transaction.ErrActionFailed)

	requireActive(t, store, itemID, lifecycle.Initial)
	assert.Len(t, store.history(itemID), 1)
}

func TestEngine_MoveUnknownItem(t *testing.T) {
	svc := transaction.NewService(newMemStore())
	assert.ErrorIs(t, svc.Move(context.Background(), uuid.New()), transaction.ErrNoActiveTransaction)
}

func TestEngine_MoveWithoutTransaction(t *testing.T) {
	store := newMemStore()
	svc := transaction.NewService(store)
	itemID := store.addItem(10)

	assert.ErrorIs(t, svc.Move(context.Background(), itemID), transaction.ErrNoActiveTransaction)
	assert.Equal(t, item.StateProcessing, store.item(itemID).State)
}

func TestEngine_CreateEligibility(t *testing.T) {
	store := newMemStore()
	svc := transaction.NewService(store)
	itemID := store.addItem(10)

	for _, s := range lifecycle.Statuses() {
		for _, l := range []lifecycle.Location{lifecycle.LocationOrigin, lifecycle.LocationRoutable, lifecycle.LocationDestination} {
			step := lifecycle.Step{Status: s, Location: l}
			if step == lifecycle.Initial {
				continue
			}

			_, err := svc.Create(context.Background(), transaction.CreateParams{ItemID: itemID, Status: s, Location: l})
			assert.ErrorIs(t, err, transaction.ErrInvalidInitialState, "%s/%s", s, l)
		}
	}

	assert.Empty(t, store.history(itemID))

	_, err := svc.Create(context.Background(), initialParams(uuid.New()))
	assert.ErrorIs(t, err, item.ErrNotFound)
}

func TestEngine_ConcurrentCreate(t *testing.T) {
	store := newMemStore()
	svc := transaction.NewService(store)
	itemID := store.addItem(10)

	const workers = 32

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := svc.Create(context.Background(), initialParams(itemID))

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				successes++
			case errors.Is(err, transaction.ErrActiveTransactionExists):
				conflicts++
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
	assert.Len(t, store.active(itemID), 1)
}

func TestEngine_ConcurrentMoves(t *testing.T) {
	store, svc, itemID := setup(t)

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			_ = svc.Move(context.Background(), itemID)
		}()
	}

	wg.Wait()

	// Exactly two moves can succeed before the flow completes.
	history := store.history(itemID)
	require.Len(t, history, 1)
	assert.Equal(t, lifecycle.StatusCompleted, history[0].Status)
	assert.Empty(t, store.active(itemID))
}

func TestEngine_RandomOperationsKeepInvariants(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(7, 11))

	for round := range 50 {
		store := newMemStore()
		svc := transaction.NewService(store)
		itemID := store.addItem(int64(round))

		ops := []func() error{
			func() error { _, err := svc.Create(ctx, initialParams(itemID)); return err },
			func() error { return svc.Move(ctx, itemID) },
			func() error { return svc.Error(ctx, itemID) },
			func() error { return svc.Fix(ctx, itemID) },
			func() error { return svc.Refund(ctx, itemID) },
		}

		for range 40 {
			before := store.history(itemID)
			beforeState := store.item(itemID).State

			err := ops[rng.IntN(len(ops))]()

			if err != nil {
				// Failed operations never write.
				assert.Equal(t, before, store.history(itemID))
				assert.Equal(t, beforeState, store.item(itemID).State)
			}

			active := store.active(itemID)
			require.LessOrEqual(t, len(active), 1)

			if len(active) == 1 {
				assert.Equal(t, item.DeriveState(active[0].Status), store.item(itemID).State)
			}

			for _, tx := range store.history(itemID) {
				if tx.Status.Terminal() {
					assert.False(t, tx.IsActive)
				}
			}
		}
	}
}
