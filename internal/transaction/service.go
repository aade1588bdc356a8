package transaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/routable/internal/item"
	"github.com/MrJamesThe3rd/routable/internal/lifecycle"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	// BeginItem opens a unit of work that holds an exclusive lock on the item
	// until Commit or Rollback. It fails with item.ErrNotFound for unknown items.
	BeginItem(ctx context.Context, itemID uuid.UUID) (ItemTx, error)

	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]*Transaction, error)
}

type ItemTx interface {
	// ActiveTransaction returns ErrNotFound when the item has none.
	ActiveTransaction(ctx context.Context) (*Transaction, error)
	Transactions(ctx context.Context) ([]*Transaction, error)
	CreateTransaction(ctx context.Context, tx *Transaction) error
	UpdateTransaction(ctx context.Context, tx *Transaction) error
	UpdateItemState(ctx context.Context, state item.State) error
	Commit() error
	Rollback() error
}

// Locker serialises work on a key across processes.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(context.Context) error) error
}

type nopLocker struct{}

func (nopLocker) WithLock(ctx context.Context, _ string, fn func(context.Context) error) error {
	return fn(ctx)
}

type Option func(*Service)

// WithLocker adds a lock around every operation, on top of the store's own item lock.
func WithLocker(l Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

type Service struct {
	repo   Repository
	locker Locker
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, locker: nopLocker{}}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

type CreateParams struct {
	ItemID   uuid.UUID
	Status   lifecycle.Status
	Location lifecycle.Location
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *Service) ListByItem(ctx context.Context, itemID uuid.UUID) ([]*Transaction, error) {
	return s.repo.ListByItem(ctx, itemID)
}

// Create starts the flow of an item. Transactions can only be created at
// lifecycle.Initial, and only for items with no active or finished flow.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Transaction, error) {
	if (lifecycle.Step{Status: params.Status, Location: params.Location}) != lifecycle.Initial {
		return nil, ErrInvalidInitialState
	}

	var created *Transaction

	err := s.inItem(ctx, params.ItemID, func(ctx context.Context, itx ItemTx) error {
		history, err := itx.Transactions(ctx)
		if err != nil {
			return fmt.Errorf("listing transactions: %w", err)
		}

		if err := checkEligible(history); err != nil {
			return err
		}

		tx := &Transaction{
			ItemID:   params.ItemID,
			Status:   lifecycle.Initial.Status,
			Location: lifecycle.Initial.Location,
			IsActive: true,
		}
		if err := itx.CreateTransaction(ctx, tx); err != nil {
			return err
		}

		created = tx

		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func checkEligible(history []*Transaction) error {
	for _, tx := range history {
		switch tx.Status {
		case lifecycle.StatusCompleted:
			return ErrTransactionCompleted
		case lifecycle.StatusRefunded:
			return ErrTransactionRefunded
		}
	}

	for _, tx := range history {
		if tx.IsActive {
			return ErrActiveTransactionExists
		}
	}

	return nil
}

// Move advances the item's active transaction one step along the move table.
// Each call advances the flow, so it is not idempotent.
func (s *Service) Move(ctx context.Context, itemID uuid.UUID) error {
	err := s.inItem(ctx, itemID, func(ctx context.Context, itx ItemTx) error {
		active, err := itx.ActiveTransaction(ctx)
		if err != nil {
			return err
		}

		if active.Status == lifecycle.StatusError {
			return ErrTransactionErrored
		}

		next, err := lifecycle.NextMove(active.Step())
		if err != nil {
			return err
		}

		active.apply(next)

		return save(ctx, itx, active)
	})
	if errors.Is(err, ErrNotFound) || errors.Is(err, item.ErrNotFound) {
		return ErrNoActiveTransaction
	}

	return err
}

// Error flags a transaction that left the origin but has not completed yet.
// The transaction stays active.
func (s *Service) Error(ctx context.Context, itemID uuid.UUID) error {
	err := s.inItem(ctx, itemID, func(ctx context.Context, itx ItemTx) error {
		active, err := itx.ActiveTransaction(ctx)
		if err != nil {
			return err
		}

		if active.Step() != (lifecycle.Step{Status: lifecycle.StatusProcessing, Location: lifecycle.LocationRoutable}) {
			return ErrActionFailed
		}

		active.apply(lifecycle.Step{Status: lifecycle.StatusError, Location: active.Location})

		return save(ctx, itx, active)
	})

	return collapse(err)
}

// Fix replaces an errored transaction with a new one that can be moved back into processing.
func (s *Service) Fix(ctx context.Context, itemID uuid.UUID) error {
	return s.reenter(ctx, itemID, lifecycle.StatusFixing)
}

// Refund replaces an errored transaction with one that a move sends back to the origin.
func (s *Service) Refund(ctx context.Context, itemID uuid.UUID) error {
	return s.reenter(ctx, itemID, lifecycle.StatusRefunding)
}

func (s *Service) reenter(ctx context.Context, itemID uuid.UUID, target lifecycle.Status) error {
	if target != lifecycle.StatusFixing && target != lifecycle.StatusRefunding {
		return fmt.Errorf("%w: cannot re-enter as %s", lifecycle.ErrNoTransition, target)
	}

	err := s.inItem(ctx, itemID, func(ctx context.Context, itx ItemTx) error {
		active, err := itx.ActiveTransaction(ctx)
		if err != nil {
			return err
		}

		if active.Status != lifecycle.StatusError {
			return ErrActionFailed
		}

		active.IsActive = false
		if err := itx.UpdateTransaction(ctx, active); err != nil {
			return err
		}

		next := &Transaction{
			ItemID:   itemID,
			Status:   target,
			Location: lifecycle.LocationRoutable,
			IsActive: true,
		}
		if err := itx.CreateTransaction(ctx, next); err != nil {
			return err
		}

		return itx.UpdateItemState(ctx, item.DeriveState(next.Status))
	})

	return collapse(err)
}

// save writes the transaction and then the item state derived from it.
func save(ctx context.Context, itx ItemTx, tx *Transaction) error {
	if err := itx.UpdateTransaction(ctx, tx); err != nil {
		return err
	}

	return itx.UpdateItemState(ctx, item.DeriveState(tx.Status))
}

// collapse folds every failed precondition into ErrActionFailed. Store
// failures are passed through.
func collapse(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, item.ErrNotFound) {
		return ErrActionFailed
	}

	return err
}

func (s *Service) inItem(ctx context.Context, itemID uuid.UUID, fn func(context.Context, ItemTx) error) error {
	return s.locker.WithLock(ctx, LockKey(itemID), func(ctx context.Context) error {
		itx, err := s.repo.BeginItem(ctx, itemID)
		if err != nil {
			return err
		}
		defer itx.Rollback()

		if err := fn(ctx, itx); err != nil {
			return err
		}

		if err := itx.Commit(); err != nil {
			return fmt.Errorf("committing item %s: %w", itemID, err)
		}

		return nil
	})
}

func LockKey(itemID uuid.UUID) string {
	return "lock:item:" + itemID.String()
}
