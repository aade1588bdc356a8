package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/routable/internal/lifecycle"
)

var (
	ErrNotFound                = errors.New("transaction not found")
	ErrInvalidInitialState     = errors.New("transactions should have status = processing and location = origination_bank")
	ErrActiveTransactionExists = errors.New("item transaction processing")
	ErrTransactionCompleted    = errors.New("item transaction completed")
	ErrTransactionRefunded     = errors.New("item transaction refunded")
	ErrNoActiveTransaction     = errors.New("item has no active transaction or item does not exist")
	ErrTransactionErrored      = errors.New("transaction errored, can not be moved")
	ErrActionFailed            = errors.New("action failed")
)

// Transaction records one routing attempt of an item.
type Transaction struct {
	ID        uuid.UUID
	ItemID    uuid.UUID
	Status    lifecycle.Status
	Location  lifecycle.Location
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t *Transaction) Step() lifecycle.Step {
	return lifecycle.Step{Status: t.Status, Location: t.Location}
}

// Normalize applies the save rule: a terminal status always deactivates the transaction.
// Stores call it before every write.
func (t *Transaction) Normalize() {
	if t.Status.Terminal() {
		t.IsActive = false
	}
}

func (t *Transaction) apply(step lifecycle.Step) {
	t.Status = step.Status
	t.Location = step.Location
	t.Normalize()
}
