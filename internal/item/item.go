package item

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/routable/internal/lifecycle"
)

var (
	ErrNotFound      = errors.New("item does not exist")
	ErrInvalidAmount = errors.New("invalid amount")
)

// State is the lifecycle state of an item, derived from its active transaction.
type State string

const (
	StateProcessing State = "processing"
	StateCorrecting State = "correcting"
	StateError      State = "error"
	StateResolved   State = "resolved"
)

// Item is a routed amount of money.
type Item struct {
	ID        uuid.UUID
	Amount    decimal.Decimal
	State     State
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeriveState maps a transaction status to the state of the item that owns it.
func DeriveState(status lifecycle.Status) State {
	switch status {
	case lifecycle.StatusError:
		return StateError
	case lifecycle.StatusCompleted, lifecycle.StatusRefunded:
		return StateResolved
	case lifecycle.StatusRefunding, lifecycle.StatusFixing:
		return StateCorrecting
	default:
		return StateProcessing
	}
}

// Amounts are stored as NUMERIC(10,2).
const (
	amountPlaces    = 2
	amountIntDigits = 8
)

var maxAmount = decimal.New(1, amountIntDigits)

// ParseAmount validates a user supplied amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}

	return d, ValidateAmount(d)
}

func ValidateAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%w: must not be negative", ErrInvalidAmount)
	}

	if !d.Equal(d.Truncate(amountPlaces)) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, amountPlaces)
	}

	if d.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: at most %d digits before the decimal point", ErrInvalidAmount, amountIntDigits)
	}

	return nil
}
