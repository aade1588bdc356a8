package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/routable/internal/lifecycle"
	"github.com/MrJamesThe3rd/routable/internal/transaction"
)

type transactionResponse struct {
	ID        uuid.UUID          `json:"id"`
	Item      uuid.UUID          `json:"item"`
	Status    lifecycle.Status   `json:"status"`
	Location  lifecycle.Location `json:"location"`
	IsActive  bool               `json:"is_active"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func toResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:        tx.ID,
		Item:      tx.ItemID,
		Status:    tx.Status,
		Location:  tx.Location,
		IsActive:  tx.IsActive,
		CreatedAt: tx.CreatedAt,
		UpdatedAt: tx.UpdatedAt,
	}
}
