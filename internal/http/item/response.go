package item

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/routable/internal/item"
	"github.com/MrJamesThe3rd/routable/internal/lifecycle"
	"github.com/MrJamesThe3rd/routable/internal/transaction"
)

type itemResponse struct {
	ID        uuid.UUID  `json:"id"`
	Amount    string     `json:"amount"`
	State     item.State `json:"state"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type transactionResponse struct {
	ID        uuid.UUID          `json:"id"`
	Status    lifecycle.Status   `json:"status"`
	Location  lifecycle.Location `json:"location"`
	IsActive  bool               `json:"is_active"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func toResponse(it *item.Item) itemResponse {
	return itemResponse{
		ID:        it.ID,
		Amount:    it.Amount.StringFixed(2),
		State:     it.State,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

func toResponseList(items []*item.Item) []itemResponse {
	resp := make([]itemResponse, len(items))
	for i, it := range items {
		resp[i] = toResponse(it)
	}

	return resp
}

func toTransactionList(txs []*transaction.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = transactionResponse{
			ID:        tx.ID,
			Status:    tx.Status,
			Location:  tx.Location,
			IsActive:  tx.IsActive,
			CreatedAt: tx.CreatedAt,
			UpdatedAt: tx.UpdatedAt,
		}
	}

	return resp
}
