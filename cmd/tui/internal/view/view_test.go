package view

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/routable/internal/item"
	"github.com/MrJamesThe3rd/routable/internal/lifecycle"
	"github.com/MrJamesThe3rd/routable/internal/transaction"
)

func TestItemsModel_Load(t *testing.T) {
	m := NewItemsModel(nil, nil)

	id := uuid.MustParse("0b7d3c2e-0000-4000-8000-000000000001")
	next, _ := m.Update(loadItemsMsg{items: []*item.Item{
		{ID: id, Amount: decimal.RequireFromString("12.5"), State: item.StateError, CreatedAt: time.Now()},
	}})

	view := next.(ItemsModel).View()
	assert.Contains(t, view, "0b7d3c2e")
	assert.Contains(t, view, "12.50")
	assert.Contains(t, view, "error")
}

func TestItemsModel_EnterOpensHistory(t *testing.T) {
	m := NewItemsModel(nil, nil)

	id := uuid.New()
	next, _ := m.Update(loadItemsMsg{items: []*item.Item{{ID: id}}})

	_, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, OpenHistoryMsg{ItemID: id}, cmd())
}

func TestItemsModel_ActionFailureShown(t *testing.T) {
	m := NewItemsModel(nil, nil)
	m.loading = false

	next, _ := m.Update(actionDoneMsg{action: "move", err: transaction.ErrTransactionErrored})

	assert.Contains(t, next.(ItemsModel).status, transaction.ErrTransactionErrored.Error())
}

func TestHistoryModel_Load(t *testing.T) {
	itemID := uuid.New()
	m := NewHistoryModel(nil, nil, itemID)

	next, _ := m.Update(loadHistoryMsg{
		item: &item.Item{ID: itemID, Amount: decimal.NewFromInt(3), State: item.StateCorrecting},
		txs: []*transaction.Transaction{
			{ID: uuid.New(), Status: lifecycle.StatusFixing, Location: lifecycle.LocationRoutable, IsActive: true},
			{ID: uuid.New(), Status: lifecycle.StatusError, Location: lifecycle.LocationRoutable},
		},
	})

	view := next.(HistoryModel).View()
	assert.Contains(t, view, "fixing")
	assert.Contains(t, view, "routable")
	assert.Contains(t, view, "correcting")

	failedLoad, _ := m.Update(loadHistoryMsg{err: errors.New("boom")})
	assert.Contains(t, failedLoad.(HistoryModel).View(), "boom")
}
