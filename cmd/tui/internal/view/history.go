package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/routable/internal/item"
	"github.com/MrJamesThe3rd/routable/internal/transaction"
)

// HistoryModel lists every transaction an item went through, newest first.
type HistoryModel struct {
	itemService *item.Service
	txService   *transaction.Service

	itemID  uuid.UUID
	item    *item.Item
	table   table.Model
	loading bool
	err     error
}

func NewHistoryModel(itemSvc *item.Service, txSvc *transaction.Service, itemID uuid.UUID) HistoryModel {
	return HistoryModel{
		itemService: itemSvc,
		txService:   txSvc,
		itemID:      itemID,
		table: newTable([]table.Column{
			{Title: "ID", Width: 10},
			{Title: "Status", Width: 12},
			{Title: "Location", Width: 18},
			{Title: "Active", Width: 8},
			{Title: "Created", Width: 18},
			{Title: "Updated", Width: 18},
		}),
		loading: true,
	}
}

func (m HistoryModel) Title() string { return "Transaction History" }

func (m HistoryModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m HistoryModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadHistoryMsg:
		m.loading = false
		m.err = msg.err
		m.item = msg.item
		m.refreshTable(msg.txs)

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-10, 5))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m HistoryModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading history...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	header := accent.Render(fmt.Sprintf("Item %s  %s  %s",
		ShortID(m.item.ID), m.item.Amount.StringFixed(2), m.item.State))

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, boxed(m.table.View()), faint.Render(m.ShortHelp())),
	)
}

func (m *HistoryModel) refreshTable(txs []*transaction.Transaction) {
	rows := make([]table.Row, 0, len(txs))
	for _, tx := range txs {
		active := ""
		if tx.IsActive {
			active = "yes"
		}

		rows = append(rows, table.Row{
			ShortID(tx.ID),
			tx.Status.String(),
			tx.Location.String(),
			active,
			FormatTime(tx.CreatedAt),
			FormatTime(tx.UpdatedAt),
		})
	}

	m.table.SetRows(rows)
}

type loadHistoryMsg struct {
	item *item.Item
	txs  []*transaction.Transaction
	err  error
}

func (m HistoryModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		it, err := m.itemService.Get(ctx, m.itemID)
		if err != nil {
			return loadHistoryMsg{err: err}
		}

		txs, err := m.txService.ListByItem(ctx, m.itemID)

		return loadHistoryMsg{item: it, txs: txs, err: err}
	}
}
