package view

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/routable/internal/item"
	"github.com/MrJamesThe3rd/routable/internal/lifecycle"
	"github.com/MrJamesThe3rd/routable/internal/transaction"
)

type itemsState int

const (
	itemsStateBrowse itemsState = iota
	itemsStateCreate
)

// OpenHistoryMsg asks the console to show the transactions of an item.
type OpenHistoryMsg struct {
	ItemID uuid.UUID
}

type ItemsModel struct {
	itemService *item.Service
	txService   *transaction.Service

	state   itemsState
	table   table.Model
	items   []*item.Item
	form    *huh.Form
	loading bool
	err     error
	status  string
}

func NewItemsModel(itemSvc *item.Service, txSvc *transaction.Service) ItemsModel {
	return ItemsModel{
		itemService: itemSvc,
		txService:   txSvc,
		table: newTable([]table.Column{
			{Title: "ID", Width: 10},
			{Title: "Amount", Width: 14},
			{Title: "State", Width: 12},
			{Title: "Created", Width: 18},
			{Title: "Updated", Width: 18},
		}),
		loading: true,
	}
}

func (m ItemsModel) Title() string { return "Items" }

func (m ItemsModel) ShortHelp() string {
	if m.state == itemsStateCreate {
		return "Enter: save | Esc: cancel"
	}

	return "Esc: back | n: new | t: start | m: move | e: error | f: fix | x: refund | Enter: history | r: refresh"
}

func (m ItemsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ItemsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadItemsMsg:
		m.loading = false
		m.err = msg.err
		m.items = msg.items
		m.refreshTable()

		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.status = failed.Render(fmt.Sprintf("%s: %v", msg.action, msg.err))
		} else {
			m.status = msg.message
		}

		m.state = itemsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-10, 5))
		return m, nil
	}

	if m.state == itemsStateCreate {
		return m.updateCreate(msg)
	}

	return m.updateBrowse(msg)
}

func (m ItemsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "n":
			return m.enterCreate()
		case "enter":
			if it := m.selected(); it != nil {
				id := it.ID
				return m, func() tea.Msg { return OpenHistoryMsg{ItemID: id} }
			}
		case "t":
			return m, m.actionCmd("start", m.start, "Transaction created")
		case "m":
			return m, m.actionCmd("move", m.txService.Move, "Item moved")
		case "e":
			return m, m.actionCmd("error", m.txService.Error, "Item status changed to error")
		case "f":
			return m, m.actionCmd("fix", m.txService.Fix, "Item fixed")
		case "x":
			return m, m.actionCmd("refund", m.txService.Refund, "Item refund started")
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ItemsModel) enterCreate() (tea.Model, tea.Cmd) {
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("amount").
				Title("Amount").
				Placeholder("0.00").
				Validate(func(s string) error {
					_, err := item.ParseAmount(s)
					return err
				}),
		),
	).WithWidth(40).WithShowHelp(false)

	m.state = itemsStateCreate
	m.table.Blur()

	return m, m.form.Init()
}

func (m ItemsModel) updateCreate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = itemsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.createCmd(m.form.GetString("amount"))
}

func (m ItemsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading items...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	content := boxed(m.table.View())

	if m.state == itemsStateCreate && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(44).
			Render("New Item\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	header := accent.Render(fmt.Sprintf("%d items", len(m.items)))
	if m.status != "" {
		header += "  " + m.status
	}

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, content, faint.Render(m.ShortHelp())),
	)
}

func (m ItemsModel) selected() *item.Item {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.items) {
		return nil
	}

	return m.items[idx]
}

func (m *ItemsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.items))
	for _, it := range m.items {
		rows = append(rows, table.Row{
			ShortID(it.ID),
			it.Amount.StringFixed(2),
			string(it.State),
			FormatTime(it.CreatedAt),
			FormatTime(it.UpdatedAt),
		})
	}

	m.table.SetRows(rows)
}

func (m ItemsModel) start(ctx context.Context, itemID uuid.UUID) error {
	_, err := m.txService.Create(ctx, transaction.CreateParams{
		ItemID:   itemID,
		Status:   lifecycle.Initial.Status,
		Location: lifecycle.Initial.Location,
	})

	return err
}

// Messages

type loadItemsMsg struct {
	items []*item.Item
	err   error
}

type actionDoneMsg struct {
	action  string
	message string
	err     error
}

func (m ItemsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		items, err := m.itemService.List(ctx)

		return loadItemsMsg{items: items, err: err}
	}
}

func (m ItemsModel) actionCmd(action string, op func(context.Context, uuid.UUID) error, message string) tea.Cmd {
	it := m.selected()
	if it == nil {
		return nil
	}

	id := it.ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return actionDoneMsg{action: action, message: message, err: op(ctx, id)}
	}
}

func (m ItemsModel) createCmd(raw string) tea.Cmd {
	return func() tea.Msg {
		amount, err := item.ParseAmount(raw)
		if err != nil {
			return actionDoneMsg{action: "create", err: err}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		it, err := m.itemService.Create(ctx, amount)
		if err != nil {
			return actionDoneMsg{action: "create", err: err}
		}

		return actionDoneMsg{action: "create", message: "Created item " + ShortID(it.ID)}
	}
}
