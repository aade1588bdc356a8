package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/routable/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/routable/internal/config"
	"github.com/MrJamesThe3rd/routable/internal/database"
	"github.com/MrJamesThe3rd/routable/internal/importer"
	"github.com/MrJamesThe3rd/routable/internal/item"
	itemStore "github.com/MrJamesThe3rd/routable/internal/item/store"
	"github.com/MrJamesThe3rd/routable/internal/lock"
	"github.com/MrJamesThe3rd/routable/internal/transaction"
	txStore "github.com/MrJamesThe3rd/routable/internal/transaction/store"
)

type model struct {
	itemService   *item.Service
	txService     *transaction.Service
	importService *importer.Service

	currentView View

	itemsView   view.ItemsModel
	historyView view.HistoryModel
	importView  view.ImportModel
}

type View int

const (
	ViewMenu    View = 0
	ViewItems   View = 1
	ViewHistory View = 2
	ViewImport  View = 3
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var txOpts []transaction.Option

	// The console must take the same item locks as the API instances.
	if cfg.Lock.Backend == config.LockBackendRedis {
		client := redis.NewClient(&redis.Options{Addr: cfg.Lock.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			slog.Error("failed to connect to redis", "addr", cfg.Lock.RedisAddr, "error", err)
			os.Exit(1)
		}

		lockOpts := lock.DefaultOptions()
		lockOpts.Expiry = cfg.Lock.Expiry

		txOpts = append(txOpts, transaction.WithLocker(lock.NewRedis(client, lockOpts)))
	}

	itemSvc := item.NewService(itemStore.New(db))
	txSvc := transaction.NewService(txStore.New(db), txOpts...)
	impSvc := importer.NewService()

	return model{
		itemService:   itemSvc,
		txService:     txSvc,
		importService: impSvc,
		currentView:   ViewMenu,
		itemsView:     view.NewItemsModel(itemSvc, txSvc),
		importView:    view.NewImportModel(itemSvc, impSvc),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewItems
				m.itemsView = view.NewItemsModel(m.itemService, m.txService)

				return m, m.itemsView.Init()
			case "2":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.itemService, m.importService)

				return m, m.importView.Init()
			}
		}

		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case view.OpenHistoryMsg:
		m.currentView = ViewHistory
		m.historyView = view.NewHistoryModel(m.itemService, m.txService, msg.ItemID)

		return m, m.historyView.Init()
	case view.BackMsg:
		if m.currentView == ViewHistory {
			m.currentView = ViewItems
			return m, m.itemsView.Init()
		}

		m.currentView = ViewMenu

		return m, nil
	}

	switch m.currentView {
	case ViewItems:
		var newModel tea.Model
		newModel, cmd = m.itemsView.Update(msg)
		m.itemsView = newModel.(view.ItemsModel)
	case ViewHistory:
		var newModel tea.Model
		newModel, cmd = m.historyView.Update(msg)
		m.historyView = newModel.(view.HistoryModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Routable Admin\n\n" +
				"1. Items\n" +
				"2. Import Items\n\n" +
				"q. Quit",
		)
	case ViewItems:
		return m.itemsView.View()
	case ViewHistory:
		return m.historyView.View()
	case ViewImport:
		return m.importView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
