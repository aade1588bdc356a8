package view

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/routable/internal/importer"
	"github.com/MrJamesThe3rd/routable/internal/item"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateFormatSelect importState = iota
	importStateFilePick
	importStateImporting
	importStateResult
)

type ImportModel struct {
	itemService   *item.Service
	importService *importer.Service

	state          importState
	filePicker     filepicker.Model
	formats        []importer.Format
	formatCursor   int
	selectedFormat importer.Format

	status string
	err    error
}

func NewImportModel(itemSvc *item.Service, impSvc *importer.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		itemService:   itemSvc,
		importService: impSvc,
		filePicker:    fp,
		formats:       []importer.Format{importer.FormatCSV, importer.FormatCGD},
	}
}

func (m ImportModel) Title() string { return "Import Items" }

func (m ImportModel) ShortHelp() string { return "Esc: back | Enter: select" }

func (m ImportModel) Init() tea.Cmd {
	return nil
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		if m.state == importStateFormatSelect {
			return m.updateFormatSelect(msg)
		}

	case importResultMsg:
		m.state = importStateResult
		m.err = msg.err

		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Imported %d items.", msg.count)
		}

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.status = fmt.Sprintf("Importing from %s...", path)

		return m, m.importCmd(m.selectedFormat, path)
	}

	return m, cmd
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStateFilePick, importStateResult:
		m.state = importStateFormatSelect
		m.err = nil
		m.status = ""

		return m, nil
	}

	return m, Back
}

func (m ImportModel) updateFormatSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		m.formatCursor = max(m.formatCursor-1, 0)
	case tea.KeyDown:
		m.formatCursor = min(m.formatCursor+1, len(m.formats)-1)
	case tea.KeyEnter:
		m.selectedFormat = m.formats[m.formatCursor]
		m.state = importStateFilePick

		return m, m.filePicker.Init()
	}

	return m, nil
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateFormatSelect:
		s := "Select file format:\n\n"

		for i, f := range m.formats {
			cursor := " "
			if i == m.formatCursor {
				cursor = ">"
			}

			s += fmt.Sprintf("%s %s\n", cursor, f)
		}

		return lipgloss.NewStyle().Padding(2).Render(s)
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select file to import (%s):\n\n%s", m.selectedFormat, m.filePicker.View()),
		)
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateResult:
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
		if m.err != nil {
			style = failed
		}

		return lipgloss.NewStyle().Padding(2).Render(style.Render(m.status) + "\n\n(Esc to go back)")
	}

	return ""
}

type importResultMsg struct {
	count int
	err   error
}

func (m ImportModel) importCmd(format importer.Format, path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: fmt.Errorf("opening file: %w", err)}
		}
		defer f.Close()

		amounts, err := m.importService.Import(format, f)
		if err != nil {
			return importResultMsg{err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		items, err := m.itemService.ImportBatch(ctx, amounts)

		return importResultMsg{count: len(items), err: err}
	}
}
