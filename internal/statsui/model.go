// Package statsui provides the Bubble Tea set dashboard.
package statsui

import (
	"context"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pindeck/pindeck/internal/sheet"
	"github.com/pindeck/pindeck/internal/stats"
	"github.com/pindeck/pindeck/internal/store"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// Model implements the Bubble Tea set dashboard: a game table on top of a
// detail viewport showing the selected game's score sheet.
type Model struct {
	store  *store.Store
	setID  string
	report stats.Report

	games  table.Model
	detail viewport.Model
	width  int
	height int
}

// NewModel loads the set report and constructs the dashboard.
func NewModel(ctx context.Context, st *store.Store, setID string) (*Model, error) {
	report, err := stats.BuildReport(ctx, st, setID)
	if err != nil {
		return nil, err
	}

	columns := []table.Column{
		{Title: "Game", Width: 5},
		{Title: "Lane", Width: 11},
		{Title: "Score", Width: 6},
		{Title: "Max", Width: 5},
		{Title: "X", Width: 3},
		{Title: "/", Width: 5},
	}
	rows := gameRows(report)
	games := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(minInt(len(rows)+1, 8)),
	)

	m := &Model{
		store:  st,
		setID:  setID,
		report: report,
		games:  games,
		detail: viewport.New(80, 12),
	}
	m.refreshDetail()
	return m, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.Width = msg.Width - 4
		m.refreshDetail()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		if msg.String() == "r" {
			m.reloadReport()
			return m, nil
		}
		var cmd tea.Cmd
		m.games, cmd = m.games.Update(msg)
		m.refreshDetail()
		return m, cmd
	default:
		return m, nil
	}
}

// reloadReport rebuilds the report from storage, picking up deliveries
// recorded while the dashboard was open.
func (m *Model) reloadReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.setID)
	if err != nil {
		return
	}
	m.report = report
	m.games.SetRows(gameRows(report))
	m.refreshDetail()
}

func gameRows(report stats.Report) []table.Row {
	rows := make([]table.Row, 0, len(report.Games))
	for _, g := range report.Games {
		rows = append(rows, table.Row{
			strconv.Itoa(g.Game.Number),
			string(g.Game.StartingLane),
			strconv.Itoa(g.Sheet.Total),
			strconv.Itoa(g.Sheet.MaxPossible),
			strconv.Itoa(g.Strikes),
			strconv.Itoa(g.Spares) + "/" + strconv.Itoa(g.SpareChances),
		})
	}
	return rows
}

// refreshDetail points the viewport at the selected game's score sheet,
// falling back to the set summary when nothing is selected.
func (m *Model) refreshDetail() {
	idx := m.games.Cursor()
	if idx < 0 || idx >= len(m.report.Games) {
		m.detail.SetContent(sheet.SetTable(m.report))
		return
	}
	g := m.report.Games[idx]
	width := m.width
	if width == 0 {
		width = 80
	}
	m.detail.SetContent(sheet.Render(g.Sheet, width))
}

// View implements tea.Model.
func (m *Model) View() string {
	title := m.report.Set.Name
	if m.report.Set.Center != "" {
		title += " @ " + m.report.Set.Center
	}

	out := titleStyle.Render(title) + "\n"
	if len(m.report.Games) == 0 {
		out += "\nno games recorded yet\n"
	} else {
		out += borderStyle.Render(m.games.View()) + "\n"
		out += borderStyle.Render(m.detail.View()) + "\n"
		out += sheet.SetTable(m.report)
	}
	out += footerStyle.Render("↑/↓ select game • q quit")
	return out
}
