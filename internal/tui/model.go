// Package tui provides the Bubble Tea delivery entry interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pindeck/pindeck/internal/lane"
	"github.com/pindeck/pindeck/internal/ledger"
	"github.com/pindeck/pindeck/internal/model"
	"github.com/pindeck/pindeck/internal/scoring"
	"github.com/pindeck/pindeck/internal/session"
	"github.com/pindeck/pindeck/internal/sheet"
	"github.com/pindeck/pindeck/internal/splits"
	"github.com/pindeck/pindeck/internal/store"
)

type editField int

const (
	editNone editField = iota
	editBall
	editReaction
)

var (
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	standingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	downStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	splitStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// pin layout from the back row down to the head pin
var rackRows = [][]int{{7, 8, 9, 10}, {4, 5, 6}, {2, 3}, {1}}

// Model implements the Bubble Tea delivery entry UI.
type Model struct {
	cfg   model.Config
	store *store.Store
	set   model.Set
	game  model.Game

	led    *ledger.Ledger
	cursor session.Cursor
	sheet  model.ScoreSheet

	standing model.PinSet

	arsenal    []string
	arsenalIdx int

	ball     textinput.Model
	reaction textinput.Model
	editing  editField

	errMsg string

	width  int
	height int
}

// NewModel constructs an entry UI for one game of a set. The arsenal is
// cycled through with tab; an empty arsenal leaves the ball free-form.
func NewModel(cfg model.Config, st *store.Store, set model.Set, game model.Game, led *ledger.Ledger, arsenal []string) *Model {
	m := &Model{
		cfg:      cfg,
		store:    st,
		set:      set,
		game:     game,
		led:      led,
		arsenal:  arsenal,
		ball:     newInput("ball: ", cfg.DefaultBall),
		reaction: newInput("reaction: ", ""),
	}
	for i, ball := range arsenal {
		if ball == cfg.DefaultBall {
			m.arsenalIdx = i
			break
		}
	}
	m.refresh()
	return m
}

func newInput(prompt, value string) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.SetValue(value)
	in.CharLimit = 64
	return in
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
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.editing != editNone {
			return m, m.updateEditing(msg)
		}
		return m, m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) updateEditing(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.ball.Blur()
		m.reaction.Blur()
		m.editing = editNone
		return nil
	}
	var cmd tea.Cmd
	switch m.editing {
	case editBall:
		m.ball, cmd = m.ball.Update(msg)
	case editReaction:
		m.reaction, cmd = m.reaction.Update(msg)
	}
	return cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "enter":
		m.submit()
		return nil
	case "x":
		m.standing = 0
		m.errMsg = ""
		return nil
	case "g":
		m.standing = m.cursor.Available
		m.errMsg = ""
		return nil
	case "tab":
		m.cycleBall()
		return nil
	case "b":
		m.editing = editBall
		return m.ball.Focus()
	case "r":
		m.editing = editReaction
		return m.reaction.Focus()
	case "n":
		if m.cursor.GameOver {
			m.nextGame()
		}
		return nil
	}
	if pin, ok := keyPin(msg.String()); ok {
		m.togglePin(pin)
	}
	return nil
}

func keyPin(key string) (int, bool) {
	if len(key) != 1 || key[0] < '0' || key[0] > '9' {
		return 0, false
	}
	if key == "0" {
		return 10, true
	}
	return int(key[0] - '0'), true
}

func (m *Model) cycleBall() {
	if len(m.arsenal) == 0 {
		return
	}
	m.arsenalIdx = (m.arsenalIdx + 1) % len(m.arsenal)
	m.ball.SetValue(m.arsenal[m.arsenalIdx])
}

func (m *Model) togglePin(pin int) {
	if !m.cursor.Available.Has(pin) {
		return
	}
	if m.standing.Has(pin) {
		m.standing = m.standing.Without(pin)
	} else {
		m.standing = m.standing.With(pin)
	}
	m.errMsg = ""
}

func (m *Model) submit() {
	if m.cursor.GameOver {
		m.errMsg = "game is complete; press n for the next game"
		return
	}
	candidate := session.Candidate{
		Frame:    m.cursor.Frame,
		Shot:     m.cursor.Shot,
		Standing: m.standing,
		Equipment: model.Equipment{
			Ball:     strings.TrimSpace(m.ball.Value()),
			Reaction: strings.TrimSpace(m.reaction.Value()),
		},
	}
	d, err := session.Accept(m.led, candidate)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	d.Lane = lane.ForFrame(m.game.StartingLane, d.Frame)
	d.CreatedAt = time.Now().UTC()

	ctx := context.Background()
	id, err := m.store.AppendDelivery(ctx, d)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	d.ID = id
	if err := m.led.Append(d); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.reaction.SetValue("")
	m.refresh()
}

func (m *Model) nextGame() {
	ctx := context.Background()
	game, err := m.store.CreateGame(ctx, m.set.ID, lane.NextGameStart(m.game.StartingLane))
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	led, err := ledger.New(game.ID, nil)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.game = game
	m.led = led
	if m.cfg.DefaultBall != "" {
		m.ball.SetValue(m.cfg.DefaultBall)
	}
	m.reaction.SetValue("")
	m.refresh()
}

// refresh rederives the cursor and score sheet from the ledger and resets
// the rack selection to a fresh leave.
func (m *Model) refresh() {
	m.cursor = session.Derive(m.led)
	m.sheet = scoring.Score(m.led)
	m.standing = m.cursor.Available
	m.errMsg = ""
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(m.headerLine()))
	b.WriteString("\n\n")
	b.WriteString(m.renderRack())
	b.WriteByte('\n')
	if label := m.leaveLabel(); label != "" {
		b.WriteString(splitStyle.Render(label))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(sheet.Render(m.sheet, m.width))
	b.WriteByte('\n')
	if ball := m.ball.Value(); ball != "" && m.editing == editNone {
		b.WriteString(footerStyle.Render("ball: " + ball))
		b.WriteByte('\n')
	}
	if m.editing != editNone {
		b.WriteByte('\n')
		switch m.editing {
		case editBall:
			b.WriteString(m.ball.View())
		case editReaction:
			b.WriteString(m.reaction.View())
		}
		b.WriteByte('\n')
	}
	if m.errMsg != "" {
		b.WriteByte('\n')
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(footerStyle.Render(m.footerLine()))
	return b.String()
}

func (m *Model) headerLine() string {
	if m.cursor.GameOver {
		return fmt.Sprintf("%s • game %d • game over", m.set.Name, m.game.Number)
	}
	currentLane := lane.ForFrame(m.game.StartingLane, m.cursor.Frame)
	return fmt.Sprintf("%s • game %d • %s • frame %d ball %d",
		m.set.Name, m.game.Number, currentLane, m.cursor.Frame, m.cursor.Shot)
}

func (m *Model) renderRack() string {
	var b strings.Builder
	for i, row := range rackRows {
		b.WriteString(strings.Repeat(" ", i+1))
		for j, pin := range row {
			if j > 0 {
				b.WriteByte(' ')
			}
			label := fmt.Sprintf("%d", pin)
			switch {
			case !m.cursor.Available.Has(pin):
				b.WriteString(downStyle.Render(strings.Repeat("·", len(label))))
			case m.standing.Has(pin):
				b.WriteString(standingStyle.Render(label))
			default:
				b.WriteString(downStyle.Render(label))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m *Model) leaveLabel() string {
	if m.cursor.GameOver || m.cursor.Shot != 1 {
		return ""
	}
	if s, ok := splits.Classify(m.standing); ok {
		return "leave: " + s.Name + " (" + s.Category + ")"
	}
	return ""
}

func (m *Model) footerLine() string {
	if m.cursor.GameOver {
		return "n next game • q quit"
	}
	return "1-9,0 toggle pins • x clear deck • g gutter • tab next ball • b ball • r reaction • enter record • q quit"
}
