package statsui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pindeck/pindeck/internal/model"
	"github.com/pindeck/pindeck/internal/store"
)

func seededSet(t *testing.T) (*store.Store, string) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "dash.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	set, err := st.CreateSet(ctx, "city tournament", "Starlight Lanes")
	if err != nil {
		t.Fatalf("CreateSet: %v", err)
	}
	game, err := st.CreateGame(ctx, set.ID, model.LaneLeft)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	for frame := 1; frame <= 10; frame++ {
		ds := []model.Delivery{
			{GameID: game.ID, Frame: frame, Shot: 1, PinsDown: 9, Standing: model.NewPinSet(10), Lane: model.LaneLeft},
			{GameID: game.ID, Frame: frame, Shot: 2, PinsDown: 1, Lane: model.LaneLeft},
		}
		if frame == 10 {
			ds = append(ds, model.Delivery{
				GameID: game.ID, Frame: 10, Shot: 3, PinsDown: 9,
				Standing: model.NewPinSet(10), Lane: model.LaneLeft,
			})
		}
		for _, d := range ds {
			if _, err := st.AppendDelivery(ctx, d); err != nil {
				t.Fatalf("AppendDelivery: %v", err)
			}
		}
	}
	return st, set.ID
}

func TestNewModelBuildsGameTable(t *testing.T) {
	st, setID := seededSet(t)
	m, err := NewModel(context.Background(), st, setID)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	if len(m.report.Games) != 1 {
		t.Fatalf("got %d games, want 1", len(m.report.Games))
	}
	// all spares followed by a ten-pin fill: 9 frames of 19 plus 19 in the tenth
	if total := m.report.Games[0].Sheet.Total; total != 190 {
		t.Errorf("total = %d, want 190", total)
	}
	rows := m.games.Rows()
	if len(rows) != 1 || rows[0][2] != "190" {
		t.Errorf("rows = %v", rows)
	}
}

func TestViewShowsSetAndSelection(t *testing.T) {
	st, setID := seededSet(t)
	m, err := NewModel(context.Background(), st, setID)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	out := m.View()
	for _, want := range []string{"city tournament @ Starlight Lanes", "190", "Total 190"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestMissingSetSurfacesError(t *testing.T) {
	st, _ := seededSet(t)
	if _, err := NewModel(context.Background(), st, "set-missing"); err == nil {
		t.Error("expected error for unknown set")
	}
}
