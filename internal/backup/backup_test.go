package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pindeck/pindeck/internal/ledger"
	"github.com/pindeck/pindeck/internal/model"
	"github.com/pindeck/pindeck/internal/scoring"
	"github.com/pindeck/pindeck/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "backup.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seedGame(t *testing.T, st *store.Store, setID string) model.Game {
	t.Helper()
	ctx := context.Background()
	game, err := st.CreateGame(ctx, setID, model.LaneLeft)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	ds := []model.Delivery{
		{Frame: 1, Shot: 1, PinsDown: 10, Lane: model.LaneLeft},
		{Frame: 2, Shot: 1, PinsDown: 8, Standing: model.NewPinSet(7, 10), Lane: model.LaneRight, SplitName: "Bedposts",
			Equipment: model.Equipment{Ball: "Phaze II", Reaction: "over/under"}},
		{Frame: 2, Shot: 2, PinsDown: 2, Lane: model.LaneRight},
	}
	for _, d := range ds {
		d.GameID = game.ID
		d.CreatedAt = time.Now().UTC()
		if _, err := st.AppendDelivery(ctx, d); err != nil {
			t.Fatalf("AppendDelivery: %v", err)
		}
	}
	return game
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	set, err := st.CreateSet(ctx, "Tuesday League", "Starlight Lanes")
	if err != nil {
		t.Fatalf("CreateSet: %v", err)
	}
	seedGame(t, st, set.ID)

	dir := t.TempDir()
	path, err := Save(ctx, st, set.ID, dir)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	wantName := "set-tuesday-league-starlight-lanes-" + set.ID + ".csv"
	if filepath.Base(path) != wantName {
		t.Errorf("file name = %q, want %q", filepath.Base(path), wantName)
	}

	restored, err := Restore(ctx, st, path, "Tuesday League (restored)", "Starlight Lanes")
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	games, err := st.ListGames(ctx, restored.ID)
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("got %d games, want 1", len(games))
	}
	if games[0].StartingLane != model.LaneLeft {
		t.Errorf("starting lane = %q", games[0].StartingLane)
	}

	l, err := st.LoadLedger(ctx, games[0].ID)
	if err != nil {
		t.Fatalf("LoadLedger: %v", err)
	}
	if l.Len() != 3 {
		t.Fatalf("got %d deliveries, want 3", l.Len())
	}
	second := l.Deliveries()[1]
	if second.SplitName != "Bedposts" || second.Equipment.Ball != "Phaze II" {
		t.Errorf("second delivery = %+v", second)
	}
	if got := scoring.Score(l).Total; got != 20 {
		t.Errorf("restored total = %d, want 20", got)
	}
}

func TestRestoreRejectsMalformedFile(t *testing.T) {
	st := openStore(t)
	dir := t.TempDir()

	cases := map[string]string{
		"missing header": "",
		"bad frame": strings.Join(csvHeader, ",") + "\n" +
			"1,Left Lane,one,1,10,,Left Lane,,,,,,2026-01-01T00:00:00Z\n",
		"bad pins": strings.Join(csvHeader, ",") + "\n" +
			"1,Left Lane,1,1,10,not pins,Left Lane,,,,,,2026-01-01T00:00:00Z\n",
		"inconsistent game": strings.Join(csvHeader, ",") + "\n" +
			"1,Left Lane,1,1,10,,Left Lane,,,,,,2026-01-01T00:00:00Z\n" +
			"1,Left Lane,1,2,0,,Left Lane,,,,,,2026-01-01T00:00:00Z\n",
	}
	for name, content := range cases {
		path := filepath.Join(dir, "bad.csv")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("%s: WriteFile: %v", name, err)
		}
		_, err := Restore(context.Background(), st, path, "bad", "")
		var restoreErr *ledger.RestoreError
		if !errors.As(err, &restoreErr) {
			t.Errorf("%s: got %v, want RestoreError", name, err)
		}
	}
}

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	if names, err := List(dir); err != nil || len(names) != 0 {
		t.Fatalf("empty dir: names=%v err=%v", names, err)
	}
	for _, name := range []string{"set-a.csv", "set-b.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "set-a.csv"), old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	names, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 || names[0] != "set-b.csv" || names[1] != "set-a.csv" {
		t.Errorf("names = %v", names)
	}
}

func TestFileNameSlug(t *testing.T) {
	set := model.Set{ID: "set-abc", Name: "  Tuesday  League!", Center: "Starlight Lanes"}
	if got := FileName(set); got != "set-tuesday-league-starlight-lanes-set-abc.csv" {
		t.Errorf("FileName = %q", got)
	}
	noCenter := model.Set{ID: "set-abc", Name: "solo"}
	if got := FileName(noCenter); got != "set-solo-set-abc.csv" {
		t.Errorf("FileName = %q", got)
	}
}
