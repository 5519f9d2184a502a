package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pindeck/pindeck/internal/ledger"
	"github.com/pindeck/pindeck/internal/model"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	st, err := Open(filepath.Join(dir, "pindeck.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestSetAndGameLifecycle(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	set, err := st.CreateSet(ctx, "League 03-14-26", "Riverside Lanes")
	if err != nil {
		t.Fatalf("create set: %v", err)
	}
	if _, ok, err := st.LatestGame(ctx, set.ID); err != nil || ok {
		t.Fatalf("expected no games yet, got ok=%v err=%v", ok, err)
	}

	g1, err := st.CreateGame(ctx, set.ID, model.LaneLeft)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if g1.Number != 1 || g1.StartingLane != model.LaneLeft {
		t.Fatalf("unexpected first game: %+v", g1)
	}
	g2, err := st.CreateGame(ctx, set.ID, g1.StartingLane.Opposite())
	if err != nil {
		t.Fatalf("create game 2: %v", err)
	}
	if g2.Number != 2 || g2.StartingLane != model.LaneRight {
		t.Fatalf("unexpected second game: %+v", g2)
	}

	games, err := st.ListGames(ctx, set.ID)
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(games) != 2 || games[0].ID != g1.ID {
		t.Fatalf("unexpected games: %+v", games)
	}

	if err := st.RenameSet(ctx, set.ID, "City League"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, err := st.GetSet(ctx, set.ID)
	if err != nil || got.Name != "City League" {
		t.Fatalf("rename not applied: %+v err=%v", got, err)
	}

	if err := st.DeleteSet(ctx, set.ID); err != nil {
		t.Fatalf("delete set: %v", err)
	}
	if sets, err := st.ListSets(ctx); err != nil || len(sets) != 0 {
		t.Fatalf("expected empty store, got %v err=%v", sets, err)
	}
}

func TestDeliveryRoundTrip(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	set, err := st.CreateSet(ctx, "Practice", "")
	if err != nil {
		t.Fatalf("create set: %v", err)
	}
	game, err := st.CreateGame(ctx, set.ID, model.LaneLeft)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	d := model.Delivery{
		GameID:    game.ID,
		Frame:     1,
		Shot:      1,
		PinsDown:  8,
		Standing:  model.NewPinSet(7, 10),
		Lane:      model.LaneLeft,
		SplitName: "Bedposts",
		Equipment: model.Equipment{
			Ball:          "Storm Phaze II - Pin Down",
			ArrowsPos:     17,
			BreakpointPos: 10,
			Reaction:      "breaking early",
		},
	}
	if _, err := st.AppendDelivery(ctx, d); err != nil {
		t.Fatalf("append: %v", err)
	}

	l, err := st.LoadLedger(ctx, game.ID)
	if err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	got := l.Deliveries()
	if len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
	if got[0].Standing != model.NewPinSet(7, 10) || got[0].SplitName != "Bedposts" {
		t.Fatalf("round trip lost fields: %+v", got[0])
	}
	if got[0].Equipment.Ball != d.Equipment.Ball || got[0].Equipment.ArrowsPos != 17 {
		t.Fatalf("equipment attributes must pass through unmodified: %+v", got[0].Equipment)
	}
}

func TestReplaceDeliveryRewritesRow(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	set, _ := st.CreateSet(ctx, "Practice", "")
	game, _ := st.CreateGame(ctx, set.ID, model.LaneLeft)

	d := model.Delivery{
		GameID: game.ID, Frame: 1, Shot: 1,
		PinsDown: 8, Standing: model.NewPinSet(7, 10), Lane: model.LaneLeft,
	}
	if _, err := st.AppendDelivery(ctx, d); err != nil {
		t.Fatalf("append: %v", err)
	}

	d.PinsDown = 9
	d.Standing = model.NewPinSet(10)
	d.SplitName = ""
	if err := st.ReplaceDelivery(ctx, d); err != nil {
		t.Fatalf("replace: %v", err)
	}

	l, err := st.LoadLedger(ctx, game.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := l.Deliveries()[0]; got.PinsDown != 9 || got.Standing != model.NewPinSet(10) {
		t.Fatalf("edit not applied: %+v", got)
	}

	missing := model.Delivery{GameID: game.ID, Frame: 5, Shot: 1}
	if err := st.ReplaceDelivery(ctx, missing); err == nil {
		t.Fatalf("expected replacing a missing delivery to fail")
	}
}

func TestLoadLedgerSurfacesRestoreError(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	set, _ := st.CreateSet(ctx, "Practice", "")
	game, _ := st.CreateGame(ctx, set.ID, model.LaneLeft)

	// Bypass validation to simulate a corrupted row from another writer.
	_, err := st.db.ExecContext(ctx,
		`INSERT INTO shots (game_id, frame_number, shot_number, pins_down, pins_standing, lane_number, created_at)
		 VALUES (?, 1, 1, 3, 'not pins', ?, '2026-01-01T00:00:00Z')`,
		game.ID, string(model.LaneLeft))
	if err != nil {
		t.Fatalf("insert bad row: %v", err)
	}

	_, err = st.LoadLedger(ctx, game.ID)
	var re *ledger.RestoreError
	if !errors.As(err, &re) {
		t.Fatalf("expected RestoreError, got %v", err)
	}
}

func TestLoadLedgerSurfacesConsistencyError(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	set, _ := st.CreateSet(ctx, "Practice", "")
	game, _ := st.CreateGame(ctx, set.ID, model.LaneLeft)

	// Parseable rows that violate frame structure: a ball after a strike.
	for shot, pinsDown := range []int{10, 0} {
		_, err := st.db.ExecContext(ctx,
			`INSERT INTO shots (game_id, frame_number, shot_number, pins_down, pins_standing, lane_number, created_at)
			 VALUES (?, 1, ?, ?, '', ?, '2026-01-01T00:00:00Z')`,
			game.ID, shot+1, pinsDown, string(model.LaneLeft))
		if err != nil {
			t.Fatalf("insert row: %v", err)
		}
	}

	_, err := st.LoadLedger(ctx, game.ID)
	var ce *ledger.ConsistencyError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConsistencyError, got %v", err)
	}
}

func TestArsenalSeededAndExtendable(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	balls, err := st.ListArsenal(ctx)
	if err != nil {
		t.Fatalf("list arsenal: %v", err)
	}
	if len(balls) != len(defaultArsenal) {
		t.Fatalf("expected seeded arsenal, got %d balls", len(balls))
	}
	if err := st.AddBall(ctx, "Hammer Black Widow 2.0"); err != nil {
		t.Fatalf("add ball: %v", err)
	}
	if err := st.AddBall(ctx, "Hammer Black Widow 2.0"); err != nil {
		t.Fatalf("adding a duplicate must be a no-op: %v", err)
	}
	balls, err = st.ListArsenal(ctx)
	if err != nil {
		t.Fatalf("list arsenal: %v", err)
	}
	if len(balls) != len(defaultArsenal)+1 {
		t.Fatalf("expected one new ball, got %d", len(balls))
	}
}
