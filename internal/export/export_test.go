package export

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/pindeck/pindeck/internal/model"
	"github.com/pindeck/pindeck/internal/store"
)

func TestBuildAndWriteJSON(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "export.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	set, err := st.CreateSet(ctx, "practice", "Starlight Lanes")
	if err != nil {
		t.Fatalf("CreateSet: %v", err)
	}
	game, err := st.CreateGame(ctx, set.ID, model.LaneRight)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	deliveries := []model.Delivery{
		{
			GameID:    game.ID,
			Frame:     1,
			Shot:      1,
			PinsDown:  8,
			Standing:  model.NewPinSet(7, 10),
			Lane:      model.LaneRight,
			SplitName: "Bedposts",
			Equipment: model.Equipment{Ball: "Phaze II", ArrowsPos: 10, Reaction: "flat"},
			CreatedAt: time.Now().UTC(),
		},
		{
			GameID:    game.ID,
			Frame:     1,
			Shot:      2,
			PinsDown:  1,
			Standing:  model.NewPinSet(7),
			Lane:      model.LaneRight,
			CreatedAt: time.Now().UTC(),
		},
	}
	for _, d := range deliveries {
		if _, err := st.AppendDelivery(ctx, d); err != nil {
			t.Fatalf("AppendDelivery: %v", err)
		}
	}

	bundle, err := Build(ctx, st, set.ID)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if bundle.Set.Name != "practice" || bundle.Set.Center != "Starlight Lanes" {
		t.Errorf("set = %+v", bundle.Set)
	}
	if len(bundle.Games) != 1 {
		t.Fatalf("got %d games, want 1", len(bundle.Games))
	}
	g := bundle.Games[0]
	if g.StartingLane != string(model.LaneRight) || g.Complete {
		t.Errorf("game header = %+v", g)
	}
	if g.Total != 9 {
		t.Errorf("total = %d, want 9", g.Total)
	}
	if len(g.Deliveries) != 2 {
		t.Fatalf("got %d deliveries, want 2", len(g.Deliveries))
	}
	first := g.Deliveries[0]
	if first.Split != "Bedposts" || first.Ball != "Phaze II" {
		t.Errorf("first delivery = %+v", first)
	}
	if !reflect.DeepEqual(first.PinsStanding, []int{7, 10}) {
		t.Errorf("pins standing = %v", first.PinsStanding)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, bundle); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var decoded Bundle
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Games[0].Deliveries[1].PinsDown != 1 {
		t.Errorf("round trip lost delivery data: %+v", decoded.Games[0].Deliveries[1])
	}
}
