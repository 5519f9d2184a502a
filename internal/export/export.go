// Package export builds JSON analysis bundles for a set.
package export

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/pindeck/pindeck/internal/model"
	"github.com/pindeck/pindeck/internal/scoring"
	"github.com/pindeck/pindeck/internal/store"
)

// Bundle is the top-level export document for one set.
type Bundle struct {
	ExportedAt time.Time    `json:"exported_at"`
	Set        SetExport    `json:"set"`
	Games      []GameExport `json:"games"`
}

type SetExport struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Center  string `json:"center,omitempty"`
	Created string `json:"created_at"`
}

type GameExport struct {
	ID           string           `json:"id"`
	Number       int              `json:"number"`
	StartingLane string           `json:"starting_lane"`
	Total        int              `json:"total"`
	MaxPossible  int              `json:"max_possible"`
	Complete     bool             `json:"complete"`
	Frames       []FrameExport    `json:"frames"`
	Deliveries   []DeliveryExport `json:"deliveries"`
}

type FrameExport struct {
	Number     int      `json:"number"`
	Symbols    []string `json:"symbols"`
	Cumulative int      `json:"cumulative"`
	Scored     bool     `json:"scored"`
}

type DeliveryExport struct {
	Frame         int    `json:"frame"`
	Shot          int    `json:"shot"`
	PinsDown      int    `json:"pins_down"`
	PinsStanding  []int  `json:"pins_standing"`
	Lane          string `json:"lane"`
	Split         string `json:"split,omitempty"`
	Ball          string `json:"ball,omitempty"`
	ArrowsPos     int    `json:"arrows_pos,omitempty"`
	BreakpointPos int    `json:"breakpoint_pos,omitempty"`
	Reaction      string `json:"reaction,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// Build loads a set with all of its games and scores them into a bundle.
func Build(ctx context.Context, st *store.Store, setID string) (Bundle, error) {
	set, err := st.GetSet(ctx, setID)
	if err != nil {
		return Bundle{}, err
	}
	games, err := st.ListGames(ctx, setID)
	if err != nil {
		return Bundle{}, err
	}

	bundle := Bundle{
		ExportedAt: time.Now().UTC(),
		Set: SetExport{
			ID:      set.ID,
			Name:    set.Name,
			Center:  set.Center,
			Created: set.CreatedAt.Format(time.RFC3339),
		},
	}
	for _, game := range games {
		l, err := st.LoadLedger(ctx, game.ID)
		if err != nil {
			return Bundle{}, err
		}
		bundle.Games = append(bundle.Games, exportGame(game, scoring.Score(l), l.Deliveries()))
	}
	return bundle, nil
}

func exportGame(game model.Game, sheet model.ScoreSheet, ds []model.Delivery) GameExport {
	out := GameExport{
		ID:           game.ID,
		Number:       game.Number,
		StartingLane: string(game.StartingLane),
		Total:        sheet.Total,
		MaxPossible:  sheet.MaxPossible,
		Complete:     sheet.Complete,
	}
	for _, f := range sheet.Frames {
		out.Frames = append(out.Frames, FrameExport{
			Number:     f.Number,
			Symbols:    f.Symbols,
			Cumulative: f.Cumulative,
			Scored:     f.Scored,
		})
	}
	for _, d := range ds {
		out.Deliveries = append(out.Deliveries, DeliveryExport{
			Frame:         d.Frame,
			Shot:          d.Shot,
			PinsDown:      d.PinsDown,
			PinsStanding:  d.Standing.Pins(),
			Lane:          string(d.Lane),
			Split:         d.SplitName,
			Ball:          d.Equipment.Ball,
			ArrowsPos:     d.Equipment.ArrowsPos,
			BreakpointPos: d.Equipment.BreakpointPos,
			Reaction:      d.Equipment.Reaction,
			CreatedAt:     d.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	return out
}

// WriteJSON writes the bundle as indented JSON.
func WriteJSON(w io.Writer, b Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}
