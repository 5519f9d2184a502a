// Package ledger holds the append-only delivery record for one game.
//
// The ledger is the single durable source of truth: the session cursor and
// every score are re-derived from it in full, never carried alongside it.
package ledger

import (
	"sort"

	"github.com/pindeck/pindeck/internal/model"
)

// Ledger is the ordered list of deliveries for one game. A constructed
// Ledger is always structurally valid.
type Ledger struct {
	gameID     string
	deliveries []model.Delivery
}

// New builds a validated ledger from persisted deliveries. The input is
// reordered by (frame, shot); any structural violation returns a
// ConsistencyError and no ledger.
func New(gameID string, deliveries []model.Delivery) (*Ledger, error) {
	ds := make([]model.Delivery, len(deliveries))
	copy(ds, deliveries)
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Frame != ds[j].Frame {
			return ds[i].Frame < ds[j].Frame
		}
		return ds[i].Shot < ds[j].Shot
	})
	if err := check(gameID, ds); err != nil {
		return nil, err
	}
	return &Ledger{gameID: gameID, deliveries: ds}, nil
}

// GameID returns the owning game's identifier.
func (l *Ledger) GameID() string {
	return l.gameID
}

// Len returns the number of recorded deliveries.
func (l *Ledger) Len() int {
	return len(l.deliveries)
}

// Deliveries returns a copy of the ordered deliveries.
func (l *Ledger) Deliveries() []model.Delivery {
	out := make([]model.Delivery, len(l.deliveries))
	copy(out, l.deliveries)
	return out
}

// Frame returns the deliveries recorded for one frame, in shot order.
func (l *Ledger) Frame(n int) []model.Delivery {
	var out []model.Delivery
	for _, d := range l.deliveries {
		if d.Frame == n {
			out = append(out, d)
		}
	}
	return out
}

// Append adds a validated delivery. The combined sequence is re-checked
// before mutation, so a rejected append leaves the ledger untouched.
func (l *Ledger) Append(d model.Delivery) error {
	next := make([]model.Delivery, len(l.deliveries), len(l.deliveries)+1)
	copy(next, l.deliveries)
	next = append(next, d)
	if err := check(l.gameID, next); err != nil {
		return err
	}
	l.deliveries = next
	return nil
}

// WithReplaced returns a new ledger with the delivery at (frame, shot)
// replaced. Edits are whole-ledger rewrites: the result is revalidated in
// full and the original ledger is untouched.
func (l *Ledger) WithReplaced(frame, shot int, d model.Delivery) (*Ledger, error) {
	next := make([]model.Delivery, len(l.deliveries))
	copy(next, l.deliveries)
	found := false
	for i := range next {
		if next[i].Frame == frame && next[i].Shot == shot {
			d.Frame = frame
			d.Shot = shot
			d.ID = next[i].ID
			next[i] = d
			found = true
			break
		}
	}
	if !found {
		return nil, &ConsistencyError{GameID: l.gameID, Frame: frame, Reason: "no such delivery to replace"}
	}
	return New(l.gameID, next)
}

// FrameComplete reports whether a frame's deliveries meet its terminal
// condition: frames 1-9 end after a strike or two balls; frame 10 ends after
// three balls, or after two when neither a strike nor a spare earned a fill.
func FrameComplete(frame int, ds []model.Delivery) bool {
	if frame < 10 {
		if len(ds) >= 2 {
			return true
		}
		return len(ds) == 1 && ds[0].PinsDown == 10
	}
	switch len(ds) {
	case 3:
		return true
	case 2:
		strike := ds[0].PinsDown == 10
		spare := !strike && ds[0].PinsDown+ds[1].PinsDown == 10
		return !strike && !spare
	default:
		return false
	}
}

// availableBefore returns the rack a delivery was bowled at, given the prior
// deliveries of the same frame. Frame 10 resets to a full rack after the
// standing pins were cleared.
func availableBefore(prior []model.Delivery) model.PinSet {
	if len(prior) == 0 {
		return model.FullRack
	}
	last := prior[len(prior)-1]
	if last.Standing == 0 {
		return model.FullRack
	}
	return last.Standing
}

func check(gameID string, ds []model.Delivery) error {
	fail := func(frame int, reason string) error {
		return &ConsistencyError{GameID: gameID, Frame: frame, Reason: reason}
	}

	byFrame := map[int][]model.Delivery{}
	prevFrame := 0
	for _, d := range ds {
		if d.Frame < 1 || d.Frame > 10 {
			return fail(d.Frame, "frame number out of range")
		}
		if d.Shot < 1 || d.Shot > 3 {
			return fail(d.Frame, "shot number out of range")
		}
		if d.Shot == 3 && d.Frame != 10 {
			return fail(d.Frame, "third shot outside frame 10")
		}
		if d.PinsDown < 0 || d.PinsDown > 10 {
			return fail(d.Frame, "pin count out of range")
		}
		if d.Frame < prevFrame {
			return fail(d.Frame, "deliveries out of order")
		}
		if d.Frame > prevFrame+1 {
			return fail(d.Frame, "skipped frame")
		}
		if d.Frame == prevFrame+1 && prevFrame > 0 {
			if !FrameComplete(prevFrame, byFrame[prevFrame]) {
				return fail(prevFrame, "next frame started before frame completed")
			}
		}
		prior := byFrame[d.Frame]
		if d.Shot != len(prior)+1 {
			return fail(d.Frame, "shot numbers not sequential")
		}
		if FrameComplete(d.Frame, prior) {
			return fail(d.Frame, "more deliveries than the frame allows")
		}
		available := availableBefore(prior)
		if d.PinsDown > available.Count() {
			return fail(d.Frame, "more pins down than were standing")
		}
		if d.Standing&^available != 0 {
			return fail(d.Frame, "standing pins not a subset of the rack")
		}
		if available.Count()-d.Standing.Count() != d.PinsDown {
			return fail(d.Frame, "pin count disagrees with standing pins")
		}
		byFrame[d.Frame] = append(prior, d)
		prevFrame = d.Frame
	}
	return nil
}
