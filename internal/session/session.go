// Package session derives the expected next delivery from a game's ledger.
//
// There is no session state to keep or restore: the cursor is recomputed
// from whatever deliveries persisted, so an interrupted game resumes by
// re-running the derivation.
package session

import (
	"github.com/pindeck/pindeck/internal/ledger"
	"github.com/pindeck/pindeck/internal/model"
	"github.com/pindeck/pindeck/internal/splits"
)

// Cursor is the expected next delivery slot.
type Cursor struct {
	Frame     int
	Shot      int
	Available model.PinSet // rack the next ball is bowled at
	GameOver  bool
}

// Candidate is a delivery submitted by the entry UI: the slot it claims and
// the pins left standing after the ball.
type Candidate struct {
	Frame     int
	Shot      int
	Standing  model.PinSet
	Equipment model.Equipment
}

// Derive scans frames in order and returns the first open slot. An empty
// ledger expects frame 1, shot 1 at a full rack; a ledger with all ten
// frames complete reports game over.
func Derive(l *ledger.Ledger) Cursor {
	for frame := 1; frame <= 10; frame++ {
		ds := l.Frame(frame)
		if ledger.FrameComplete(frame, ds) {
			continue
		}
		return Cursor{
			Frame:     frame,
			Shot:      len(ds) + 1,
			Available: available(ds),
		}
	}
	return Cursor{Frame: 10, Shot: 3, GameOver: true}
}

// Accept validates a candidate against the derived cursor and returns the
// delivery to append. A mismatched slot or an impossible pin count is a
// ValidationError; the ledger is never touched here.
func Accept(l *ledger.Ledger, c Candidate) (model.Delivery, error) {
	cur := Derive(l)
	if cur.GameOver {
		return model.Delivery{}, &ledger.ValidationError{
			Frame: c.Frame, Shot: c.Shot, Reason: "game is complete",
		}
	}
	if c.Frame != cur.Frame || c.Shot != cur.Shot {
		return model.Delivery{}, &ledger.ValidationError{
			Frame: c.Frame, Shot: c.Shot, Reason: "does not match the expected frame and shot",
		}
	}
	if c.Standing&^cur.Available != 0 {
		return model.Delivery{}, &ledger.ValidationError{
			Frame: c.Frame, Shot: c.Shot, Reason: "standing pins were not available to hit",
		}
	}
	pinsDown := cur.Available.Count() - c.Standing.Count()
	if pinsDown < 0 || pinsDown > cur.Available.Count() {
		return model.Delivery{}, &ledger.ValidationError{
			Frame: c.Frame, Shot: c.Shot, Reason: "pin count out of bounds for the rack",
		}
	}

	d := model.Delivery{
		GameID:    l.GameID(),
		Frame:     c.Frame,
		Shot:      c.Shot,
		PinsDown:  pinsDown,
		Standing:  c.Standing,
		Equipment: c.Equipment,
	}
	if c.Shot == 1 {
		if s, ok := splits.Classify(c.Standing); ok {
			d.SplitName = s.Name
		}
	}
	return d, nil
}

// Amend corrects the leave of one already recorded delivery. The pin count
// and split name are rederived from the new standing set, everything else is
// kept, and the whole ledger is revalidated, so an edit that contradicts a
// later ball in the frame is rejected. The input ledger is never modified.
func Amend(l *ledger.Ledger, frame, shot int, standing model.PinSet) (*ledger.Ledger, model.Delivery, error) {
	ds := l.Frame(frame)
	if shot < 1 || shot > len(ds) {
		return nil, model.Delivery{}, &ledger.ValidationError{
			Frame: frame, Shot: shot, Reason: "no recorded delivery at this slot",
		}
	}
	avail := available(ds[:shot-1])
	if standing&^avail != 0 {
		return nil, model.Delivery{}, &ledger.ValidationError{
			Frame: frame, Shot: shot, Reason: "standing pins were not available to hit",
		}
	}

	d := ds[shot-1]
	d.Standing = standing
	d.PinsDown = avail.Count() - standing.Count()
	d.SplitName = ""
	if shot == 1 {
		if s, ok := splits.Classify(standing); ok {
			d.SplitName = s.Name
		}
	}

	amended, err := l.WithReplaced(frame, shot, d)
	if err != nil {
		return nil, model.Delivery{}, err
	}
	return amended, d, nil
}

// available returns the rack for the next ball of an open frame: a full rack
// when the frame is untouched or the previous ball cleared the deck (frame
// 10 resets), otherwise the pins the last ball left standing.
func available(ds []model.Delivery) model.PinSet {
	if len(ds) == 0 {
		return model.FullRack
	}
	last := ds[len(ds)-1]
	if last.Standing == 0 {
		return model.FullRack
	}
	return last.Standing
}
