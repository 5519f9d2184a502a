// Package model defines shared data structures.
package model

import "time"

// Lane identifies one lane of a two-lane pair.
type Lane string

// The two lanes of a pair.
const (
	LaneLeft  Lane = "Left Lane"
	LaneRight Lane = "Right Lane"
)

// Opposite returns the other lane of the pair.
func (l Lane) Opposite() Lane {
	if l == LaneLeft {
		return LaneRight
	}
	return LaneLeft
}

// Valid reports whether the lane is one of the pair.
func (l Lane) Valid() bool {
	return l == LaneLeft || l == LaneRight
}

// Equipment carries per-delivery attributes the scoring core treats as opaque.
type Equipment struct {
	Ball          string
	ArrowsPos     int
	BreakpointPos int
	Reaction      string
}

// Delivery is one recorded ball.
type Delivery struct {
	ID        int64
	GameID    string
	Frame     int // 1-10
	Shot      int // 1-3; only frame 10 reaches 3
	PinsDown  int
	Standing  PinSet // pins still standing in the frame after this ball
	Lane      Lane
	SplitName string // recognized first-ball split leave, if any
	Equipment Equipment
	CreatedAt time.Time
}

// Game is an ordered sequence of frames 1-10 for one game in a set.
type Game struct {
	ID           string
	SetID        string
	Number       int
	StartingLane Lane
	CreatedAt    time.Time
}

// Set groups the games of one outing.
type Set struct {
	ID        string
	Name      string
	Center    string
	CreatedAt time.Time
}

// FrameCell is one frame of a score sheet.
type FrameCell struct {
	Number     int
	Symbols    []string
	Cumulative int
	Scored     bool // false while lookahead balls are still pending
}

// ScoreSheet is the scored view of a full ledger.
type ScoreSheet struct {
	Frames      [10]FrameCell
	Total       int
	MaxPossible int
	Complete    bool
}

// Config holds play-session settings resolved from flags and the config file.
type Config struct {
	StartingLane Lane
	DefaultBall  string
	Center       string
	RemoteURL    string
}
