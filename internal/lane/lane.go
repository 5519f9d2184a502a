// Package lane maps frames and games to lanes of a two-lane pair.
package lane

import "github.com/pindeck/pindeck/internal/model"

// ForFrame returns the lane a frame is bowled on. Odd frames use the game's
// starting lane, even frames the opposite. The starting lane must come from
// the persisted game record, never from session memory.
func ForFrame(starting model.Lane, frame int) model.Lane {
	if frame%2 != 0 {
		return starting
	}
	return starting.Opposite()
}

// NextGameStart returns the starting lane for the game after one that started
// on prev: always the opposite lane of the pair.
func NextGameStart(prev model.Lane) model.Lane {
	return prev.Opposite()
}
