// Package scoring computes score sheets from a full ledger.
//
// Scoring is always one pure pass over the complete ledger. No running
// state survives between calls, so recomputing after any change (including
// a retroactive edit) cannot drift from the recorded deliveries.
package scoring

import (
	"strconv"

	"github.com/pindeck/pindeck/internal/ledger"
	"github.com/pindeck/pindeck/internal/model"
	"github.com/pindeck/pindeck/internal/splits"
)

// Score flattens the ledger into ball values and produces the sheet: frame
// symbols, cumulative scores where the lookahead exists, the running total,
// and the maximum still-possible final score.
func Score(l *ledger.Ledger) model.ScoreSheet {
	var sheet model.ScoreSheet

	frames := make([][]model.Delivery, 11)
	var balls []int
	firstBall := make([]int, 11)
	for f := 1; f <= 10; f++ {
		frames[f] = l.Frame(f)
		firstBall[f] = len(balls)
		for _, d := range frames[f] {
			balls = append(balls, d.PinsDown)
		}
	}

	for f := 1; f <= 10; f++ {
		sheet.Frames[f-1] = model.FrameCell{
			Number:  f,
			Symbols: symbols(frames[f]),
		}
	}

	total := 0
	scoredThrough := 0
	for f := 1; f <= 10; f++ {
		value, ok := frameScore(f, frames[f], balls, firstBall[f])
		if !ok {
			break
		}
		total += value
		sheet.Frames[f-1].Cumulative = total
		sheet.Frames[f-1].Scored = true
		scoredThrough = f
	}

	sheet.Total = total
	sheet.Complete = scoredThrough == 10
	sheet.MaxPossible = maxPossible(total, scoredThrough, frames)
	return sheet
}

// frameScore returns a frame's value once every ball it scores on exists.
func frameScore(frame int, ds []model.Delivery, balls []int, first int) (int, bool) {
	if len(ds) == 0 {
		return 0, false
	}
	if frame == 10 {
		if !ledger.FrameComplete(10, ds) {
			return 0, false
		}
		sum := 0
		for _, d := range ds {
			sum += d.PinsDown
		}
		return sum, true
	}
	if ds[0].PinsDown == 10 {
		if first+2 >= len(balls) {
			return 0, false
		}
		return 10 + balls[first+1] + balls[first+2], true
	}
	if len(ds) < 2 {
		return 0, false
	}
	sum := ds[0].PinsDown + ds[1].PinsDown
	if sum == 10 {
		if first+2 >= len(balls) {
			return 0, false
		}
		return 10 + balls[first+2], true
	}
	return sum, true
}

// maxPossible sums actual scores for fully scored frames, a ceiling for the
// first frame still awaiting balls, and 30 per untouched frame beyond it.
func maxPossible(total, scoredThrough int, frames [][]model.Delivery) int {
	if scoredThrough == 10 {
		return total
	}
	max := total
	current := scoredThrough + 1
	max += frameCeiling(frames[current])
	max += 30 * (10 - current)
	return max
}

// frameCeiling is the best case for the frame the game is waiting on: an
// untouched frame or an opening strike can still turn into three strikes
// (30); once a ball has left pins, the best is a spare plus a ten (20). The
// same rule covers frame 10 waiting on a fill ball.
func frameCeiling(ds []model.Delivery) int {
	if len(ds) == 0 || ds[0].PinsDown == 10 {
		return 30
	}
	return 20
}

func symbols(ds []model.Delivery) []string {
	if len(ds) == 0 {
		return nil
	}
	out := make([]string, len(ds))
	for i, d := range ds {
		fresh := i == 0 || ds[i-1].Standing == 0
		switch {
		case d.Standing == 0 && fresh:
			out[i] = "X"
		case d.Standing == 0:
			out[i] = "/"
		case d.PinsDown == 0:
			out[i] = "-"
		case i == 0:
			if _, ok := splits.Classify(d.Standing); ok {
				out[i] = "S" + strconv.Itoa(d.PinsDown)
				continue
			}
			out[i] = strconv.Itoa(d.PinsDown)
		default:
			out[i] = strconv.Itoa(d.PinsDown)
		}
	}
	return out
}
