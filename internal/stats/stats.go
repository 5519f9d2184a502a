// Package stats contains set-level statistics and reporting.
package stats

import (
	"context"
	"math"
	"strings"

	"github.com/pindeck/pindeck/internal/model"
	"github.com/pindeck/pindeck/internal/scoring"
	"github.com/pindeck/pindeck/internal/store"
)

const sparkChars = " .:-=+*#%@"

// GameFigures holds per-game counting stats alongside the score sheet.
type GameFigures struct {
	Game            model.Game
	Sheet           model.ScoreSheet
	Strikes         int
	SpareChances    int
	Spares          int
	Splits          int
	SplitsConverted int
	Opens           int
}

// Report summarizes a set: per-game figures plus aggregates across games.
type Report struct {
	Set          model.Set
	Games        []GameFigures
	StrikePct    float64
	SparePct     float64
	SplitPct     float64
	LaneAverages map[model.Lane]float64 // first-ball pinfall average per lane
}

// Figures derives counting stats from one game's deliveries.
func Figures(game model.Game, sheet model.ScoreSheet, ds []model.Delivery) GameFigures {
	fig := GameFigures{Game: game, Sheet: sheet}
	byFrame := map[int][]model.Delivery{}
	for _, d := range ds {
		byFrame[d.Frame] = append(byFrame[d.Frame], d)
	}
	for frame := 1; frame <= 10; frame++ {
		fs := byFrame[frame]
		for i, d := range fs {
			fresh := i == 0 || fs[i-1].Standing == 0
			if fresh && d.PinsDown == 10 {
				fig.Strikes++
				continue
			}
			if !fresh && d.Standing == 0 {
				fig.Spares++
			}
		}
		if len(fs) >= 2 && fs[0].PinsDown < 10 {
			fig.SpareChances++
			if fs[1].Standing == 0 {
				if fs[0].SplitName != "" {
					fig.SplitsConverted++
				}
			} else if frame < 10 || len(fs) == 2 {
				fig.Opens++
			}
		}
		if len(fs) > 0 && fs[0].SplitName != "" {
			fig.Splits++
		}
	}
	return fig
}

// BuildReport loads every game of a set and aggregates its figures.
func BuildReport(ctx context.Context, st *store.Store, setID string) (Report, error) {
	set, err := st.GetSet(ctx, setID)
	if err != nil {
		return Report{}, err
	}
	games, err := st.ListGames(ctx, setID)
	if err != nil {
		return Report{}, err
	}

	report := Report{Set: set, LaneAverages: map[model.Lane]float64{}}
	var strikeBalls, freshBalls, spares, spareChances, splits, splitsConverted int
	lanePins := map[model.Lane]int{}
	laneBalls := map[model.Lane]int{}
	for _, game := range games {
		l, err := st.LoadLedger(ctx, game.ID)
		if err != nil {
			return Report{}, err
		}
		ds := l.Deliveries()
		fig := Figures(game, scoring.Score(l), ds)
		report.Games = append(report.Games, fig)

		spares += fig.Spares
		spareChances += fig.SpareChances
		splits += fig.Splits
		splitsConverted += fig.SplitsConverted
		strikeBalls += fig.Strikes
		byFrame := map[int][]model.Delivery{}
		for _, d := range ds {
			byFrame[d.Frame] = append(byFrame[d.Frame], d)
		}
		for _, fs := range byFrame {
			for i, d := range fs {
				if i == 0 || fs[i-1].Standing == 0 {
					freshBalls++
				}
				if d.Shot == 1 {
					lanePins[d.Lane] += d.PinsDown
					laneBalls[d.Lane]++
				}
			}
		}
	}
	if freshBalls > 0 {
		report.StrikePct = float64(strikeBalls) / float64(freshBalls)
	}
	if spareChances > 0 {
		report.SparePct = float64(spares) / float64(spareChances)
	}
	if splits > 0 {
		report.SplitPct = float64(splitsConverted) / float64(splits)
	}
	for lane, balls := range laneBalls {
		if balls > 0 {
			report.LaneAverages[lane] = float64(lanePins[lane]) / float64(balls)
		}
	}
	return report, nil
}

// GameTotals returns the per-game totals in play order, for trend plotting.
func (r Report) GameTotals() []float64 {
	out := make([]float64, len(r.Games))
	for i, g := range r.Games {
		out[i] = float64(g.Sheet.Total)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
