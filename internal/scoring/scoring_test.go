package scoring

import (
	"reflect"
	"testing"

	"github.com/pindeck/pindeck/internal/ledger"
	"github.com/pindeck/pindeck/internal/model"
)

// buildLedger turns per-frame pinfall lists into a valid ledger, choosing
// standing pins deterministically (the highest-numbered pins stay up).
func buildLedger(t *testing.T, pinfalls [][]int) *ledger.Ledger {
	t.Helper()
	var ds []model.Delivery
	for i, frame := range pinfalls {
		frameNum := i + 1
		available := model.FullRack
		for shot, down := range frame {
			standing := knockLowest(available, down)
			ds = append(ds, model.Delivery{
				GameID:   "g1",
				Frame:    frameNum,
				Shot:     shot + 1,
				PinsDown: down,
				Standing: standing,
			})
			if standing == 0 {
				available = model.FullRack
			} else {
				available = standing
			}
		}
	}
	l, err := ledger.New("g1", ds)
	if err != nil {
		t.Fatalf("build ledger: %v", err)
	}
	return l
}

func knockLowest(available model.PinSet, down int) model.PinSet {
	standing := available
	for _, pin := range available.Pins() {
		if down == 0 {
			break
		}
		standing = standing.Without(pin)
		down--
	}
	return standing
}

func frames(n int, frame ...[]int) [][]int {
	out := make([][]int, 0, 10)
	for i := 0; i < n; i++ {
		out = append(out, []int{10})
	}
	return append(out, frame...)
}

func TestPerfectGame(t *testing.T) {
	sheet := Score(buildLedger(t, frames(9, []int{10, 10, 10})))
	if sheet.Total != 300 {
		t.Fatalf("expected 300, got %d", sheet.Total)
	}
	if !sheet.Complete {
		t.Fatalf("expected a complete game")
	}
	if sheet.MaxPossible != 300 {
		t.Fatalf("max must equal actual once complete, got %d", sheet.MaxPossible)
	}
	for _, f := range sheet.Frames {
		if !f.Scored {
			t.Fatalf("frame %d unscored in a complete game", f.Number)
		}
	}
	if got := sheet.Frames[9].Symbols; !reflect.DeepEqual(got, []string{"X", "X", "X"}) {
		t.Fatalf("frame 10 symbols: %v", got)
	}
}

func TestAllGutterGame(t *testing.T) {
	var pf [][]int
	for i := 0; i < 10; i++ {
		pf = append(pf, []int{0, 0})
	}
	sheet := Score(buildLedger(t, pf))
	if sheet.Total != 0 || !sheet.Complete {
		t.Fatalf("expected a finished 0 game, got total %d complete %v", sheet.Total, sheet.Complete)
	}
	if sheet.MaxPossible != 0 {
		t.Fatalf("nothing left to score, got max %d", sheet.MaxPossible)
	}
	if got := sheet.Frames[0].Symbols; !reflect.DeepEqual(got, []string{"-", "-"}) {
		t.Fatalf("gutter symbols: %v", got)
	}
}

func TestClassicMixedGame(t *testing.T) {
	sheet := Score(buildLedger(t, [][]int{
		{10}, {7, 3}, {9, 0}, {10}, {0, 8}, {8, 2}, {0, 6}, {10}, {10}, {10, 8, 1},
	}))
	if sheet.Total != 167 {
		t.Fatalf("expected 167, got %d", sheet.Total)
	}
	wantCum := []int{20, 39, 48, 66, 74, 84, 90, 120, 148, 167}
	for i, want := range wantCum {
		f := sheet.Frames[i]
		if !f.Scored || f.Cumulative != want {
			t.Fatalf("frame %d: got (%d, scored=%v), want %d", i+1, f.Cumulative, f.Scored, want)
		}
	}
	if got := sheet.Frames[1].Symbols; !reflect.DeepEqual(got, []string{"7", "/"}) {
		t.Fatalf("spare symbols: %v", got)
	}
}

func TestPendingFramesHaveNoScore(t *testing.T) {
	// A strike with no lookahead balls yet: pending, not zero.
	sheet := Score(buildLedger(t, [][]int{{10}}))
	if sheet.Frames[0].Scored {
		t.Fatalf("strike without lookahead must stay pending")
	}
	if sheet.Total != 0 {
		t.Fatalf("no frame is scored yet, got %d", sheet.Total)
	}
	if sheet.MaxPossible != 300 {
		t.Fatalf("opening strike still allows 300, got %d", sheet.MaxPossible)
	}
}

func TestMaxPossibleAfterOpeningSpare(t *testing.T) {
	sheet := Score(buildLedger(t, [][]int{{7, 3}}))
	if sheet.Frames[0].Scored {
		t.Fatalf("spare without its bonus ball must stay pending")
	}
	if sheet.MaxPossible != 290 {
		t.Fatalf("expected 290, got %d", sheet.MaxPossible)
	}
}

func TestMaxPossibleCeilings(t *testing.T) {
	cases := []struct {
		name string
		pf   [][]int
		want int
	}{
		{"empty game", nil, 300},
		{"one leave ball", [][]int{{8}}, 290},
		{"open first frame", [][]int{{8, 1}, {4}}, 269}, // 9 actual + 20 + 8*30
		{"frame 10 strike awaiting fills", frames(9, []int{10, 5}), 295},
		{"frame 10 spare awaiting fill", frames(9, []int{4, 6}), 274},
	}
	for _, tc := range cases {
		var sheet model.ScoreSheet
		if tc.pf == nil {
			l, err := ledger.New("g1", nil)
			if err != nil {
				t.Fatalf("%s: %v", tc.name, err)
			}
			sheet = Score(l)
		} else {
			sheet = Score(buildLedger(t, tc.pf))
		}
		if sheet.MaxPossible != tc.want {
			t.Fatalf("%s: got max %d, want %d", tc.name, sheet.MaxPossible, tc.want)
		}
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	l := buildLedger(t, [][]int{{10}, {7, 3}, {9, 0}, {10}, {0, 8}})
	a := Score(l)
	b := Score(l)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("two passes over an unmodified ledger disagree")
	}
}

func TestEditPropagatesForwardOnly(t *testing.T) {
	l := buildLedger(t, [][]int{
		{9, 0}, {8, 1}, {7, 2}, {6, 3}, {5, 4}, {4, 5}, {3, 6}, {2, 7}, {1, 8}, {0, 9},
	})
	before := Score(l)

	// Turn frame 5 from an open 9 into an open 8.
	edited, err := l.WithReplaced(5, 2, model.Delivery{
		GameID: "g1", PinsDown: 3, Standing: model.NewPinSet(9, 10),
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	after := Score(edited)

	for i := 0; i < 4; i++ {
		if after.Frames[i].Cumulative != before.Frames[i].Cumulative {
			t.Fatalf("frame %d changed by an edit to frame 5", i+1)
		}
	}
	for i := 4; i < 10; i++ {
		if after.Frames[i].Cumulative != before.Frames[i].Cumulative-1 {
			t.Fatalf("frame %d: expected totals from frame 5 on to drop by 1", i+1)
		}
	}
	if after.Total != before.Total-1 {
		t.Fatalf("total: got %d, want %d", after.Total, before.Total-1)
	}
}

func TestSplitSymbol(t *testing.T) {
	ds := []model.Delivery{
		{GameID: "g1", Frame: 1, Shot: 1, PinsDown: 8, Standing: model.NewPinSet(7, 10)},
		{GameID: "g1", Frame: 1, Shot: 2, PinsDown: 1, Standing: model.NewPinSet(7)},
	}
	l, err := ledger.New("g1", ds)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	sheet := Score(l)
	if got := sheet.Frames[0].Symbols; !reflect.DeepEqual(got, []string{"S8", "1"}) {
		t.Fatalf("split symbols: %v", got)
	}
}
