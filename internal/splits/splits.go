// Package splits classifies first-ball leaves against the USBC split table.
package splits

import "github.com/pindeck/pindeck/internal/model"

// Split names a canonical split configuration.
type Split struct {
	Name     string
	Category string
}

type entry struct {
	pins  []int
	split Split
}

// The canonical table. Matching is exact set equality; anything absent here is
// not a split, regardless of gaps in the leave.
var catalog = []entry{
	{[]int{7, 10}, Split{"Bedposts", "Extreme Wide"}},
	{[]int{4, 6, 7, 10}, Split{"Big Four", "Extreme Wide"}},
	{[]int{4, 6, 7, 8, 10}, Split{"Greek Church (Right Hand)", "Complex Split"}},
	{[]int{4, 6, 7, 9, 10}, Split{"Greek Church (Left Hand)", "Complex Split"}},
	{[]int{2, 4, 6, 7, 10}, Split{"Big Five (Right Hand)", "Complex Split"}},
	{[]int{3, 4, 6, 7, 10}, Split{"Big Five (Left Hand)", "Complex Split"}},
	{[]int{5, 7, 10}, Split{"Sour Apple / Lily", "Middle Split"}},
	{[]int{2, 7}, Split{"Baby Split (Right Hand)", "Baby Split"}},
	{[]int{3, 10}, Split{"Baby Split (Left Hand)", "Baby Split"}},
	{[]int{5, 7}, Split{"Dime Store (Right Hand)", "Dime Store"}},
	{[]int{5, 10}, Split{"Dime Store (Left Hand)", "Dime Store"}},
	{[]int{4, 5}, Split{"Steam Fitter", "Fit Split"}},
	{[]int{5, 6}, Split{"Fit Split", "Fit Split"}},
	{[]int{2, 3}, Split{"Fit Split", "Fit Split"}},
	{[]int{7, 8}, Split{"Back Row Fit Split", "Fit Split"}},
	{[]int{9, 10}, Split{"Back Row Fit Split", "Fit Split"}},
	{[]int{4, 9}, Split{"Parallel Split", "Distant Split"}},
	{[]int{6, 8}, Split{"Parallel Split", "Distant Split"}},
	{[]int{4, 7, 10}, Split{"Corner Split", "Triangular"}},
	{[]int{6, 7, 10}, Split{"Corner Split", "Triangular"}},
	{[]int{2, 7, 10}, Split{"Christmas Tree", "Triangular"}},
	{[]int{3, 7, 10}, Split{"Christmas Tree", "Triangular"}},
	{[]int{7, 9}, Split{"Cincinnati", "Back Row"}},
	{[]int{8, 10}, Split{"Cincinnati", "Back Row"}},
	{[]int{4, 6}, Split{"Golden Gate / Cincinnati", "Middle Row"}},
}

var table = func() map[model.PinSet]Split {
	m := make(map[model.PinSet]Split, len(catalog))
	for _, e := range catalog {
		m[model.NewPinSet(e.pins...)] = e.split
	}
	return m
}()

// Classify matches a first-ball leave against the table. A leave with the
// head pin standing, or with fewer than two pins, is never a split.
func Classify(standing model.PinSet) (Split, bool) {
	if standing.Count() < 2 || standing.Has(1) {
		return Split{}, false
	}
	s, ok := table[standing]
	return s, ok
}
