package curve

import (
	"sort"
)

// findBracketOrBoundary returns the indices of the two adjacent node times
// bracketing target. Outside the range the nearest boundary pair is returned,
// which extrapolates the first or last forward.
func findBracketOrBoundary(times []float64, target float64) (int, int) {
	if len(times) < 2 {
		panic("findBracketOrBoundary: need at least 2 nodes")
	}

	// first node >= target
	idx := sort.SearchFloat64s(times, target)

	if idx <= 0 {
		return 0, 1
	}
	if idx >= len(times) {
		return len(times) - 2, len(times) - 1
	}
	return idx - 1, idx
}
