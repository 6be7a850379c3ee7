package calibration

import (
	"sort"

	"github.com/meenmo/cubecal/swaption"
)

// NodeTable counts quotes per (maturity, tenor) node across lattices and
// derives the rectangular SABR grid: the maturities and tenors of nodes quoted
// more than once. Grid nodes quoted once or never are holes.
type NodeTable struct {
	cardinality map[swaption.NodeKey]int
	maturities  []int
	tenors      []int
}

func NewNodeTable(lattices ...*swaption.Lattice) *NodeTable {
	t := &NodeTable{cardinality: make(map[swaption.NodeKey]int)}
	for _, l := range lattices {
		for _, k := range l.Keys() {
			t.cardinality[k.Node()]++
		}
	}

	maturities := map[int]struct{}{}
	tenors := map[int]struct{}{}
	for n, c := range t.cardinality {
		if c > 1 {
			maturities[n.Maturity] = struct{}{}
			tenors[n.Tenor] = struct{}{}
		}
	}
	t.maturities = sortedInts(maturities)
	t.tenors = sortedInts(tenors)
	return t
}

func sortedInts(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// Cardinality is the number of quotes at n.
func (t *NodeTable) Cardinality(n swaption.NodeKey) int {
	return t.cardinality[n]
}

// Retained reports whether n carries its own SABR parameters.
func (t *NodeTable) Retained(n swaption.NodeKey) bool {
	return t.cardinality[n] > 1
}

func (t *NodeTable) Maturities() []int {
	return append([]int(nil), t.maturities...)
}

func (t *NodeTable) Tenors() []int {
	return append([]int(nil), t.tenors...)
}

// Len is the number of grid nodes.
func (t *NodeTable) Len() int {
	return len(t.maturities) * len(t.tenors)
}

// Nodes returns the grid nodes ordered by maturity, then tenor.
func (t *NodeTable) Nodes() []swaption.NodeKey {
	out := make([]swaption.NodeKey, 0, t.Len())
	for _, m := range t.maturities {
		for _, n := range t.tenors {
			out = append(out, swaption.NodeKey{Maturity: m, Tenor: n})
		}
	}
	return out
}
