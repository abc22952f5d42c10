package vsearch

// Axis distinguishes the query axis from the target axis in the gap
// model, since VSEARCH's end-gap policy can differ per axis (e.g. free
// end-gaps on the query while penalising interior target gaps).
type Axis int

const (
	AxisQuery Axis = iota
	AxisTarget
)

// Region distinguishes where in the DP matrix a gap falls: the leading
// edge (row 0 / column 0), the interior, or the trailing edge (last
// row/column). Each region can carry its own (open, extend) pair.
type Region int

const (
	RegionLeft Region = iota
	RegionInterior
	RegionRight
)

// GapPenalty is a non-negative (open, extend) pair. The aligner subtracts
// these from the running score; they are never stored as negative values
// so that "no penalty configured" reads as the zero value.
type GapPenalty struct {
	Open   int64
	Extend int64
}

// GapModel holds a 2 (axis) x 3 (region) grid of gap penalties. All six
// pairs are independent so the caller can give, for instance, free
// end-gaps on the query (RegionLeft/RegionRight open = extend = 0) while
// still penalising interior indels normally.
type GapModel struct {
	penalties [2][3]GapPenalty
}

// NewGapModel builds a GapModel with a single (open, extend) pair applied
// uniformly to interior gaps on both axes, and free (zero-cost) end-gaps —
// the common default for a global aligner used in similarity search, where
// terminal gaps should not depress identity.
func NewGapModel(open, extend int64) *GapModel {
	g := &GapModel{}
	g.penalties[AxisQuery][RegionInterior] = GapPenalty{open, extend}
	g.penalties[AxisTarget][RegionInterior] = GapPenalty{open, extend}
	return g
}

// Set installs the (open, extend) pair for one (axis, region) cell of the
// grid.
func (g *GapModel) Set(axis Axis, region Region, open, extend int64) {
	g.penalties[axis][region] = GapPenalty{open, extend}
}

// Get returns the (open, extend) pair for one (axis, region) cell.
func (g *GapModel) Get(axis Axis, region Region) GapPenalty {
	return g.penalties[axis][region]
}
