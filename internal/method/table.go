package method

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/funvibe/multimethods/internal/lattice"
)

// Fault marks a table cell that has no single winner.
type Fault int

const (
	FaultNone Fault = iota
	FaultNoApplicable
	FaultAmbiguous
)

func (f Fault) String() string {
	switch f {
	case FaultNoApplicable:
		return "no applicable method"
	case FaultAmbiguous:
		return "ambiguous call"
	default:
		return "ok"
	}
}

func (f Fault) Err() error {
	switch f {
	case FaultNoApplicable:
		return ErrNoApplicableMethod
	case FaultAmbiguous:
		return ErrAmbiguousCall
	default:
		return nil
	}
}

// Group is a set of classes that have the same applicable
// specializations at one virtual position.
type Group struct {
	Index      int
	Classes    []*lattice.Class
	Applicable []*Specialization
	// Set holds the indices of Applicable.
	Set *bitset.BitSet
}

// Cell is one entry of the dispatch table. Chain lists every applicable
// specialization from most to least specific. For a fault cell Chain may
// be non-empty (ambiguous) but is never invoked by a dispatched call.
type Cell struct {
	Chain []*Specialization
	Fault Fault
}

// Winner returns the specialization a dispatched call invokes, or nil.
func (c *Cell) Winner() *Specialization {
	if c.Fault != FaultNone {
		return nil
	}
	return c.Chain[0]
}

// Table is the dense dispatch table of a multimethod. The offset of a
// coordinate tuple is the sum of coordinate times stride; the first
// virtual position has stride 1.
type Table struct {
	Groups  [][]*Group
	Strides []int
	Cells   []*Cell
}

// Offset computes the flat index of a group coordinate tuple.
func (t *Table) Offset(coords ...int) int {
	off := 0
	for i, g := range coords {
		off += g * t.Strides[i]
	}
	return off
}

// At returns the cell at a group coordinate tuple.
func (t *Table) At(coords ...int) *Cell {
	return t.Cells[t.Offset(coords...)]
}

// Coords is the inverse of Offset.
func (t *Table) Coords(off int) []int {
	coords := make([]int, len(t.Strides))
	for i := len(t.Strides) - 1; i >= 0; i-- {
		coords[i] = off / t.Strides[i]
		off %= t.Strides[i]
	}
	return coords
}
