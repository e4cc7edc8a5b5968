// Package slots assigns slot numbers to multimethod argument positions so
// that no two positions applicable to a common class share a slot.
package slots

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/funvibe/multimethods/internal/lattice"
)

// Request asks for a slot for one virtual argument position whose declared
// class is Class. Slot is filled in by Allocate.
type Request struct {
	Class *lattice.Class
	Owner string
	Slot  int
}

// Allocation is the result of one allocation pass over a component.
type Allocation struct {
	Hierarchy *lattice.Hierarchy
	Requests  []*Request
	// Used[i] is the union of the masks of every request given slot i.
	Used []*bitset.BitSet
}

// Allocate colors requests first-fit in the given order: each request gets
// the lowest slot whose accumulated mask does not intersect the request
// class's mask. It then resizes the slot table of every node of the
// hierarchy to one past the highest slot applicable to it.
func Allocate(h *lattice.Hierarchy, requests []*Request) (*Allocation, error) {
	a := &Allocation{Hierarchy: h, Requests: requests}
	for _, r := range requests {
		if r.Class.Root() != h.Root || r.Class.Mask() == nil {
			return nil, fmt.Errorf("slot request %s: class %s is not in component %s", r.Owner, r.Class, h.Root)
		}
		r.Slot = a.firstFree(r.Class.Mask())
		if r.Slot == len(a.Used) {
			a.Used = append(a.Used, bitset.New(uint(len(h.Nodes))))
		}
		a.Used[r.Slot].InPlaceUnion(r.Class.Mask())
	}

	widths := make([]int, len(h.Nodes))
	for _, r := range requests {
		mask := r.Class.Mask()
		for i, ok := mask.NextSet(0); ok; i, ok = mask.NextSet(i + 1) {
			if r.Slot+1 > widths[i] {
				widths[i] = r.Slot + 1
			}
		}
	}
	for i, n := range h.Nodes {
		n.ResetSlotTable(widths[i])
	}
	return a, nil
}

func (a *Allocation) firstFree(mask *bitset.BitSet) int {
	for i, used := range a.Used {
		if used.IntersectionCardinality(mask) == 0 {
			return i
		}
	}
	return len(a.Used)
}

// Width returns the number of slots in use across the component.
func (a *Allocation) Width() int { return len(a.Used) }

// Verify checks that requests sharing a slot have disjoint masks.
func (a *Allocation) Verify() error {
	for i, r := range a.Requests {
		for _, o := range a.Requests[i+1:] {
			if r.Slot != o.Slot {
				continue
			}
			if r.Class.Mask().IntersectionCardinality(o.Class.Mask()) > 0 {
				return fmt.Errorf("slot %d shared by conflicting %s (%s) and %s (%s)",
					r.Slot, r.Owner, r.Class, o.Owner, o.Class)
			}
		}
	}
	return nil
}
