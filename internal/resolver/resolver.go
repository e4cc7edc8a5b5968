// Package resolver partitions the classes of every virtual position of a
// multimethod into groups and builds the dense dispatch table.
package resolver

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/funvibe/multimethods/internal/lattice"
	"github.com/funvibe/multimethods/internal/method"
)

// Resolver builds the dispatch table of one multimethod. The components of
// its virtual positions must be initialized and its slots assigned.
type Resolver struct {
	method *method.Multimethod
	groups [][]*method.Group
	table  *method.Table
}

func New(m *method.Multimethod) *Resolver {
	return &Resolver{method: m}
}

// Resolve builds groups and table and installs the table.
func Resolve(m *method.Multimethod) (*method.Table, error) {
	r := New(m)
	if err := r.MakeGroups(); err != nil {
		return nil, err
	}
	r.MakeTable()
	m.Install(r.table)
	return r.table, nil
}

// Groups returns the groups of every virtual position.
func (r *Resolver) Groups() [][]*method.Group { return r.groups }

// Table returns the table built by MakeTable.
func (r *Resolver) Table() *method.Table { return r.table }

// FindApplicable returns, in registration order, the specializations
// that accept c at virtual position pos.
func (r *Resolver) FindApplicable(pos int, c *lattice.Class) []*method.Specialization {
	var out []*method.Specialization
	for _, s := range r.method.Specializations() {
		if s.AppliesTo(pos, c) {
			out = append(out, s)
		}
	}
	return out
}

// MakeGroups partitions, for every virtual position, the classes covered
// by the declared class into groups with identical applicable lists.
// Groups are numbered in node order of first appearance, and each class
// gets its group index written at the position's slot.
func (r *Resolver) MakeGroups() error {
	m := r.method
	r.groups = make([][]*method.Group, m.VirtualArity())
	nspecs := uint(len(m.Specializations()))

	for pos := range r.groups {
		decl := m.VirtualClass(pos)
		h := decl.Root().Hierarchy()
		if h == nil || decl.Index() < 0 {
			return fmt.Errorf("%s: component of %s is not initialized", m, decl)
		}
		slot := m.Slot(pos)
		byKey := make(map[string]*method.Group)

		for _, c := range h.Covered(decl) {
			set := bitset.New(nspecs)
			applicable := r.FindApplicable(pos, c)
			for _, s := range applicable {
				set.Set(uint(s.Index()))
			}
			key := set.String()
			g, ok := byKey[key]
			if !ok {
				g = &method.Group{
					Index:      len(r.groups[pos]),
					Applicable: applicable,
					Set:        set,
				}
				byKey[key] = g
				r.groups[pos] = append(r.groups[pos], g)
			}
			g.Classes = append(g.Classes, c)
			if slot >= len(c.SlotTable()) {
				return fmt.Errorf("%s: slot %d out of range for %s", m, slot, c)
			}
			c.SetSlot(slot, g.Index)
		}
	}
	return nil
}

// MakeTable fills the dispatch table. The first virtual position has
// stride 1; every cell holds the candidates common to its groups, ordered
// most specific first.
func (r *Resolver) MakeTable() {
	k := len(r.groups)
	strides := make([]int, k)
	size := 1
	for i, gs := range r.groups {
		strides[i] = size
		size *= len(gs)
	}
	t := &method.Table{Groups: r.groups, Strides: strides, Cells: make([]*method.Cell, size)}

	specs := r.method.Specializations()
	coords := make([]int, k)
	for off := 0; off < size; off++ {
		rem := off
		for i := k - 1; i >= 0; i-- {
			coords[i] = rem / strides[i]
			rem %= strides[i]
		}
		joint := r.groups[0][coords[0]].Set.Clone()
		for i := 1; i < k; i++ {
			joint.InPlaceIntersection(r.groups[i][coords[i]].Set)
		}
		var candidates []*method.Specialization
		for i, ok := joint.NextSet(0); ok; i, ok = joint.NextSet(i + 1) {
			candidates = append(candidates, specs[i])
		}
		t.Cells[off] = makeCell(candidates)
	}
	r.table = t
}

func makeCell(candidates []*method.Specialization) *method.Cell {
	if len(candidates) == 0 {
		return &method.Cell{Fault: method.FaultNoApplicable}
	}
	cell := &method.Cell{Chain: OrderChain(candidates)}
	if len(Maximal(candidates)) > 1 {
		cell.Fault = method.FaultAmbiguous
	}
	return cell
}

// Maximal returns the candidates not dominated by any other candidate,
// in registration order.
func Maximal(candidates []*method.Specialization) []*method.Specialization {
	var out []*method.Specialization
	for _, s := range candidates {
		if !dominated(s, candidates) {
			out = append(out, s)
		}
	}
	return out
}

// OrderChain sorts candidates from most to least specific: at each step it
// takes the earliest registered candidate that no remaining candidate
// dominates.
func OrderChain(candidates []*method.Specialization) []*method.Specialization {
	remaining := append([]*method.Specialization(nil), candidates...)
	chain := make([]*method.Specialization, 0, len(candidates))
	for len(remaining) > 0 {
		pick := 0
		for i, s := range remaining {
			if !dominated(s, remaining) {
				pick = i
				break
			}
		}
		chain = append(chain, remaining[pick])
		remaining = append(remaining[:pick], remaining[pick+1:]...)
	}
	return chain
}

func dominated(s *method.Specialization, among []*method.Specialization) bool {
	for _, o := range among {
		if o != s && o.Dominates(s) {
			return true
		}
	}
	return false
}
