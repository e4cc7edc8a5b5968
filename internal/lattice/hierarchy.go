package lattice

import (
	"github.com/bits-and-blooms/bitset"
)

// Hierarchy computes the node order and masks of one lattice component.
type Hierarchy struct {
	Root  *Class
	Nodes []*Class
}

func NewHierarchy(root *Class) *Hierarchy {
	return &Hierarchy{Root: root}
}

// Initialize collects the classes of root's component, computes their
// masks and records the hierarchy on the root. It may be called again
// after classes are added.
func Initialize(root *Class) (*Hierarchy, error) {
	h := NewHierarchy(root)
	if err := h.CollectClasses(); err != nil {
		return nil, err
	}
	h.MakeMasks()
	root.hierarchy = h
	return h, nil
}

// CollectClasses orders the component so that every base precedes its
// derived classes. The walk is a depth-first preorder along derived edges
// starting at the root, where visiting a class first visits its bases.
// Members not reachable that way (components merged through a later
// multiple-inheritance edge) follow in registration order.
func (h *Hierarchy) CollectClasses() error {
	h.Nodes = h.Nodes[:0]
	placed := make(map[*Class]bool)
	onPath := make(map[*Class]bool)
	walked := make(map[*Class]bool)

	var place func(c *Class) error
	place = func(c *Class) error {
		if placed[c] {
			return nil
		}
		if onPath[c] {
			return &InvariantError{Class: c.name, Err: ErrCycle}
		}
		onPath[c] = true
		for _, b := range c.bases {
			if err := place(b); err != nil {
				return err
			}
		}
		onPath[c] = false
		placed[c] = true
		h.Nodes = append(h.Nodes, c)
		return nil
	}

	var walk func(c *Class) error
	walk = func(c *Class) error {
		if walked[c] {
			return nil
		}
		walked[c] = true
		if err := place(c); err != nil {
			return err
		}
		for _, d := range c.derived {
			if err := walk(d); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(h.Root); err != nil {
		return err
	}
	for _, c := range h.Root.lattice.Members(h.Root) {
		if err := walk(c); err != nil {
			return err
		}
	}
	return nil
}

// MakeMasks assigns node indices and computes every node's
// descendant-or-self mask in reverse topological order.
func (h *Hierarchy) MakeMasks() {
	n := uint(len(h.Nodes))
	for i, c := range h.Nodes {
		c.index = i
	}
	for i := len(h.Nodes) - 1; i >= 0; i-- {
		c := h.Nodes[i]
		mask := bitset.New(n)
		mask.Set(uint(i))
		for _, d := range c.derived {
			mask.InPlaceUnion(d.mask)
		}
		c.mask = mask
	}
}

// Covered returns the nodes covered by c, in node order.
func (h *Hierarchy) Covered(c *Class) []*Class {
	var out []*Class
	for _, n := range h.Nodes {
		if c.Covers(n) {
			out = append(out, n)
		}
	}
	return out
}
