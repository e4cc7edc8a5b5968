package lattice

import (
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Class is a node of a class lattice.
//
// Bases are ordered and deduplicated: a base shared by several derivation
// paths (a "virtual" base) is a single node. Everything below the bases and
// derived lists is derived state, owned by the hierarchy initializer and the
// slot allocator, and is rebuilt wholesale.
type Class struct {
	name    string
	id      int
	lattice *Lattice
	bases   []*Class
	derived []*Class
	root    *Class

	// Derived state.
	index     int
	mask      *bitset.BitSet
	hierarchy *Hierarchy
	table     []int
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// ID returns the registration index of the class within its lattice.
func (c *Class) ID() int { return c.id }

// Lattice returns the lattice the class was registered with.
func (c *Class) Lattice() *Lattice { return c.lattice }

// Bases returns the direct bases in declaration order.
func (c *Class) Bases() []*Class { return c.bases }

// Derived returns the direct derived classes in registration order.
func (c *Class) Derived() []*Class { return c.derived }

// Root returns the root of the class's connected lattice component.
func (c *Class) Root() *Class { return c.root }

// IsRoot reports whether c is the root of its component.
func (c *Class) IsRoot() bool { return c.root == c }

// Index returns the position of the class in its root's node order,
// or -1 if the component has not been initialized since the class was added.
func (c *Class) Index() int { return c.index }

// Mask returns the descendant-or-self set of the class within its
// component. Nil until the component is initialized.
func (c *Class) Mask() *bitset.BitSet { return c.mask }

// Hierarchy returns the last hierarchy built for this class as a root.
func (c *Class) Hierarchy() *Hierarchy { return c.hierarchy }

// Covers reports whether other is c or one of its transitive derived
// classes. It is a single mask test.
func (c *Class) Covers(other *Class) bool {
	if other == nil || c.mask == nil || other.index < 0 || c.root != other.root {
		return false
	}
	return c.mask.Test(uint(other.index))
}

// StrictlyCovers reports whether other is a proper descendant of c.
func (c *Class) StrictlyCovers(other *Class) bool {
	return c != other && c.Covers(other)
}

// Slot returns the group index stored at slot i of the class slot table.
func (c *Class) Slot(i int) int { return c.table[i] }

// SlotTable returns the slot table. Callers must not modify it.
func (c *Class) SlotTable() []int { return c.table }

// SetSlot stores a group index at slot i.
func (c *Class) SetSlot(i, group int) { c.table[i] = group }

// ResetSlotTable replaces the slot table with a zeroed table of width n.
func (c *Class) ResetSlotTable(n int) { c.table = make([]int, n) }

func (c *Class) String() string { return c.name }

// FormatMask renders a mask as a bit string, most significant bit first,
// padded to the mask width.
func FormatMask(b *bitset.BitSet) string {
	if b == nil {
		return ""
	}
	n := int(b.Len())
	var sb strings.Builder
	sb.Grow(n)
	for i := n - 1; i >= 0; i-- {
		if b.Test(uint(i)) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
