// Package lattice holds class descriptors and their base relationships,
// and computes per-component node order and reachability masks.
package lattice

import (
	"errors"
	"fmt"
)

var (
	ErrNilBase        = errors.New("nil base class")
	ErrDuplicateBase  = errors.New("duplicate base class")
	ErrForeignClass   = errors.New("base class belongs to another lattice")
	ErrDuplicateClass = errors.New("class already registered")
	ErrCycle          = errors.New("class lattice contains a cycle")
)

// InvariantError reports a lattice invariant violation detected at
// registration or initialization time.
type InvariantError struct {
	Class string
	Err   error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("class %s: %v", e.Class, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }

// Lattice is the registry of class descriptors.
type Lattice struct {
	classes []*Class
	byName  map[string]*Class
}

func New() *Lattice {
	return &Lattice{byName: make(map[string]*Class)}
}

// AddClass registers a class deriving from bases. The new class joins the
// component of its first base; components of the other bases are merged
// into it and re-rooted. A class without bases is the root of a new
// component.
func (l *Lattice) AddClass(name string, bases ...*Class) (*Class, error) {
	if _, ok := l.byName[name]; ok {
		return nil, &InvariantError{Class: name, Err: ErrDuplicateClass}
	}
	seen := make(map[*Class]bool, len(bases))
	for _, b := range bases {
		if b == nil {
			return nil, &InvariantError{Class: name, Err: ErrNilBase}
		}
		if b.lattice != l {
			return nil, &InvariantError{Class: name, Err: fmt.Errorf("%w: %s", ErrForeignClass, b.name)}
		}
		if seen[b] {
			return nil, &InvariantError{Class: name, Err: fmt.Errorf("%w: %s", ErrDuplicateBase, b.name)}
		}
		seen[b] = true
	}

	c := &Class{
		name:    name,
		id:      len(l.classes),
		lattice: l,
		bases:   append([]*Class(nil), bases...),
		index:   -1,
	}
	c.root = c
	if len(bases) > 0 {
		c.root = bases[0].root
		for _, b := range bases[1:] {
			if b.root != c.root {
				l.reroot(b.root, c.root)
			}
		}
	}
	for _, b := range bases {
		b.derived = append(b.derived, c)
	}

	l.classes = append(l.classes, c)
	l.byName[name] = c
	return c, nil
}

func (l *Lattice) reroot(from, to *Class) {
	for _, c := range l.classes {
		if c.root == from {
			c.root = to
		}
	}
	from.hierarchy = nil
}

// Lookup finds a class by name.
func (l *Lattice) Lookup(name string) (*Class, bool) {
	c, ok := l.byName[name]
	return c, ok
}

// Classes returns every class in registration order.
func (l *Lattice) Classes() []*Class { return l.classes }

// Roots returns the current component roots in registration order.
func (l *Lattice) Roots() []*Class {
	var roots []*Class
	for _, c := range l.classes {
		if c.IsRoot() {
			roots = append(roots, c)
		}
	}
	return roots
}

// Members returns the classes of root's component in registration order.
func (l *Lattice) Members(root *Class) []*Class {
	var members []*Class
	for _, c := range l.classes {
		if c.root == root {
			members = append(members, c)
		}
	}
	return members
}
