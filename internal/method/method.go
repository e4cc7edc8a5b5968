// Package method holds multimethods, their specializations and dispatch
// tables, and implements the call path.
package method

import (
	"fmt"

	"github.com/funvibe/multimethods/internal/lattice"
)

// Param is one argument position. Class is nil for ordinary positions.
type Param struct {
	Class *lattice.Class
}

// Virtual reports whether the position takes part in dispatch.
func (p Param) Virtual() bool { return p.Class != nil }

// Hooks connect a multimethod to the extension manager.
type Hooks struct {
	// BeforeCall runs at the start of every dispatched call.
	BeforeCall func() error
	// Changed runs after a specialization is added.
	Changed func(*Multimethod)
}

// Multimethod is a named operation with one or more virtual positions.
type Multimethod struct {
	name     string
	id       int
	params   []Param
	virtuals []int
	specs    []*Specialization
	slots    []int
	table    *Table
	hooks    Hooks
}

// New declares a multimethod. id is its registration index.
func New(name string, id int, params ...Param) (*Multimethod, error) {
	m := &Multimethod{name: name, id: id, params: append([]Param(nil), params...)}
	for i, p := range params {
		if p.Virtual() {
			m.virtuals = append(m.virtuals, i)
		}
	}
	if len(m.virtuals) == 0 {
		return nil, &DispatchError{Method: name, Err: fmt.Errorf("%w: no virtual parameter", ErrSignature)}
	}
	m.slots = make([]int, len(m.virtuals))
	return m, nil
}

func (m *Multimethod) Name() string { return m.name }

func (m *Multimethod) ID() int { return m.id }

// Arity is the total number of arguments.
func (m *Multimethod) Arity() int { return len(m.params) }

func (m *Multimethod) Params() []Param { return m.params }

// VirtualArity is the number of virtual positions.
func (m *Multimethod) VirtualArity() int { return len(m.virtuals) }

// VirtualClass returns the declared class of the i-th virtual position.
func (m *Multimethod) VirtualClass(i int) *lattice.Class {
	return m.params[m.virtuals[i]].Class
}

// Specializations returns the specializations in registration order.
func (m *Multimethod) Specializations() []*Specialization { return m.specs }

// Slot returns the slot assigned to the i-th virtual position.
func (m *Multimethod) Slot(i int) int { return m.slots[i] }

// Slots returns the slots of all virtual positions.
func (m *Multimethod) Slots() []int { return m.slots }

// SetSlot assigns the slot of the i-th virtual position.
func (m *Multimethod) SetSlot(i, slot int) { m.slots[i] = slot }

// Table returns the installed dispatch table, or nil.
func (m *Multimethod) Table() *Table { return m.table }

// Install replaces the dispatch table.
func (m *Multimethod) Install(t *Table) { m.table = t }

// SetHooks attaches the extension manager callbacks.
func (m *Multimethod) SetHooks(h Hooks) { m.hooks = h }

// Add registers a specialization whose required classes, one per virtual
// position, are classes. Each class must be covered by the declared
// class of its position.
func (m *Multimethod) Add(label string, body Body, classes ...*lattice.Class) (*Specialization, error) {
	if body == nil {
		return nil, &DispatchError{Method: m.name, Err: fmt.Errorf("%w: %s has no body", ErrSignature, label)}
	}
	if len(classes) != len(m.virtuals) {
		return nil, &DispatchError{Method: m.name, Err: fmt.Errorf("%w: %s has %d classes, want %d",
			ErrSignature, label, len(classes), len(m.virtuals))}
	}
	for i, c := range classes {
		decl := m.VirtualClass(i)
		if c == nil || !isDescendant(decl, c) {
			return nil, &DispatchError{Method: m.name, Err: fmt.Errorf("%w: %s: %v is not a %s",
				ErrSignature, label, c, decl)}
		}
	}
	s := &Specialization{
		label:   label,
		index:   len(m.specs),
		classes: append([]*lattice.Class(nil), classes...),
		body:    body,
		method:  m,
	}
	m.specs = append(m.specs, s)
	if m.hooks.Changed != nil {
		m.hooks.Changed(m)
	}
	return s, nil
}

// MustAdd is like Add but panics on error.
func (m *Multimethod) MustAdd(label string, body Body, classes ...*lattice.Class) *Specialization {
	s, err := m.Add(label, body, classes...)
	if err != nil {
		panic(err)
	}
	return s
}

// isDescendant walks bases; it is used at registration time only, when
// masks may be stale.
func isDescendant(base, c *lattice.Class) bool {
	if base == c {
		return true
	}
	for _, b := range c.Bases() {
		if isDescendant(base, b) {
			return true
		}
	}
	return false
}

func (m *Multimethod) String() string { return m.name }
