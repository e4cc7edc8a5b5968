package method

import (
	"fmt"

	"github.com/funvibe/multimethods/internal/lattice"
)

// Instance is implemented by every value passed at a virtual position.
// MMClass returns the dynamic class of the value; its slot table is read
// once per virtual argument on each call.
type Instance interface {
	MMClass() *lattice.Class
}

// Call is the context of one running specialization.
type Call struct {
	method *Multimethod
	chain  []*Specialization
	pos    int
	args   []any
}

func (c *Call) Method() *Multimethod { return c.method }

// Specialization returns the running specialization.
func (c *Call) Specialization() *Specialization { return c.chain[c.pos] }

// Args returns the call arguments.
func (c *Call) Args() []any { return c.args }

// HasNext reports whether Next has a method to invoke.
func (c *Call) HasNext() bool { return c.pos+1 < len(c.chain) }

// Next invokes the next most specific specialization with the original
// arguments.
func (c *Call) Next() (any, error) {
	if !c.HasNext() {
		return nil, &DispatchError{
			Method: c.method.name,
			Err:    fmt.Errorf("%w after %s", ErrNextExhausted, c.Specialization()),
		}
	}
	next := &Call{method: c.method, chain: c.chain, pos: c.pos + 1, args: c.args}
	return next.chain[next.pos].body(next, c.args...)
}

// Call dispatches on the dynamic classes of the virtual arguments and
// invokes the most specific applicable specialization.
func (m *Multimethod) Call(args ...any) (any, error) {
	cell, err := m.Lookup(args...)
	if err != nil {
		return nil, err
	}
	if cell.Fault != FaultNone {
		return nil, m.fault(cell.Fault.Err(), args)
	}
	c := &Call{method: m, chain: cell.Chain, args: args}
	return cell.Chain[0].body(c, args...)
}

// MustCall is like Call but panics on error.
func (m *Multimethod) MustCall(args ...any) any {
	res, err := m.Call(args...)
	if err != nil {
		panic(err)
	}
	return res
}

// Invoke calls s directly, bypassing dispatch. Every virtual argument
// must be covered by the class s requires at its position. Next from
// inside s continues along the chain of the cell the arguments select.
func (m *Multimethod) Invoke(s *Specialization, args ...any) (any, error) {
	if s.method != m {
		return nil, &DispatchError{Method: m.name, Err: fmt.Errorf("%w: %s belongs to %s", ErrSignature, s, s.method)}
	}
	if m.hooks.BeforeCall != nil {
		if err := m.hooks.BeforeCall(); err != nil {
			return nil, err
		}
	}
	if len(args) != len(m.params) {
		return nil, &DispatchError{Method: m.name, Err: fmt.Errorf("%w: got %d, want %d", ErrArity, len(args), len(m.params))}
	}
	for i, p := range m.virtuals {
		inst, ok := args[p].(Instance)
		if !ok || inst.MMClass() == nil {
			return nil, &DispatchError{Method: m.name, Err: fmt.Errorf("%w: argument %d (%T)", ErrNotInstance, p, args[p])}
		}
		if cls := inst.MMClass(); !s.classes[i].Covers(cls) {
			return nil, m.fault(fmt.Errorf("%w: argument %d: %s is not a %s", ErrArgumentClass, p, cls, s.classes[i]), args)
		}
	}
	cell, err := m.Lookup(args...)
	if err != nil {
		return nil, err
	}
	for i, cs := range cell.Chain {
		if cs == s {
			c := &Call{method: m, chain: cell.Chain, pos: i, args: args}
			return s.body(c, args...)
		}
	}
	// Only a table built before s was added can miss it.
	return nil, m.fault(fmt.Errorf("%w: %s was added after the last rebuild", ErrNotInitialized, s), args)
}

// Lookup returns the table cell selected by the arguments. It runs the
// BeforeCall hook first, so a stale table is rebuilt.
func (m *Multimethod) Lookup(args ...any) (*Cell, error) {
	if m.hooks.BeforeCall != nil {
		if err := m.hooks.BeforeCall(); err != nil {
			return nil, err
		}
	}
	if len(args) != len(m.params) {
		return nil, &DispatchError{Method: m.name, Err: fmt.Errorf("%w: got %d, want %d", ErrArity, len(args), len(m.params))}
	}
	t := m.table
	if t == nil {
		return nil, &DispatchError{Method: m.name, Err: ErrNotInitialized}
	}
	off := 0
	for i, p := range m.virtuals {
		inst, ok := args[p].(Instance)
		if !ok || inst.MMClass() == nil {
			return nil, &DispatchError{Method: m.name, Err: fmt.Errorf("%w: argument %d (%T)", ErrNotInstance, p, args[p])}
		}
		cls := inst.MMClass()
		if !m.params[p].Class.Covers(cls) {
			return nil, m.fault(fmt.Errorf("%w: argument %d: %s is not a %s", ErrArgumentClass, p, cls, m.params[p].Class), args)
		}
		off += cls.Slot(m.slots[i]) * t.Strides[i]
	}
	return t.Cells[off], nil
}

func (m *Multimethod) fault(err error, args []any) error {
	classes := make([]string, 0, len(m.virtuals))
	for _, p := range m.virtuals {
		if inst, ok := args[p].(Instance); ok && inst.MMClass() != nil {
			classes = append(classes, inst.MMClass().Name())
		} else {
			classes = append(classes, fmt.Sprintf("%T", args[p]))
		}
	}
	return &DispatchError{Method: m.name, Classes: classes, Err: err}
}
