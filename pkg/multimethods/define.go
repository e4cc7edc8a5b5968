package multimethods

import (
	"fmt"
	"log/slog"

	"github.com/funvibe/multimethods/internal/method"
)

// Position declares one parameter of a multimethod.
type Position = method.Param

// Virtual declares a parameter dispatched on c and its descendants.
func Virtual(c *Class) Position { return Position{Class: c} }

// Ordinary declares a parameter passed through without dispatch.
func Ordinary() Position { return Position{} }

// Define declares a multimethod. At least one position must be virtual and
// every virtual class must belong to this registry.
func (r *Registry) Define(name string, positions ...Position) (*Multimethod, error) {
	if _, ok := r.methods[name]; ok {
		return nil, &DispatchError{Method: name, Err: fmt.Errorf("%w: already defined", ErrSignature)}
	}
	for i, p := range positions {
		if p.Virtual() && p.Class.Lattice() != r.lattice {
			return nil, &DispatchError{Method: name, Err: fmt.Errorf("%w: parameter %d: %s", ErrForeignClass, i, p.Class)}
		}
	}
	m, err := method.New(name, len(r.manager.Methods()), positions...)
	if err != nil {
		return nil, err
	}
	r.methods[name] = m
	r.manager.MethodDefined(m)
	r.logger.Debug("multimethod defined", slog.String("method", name), slog.Int("arity", m.Arity()))
	return m, nil
}

// MustDefine is like Define but panics on error.
func (r *Registry) MustDefine(name string, positions ...Position) *Multimethod {
	m, err := r.Define(name, positions...)
	if err != nil {
		panic(err)
	}
	return m
}

// Method finds a multimethod by name.
func (r *Registry) Method(name string) (*Multimethod, bool) {
	m, ok := r.methods[name]
	return m, ok
}

// Methods returns the multimethods in definition order.
func (r *Registry) Methods() []*Multimethod { return r.manager.Methods() }
