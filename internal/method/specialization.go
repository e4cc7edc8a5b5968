package method

import (
	"strings"

	"github.com/funvibe/multimethods/internal/lattice"
)

// Body is the implementation of a specialization. args are the original
// call arguments; c gives access to the next method.
type Body func(c *Call, args ...any) (any, error)

// Specialization is one implementation of a multimethod.
type Specialization struct {
	label   string
	index   int
	classes []*lattice.Class
	body    Body
	method  *Multimethod
}

func (s *Specialization) Label() string { return s.label }

// Index is the registration index within the multimethod.
func (s *Specialization) Index() int { return s.index }

// Classes returns the required class of each virtual position.
func (s *Specialization) Classes() []*lattice.Class { return s.classes }

func (s *Specialization) Method() *Multimethod { return s.method }

// AppliesTo reports whether the specialization accepts c at virtual
// position pos.
func (s *Specialization) AppliesTo(pos int, c *lattice.Class) bool {
	return s.classes[pos].Covers(c)
}

// Dominates reports whether s is more specific than o: at every virtual
// position s requires o's class or a descendant of it, and at one
// position at least a strict descendant.
func (s *Specialization) Dominates(o *Specialization) bool {
	strict := false
	for i, c := range s.classes {
		oc := o.classes[i]
		if !oc.Covers(c) {
			return false
		}
		if oc != c {
			strict = true
		}
	}
	return strict
}

func (s *Specialization) String() string {
	names := make([]string, len(s.classes))
	for i, c := range s.classes {
		names[i] = c.Name()
	}
	return s.method.name + "(" + strings.Join(names, ", ") + ")"
}
