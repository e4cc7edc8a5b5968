// Package report captures the derived dispatch state of a registry and
// renders it for people (tables) and tools (YAML).
package report

import (
	"github.com/funvibe/multimethods/internal/lattice"
	"github.com/funvibe/multimethods/internal/method"
)

// Snapshot is the derived state of a registry at one point in time.
type Snapshot struct {
	Registry   string      `yaml:"registry"`
	Components []Component `yaml:"components"`
	Methods    []Method    `yaml:"methods"`
}

type Component struct {
	Root  string `yaml:"root"`
	Nodes []Node `yaml:"nodes"`
}

type Node struct {
	Class string   `yaml:"class"`
	Bases []string `yaml:"bases,omitempty,flow"`
	Mask  string   `yaml:"mask"`
	Slots []int    `yaml:"slots,flow"`
}

type Method struct {
	Name            string           `yaml:"name"`
	Params          []string         `yaml:"params,flow"`
	Specializations []Specialization `yaml:"specializations"`
	Positions       []Position       `yaml:"positions"`
	Strides         []int            `yaml:"strides,flow"`
	Cells           []Cell           `yaml:"cells"`
}

type Specialization struct {
	Label   string   `yaml:"label"`
	Classes []string `yaml:"classes,flow"`
}

type Position struct {
	Class  string  `yaml:"class"`
	Slot   int     `yaml:"slot"`
	Groups []Group `yaml:"groups"`
}

type Group struct {
	Index      int      `yaml:"index"`
	Classes    []string `yaml:"classes,flow"`
	Applicable []string `yaml:"applicable,flow"`
}

// Cell is one dispatch table entry. Groups names the first class of each
// coordinate's group.
type Cell struct {
	Coords []int    `yaml:"coords,flow"`
	Groups []string `yaml:"groups,flow"`
	Winner string   `yaml:"winner,omitempty"`
	Fault  string   `yaml:"fault,omitempty"`
	Chain  []string `yaml:"chain,omitempty,flow"`
}

// Build captures the initialized components of l and the installed tables
// of methods.
func Build(id string, l *lattice.Lattice, methods []*method.Multimethod) *Snapshot {
	s := &Snapshot{Registry: id}
	for _, root := range l.Roots() {
		h := root.Hierarchy()
		if h == nil {
			continue
		}
		comp := Component{Root: root.Name()}
		for _, c := range h.Nodes {
			comp.Nodes = append(comp.Nodes, Node{
				Class: c.Name(),
				Bases: classNames(c.Bases()),
				Mask:  lattice.FormatMask(c.Mask()),
				Slots: append([]int{}, c.SlotTable()...),
			})
		}
		s.Components = append(s.Components, comp)
	}
	for _, m := range methods {
		s.Methods = append(s.Methods, buildMethod(m))
	}
	return s
}

func buildMethod(m *method.Multimethod) Method {
	out := Method{Name: m.Name()}
	for _, p := range m.Params() {
		if p.Virtual() {
			out.Params = append(out.Params, p.Class.Name())
		} else {
			out.Params = append(out.Params, "_")
		}
	}
	for _, s := range m.Specializations() {
		out.Specializations = append(out.Specializations, Specialization{
			Label:   s.Label(),
			Classes: classNames(s.Classes()),
		})
	}
	t := m.Table()
	if t == nil {
		return out
	}
	for i, groups := range t.Groups {
		pos := Position{Class: m.VirtualClass(i).Name(), Slot: m.Slot(i)}
		for _, g := range groups {
			pos.Groups = append(pos.Groups, Group{
				Index:      g.Index,
				Classes:    classNames(g.Classes),
				Applicable: Labels(g.Applicable),
			})
		}
		out.Positions = append(out.Positions, pos)
	}
	out.Strides = append([]int{}, t.Strides...)
	for off, cell := range t.Cells {
		coords := t.Coords(off)
		c := Cell{Coords: coords, Chain: Labels(cell.Chain)}
		for i, g := range coords {
			c.Groups = append(c.Groups, t.Groups[i][g].Classes[0].Name())
		}
		if w := cell.Winner(); w != nil {
			c.Winner = w.Label()
		} else {
			c.Fault = cell.Fault.String()
		}
		out.Cells = append(out.Cells, c)
	}
	return out
}

// Labels returns the labels of specs in order.
func Labels(specs []*method.Specialization) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Label()
	}
	return out
}

func classNames(cs []*lattice.Class) []string {
	if len(cs) == 0 {
		return nil
	}
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name()
	}
	return out
}
