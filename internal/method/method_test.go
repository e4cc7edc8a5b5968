package method

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/funvibe/multimethods/internal/lattice"
)

type classes struct {
	animal, herbivore, cow, carnivore, wolf *lattice.Class
}

func animals(t *testing.T) classes {
	t.Helper()
	l := lattice.New()
	add := func(name string, bases ...*lattice.Class) *lattice.Class {
		c, err := l.AddClass(name, bases...)
		if err != nil {
			t.Fatalf("AddClass(%s): %v", name, err)
		}
		return c
	}
	var c classes
	c.animal = add("Animal")
	c.herbivore = add("Herbivore", c.animal)
	c.cow = add("Cow", c.herbivore)
	c.carnivore = add("Carnivore", c.animal)
	c.wolf = add("Wolf", c.carnivore)
	if _, err := lattice.Initialize(c.animal); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return c
}

func noop(*Call, ...any) (any, error) { return nil, nil }

func TestNew(t *testing.T) {
	c := animals(t)
	m, err := New("feed", 0, Param{}, Param{Class: c.herbivore}, Param{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Arity() != 3 || m.VirtualArity() != 1 || m.VirtualClass(0) != c.herbivore {
		t.Errorf("feed has arity %d, %d virtual, class %s", m.Arity(), m.VirtualArity(), m.VirtualClass(0))
	}
	if _, err := New("nothing", 1, Param{}); !errors.Is(err, ErrSignature) {
		t.Errorf("err = %v, want invalid signature", err)
	}
}

func TestDominates(t *testing.T) {
	c := animals(t)
	m, err := New("encounter", 0, Param{Class: c.animal}, Param{Class: c.animal})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ignore := m.MustAdd("ignore", noop, c.animal, c.animal)
	hunt := m.MustAdd("hunt", noop, c.carnivore, c.animal)
	fight := m.MustAdd("fight", noop, c.carnivore, c.carnivore)
	run := m.MustAdd("run", noop, c.herbivore, c.carnivore)
	again := m.MustAdd("ignore again", noop, c.animal, c.animal)

	tests := []struct {
		a, b *Specialization
		want bool
	}{
		{hunt, ignore, true},
		{fight, hunt, true},
		{fight, ignore, true},
		{run, ignore, true},
		{ignore, hunt, false},
		{run, hunt, false},
		{hunt, run, false},
		{ignore, again, false},
		{again, ignore, false},
	}
	for _, tt := range tests {
		if got := tt.a.Dominates(tt.b); got != tt.want {
			t.Errorf("%s dominates %s = %v, want %v", tt.a.Label(), tt.b.Label(), got, tt.want)
		}
	}

	if !run.AppliesTo(0, c.cow) || run.AppliesTo(1, c.cow) {
		t.Error("run applies to Herbivore descendants first and Carnivore descendants second")
	}
	if got := fight.String(); got != "encounter(Carnivore, Carnivore)" {
		t.Errorf("String = %q", got)
	}
}

func TestAddNotifies(t *testing.T) {
	c := animals(t)
	m, err := New("m", 0, Param{Class: c.animal})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	changed := 0
	m.SetHooks(Hooks{Changed: func(*Multimethod) { changed++ }})
	m.MustAdd("a", noop, c.cow)
	if _, err := m.Add("b", noop, c.animal, c.animal); err == nil {
		t.Error("expected an arity error")
	}
	if changed != 1 {
		t.Errorf("Changed ran %d times, want 1", changed)
	}
	if got := m.Specializations()[0].Index(); got != 0 {
		t.Errorf("index = %d", got)
	}
}

func TestTableCoords(t *testing.T) {
	tbl := &Table{Strides: []int{1, 3, 12}, Cells: make([]*Cell, 24)}
	for off := range tbl.Cells {
		coords := tbl.Coords(off)
		if got := tbl.Offset(coords...); got != off {
			t.Errorf("Offset(Coords(%d)) = %d", off, got)
		}
	}
	if diff := cmp.Diff([]int{2, 1, 1}, tbl.Coords(2+3+12)); diff != "" {
		t.Errorf("coords mismatch (-want +got):\n%s", diff)
	}
}

func TestFault(t *testing.T) {
	if !errors.Is(FaultAmbiguous.Err(), ErrAmbiguousCall) || !errors.Is(FaultNoApplicable.Err(), ErrNoApplicableMethod) {
		t.Error("faults map to their sentinel errors")
	}
	if FaultNone.Err() != nil {
		t.Error("FaultNone has no error")
	}
	cell := &Cell{Fault: FaultAmbiguous}
	if cell.Winner() != nil {
		t.Error("a fault cell has no winner")
	}
}

func TestLookupBeforeResolve(t *testing.T) {
	c := animals(t)
	m, err := New("m", 0, Param{Class: c.animal})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m.MustAdd("a", noop, c.animal)
	_, err = m.Call(nil)
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("err = %v, want not initialized", err)
	}
	var de *DispatchError
	if !errors.As(err, &de) || de.Method != "m" {
		t.Errorf("err = %#v, want a DispatchError", err)
	}
}
