package lattice

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// diamondLattice builds X <- A <- {B, C, D}, BC <- {B, C}, CD <- {C, D},
// Y <- X, registered in that order.
func diamondLattice(t *testing.T) (*Lattice, map[string]*Class) {
	t.Helper()
	l := New()
	c := make(map[string]*Class)
	c["X"] = mustAdd(t, l, "X")
	c["A"] = mustAdd(t, l, "A", c["X"])
	c["B"] = mustAdd(t, l, "B", c["A"])
	c["C"] = mustAdd(t, l, "C", c["A"])
	c["D"] = mustAdd(t, l, "D", c["A"])
	c["BC"] = mustAdd(t, l, "BC", c["B"], c["C"])
	c["CD"] = mustAdd(t, l, "CD", c["C"], c["D"])
	c["Y"] = mustAdd(t, l, "Y", c["X"])
	return l, c
}

func names(classes []*Class) []string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = c.Name()
	}
	return out
}

func TestCollectClasses(t *testing.T) {
	_, c := diamondLattice(t)
	h := NewHierarchy(c["X"])
	if err := h.CollectClasses(); err != nil {
		t.Fatalf("CollectClasses: %v", err)
	}
	want := []string{"X", "A", "B", "C", "BC", "D", "CD", "Y"}
	if diff := cmp.Diff(want, names(h.Nodes)); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestMakeMasks(t *testing.T) {
	_, c := diamondLattice(t)
	h := NewHierarchy(c["X"])
	if err := h.CollectClasses(); err != nil {
		t.Fatalf("CollectClasses: %v", err)
	}
	h.MakeMasks()

	want := map[string]string{
		"X":  "11111111",
		"A":  "01111110",
		"B":  "00010100",
		"C":  "01011000",
		"BC": "00010000",
		"D":  "01100000",
		"CD": "01000000",
		"Y":  "10000000",
	}
	for name, mask := range want {
		if got := FormatMask(c[name].Mask()); got != mask {
			t.Errorf("%s mask = %s, want %s", name, got, mask)
		}
	}
}

func TestCovers(t *testing.T) {
	_, c := diamondLattice(t)
	if _, err := Initialize(c["X"]); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	tests := []struct {
		base, derived string
		want          bool
	}{
		{"X", "CD", true},
		{"A", "A", true},
		{"B", "BC", true},
		{"C", "BC", true},
		{"C", "CD", true},
		{"B", "CD", false},
		{"BC", "B", false},
		{"A", "Y", false},
		{"Y", "Y", true},
	}
	for _, tt := range tests {
		if got := c[tt.base].Covers(c[tt.derived]); got != tt.want {
			t.Errorf("%s.Covers(%s) = %v, want %v", tt.base, tt.derived, got, tt.want)
		}
	}
	if c["A"].StrictlyCovers(c["A"]) {
		t.Error("A should not strictly cover itself")
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	l, c := diamondLattice(t)
	h1, err := Initialize(c["X"])
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	first := make([]string, len(h1.Nodes))
	for i, n := range h1.Nodes {
		first[i] = n.Name() + ":" + FormatMask(n.Mask())
	}
	h2, err := Initialize(c["X"])
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	second := make([]string, len(h2.Nodes))
	for i, n := range h2.Nodes {
		second[i] = n.Name() + ":" + FormatMask(n.Mask())
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("rebuild changed masks (-first +second):\n%s", diff)
	}
	if c["X"].Hierarchy() != h2 {
		t.Error("root should record the latest hierarchy")
	}

	// A class added after initialization is unindexed until the next run.
	z := mustAdd(t, l, "Z", c["CD"])
	if z.Index() != -1 || c["X"].Covers(z) {
		t.Error("new class should not be covered before re-initialization")
	}
	if _, err := Initialize(c["X"]); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !c["D"].Covers(z) || c["B"].Covers(z) {
		t.Errorf("Z coverage wrong after re-initialization")
	}
}
