package multimethods

// Selector gives a host value its dispatch class. Embed it in types passed
// at virtual positions and set it at construction:
//
//	type Cow struct {
//		multimethods.Selector
//		Name string
//	}
//
//	c := &Cow{Selector: multimethods.NewSelector(cowClass)}
//
// The slot table is shared with the class, so rebuilds are visible to
// values constructed earlier.
type Selector struct {
	class *Class
}

func NewSelector(c *Class) Selector {
	return Selector{class: c}
}

// MMClass implements Instance.
func (s Selector) MMClass() *Class { return s.class }

// SlotTable returns the per-instance dispatch slots.
func (s Selector) SlotTable() []int {
	if s.class == nil {
		return nil
	}
	return s.class.SlotTable()
}
