package extension

import (
	"fmt"

	"github.com/funvibe/multimethods/internal/lattice"
	"github.com/funvibe/multimethods/internal/method"
	"github.com/funvibe/multimethods/internal/pipeline"
	"github.com/funvibe/multimethods/internal/resolver"
	"github.com/funvibe/multimethods/internal/slots"
)

// HierarchyStage recomputes node order and masks of every dirty root.
type HierarchyStage struct{}

func (HierarchyStage) Name() string { return "hierarchy" }

func (HierarchyStage) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	for _, root := range ctx.Roots {
		h, err := lattice.Initialize(root)
		if err != nil {
			ctx.Err = err
			return ctx
		}
		ctx.Hierarchies[root] = h
	}
	return ctx
}

// SlotStage allocates slots in every re-initialized root and marks every
// multimethod with a position there for re-resolution, since the slot
// tables of the component were reset.
type SlotStage struct{}

func (SlotStage) Name() string { return "slots" }

func (SlotStage) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	type target struct {
		m   *method.Multimethod
		pos int
	}
	for _, root := range ctx.Roots {
		var reqs []*slots.Request
		var targets []target
		for _, m := range ctx.Methods {
			for i := 0; i < m.VirtualArity(); i++ {
				if m.VirtualClass(i).Root() != root {
					continue
				}
				reqs = append(reqs, &slots.Request{
					Class: m.VirtualClass(i),
					Owner: fmt.Sprintf("%s#%d", m.Name(), i),
				})
				targets = append(targets, target{m, i})
			}
		}
		a, err := slots.Allocate(ctx.Hierarchies[root], reqs)
		if err != nil {
			ctx.Err = err
			return ctx
		}
		for i, r := range reqs {
			targets[i].m.SetSlot(targets[i].pos, r.Slot)
			ctx.Dirty[targets[i].m] = true
		}
		ctx.Allocations[root] = a
	}
	return ctx
}

// ResolveStage rebuilds groups and tables of every dirty multimethod, in
// registration order.
type ResolveStage struct{}

func (ResolveStage) Name() string { return "resolve" }

func (ResolveStage) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	for _, m := range ctx.Methods {
		if !ctx.Dirty[m] {
			continue
		}
		if _, err := resolver.Resolve(m); err != nil {
			ctx.Err = err
			return ctx
		}
		ctx.Resolved = append(ctx.Resolved, m)
	}
	return ctx
}
