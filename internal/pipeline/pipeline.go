// Package pipeline runs the stages of a dispatch rebuild in order.
package pipeline

import (
	"github.com/funvibe/multimethods/internal/lattice"
	"github.com/funvibe/multimethods/internal/method"
	"github.com/funvibe/multimethods/internal/slots"
)

// Processor is one stage of a rebuild.
type Processor interface {
	Name() string
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext carries the rebuild inputs and what each stage produced.
type PipelineContext struct {
	Lattice *lattice.Lattice
	// Methods is every registered multimethod in registration order.
	Methods []*method.Multimethod
	// Roots are the components to re-initialize, in registration order.
	Roots []*lattice.Class
	// Dirty are the multimethods to re-resolve. Stages may add to it.
	Dirty map[*method.Multimethod]bool

	Hierarchies map[*lattice.Class]*lattice.Hierarchy
	Allocations map[*lattice.Class]*slots.Allocation
	Resolved    []*method.Multimethod

	Err error
}

func NewContext(l *lattice.Lattice, methods []*method.Multimethod) *PipelineContext {
	return &PipelineContext{
		Lattice:     l,
		Methods:     methods,
		Dirty:       make(map[*method.Multimethod]bool),
		Hierarchies: make(map[*lattice.Class]*lattice.Hierarchy),
		Allocations: make(map[*lattice.Class]*slots.Allocation),
	}
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
	observe    func(stage string, ctx *PipelineContext)
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Observe registers a callback run after every stage.
func (p *Pipeline) Observe(fn func(stage string, ctx *PipelineContext)) *Pipeline {
	p.observe = fn
	return p
}

// Run executes the pipeline. A stage that sets Err stops the run; later
// stages depend on the artifacts of earlier ones.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		if p.observe != nil {
			p.observe(processor.Name(), ctx)
		}
		if ctx.Err != nil {
			break
		}
	}
	return ctx
}
