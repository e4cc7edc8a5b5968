// Package extension tracks which parts of the dispatch state are stale
// after registrations and rebuilds them.
package extension

import (
	"log/slog"
	"sort"
	"time"

	"github.com/funvibe/multimethods/internal/lattice"
	"github.com/funvibe/multimethods/internal/method"
	"github.com/funvibe/multimethods/internal/pipeline"
)

// State of the dispatch tables.
type State int

const (
	Clean State = iota
	Dirty
)

func (s State) String() string {
	if s == Clean {
		return "clean"
	}
	return "dirty"
}

// Manager is the clean/dirty state machine. It is not safe for concurrent
// use; registration and rebuild must not overlap with calls.
type Manager struct {
	lattice     *lattice.Lattice
	methods     []*method.Multimethod
	roots       map[*lattice.Class]bool
	dirty       map[*method.Multimethod]bool
	state       State
	autoRebuild bool
	builds      int
	logger      *slog.Logger
	pipeline    *pipeline.Pipeline
}

func New(l *lattice.Lattice, logger *slog.Logger, autoRebuild bool) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		lattice:     l,
		roots:       make(map[*lattice.Class]bool),
		dirty:       make(map[*method.Multimethod]bool),
		autoRebuild: autoRebuild,
		logger:      logger.With(slog.String("component", "extension")),
	}
	m.pipeline = pipeline.New(HierarchyStage{}, SlotStage{}, ResolveStage{}).
		Observe(func(stage string, ctx *pipeline.PipelineContext) {
			if ctx.Err != nil {
				m.logger.Error("rebuild stage failed", slog.String("stage", stage), slog.String("error", ctx.Err.Error()))
			}
		})
	return m
}

func (m *Manager) State() State { return m.state }

// Builds counts completed rebuilds that had work to do.
func (m *Manager) Builds() int { return m.builds }

// Methods returns the registered multimethods in registration order.
func (m *Manager) Methods() []*method.Multimethod { return m.methods }

// ClassAdded marks the component of c dirty.
func (m *Manager) ClassAdded(c *lattice.Class) {
	m.roots[c.Root()] = true
	m.state = Dirty
}

// MethodDefined tracks a new multimethod and marks the components of its
// virtual positions dirty.
func (m *Manager) MethodDefined(mm *method.Multimethod) {
	m.methods = append(m.methods, mm)
	for i := 0; i < mm.VirtualArity(); i++ {
		m.roots[mm.VirtualClass(i).Root()] = true
	}
	m.dirty[mm] = true
	m.state = Dirty

	hooks := method.Hooks{Changed: m.SpecializationAdded}
	if m.autoRebuild {
		hooks.BeforeCall = m.EnsureClean
	}
	mm.SetHooks(hooks)
}

// SpecializationAdded marks mm dirty.
func (m *Manager) SpecializationAdded(mm *method.Multimethod) {
	m.dirty[mm] = true
	m.state = Dirty
}

// EnsureClean rebuilds if anything is dirty.
func (m *Manager) EnsureClean() error {
	if m.state == Clean {
		return nil
	}
	return m.Rebuild()
}

// Rebuild re-initializes dirty components, reallocates their slots and
// re-resolves every affected multimethod. Calling it when clean is a no-op.
func (m *Manager) Rebuild() error {
	if m.state == Clean {
		return nil
	}
	start := time.Now()

	ctx := pipeline.NewContext(m.lattice, m.methods)
	ctx.Roots = m.dirtyRoots()
	for mm := range m.dirty {
		ctx.Dirty[mm] = true
	}
	ctx = m.pipeline.Run(ctx)
	if ctx.Err != nil {
		return ctx.Err
	}

	names := make([]string, len(ctx.Resolved))
	for i, mm := range ctx.Resolved {
		names[i] = mm.Name()
	}
	rootNames := make([]string, len(ctx.Roots))
	for i, r := range ctx.Roots {
		rootNames[i] = r.Name()
	}
	m.logger.Debug("dispatch tables rebuilt",
		slog.Any("roots", rootNames),
		slog.Any("methods", names),
		slog.Duration("duration", time.Since(start)),
	)

	m.roots = make(map[*lattice.Class]bool)
	m.dirty = make(map[*method.Multimethod]bool)
	m.state = Clean
	m.builds++
	return nil
}

// dirtyRoots maps dirty roots to their current root, since components may
// have been merged, and orders them by registration.
func (m *Manager) dirtyRoots() []*lattice.Class {
	seen := make(map[*lattice.Class]bool)
	var roots []*lattice.Class
	for r := range m.roots {
		cur := r.Root()
		if !seen[cur] {
			seen[cur] = true
			roots = append(roots, cur)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].ID() < roots[j].ID() })
	return roots
}
