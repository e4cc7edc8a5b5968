// Package multimethods implements open multiple dispatch over a class
// lattice with multiple and shared bases.
//
// A Registry owns classes, multimethods and their dispatch tables:
//
//	reg := multimethods.NewRegistry()
//	animal := reg.MustClass("Animal")
//	cow := reg.MustClass("Cow", animal)
//	encounter := reg.MustDefine("encounter", multimethods.Virtual(animal), multimethods.Virtual(animal))
//	encounter.MustAdd("ignore", ignore, animal, animal)
//	reg.Initialize()
//	res, err := encounter.Call(multimethods.NewSelector(cow), multimethods.NewSelector(cow))
//
// Registration and rebuild are single-threaded. Once Initialize returns,
// calls only read the tables and may run concurrently, provided nothing
// is registered until they stop.
package multimethods

import (
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/funvibe/multimethods/internal/config"
	"github.com/funvibe/multimethods/internal/extension"
	"github.com/funvibe/multimethods/internal/lattice"
	"github.com/funvibe/multimethods/internal/method"
	"github.com/funvibe/multimethods/internal/report"
)

type (
	Class          = lattice.Class
	Multimethod    = method.Multimethod
	Specialization = method.Specialization
	Call           = method.Call
	Body           = method.Body
	Instance       = method.Instance
	DispatchError  = method.DispatchError
	InvariantError = lattice.InvariantError
	State          = extension.State
	Snapshot       = report.Snapshot
)

const (
	Clean = extension.Clean
	Dirty = extension.Dirty
)

var (
	ErrNoApplicableMethod = method.ErrNoApplicableMethod
	ErrAmbiguousCall      = method.ErrAmbiguousCall
	ErrNextExhausted      = method.ErrNextExhausted
	ErrArity              = method.ErrArity
	ErrNotInstance        = method.ErrNotInstance
	ErrArgumentClass      = method.ErrArgumentClass
	ErrSignature          = method.ErrSignature
	ErrNotInitialized     = method.ErrNotInitialized
	ErrDuplicateClass     = lattice.ErrDuplicateClass
	ErrDuplicateBase      = lattice.ErrDuplicateBase
	ErrForeignClass       = lattice.ErrForeignClass
	ErrNilBase            = lattice.ErrNilBase
	ErrCycle              = lattice.ErrCycle
)

// Registry is the dispatch context: the class lattice, the multimethods
// and the extension manager that keeps their tables current.
type Registry struct {
	id      uuid.UUID
	lattice *lattice.Lattice
	manager *extension.Manager
	methods map[string]*Multimethod
	logger  *slog.Logger
	options *config.Options
	// auto overrides options.AutoRebuild when set.
	auto *bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithConfig applies options loaded from mmdispatch.yaml. A nil config
// keeps the defaults.
func WithConfig(o *config.Options) Option {
	return func(r *Registry) {
		if o != nil {
			r.options = o
		}
	}
}

// WithAutoRebuild controls whether a call on stale tables rebuilds them.
// It takes precedence over WithConfig in any order.
func WithAutoRebuild(auto bool) Option {
	return func(r *Registry) { r.auto = &auto }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		id:      uuid.New(),
		lattice: lattice.New(),
		methods: make(map[string]*Multimethod),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		options: config.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("registry", r.id.String()))
	rebuild := r.options.Rebuild()
	if r.auto != nil {
		rebuild = *r.auto
	}
	r.manager = extension.New(r.lattice, r.logger, rebuild)
	return r
}

// ID identifies the registry in logs and snapshots.
func (r *Registry) ID() uuid.UUID { return r.id }

// Class registers a class deriving from bases.
func (r *Registry) Class(name string, bases ...*Class) (*Class, error) {
	c, err := r.lattice.AddClass(name, bases...)
	if err != nil {
		return nil, err
	}
	r.manager.ClassAdded(c)
	r.logger.Debug("class registered", slog.String("class", name), slog.String("root", c.Root().Name()))
	return c, nil
}

// MustClass is like Class but panics on error.
func (r *Registry) MustClass(name string, bases ...*Class) *Class {
	c, err := r.Class(name, bases...)
	if err != nil {
		panic(err)
	}
	return c
}

// LookupClass finds a class by name.
func (r *Registry) LookupClass(name string) (*Class, bool) {
	return r.lattice.Lookup(name)
}

// Classes returns every class in registration order.
func (r *Registry) Classes() []*Class { return r.lattice.Classes() }

// Initialize rebuilds whatever registrations made stale. It is idempotent
// and must be called before dispatching when auto rebuild is off.
func (r *Registry) Initialize() error {
	return r.manager.Rebuild()
}

// State reports whether the tables are current.
func (r *Registry) State() State { return r.manager.State() }

// Snapshot captures the derived dispatch state. It initializes first.
func (r *Registry) Snapshot() (*Snapshot, error) {
	if err := r.Initialize(); err != nil {
		return nil, err
	}
	return report.Build(r.id.String(), r.lattice, r.manager.Methods()), nil
}
