package autobind

import (
	"reflect"

	"go.uber.org/zap"
)

// ConfigurationAction refines a registration produced by a builder.
type ConfigurationAction func(r Registration)

// ConfigurationActionWithType refines a registration and receives the
// implementation type it was created for.
type ConfigurationActionWithType func(r Registration, implementation *Descriptor)

// Binding pairs a produced registration with its implementation type.
type Binding struct {
	Registration   Registration
	Implementation *Descriptor
}

// Builder is one convention configuration session. It collects candidate
// types, narrows them, runs generators over a snapshot of the narrowed set
// and applies configuration to the registrations produced so far.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	log *zap.Logger

	seed       []*Descriptor
	predicates []func(*Descriptor) bool
	included   []*Descriptor
	excluded   map[string]bool
	nonPublic  bool

	bindings []Binding
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used to trace binding passes.
func WithLogger(log *zap.Logger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// NewBuilder creates an empty session.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		log:      zap.NewNop(),
		excluded: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SelectAllTypesFrom seeds the candidate set with every type declared in the
// given modules. Repeated calls extend the seed.
func (b *Builder) SelectAllTypesFrom(modules ...Module) *Builder {
	for _, m := range modules {
		if m == nil {
			continue
		}
		b.seed = append(b.seed, m.Types()...)
	}
	b.seed = unique(b.seed)
	return b
}

// Where narrows the candidate set to types satisfying pred. Predicates of
// repeated calls are combined with AND.
func (b *Builder) Where(pred func(*Descriptor) bool) *Builder {
	if pred != nil {
		b.predicates = append(b.predicates, pred)
	}
	return b
}

// Including adds types to the candidate set regardless of predicates and
// visibility.
func (b *Builder) Including(types ...*Descriptor) *Builder {
	b.included = unique(append(b.included, types...))
	return b
}

// Excluding removes types from the candidate set, even when they were
// explicitly included.
func (b *Builder) Excluding(types ...*Descriptor) *Builder {
	for _, t := range types {
		if t != nil {
			b.excluded[t.Key()] = true
		}
	}
	return b
}

// IncludingNonPublicTypes widens the seed to unexported types.
func (b *Builder) IncludingNonPublicTypes() *Builder {
	b.nonPublic = true
	return b
}

// Candidates returns a snapshot of the narrowed candidate set: seed types
// passing visibility and every predicate, then explicitly included types,
// minus excluded types.
func (b *Builder) Candidates() []*Descriptor {
	var out []*Descriptor
	for _, t := range b.seed {
		if !b.nonPublic && !t.Exported {
			continue
		}
		if !b.matches(t) {
			continue
		}
		out = append(out, t)
	}
	out = append(out, b.included...)

	result := make([]*Descriptor, 0, len(out))
	for _, t := range unique(out) {
		if !b.excluded[t.Key()] {
			result = append(result, t)
		}
	}
	return result
}

func (b *Builder) matches(t *Descriptor) bool {
	for _, pred := range b.predicates {
		if !pred(t) {
			return false
		}
	}
	return true
}

// BindWith runs g over every candidate and records the registrations into
// root. It may be called repeatedly; results accumulate. When g fails for a
// type the pass stops and the error is returned, keeping the registrations
// produced before it.
func (b *Builder) BindWith(g Generator, root BindingRoot) error {
	if g == nil {
		return ErrNilGenerator
	}
	if root == nil {
		return ErrNilBindingRoot
	}

	candidates := b.Candidates()
	produced := 0
	for _, t := range candidates {
		regs, err := g.CreateBindings(t, root)
		if err != nil {
			return err
		}
		for _, r := range regs {
			b.bindings = append(b.bindings, Binding{Registration: r, Implementation: t})
		}
		produced += len(regs)
	}

	b.log.Debug("convention pass complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("registrations", produced))
	return nil
}

// Bindings returns the registrations produced so far, in creation order.
func (b *Builder) Bindings() []Binding {
	out := make([]Binding, len(b.bindings))
	copy(out, b.bindings)
	return out
}

// Configure applies action once to every registration produced so far.
func (b *Builder) Configure(action ConfigurationAction) error {
	if action == nil {
		return ErrNilAction
	}
	return b.ConfigureWithType(func(r Registration, _ *Descriptor) { action(r) })
}

// ConfigureWithType applies action to every registration produced so far,
// passing the implementation type of each.
func (b *Builder) ConfigureWithType(action ConfigurationActionWithType) error {
	if action == nil {
		return ErrNilAction
	}
	for _, binding := range b.bindings {
		action(binding.Registration, binding.Implementation)
	}
	return nil
}

// ConfigureFor applies action to the registrations whose implementation is t.
func (b *Builder) ConfigureFor(t *Descriptor, action ConfigurationAction) error {
	if action == nil {
		return ErrNilAction
	}
	if t == nil {
		return ErrNilType
	}
	for _, binding := range b.bindings {
		if binding.Implementation.Key() == t.Key() {
			action(binding.Registration)
		}
	}
	return nil
}

// ConfigureFor applies action to the registrations of b whose implementation
// is T. Pointer types resolve to their element.
//
//	autobind.ConfigureFor[Repository](b, func(r autobind.Registration) {
//		r.InScope(autobind.ScopeSingleton)
//	})
func ConfigureFor[T any](b *Builder, action ConfigurationAction) error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return b.ConfigureFor(&Descriptor{PkgPath: t.PkgPath(), Name: t.Name()}, action)
}
