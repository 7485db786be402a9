// Package digroot adapts a go.uber.org/dig container as a binding root.
//
// Every registration becomes one constructor returning all of its services
// from a single shared instance, so a *Repository, its Repository interface
// and its embedded base struct all resolve to the same object. Descriptors
// must come from a reflect based source such as the reflecttype registry.
package digroot

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/multierr"

	"github.com/iVampireSP/autobind"
)

var (
	// ErrNotReflectType is returned for descriptors without a reflect.Type.
	ErrNotReflectType = errors.New("digroot: descriptor has no reflect.Type")
	// ErrUnsupportedScope is returned for scopes other than singleton.
	ErrUnsupportedScope = errors.New("digroot: unsupported scope")
	// ErrNotImplemented is returned when the implementation does not satisfy a service.
	ErrNotImplemented = errors.New("digroot: implementation does not provide service")
	// ErrNoServices is returned for a registration without services.
	ErrNoServices = errors.New("digroot: registration has no services")
	// ErrNamedGroup is returned for a registration both named and tagged;
	// dig does not provide into a group under a name.
	ErrNamedGroup = errors.New("digroot: registration cannot be both named and tagged")
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Root collects registrations and provides them to a dig container on Flush.
type Root struct {
	c       *dig.Container
	pending []*Binding
}

// New creates a Root over c.
func New(c *dig.Container) *Root {
	return &Root{c: c}
}

var _ autobind.BindingRoot = (*Root)(nil)

// Bind starts a registration for the given services.
func (r *Root) Bind(services ...*autobind.Descriptor) autobind.BindingTo {
	return &bindingTo{root: r, services: services}
}

type bindingTo struct {
	root     *Root
	services []*autobind.Descriptor
}

func (b *bindingTo) To(implementation *autobind.Descriptor) autobind.Registration {
	binding := &Binding{services: b.services, impl: implementation}
	b.root.pending = append(b.root.pending, binding)
	return binding
}

// Pending returns the registrations not yet provided to the container.
func (r *Root) Pending() []*Binding {
	out := make([]*Binding, len(r.pending))
	copy(out, r.pending)
	return out
}

// Flush provides every pending registration to the container. A failing
// registration does not prevent the others; all failures are returned
// together.
func (r *Root) Flush() error {
	var errs error
	for _, b := range r.pending {
		if err := r.provide(b); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("digroot: %s: %w", b.impl.Key(), err))
		}
	}
	r.pending = nil
	return errs
}

func (r *Root) provide(b *Binding) error {
	if b.err != nil {
		return b.err
	}
	if len(b.services) == 0 {
		return ErrNoServices
	}
	implType, ok := b.impl.Ref.(reflect.Type)
	if !ok || implType == nil {
		return ErrNotReflectType
	}

	outs := make([]reflect.Type, 0, len(b.services)+1)
	getters := make([]func(reflect.Value) reflect.Value, 0, len(b.services))
	for _, s := range b.services {
		out, get, err := accessor(implType, b.impl, s)
		if err != nil {
			return err
		}
		outs = append(outs, out)
		getters = append(getters, get)
	}

	hooks := b.activation
	ft := reflect.FuncOf(nil, append(outs, errorType), false)
	ctor := reflect.MakeFunc(ft, func([]reflect.Value) []reflect.Value {
		inst := reflect.New(implType)
		results := make([]reflect.Value, len(outs)+1)

		var err error
		for _, hook := range hooks {
			if err = hook(inst.Interface()); err != nil {
				break
			}
		}
		for i, get := range getters {
			if err != nil {
				results[i] = reflect.Zero(outs[i])
				continue
			}
			results[i] = get(inst)
		}
		if err != nil {
			results[len(outs)] = reflect.ValueOf(&err).Elem()
		} else {
			results[len(outs)] = reflect.Zero(errorType)
		}
		return results
	})

	var opts []dig.ProvideOption
	if b.name != "" {
		opts = append(opts, dig.Name(b.name))
	}
	if b.group != "" {
		opts = append(opts, dig.Group(b.group))
	}
	return r.c.Provide(ctor.Interface(), opts...)
}

// accessor returns the type under which service s is provided and how to
// obtain it from a *T instance.
func accessor(implType reflect.Type, impl, s *autobind.Descriptor) (reflect.Type, func(reflect.Value) reflect.Value, error) {
	if s.Key() == impl.Key() {
		if implType.Kind() == reflect.Struct {
			return reflect.PointerTo(implType), func(inst reflect.Value) reflect.Value { return inst }, nil
		}
		return implType, func(inst reflect.Value) reflect.Value { return inst.Elem() }, nil
	}

	st, ok := s.Ref.(reflect.Type)
	if !ok || st == nil {
		return nil, nil, ErrNotReflectType
	}

	switch st.Kind() {
	case reflect.Interface:
		if reflect.PointerTo(implType).Implements(st) {
			return st, func(inst reflect.Value) reflect.Value { return inst.Convert(st) }, nil
		}
		if implType.Implements(st) {
			return st, func(inst reflect.Value) reflect.Value { return inst.Elem().Convert(st) }, nil
		}
	case reflect.Struct:
		if implType.Kind() != reflect.Struct {
			break
		}
		field, ok := implType.FieldByName(fieldName(st))
		if !ok || !field.Anonymous || !field.IsExported() {
			break
		}
		index := field.Index
		if field.Type.Kind() == reflect.Pointer && field.Type.Elem() == st {
			return field.Type, func(inst reflect.Value) reflect.Value {
				v, err := inst.Elem().FieldByIndexErr(index)
				if err != nil {
					return reflect.Zero(field.Type)
				}
				return v
			}, nil
		}
		if field.Type == st {
			return reflect.PointerTo(st), func(inst reflect.Value) reflect.Value {
				v, err := inst.Elem().FieldByIndexErr(index)
				if err != nil {
					return reflect.Zero(reflect.PointerTo(st))
				}
				return v.Addr()
			}, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrNotImplemented, s.Key())
}

// fieldName is the implicit field name of an embedded type.
func fieldName(t reflect.Type) string {
	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}

// Binding is one registration awaiting Flush.
type Binding struct {
	services   []*autobind.Descriptor
	impl       *autobind.Descriptor
	name       string
	group      string
	metadata   map[string]any
	activation []func(any) error
	err        error
}

var _ autobind.Registration = (*Binding)(nil)

// Named provides every service of the binding under name. A binding that
// is also tagged fails with ErrNamedGroup.
func (b *Binding) Named(name string) autobind.Registration {
	b.name = name
	b.checkNamedGroup()
	return b
}

// InScope accepts only singleton; dig shares one instance per container.
func (b *Binding) InScope(scope autobind.Scope) autobind.Registration {
	if scope != autobind.ScopeSingleton {
		b.err = fmt.Errorf("%w: %s", ErrUnsupportedScope, scope)
	}
	return b
}

// Tagged adds every service of the binding to a dig value group. dig allows
// one group per constructor, so only the last tag is kept. A binding that
// is also named fails with ErrNamedGroup.
func (b *Binding) Tagged(tags ...string) autobind.Registration {
	if len(tags) > 0 {
		b.group = tags[len(tags)-1]
	}
	b.checkNamedGroup()
	return b
}

func (b *Binding) checkNamedGroup() {
	if b.err == nil && b.name != "" && b.group != "" {
		b.err = fmt.Errorf("%w: name %q, group %q", ErrNamedGroup, b.name, b.group)
	}
}

// WithMetadata records a key/value pair. dig has no use for it; it is kept
// for inspection through Metadata.
func (b *Binding) WithMetadata(key string, value any) autobind.Registration {
	if b.metadata == nil {
		b.metadata = make(map[string]any)
	}
	b.metadata[key] = value
	return b
}

// Metadata returns the recorded metadata.
func (b *Binding) Metadata() map[string]any { return b.metadata }

// Implementation returns the implementation type of the binding.
func (b *Binding) Implementation() *autobind.Descriptor { return b.impl }

// OnActivation registers fn to run on every instance the constructor
// creates, before it is handed to dig. A returned error fails the resolution.
func (b *Binding) OnActivation(fn func(instance any) error) *Binding {
	if fn != nil {
		b.activation = append(b.activation, fn)
	}
	return b
}
