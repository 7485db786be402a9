// Package reflecttype is a metadata registry of runtime types. Types are
// registered explicitly at load time; the registry then serves as the module
// source and the Introspector of a convention session.
package reflecttype

import (
	"errors"
	"go/token"
	"reflect"
	"sort"

	"github.com/iVampireSP/autobind"
)

var (
	// ErrNilType is returned when a nil reflect.Type is registered.
	ErrNilType = errors.New("reflecttype: nil reflect.Type provided")
	// ErrNotNamed is returned for types without a name (after unwrapping pointers).
	ErrNotNamed = errors.New("reflecttype: type is not named")
)

// TypeOf returns the reflect.Type of T. Useful for interface types:
//
//	reg.Register(reflecttype.TypeOf[io.Closer]())
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Registry holds registered types in registration order.
// It is not safe for concurrent use.
type Registry struct {
	order []reflect.Type
	descs map[reflect.Type]*autobind.Descriptor
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{descs: make(map[reflect.Type]*autobind.Descriptor)}
}

// Register adds types to the registry. Pointer types are normalized to their
// element. Registering a type twice is a no-op.
func (r *Registry) Register(types ...reflect.Type) error {
	for _, t := range types {
		if t == nil {
			return ErrNilType
		}
		t = normalize(t)
		if t.Name() == "" {
			return ErrNotNamed
		}
		if _, ok := r.descs[t]; ok {
			continue
		}
		r.descs[t] = describe(t)
		r.order = append(r.order, t)
	}
	return nil
}

// Descriptor returns the descriptor of t, describing unregistered types on
// the fly.
func (r *Registry) Descriptor(t reflect.Type) *autobind.Descriptor {
	if t == nil {
		return nil
	}
	t = normalize(t)
	if d, ok := r.descs[t]; ok {
		return d
	}
	return describe(t)
}

// Types returns the descriptors of every registered type.
func (r *Registry) Types() []*autobind.Descriptor {
	out := make([]*autobind.Descriptor, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.descs[t])
	}
	return out
}

// Modules groups registered types by package path, in order of first
// registration.
func (r *Registry) Modules() []autobind.Module {
	var mods []autobind.Module
	byPath := make(map[string]*module)
	for _, t := range r.order {
		m, ok := byPath[t.PkgPath()]
		if !ok {
			m = &module{path: t.PkgPath()}
			byPath[t.PkgPath()] = m
			mods = append(mods, m)
		}
		m.types = append(m.types, r.descs[t])
	}
	return mods
}

// InterfacesOf returns the registered interfaces implemented by t or *t,
// sorted by key.
func (r *Registry) InterfacesOf(d *autobind.Descriptor) []*autobind.Descriptor {
	t, ok := typeOf(d)
	if !ok {
		return nil
	}
	var out []*autobind.Descriptor
	for _, it := range r.order {
		if it.Kind() != reflect.Interface || it == t {
			continue
		}
		if t.Implements(it) || (t.Kind() != reflect.Interface && reflect.PointerTo(t).Implements(it)) {
			out = append(out, r.descs[it])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// BaseChainOf returns the named structs embedded in d, depth first.
// Unexported embedded fields and everything below them are skipped.
func (r *Registry) BaseChainOf(d *autobind.Descriptor) []*autobind.Descriptor {
	t, ok := typeOf(d)
	if !ok || t.Kind() != reflect.Struct {
		return nil
	}
	var out []*autobind.Descriptor
	seen := map[reflect.Type]bool{t: true}

	var walk func(reflect.Type)
	walk = func(st reflect.Type) {
		for i := 0; i < st.NumField(); i++ {
			f := st.Field(i)
			if !f.Anonymous || !f.IsExported() {
				continue
			}
			ft := normalize(f.Type)
			if ft.Kind() != reflect.Struct || ft.Name() == "" || seen[ft] {
				continue
			}
			seen[ft] = true
			out = append(out, r.Descriptor(ft))
			walk(ft)
		}
	}
	walk(t)
	return out
}

// module is a package path group of registered types.
type module struct {
	path  string
	types []*autobind.Descriptor
}

func (m *module) Path() string                  { return m.path }
func (m *module) Types() []*autobind.Descriptor { return m.types }

func normalize(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func typeOf(d *autobind.Descriptor) (reflect.Type, bool) {
	if d == nil {
		return nil, false
	}
	t, ok := d.Ref.(reflect.Type)
	return t, ok && t != nil
}

func describe(t reflect.Type) *autobind.Descriptor {
	d := &autobind.Descriptor{
		PkgPath:  t.PkgPath(),
		Name:     t.Name(),
		Exported: token.IsExported(t.Name()),
		Ref:      t,
	}
	switch t.Kind() {
	case reflect.Interface:
		d.Kind = autobind.KindInterface
		d.Methods = t.NumMethod()
	case reflect.Struct:
		d.Kind = autobind.KindStruct
	default:
		d.Kind = autobind.KindOther
	}
	return d
}

