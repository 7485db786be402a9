package autobind

import "strings"

// Kind classifies a described type.
type Kind int

const (
	// KindStruct is a named struct type.
	KindStruct Kind = iota
	// KindInterface is a named interface type. Never a registration target.
	KindInterface
	// KindOther is any other named type (func, basic, slice, map...).
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	default:
		return "other"
	}
}

// Descriptor is the metadata identity of a named type.
//
// Two descriptors describe the same type when their keys are equal; the
// pipeline never compares descriptors by pointer.
type Descriptor struct {
	PkgPath    string // "" for universe types such as error
	Name       string // includes type arguments for instantiated generics, e.g. "Store[int]"
	Kind       Kind
	Exported   bool
	TypeParams int // unbound type parameters; > 0 for open generic definitions
	Methods    int // declared method count of an interface
	Ref        any // backend handle: types.Type or reflect.Type
}

// Key returns the canonical identity of the type: "pkgpath.Name".
func (d *Descriptor) Key() string {
	if d == nil {
		return ""
	}
	if d.PkgPath == "" {
		return d.Name
	}
	return d.PkgPath + "." + d.Name
}

// ShortName returns "pkg.Name" using the last package path segment.
func (d *Descriptor) ShortName() string {
	if d == nil {
		return ""
	}
	if d.PkgPath == "" {
		return d.Name
	}
	pkg := d.PkgPath
	if idx := strings.LastIndex(pkg, "/"); idx >= 0 {
		pkg = pkg[idx+1:]
	}
	return pkg + "." + d.Name
}

// IsInterface reports whether d describes an interface type.
func (d *Descriptor) IsInterface() bool { return d != nil && d.Kind == KindInterface }

// IsGeneric reports whether d is an open generic definition.
func (d *Descriptor) IsGeneric() bool { return d != nil && d.TypeParams > 0 }

func (d *Descriptor) String() string { return d.Key() }

// Introspector enumerates the abstractions of a type. Backends built on
// go/types and reflect implement it; the pipeline never inspects Ref itself.
type Introspector interface {
	// InterfacesOf returns the interfaces t (or *t) implements, in a stable order.
	InterfacesOf(t *Descriptor) []*Descriptor
	// BaseChainOf returns the named structs embedded in t, transitively.
	BaseChainOf(t *Descriptor) []*Descriptor
}

// unique returns the descriptors with duplicate keys removed, keeping the
// first occurrence. Nil entries are dropped.
func unique(in []*Descriptor) []*Descriptor {
	seen := make(map[string]bool, len(in))
	out := make([]*Descriptor, 0, len(in))
	for _, d := range in {
		if d == nil || seen[d.Key()] {
			continue
		}
		seen[d.Key()] = true
		out = append(out, d)
	}
	return out
}

// keySet builds a lookup set of descriptor keys.
func keySet(ds []*Descriptor) map[string]bool {
	set := make(map[string]bool, len(ds))
	for _, d := range ds {
		if d != nil {
			set[d.Key()] = true
		}
	}
	return set
}
