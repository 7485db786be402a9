package autobind

import (
	"reflect"
	"strings"
)

// Predicates for Builder.Where.

// InPackage matches types declared in one of the given package paths.
func InPackage(paths ...string) func(*Descriptor) bool {
	return func(d *Descriptor) bool {
		for _, p := range paths {
			if d.PkgPath == p {
				return true
			}
		}
		return false
	}
}

// InPackageOf matches types declared in the package of T.
func InPackageOf[T any]() func(*Descriptor) bool {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return InPackage(t.PkgPath())
}

// NameHasSuffix matches types whose name ends with suffix.
func NameHasSuffix(suffix string) func(*Descriptor) bool {
	return func(d *Descriptor) bool { return strings.HasSuffix(baseName(d.Name), suffix) }
}

// NameHasPrefix matches types whose name starts with prefix.
func NameHasPrefix(prefix string) func(*Descriptor) bool {
	return func(d *Descriptor) bool { return strings.HasPrefix(d.Name, prefix) }
}

// IsStruct matches struct types.
func IsStruct(d *Descriptor) bool { return d.Kind == KindStruct }

// Implementing matches types that implement the interface with the given key.
func Implementing(introspector Introspector, key string) func(*Descriptor) bool {
	return func(d *Descriptor) bool {
		for _, i := range introspector.InterfacesOf(d) {
			if i.Key() == key {
				return true
			}
		}
		return false
	}
}

// Not negates pred.
func Not(pred func(*Descriptor) bool) func(*Descriptor) bool {
	return func(d *Descriptor) bool { return !pred(d) }
}
