package scanner

import (
	"go/ast"
	"go/types"
	"sort"
	"strings"

	"golang.org/x/tools/go/types/typeutil"

	"github.com/iVampireSP/autobind"
)

// Universe is the go/types view of every package loaded so far. It describes
// declared types and answers which interfaces and embedded structs they have.
//
// The interface universe is every named interface declared in a loaded
// package plus the exported interfaces of the packages it imports directly.
type Universe struct {
	ctxt   *types.Context
	msets  typeutil.MethodSetCache
	descs  map[string]*autobind.Descriptor
	ifaces map[string]*types.Named
	annots map[string][]Annotation

	loaded  map[string]bool
	scanned map[string]bool
}

// NewUniverse creates an empty universe.
func NewUniverse() *Universe {
	return &Universe{
		ctxt:    types.NewContext(),
		descs:   make(map[string]*autobind.Descriptor),
		ifaces:  make(map[string]*types.Named),
		annots:  make(map[string][]Annotation),
		loaded:  make(map[string]bool),
		scanned: make(map[string]bool),
	}
}

var _ autobind.Introspector = (*Universe)(nil)

// AddPackage records a type checked package and returns it as a module of
// its named types, sorted by name. files are the package's syntax trees and
// only serve the //autobind: annotations; they may be nil.
func (u *Universe) AddPackage(pkg *types.Package, files []*ast.File) autobind.Module {
	if !u.loaded[pkg.Path()] {
		u.loaded[pkg.Path()] = true
		u.scanInterfaces(pkg, false)
		for _, imp := range pkg.Imports() {
			u.scanInterfaces(imp, true)
		}
		for name, a := range typeAnnotations(files) {
			u.annots[pkg.Path()+"."+name] = a
		}
	}

	m := &module{path: pkg.Path()}
	scope := pkg.Scope()
	for _, name := range scope.Names() {
		n, ok := declaredNamed(scope.Lookup(name))
		if !ok {
			continue
		}
		m.types = append(m.types, u.describe(n))
	}
	return m
}

// scanInterfaces adds the named interfaces of pkg to the universe. Type set
// constraints such as interface{ ~int } are not types and are skipped.
func (u *Universe) scanInterfaces(pkg *types.Package, exportedOnly bool) {
	scanKey := pkg.Path()
	if exportedOnly {
		scanKey += " exported"
	}
	if u.scanned[scanKey] || u.scanned[pkg.Path()] {
		return
	}
	u.scanned[scanKey] = true

	scope := pkg.Scope()
	for _, name := range scope.Names() {
		obj := scope.Lookup(name)
		if exportedOnly && !obj.Exported() {
			continue
		}
		n, ok := declaredNamed(obj)
		if !ok {
			continue
		}
		iface, ok := n.Underlying().(*types.Interface)
		if !ok || !iface.IsMethodSet() {
			continue
		}
		u.ifaces[keyOf(n)] = n
	}
}

// InterfacesOf implements autobind.Introspector. The result is sorted by key.
func (u *Universe) InterfacesOf(d *autobind.Descriptor) []*autobind.Descriptor {
	target, ok := namedOf(d)
	if !ok {
		return nil
	}

	keys := make([]string, 0, len(u.ifaces))
	for k := range u.ifaces {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []*autobind.Descriptor
	for _, k := range keys {
		if k == d.Key() {
			continue
		}
		if n := u.satisfies(target, u.ifaces[k]); n != nil {
			out = append(out, u.describe(n))
		}
	}
	return out
}

// satisfies returns the form of iface that target implements, or nil. A
// closed interface is checked against the target directly. A generic
// interface is instantiated over the type parameters of an open target of
// the same arity, so Store[T] satisfies Reader[T], and over the types
// inferred from the methods of a closed target, so IntStore satisfies
// Reader[int].
func (u *Universe) satisfies(target, iface *types.Named) *types.Named {
	tp := arity(target)
	ip := arity(iface)
	if tp == 0 && ip > 0 {
		return u.satisfiesInstance(target, iface)
	}

	var args []types.Type
	if tp > 0 {
		params := target.TypeParams()
		args = make([]types.Type, params.Len())
		for i := range args {
			args[i] = params.At(i)
		}
	}

	var it *types.Interface
	switch {
	case ip == 0:
		it, _ = iface.Underlying().(*types.Interface)
	case ip == tp:
		inst, err := types.Instantiate(u.ctxt, iface.Origin(), args, false)
		if err != nil {
			return nil
		}
		it, _ = inst.Underlying().(*types.Interface)
	default:
		return nil
	}
	if it == nil {
		return nil
	}

	var t types.Type = target
	if tp > 0 {
		inst, err := types.Instantiate(u.ctxt, target.Origin(), args, false)
		if err != nil {
			return nil
		}
		t = inst
	}
	if !u.implements(t, it) {
		return nil
	}
	return iface
}

// satisfiesInstance infers the type arguments of the generic iface from the
// methods of the closed target and returns the instance target implements.
// Every type parameter must appear in a method signature.
func (u *Universe) satisfiesInstance(target, iface *types.Named) *types.Named {
	generic, ok := iface.Underlying().(*types.Interface)
	if !ok {
		return nil
	}
	params := iface.TypeParams()
	index := make(map[*types.TypeParam]int, params.Len())
	for i := 0; i < params.Len(); i++ {
		index[params.At(i)] = i
	}

	var mset *types.MethodSet
	if types.IsInterface(target) {
		mset = u.msets.MethodSet(target)
	} else {
		mset = u.msets.MethodSet(types.NewPointer(target))
	}

	args := make([]types.Type, params.Len())
	for i := 0; i < generic.NumMethods(); i++ {
		m := generic.Method(i)
		sel := mset.Lookup(m.Pkg(), m.Name())
		if sel == nil {
			return nil
		}
		if !unify(m.Type(), sel.Obj().Type(), index, args) {
			return nil
		}
	}
	for _, a := range args {
		if a == nil {
			return nil
		}
	}

	inst, err := types.Instantiate(u.ctxt, iface.Origin(), args, true)
	if err != nil {
		return nil
	}
	it, ok := inst.Underlying().(*types.Interface)
	if !ok || !u.implements(target, it) {
		return nil
	}
	n, _ := inst.(*types.Named)
	return n
}

// unify matches the pattern x, which may mention the type parameters in
// index, against y and records the binding of each parameter in args.
func unify(x, y types.Type, index map[*types.TypeParam]int, args []types.Type) bool {
	switch x := x.(type) {
	case *types.TypeParam:
		i, ok := index[x]
		if !ok {
			return types.Identical(x, y)
		}
		if args[i] == nil {
			args[i] = y
			return true
		}
		return types.Identical(args[i], y)
	case *types.Pointer:
		y, ok := y.(*types.Pointer)
		return ok && unify(x.Elem(), y.Elem(), index, args)
	case *types.Slice:
		y, ok := y.(*types.Slice)
		return ok && unify(x.Elem(), y.Elem(), index, args)
	case *types.Array:
		y, ok := y.(*types.Array)
		return ok && x.Len() == y.Len() && unify(x.Elem(), y.Elem(), index, args)
	case *types.Map:
		y, ok := y.(*types.Map)
		return ok && unify(x.Key(), y.Key(), index, args) && unify(x.Elem(), y.Elem(), index, args)
	case *types.Chan:
		y, ok := y.(*types.Chan)
		return ok && x.Dir() == y.Dir() && unify(x.Elem(), y.Elem(), index, args)
	case *types.Signature:
		y, ok := y.(*types.Signature)
		return ok && x.Variadic() == y.Variadic() &&
			unifyTuple(x.Params(), y.Params(), index, args) &&
			unifyTuple(x.Results(), y.Results(), index, args)
	case *types.Named:
		y, ok := y.(*types.Named)
		if !ok {
			return false
		}
		xa, ya := x.TypeArgs(), y.TypeArgs()
		if xa.Len() == 0 {
			return types.Identical(x, y)
		}
		if x.Origin() != y.Origin() || xa.Len() != ya.Len() {
			return false
		}
		for i := 0; i < xa.Len(); i++ {
			if !unify(xa.At(i), ya.At(i), index, args) {
				return false
			}
		}
		return true
	default:
		return types.Identical(x, y)
	}
}

func unifyTuple(x, y *types.Tuple, index map[*types.TypeParam]int, args []types.Type) bool {
	if x.Len() != y.Len() {
		return false
	}
	for i := 0; i < x.Len(); i++ {
		if !unify(x.At(i).Type(), y.At(i).Type(), index, args) {
			return false
		}
	}
	return true
}

// implements checks T and *T. The method set lookup rejects most candidates
// before the full types.Implements check.
func (u *Universe) implements(t types.Type, iface *types.Interface) bool {
	if types.IsInterface(t) {
		return types.Implements(t, iface)
	}
	ptr := types.NewPointer(t)
	mset := u.msets.MethodSet(ptr)
	for i := 0; i < iface.NumMethods(); i++ {
		m := iface.Method(i)
		if mset.Lookup(m.Pkg(), m.Name()) == nil {
			return false
		}
	}
	return types.Implements(t, iface) || types.Implements(ptr, iface)
}

// BaseChainOf implements autobind.Introspector. Embedded named structs are
// returned depth first in field order, with pointers dereferenced.
// Unexported embedded fields are not reachable from other packages and are
// skipped together with everything they embed. An
// embedded instance over the target's own type parameters, such as Base[T]
// inside Repo[T], is described as its open definition.
func (u *Universe) BaseChainOf(d *autobind.Descriptor) []*autobind.Descriptor {
	target, ok := namedOf(d)
	if !ok {
		return nil
	}

	var out []*autobind.Descriptor
	seen := map[string]bool{d.Key(): true}
	var walk func(n *types.Named)
	walk = func(n *types.Named) {
		st, ok := n.Underlying().(*types.Struct)
		if !ok {
			return
		}
		for i := 0; i < st.NumFields(); i++ {
			f := st.Field(i)
			if !f.Embedded() || !f.Exported() {
				continue
			}
			ft := f.Type()
			if p, ok := ft.(*types.Pointer); ok {
				ft = p.Elem()
			}
			base, ok := ft.(*types.Named)
			if !ok {
				continue
			}
			if _, ok := base.Underlying().(*types.Struct); !ok {
				continue
			}
			if overTypeParams(base) {
				base = base.Origin()
			}
			k := keyOf(base)
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, u.describe(base))
			walk(base)
		}
	}
	walk(target)
	return out
}

// Annotations returns the //autobind: directives on the declaration of d.
func (u *Universe) Annotations(d *autobind.Descriptor) []Annotation {
	if d == nil {
		return nil
	}
	return u.annots[d.Key()]
}

// NotIgnored is a Builder predicate rejecting types annotated with
// //autobind:ignore.
func (u *Universe) NotIgnored(d *autobind.Descriptor) bool {
	return !HasAnnotation(u.Annotations(d), AnnotIgnore)
}

// Lookup returns the descriptor of a type already described by the universe.
func (u *Universe) Lookup(key string) (*autobind.Descriptor, bool) {
	d, ok := u.descs[key]
	return d, ok
}

func (u *Universe) describe(n *types.Named) *autobind.Descriptor {
	key := keyOf(n)
	if d, ok := u.descs[key]; ok {
		return d
	}

	obj := n.Obj()
	d := &autobind.Descriptor{
		Name:       nameOf(n),
		Exported:   obj.Exported(),
		TypeParams: arity(n),
		Ref:        n,
	}
	if obj.Pkg() != nil {
		d.PkgPath = obj.Pkg().Path()
	}
	switch t := n.Underlying().(type) {
	case *types.Interface:
		d.Kind = autobind.KindInterface
		d.Methods = t.NumMethods()
	case *types.Struct:
		d.Kind = autobind.KindStruct
	default:
		d.Kind = autobind.KindOther
	}
	u.descs[key] = d
	return d
}

// declaredNamed returns the named type declared by obj. Aliases are skipped.
func declaredNamed(obj types.Object) (*types.Named, bool) {
	tn, ok := obj.(*types.TypeName)
	if !ok || tn.IsAlias() {
		return nil, false
	}
	n, ok := tn.Type().(*types.Named)
	return n, ok
}

func namedOf(d *autobind.Descriptor) (*types.Named, bool) {
	if d == nil {
		return nil, false
	}
	n, ok := d.Ref.(*types.Named)
	return n, ok
}

// arity is the number of unbound type parameters of n.
func arity(n *types.Named) int {
	if n.TypeArgs().Len() > 0 {
		return 0
	}
	return n.TypeParams().Len()
}

// overTypeParams reports whether n is instantiated with type parameters only.
func overTypeParams(n *types.Named) bool {
	args := n.TypeArgs()
	if args.Len() == 0 {
		return false
	}
	for i := 0; i < args.Len(); i++ {
		if _, ok := args.At(i).(*types.TypeParam); !ok {
			return false
		}
	}
	return true
}

func nameOf(n *types.Named) string {
	name := n.Obj().Name()
	args := n.TypeArgs()
	if args.Len() == 0 {
		return name
	}
	parts := make([]string, args.Len())
	for i := range parts {
		parts[i] = types.TypeString(args.At(i), nil)
	}
	return name + "[" + strings.Join(parts, ",") + "]"
}

func keyOf(n *types.Named) string {
	if pkg := n.Obj().Pkg(); pkg != nil {
		return pkg.Path() + "." + nameOf(n)
	}
	return nameOf(n)
}

type module struct {
	path  string
	types []*autobind.Descriptor
}

func (m *module) Path() string                  { return m.path }
func (m *module) Types() []*autobind.Descriptor { return m.types }
