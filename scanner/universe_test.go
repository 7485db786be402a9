package scanner_test

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iVampireSP/autobind"
	"github.com/iVampireSP/autobind/plan"
	"github.com/iVampireSP/autobind/scanner"
)

const libSrc = `package lib

type Closer interface { Close() error }

type closer interface { Close() error }
`

const appSrc = `package app

import "example.com/lib"

type Repository interface { Find(id int) (string, error) }

type Reader[T any] interface { Read() T }

type Pair[K, V any] interface {
	Key() K
	Value() V
}

type Number interface { ~int | ~float64 }

type Marker interface{}

type Timestamps struct{ CreatedAt int64 }

type Entity struct {
	Timestamps
	ID int
}

//autobind:scope singleton
//autobind:name primary
type UserRepository struct {
	*Entity
}

func (*UserRepository) Find(int) (string, error) { return "", nil }
func (*UserRepository) Close() error { return nil }

type Base[T any] struct{ value T }

// Store keeps values.
//
//autobind:tag stores cache
type Store[T any] struct {
	Base[T]
}

func (s *Store[T]) Read() T { return s.value }

type IntStore struct {
	Base[int]
}

func (IntStore) Read() int { return 0 }

//autobind:ignore
type Legacy struct{}

type hidden struct{}

type Alias = UserRepository

type ID int

type Counter struct{}

func (Counter) Key() string { return "" }
func (*Counter) Value() int  { return 0 }

type audit struct{ Timestamps }

type Order struct {
	audit
	ID int
}

type Slot[T any] interface {
	Get() T
	Set(v T)
}

type Mismatch struct{}

func (Mismatch) Get() int            { return 0 }
func (Mismatch) Set(string)          {}
func (Mismatch) Read() (int, error) { return 0, nil }

var _ lib.Closer = (*UserRepository)(nil)
`

type importerFunc func(path string) (*types.Package, error)

func (f importerFunc) Import(path string) (*types.Package, error) { return f(path) }

func check(t *testing.T, fset *token.FileSet, path, src string, imp types.Importer) (*types.Package, []*ast.File) {
	t.Helper()
	f, err := parser.ParseFile(fset, path+".go", src, parser.ParseComments)
	require.NoError(t, err)
	conf := types.Config{Importer: imp}
	pkg, err := conf.Check(path, fset, []*ast.File{f}, nil)
	require.NoError(t, err)
	return pkg, []*ast.File{f}
}

// newUniverse type checks the fixture packages and adds the app package.
func newUniverse(t *testing.T) (*scanner.Universe, autobind.Module) {
	t.Helper()
	fset := token.NewFileSet()
	lib, _ := check(t, fset, "example.com/lib", libSrc, nil)
	app, files := check(t, fset, "example.com/app", appSrc, importerFunc(func(path string) (*types.Package, error) {
		if path == "example.com/lib" {
			return lib, nil
		}
		return nil, fmt.Errorf("unknown import %q", path)
	}))

	u := scanner.NewUniverse()
	return u, u.AddPackage(app, files)
}

func lookup(t *testing.T, m autobind.Module, name string) *autobind.Descriptor {
	t.Helper()
	for _, d := range m.Types() {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("type %s not found in %s", name, m.Path())
	return nil
}

func keys(ds []*autobind.Descriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Key())
	}
	return out
}

func TestUniverseModule(t *testing.T) {
	t.Parallel()
	_, m := newUniverse(t)

	assert.Equal(t, "example.com/app", m.Path())
	var names []string
	for _, d := range m.Types() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{
		"Base", "Counter", "Entity", "ID", "IntStore", "Legacy", "Marker", "Mismatch", "Number", "Order",
		"Pair", "Reader", "Repository", "Slot", "Store", "Timestamps", "UserRepository", "audit", "hidden",
	}, names)

	tests := []struct {
		name       string
		kind       autobind.Kind
		exported   bool
		typeParams int
		methods    int
	}{
		{"UserRepository", autobind.KindStruct, true, 0, 0},
		{"Repository", autobind.KindInterface, true, 0, 1},
		{"Pair", autobind.KindInterface, true, 2, 2},
		{"Store", autobind.KindStruct, true, 1, 0},
		{"ID", autobind.KindOther, true, 0, 0},
		{"hidden", autobind.KindStruct, false, 0, 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := lookup(t, m, tt.name)
			assert.Equal(t, tt.kind, d.Kind)
			assert.Equal(t, tt.exported, d.Exported)
			assert.Equal(t, tt.typeParams, d.TypeParams)
			assert.Equal(t, tt.methods, d.Methods)
		})
	}
}

func TestUniverseInterfacesOf(t *testing.T) {
	t.Parallel()
	u, m := newUniverse(t)

	tests := []struct {
		target string
		want   []string
	}{
		{"UserRepository", []string{"example.com/app.Marker", "example.com/app.Repository", "example.com/lib.Closer"}},
		{"Store", []string{"example.com/app.Marker", "example.com/app.Reader"}},
		{"IntStore", []string{"example.com/app.Marker", "example.com/app.Reader[int]"}},
		{"Counter", []string{"example.com/app.Marker", "example.com/app.Pair[string,int]"}},
		{"Mismatch", []string{"example.com/app.Marker"}},
		{"Repository", []string{"example.com/app.Marker"}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, keys(u.InterfacesOf(lookup(t, m, tt.target))))
		})
	}

	assert.Empty(t, u.InterfacesOf(nil))
	assert.Empty(t, u.InterfacesOf(&autobind.Descriptor{Name: "NoRef"}))
}

func TestUniverseBaseChainOf(t *testing.T) {
	t.Parallel()
	u, m := newUniverse(t)

	assert.Equal(t,
		[]string{"example.com/app.Entity", "example.com/app.Timestamps"},
		keys(u.BaseChainOf(lookup(t, m, "UserRepository"))))

	storeBases := u.BaseChainOf(lookup(t, m, "Store"))
	require.Len(t, storeBases, 1)
	assert.Equal(t, "example.com/app.Base", storeBases[0].Key())
	assert.Equal(t, 1, storeBases[0].TypeParams)

	intBases := u.BaseChainOf(lookup(t, m, "IntStore"))
	require.Len(t, intBases, 1)
	assert.Equal(t, "example.com/app.Base[int]", intBases[0].Key())
	assert.Equal(t, 0, intBases[0].TypeParams)

	assert.Empty(t, u.BaseChainOf(lookup(t, m, "Repository")))
	assert.Empty(t, u.BaseChainOf(lookup(t, m, "Order")))
}

func TestUniverseResolvesGenerics(t *testing.T) {
	t.Parallel()
	u, m := newUniverse(t)
	resolver := autobind.NewBindableTypeSelector(u)

	store := lookup(t, m, "Store")
	assert.Equal(t, []string{"example.com/app.Reader"}, keys(resolver.BindableInterfaces(store)))
	assert.Equal(t, []string{"example.com/app.Base"}, keys(resolver.BindableBaseTypes(store)))

	intStore := lookup(t, m, "IntStore")
	ifaces := resolver.BindableInterfaces(intStore)
	require.Len(t, ifaces, 1)
	assert.Equal(t, "example.com/app.Reader[int]", ifaces[0].Key())
	assert.Equal(t, 0, ifaces[0].TypeParams)
	assert.Equal(t, autobind.KindInterface, ifaces[0].Kind)
	assert.Equal(t, []string{"example.com/app.Base[int]"}, keys(resolver.BindableBaseTypes(intStore)))
}

func TestUniverseAnnotations(t *testing.T) {
	t.Parallel()
	u, m := newUniverse(t)

	repo := u.Annotations(lookup(t, m, "UserRepository"))
	assert.Equal(t, []string{"singleton"}, scanner.GetAnnotationValues(repo, scanner.AnnotScope))
	assert.Equal(t, []string{"primary"}, scanner.GetAnnotationValues(repo, scanner.AnnotName))
	assert.Equal(t, []string{"stores cache"}, scanner.GetAnnotationValues(u.Annotations(lookup(t, m, "Store")), scanner.AnnotTag))

	assert.False(t, u.NotIgnored(lookup(t, m, "Legacy")))
	assert.True(t, u.NotIgnored(lookup(t, m, "UserRepository")))
	assert.Empty(t, u.Annotations(nil))
}

func TestUniverseLookup(t *testing.T) {
	t.Parallel()
	u, m := newUniverse(t)

	d, ok := u.Lookup("example.com/app.UserRepository")
	require.True(t, ok)
	assert.Same(t, lookup(t, m, "UserRepository"), d)

	_, ok = u.Lookup("example.com/app.Alias")
	assert.False(t, ok)
}

func TestUniverseDrivesConvention(t *testing.T) {
	t.Parallel()
	u, m := newUniverse(t)

	b := autobind.NewBuilder().SelectAllTypesFrom(m).Where(u.NotIgnored).Where(autobind.IsStruct)
	gen := autobind.NewSelectorGenerator(nil, autobind.SelectAll, autobind.NewBindableTypeSelector(u))
	p := plan.New()
	require.NoError(t, b.BindWith(gen, p))

	got := make(map[string][]string)
	for _, e := range p.Entries() {
		got[e.Implementation.Name] = e.ServiceKeys()
	}
	assert.Equal(t, map[string][]string{
		"Base":       {"example.com/app.Base"},
		"Entity":     {"example.com/app.Entity", "example.com/app.Timestamps"},
		"Counter":    {"example.com/app.Counter", "example.com/app.Pair[string,int]"},
		"IntStore":   {"example.com/app.IntStore", "example.com/app.Reader[int]", "example.com/app.Base[int]"},
		"Mismatch":   {"example.com/app.Mismatch"},
		"Order":      {"example.com/app.Order"},
		"Store":      {"example.com/app.Store", "example.com/app.Reader", "example.com/app.Base"},
		"Timestamps": {"example.com/app.Timestamps"},
		"UserRepository": {
			"example.com/app.UserRepository",
			"example.com/app.Repository",
			"example.com/lib.Closer",
			"example.com/app.Entity",
			"example.com/app.Timestamps",
		},
	}, got)
}
