package scanner_test

import (
	"go/ast"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iVampireSP/autobind"
	"github.com/iVampireSP/autobind/scanner"
)

func requireGo(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available")
	}
}

func paths(mods []autobind.Module) []string {
	out := make([]string, 0, len(mods))
	for _, m := range mods {
		out = append(out, m.Path())
	}
	sort.Strings(out)
	return out
}

func newFinder(opts ...scanner.Option) *scanner.Finder {
	return scanner.New(filepath.Join("testdata", "app"), append([]scanner.Option{scanner.Exclude("./internal/legacy/...")}, opts...)...)
}

func TestFinderFindModules(t *testing.T) {
	requireGo(t)
	core, logs := observer.New(zap.DebugLevel)
	f := newFinder(scanner.WithLogger(zap.New(core)))

	mods, err := f.FindModules([]string{"./..."}, nil)
	require.NoError(t, err)
	// generated/ is gitignored, internal/legacy is excluded.
	assert.Equal(t, []string{"example.com/app/internal/repo"}, paths(mods))
	assert.NotEmpty(t, logs.FilterMessage("packages loaded").All())
	assert.NotEmpty(t, logs.FilterMessage("package excluded").All())

	filtered, err := f.FindModules([]string{"./..."}, func(autobind.Module) bool { return false })
	require.NoError(t, err)
	assert.Empty(t, filtered)
}

func TestFinderFindModulesInPath(t *testing.T) {
	requireGo(t)
	f := newFinder()
	assert.True(t, filepath.IsAbs(f.Dir()))

	mods, err := f.FindModulesInPath("internal")
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com/app/internal/repo"}, paths(mods))

	abs, err := filepath.Abs(filepath.Join("testdata", "app", "generated"))
	require.NoError(t, err)
	mods, err = scanner.New(filepath.Join("testdata", "app")).FindModulesInPath(abs)
	require.NoError(t, err)
	assert.Empty(t, mods)
}

func TestFinderFindModulesMatching(t *testing.T) {
	requireGo(t)
	f := newFinder()

	mods, err := f.FindModulesMatching([]string{"internal/*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com/app/internal/repo"}, paths(mods))

	mods, err = f.FindModulesMatching([]string{"generated"})
	require.NoError(t, err)
	assert.Empty(t, mods)

	_, err = f.FindModulesMatching([]string{"internal/["})
	assert.Error(t, err)
}

func TestFinderLoadError(t *testing.T) {
	requireGo(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/broken\n\ngo 1.21\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.go"), []byte("package broken\n\nvar x int = \"s\"\n"), 0o644))

	f := scanner.New(dir)
	assert.Equal(t, dir, f.Dir())
	_, err := f.FindModules([]string{"./..."}, nil)
	assert.ErrorContains(t, err, "package errors")
}

func TestFinderConvention(t *testing.T) {
	requireGo(t)
	f := newFinder()
	b := autobind.NewBuilder()
	require.NoError(t, autobind.From(f, b).Modules([]string{"./internal/..."}, nil))
	b.Where(f.Universe().NotIgnored).Where(autobind.IsStruct)

	var got []string
	for _, d := range b.Candidates() {
		got = append(got, d.Name)
	}
	assert.ElementsMatch(t, []string{"Entity", "UserRepository"}, got)

	repo, ok := f.Universe().Lookup("example.com/app/internal/repo.UserRepository")
	require.True(t, ok)
	resolver := autobind.NewBindableTypeSelector(f.Universe())
	assert.Equal(t,
		[]string{"example.com/app/internal/repo.Repository", "io.Closer"},
		keys(resolver.BindableInterfaces(repo)))
	assert.Equal(t, []string{"example.com/app/internal/repo.Entity"}, keys(resolver.BindableBaseTypes(repo)))
	assert.Equal(t,
		[]string{"singleton"},
		scanner.GetAnnotationValues(f.Universe().Annotations(repo), scanner.AnnotScope))
}

func TestGitignore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	rules := "# comment\n\ngenerated/\n*.pb.go\n/build\n!build/keep\ndocs/**/private\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(rules), 0o644))
	g := scanner.LoadGitignore(dir)
	require.Len(t, g, 5)

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"generated", true, true},
		{"generated", false, false},
		{"internal/generated/models", true, true},
		{"api/v1.pb.go", false, true},
		{"build", true, true},
		{"sub/build", true, false},
		{"build/keep", true, true},
		{"docs/a/b/private", true, true},
		{"docs/private", true, true},
		{"docs/public", true, false},
		{".", true, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, g.Ignored(tt.path, tt.isDir))
		})
	}
}

func TestGitignoreMissing(t *testing.T) {
	t.Parallel()
	g := scanner.LoadGitignore(t.TempDir())
	assert.Empty(t, g)
	assert.False(t, g.Ignored("anything", true))
}

func TestParseAnnotations(t *testing.T) {
	t.Parallel()
	doc := &ast.CommentGroup{List: []*ast.Comment{
		{Text: "// Cache stores values."},
		{Text: "//autobind:scope singleton"},
		{Text: "//autobind:tag a b"},
		{Text: "//autobind:ignore"},
		{Text: "//autobind:unknown value"},
		{Text: "//autodi:bind x"},
	}}

	got := scanner.ParseAnnotations(doc)
	assert.Equal(t, []scanner.Annotation{
		{Kind: scanner.AnnotScope, Value: "singleton"},
		{Kind: scanner.AnnotTag, Value: "a b"},
		{Kind: scanner.AnnotIgnore},
	}, got)
	assert.True(t, scanner.HasAnnotation(got, scanner.AnnotIgnore))
	assert.False(t, scanner.HasAnnotation(got, scanner.AnnotName))
	assert.Empty(t, scanner.GetAnnotationValues(got, scanner.AnnotIgnore))
	assert.Nil(t, scanner.ParseAnnotations(nil))
}
