// Package scanner finds Go packages with golang.org/x/tools/go/packages and
// describes their types with go/types for the autobind builder.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/iVampireSP/autobind"
)

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedImports |
	packages.NeedTypes | packages.NeedTypesInfo | packages.NeedSyntax | packages.NeedModule

// Finder loads packages below a root directory. Every package it loads is
// added to its Universe.
type Finder struct {
	dir       string
	exclude   []string
	gitignore Gitignore
	log       *zap.Logger
	universe  *Universe
}

// Option configures a Finder.
type Option func(*Finder)

// Exclude drops packages whose path relative to their module starts with one
// of prefixes. "./legacy/..." and "legacy" are equivalent.
func Exclude(prefixes ...string) Option {
	return func(f *Finder) {
		for _, p := range prefixes {
			p = strings.TrimPrefix(p, "./")
			p = strings.TrimSuffix(p, "/...")
			if p != "" {
				f.exclude = append(f.exclude, p)
			}
		}
	}
}

// WithLogger sets the logger used to trace package loads.
func WithLogger(log *zap.Logger) Option {
	return func(f *Finder) {
		if log != nil {
			f.log = log
		}
	}
}

// New creates a Finder rooted at dir. The .gitignore of dir is honored.
func New(dir string, opts ...Option) *Finder {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	f := &Finder{
		dir:       dir,
		gitignore: LoadGitignore(dir),
		log:       zap.NewNop(),
		universe:  NewUniverse(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var _ autobind.ModuleFinder = (*Finder)(nil)

// Dir returns the root directory of the finder.
func (f *Finder) Dir() string { return f.dir }

// Universe returns the introspector over every package loaded so far.
func (f *Finder) Universe() *Universe { return f.universe }

// FindModules loads packages by import path or pattern, relative to the
// finder root, e.g. "./internal/...".
func (f *Finder) FindModules(names []string, filter func(autobind.Module) bool) ([]autobind.Module, error) {
	return f.load(f.dir, names, filter)
}

// FindModulesInPath loads every package under path. A relative path is
// resolved against the finder root.
func (f *Finder) FindModulesInPath(path string) ([]autobind.Module, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.dir, path)
	}
	return f.load(path, []string{"./..."}, nil)
}

// FindModulesMatching loads the packages whose directory, relative to the
// finder root, matches one of the doublestar patterns, e.g. "internal/**/repo".
func (f *Finder) FindModulesMatching(patterns []string) ([]autobind.Module, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(strings.TrimPrefix(p, "./")) {
			return nil, fmt.Errorf("scanner: invalid pattern %q", p)
		}
	}
	dirs, err := f.matchDirs(patterns)
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		f.log.Debug("no package matched", zap.Strings("patterns", patterns))
		return nil, nil
	}

	names := make([]string, len(dirs))
	for i, d := range dirs {
		if d == "." {
			names[i] = "."
			continue
		}
		names[i] = "./" + d
	}
	return f.load(f.dir, names, nil)
}

func (f *Finder) load(dir string, patterns []string, filter func(autobind.Module) bool) ([]autobind.Module, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	cfg := &packages.Config{Mode: loadMode, Dir: dir}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	var loadErrs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			loadErrs = append(loadErrs, e.Error())
		}
	}
	if len(loadErrs) > 0 {
		return nil, fmt.Errorf("package errors:\n  %s", strings.Join(loadErrs, "\n  "))
	}

	var mods []autobind.Module
	for _, pkg := range pkgs {
		if pkg.Types == nil {
			continue
		}
		if f.shouldExclude(pkg) {
			f.log.Debug("package excluded", zap.String("pkg", pkg.PkgPath))
			continue
		}
		m := f.universe.AddPackage(pkg.Types, pkg.Syntax)
		if filter != nil && !filter(m) {
			continue
		}
		mods = append(mods, m)
	}

	f.log.Debug("packages loaded",
		zap.String("dir", dir),
		zap.Strings("patterns", patterns),
		zap.Int("packages", len(pkgs)),
		zap.Int("modules", len(mods)))
	return mods, nil
}

// shouldExclude applies the exclude prefixes and the .gitignore rules.
func (f *Finder) shouldExclude(pkg *packages.Package) bool {
	rel := pkg.PkgPath
	if pkg.Module != nil {
		rel = strings.TrimPrefix(strings.TrimPrefix(rel, pkg.Module.Path), "/")
	}
	for _, exc := range f.exclude {
		if rel == exc || strings.HasPrefix(rel, exc+"/") {
			return true
		}
	}

	if len(pkg.GoFiles) == 0 {
		return false
	}
	dir, err := filepath.Rel(f.dir, filepath.Dir(pkg.GoFiles[0]))
	if err != nil || strings.HasPrefix(dir, "..") {
		return false
	}
	return f.gitignore.Ignored(dir, true)
}

// matchDirs walks the finder root like the go tool does: hidden, "_"
// prefixed, testdata and vendor directories and nested modules are skipped.
func (f *Finder) matchDirs(patterns []string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(f.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if rel != "." {
			name := d.Name()
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
				name == "testdata" || name == "vendor" {
				return filepath.SkipDir
			}
			if f.gitignore.Ignored(rel, true) {
				return filepath.SkipDir
			}
			if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
				return filepath.SkipDir
			}
		}

		if !hasGoFiles(path) {
			return nil
		}
		for _, p := range patterns {
			if ok, _ := doublestar.Match(strings.TrimPrefix(p, "./"), rel); ok {
				dirs = append(dirs, rel)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanner: walk %s: %w", f.dir, err)
	}
	return dirs, nil
}

func hasGoFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") {
			return true
		}
	}
	return false
}
