package autobind

// Module is a loadable unit of code declaring types, a Go package for the
// go/packages finder or a package path group for the reflect registry.
type Module interface {
	// Path is the import path of the module.
	Path() string
	// Types returns every named type declared in the module, exported or not.
	Types() []*Descriptor
}

// ModuleFinder locates modules. Discovery performs I/O and lives outside
// this package; see the scanner package for the go/packages implementation.
type ModuleFinder interface {
	// FindModules loads the named modules, keeping those accepted by filter.
	FindModules(names []string, filter func(Module) bool) ([]Module, error)
	// FindModulesInPath loads every module under path.
	FindModulesInPath(path string) ([]Module, error)
	// FindModulesMatching loads the modules whose location matches a pattern.
	FindModulesMatching(patterns []string) ([]Module, error)
}

// Source feeds a Builder from a ModuleFinder.
//
//	src := autobind.From(finder, builder)
//	if err := src.Modules([]string{"./internal/..."}, nil); err != nil { ... }
type Source struct {
	finder  ModuleFinder
	builder *Builder
}

// From returns a Source seeding b with the modules located by finder.
func From(finder ModuleFinder, b *Builder) *Source {
	return &Source{finder: finder, builder: b}
}

// Modules seeds the builder with the named modules.
func (s *Source) Modules(names []string, filter func(Module) bool) error {
	if s.finder == nil {
		return ErrNilFinder
	}
	if filter == nil {
		filter = acceptAll
	}
	mods, err := s.finder.FindModules(names, filter)
	if err != nil {
		return err
	}
	s.builder.SelectAllTypesFrom(mods...)
	return nil
}

// InPath seeds the builder with the modules under path.
func (s *Source) InPath(path string, filter func(Module) bool) error {
	if s.finder == nil {
		return ErrNilFinder
	}
	mods, err := s.finder.FindModulesInPath(path)
	if err != nil {
		return err
	}
	s.builder.SelectAllTypesFrom(filterModules(mods, filter)...)
	return nil
}

// Matching seeds the builder with the modules matching patterns.
func (s *Source) Matching(patterns []string, filter func(Module) bool) error {
	if s.finder == nil {
		return ErrNilFinder
	}
	mods, err := s.finder.FindModulesMatching(patterns)
	if err != nil {
		return err
	}
	s.builder.SelectAllTypesFrom(filterModules(mods, filter)...)
	return nil
}

func acceptAll(Module) bool { return true }

func filterModules(mods []Module, filter func(Module) bool) []Module {
	if filter == nil {
		return mods
	}
	var out []Module
	for _, m := range mods {
		if filter(m) {
			out = append(out, m)
		}
	}
	return out
}
