package autobind

// Generator creates the registrations of a single type.
type Generator interface {
	CreateBindings(t *Descriptor, root BindingRoot) ([]Registration, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(t *Descriptor, root BindingRoot) ([]Registration, error)

// CreateBindings calls f(t, root).
func (f GeneratorFunc) CreateBindings(t *Descriptor, root BindingRoot) ([]Registration, error) {
	return f(t, root)
}

// SelectorGenerator binds the selected interfaces and base types of a type.
type SelectorGenerator struct {
	creator  BindingCreator
	selector ServiceSelector
	resolver *BindableTypeSelector
}

// NewSelectorGenerator creates a SelectorGenerator. A nil creator falls back
// to SingleConfigurationCreator and a nil selector to SelectAll.
func NewSelectorGenerator(creator BindingCreator, selector ServiceSelector, resolver *BindableTypeSelector) *SelectorGenerator {
	if creator == nil {
		creator = SingleConfigurationCreator{}
	}
	if selector == nil {
		selector = SelectAll
	}
	return &SelectorGenerator{creator: creator, selector: selector, resolver: resolver}
}

// Selector returns the selection policy of the generator.
func (g *SelectorGenerator) Selector() ServiceSelector { return g.selector }

// CreateBindings implements Generator. Interfaces are never registration
// targets and yield no bindings.
func (g *SelectorGenerator) CreateBindings(t *Descriptor, root BindingRoot) ([]Registration, error) {
	if t == nil {
		return nil, ErrNilType
	}
	if t.IsInterface() {
		return nil, nil
	}

	var candidates []*Descriptor
	if g.resolver != nil {
		candidates = append(candidates, g.resolver.BindableInterfaces(t)...)
		candidates = append(candidates, g.resolver.BindableBaseTypes(t)...)
	}
	selected := g.selector(t, unique(candidates))

	return g.creator.CreateBindings(root, selected, t)
}
