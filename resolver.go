package autobind

// DefaultIgnoredInterfaces are never offered for binding. Every error type
// implements error, so binding it would only shadow real services.
var DefaultIgnoredInterfaces = []string{"error"}

// BindableTypeSelector computes the abstractions a type may be bound to.
type BindableTypeSelector struct {
	introspector Introspector
	ignored      map[string]bool
}

// ResolverOption configures a BindableTypeSelector.
type ResolverOption func(*BindableTypeSelector)

// IgnoreInterfaces replaces the default ignore list with the given keys.
// Keys match Descriptor.Key, e.g. "io.Closer" or "error".
func IgnoreInterfaces(keys ...string) ResolverOption {
	return func(s *BindableTypeSelector) {
		s.ignored = make(map[string]bool, len(keys))
		for _, k := range keys {
			s.ignored[k] = true
		}
	}
}

// NewBindableTypeSelector creates a resolver over the given introspector.
func NewBindableTypeSelector(introspector Introspector, opts ...ResolverOption) *BindableTypeSelector {
	s := &BindableTypeSelector{introspector: introspector}
	IgnoreInterfaces(DefaultIgnoredInterfaces...)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BindableInterfaces returns the interfaces of t that are safe defaults for
// auto-binding. Empty interfaces and ignored keys are dropped, and open
// generic interfaces are only kept for a generic t of the same arity.
func (s *BindableTypeSelector) BindableInterfaces(t *Descriptor) []*Descriptor {
	if t == nil || s.introspector == nil {
		return nil
	}
	var out []*Descriptor
	for _, i := range s.introspector.InterfacesOf(t) {
		if i == nil || !i.IsInterface() || i.Methods == 0 {
			continue
		}
		if !s.allowed(t, i) {
			continue
		}
		out = append(out, i)
	}
	return unique(out)
}

// BindableBaseTypes returns the embedded structs of t that may be bound.
func (s *BindableTypeSelector) BindableBaseTypes(t *Descriptor) []*Descriptor {
	if t == nil || s.introspector == nil {
		return nil
	}
	var out []*Descriptor
	for _, b := range s.introspector.BaseChainOf(t) {
		if b == nil || b.IsInterface() {
			continue
		}
		if !s.allowed(t, b) {
			continue
		}
		out = append(out, b)
	}
	return unique(out)
}

// allowed applies the filters shared by interfaces and base types.
func (s *BindableTypeSelector) allowed(t, candidate *Descriptor) bool {
	if candidate.Key() == t.Key() || s.ignored[candidate.Key()] {
		return false
	}
	if candidate.IsGeneric() && candidate.TypeParams != t.TypeParams {
		return false
	}
	return true
}
