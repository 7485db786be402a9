package autobind

// Scope is the lifetime a container applies to a registration.
type Scope string

const (
	// ScopeTransient creates a new instance for each resolution.
	ScopeTransient Scope = "transient"
	// ScopeRequest shares an instance within a request.
	ScopeRequest Scope = "request"
	// ScopeSingleton shares one instance across the container.
	ScopeSingleton Scope = "singleton"
)

// Registration is the handle a binding root returns for one registration
// entry. Configuration actions use it to refine the entry after creation.
type Registration interface {
	// Named sets the name the registration is resolved under.
	Named(name string) Registration
	// InScope sets the lifetime of the registration.
	InScope(scope Scope) Registration
	// Tagged adds the registration to the given groups.
	Tagged(tags ...string) Registration
	// WithMetadata attaches an arbitrary key/value pair.
	WithMetadata(key string, value any) Registration
}

// BindingRoot is the container-side entry point accepting registrations.
type BindingRoot interface {
	// Bind starts a registration for one or more service identifiers.
	Bind(services ...*Descriptor) BindingTo
}

// BindingTo completes a registration started by BindingRoot.Bind.
type BindingTo interface {
	// To binds the services to the implementation and returns the entry.
	To(implementation *Descriptor) Registration
}

// BindingCreator turns chosen service identifiers into registrations.
type BindingCreator interface {
	CreateBindings(root BindingRoot, services []*Descriptor, implementation *Descriptor) ([]Registration, error)
}

// SingleConfigurationCreator registers all services of a type as one shared
// entry, so configuration applies once and one scope decision governs every
// service identifier of the implementation.
type SingleConfigurationCreator struct{}

// CreateBindings implements BindingCreator.
func (SingleConfigurationCreator) CreateBindings(root BindingRoot, services []*Descriptor, implementation *Descriptor) ([]Registration, error) {
	if root == nil {
		return nil, ErrNilBindingRoot
	}
	if len(services) == 0 {
		return nil, nil
	}
	return []Registration{root.Bind(services...).To(implementation)}, nil
}

// MultipleConfigurationCreator registers every service as its own entry.
type MultipleConfigurationCreator struct{}

// CreateBindings implements BindingCreator.
func (MultipleConfigurationCreator) CreateBindings(root BindingRoot, services []*Descriptor, implementation *Descriptor) ([]Registration, error) {
	if root == nil {
		return nil, ErrNilBindingRoot
	}
	out := make([]Registration, 0, len(services))
	for _, s := range services {
		out = append(out, root.Bind(s).To(implementation))
	}
	return out, nil
}
