// Package plan provides a binding root that records registrations instead of
// performing them. A plan is used for dry runs, reports and code generation.
package plan

import (
	"sort"

	"github.com/iVampireSP/autobind"
)

// Plan records registration entries in creation order.
type Plan struct {
	entries []*Entry
}

// New creates an empty plan.
func New() *Plan {
	return &Plan{}
}

var _ autobind.BindingRoot = (*Plan)(nil)

// Bind starts a registration for the given services.
func (p *Plan) Bind(services ...*autobind.Descriptor) autobind.BindingTo {
	cp := make([]*autobind.Descriptor, 0, len(services))
	seen := make(map[string]bool, len(services))
	for _, s := range services {
		if s == nil || seen[s.Key()] {
			continue
		}
		seen[s.Key()] = true
		cp = append(cp, s)
	}
	return &bindingTo{plan: p, services: cp}
}

type bindingTo struct {
	plan     *Plan
	services []*autobind.Descriptor
}

// To records the entry and returns it for configuration.
func (b *bindingTo) To(implementation *autobind.Descriptor) autobind.Registration {
	e := &Entry{
		Services:       b.services,
		Implementation: implementation,
		Scope:          autobind.ScopeTransient,
	}
	b.plan.entries = append(b.plan.entries, e)
	return e
}

// Entry is one recorded registration.
type Entry struct {
	Services       []*autobind.Descriptor
	Implementation *autobind.Descriptor
	Scope          autobind.Scope
	Name           string
	Tags           []string
	Metadata       map[string]any
}

var _ autobind.Registration = (*Entry)(nil)

// Named implements autobind.Registration.
func (e *Entry) Named(name string) autobind.Registration {
	e.Name = name
	return e
}

// InScope implements autobind.Registration.
func (e *Entry) InScope(scope autobind.Scope) autobind.Registration {
	e.Scope = scope
	return e
}

// Tagged implements autobind.Registration. Duplicate tags are ignored.
func (e *Entry) Tagged(tags ...string) autobind.Registration {
	for _, t := range tags {
		if !contains(e.Tags, t) {
			e.Tags = append(e.Tags, t)
		}
	}
	return e
}

// WithMetadata implements autobind.Registration.
func (e *Entry) WithMetadata(key string, value any) autobind.Registration {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
	return e
}

// ServiceKeys returns the keys of the entry's services.
func (e *Entry) ServiceKeys() []string {
	keys := make([]string, 0, len(e.Services))
	for _, s := range e.Services {
		keys = append(keys, s.Key())
	}
	return keys
}

// Entries returns the recorded entries in creation order.
func (p *Plan) Entries() []*Entry {
	out := make([]*Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Lookup returns the entries registering the service with the given key.
func (p *Plan) Lookup(serviceKey string) []*Entry {
	var out []*Entry
	for _, e := range p.entries {
		if contains(e.ServiceKeys(), serviceKey) {
			out = append(out, e)
		}
	}
	return out
}

// Ambiguity is a service (and name) bound by more than one implementation.
type Ambiguity struct {
	Service         string   `json:"service" yaml:"service"`
	Name            string   `json:"name,omitempty" yaml:"name,omitempty"`
	Implementations []string `json:"implementations" yaml:"implementations"`
}

// Ambiguities reports services that resolve to several implementations
// under the same name. Tagged entries are collections, not ambiguities.
// The result is sorted by service key.
func (p *Plan) Ambiguities() []Ambiguity {
	type slot struct{ service, name string }
	impls := make(map[slot][]string)
	var order []slot

	for _, e := range p.entries {
		if len(e.Tags) > 0 {
			continue
		}
		for _, key := range e.ServiceKeys() {
			s := slot{service: key, name: e.Name}
			if _, ok := impls[s]; !ok {
				order = append(order, s)
			}
			if !contains(impls[s], e.Implementation.Key()) {
				impls[s] = append(impls[s], e.Implementation.Key())
			}
		}
	}

	var out []Ambiguity
	for _, s := range order {
		if len(impls[s]) < 2 {
			continue
		}
		out = append(out, Ambiguity{Service: s.service, Name: s.name, Implementations: impls[s]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Service != out[j].Service {
			return out[i].Service < out[j].Service
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
