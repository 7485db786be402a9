package autobind

import (
	"regexp"
	"strings"
)

// ServiceSelector decides which of the candidate abstractions of t are
// registered. Implementations must be deterministic for a given input.
type ServiceSelector func(t *Descriptor, candidates []*Descriptor) []*Descriptor

// SelectAll selects t itself followed by every candidate.
func SelectAll(t *Descriptor, candidates []*Descriptor) []*Descriptor {
	out := make([]*Descriptor, 0, len(candidates)+1)
	out = append(out, t)
	out = append(out, candidates...)
	return unique(out)
}

// SelectSelf selects only t.
func SelectSelf(t *Descriptor, _ []*Descriptor) []*Descriptor {
	return []*Descriptor{t}
}

// SelectAllInterfaces selects every interface candidate.
func SelectAllInterfaces(_ *Descriptor, candidates []*Descriptor) []*Descriptor {
	return pick(candidates, (*Descriptor).IsInterface)
}

// SelectBase selects every embedded base type candidate.
func SelectBase(_ *Descriptor, candidates []*Descriptor) []*Descriptor {
	return pick(candidates, func(d *Descriptor) bool { return !d.IsInterface() })
}

// SelectSingleInterface selects the only interface candidate. Types offering
// zero or several interfaces select nothing.
func SelectSingleInterface(t *Descriptor, candidates []*Descriptor) []*Descriptor {
	ifaces := SelectAllInterfaces(t, candidates)
	if len(ifaces) != 1 {
		return nil
	}
	return ifaces
}

// SelectDefaultInterface selects the interfaces whose name ends the type
// name, ignoring case and an "Impl" suffix:
//
//	sqlRepository -> Repository
//	LoggerImpl    -> Logger
func SelectDefaultInterface(t *Descriptor, candidates []*Descriptor) []*Descriptor {
	name := strings.ToLower(strings.TrimSuffix(baseName(t.Name), "Impl"))
	return pick(candidates, func(d *Descriptor) bool {
		return d.IsInterface() && strings.HasSuffix(name, strings.ToLower(baseName(d.Name)))
	})
}

// SelectMatching selects the interfaces whose name matches re.
func SelectMatching(re *regexp.Regexp) ServiceSelector {
	return func(_ *Descriptor, candidates []*Descriptor) []*Descriptor {
		return pick(candidates, func(d *Descriptor) bool {
			return d.IsInterface() && re.MatchString(d.Name)
		})
	}
}

// Filter keeps the types chosen by sel that also satisfy pred.
func Filter(sel ServiceSelector, pred func(*Descriptor) bool) ServiceSelector {
	return func(t *Descriptor, candidates []*Descriptor) []*Descriptor {
		return pick(sel(t, candidates), pred)
	}
}

// Without removes the given keys from the types chosen by sel.
//
//	autobind.Without(autobind.SelectAll, "io.Closer")
func Without(sel ServiceSelector, keys ...string) ServiceSelector {
	excluded := make(map[string]bool, len(keys))
	for _, k := range keys {
		excluded[k] = true
	}
	return Filter(sel, func(d *Descriptor) bool { return !excluded[d.Key()] })
}

func pick(ds []*Descriptor, keep func(*Descriptor) bool) []*Descriptor {
	var out []*Descriptor
	for _, d := range ds {
		if d != nil && keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// baseName strips type arguments: "Store[int]" -> "Store".
func baseName(name string) string {
	if i := strings.IndexByte(name, '['); i >= 0 {
		return name[:i]
	}
	return name
}
