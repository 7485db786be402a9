package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iVampireSP/autobind"
	"github.com/iVampireSP/autobind/plan"
	"github.com/iVampireSP/autobind/scanner"
)

func newPlanCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the registrations a convention pass produces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, f)
			if err != nil {
				return err
			}
			defer s.log.Sync() //nolint:errcheck

			p, err := s.plan()
			if err != nil {
				return err
			}
			for _, a := range p.Ambiguities() {
				s.log.Warn("ambiguous service",
					zap.String("service", a.Service),
					zap.String("name", a.Name),
					zap.Strings("implementations", a.Implementations))
			}
			return p.Report().Write(cmd.OutOrStdout(), s.cfg.Format)
		},
	}
}

// plan runs one convention pass into a recording root and applies the
// //autobind: annotations of each implementation.
func (s *session) plan() (*plan.Plan, error) {
	selector, err := s.cfg.Selector()
	if err != nil {
		return nil, err
	}
	creator, err := s.cfg.Creator()
	if err != nil {
		return nil, err
	}

	var opts []autobind.ResolverOption
	if s.cfg.IgnoreInterfaces != nil {
		opts = append(opts, autobind.IgnoreInterfaces(s.cfg.IgnoreInterfaces...))
	}
	resolver := autobind.NewBindableTypeSelector(s.finder.Universe(), opts...)
	gen := autobind.NewSelectorGenerator(creator, selector, resolver)

	p := plan.New()
	if err := s.builder.BindWith(gen, p); err != nil {
		return nil, err
	}
	if err := applyAnnotations(s.builder, s.finder.Universe()); err != nil {
		return nil, err
	}
	return p, nil
}

// applyAnnotations configures the registrations of every candidate carrying
// scope, name or tag annotations.
func applyAnnotations(b *autobind.Builder, u *scanner.Universe) error {
	for _, d := range b.Candidates() {
		ann := u.Annotations(d)
		if len(ann) == 0 {
			continue
		}

		var scope autobind.Scope
		if vals := scanner.GetAnnotationValues(ann, scanner.AnnotScope); len(vals) > 0 {
			s, err := parseScope(vals[len(vals)-1])
			if err != nil {
				return fmt.Errorf("%s: %w", d.Key(), err)
			}
			scope = s
		}
		var name string
		if vals := scanner.GetAnnotationValues(ann, scanner.AnnotName); len(vals) > 0 {
			name = vals[len(vals)-1]
		}
		var tags []string
		for _, v := range scanner.GetAnnotationValues(ann, scanner.AnnotTag) {
			tags = append(tags, strings.Fields(v)...)
		}
		if scope == "" && name == "" && len(tags) == 0 {
			continue
		}

		err := b.ConfigureFor(d, func(r autobind.Registration) {
			if scope != "" {
				r.InScope(scope)
			}
			if name != "" {
				r.Named(name)
			}
			if len(tags) > 0 {
				r.Tagged(tags...)
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func parseScope(s string) (autobind.Scope, error) {
	switch scope := autobind.Scope(strings.ToLower(s)); scope {
	case autobind.ScopeTransient, autobind.ScopeRequest, autobind.ScopeSingleton:
		return scope, nil
	default:
		return "", fmt.Errorf("unknown scope %q", s)
	}
}
