package plan

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Report is the serializable form of a plan.
type Report struct {
	Entries     []ReportEntry `json:"entries" yaml:"entries"`
	Ambiguities []Ambiguity   `json:"ambiguities,omitempty" yaml:"ambiguities,omitempty"`
}

// ReportEntry is the serializable form of an Entry.
type ReportEntry struct {
	Implementation string         `json:"implementation" yaml:"implementation"`
	Services       []string       `json:"services" yaml:"services"`
	Scope          string         `json:"scope" yaml:"scope"`
	Name           string         `json:"name,omitempty" yaml:"name,omitempty"`
	Tags           []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Report builds the serializable form of the plan.
func (p *Plan) Report() Report {
	r := Report{
		Entries:     make([]ReportEntry, 0, len(p.entries)),
		Ambiguities: p.Ambiguities(),
	}
	for _, e := range p.entries {
		r.Entries = append(r.Entries, ReportEntry{
			Implementation: e.Implementation.Key(),
			Services:       e.ServiceKeys(),
			Scope:          string(e.Scope),
			Name:           e.Name,
			Tags:           e.Tags,
			Metadata:       e.Metadata,
		})
	}
	return r
}

// WriteText renders the report as an aligned table followed by warnings.
func (r Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "IMPLEMENTATION\tSCOPE\tNAME\tSERVICES")
	for _, e := range r.Entries {
		name := e.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Implementation, e.Scope, name, strings.Join(e.Services, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, a := range r.Ambiguities {
		impls := append([]string(nil), a.Implementations...)
		sort.Strings(impls)
		label := a.Service
		if a.Name != "" {
			label += " (" + a.Name + ")"
		}
		if _, err := fmt.Fprintf(w, "warning: %s is bound by %d implementations: %s\n",
			label, len(impls), strings.Join(impls, ", ")); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON renders the report as indented JSON.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteYAML renders the report as YAML.
func (r Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

// Write renders the report in the named format: text, json or yaml.
func (r Report) Write(w io.Writer, format string) error {
	switch format {
	case "", "text":
		return r.WriteText(w)
	case "json":
		return r.WriteJSON(w)
	case "yaml", "yml":
		return r.WriteYAML(w)
	default:
		return fmt.Errorf("plan: unknown report format %q", format)
	}
}
