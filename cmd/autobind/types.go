package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type candidate struct {
	Key      string `json:"key" yaml:"key"`
	Kind     string `json:"kind" yaml:"kind"`
	Exported bool   `json:"exported" yaml:"exported"`
	Generic  bool   `json:"generic,omitempty" yaml:"generic,omitempty"`
}

func newTypesCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "Print the candidate types of a convention pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, f)
			if err != nil {
				return err
			}
			defer s.log.Sync() //nolint:errcheck

			var out []candidate
			for _, d := range s.builder.Candidates() {
				out = append(out, candidate{
					Key:      d.Key(),
					Kind:     d.Kind.String(),
					Exported: d.Exported,
					Generic:  d.IsGeneric(),
				})
			}

			w := cmd.OutOrStdout()
			switch s.cfg.Format {
			case "", "text":
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TYPE\tKIND")
				for _, c := range out {
					fmt.Fprintf(tw, "%s\t%s\n", c.Key, c.Kind)
				}
				return tw.Flush()
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			case "yaml", "yml":
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(out); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown format %q", s.cfg.Format)
			}
		},
	}
}
