package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iVampireSP/autobind"
	"github.com/iVampireSP/autobind/config"
	"github.com/iVampireSP/autobind/scanner"
)

// flags are the persistent flags shared by every subcommand.
type flags struct {
	dir             string
	verbose         bool
	selector        string
	creator         string
	format          string
	unexported      bool
	ignoreInterface []string
	match           []string
}

func newRootCommand() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:          "autobind",
		Short:        "Plan convention based service registrations for Go packages",
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.dir, "dir", ".", "any directory inside the module; scanning starts at the module root")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&f.selector, "selector", "", "service selector: all, self, interfaces, single-interface, default-interface, base, match:<regexp>")
	pf.StringVar(&f.creator, "creator", "", "binding creator: single or multiple")
	pf.StringVar(&f.format, "format", "", "output format: text, json or yaml")
	pf.BoolVar(&f.unexported, "unexported", false, "include unexported types")
	pf.StringSliceVar(&f.ignoreInterface, "ignore-interface", nil, "interface keys never bound, replacing the default (error)")
	pf.StringSliceVar(&f.match, "match", nil, "doublestar globs selecting package directories instead of scan patterns")

	cmd.AddCommand(newPlanCommand(f), newTypesCommand(f))
	return cmd
}

// session is one configured scan: the configuration, the finder holding the
// loaded packages and a builder seeded with their types.
type session struct {
	cfg     *config.Config
	log     *zap.Logger
	finder  *scanner.Finder
	builder *autobind.Builder
}

func openSession(cmd *cobra.Command, f *flags) (*session, error) {
	root, err := config.FindRoot(f.dir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	f.override(cmd, cfg)

	log, err := newLogger(cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.Debug("configuration loaded",
		zap.String("module", cfg.Module),
		zap.String("root", cfg.Root),
		zap.Strings("scan", cfg.Scan),
		zap.Strings("match", cfg.Match))

	finder := scanner.New(cfg.Root,
		scanner.Exclude(cfg.Exclude...),
		scanner.WithLogger(log.Named("scanner")))
	b := autobind.NewBuilder(autobind.WithLogger(log.Named("builder")))
	log.Debug("scanning module", zap.String("dir", finder.Dir()))

	src := autobind.From(finder, b)
	if len(cfg.Match) > 0 {
		err = src.Matching(cfg.Match, nil)
	} else {
		err = src.Modules(cfg.Scan, nil)
	}
	if err != nil {
		return nil, err
	}

	b.Where(finder.Universe().NotIgnored)
	if cfg.Unexported {
		b.IncludingNonPublicTypes()
	}
	return &session{cfg: cfg, log: log, finder: finder, builder: b}, nil
}

// override applies the flags the user set explicitly.
func (f *flags) override(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if changed("selector") {
		cfg.SelectorName = f.selector
	}
	if changed("creator") {
		cfg.CreatorName = f.creator
	}
	if changed("format") {
		cfg.Format = f.format
	}
	if changed("unexported") {
		cfg.Unexported = f.unexported
	}
	if changed("ignore-interface") {
		cfg.IgnoreInterfaces = f.ignoreInterface
	}
	if changed("match") {
		cfg.Match = f.match
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
