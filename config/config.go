// Package config builds the autobind CLI configuration from conventions:
// go.mod for the module path, //autobind: directives in generate.go, and
// AUTOBIND_* variables from the environment or .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/mod/modfile"

	"github.com/iVampireSP/autobind"
)

var (
	// ErrNoGoMod is returned when no go.mod is found.
	ErrNoGoMod = errors.New("config: go.mod not found in any parent directory")
	// ErrNoModule is returned for a go.mod without a module directive.
	ErrNoModule = errors.New("config: module directive not found in go.mod")
	// ErrUnknownSelector is returned for an unknown selector name.
	ErrUnknownSelector = errors.New("config: unknown selector")
	// ErrUnknownCreator is returned for an unknown creator name.
	ErrUnknownCreator = errors.New("config: unknown creator")
)

// Config holds the autobind CLI configuration.
type Config struct {
	Root   string
	Module string

	Scan             []string // go/packages patterns, relative to Root
	Match            []string // doublestar directory globs, relative to Root
	Exclude          []string // package prefixes, relative to Module
	IgnoreInterfaces []string // nil keeps autobind.DefaultIgnoredInterfaces

	SelectorName string
	CreatorName  string
	Format       string
	Verbose      bool
	Unexported   bool
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Scan:         []string{"./..."},
		SelectorName: "all",
		CreatorName:  "single",
		Format:       "text",
	}
}

// Load builds the configuration for the module rooted at root. Values are
// layered: defaults, then generate.go directives, then .env files (default
// root/.env), then the process environment. Missing .env and generate.go
// files are not errors.
func Load(root string, envFiles ...string) (*Config, error) {
	module, err := parseModulePath(root)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.Root = root
	cfg.Module = module

	if err := cfg.applyGenerateFile(filepath.Join(root, "generate.go")); err != nil {
		return nil, err
	}

	if len(envFiles) == 0 {
		envFiles = []string{filepath.Join(root, ".env")}
	}
	if err := cfg.applyEnv(readEnv(envFiles)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindRoot walks up from dir to the nearest directory containing go.mod.
func FindRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("config: %w", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoGoMod
		}
		dir = parent
	}
}

func parseModulePath(root string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("config: read go.mod: %w", err)
	}
	module := modfile.ModulePath(data)
	if module == "" {
		return "", ErrNoModule
	}
	return module, nil
}

// applyGenerateFile reads //autobind: directives:
//
//	//autobind:scan ./internal/... ./pkg/...
//	//autobind:match internal/**/repository
//	//autobind:exclude ./internal/legacy/...
//	//autobind:ignore-interface io.Closer fmt.Stringer
//	//autobind:selector default-interface
//	//autobind:creator multiple
//	//autobind:unexported
//
// The first scan directive replaces the default pattern; repeated list
// directives accumulate.
func (c *Config) applyGenerateFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read generate.go: %w", err)
	}

	scanSet := false
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "//autobind:") {
			continue
		}
		parts := strings.Fields(strings.TrimPrefix(line, "//autobind:"))
		if len(parts) == 0 {
			continue
		}
		args := parts[1:]

		switch parts[0] {
		case "scan":
			if !scanSet {
				c.Scan = nil
				scanSet = true
			}
			c.Scan = append(c.Scan, args...)
		case "match":
			c.Match = append(c.Match, args...)
		case "exclude":
			c.Exclude = append(c.Exclude, args...)
		case "ignore-interface":
			c.IgnoreInterfaces = append(c.IgnoreInterfaces, args...)
		case "selector":
			if len(args) > 0 {
				c.SelectorName = args[0]
			}
		case "creator":
			if len(args) > 0 {
				c.CreatorName = args[0]
			}
		case "unexported":
			c.Unexported = true
			if len(args) > 0 {
				v, err := strconv.ParseBool(args[0])
				if err != nil {
					return fmt.Errorf("config: generate.go:%d: unexported: %w", i+1, err)
				}
				c.Unexported = v
			}
		}
	}
	return nil
}

// readEnv merges the given .env files. Unreadable files are skipped; the
// first file defining a key wins, as with godotenv.Load.
func readEnv(files []string) map[string]string {
	out := make(map[string]string)
	for _, f := range files {
		vars, err := godotenv.Read(f)
		if err != nil {
			continue
		}
		for k, v := range vars {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
	return out
}

func (c *Config) applyEnv(file map[string]string) error {
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}

	if v, ok := lookup("AUTOBIND_FORMAT"); ok && v != "" {
		c.Format = v
	}
	if v, ok := lookup("AUTOBIND_SELECTOR"); ok && v != "" {
		c.SelectorName = v
	}
	if v, ok := lookup("AUTOBIND_CREATOR"); ok && v != "" {
		c.CreatorName = v
	}
	for key, dst := range map[string]*bool{
		"AUTOBIND_VERBOSE":    &c.Verbose,
		"AUTOBIND_UNEXPORTED": &c.Unexported,
	} {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = b
	}
	return nil
}

// Selector returns the stock service selector named by SelectorName:
// all, self, interfaces, single-interface, default-interface, base, or
// match:<regexp> over service keys.
func (c *Config) Selector() (autobind.ServiceSelector, error) {
	name := c.SelectorName
	if expr, ok := strings.CutPrefix(name, "match:"); ok {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("config: selector %q: %w", name, err)
		}
		return autobind.SelectMatching(re), nil
	}

	switch name {
	case "", "all":
		return autobind.SelectAll, nil
	case "self":
		return autobind.SelectSelf, nil
	case "interfaces":
		return autobind.SelectAllInterfaces, nil
	case "single-interface":
		return autobind.SelectSingleInterface, nil
	case "default-interface":
		return autobind.SelectDefaultInterface, nil
	case "base":
		return autobind.SelectBase, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSelector, name)
	}
}

// Creator returns the binding creator named by CreatorName: single or
// multiple.
func (c *Config) Creator() (autobind.BindingCreator, error) {
	switch c.CreatorName {
	case "", "single":
		return autobind.SingleConfigurationCreator{}, nil
	case "multiple":
		return autobind.MultipleConfigurationCreator{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCreator, c.CreatorName)
	}
}
