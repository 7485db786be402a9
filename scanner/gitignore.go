package scanner

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreRule is a single .gitignore pattern.
type IgnoreRule struct {
	Pattern  string
	Negation bool
	DirOnly  bool
	Anchored bool
}

// Gitignore is the ordered rule list of a .gitignore file. Later rules win.
type Gitignore []IgnoreRule

// LoadGitignore parses .gitignore in root. A missing file yields no rules.
func LoadGitignore(root string) Gitignore {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	defer f.Close()

	var rules Gitignore
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if rule, ok := parseIgnoreRule(sc.Text()); ok {
			rules = append(rules, rule)
		}
	}
	return rules
}

func parseIgnoreRule(line string) (IgnoreRule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return IgnoreRule{}, false
	}

	r := IgnoreRule{}
	if strings.HasPrefix(line, "!") {
		r.Negation = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		r.DirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	// A slash anywhere but the end anchors the pattern to the root.
	if strings.Contains(line, "/") {
		r.Anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	r.Pattern = line
	return r, line != ""
}

// Ignored reports whether the slash separated relative path is ignored.
// A path is also ignored when one of its parent directories is.
func (g Gitignore) Ignored(rel string, isDir bool) bool {
	rel = filepath.ToSlash(rel)
	if rel == "" || rel == "." {
		return false
	}

	parts := strings.Split(rel, "/")
	for i := 1; i < len(parts); i++ {
		if g.match(strings.Join(parts[:i], "/"), true) {
			return true
		}
	}
	return g.match(rel, isDir)
}

func (g Gitignore) match(rel string, isDir bool) bool {
	ignored := false
	for _, r := range g {
		if r.DirOnly && !isDir {
			continue
		}
		if r.matches(rel) {
			ignored = !r.Negation
		}
	}
	return ignored
}

func (r IgnoreRule) matches(rel string) bool {
	if r.Anchored {
		ok, _ := doublestar.Match(r.Pattern, rel)
		return ok
	}
	// Unanchored patterns match the basename at any depth.
	ok, _ := doublestar.Match(r.Pattern, rel[strings.LastIndex(rel, "/")+1:])
	return ok
}
