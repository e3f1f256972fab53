package project

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ClangdName is clangd's per-project config file.
const ClangdName = ".clangd"

// stringList accepts either a scalar or a sequence.
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = []string{node.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	return fmt.Errorf("line %d: expected a string or a list", node.Line)
}

type clangdDoc struct {
	If struct {
		PathMatch   stringList `yaml:"PathMatch"`
		PathExclude stringList `yaml:"PathExclude"`
	} `yaml:"If"`
	CompileFlags struct {
		Add    stringList `yaml:"Add"`
		Remove stringList `yaml:"Remove"`
	} `yaml:"CompileFlags"`
}

type clangdFragment struct {
	match   []*regexp.Regexp
	exclude []*regexp.Regexp
	add     []string
	remove  []string
}

// Clangd holds the CompileFlags fragments of a .clangd file. Only the
// flags that change macros have an effect downstream.
type Clangd struct {
	root      string
	fragments []clangdFragment
}

// LoadClangd parses every YAML document of a .clangd file.
func LoadClangd(path string) (*Clangd, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := &Clangd{root: filepath.Dir(path)}
	dec := yaml.NewDecoder(f)
	for n := 1; ; n++ {
		var doc clangdDoc
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%s: document %d: %w", path, n, err)
		}
		frag := clangdFragment{
			add:    normalizeArgs(doc.CompileFlags.Add),
			remove: normalizeArgs(doc.CompileFlags.Remove),
		}
		if frag.match, err = compileAnchored(doc.If.PathMatch); err != nil {
			return nil, fmt.Errorf("%s: document %d: %w", path, n, err)
		}
		if frag.exclude, err = compileAnchored(doc.If.PathExclude); err != nil {
			return nil, fmt.Errorf("%s: document %d: %w", path, n, err)
		}
		c.fragments = append(c.fragments, frag)
	}
	return c, nil
}

// clangd matches the whole project-relative path.
func compileAnchored(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("^(?:" + p + ")$")
		if err != nil {
			return nil, fmt.Errorf("PathMatch %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Apply rewrites args for the file at path: Remove patterns drop matching
// arguments, then Add arguments are appended.
func (c *Clangd) Apply(path string, args []string) []string {
	if c == nil {
		return args
	}
	rel := filepath.ToSlash(path)
	if r, err := filepath.Rel(c.root, path); err == nil {
		rel = filepath.ToSlash(r)
	}
	out := append([]string(nil), args...)
	for _, frag := range c.fragments {
		if !frag.applies(rel) {
			continue
		}
		if len(frag.remove) > 0 {
			kept := out[:0]
			for _, a := range out {
				if !matchesAny(frag.remove, a) {
					kept = append(kept, a)
				}
			}
			out = kept
		}
		out = append(out, frag.add...)
	}
	return out
}

func (f *clangdFragment) applies(rel string) bool {
	if len(f.match) > 0 && !anyRegexp(f.match, rel) {
		return false
	}
	return !anyRegexp(f.exclude, rel)
}

func anyRegexp(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// matchesAny implements clangd's Remove syntax: an exact flag, or a
// prefix ending in '*'.
func matchesAny(patterns []string, arg string) bool {
	for _, p := range patterns {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			if strings.HasPrefix(arg, prefix) {
				return true
			}
			continue
		}
		if p == arg {
			return true
		}
		// "-DFOO" also removes "-DFOO=1"
		if (strings.HasPrefix(p, "-D") || strings.HasPrefix(p, "-U")) && strings.HasPrefix(arg, p+"=") {
			return true
		}
	}
	return false
}
