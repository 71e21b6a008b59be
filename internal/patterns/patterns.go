package patterns

import (
	"fmt"
	"os"
	"regexp"

	"github.com/benvon/absolutely-right/internal/validation"
	"gopkg.in/yaml.v3"
)

const (
	// Highlight is the pattern that additionally gets a per-project breakdown
	Highlight = "absolutely"
	// Secondary is the second pattern shown in reports and uploads
	Secondary = "right"
)

// Pattern is a named regular expression tracked across all messages
type Pattern struct {
	Name  string `yaml:"name" validate:"required,max=64"`
	Expr  string `yaml:"expr" validate:"required,regexp"`
	Label string `yaml:"label,omitempty" validate:"max=128"`
}

// File is the on-disk layout of a pattern file
type File struct {
	Patterns []Pattern `yaml:"patterns" validate:"required,min=1,unique=Name,dive"`
}

// Defaults returns the built-in pattern list
func Defaults() []Pattern {
	return []Pattern{
		{Name: Highlight, Expr: `You(?:'re| are) absolutely right`, Label: "absolutely right"},
		{Name: Secondary, Expr: `You(?:'re| are) right`},
	}
}

type compiled struct {
	name string
	re   *regexp.Regexp
}

// Set is a fixed, compiled set of case-insensitive patterns.
// Order follows declaration order.
type Set struct {
	patterns []Pattern
	compiled []compiled
}

// Compile validates and compiles the given patterns
func Compile(list []Pattern) (*Set, error) {
	if err := validation.Validate.Struct(File{Patterns: list}); err != nil {
		return nil, fmt.Errorf("invalid patterns: %w", err)
	}

	s := &Set{patterns: append([]Pattern(nil), list...)}
	for _, p := range list {
		re, err := regexp.Compile("(?i)" + p.Expr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %q: %w", p.Name, err)
		}
		s.compiled = append(s.compiled, compiled{name: p.Name, re: re})
	}
	return s, nil
}

// MustDefaults compiles the built-in patterns, panicking on failure
func MustDefaults() *Set {
	s, err := Compile(Defaults())
	if err != nil {
		panic(fmt.Sprintf("built-in patterns do not compile: %v", err))
	}
	return s
}

// LoadFile reads a YAML pattern file and compiles it.
// An empty path yields the built-in defaults.
func LoadFile(path string) (*Set, error) {
	if path == "" {
		return Compile(Defaults())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse pattern file: %w", err)
	}

	return Compile(f.Patterns)
}

// Names returns pattern names in declaration order
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.compiled))
	for _, c := range s.compiled {
		names = append(names, c.name)
	}
	return names
}

// Patterns returns a copy of the source definitions
func (s *Set) Patterns() []Pattern {
	return append([]Pattern(nil), s.patterns...)
}

// Labels maps each pattern name to its display label, falling back to the name
func (s *Set) Labels() map[string]string {
	labels := make(map[string]string, len(s.patterns))
	for _, p := range s.patterns {
		labels[p.Name] = p.Name
		if p.Label != "" {
			labels[p.Name] = p.Label
		}
	}
	return labels
}

// Has reports whether a pattern with the given name is part of the set
func (s *Set) Has(name string) bool {
	for _, c := range s.compiled {
		if c.name == name {
			return true
		}
	}
	return false
}

// Match returns the names of every pattern matching anywhere in text
func (s *Set) Match(text string) []string {
	var matched []string
	for _, c := range s.compiled {
		if c.re.MatchString(text) {
			matched = append(matched, c.name)
		}
	}
	return matched
}
