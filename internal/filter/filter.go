package filter

import (
	"regexp"
	"strings"
)

// Node is one predicate in a filter tree. Match must be pure and safe to call from
// multiple goroutines; structural edits (SetEnabled, SetValue, SetPattern) are only
// legal while no evaluation is in flight, which callers guarantee by submitting
// edited trees through the pipeline's settings path.
type Node interface {
	// Match reports whether the line passes the predicate. A disabled node always
	// matches, regardless of its value or children.
	Match(line string) bool
	Enabled() bool
	SetEnabled(enabled bool)
}

// node carries the shared enabled flag. Zero value is enabled.
type node struct {
	disabled bool
}

func (n *node) Enabled() bool           { return !n.disabled }
func (n *node) SetEnabled(enabled bool) { n.disabled = !enabled }

// True is the neutral always-match filter, used as the default before any profile is
// applied.
type True struct {
	node
}

// NewTrue creates the neutral filter.
func NewTrue() *True {
	return &True{}
}

func (t *True) Match(string) bool { return true }

// Substring matches lines containing a literal value. Matching is case-insensitive
// unless the node was created case-sensitive. An empty value or empty line never
// matches.
type Substring struct {
	node
	value         string
	folded        string
	caseSensitive bool
}

// NewSubstring creates a substring leaf.
func NewSubstring(value string, caseSensitive bool) *Substring {
	s := &Substring{caseSensitive: caseSensitive}
	s.SetValue(value)
	return s
}

func (s *Substring) Match(line string) bool {
	if !s.Enabled() {
		return true
	}
	if s.value == "" || line == "" {
		return false
	}
	if s.caseSensitive {
		return strings.Contains(line, s.value)
	}
	return strings.Contains(strings.ToLower(line), s.folded)
}

// SetValue replaces the matched value.
func (s *Substring) SetValue(value string) {
	s.value = value
	s.folded = strings.ToLower(value)
}

func (s *Substring) Value() string       { return s.value }
func (s *Substring) CaseSensitive() bool { return s.caseSensitive }

// Regex matches lines against a compiled pattern. Compilation happens on
// construction and on SetPattern, never during Match; a node holding an invalid
// pattern matches nothing until a valid pattern is set.
type Regex struct {
	node
	pattern       string
	caseSensitive bool
	re            *regexp.Regexp
}

// NewRegex creates a regex leaf. The node is returned even when the pattern does not
// compile so the editing surface can keep it in the tree; the error tells the caller
// the node will not match until corrected.
func NewRegex(pattern string, caseSensitive bool) (*Regex, error) {
	r := &Regex{caseSensitive: caseSensitive}
	err := r.SetPattern(pattern)
	return r, err
}

func (r *Regex) Match(line string) bool {
	if !r.Enabled() {
		return true
	}
	if r.re == nil {
		return false
	}
	return r.re.MatchString(line)
}

// SetPattern recompiles the pattern. On error the previous compiled pattern is
// discarded and the node stops matching.
func (r *Regex) SetPattern(pattern string) error {
	r.pattern = pattern
	r.re = nil
	if pattern == "" {
		return nil
	}
	expr := pattern
	if !r.caseSensitive {
		expr = "(?i)" + pattern
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return err
	}
	r.re = re
	return nil
}

func (r *Regex) Pattern() string     { return r.pattern }
func (r *Regex) CaseSensitive() bool { return r.caseSensitive }

// Valid reports whether the node holds a compiled pattern.
func (r *Regex) Valid() bool { return r.re != nil }
