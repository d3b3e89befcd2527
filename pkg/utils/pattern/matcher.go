// Package pattern matches sketch names against shell-style globs.
package pattern

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Matcher caches compiled globs.
type Matcher struct {
	mu       sync.Mutex
	compiled map[string]*regexp.Regexp
}

func NewMatcher() *Matcher {
	return &Matcher{
		compiled: make(map[string]*regexp.Regexp),
	}
}

// Match reports whether name matches glob. Supported wildcards:
//
//	*      any sequence of characters
//	?      any single character
//	[...]  any single character in the brackets
//	\x     the literal character x
//
// A malformed glob matches nothing.
func (m *Matcher) Match(glob, name string) bool {
	if glob == "*" {
		return true
	}

	m.mu.Lock()
	re, ok := m.compiled[glob]
	if !ok {
		var err error
		re, err = regexp.Compile("^" + globToRegex(glob) + "$")
		if err != nil {
			re = nil
		}
		m.compiled[glob] = re
	}
	m.mu.Unlock()

	return re != nil && re.MatchString(name)
}

var defaultMatcher = NewMatcher()

func Match(glob, name string) bool {
	return defaultMatcher.Match(glob, name)
}

func globToRegex(glob string) string {
	var b strings.Builder
	b.Grow(len(glob) * 2)

	inClass := false
	for i := 0; i < len(glob); i++ {
		ch := glob[i]
		switch {
		case ch == '\\' && i < len(glob)-1:
			i++
			b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
		case ch == '\\':
			b.WriteString(`\\`)
		case inClass:
			if ch == ']' {
				inClass = false
			}
			b.WriteByte(ch)
		case ch == '*':
			b.WriteString(".*")
		case ch == '?':
			b.WriteByte('.')
		case ch == '[':
			inClass = true
			b.WriteByte(ch)
		default:
			b.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	return b.String()
}

// IsPattern reports whether s contains an unescaped wildcard.
func IsPattern(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '*', '?', '[':
			return true
		}
	}
	return false
}

// Expand resolves args against the available names. Plain names are kept
// as given, even when absent, so the caller can report them; globs are
// replaced by every matching name in sorted order. Duplicates are dropped.
func Expand(args, names []string) []string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	for _, arg := range args {
		if !IsPattern(arg) {
			add(arg)
			continue
		}
		for _, name := range sorted {
			if Match(arg, name) {
				add(name)
			}
		}
	}
	return out
}

// Filter returns the names matching any of globs. No globs keeps every name.
func Filter(globs, names []string) []string {
	if len(globs) == 0 {
		return names
	}
	var out []string
	for _, name := range names {
		for _, glob := range globs {
			if Match(glob, name) {
				out = append(out, name)
				break
			}
		}
	}
	return out
}
