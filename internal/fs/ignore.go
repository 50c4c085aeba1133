package fs

import (
	"path/filepath"
	"strings"
)

// DefaultIgnorePatterns leave out compiled artifacts and temporary files.
var DefaultIgnorePatterns = []string{"*.pyc", "tmp*"}

// ignorePattern is a parsed ignore pattern with its matching strategy.
type ignorePattern struct {
	pattern   string
	matchPath bool // true = match against relative path; false = match against basename only
}

// IgnoreMatcher checks entries of a copied directory against a set of ignore patterns.
// Patterns without '/' match against the entry's basename only.
// Patterns with '/' match against the full path relative to the copied directory.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher creates an IgnoreMatcher from raw pattern strings.
// Blank entries and entries starting with '#' are skipped, as are patterns
// that filepath.Match rejects.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	var patterns []ignorePattern
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		if _, err := filepath.Match(raw, ""); err != nil {
			continue
		}
		patterns = append(patterns, ignorePattern{
			pattern:   filepath.ToSlash(raw),
			matchPath: strings.Contains(raw, "/"),
		})
	}
	return &IgnoreMatcher{patterns: patterns}
}

// Match reports whether the given relative path should be ignored.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	if len(m.patterns) == 0 || relativePath == "" {
		return false
	}

	normalized := filepath.ToSlash(relativePath)
	basename := filepath.Base(relativePath)

	for _, p := range m.patterns {
		target := basename
		if p.matchPath {
			target = normalized
		}
		if matched, _ := filepath.Match(p.pattern, target); matched {
			return true
		}
	}
	return false
}
