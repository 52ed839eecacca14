package jwtgate

import (
	"fmt"
	"regexp"
)

// Whitelist is a compiled, ordered set of path patterns exempt from
// authentication. A path matches when any pattern is found anywhere in it;
// patterns are not anchored, so callers that need exact matching must
// anchor them with ^ and $.
type Whitelist struct {
	patterns []*regexp.Regexp
}

// CompileWhitelist compiles patterns in order. It fails with
// ErrInvalidWhitelist on the first pattern that is not a valid regular
// expression.
func CompileWhitelist(patterns []string) (Whitelist, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return Whitelist{}, fmt.Errorf("%w: %q: %v", ErrInvalidWhitelist, p, err)
		}
		compiled = append(compiled, re)
	}
	return Whitelist{patterns: compiled}, nil
}

// Match reports whether path is exempt. An empty whitelist exempts nothing.
func (w Whitelist) Match(path string) bool {
	for _, re := range w.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// Len returns the number of compiled patterns.
func (w Whitelist) Len() int {
	return len(w.patterns)
}

// IsWhitelisted compiles patterns and matches path against them. Invalid
// patterns never match. Gates use the Whitelist compiled at Build time
// instead.
func IsWhitelisted(path string, patterns []string) bool {
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
