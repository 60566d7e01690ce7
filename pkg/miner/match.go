package miner

import "strings"

// matcher decides whether a file path identifies the ADL artifact. It exists
// so ADL identification is not hardwired to exact-path comparison; a future
// glob-aware implementation can satisfy the same interface.
type matcher interface {
	Match(path string) bool
}

// exactPathMatcher matches a single configured path, case-insensitively.
type exactPathMatcher struct {
	path string
}

// newExactPathMatcher builds a matcher for the given ADL path.
func newExactPathMatcher(path string) exactPathMatcher {
	return exactPathMatcher{path: strings.ToLower(path)}
}

// Match reports whether candidate is the configured ADL path, ignoring case.
func (m exactPathMatcher) Match(candidate string) bool {
	return strings.EqualFold(m.path, candidate)
}
