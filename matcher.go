package conduit

import "github.com/dmitrymomot/conduit/pattern"

// Match couples a registered pattern's index with the path parameters it
// extracted from a concrete path.
type Match struct {
	Index  int
	Params map[string]string
}

// Matcher maps a request path to the registered patterns that match it,
// ordered most specific first. The router consumes it as a black box: it
// never inspects pattern syntax itself, only walks the candidates.
type Matcher interface {
	Match(path string) []Match
}

// MatcherCompiler builds a Matcher from the router's registered patterns,
// in registration order. The router rebuilds the matcher lazily after any
// registration invalidated it.
type MatcherCompiler func(patterns []string) (Matcher, error)

// DefaultMatcher compiles patterns with the pattern package. Routers use
// it unless configured with WithMatcher.
func DefaultMatcher(patterns []string) (Matcher, error) {
	set, err := pattern.Compile(patterns)
	if err != nil {
		return nil, err
	}
	return patternMatcher{set: set}, nil
}

type patternMatcher struct {
	set *pattern.Set
}

func (m patternMatcher) Match(path string) []Match {
	raw := m.set.Match(path)
	if len(raw) == 0 {
		return nil
	}
	matches := make([]Match, len(raw))
	for i, r := range raw {
		matches[i] = Match{Index: r.Index, Params: r.Params}
	}
	return matches
}
