// Package pattern implements the default path matcher behind the router's
// Matcher interface. A compiled Set maps a concrete request path to the
// registered patterns that match it, most specific first, together with
// the path parameters each pattern extracted.
//
// Pattern syntax follows the usual routing conventions: static segments
// (/users/me), named parameters (/users/{id}), regexp-constrained
// parameters (/users/{id:[0-9]+}), and a trailing catch-all (/static/*).
// Per segment, static beats regexp beats parameter beats catch-all;
// registration order breaks ties between equally specific patterns.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Pattern compilation errors.
var (
	ErrInvalidPattern   = errors.New("pattern: routing pattern must begin with '/'")
	ErrInvalidRegexp    = errors.New("pattern: invalid regexp in route param")
	ErrParamDelimiter   = errors.New("pattern: route param closing delimiter '}' is missing")
	ErrDuplicateParam   = errors.New("pattern: routing pattern contains duplicate param key")
	ErrWildcardPosition = errors.New("pattern: wildcard '*' must be the last segment")
)

// CatchAllKey is the params key under which a trailing wildcard stores the
// remainder of the path.
const CatchAllKey = "*"

type segTyp uint8

// Segment kinds in decreasing match priority.
const (
	segStatic segTyp = iota
	segRegexp
	segParam
	segCatchAll
)

type segment struct {
	typ segTyp
	lit string
	key string
	rex *regexp.Regexp
}

type compiled struct {
	index    int
	segs     []segment
	rank     []segTyp
	catchAll bool
}

// Match couples a pattern's registration index with the parameters it
// extracted from a concrete path.
type Match struct {
	Index  int
	Params map[string]string
}

// Set is an immutable compiled pattern set.
type Set struct {
	patterns []compiled
}

// Compile parses and validates the given patterns, preserving their
// indexes, and orders them internally by specificity so Match can report
// candidates best-first with a plain scan.
func Compile(patterns []string) (*Set, error) {
	compiledSet := make([]compiled, 0, len(patterns))
	for i, p := range patterns {
		cp, err := parse(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, p)
		}
		cp.index = i
		compiledSet = append(compiledSet, cp)
	}
	sort.SliceStable(compiledSet, func(i, j int) bool {
		return moreSpecific(compiledSet[i], compiledSet[j])
	})
	return &Set{patterns: compiledSet}, nil
}

// Match returns every pattern matching path, most specific first, with the
// parameters each one extracted. Trailing slashes are ignored.
func (s *Set) Match(path string) []Match {
	parts := splitPath(path)
	var matches []Match
	for _, p := range s.patterns {
		if params, ok := p.match(parts); ok {
			matches = append(matches, Match{Index: p.index, Params: params})
		}
	}
	return matches
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func parse(pattern string) (compiled, error) {
	if pattern == "" || pattern[0] != '/' {
		return compiled{}, ErrInvalidPattern
	}

	raw := splitPath(pattern)
	cp := compiled{
		segs: make([]segment, 0, len(raw)),
		rank: make([]segTyp, 0, len(raw)),
	}
	seen := make(map[string]struct{}, len(raw))

	for i, part := range raw {
		seg, err := parseSegment(part)
		if err != nil {
			return compiled{}, err
		}
		if seg.typ == segCatchAll {
			if i != len(raw)-1 {
				return compiled{}, ErrWildcardPosition
			}
			cp.catchAll = true
		}
		if seg.key != "" {
			if _, dup := seen[seg.key]; dup {
				return compiled{}, ErrDuplicateParam
			}
			seen[seg.key] = struct{}{}
		}
		cp.segs = append(cp.segs, seg)
		cp.rank = append(cp.rank, seg.typ)
	}
	return cp, nil
}

func parseSegment(part string) (segment, error) {
	if part == CatchAllKey {
		return segment{typ: segCatchAll, key: CatchAllKey}, nil
	}
	if strings.Contains(part, "*") {
		return segment{}, ErrWildcardPosition
	}
	if strings.HasPrefix(part, "{") {
		if !strings.HasSuffix(part, "}") {
			return segment{}, ErrParamDelimiter
		}
		inner := part[1 : len(part)-1]
		key, rexStr, hasRex := strings.Cut(inner, ":")
		if key == "" {
			return segment{}, ErrParamDelimiter
		}
		if hasRex {
			rex, err := regexp.Compile("^(?:" + rexStr + ")$")
			if err != nil {
				return segment{}, ErrInvalidRegexp
			}
			return segment{typ: segRegexp, key: key, rex: rex}, nil
		}
		return segment{typ: segParam, key: key}, nil
	}
	if strings.ContainsAny(part, "{}") {
		return segment{}, ErrParamDelimiter
	}
	return segment{typ: segStatic, lit: part}, nil
}

// match tests the pattern against the split path, extracting parameters.
func (p compiled) match(parts []string) (map[string]string, bool) {
	if p.catchAll {
		// The catch-all segment itself may match zero segments.
		if len(parts) < len(p.segs)-1 {
			return nil, false
		}
	} else if len(parts) != len(p.segs) {
		return nil, false
	}

	var params map[string]string
	set := func(key, val string) {
		if params == nil {
			params = make(map[string]string)
		}
		params[key] = val
	}

	for i, seg := range p.segs {
		switch seg.typ {
		case segStatic:
			if parts[i] != seg.lit {
				return nil, false
			}
		case segParam:
			if parts[i] == "" {
				return nil, false
			}
			set(seg.key, parts[i])
		case segRegexp:
			if !seg.rex.MatchString(parts[i]) {
				return nil, false
			}
			set(seg.key, parts[i])
		case segCatchAll:
			set(seg.key, strings.Join(parts[i:], "/"))
			return params, true
		}
	}
	return params, true
}

// moreSpecific orders patterns for best-first matching: compare segment
// kinds left to right, prefer the longer pattern on a shared prefix, and
// fall back to registration order.
func moreSpecific(a, b compiled) bool {
	n := len(a.rank)
	if len(b.rank) < n {
		n = len(b.rank)
	}
	for i := 0; i < n; i++ {
		if a.rank[i] != b.rank[i] {
			return a.rank[i] < b.rank[i]
		}
	}
	if len(a.rank) != len(b.rank) {
		return len(a.rank) > len(b.rank)
	}
	return a.index < b.index
}
