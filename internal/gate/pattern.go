package gate

import (
	"fmt"
	"strings"
)

type segmentKind int

const (
	segExact segmentKind = iota
	segParam
	segWildcard
)

type segment struct {
	kind    segmentKind
	literal string // segExact: the literal token
	name    string // segParam: the parameter name
}

// Pattern is a route template compiled once at registration into an ordered
// list of segment matchers. Exact segments match their literal token, Param
// segments bind any non-separator token, and a Wildcard consumes the
// remainder and may only appear as the final segment.
type Pattern struct {
	raw      string
	segments []segment
	wildcard bool
	variable int // Param + Wildcard segment count, for specificity ordering
}

// CompilePattern parses a route template such as /api/v1/accounts/{id} or
// /api/v1/reports/*.
func CompilePattern(raw string) (*Pattern, error) {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return nil, fmt.Errorf("empty path pattern %q", raw)
	}

	tokens := strings.Split(trimmed, "/")
	p := &Pattern{raw: raw, segments: make([]segment, 0, len(tokens))}

	for i, token := range tokens {
		switch {
		case token == "*":
			if i != len(tokens)-1 {
				return nil, fmt.Errorf("pattern %q: wildcard must be the final segment", raw)
			}
			p.segments = append(p.segments, segment{kind: segWildcard})
			p.wildcard = true
			p.variable++
		case strings.HasPrefix(token, "{") && strings.HasSuffix(token, "}"):
			name := token[1 : len(token)-1]
			if name == "" {
				return nil, fmt.Errorf("pattern %q: empty parameter name", raw)
			}
			p.segments = append(p.segments, segment{kind: segParam, name: name})
			p.variable++
		case strings.ContainsAny(token, "{}*"):
			return nil, fmt.Errorf("pattern %q: malformed segment %q", raw, token)
		case token == "":
			return nil, fmt.Errorf("pattern %q: empty segment", raw)
		default:
			p.segments = append(p.segments, segment{kind: segExact, literal: token})
		}
	}

	return p, nil
}

// String returns the original template.
func (p *Pattern) String() string {
	return p.raw
}

// Match matches path segment-by-segment and returns the bound parameters.
// A trailing wildcard consumes any remainder, including an empty one.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	parts := splitPath(path)

	fixed := len(p.segments)
	if p.wildcard {
		fixed--
		if len(parts) < fixed {
			return nil, false
		}
	} else if len(parts) != fixed {
		return nil, false
	}

	var params map[string]string
	for i := 0; i < fixed; i++ {
		seg := p.segments[i]
		switch seg.kind {
		case segExact:
			if parts[i] != seg.literal {
				return nil, false
			}
		case segParam:
			if parts[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[seg.name] = parts[i]
		}
	}

	return params, true
}

// paramNames returns the pattern's parameter names in segment order.
func (p *Pattern) paramNames() []string {
	var names []string
	for _, seg := range p.segments {
		if seg.kind == segParam {
			names = append(names, seg.name)
		}
	}
	return names
}

// compareSpecificity orders patterns Exact > Param > Wildcard: fewer
// variable segments is more specific, and among equals a pattern without a
// trailing wildcard beats one with. Returns <0 when a is more specific,
// >0 when b is, 0 on a tie (resolved by registration order).
func compareSpecificity(a, b *Pattern) int {
	if a.variable != b.variable {
		return a.variable - b.variable
	}
	switch {
	case a.wildcard == b.wildcard:
		return 0
	case b.wildcard:
		return -1
	default:
		return 1
	}
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
