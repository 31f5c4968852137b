package knockoff

import (
	"strings"
)

// AntPathPartType represents the type of a pattern segment
type AntPathPartType int

const (
	StaticPart AntPathPartType = iota
	WildcardPart
	DoubleWildcardPart
	AlternativePart
)

// AntPathPart represents a single segment of an ant-style pattern
type AntPathPart struct {
	Type         AntPathPartType
	Value        string   // literal text for static parts
	Alternatives []string // choices for alternative parts (a|b|c)
}

// Matches reports whether a single path segment satisfies this part.
// DoubleWildcardPart is handled by the matcher, not here.
func (p AntPathPart) Matches(segment string) bool {
	switch p.Type {
	case WildcardPart:
		return true
	case AlternativePart:
		for _, alt := range p.Alternatives {
			if alt == segment {
				return true
			}
		}
		return false
	case StaticPart:
		return p.Value == segment
	default:
		return false
	}
}

// AntPathMatcher matches separator-delimited paths against ant-style patterns.
// The same algorithm serves HTTP paths ("/") and pointcut expressions (".").
type AntPathMatcher struct {
	Separator string
}

// NewAntPathMatcher creates a matcher for the given separator
func NewAntPathMatcher(separator string) *AntPathMatcher {
	return &AntPathMatcher{Separator: separator}
}

// NewPointcutMatcher creates a matcher for dot-separated method paths
func NewPointcutMatcher() *AntPathMatcher {
	return NewAntPathMatcher(".")
}

// Parts parses a pattern into its segments
func (m *AntPathMatcher) Parts(pattern string) []AntPathPart {
	segments := strings.Split(pattern, m.separator())
	parts := make([]AntPathPart, 0, len(segments))

	for _, segment := range segments {
		switch {
		case segment == "**":
			parts = append(parts, AntPathPart{Type: DoubleWildcardPart, Value: segment})
		case segment == "*":
			parts = append(parts, AntPathPart{Type: WildcardPart, Value: segment})
		case strings.Contains(segment, "|"):
			parts = append(parts, AntPathPart{
				Type:         AlternativePart,
				Value:        segment,
				Alternatives: strings.Split(segment, "|"),
			})
		default:
			parts = append(parts, AntPathPart{Type: StaticPart, Value: segment})
		}
	}

	return parts
}

// Match reports whether path satisfies pattern.
// Segments are compared left to right: "*" consumes exactly one segment,
// "**" accepts whatever remains, and "a|b" accepts either literal.
func (m *AntPathMatcher) Match(pattern, path string) bool {
	parts := m.Parts(pattern)
	segments := strings.Split(path, m.separator())

	i := 0
	for _, part := range parts {
		if part.Type == DoubleWildcardPart {
			return true
		}
		if i >= len(segments) {
			return false
		}
		if !part.Matches(segments[i]) {
			return false
		}
		i++
	}

	return i == len(segments)
}

func (m *AntPathMatcher) separator() string {
	if m.Separator == "" {
		return "/"
	}
	return m.Separator
}
