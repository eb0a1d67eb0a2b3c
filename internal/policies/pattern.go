package policies

import (
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

type patternKind int

const (
	patternGlob patternKind = iota
	patternInclude
)

// Pattern is a shell style glob (`*`, `?`, `[...]`, `{a,b}`) with
// specificity ordering. Equality against a plain string compares the
// source text, matching is a separate operation.
type Pattern struct {
	source  string
	kind    patternKind
	matcher glob.Glob
}

func NewPattern(source string) Pattern {
	p := Pattern{source: source, kind: patternGlob}
	if source == "" {
		return p
	}
	compiled, err := glob.Compile(braceSafe(source))
	if err == nil {
		p.matcher = compiled
	}
	return p
}

// NewIncludePattern matches any candidate containing source.
func NewIncludePattern(source string) Pattern {
	return Pattern{source: source, kind: patternInclude}
}

func NewPatterns(sources []string) []Pattern {
	patterns := make([]Pattern, 0, len(sources))
	for _, source := range sources {
		patterns = append(patterns, NewPattern(source))
	}
	return patterns
}

func (p Pattern) String() string {
	return p.source
}

func (p Pattern) Equal(text string) bool {
	return p.source == text
}

// Wildcard reports whether the pattern contains `*`.
func (p Pattern) Wildcard() bool {
	return strings.Contains(p.source, "*")
}

func (p Pattern) Matches(candidate string) bool {
	if p.kind == patternInclude {
		return strings.Contains(candidate, p.source)
	}
	if p.source == "" {
		return candidate == ""
	}
	if p.matcher == nil {
		return p.source == candidate
	}
	return p.matcher.Match(candidate)
}

// Compare orders by specificity: negative when p is more specific than
// other. Literal patterns sort before wildcard ones and compare
// lexicographically among themselves.
func (p Pattern) Compare(other Pattern) int {
	pWild := p.Wildcard()
	oWild := other.Wildcard()
	switch {
	case pWild && !oWild:
		return 1
	case !pWild && oWild:
		return -1
	case !pWild && !oWild:
		return strings.Compare(p.source, other.source)
	}
	if p.source == other.source {
		return 0
	}
	pLiteral := literalLength(p.source)
	oLiteral := literalLength(other.source)
	if pLiteral != oLiteral {
		if pLiteral > oLiteral {
			return -1
		}
		return 1
	}
	return strings.Compare(p.source, other.source)
}

// SortPatterns returns a copy ordered most specific first.
func SortPatterns(patterns []Pattern) []Pattern {
	sorted := append([]Pattern(nil), patterns...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Compare(sorted[j]) < 0
	})
	return sorted
}

func FilterPatterns(candidate string, patterns []Pattern) []Pattern {
	var matched []Pattern
	for _, pattern := range patterns {
		if pattern.Matches(candidate) {
			matched = append(matched, pattern)
		}
	}
	return matched
}

// BestMatch returns the most specific pattern matching candidate.
func BestMatch(candidate string, patterns []Pattern) (Pattern, bool) {
	matched := SortPatterns(FilterPatterns(candidate, patterns))
	if len(matched) == 0 {
		return Pattern{}, false
	}
	return matched[0], true
}

func literalLength(source string) int {
	return len(source) - strings.Count(source, "*")
}

// braceSafe escapes brace characters when the groups are unbalanced so
// they match literally.
func braceSafe(source string) string {
	depth := 0
	balanced := true
	for _, r := range source {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				balanced = false
			}
		}
	}
	if balanced && depth == 0 {
		return source
	}
	replacer := strings.NewReplacer("{", `\{`, "}", `\}`)
	return replacer.Replace(source)
}
