package signal

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is a compiled SignalPattern, ready to test signal names for a
// match. Compilation is deterministic and side-effect free: the same
// pattern string always compiles to a Matcher with identical behavior.
type Pattern interface {
	// Match reports whether name satisfies this pattern.
	Match(name string) bool
	// String returns the original pattern expression.
	String() string
}

// literalPattern matches by exact string comparison. Used whenever the
// source pattern contains no '*', avoiding regexp overhead entirely.
type literalPattern string

func (p literalPattern) Match(name string) bool { return name == string(p) }
func (p literalPattern) String() string         { return string(p) }

// globPattern matches via a compiled regular expression built from the
// pattern's '*'/'**' wildcards, anchored at both ends.
type globPattern struct {
	source string
	re     *regexp.Regexp
}

func (p *globPattern) Match(name string) bool { return p.re.MatchString(name) }
func (p *globPattern) String() string         { return p.source }

// Compile translates a SignalPattern expression into a Matcher.
//
// Supported forms:
//   - "workflow:start"  literal, exact match
//   - "*"               the whole pattern: matches any name, including ':'
//   - "**"               matches any run of characters, including ':'
//   - "prefix:*"          matches "prefix:X" for any X without a further ':'
//     (a '*' inside a longer pattern never crosses a ':' boundary)
//
// Compilation never has side effects and is deterministic: the same input
// always yields an equivalent Matcher.
func Compile(pattern string) (Pattern, error) {
	if pattern == "" {
		return nil, fmt.Errorf("signal: empty pattern")
	}
	if !strings.Contains(pattern, "*") {
		return literalPattern(pattern), nil
	}

	var re strings.Builder
	re.WriteByte('^')
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				re.WriteString(".*")
				i++
				continue
			}
			// A bare "*" pattern (the whole expression, not merely its last
			// rune) behaves like "**": it matches any name, including ':'.
			// A '*' following a literal prefix, e.g. "workflow:*", still
			// matches only within the current segment.
			if len(runes) == 1 {
				re.WriteString(".*")
				continue
			}
			re.WriteString("[^:]*")
		default:
			re.WriteString(regexp.QuoteMeta(string(runes[i])))
		}
	}
	re.WriteByte('$')

	compiled, err := regexp.Compile(re.String())
	if err != nil {
		return nil, fmt.Errorf("signal: invalid pattern %q: %w", pattern, err)
	}
	return &globPattern{source: pattern, re: compiled}, nil
}

// MustCompile is like Compile but panics on error. Intended for package-
// level pattern constants, not for patterns derived from external input.
func MustCompile(pattern string) Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether name satisfies the compiled pattern p.
func Match(name string, p Pattern) bool {
	return p.Match(name)
}

// MatchAny reports whether name satisfies at least one of the compiled
// patterns.
func MatchAny(name string, patterns []Pattern) bool {
	for _, p := range patterns {
		if p.Match(name) {
			return true
		}
	}
	return false
}

// CompileAll compiles every pattern string, returning the first compilation
// error encountered (wrapped with its source index) if any fail.
func CompileAll(patterns []string) ([]Pattern, error) {
	out := make([]Pattern, 0, len(patterns))
	for i, p := range patterns {
		compiled, err := Compile(p)
		if err != nil {
			return nil, fmt.Errorf("signal: pattern[%d]: %w", i, err)
		}
		out = append(out, compiled)
	}
	return out, nil
}
