package engine

import (
	"strings"

	"github.com/torosent/regexbench/internal/rules"
)

// expressions renders rules as RE2-syntax expressions with inline flags,
// joining groups of concat rules into a single alternation.
func expressions(set []rules.Rule, concat int) []string {
	if concat <= 1 {
		out := make([]string, 0, len(set))
		for _, r := range set {
			out = append(out, r.InlineFlags()+rulePattern(r))
		}
		return out
	}

	out := make([]string, 0, (len(set)+concat-1)/concat)
	for start := 0; start < len(set); start += concat {
		end := min(start+concat, len(set))
		var sb strings.Builder
		for i, r := range set[start:end] {
			if i > 0 {
				sb.WriteByte('|')
			}
			sb.WriteString("(?:")
			sb.WriteString(r.InlineFlags())
			sb.WriteString(rulePattern(r))
			sb.WriteByte(')')
		}
		out = append(out, sb.String())
	}
	return out
}

func rulePattern(r rules.Rule) string {
	if r.Extended {
		return stripExtended(r.Pattern)
	}
	return r.Pattern
}

// stripExtended removes unescaped whitespace and #-comments outside
// character classes, the x-mode rewrite RE2 does not perform itself.
func stripExtended(p string) string {
	var sb strings.Builder
	sb.Grow(len(p))
	inClass := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '\\' && i+1 < len(p):
			sb.WriteByte(c)
			sb.WriteByte(p[i+1])
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
			sb.WriteByte(c)
		case c == '[':
			inClass = true
			sb.WriteByte(c)
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
		case c == '#':
			for i < len(p) && p[i] != '\n' {
				i++
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
