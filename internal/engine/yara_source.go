package engine

import (
	"strconv"
	"strings"

	"github.com/torosent/regexbench/internal/rules"
)

// yaraSource renders rules as a YARA rule file where each rule holds one
// regular-expression string.
func yaraSource(set []rules.Rule) string {
	var sb strings.Builder
	for _, r := range set {
		sb.WriteString("rule r")
		sb.WriteString(strconv.FormatUint(r.ID, 10))
		sb.WriteString(" {\n  strings:\n    $p = /")
		sb.WriteString(yaraEscape(rulePattern(r)))
		sb.WriteByte('/')
		if r.Caseless {
			sb.WriteByte('i')
		}
		if r.DotAll {
			sb.WriteByte('s')
		}
		sb.WriteString("\n  condition:\n    $p\n}\n")
	}
	return sb.String()
}

// yaraEscape escapes the regex delimiter while keeping existing escapes.
func yaraEscape(p string) string {
	var sb strings.Builder
	sb.Grow(len(p))
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '\\' && i+1 < len(p) {
			sb.WriteByte(c)
			sb.WriteByte(p[i+1])
			i++
			continue
		}
		if c == '/' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
