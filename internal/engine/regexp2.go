package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/torosent/regexbench/internal/rules"
)

func init() {
	register("regexp2", func(t Tuning) Engine {
		return &regexp2Engine{concat: t.Concat, timeout: t.MatchTimeout}
	})
}

// regexp2Engine is a backtracking engine with PCRE-style semantics.
type regexp2Engine struct {
	concat  int
	timeout time.Duration
	set     []*regexp2.Regexp
}

func (e *regexp2Engine) Compile(set []rules.Rule, _ int) error {
	var compiled []*regexp2.Regexp
	if e.concat <= 1 {
		compiled = make([]*regexp2.Regexp, 0, len(set))
		for _, r := range set {
			re, err := regexp2.Compile(r.Pattern, regexp2Options(r))
			if err != nil {
				return fmt.Errorf("rule %d: %w", r.ID, err)
			}
			compiled = append(compiled, re)
		}
	} else {
		for start := 0; start < len(set); start += e.concat {
			group := set[start:min(start+e.concat, len(set))]
			re, err := regexp2.Compile(regexp2Alternation(group), regexp2.None)
			if err != nil {
				return fmt.Errorf("rules %d-%d: %w", group[0].ID, group[len(group)-1].ID, err)
			}
			compiled = append(compiled, re)
		}
	}
	if e.timeout > 0 {
		for _, re := range compiled {
			re.MatchTimeout = e.timeout
		}
	}
	e.set = compiled
	return nil
}

func (e *regexp2Engine) Load(string, int) error { return ErrLoadUnsupported }

func (e *regexp2Engine) Match(data []byte) (bool, error) {
	if e.set == nil {
		return false, ErrNotCompiled
	}
	// regexp2 works on runes; the conversion is part of the measured cost.
	input := string(data)
	for _, re := range e.set {
		ok, err := re.MatchString(input)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func regexp2Options(r rules.Rule) regexp2.RegexOptions {
	opts := regexp2.None
	if r.Caseless {
		opts |= regexp2.IgnoreCase
	}
	if r.Multiline {
		opts |= regexp2.Multiline
	}
	if r.DotAll {
		opts |= regexp2.Singleline
	}
	if r.Extended {
		opts |= regexp2.IgnorePatternWhitespace
	}
	return opts
}

func regexp2Alternation(group []rules.Rule) string {
	var sb strings.Builder
	for i, r := range group {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString("(?")
		if r.Caseless {
			sb.WriteByte('i')
		}
		if r.Multiline {
			sb.WriteByte('m')
		}
		if r.DotAll {
			sb.WriteByte('s')
		}
		sb.WriteByte(':')
		// x-mode comments would swallow the closing paren.
		sb.WriteString(rulePattern(r))
		sb.WriteByte(')')
	}
	return sb.String()
}
