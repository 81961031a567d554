package engine

import (
	"fmt"

	"github.com/coregx/coregex"

	"github.com/torosent/regexbench/internal/rules"
)

func init() {
	register("coregex", func(t Tuning) Engine { return &coregexEngine{concat: t.Concat} })
}

// coregexEngine uses coregex, which picks a literal, DFA or NFA strategy per
// expression and accepts RE2 syntax.
type coregexEngine struct {
	concat int
	set    []*coregex.Regex
}

func (e *coregexEngine) Compile(set []rules.Rule, _ int) error {
	exprs := expressions(set, e.concat)
	compiled := make([]*coregex.Regex, 0, len(exprs))
	for i, expr := range exprs {
		re, err := coregex.Compile(expr)
		if err != nil {
			return fmt.Errorf("expression %d: %w", i+1, err)
		}
		compiled = append(compiled, re)
	}
	e.set = compiled
	return nil
}

func (e *coregexEngine) Load(string, int) error { return ErrLoadUnsupported }

func (e *coregexEngine) Match(data []byte) (bool, error) {
	if e.set == nil {
		return false, ErrNotCompiled
	}
	for _, re := range e.set {
		if re.Match(data) {
			return true, nil
		}
	}
	return false, nil
}
