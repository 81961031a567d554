package engine

import (
	"fmt"
	"regexp"

	"github.com/torosent/regexbench/internal/rules"
)

func init() {
	register("std", func(t Tuning) Engine { return &stdEngine{concat: t.Concat} })
}

// stdEngine matches with the standard library RE2 implementation. A compiled
// *regexp.Regexp is safe for concurrent use, so workers share one set.
type stdEngine struct {
	concat int
	set    []*regexp.Regexp
}

func (e *stdEngine) Compile(set []rules.Rule, _ int) error {
	exprs := expressions(set, e.concat)
	compiled := make([]*regexp.Regexp, 0, len(exprs))
	for i, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("expression %d: %w", i+1, err)
		}
		compiled = append(compiled, re)
	}
	e.set = compiled
	return nil
}

func (e *stdEngine) Load(string, int) error { return ErrLoadUnsupported }

func (e *stdEngine) Match(data []byte) (bool, error) {
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
