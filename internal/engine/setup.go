package engine

import (
	"fmt"

	"github.com/torosent/regexbench/internal/rules"
)

// Source describes where an engine gets its rules from.
type Source struct {
	// RulePath is a rule file or, for engines implementing DatabaseLoader,
	// a precompiled database.
	RulePath string
	// Rules, when non-nil, is compiled instead of reading RulePath.
	Rules []rules.Rule
	// Concurrency is the number of workers that will call Match.
	Concurrency int
	// Sessions is passed to engines implementing Initializer.
	Sessions int
}

// Prepare loads or compiles the rules into e and initializes it. It must
// complete before any Match call.
func Prepare(e Engine, src Source) error {
	if db, ok := e.(DatabaseLoader); ok && src.Rules == nil && db.IsDatabase(src.RulePath) {
		if err := e.Load(src.RulePath, src.Concurrency); err != nil {
			return fmt.Errorf("load rules: %w", err)
		}
	} else {
		set := src.Rules
		if set == nil {
			var err error
			set, err = rules.Load(src.RulePath)
			if err != nil {
				return err
			}
		}
		if err := e.Compile(set, src.Concurrency); err != nil {
			return fmt.Errorf("compile rules: %w", err)
		}
	}

	if in, ok := e.(Initializer); ok {
		if err := in.Init(src.Sessions); err != nil {
			return fmt.Errorf("init engine: %w", err)
		}
	}
	return nil
}
