//go:build yara

package engine

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hillu/go-yara/v4"

	"github.com/torosent/regexbench/internal/rules"
)

func init() {
	register("yara", func(t Tuning) Engine { return &yaraEngine{timeout: t.MatchTimeout} })
}

const yaraNamespace = "regexbench"

// yaraEngine scans with libyara. Rules.ScanMem is safe for concurrent use.
type yaraEngine struct {
	rules   *yara.Rules
	timeout time.Duration
}

func (e *yaraEngine) Compile(set []rules.Rule, _ int) error {
	compiler, err := yara.NewCompiler()
	if err != nil {
		return fmt.Errorf("yara compiler init: %w", err)
	}
	defer compiler.Destroy()

	if err := compiler.AddString(yaraSource(set), yaraNamespace); err != nil {
		return fmt.Errorf("yara compile: %w", err)
	}
	compiled, err := compiler.GetRules()
	if err != nil {
		return fmt.Errorf("get rules: %w", err)
	}
	e.replace(compiled)
	return nil
}

func (e *yaraEngine) Load(path string, _ int) error {
	loaded, err := yara.LoadRules(path)
	if err != nil {
		return fmt.Errorf("yara load %s: %w", path, err)
	}
	e.replace(loaded)
	return nil
}

// IsDatabase reports whether path names compiled YARA rules.
func (e *yaraEngine) IsDatabase(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".yarc")
}

func (e *yaraEngine) Match(data []byte) (bool, error) {
	if e.rules == nil {
		return false, ErrNotCompiled
	}
	var matches yara.MatchRules
	if err := e.rules.ScanMem(data, yara.ScanFlagsFastMode, e.timeout, &matches); err != nil {
		return false, fmt.Errorf("yara scan: %w", err)
	}
	return len(matches) > 0, nil
}

// Close releases the compiled rules.
func (e *yaraEngine) Close() error {
	if e.rules != nil {
		e.rules.Destroy()
		e.rules = nil
	}
	return nil
}

func (e *yaraEngine) replace(r *yara.Rules) {
	if e.rules != nil {
		e.rules.Destroy()
	}
	e.rules = r
}
