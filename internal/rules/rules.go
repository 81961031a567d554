// Package rules loads the pattern sets benchmarked by the engines.
package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoRules is returned when a rule file yields no rules.
var ErrNoRules = errors.New("no rules found")

// Rule is a single pattern and its matching options.
type Rule struct {
	ID          uint64
	Pattern     string
	Caseless    bool
	Multiline   bool
	DotAll      bool
	Extended    bool
	SingleMatch bool
}

// Flags renders the options in the short form accepted by the rule files.
func (r Rule) Flags() string {
	var sb strings.Builder
	if r.Caseless {
		sb.WriteByte('i')
	}
	if r.Multiline {
		sb.WriteByte('m')
	}
	if r.DotAll {
		sb.WriteByte('s')
	}
	if r.Extended {
		sb.WriteByte('x')
	}
	if r.SingleMatch {
		sb.WriteByte('H')
	}
	return sb.String()
}

// InlineFlags returns the options as a Go/PCRE inline group prefix such as
// "(?is)", or "" when no inline option applies.
func (r Rule) InlineFlags() string {
	var sb strings.Builder
	if r.Caseless {
		sb.WriteByte('i')
	}
	if r.Multiline {
		sb.WriteByte('m')
	}
	if r.DotAll {
		sb.WriteByte('s')
	}
	if sb.Len() == 0 {
		return ""
	}
	return "(?" + sb.String() + ")"
}

func (r *Rule) applyFlags(flags string) error {
	for _, f := range flags {
		switch f {
		case 'i':
			r.Caseless = true
		case 'm':
			r.Multiline = true
		case 's':
			r.DotAll = true
		case 'x':
			r.Extended = true
		case 'H':
			r.SingleMatch = true
		default:
			return fmt.Errorf("rule %d: unsupported flag %q", r.ID, f)
		}
	}
	return nil
}

// Load reads a rule file. The format is chosen by extension: .yaml/.yml,
// .json, anything else is the line-oriented text format.
func Load(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	var rules []Rule
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		rules, err = ParseYAML(data)
	case ".json":
		rules, err = ParseJSON(data)
	default:
		rules, err = ParseText(string(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

func validate(rules []Rule) error {
	if len(rules) == 0 {
		return ErrNoRules
	}
	seen := make(map[uint64]struct{}, len(rules))
	for _, r := range rules {
		if r.Pattern == "" {
			return fmt.Errorf("rule %d: empty pattern", r.ID)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("rule %d: duplicate id", r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}
