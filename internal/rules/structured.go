package rules

import (
	"fmt"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

type ruleDoc struct {
	ID      uint64 `yaml:"id"`
	Pattern string `yaml:"pattern"`
	Flags   string `yaml:"flags"`
}

// ParseYAML parses a YAML list of {id, pattern, flags} entries, either at the
// top level or under a "rules" key.
func ParseYAML(data []byte) ([]Rule, error) {
	var docs []ruleDoc
	if err := yaml.Unmarshal(data, &docs); err != nil {
		var wrapped struct {
			Rules []ruleDoc `yaml:"rules"`
		}
		if werr := yaml.Unmarshal(data, &wrapped); werr != nil {
			return nil, fmt.Errorf("parse yaml rules: %w", err)
		}
		docs = wrapped.Rules
	}

	rules := make([]Rule, 0, len(docs))
	for i, d := range docs {
		r := Rule{ID: d.ID, Pattern: d.Pattern}
		if r.ID == 0 {
			r.ID = uint64(i + 1)
		}
		if err := r.applyFlags(d.Flags); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if err := validate(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// ParseJSON parses a JSON array of {id, pattern, flags} objects, either at
// the top level or under a "rules" key.
func ParseJSON(data []byte) ([]Rule, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse json rules: invalid json")
	}
	list := gjson.ParseBytes(data)
	if !list.IsArray() {
		list = list.Get("rules")
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("parse json rules: expected an array of rules")
	}

	var rules []Rule
	var parseErr error
	list.ForEach(func(_, item gjson.Result) bool {
		r := Rule{
			ID:      item.Get("id").Uint(),
			Pattern: item.Get("pattern").String(),
		}
		if r.ID == 0 {
			r.ID = uint64(len(rules) + 1)
		}
		if err := r.applyFlags(item.Get("flags").String()); err != nil {
			parseErr = err
			return false
		}
		rules = append(rules, r)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if err := validate(rules); err != nil {
		return nil, err
	}
	return rules, nil
}
