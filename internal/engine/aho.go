package engine

import (
	"errors"
	"fmt"
	"regexp/syntax"

	"github.com/torosent/regexbench/internal/rules"
)

func init() {
	register("aho", func(Tuning) Engine { return &ahoEngine{} })
}

// ErrNotLiteral is returned by the aho engine for a rule that is not a plain
// literal string.
var ErrNotLiteral = errors.New("pattern is not a literal")

// acNode is one automaton state.
type acNode struct {
	next  map[byte]*acNode
	fail  *acNode
	final bool
}

// ahoAutomaton is a multi-literal matcher; read-only after build.
type ahoAutomaton struct {
	root *acNode
	fold bool
}

// ahoEngine matches literal rules with two automata: one for exact literals
// and one for caseless literals, which is scanned with ASCII case folding.
type ahoEngine struct {
	exact    *ahoAutomaton
	caseless *ahoAutomaton
	compiled bool
}

func (e *ahoEngine) Compile(set []rules.Rule, _ int) error {
	var exact, folded [][]byte
	for _, r := range set {
		lit, fold, err := literalOf(r)
		if err != nil {
			return fmt.Errorf("rule %d: %w", r.ID, err)
		}
		if fold {
			folded = append(folded, lowerASCII(lit))
		} else {
			exact = append(exact, lit)
		}
	}
	e.exact = buildAho(exact, false)
	e.caseless = buildAho(folded, true)
	e.compiled = true
	return nil
}

func (e *ahoEngine) Load(string, int) error { return ErrLoadUnsupported }

func (e *ahoEngine) Match(data []byte) (bool, error) {
	if !e.compiled {
		return false, ErrNotCompiled
	}
	return e.exact.scan(data) || e.caseless.scan(data), nil
}

// literalOf reports the literal bytes a rule matches and whether the match is
// caseless.
func literalOf(r rules.Rule) ([]byte, bool, error) {
	pattern := r.Pattern
	if r.Extended {
		pattern = stripExtended(pattern)
	}
	flags := syntax.Perl
	if r.Caseless {
		flags |= syntax.FoldCase
	}
	re, err := syntax.Parse(pattern, flags)
	if err != nil {
		return nil, false, err
	}
	re = re.Simplify()
	if re.Op != syntax.OpLiteral {
		return nil, false, fmt.Errorf("%w: %q", ErrNotLiteral, r.Pattern)
	}
	lit := []byte(string(re.Rune))
	return lit, re.Flags&syntax.FoldCase != 0, nil
}

func buildAho(patterns [][]byte, fold bool) *ahoAutomaton {
	if len(patterns) == 0 {
		return nil
	}
	root := &acNode{next: make(map[byte]*acNode)}
	for _, p := range patterns {
		cur := root
		for _, b := range p {
			nxt, ok := cur.next[b]
			if !ok {
				nxt = &acNode{next: make(map[byte]*acNode)}
				cur.next[b] = nxt
			}
			cur = nxt
		}
		cur.final = true
	}

	// BFS failure links
	queue := make([]*acNode, 0, len(root.next))
	for _, n := range root.next {
		n.fail = root
		queue = append(queue, n)
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for b, nxt := range n.next {
			f := n.fail
			for f != nil && f.next[b] == nil {
				f = f.fail
			}
			if f == nil {
				nxt.fail = root
			} else {
				nxt.fail = f.next[b]
			}
			if nxt.fail.final {
				nxt.final = true
			}
			queue = append(queue, nxt)
		}
	}
	return &ahoAutomaton{root: root, fold: fold}
}

func (a *ahoAutomaton) scan(data []byte) bool {
	if a == nil {
		return false
	}
	if a.root.final {
		return true
	}
	n := a.root
	for _, b := range data {
		if a.fold && b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		for n != a.root && n.next[b] == nil {
			n = n.fail
		}
		if nxt, ok := n.next[b]; ok {
			n = nxt
		}
		if n.final {
			return true
		}
	}
	return false
}

func lowerASCII(p []byte) []byte {
	out := make([]byte, len(p))
	for i, b := range p {
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		out[i] = b
	}
	return out
}
