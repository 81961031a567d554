package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/torosent/regexbench/internal/engine"
	"github.com/torosent/regexbench/internal/rules"
)

var regexRules = []rules.Rule{
	{ID: 1, Pattern: `GET /admin`},
	{ID: 2, Pattern: `passw(or)?d=\w+`},
	{ID: 3, Pattern: `evil`, Caseless: true},
	{ID: 4, Pattern: `^X-Trace: \d+$`, Multiline: true},
	{ID: 5, Pattern: `begin .* end`, DotAll: true},
	{ID: 6, Pattern: `cmd \s* = \s* exec  # shell`, Extended: true},
}

var regexInputs = []struct {
	name string
	data string
	want bool
}{
	{"literal", "GET /admin HTTP/1.1", true},
	{"optional group", "user=bob&passwd=hunter2", true},
	{"caseless", "an EVIL payload", true},
	{"multiline anchor", "Host: a\nX-Trace: 42\nAccept: */*", true},
	{"dotall spans newline", "begin \nmiddle\n end", true},
	{"extended", "cmd=exec", true},
	{"no match", "GET /index.html HTTP/1.1", false},
	{"empty payload", "", false},
}

func TestRegexEngines(t *testing.T) {
	for _, tag := range []string{"std", "regexp2", "coregex"} {
		for _, concat := range []int{0, 2, 10} {
			e, err := engine.New(tag, engine.Tuning{Concat: concat})
			if err != nil {
				t.Fatalf("New(%q) error = %v", tag, err)
			}
			if err := e.Compile(regexRules, 1); err != nil {
				t.Fatalf("%s concat=%d: Compile() error = %v", tag, concat, err)
			}
			for _, tt := range regexInputs {
				got, err := e.Match([]byte(tt.data))
				if err != nil {
					t.Fatalf("%s concat=%d %s: Match() error = %v", tag, concat, tt.name, err)
				}
				if got != tt.want {
					t.Errorf("%s concat=%d %s: Match() = %v, want %v", tag, concat, tt.name, got, tt.want)
				}
			}
		}
	}
}

func TestEnginesRejectBeforeCompile(t *testing.T) {
	for _, tag := range engine.Tags() {
		e, err := engine.New(tag, engine.Tuning{})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := e.Match([]byte("x")); !errors.Is(err, engine.ErrNotCompiled) {
			t.Errorf("%s: Match() before Compile error = %v, want ErrNotCompiled", tag, err)
		}
	}
}

func TestLoadUnsupported(t *testing.T) {
	for _, tag := range []string{"std", "regexp2", "coregex", "aho"} {
		e, err := engine.New(tag, engine.Tuning{})
		if err != nil {
			t.Fatal(err)
		}
		if err := e.Load("rules.db", 1); !errors.Is(err, engine.ErrLoadUnsupported) {
			t.Errorf("%s: Load() error = %v, want ErrLoadUnsupported", tag, err)
		}
	}
}

func TestNewUnknownEngine(t *testing.T) {
	_, err := engine.New("hyperscan", engine.Tuning{})
	if !errors.Is(err, engine.ErrUnknownEngine) {
		t.Fatalf("New() error = %v, want ErrUnknownEngine", err)
	}
	if engine.Known("hyperscan") {
		t.Error("Known(hyperscan) = true")
	}
	if !engine.Known("STD") {
		t.Error("Known(STD) = false, tags are case-insensitive")
	}
}

func TestCompileErrors(t *testing.T) {
	bad := []rules.Rule{{ID: 7, Pattern: `(unclosed`}}
	for _, tag := range []string{"std", "regexp2", "coregex", "aho"} {
		e, _ := engine.New(tag, engine.Tuning{})
		if err := e.Compile(bad, 1); err == nil {
			t.Errorf("%s: Compile() of invalid pattern succeeded", tag)
		}
	}
}

func TestAhoLiterals(t *testing.T) {
	e, err := engine.New("aho", engine.Tuning{})
	if err != nil {
		t.Fatal(err)
	}
	set := []rules.Rule{
		{ID: 1, Pattern: `he`},
		{ID: 2, Pattern: `she`},
		{ID: 3, Pattern: `his`},
		{ID: 4, Pattern: `hers`},
		{ID: 5, Pattern: `index\.php`},
		{ID: 6, Pattern: `SELECT`, Caseless: true},
	}
	if err := e.Compile(set, 4); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	tests := []struct {
		data string
		want bool
	}{
		{"ushers", true},
		{"ahishers", true},
		{"GET /index.php", true},
		{"GET /indexxphp", false},
		{"union select 1", true},
		{"SeLeCt", true},
		{"xyz", false},
		{"h", false},
	}
	for _, tt := range tests {
		got, err := e.Match([]byte(tt.data))
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.data, got, tt.want)
		}
	}
}

func TestAhoRejectsNonLiteral(t *testing.T) {
	e, _ := engine.New("aho", engine.Tuning{})
	err := e.Compile([]rules.Rule{{ID: 9, Pattern: `a.*b`}}, 1)
	if !errors.Is(err, engine.ErrNotLiteral) {
		t.Fatalf("Compile() error = %v, want ErrNotLiteral", err)
	}
}

func TestRegexp2MatchTimeout(t *testing.T) {
	e, err := engine.New("regexp2", engine.Tuning{MatchTimeout: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Compile([]rules.Rule{{ID: 1, Pattern: `(a+)+$`}}, 1); err != nil {
		t.Fatal(err)
	}
	input := make([]byte, 0, 64)
	for range 40 {
		input = append(input, 'a')
	}
	input = append(input, '!')
	if _, err := e.Match(input); err == nil {
		t.Fatal("Match() on catastrophic input returned no timeout error")
	}
}
