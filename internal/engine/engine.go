// Package engine defines the pattern-matching engine capability used by the
// benchmark driver and the engines that implement it.
//
// An engine is set up once (Compile or Load, then an optional Init) on the
// controlling goroutine, after which Match is called concurrently by every
// worker. Implementations must be safe for concurrent Match calls once set up.
package engine

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/torosent/regexbench/internal/rules"
)

var (
	// ErrUnknownEngine is returned by New for an unregistered tag.
	ErrUnknownEngine = errors.New("unknown engine")
	// ErrLoadUnsupported is returned by engines without a precompiled format.
	ErrLoadUnsupported = errors.New("engine cannot load precompiled rules")
	// ErrNotCompiled is returned by Match before Compile or Load succeeded.
	ErrNotCompiled = errors.New("engine has no compiled rules")
)

// Engine compiles or loads a rule set and answers boolean match queries.
type Engine interface {
	Compile(rules []rules.Rule, concurrency int) error
	Load(path string, concurrency int) error
	Match(data []byte) (bool, error)
}

// Initializer is implemented by engines that keep per-session state.
type Initializer interface {
	Init(sessions int) error
}

// DatabaseLoader is implemented by engines whose Load accepts a precompiled
// rule database. IsDatabase reports whether path names one.
type DatabaseLoader interface {
	IsDatabase(path string) bool
}

// Tuning carries engine construction options.
type Tuning struct {
	// Concat groups this many rules into one alternation. Zero or one
	// compiles every rule separately.
	Concat int
	// MatchTimeout bounds a single Match call on engines that support it.
	MatchTimeout time.Duration
}

type factory func(Tuning) Engine

var registry = map[string]factory{}

func register(tag string, f factory) {
	registry[tag] = f
}

// New constructs the engine registered under tag.
func New(tag string, t Tuning) (Engine, error) {
	f, ok := registry[strings.ToLower(tag)]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownEngine, tag, strings.Join(Tags(), ", "))
	}
	return f(t), nil
}

// Tags lists the registered engine tags in sorted order.
func Tags() []string {
	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Known reports whether tag names a registered engine.
func Known(tag string) bool {
	_, ok := registry[strings.ToLower(tag)]
	return ok
}

// Close releases engine resources when the engine holds any.
func Close(e Engine) error {
	if c, ok := e.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
