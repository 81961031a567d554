// Package affinity plans and applies thread-to-core assignments for benchmark runs.
package affinity

import (
	"fmt"
	"strconv"
	"strings"
)

// Plan maps thread roles to CPU cores. Slot 0 belongs to the controlling
// thread, slots 1..N to the workers in spawn order.
type Plan []int

// FormatError reports a core list that could not be parsed. The plan returned
// alongside it is the positional fallback, so callers may log and continue.
type FormatError struct {
	Spec  string
	Token string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("affinity %q: invalid core %q", e.Spec, e.Token)
}

// NewPlan builds a plan for workers worker threads plus the controller.
//
// Cores in spec are comma or space separated and clamped into [0, ncpu-1].
// Slots without a token get the previous core plus one, clamped; the core
// before slot 0 counts as 0, so an empty spec starts the controller on core 1. If any token
// is not a number the partial result is dropped and slot i gets min(i, ncpu-1).
// The returned plan is always usable; the error only describes the fallback.
func NewPlan(workers int, spec string, ncpu int) (Plan, error) {
	if workers < 1 {
		workers = 1
	}
	if ncpu < 1 {
		ncpu = 1
	}
	maxCore := ncpu - 1
	slots := workers + 1

	tokens := strings.FieldsFunc(spec, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})

	plan := make(Plan, slots)
	last := 0
	for i := range plan {
		core := min(last+1, maxCore)
		if i < len(tokens) {
			v, err := strconv.Atoi(tokens[i])
			if err != nil {
				return fallback(slots, maxCore), &FormatError{Spec: spec, Token: tokens[i]}
			}
			core = clamp(v, 0, maxCore)
		}
		plan[i] = core
		last = core
	}
	return plan, nil
}

func fallback(slots, maxCore int) Plan {
	plan := make(Plan, slots)
	for i := range plan {
		plan[i] = min(i, maxCore)
	}
	return plan
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Controller returns the core of the controlling thread.
func (p Plan) Controller() int {
	if len(p) == 0 {
		return 0
	}
	return p[0]
}

// Workers returns the worker cores in spawn order.
func (p Plan) Workers() []int {
	if len(p) < 2 {
		return nil
	}
	return p[1:]
}

func (p Plan) String() string {
	var sb strings.Builder
	for _, core := range p {
		sb.WriteByte(' ')
		sb.WriteString(strconv.Itoa(core))
	}
	return sb.String()
}
