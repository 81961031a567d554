// Package sysstat reads the resource counters a benchmark run reports:
// per-thread CPU time, process peak memory and the hardware core count.
package sysstat

import (
	"runtime"
	"time"
)

// Times is an accumulated user/system CPU time sample.
type Times struct {
	User   time.Duration
	System time.Duration
}

// Sub returns t - o component-wise.
func (t Times) Sub(o Times) Times {
	return Times{User: t.User - o.User, System: t.System - o.System}
}

// Total returns user plus system time.
func (t Times) Total() time.Duration {
	return t.User + t.System
}

// HardwareCores returns the number of logical CPUs usable by the process.
func HardwareCores() int {
	return runtime.NumCPU()
}
