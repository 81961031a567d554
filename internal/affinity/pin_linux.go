//go:build linux

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Pin restricts the calling OS thread to core. The caller must hold the
// thread with runtime.LockOSThread for the pin to stick to its goroutine.
func Pin(core int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("sched_setaffinity core %d: %w", core, err)
	}
	return nil
}

// Save records the calling thread's CPU mask and returns a function that
// reinstates it on the same thread.
func Save() (restore func() error, err error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("sched_getaffinity: %w", err)
	}
	return func() error {
		if err := unix.SchedSetaffinity(0, &set); err != nil {
			return fmt.Errorf("restore affinity: %w", err)
		}
		return nil
	}, nil
}
