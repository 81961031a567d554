//go:build linux

package sysstat

import (
	"time"

	"golang.org/x/sys/unix"
)

// ThreadTimes returns the CPU time consumed by the calling OS thread. The
// caller should hold its thread with runtime.LockOSThread between samples.
func ThreadTimes() (Times, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_THREAD, &ru); err != nil {
		return Times{}, err
	}
	return Times{User: timevalDuration(ru.Utime), System: timevalDuration(ru.Stime)}, nil
}

// PeakMemoryKB returns the process maximum resident set size in kilobytes.
func PeakMemoryKB() (int64, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, err
	}
	return int64(ru.Maxrss), nil
}

func timevalDuration(tv unix.Timeval) time.Duration {
	return time.Duration(tv.Sec)*time.Second + time.Duration(tv.Usec)*time.Microsecond
}
