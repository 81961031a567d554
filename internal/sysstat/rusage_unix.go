//go:build unix && !linux

package sysstat

import (
	"runtime"
	"time"

	"golang.org/x/sys/unix"
)

// ThreadTimes falls back to process-wide usage where the kernel has no
// per-thread rusage. Deltas then include every thread of the process.
func ThreadTimes() (Times, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
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
	maxrss := int64(ru.Maxrss)
	if runtime.GOOS == "darwin" || runtime.GOOS == "ios" {
		// bytes on Darwin
		maxrss /= 1024
	}
	return maxrss, nil
}

func timevalDuration(tv unix.Timeval) time.Duration {
	return time.Duration(tv.Sec)*time.Second + time.Duration(tv.Usec)*time.Microsecond
}
