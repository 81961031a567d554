//go:build !unix

package sysstat

import "errors"

var errUnsupported = errors.New("sysstat: resource usage not supported on this platform")

func ThreadTimes() (Times, error) {
	return Times{}, errUnsupported
}

func PeakMemoryKB() (int64, error) {
	return 0, errUnsupported
}
