//go:build !linux

package affinity

// Pin is a no-op on platforms without per-thread affinity control.
func Pin(core int) error {
	return nil
}

// Save returns a no-op restore function.
func Save() (restore func() error, err error) {
	return func() error { return nil }, nil
}
