//go:build !linux

package led

import "errors"

// RealDriver is not available on non-Linux platforms.
type RealDriver struct{}

// NewRealDriver returns an error on non-Linux platforms.
func NewRealDriver(pin int) (*RealDriver, error) {
	return nil, errors.New("led: not supported on this platform (requires Linux)")
}

// Write is not implemented on non-Linux platforms.
func (r *RealDriver) Write(on bool) error {
	return errors.New("led: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealDriver) Close() error {
	return nil
}
