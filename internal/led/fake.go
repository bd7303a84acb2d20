package led

// FakeDriver is a test double that records levels written to the LED.
type FakeDriver struct {
	// Level is the last written level.
	Level bool

	// Writes records every level written, in order.
	Writes []bool

	// WriteError, if set, will be returned by Write.
	WriteError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeDriver creates a FakeDriver.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{}
}

// Write records the level.
func (f *FakeDriver) Write(on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Level = on
	f.Writes = append(f.Writes, on)
	return nil
}

// Close marks the driver as closed.
func (f *FakeDriver) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded writes.
func (f *FakeDriver) Reset() {
	f.Level = false
	f.Writes = nil
	f.Closed = false
	f.WriteError = nil
}
