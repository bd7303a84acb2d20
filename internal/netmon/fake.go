package netmon

// FakeProber is a test double with a settable link state.
type FakeProber struct {
	// Up controls the return value of LinkUp.
	Up bool

	// Err, if set, will be returned by LinkUp.
	Err error

	// Probes counts LinkUp calls.
	Probes int
}

// LinkUp returns the scripted state.
func (f *FakeProber) LinkUp() (bool, error) {
	f.Probes++
	if f.Err != nil {
		return false, f.Err
	}
	return f.Up, nil
}
