package telemetry

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	// LinkEvents contains all link events that were published.
	LinkEvents []LinkEvent

	// LinkPayloads contains the JSON payloads for link events.
	LinkPayloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishLinkError, if set, will be returned by PublishLink.
	PublishLinkError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishLink records the link event.
func (f *FakePublisher) PublishLink(event LinkEvent) error {
	if f.PublishLinkError != nil {
		return f.PublishLinkError
	}

	f.LinkEvents = append(f.LinkEvents, event)

	payload, err := FormatLinkPayload(event)
	if err != nil {
		return err
	}
	f.LinkPayloads = append(f.LinkPayloads, payload)

	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	f.LinkEvents = nil
	f.LinkPayloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishLinkError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
