package can

import "fmt"

// FrameListener is implemented by anything that wants to be handed every
// frame received from a Bus (spec.md §6 "Frame sink contract").
type FrameListener interface {
	Handle(frame Frame)
}

// Bus is the frame-sink contract at the bottom of the core: Send is
// non-blocking, Close is idempotent, and received frames are delivered to
// whatever FrameListener was passed to Subscribe. Physical CAN driver I/O
// is explicitly out of scope (spec.md §1 Non-goals) - Bus exists so the
// rest of the stack never depends on a concrete transport.
type Bus interface {
	Connect(...any) error
	Send(frame Frame) error
	Subscribe(listener FrameListener) error
	Close() error
}

// NewBusFunc constructs a Bus for a given channel identifier (e.g. a
// device path or in-process name).
type NewBusFunc func(channel string) (Bus, error)

var registry = make(map[string]NewBusFunc)

// RegisterInterface registers a Bus constructor under a transport name.
// Transport packages (pkg/can/serial, pkg/can/loopback) call this from an
// init() function, the way the teacher's driver packages self-register.
func RegisterInterface(transport string, ctor NewBusFunc) {
	registry[transport] = ctor
}

// NewBus looks up a registered transport by name and constructs a Bus on
// the given channel.
func NewBus(transport, channel string) (Bus, error) {
	ctor, ok := registry[transport]
	if !ok {
		return nil, fmt.Errorf("can: unregistered transport %q", transport)
	}
	return ctor(channel)
}
