// Package loopback implements an in-process Bus: frames sent on a channel
// name are delivered to every other Bus subscribed under the same name,
// with no serialization step. It is used for same-process testing and for
// segment-local multi-interface wiring, adapted from the teacher's virtual
// TCP bus concurrency skeleton with the wire protocol stripped out.
package loopback

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/samsamfire/go-openlcb/pkg/can"
)

func init() {
	can.RegisterInterface("loopback", NewBus)
}

// hub fans frames out to every Bus subscribed under one channel name.
type hub struct {
	mu      sync.Mutex
	members []*Bus
}

var (
	hubsMu sync.Mutex
	hubs   = make(map[string]*hub)
)

func getHub(name string) *hub {
	hubsMu.Lock()
	defer hubsMu.Unlock()
	h, ok := hubs[name]
	if !ok {
		h = &hub{}
		hubs[name] = h
	}
	return h
}

func (h *hub) join(b *Bus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.members = append(h.members, b)
}

func (h *hub) leave(b *Bus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, m := range h.members {
		if m == b {
			h.members = append(h.members[:i], h.members[i+1:]...)
			break
		}
	}
}

func (h *hub) broadcast(from *Bus, frame can.Frame) {
	h.mu.Lock()
	members := make([]*Bus, len(h.members))
	copy(members, h.members)
	h.mu.Unlock()

	for _, m := range members {
		if m == from {
			continue
		}
		m.deliver(frame)
	}
}

// Bus is a loopback Bus: Send fans out synchronously to every other Bus
// joined to the same channel name, Subscribe registers the FrameListener
// that receives the frames those other Buses send (never this Bus's own).
type Bus struct {
	mu        sync.Mutex
	hub       *hub
	listener  can.FrameListener
	closed    bool
	closeOnce sync.Once
}

// NewBus joins the loopback hub named by channel. Multiple Bus instances
// constructed with the same channel name see each other's frames.
func NewBus(channel string) (can.Bus, error) {
	b := &Bus{hub: getHub(channel)}
	b.hub.join(b)
	return b, nil
}

// Connect is a no-op: loopback buses are always connected once constructed.
func (b *Bus) Connect(...any) error {
	return nil
}

// Send broadcasts frame to every other Bus on the same channel.
func (b *Bus) Send(frame can.Frame) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil
	}
	b.hub.broadcast(b, frame)
	return nil
}

// Subscribe registers the listener that receives frames broadcast by peers.
func (b *Bus) Subscribe(listener can.FrameListener) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listener = listener
	return nil
}

func (b *Bus) deliver(frame can.Frame) {
	b.mu.Lock()
	listener := b.listener
	closed := b.closed
	b.mu.Unlock()
	if closed || listener == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("loopback: frame listener panicked")
		}
	}()
	listener.Handle(frame)
}

// Close leaves the hub; Send becomes a no-op and no further frames are
// delivered to this Bus.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
		b.hub.leave(b)
	})
	return nil
}
