// Package serial implements a GridConnect-over-io.ReadWriteCloser Bus: the
// transport the spec treats as in-scope (physical CAN adapters are a
// Non-goal, but a GridConnect serial/TCP link to one is not). Adapted from
// the teacher's SocketcanBus wrapper shape, with brutella/can replaced by
// the gridconnect codec and a buffered line reader.
package serial

import (
	"bufio"
	"io"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/samsamfire/go-openlcb/pkg/can"
	"github.com/samsamfire/go-openlcb/pkg/can/gridconnect"
)

func init() {
	can.RegisterInterface("serial", NewBus)
}

// Opener returns a connected io.ReadWriteCloser for a channel identifier
// (e.g. a device path). Transports register one via SetOpener; tests
// supply their own.
type Opener func(channel string) (io.ReadWriteCloser, error)

var defaultOpener Opener

// SetOpener installs the Opener NewBus uses for bare device-path channels.
// cmd/olcbd calls this during startup with an OS-specific serial opener.
func SetOpener(o Opener) {
	defaultOpener = o
}

// Bus is a GridConnect-over-io.ReadWriteCloser transport.
type Bus struct {
	channel string
	conn    io.ReadWriteCloser

	mu       sync.Mutex
	listener can.FrameListener

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

// NewBus constructs a serial Bus for the given channel; the connection is
// opened lazily by Connect.
func NewBus(channel string) (can.Bus, error) {
	return &Bus{channel: channel, stopChan: make(chan struct{})}, nil
}

// NewBusWithConn wraps an already-open connection directly, bypassing the
// package-wide Opener - used by tests and by callers that manage their own
// transport (e.g. an in-memory pipe).
func NewBusWithConn(conn io.ReadWriteCloser) *Bus {
	return &Bus{conn: conn, stopChan: make(chan struct{})}
}

// Connect opens the underlying connection via the registered Opener if one
// was not already supplied.
func (b *Bus) Connect(...any) error {
	if b.conn != nil {
		return nil
	}
	if defaultOpener == nil {
		return errOpenerRequired
	}
	conn, err := defaultOpener(b.channel)
	if err != nil {
		return err
	}
	b.conn = conn
	return nil
}

// Send formats frame as GridConnect ASCII and writes it to the connection.
func (b *Bus) Send(frame can.Frame) error {
	if b.conn == nil {
		return errNotConnected
	}
	_, err := io.WriteString(b.conn, gridconnect.Format(frame))
	return err
}

// Subscribe registers listener and starts the read loop if not running.
func (b *Bus) Subscribe(listener can.FrameListener) error {
	b.mu.Lock()
	b.listener = listener
	alreadyRunning := b.running
	if !alreadyRunning {
		b.running = true
		b.wg.Add(1)
	}
	b.mu.Unlock()

	if !alreadyRunning {
		go b.readLoop()
	}
	return nil
}

func (b *Bus) readLoop() {
	defer b.wg.Done()
	if b.conn == nil {
		return
	}
	reader := bufio.NewReader(b.conn)
	var pending strings.Builder
	for {
		select {
		case <-b.stopChan:
			return
		default:
		}
		chunk, err := reader.ReadString(';')
		if err != nil {
			if err != io.EOF {
				log.WithError(err).Warn("serial: read error, closing receive loop")
			}
			return
		}
		pending.WriteString(chunk)
		frames := gridconnect.Parse(pending.String())
		pending.Reset()
		if frames == nil {
			continue
		}
		b.mu.Lock()
		listener := b.listener
		b.mu.Unlock()
		if listener == nil {
			continue
		}
		for _, f := range frames {
			listener.Handle(f)
		}
	}
}

// Close stops the read loop and closes the underlying connection.
func (b *Bus) Close() error {
	b.mu.Lock()
	running := b.running
	b.running = false
	b.mu.Unlock()

	var closeErr error
	if b.conn != nil {
		closeErr = b.conn.Close()
	}
	if running {
		close(b.stopChan)
		b.wg.Wait()
	}
	return closeErr
}
