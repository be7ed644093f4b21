package openlcb

import "fmt"

// EventID is a 64-bit OpenLCB event identifier.
type EventID [8]byte

// NewEventID builds an EventID from its 64-bit integer representation.
func NewEventID(id uint64) EventID {
	var e EventID
	for i := 0; i < 8; i++ {
		e[i] = byte(id >> (56 - 8*i))
	}
	return e
}

// EventIDFromBytes copies the first 8 bytes of b into an EventID.
func EventIDFromBytes(b []byte) EventID {
	var e EventID
	copy(e[:], b[:8])
	return e
}

// Uint64 returns the integer value of the EventID.
func (e EventID) Uint64() uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(e[i])
	}
	return v
}

// Bytes returns the 8-byte big-endian representation of the EventID.
func (e EventID) Bytes() []byte {
	b := make([]byte, 8)
	copy(b, e[:])
	return b
}

// String renders the EventID in dotted-hex form.
func (e EventID) String() string {
	return fmt.Sprintf("%02x.%02x.%02x.%02x.%02x.%02x.%02x.%02x",
		e[0], e[1], e[2], e[3], e[4], e[5], e[6], e[7])
}
