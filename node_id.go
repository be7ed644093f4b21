package openlcb

import "fmt"

// NodeID is a 48-bit globally unique OpenLCB node identifier.
//
// The all-zero NodeID is a sentinel meaning "unknown" and must never be
// transmitted as a message source.
type NodeID [6]byte

// NewNodeID builds a NodeID from its 48-bit integer representation, using
// only the low 48 bits of id.
func NewNodeID(id uint64) NodeID {
	var n NodeID
	n[0] = byte(id >> 40)
	n[1] = byte(id >> 32)
	n[2] = byte(id >> 24)
	n[3] = byte(id >> 16)
	n[4] = byte(id >> 8)
	n[5] = byte(id)
	return n
}

// NodeIDFromBytes copies the first 6 bytes of b into a NodeID. It panics if
// b is shorter than 6 bytes, matching the teacher's convention of
// constructor functions that assume well-formed callers.
func NodeIDFromBytes(b []byte) NodeID {
	var n NodeID
	copy(n[:], b[:6])
	return n
}

// IsUnknown reports whether this is the all-zero sentinel NodeID.
func (n NodeID) IsUnknown() bool {
	return n == NodeID{}
}

// Uint64 returns the 48-bit value of the NodeID in the low 48 bits of a
// uint64.
func (n NodeID) Uint64() uint64 {
	return uint64(n[0])<<40 | uint64(n[1])<<32 | uint64(n[2])<<24 |
		uint64(n[3])<<16 | uint64(n[4])<<8 | uint64(n[5])
}

// Bytes returns the 6-byte big-endian representation of the NodeID.
func (n NodeID) Bytes() []byte {
	b := make([]byte, 6)
	copy(b, n[:])
	return b
}

// String renders the NodeID in dotted-hex form, e.g. "01.02.00.00.01.01".
func (n NodeID) String() string {
	return fmt.Sprintf("%02x.%02x.%02x.%02x.%02x.%02x", n[0], n[1], n[2], n[3], n[4], n[5])
}
