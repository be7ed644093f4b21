package openlcb

import "testing"

func TestNewNodeIDRoundTrip(t *testing.T) {
	n := NewNodeID(0x010203040506)
	if got := n.Uint64(); got != 0x010203040506 {
		t.Fatalf("Uint64() = %#x, want %#x", got, uint64(0x010203040506))
	}
}

func TestNewNodeIDTruncatesToLow48Bits(t *testing.T) {
	n := NewNodeID(0xFFFF010203040506)
	if got := n.Uint64(); got != 0x010203040506 {
		t.Fatalf("Uint64() = %#x, want low 48 bits only", got)
	}
}

func TestNodeIDFromBytes(t *testing.T) {
	b := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0xFF}
	n := NodeIDFromBytes(b)
	if got, want := n.Bytes(), b[:6]; string(got) != string(want) {
		t.Fatalf("Bytes() = %x, want %x", got, want)
	}
}

func TestNodeIDIsUnknown(t *testing.T) {
	var zero NodeID
	if !zero.IsUnknown() {
		t.Fatal("zero-value NodeID should be unknown")
	}
	if NewNodeID(1).IsUnknown() {
		t.Fatal("non-zero NodeID should not be unknown")
	}
}

func TestNodeIDString(t *testing.T) {
	n := NewNodeID(0x010200000101)
	if got, want := n.String(), "01.02.00.00.01.01"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
