package can

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageFrameHeaderScenario1(t *testing.T) {
	// spec.md scenario 1: InitializationComplete, alias 0x333, priority 1.
	f := NewMessageFrame(0x100, 1, 0x333, []byte{0x01, 0x02, 0x00, 0x00, 0x01, 0x01})
	assert.Equal(t, uint32(0x19100333), f.Header)
	assert.Equal(t, uint16(0x333), f.SourceAlias())
	assert.Equal(t, uint16(0x100), f.MTI())
	assert.Equal(t, uint8(1), f.Priority())
	assert.Equal(t, FrameTypeMessage, f.FrameType())
}

func TestMessageFrameHeaderScenario2(t *testing.T) {
	// spec.md scenario 2: VerifiedNodeID, alias 0x444, priority 1.
	f := NewMessageFrame(0x170, 1, 0x444, []byte{0x01, 0x02, 0x00, 0x00, 0x01, 0x01})
	assert.Equal(t, uint32(0x19170444), f.Header)
	assert.Equal(t, uint16(0x444), f.SourceAlias())
	assert.Equal(t, uint16(0x170), f.MTI())
}

func TestAddressedPrefixFirstOnly(t *testing.T) {
	f := NewAddressedMessageFrame(0x488, 1, 0x333, 0x444, ContinuationFirstOnly, []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF})
	assert.Equal(t, byte(0x14), f.Data[0])
	assert.Equal(t, byte(0x44), f.Data[1])
	cont, dest := f.AddressedPrefix()
	assert.Equal(t, ContinuationFirstOnly, cont)
	assert.Equal(t, uint16(0x444), dest)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}, f.AddressedUserPayload())
}

func TestAddressedPrefixLastOnly(t *testing.T) {
	f := NewAddressedMessageFrame(0x488, 1, 0x333, 0x444, ContinuationLastOnly, []byte{0x01})
	assert.Equal(t, byte(0x24), f.Data[0])
	assert.Equal(t, byte(0x44), f.Data[1])
	cont, dest := f.AddressedPrefix()
	assert.Equal(t, ContinuationLastOnly, cont)
	assert.Equal(t, uint16(0x444), dest)
}

func TestControlFrameClassification(t *testing.T) {
	f := NewControlFrame(ControlCheckID1, 0x333, 0x001, nil)
	assert.True(t, f.IsCheckID1())
	assert.False(t, f.IsCheckID2())
	assert.Equal(t, FrameTypeControl, f.FrameType())
	assert.Equal(t, uint16(0x333), f.SourceAlias())
	assert.Equal(t, uint16(0x001), f.ControlChunk())
}

func TestPayloadTruncatesToLen(t *testing.T) {
	f := Frame{Len: 3, Data: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}}
	assert.Equal(t, []byte{1, 2, 3}, f.Payload())
}

func TestNodeIDFromPayload(t *testing.T) {
	f := NewMessageFrame(0x100, 1, 0x333, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06})
	assert.Equal(t, [6]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}, f.NodeIDFromPayload())
}
