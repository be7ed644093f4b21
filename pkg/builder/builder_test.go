package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	openlcb "github.com/samsamfire/go-openlcb"
	"github.com/samsamfire/go-openlcb/pkg/alias"
	"github.com/samsamfire/go-openlcb/pkg/can"
)

func newResolvedMap(t *testing.T, pairs ...struct {
	id    openlcb.NodeID
	alias uint16
}) *alias.Map {
	t.Helper()
	m := alias.NewMap()
	for _, p := range pairs {
		m.Insert(p.alias, alias.NodeIDKey(p.id))
	}
	return m
}

func pair(id openlcb.NodeID, a uint16) struct {
	id    openlcb.NodeID
	alias uint16
} {
	return struct {
		id    openlcb.NodeID
		alias uint16
	}{id, a}
}

func TestProcessMessageUnaddressedScenario1(t *testing.T) {
	source := openlcb.NewNodeID(0x010200000101)
	m := newResolvedMap(t, pair(source, 0x333))
	b := New(m)

	msg := openlcb.NewInitializationComplete(source)
	frames, err := b.ProcessMessage(msg)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, uint32(0x19100333), frames[0].Header)
	assert.Equal(t, []byte{0x01, 0x02, 0x00, 0x00, 0x01, 0x01}, frames[0].Payload())
}

func TestProcessMessageUnknownSourceAlias(t *testing.T) {
	b := New(alias.NewMap())
	_, err := b.ProcessMessage(openlcb.NewInitializationComplete(openlcb.NewNodeID(1)))
	assert.ErrorIs(t, err, openlcb.ErrUnknownSourceAlias)
}

func TestProcessMessageUnknownDestinationAlias(t *testing.T) {
	source := openlcb.NewNodeID(1)
	dest := openlcb.NewNodeID(2)
	m := newResolvedMap(t, pair(source, 0x333))
	b := New(m)
	_, err := b.ProcessMessage(openlcb.NewVerifyNodeIDAddressed(source, dest))
	assert.ErrorIs(t, err, openlcb.ErrUnknownDestinationAlias)
}

func TestProcessMessageAddressedMultiFrameScenario3(t *testing.T) {
	source := openlcb.NewNodeID(1)
	dest := openlcb.NewNodeID(2)
	m := newResolvedMap(t, pair(source, 0x333), pair(dest, 0x444))
	b := New(m)

	payload := make([]byte, 12)
	for i := range payload {
		payload[i] = byte(i)
	}
	msg := openlcb.NewDatagram(source, dest, payload)
	frames, err := b.ProcessMessage(msg)
	require.NoError(t, err)
	require.Len(t, frames, 2)

	assert.Equal(t, []byte{0x14, 0x44, 0x00, 0x01, 0x02, 0x03, 0x04, 0x05}, frames[0].Payload())
	assert.Equal(t, []byte{0x24, 0x44, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B}, frames[1].Payload())
}

func TestProcessFrameRoundTripUnaddressed(t *testing.T) {
	source := openlcb.NewNodeID(0x010200000101)
	m := newResolvedMap(t, pair(source, 0x333))
	b := New(m)

	msg := openlcb.NewInitializationComplete(source)
	frames, err := b.ProcessMessage(msg)
	require.NoError(t, err)

	got, err := b.ProcessFrame(frames[0])
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, msg, *got)
}

func TestProcessFrameRoundTripAddressedMultiFrame(t *testing.T) {
	source := openlcb.NewNodeID(1)
	dest := openlcb.NewNodeID(2)
	m := newResolvedMap(t, pair(source, 0x333), pair(dest, 0x444))
	b := New(m)

	payload := make([]byte, 70)
	for i := range payload {
		payload[i] = byte(i)
	}
	msg := openlcb.NewDatagram(source, dest, payload)
	frames, err := b.ProcessMessage(msg)
	require.NoError(t, err)
	require.Greater(t, len(frames), 1)

	var got *openlcb.Message
	for _, f := range frames {
		var err error
		got, err = b.ProcessFrame(f)
		require.NoError(t, err)
	}
	require.NotNil(t, got)
	assert.Equal(t, msg, *got)
}

func TestProcessFrameControlFrameIgnored(t *testing.T) {
	b := New(alias.NewMap())
	f := can.NewControlFrame(can.ControlCheckID1, 0x333, 0, nil)
	msg, err := b.ProcessFrame(f)
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestProcessFrameEmptyPayload(t *testing.T) {
	source := openlcb.NewNodeID(1)
	m := newResolvedMap(t, pair(source, 0x333))
	b := New(m)
	msg := openlcb.NewVerifyNodeIDGlobal(source, nil)
	frames, err := b.ProcessMessage(msg)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, uint8(0), frames[0].Len)

	got, err := b.ProcessFrame(frames[0])
	require.NoError(t, err)
	assert.Equal(t, msg, *got)
}

func TestProcessFrameExactlyEightByteSingleFrame(t *testing.T) {
	source := openlcb.NewNodeID(1)
	dest := openlcb.NewNodeID(2)
	m := newResolvedMap(t, pair(source, 0x333), pair(dest, 0x444))
	b := New(m)

	payload := []byte{1, 2, 3, 4, 5, 6}
	msg := openlcb.NewDatagram(source, dest, payload)
	frames, err := b.ProcessMessage(msg)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, uint8(8), frames[0].Len)
}

func TestProcessFrameNineByteTwoFrameSplit(t *testing.T) {
	source := openlcb.NewNodeID(1)
	dest := openlcb.NewNodeID(2)
	m := newResolvedMap(t, pair(source, 0x333), pair(dest, 0x444))
	b := New(m)

	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	msg := openlcb.NewDatagram(source, dest, payload)
	frames, err := b.ProcessMessage(msg)
	require.NoError(t, err)
	require.Len(t, frames, 2)

	got, err := b.ProcessFrame(frames[0])
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = b.ProcessFrame(frames[1])
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, payload, got.Payload)
}

func TestProcessFrameUnknownSourceAliasYieldsSentinel(t *testing.T) {
	b := New(alias.NewMap())
	f := can.NewMessageFrame(uint16(openlcb.MTIInitializationComplete), 1, 0x333, []byte{1, 2, 3, 4, 5, 6})
	msg, err := b.ProcessFrame(f)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.True(t, msg.Source.IsUnknown())
}
