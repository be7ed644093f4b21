// Package builder implements the bidirectional codec between OpenLCB
// Messages and the CAN frames that carry them (spec.md §4.3): ProcessMessage
// encodes a Message into one or more Frames, resolving aliases via an
// alias.Map; ProcessFrame decodes Frames back into Messages, reassembling
// addressed multi-frame sequences.
package builder

import (
	log "github.com/sirupsen/logrus"

	openlcb "github.com/samsamfire/go-openlcb"
	"github.com/samsamfire/go-openlcb/internal/reassembly"
	"github.com/samsamfire/go-openlcb/pkg/alias"
	"github.com/samsamfire/go-openlcb/pkg/can"
)

// maxSingleFrameUserPayload is the largest user-payload chunk that fits in
// one addressed-message frame alongside its 2-byte prefix (spec.md §4.3
// step 5: "frames of at most 6 payload bytes").
const maxSingleFrameUserPayload = 6

type seqKey struct {
	sourceAlias uint16
	mti         uint16
}

type sequence struct {
	buffer *reassembly.Buffer
	source openlcb.NodeID
	dest   uint16
}

// Builder holds the reassembly state for one interface's inbound path. It
// is not safe for concurrent use; spec.md §5 assigns each interface its own
// Builder on its single owning thread.
type Builder struct {
	aliasMap *alias.Map
	pending  map[seqKey]*sequence
}

// New constructs a Builder backed by aliasMap for source/destination
// resolution.
func New(aliasMap *alias.Map) *Builder {
	return &Builder{aliasMap: aliasMap, pending: make(map[seqKey]*sequence)}
}

// ProcessMessage encodes msg into the CAN frames that carry it, resolving
// msg.Source (and msg.Dest, if addressed) via the Builder's alias.Map.
func (b *Builder) ProcessMessage(msg openlcb.Message) ([]can.Frame, error) {
	sourceAlias, ok := b.aliasMap.Alias(toKey(msg.Source))
	if !ok {
		return nil, openlcb.ErrUnknownSourceAlias
	}

	userPayload := msg.Payload
	if msg.MTI.CarriesEvent() {
		if msg.Event != nil {
			userPayload = msg.Event.Bytes()
		} else {
			userPayload = nil
		}
	}

	priority := msg.MTI.Priority()

	if !msg.MTI.IsAddressed() {
		return []can.Frame{can.NewMessageFrame(uint16(msg.MTI), priority, sourceAlias, userPayload)}, nil
	}

	if msg.Dest == nil {
		return nil, openlcb.ErrMalformedFrame
	}
	destAlias, ok := b.aliasMap.Alias(toKey(*msg.Dest))
	if !ok {
		return nil, openlcb.ErrUnknownDestinationAlias
	}

	return splitAddressed(uint16(msg.MTI), priority, sourceAlias, destAlias, userPayload), nil
}

func splitAddressed(mti uint16, priority uint8, sourceAlias, destAlias uint16, payload []byte) []can.Frame {
	if len(payload) <= maxSingleFrameUserPayload {
		return []can.Frame{can.NewAddressedMessageFrame(mti, priority, sourceAlias, destAlias, can.ContinuationFirstAndLast, payload)}
	}

	var frames []can.Frame
	for i := 0; i < len(payload); i += maxSingleFrameUserPayload {
		end := i + maxSingleFrameUserPayload
		if end > len(payload) {
			end = len(payload)
		}
		var continuation uint8
		switch {
		case i == 0:
			continuation = can.ContinuationFirstOnly
		case end == len(payload):
			continuation = can.ContinuationLastOnly
		default:
			continuation = can.ContinuationMiddle
		}
		frames = append(frames, can.NewAddressedMessageFrame(mti, priority, sourceAlias, destAlias, continuation, payload[i:end]))
	}
	return frames
}

// ProcessFrame decodes an inbound frame. It returns nil if the frame is a
// control frame, or an addressed fragment that is not yet the last in its
// sequence.
func (b *Builder) ProcessFrame(f can.Frame) (*openlcb.Message, error) {
	if f.FrameType() == can.FrameTypeControl {
		return nil, nil
	}

	source := b.resolveSource(f.SourceAlias())
	mti := openlcb.MTI(f.MTI())

	if !mti.IsAddressed() {
		msg := decodeBody(mti, source, nil, f.Payload())
		return &msg, nil
	}

	continuation, destAlias := f.AddressedPrefix()
	key := seqKey{sourceAlias: f.SourceAlias(), mti: f.MTI()}
	chunk := f.AddressedUserPayload()

	switch continuation {
	case can.ContinuationFirstAndLast:
		b.dropSequence(key)
		dest := b.resolveDest(destAlias)
		msg := decodeBody(mti, source, &dest, chunk)
		return &msg, nil

	case can.ContinuationFirstOnly:
		if _, exists := b.pending[key]; exists {
			log.WithField("mti", f.MTI()).Warn("builder: new FIRST fragment for already-open sequence, discarding previous")
		}
		seq := &sequence{buffer: reassembly.NewBuffer(reassembly.DefaultCapacity), source: source, dest: destAlias}
		if err := seq.buffer.Append(chunk); err != nil {
			delete(b.pending, key)
			return nil, err
		}
		b.pending[key] = seq
		return nil, nil

	case can.ContinuationMiddle:
		seq, exists := b.pending[key]
		if !exists {
			seq = &sequence{buffer: reassembly.NewBuffer(reassembly.DefaultCapacity), source: source, dest: destAlias}
			b.pending[key] = seq
		}
		if err := seq.buffer.Append(chunk); err != nil {
			delete(b.pending, key)
			return nil, err
		}
		return nil, nil

	case can.ContinuationLastOnly:
		seq, exists := b.pending[key]
		if !exists {
			dest := b.resolveDest(destAlias)
			msg := decodeBody(mti, source, &dest, chunk)
			return &msg, nil
		}
		if err := seq.buffer.Append(chunk); err != nil {
			delete(b.pending, key)
			return nil, err
		}
		delete(b.pending, key)
		dest := b.resolveDest(seq.dest)
		msg := decodeBody(mti, seq.source, &dest, seq.buffer.Bytes())
		return &msg, nil
	}

	return nil, openlcb.ErrBadContinuation
}

func (b *Builder) dropSequence(key seqKey) {
	delete(b.pending, key)
}

func (b *Builder) resolveSource(alias uint16) openlcb.NodeID {
	id, ok := b.aliasMap.NodeID(alias)
	if !ok {
		return openlcb.NodeID{}
	}
	return fromKey(id)
}

func (b *Builder) resolveDest(alias uint16) openlcb.NodeID {
	id, ok := b.aliasMap.NodeID(alias)
	if !ok {
		return openlcb.NodeID{}
	}
	return fromKey(id)
}

func decodeBody(mti openlcb.MTI, source openlcb.NodeID, dest *openlcb.NodeID, body []byte) openlcb.Message {
	msg := openlcb.Message{MTI: mti, Source: source, Dest: dest}
	if mti.CarriesEvent() && len(body) >= 8 {
		event := openlcb.EventIDFromBytes(body[:8])
		msg.Event = &event
		if rest := body[8:]; len(rest) > 0 {
			msg.Payload = rest
		}
		return msg
	}
	if len(body) > 0 {
		msg.Payload = body
	}
	return msg
}

func toKey(id openlcb.NodeID) alias.NodeIDKey {
	return alias.NodeIDKey(id)
}

func fromKey(k alias.NodeIDKey) openlcb.NodeID {
	return openlcb.NodeID(k)
}
