package openlcb

import "fmt"

// Message is the tagged-variant representation of an OpenLCB message
// (spec.md §3, §9 "Polymorphic messages"). Rather than a class hierarchy,
// every message kind is the same struct; MTI.IsAddressed / MTI.CarriesEvent
// tell a consumer which of Dest / Event are populated.
type Message struct {
	MTI     MTI
	Source  NodeID
	Dest    *NodeID // non-nil iff MTI.IsAddressed()
	Event   *EventID
	Payload []byte
}

func (m Message) String() string {
	switch {
	case m.Dest != nil && m.Event != nil:
		return fmt.Sprintf("MTI(%03x) %s->%s evt=%s", uint16(m.MTI), m.Source, *m.Dest, *m.Event)
	case m.Dest != nil:
		return fmt.Sprintf("MTI(%03x) %s->%s [%d bytes]", uint16(m.MTI), m.Source, *m.Dest, len(m.Payload))
	case m.Event != nil:
		return fmt.Sprintf("MTI(%03x) %s evt=%s", uint16(m.MTI), m.Source, *m.Event)
	default:
		return fmt.Sprintf("MTI(%03x) %s [%d bytes]", uint16(m.MTI), m.Source, len(m.Payload))
	}
}

// NewInitializationComplete builds the message a node sends once it has
// acquired an alias and joined the segment.
func NewInitializationComplete(source NodeID) Message {
	return Message{MTI: MTIInitializationComplete, Source: source, Payload: source.Bytes()}
}

// NewVerifyNodeIDGlobal builds a global request asking whether any node on
// the segment has the given NodeID (nil id broadcasts to all nodes).
func NewVerifyNodeIDGlobal(source NodeID, id *NodeID) Message {
	var payload []byte
	if id != nil {
		payload = id.Bytes()
	}
	return Message{MTI: MTIVerifyNodeIDGlobal, Source: source, Payload: payload}
}

// NewVerifyNodeIDAddressed builds an addressed request asking a specific
// node to confirm its NodeID.
func NewVerifyNodeIDAddressed(source, dest NodeID) Message {
	return Message{MTI: MTIVerifyNodeIDAddressed, Source: source, Dest: &dest}
}

// NewVerifiedNodeID builds the reply to a Verify NodeID request.
func NewVerifiedNodeID(source NodeID) Message {
	return Message{MTI: MTIVerifiedNodeID, Source: source, Payload: source.Bytes()}
}

// NewProtocolSupportInquiry builds an addressed request for the set of
// protocols a node supports.
func NewProtocolSupportInquiry(source, dest NodeID) Message {
	return Message{MTI: MTIProtocolSupportInquiry, Source: source, Dest: &dest}
}

// NewProtocolSupportReply builds the reply to a Protocol Support Inquiry;
// mask is the opaque bitmask payload defined by the protocol-identification
// protocol.
func NewProtocolSupportReply(source, dest NodeID, mask []byte) Message {
	return Message{MTI: MTIProtocolSupportReply, Source: source, Dest: &dest, Payload: mask}
}

// NewIdentifyEventsGlobal builds a global request that every node report
// the events it produces or consumes.
func NewIdentifyEventsGlobal(source NodeID) Message {
	return Message{MTI: MTIIdentifyEventsGlobal, Source: source}
}

// NewIdentifyEventsAddressed builds the addressed variant of
// NewIdentifyEventsGlobal, targeted at a single node.
func NewIdentifyEventsAddressed(source, dest NodeID) Message {
	return Message{MTI: MTIIdentifyEventsAddressed, Source: source, Dest: &dest}
}

// NewIdentifyProducers asks which node(s) produce the given event.
func NewIdentifyProducers(source NodeID, event EventID) Message {
	return Message{MTI: MTIIdentifyProducers, Source: source, Event: &event}
}

// NewIdentifyConsumers asks which node(s) consume the given event.
func NewIdentifyConsumers(source NodeID, event EventID) Message {
	return Message{MTI: MTIIdentifyConsumers, Source: source, Event: &event}
}

// NewProducerConsumerEventReport builds an event report: source produced
// (or a consumer observed) the given event.
func NewProducerConsumerEventReport(source NodeID, event EventID) Message {
	return Message{MTI: MTIProducerConsumerEventReport, Source: source, Event: &event}
}

// NewLearnEvent tells listening consumers to learn an association with the
// given event.
func NewLearnEvent(source NodeID, event EventID) Message {
	return Message{MTI: MTILearnEvent, Source: source, Event: &event}
}

// NewDatagram builds an addressed datagram carrying an opaque application
// payload (spec.md §4.3 handles the > 8 byte split transparently).
func NewDatagram(source, dest NodeID, payload []byte) Message {
	return Message{MTI: MTIDatagram, Source: source, Dest: &dest, Payload: payload}
}

// NewDatagramAcknowledged acknowledges receipt of a datagram.
func NewDatagramAcknowledged(source, dest NodeID) Message {
	return Message{MTI: MTIDatagramAcknowledged, Source: source, Dest: &dest}
}

// NewDatagramRejected rejects a datagram; payload carries the reason code.
func NewDatagramRejected(source, dest NodeID, reason []byte) Message {
	return Message{MTI: MTIDatagramRejected, Source: source, Dest: &dest, Payload: reason}
}

// NewStreamInitRequest requests setup of a stream to dest.
func NewStreamInitRequest(source, dest NodeID, payload []byte) Message {
	return Message{MTI: MTIStreamInitRequest, Source: source, Dest: &dest, Payload: payload}
}

// NewStreamInitReply replies to a stream init request.
func NewStreamInitReply(source, dest NodeID, payload []byte) Message {
	return Message{MTI: MTIStreamInitReply, Source: source, Dest: &dest, Payload: payload}
}

// NewStreamProceed authorizes the sender to continue a stream transfer.
func NewStreamProceed(source, dest NodeID, payload []byte) Message {
	return Message{MTI: MTIStreamProceed, Source: source, Dest: &dest, Payload: payload}
}

// NewStreamComplete signals the end of a stream transfer.
func NewStreamComplete(source, dest NodeID, payload []byte) Message {
	return Message{MTI: MTIStreamComplete, Source: source, Dest: &dest, Payload: payload}
}

// NewStreamData carries a chunk of stream payload.
func NewStreamData(source, dest NodeID, payload []byte) Message {
	return Message{MTI: MTIStreamData, Source: source, Dest: &dest, Payload: payload}
}

// NewSimpleNodeIdentInfoRequest requests a node's SNIP data.
func NewSimpleNodeIdentInfoRequest(source, dest NodeID) Message {
	return Message{MTI: MTISimpleNodeIdentInfoRequest, Source: source, Dest: &dest}
}

// NewSimpleNodeIdentInfoReply carries a node's SNIP data.
func NewSimpleNodeIdentInfoReply(source, dest NodeID, payload []byte) Message {
	return Message{MTI: MTISimpleNodeIdentInfoReply, Source: source, Dest: &dest, Payload: payload}
}

// NewAddressedMessage builds a generic addressed message for any MTI not
// covered by a dedicated constructor; callers are responsible for the MTI
// being addressed.
func NewAddressedMessage(mti MTI, source, dest NodeID, payload []byte) Message {
	return Message{MTI: mti, Source: source, Dest: &dest, Payload: payload}
}
