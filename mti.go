package openlcb

// MTI is an OpenLCB Message Type Indicator. Only the low 12 bits are
// significant (spec.md §3): the low nibble carries the addressed and
// event-present flags, the remaining 8 bits are an opaque per-kind code.
//
//	bit 3 (0x008): addressed - the message carries a destination NodeID /
//	               alias prefix on the wire.
//	bit 2 (0x004): carries-event - the first 8 payload bytes are an EventID.
//	bits 11-4    : kind code, distinguishes the message semantics.
type MTI uint16

const (
	mtiAddressedFlag = 0x0008
	mtiEventFlag     = 0x0004
)

func newMTI(kindCode uint8, addressed, carriesEvent bool) MTI {
	m := MTI(uint16(kindCode) << 4)
	if addressed {
		m |= mtiAddressedFlag
	}
	if carriesEvent {
		m |= mtiEventFlag
	}
	return m
}

// Well-known MTI values. Exact numeric assignment beyond the two
// scenarios fixed by spec.md (InitializationComplete, VerifiedNodeID) is an
// implementation choice: spec.md §6 explicitly defers the canonical table to
// the OpenLCB-CAN specification and only constrains structure here.
const (
	MTIInitializationComplete MTI = 0x0100 // newMTI(0x10, false, false)
	MTIVerifyNodeIDGlobal     MTI = 0x0480 // newMTI(0x48, false, false)
	MTIVerifyNodeIDAddressed  MTI = 0x0488 // newMTI(0x48, true, false)
	MTIVerifiedNodeID         MTI = 0x0170 // newMTI(0x17, false, false)

	MTIProtocolSupportInquiry MTI = 0x0828 // newMTI(0x82, true, false)
	MTIProtocolSupportReply   MTI = 0x0668 // newMTI(0x66, true, false)

	MTIIdentifyEventsGlobal    MTI = 0x0960 // newMTI(0x96, false, false)
	MTIIdentifyEventsAddressed MTI = 0x0968 // newMTI(0x96, true, false)

	MTIIdentifyProducers             MTI = 0x0914 // newMTI(0x91, false, true)
	MTIIdentifyConsumers             MTI = 0x08F4 // newMTI(0x8F, false, true)
	MTIProducerConsumerEventReport   MTI = 0x05B4 // newMTI(0x5B, false, true)
	MTILearnEvent                    MTI = 0x0944 // newMTI(0x94, false, true)

	MTIDatagram             MTI = 0x0C48 // newMTI(0xC4, true, false)
	MTIDatagramAcknowledged MTI = 0x0A28 // newMTI(0xA2, true, false)
	MTIDatagramRejected     MTI = 0x0A48 // newMTI(0xA4, true, false)

	MTIStreamInitRequest MTI = 0x0C88 // newMTI(0xC8, true, false)
	MTIStreamInitReply   MTI = 0x0868 // newMTI(0x86, true, false)
	MTIStreamProceed     MTI = 0x0888 // newMTI(0x88, true, false)
	MTIStreamComplete    MTI = 0x08A8 // newMTI(0x8A, true, false)
	MTIStreamData        MTI = 0x0F88 // newMTI(0xF8, true, false)

	MTISimpleNodeIdentInfoRequest MTI = 0x0DE8 // newMTI(0xDE, true, false)
	MTISimpleNodeIdentInfoReply   MTI = 0x0A08 // newMTI(0xA0, true, false)
)

// IsAddressed reports whether messages of this MTI carry a destination
// NodeID / alias prefix on the wire.
func (m MTI) IsAddressed() bool {
	return m&mtiAddressedFlag != 0
}

// CarriesEvent reports whether messages of this MTI begin their payload
// with an 8-byte EventID.
func (m MTI) CarriesEvent() bool {
	return m&mtiEventFlag != 0
}

// Priority returns the CAN-arbitration priority (0 highest) to use when
// framing a message of this MTI. Stream data frames use a lower priority so
// bulk transfers do not starve control traffic; everything else uses
// Normal priority, matching the two InitializationComplete/VerifiedNodeID
// reference scenarios in spec.md §8.
func (m MTI) Priority() uint8 {
	if m == MTIStreamData {
		return 3
	}
	return 1
}
