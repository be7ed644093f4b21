package openlcb

import "errors"

// Protocol-level error kinds (spec.md §7).
var (
	ErrUnknownSourceAlias      = errors.New("openlcb: no alias reserved yet for message source NodeID")
	ErrUnknownDestinationAlias = errors.New("openlcb: destination NodeID has no known alias")
	ErrMalformedFrame          = errors.New("openlcb: malformed CAN frame")
	ErrBadContinuation         = errors.New("openlcb: continuation bits inconsistent with reassembly state")
)

// Lifecycle errors (spec.md §7).
var ErrDisposed = errors.New("openlcb: operation attempted after dispose")
