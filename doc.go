// Package openlcb implements the core of an OpenLCB (NMRA-NET / LCC) node
// stack: the value types, message taxonomy, CAN frame codec, alias
// arbitration and interface dispatcher needed to join a CAN segment and
// exchange OpenLCB messages with other nodes.
//
// Higher level services (datagram transport, memory/configuration access,
// event producers/consumers, throttles) are expected to be built on top of
// the Connection contract exposed by pkg/iface; they are not part of this
// module.
package openlcb
