// Package config loads per-segment node configuration from an INI file,
// adapted from the teacher's EDS (ini.v1-backed) object-dictionary loader:
// the file format and library are kept, the schema is replaced with the
// handful of settings a segment node needs (identity, executor choice and
// initial queue capacity, transport) instead of a CANopen object
// dictionary. There is no alias-seed setting: the arbiter seeds its alias
// generator from the NodeID.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	openlcb "github.com/samsamfire/go-openlcb"
)

// ExecutorKind selects which executor.Executor implementation an Interface
// is constructed with.
type ExecutorKind string

const (
	ExecutorPool   ExecutorKind = "pool"
	ExecutorInline ExecutorKind = "inline"
)

// SegmentConfig is the set of settings needed to bring up one node on a CAN
// segment.
type SegmentConfig struct {
	NodeID        openlcb.NodeID
	Transport     string // "serial" or "loopback"
	Device        string // serial device path, or loopback channel name
	Executor      ExecutorKind
	ExecutorQueue int
}

// defaults mirror DEFAULT_NODE_ID/DEFAULT_CAN_INTERFACE in the teacher's
// cmd/canopen/main.go, adjusted to this module's settings.
const (
	defaultTransport     = "serial"
	defaultExecutorQueue = 64
)

// Load reads a SegmentConfig from an INI file at path. The expected layout:
//
//	[node]
//	id = 01.02.00.00.01.01
//
//	[transport]
//	kind = serial
//	device = /dev/ttyUSB0
//
//	[executor]
//	kind = pool
//	queue = 64
func Load(path string) (*SegmentConfig, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: loading %s: %w", path, err)
	}
	return fromFile(file)
}

func fromFile(file *ini.File) (*SegmentConfig, error) {
	nodeSection := file.Section("node")
	idStr := nodeSection.Key("id").String()
	if idStr == "" {
		return nil, fmt.Errorf("config: [node] id is required")
	}
	nodeID, err := parseNodeID(idStr)
	if err != nil {
		return nil, fmt.Errorf("config: [node] id: %w", err)
	}

	transportSection := file.Section("transport")
	transport := transportSection.Key("kind").MustString(defaultTransport)
	device := transportSection.Key("device").String()

	executorSection := file.Section("executor")
	executorKind := ExecutorKind(executorSection.Key("kind").MustString(string(ExecutorPool)))
	queue := executorSection.Key("queue").MustInt(defaultExecutorQueue)

	return &SegmentConfig{
		NodeID:        nodeID,
		Transport:     transport,
		Device:        device,
		Executor:      executorKind,
		ExecutorQueue: queue,
	}, nil
}

// parseNodeID parses the dotted-hex NodeID form produced by NodeID.String,
// e.g. "01.02.00.00.01.01".
func parseNodeID(s string) (openlcb.NodeID, error) {
	var n openlcb.NodeID
	parts := strings.Split(s, ".")
	if len(parts) != 6 {
		return n, fmt.Errorf("expected 6 dot-separated hex octets, got %q", s)
	}
	for i, p := range parts {
		b, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return n, fmt.Errorf("invalid hex octet %q in NodeID %q", p, s)
		}
		n[i] = byte(b)
	}
	return n, nil
}
