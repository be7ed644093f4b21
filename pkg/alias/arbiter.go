package alias

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/samsamfire/go-openlcb/pkg/can"
)

// State is a step in the Check-ID/Reserve-ID alias acquisition sequence
// (spec.md §4.4).
type State int

const (
	StateInitial State = iota
	StateCID1Sent
	StateCID2Sent
	StateCID3Sent
	StateCID4Sent
	StateRIDSent
	StateActive
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "INITIAL"
	case StateCID1Sent:
		return "CID1_SENT"
	case StateCID2Sent:
		return "CID2_SENT"
	case StateCID3Sent:
		return "CID3_SENT"
	case StateCID4Sent:
		return "CID4_SENT"
	case StateRIDSent:
		return "RID_SENT"
	case StateActive:
		return "ACTIVE"
	default:
		return "UNKNOWN"
	}
}

const (
	cidInterval  = 250 * time.Microsecond
	ridQuietTime = 200 * time.Millisecond
)

// FrameSink is the outbound half of the frame transport the arbiter emits
// CID/RID/AMD frames onto directly, bypassing the message plane.
type FrameSink interface {
	Send(frame can.Frame) error
}

// Arbiter drives CID1-CID4 + RID emission, collision handling and alias
// acquisition for a single local NodeID (spec.md §4.4). It is isolated from
// message-plane logic: it consumes raw CAN frames and writes raw CAN
// frames, never OpenLCB Messages. Tick must be called periodically by the
// owner (pkg/iface drives it from a dedicated timer goroutine, not through
// its executor; the Arbiter guards its state with its own mutex), matching
// the reference implementation's externally-clocked
// process(elapsed, *nextDeadline) pattern.
type Arbiter struct {
	mu sync.Mutex

	nodeID NodeIDKey
	sink   FrameSink
	prng   *prng

	state        State
	candidate    uint16
	timeInState  time.Duration
	onActive     func(alias uint16)
	onRelinquish func(alias uint16)
}

// NewArbiter constructs an Arbiter for nodeID, emitting control frames via
// sink. onActive is called once arbitration succeeds; onRelinquish is
// called whenever an ACTIVE alias is defended unsuccessfully and must be
// re-arbitrated. Either callback may be nil.
func NewArbiter(nodeID NodeIDKey, sink FrameSink, onActive, onRelinquish func(alias uint16)) *Arbiter {
	a := &Arbiter{
		nodeID:       nodeID,
		sink:         sink,
		prng:         newPRNG(seedFromNodeID(nodeID)),
		onActive:     onActive,
		onRelinquish: onRelinquish,
	}
	a.candidate = a.prng.next()
	return a
}

// Alias returns the currently held or candidate alias and whether
// arbitration has completed (state == ACTIVE).
func (a *Arbiter) Alias() (alias uint16, active bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.candidate, a.state == StateActive
}

// Start emits the first CID1 frame and enters CID1_SENT; call once at
// startup. A collision-driven restart from ObserveFrame re-enters CID1_SENT
// internally, so Start need not be called again.
func (a *Arbiter) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enterCID(1)
}

// Tick advances time by elapsed and performs any state transition whose
// deadline has passed. It returns the delay until the next transition is
// due, for the caller to use as its next wake-up, mirroring the teacher's
// process(timeDifferenceUs uint32, timerNextUs *uint32) convention.
func (a *Arbiter) Tick(elapsed time.Duration) time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.timeInState += elapsed
	switch a.state {
	case StateCID1Sent:
		if a.timeInState >= cidInterval {
			a.enterCID(2)
		}
	case StateCID2Sent:
		if a.timeInState >= cidInterval {
			a.enterCID(3)
		}
	case StateCID3Sent:
		if a.timeInState >= cidInterval {
			a.enterCID(4)
		}
	case StateCID4Sent:
		if a.timeInState >= ridQuietTime {
			a.enterRID()
		}
	}

	switch a.state {
	case StateCID1Sent, StateCID2Sent, StateCID3Sent:
		return cidInterval - a.timeInState
	case StateCID4Sent:
		return ridQuietTime - a.timeInState
	default:
		return time.Hour
	}
}

// ObserveFrame inspects an inbound CAN frame for arbitration relevance:
// prior to ACTIVE, any frame from our candidate alias is a collision and
// restarts arbitration; once ACTIVE, a CID frame targeting our alias is
// defended by re-emitting RID, while an RID or AMD frame claiming our
// alias forces relinquish and re-arbitration. Any other frame type
// (including an ordinary message frame) carrying our active alias is
// likewise treated as a collision and forces relinquish (spec.md §4.4, §4.6).
func (a *Arbiter) ObserveFrame(f can.Frame) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if f.SourceAlias() != a.candidate {
		return
	}

	if a.state != StateActive {
		log.WithField("alias", a.candidate).Debug("alias: collision during arbitration, restarting")
		a.restart()
		return
	}

	switch {
	case f.FrameType() == can.FrameTypeControl && isCheckID(f):
		a.emitRID()
	case f.IsAliasMapReset(), f.FrameType() == can.FrameTypeControl && f.IsReserveID():
		a.relinquish()
	case f.IsAliasMapDefinition():
		a.relinquish()
	default:
		// Any other frame type carrying our active alias as its source
		// means another node is using it: collision (spec.md §4.6).
		a.relinquish()
	}
}

func isCheckID(f can.Frame) bool {
	return f.IsCheckID1() || f.IsCheckID2() || f.IsCheckID3() || f.IsCheckID4()
}

func (a *Arbiter) restart() {
	a.candidate = a.prng.next()
	a.enterCID(1)
}

func (a *Arbiter) relinquish() {
	old := a.candidate
	if a.onRelinquish != nil {
		a.onRelinquish(old)
	}
	a.restart()
}

func (a *Arbiter) enterCID(n int) {
	var state State
	switch n {
	case 1:
		state = StateCID1Sent
	case 2:
		state = StateCID2Sent
	case 3:
		state = StateCID3Sent
	case 4:
		state = StateCID4Sent
	}
	a.state = state
	a.timeInState = 0
	chunk := cidChunk(a.nodeID, a.candidate, n)
	a.send(can.NewControlFrame(can.ControlCheckID1+uint8(n-1), a.candidate, chunk, nil))
}

func (a *Arbiter) enterRID() {
	a.state = StateRIDSent
	a.timeInState = 0
	a.send(can.NewControlFrame(can.ControlReserveID, a.candidate, 0, nil))
	a.enterActive()
}

func (a *Arbiter) enterActive() {
	a.state = StateActive
	a.timeInState = 0
	a.send(can.NewControlFrame(can.ControlAliasMapDefinition, a.candidate, 0, a.nodeID[:]))
	if a.onActive != nil {
		a.onActive(a.candidate)
	}
}

func (a *Arbiter) emitRID() {
	a.send(can.NewControlFrame(can.ControlReserveID, a.candidate, 0, nil))
}

func (a *Arbiter) send(f can.Frame) {
	if a.sink == nil {
		return
	}
	if err := a.sink.Send(f); err != nil {
		log.WithError(err).Warn("alias: failed to send arbitration frame")
	}
}

// cidChunk derives the 12-bit payload carried by CIDn: the nth 12-bit
// segment of the 48-bit NodeID (most significant first), XORed with the
// candidate alias, per the OpenLCB CAN alias-allocation protocol.
func cidChunk(nodeID NodeIDKey, alias uint16, n int) uint16 {
	full := uint64(0)
	for _, b := range nodeID {
		full = full<<8 | uint64(b)
	}
	shift := uint((4 - n) * 12)
	segment := uint16(full>>shift) & 0x0FFF
	return segment ^ alias
}

func seedFromNodeID(nodeID NodeIDKey) uint64 {
	var v uint64
	for _, b := range nodeID {
		v = v<<8 | uint64(b)
	}
	return v
}

// prng is a small xorshift64 generator producing 12-bit candidates in
// [0x001, 0xFFE], excluding the reserved 0x000 and 0xFFF values.
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	return &prng{state: seed}
}

func (p *prng) next() uint16 {
	for {
		p.state ^= p.state << 13
		p.state ^= p.state >> 7
		p.state ^= p.state << 17
		v := uint16(p.state & 0x0FFF)
		if v != 0x000 && v != 0xFFF {
			return v
		}
	}
}
