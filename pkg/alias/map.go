// Package alias maintains the segment's bidirectional NodeID<->alias
// registry (AliasMap) and the CID/RID arbitration state machine a node
// runs to claim a fresh alias (AliasArbiter). Both are grounded on
// org.openlcb.can.AliasMap and the reference implementation's alias
// allocation protocol.
package alias

import (
	"sync"

	"github.com/samsamfire/go-openlcb/pkg/can"
)

// Watcher is notified when a new alias is discovered.
type Watcher interface {
	AliasAdded(id NodeIDKey, alias uint16)
}

// WatcherFunc adapts a function to the Watcher interface.
type WatcherFunc func(id NodeIDKey, alias uint16)

// AliasAdded implements Watcher.
func (f WatcherFunc) AliasAdded(id NodeIDKey, alias uint16) { f(id, alias) }

// NodeIDKey is a comparable 6-byte NodeID, used as a map key. Callers
// convert to/from openlcb.NodeID at the package boundary so this package
// has no dependency on the root package.
type NodeIDKey [6]byte

// Map is a two-way NodeID<->alias registry (spec.md §5.1), safe for
// concurrent use. The zero value is ready to use.
type Map struct {
	mu       sync.Mutex
	byAlias  map[uint16]NodeIDKey
	byNodeID map[NodeIDKey]uint16
	watchers []Watcher
}

// NewMap constructs an empty Map.
func NewMap() *Map {
	return &Map{
		byAlias:  make(map[uint16]NodeIDKey),
		byNodeID: make(map[NodeIDKey]uint16),
	}
}

// AddWatcher registers w to be notified of future Insert calls.
func (m *Map) AddWatcher(w Watcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers = append(m.watchers, w)
}

// Insert records alias as bound to id, overwriting any previous mapping
// for either key, then notifies watchers. Watchers are called after the
// lock is released, matching the reference implementation's
// lock-then-notify ordering so a watcher can safely call back into Map.
func (m *Map) Insert(alias uint16, id NodeIDKey) {
	m.mu.Lock()
	if m.byAlias == nil {
		m.byAlias = make(map[uint16]NodeIDKey)
		m.byNodeID = make(map[NodeIDKey]uint16)
	}
	if oldID, ok := m.byAlias[alias]; ok && oldID != id {
		delete(m.byNodeID, oldID)
	}
	if oldAlias, ok := m.byNodeID[id]; ok && oldAlias != alias {
		delete(m.byAlias, oldAlias)
	}
	m.byAlias[alias] = id
	m.byNodeID[id] = alias
	watchers := make([]Watcher, len(m.watchers))
	copy(watchers, m.watchers)
	m.mu.Unlock()

	for _, w := range watchers {
		w.AliasAdded(id, alias)
	}
}

// Remove drops the mapping for alias, if any.
func (m *Map) Remove(alias uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byAlias[alias]
	if !ok {
		return
	}
	delete(m.byAlias, alias)
	delete(m.byNodeID, id)
}

// NodeID returns the NodeID bound to alias and whether a mapping exists.
func (m *Map) NodeID(alias uint16) (NodeIDKey, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byAlias[alias]
	return id, ok
}

// Alias returns the alias bound to id and whether a mapping exists.
func (m *Map) Alias(id NodeIDKey) (uint16, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	alias, ok := m.byAlias2(id)
	return alias, ok
}

func (m *Map) byAlias2(id NodeIDKey) (uint16, bool) {
	alias, ok := m.byNodeID[id]
	return alias, ok
}

// ProcessFrame updates the map from observed alias-defining traffic:
// InitializationComplete, VerifiedNodeID and AliasMapDefinition (AMD)
// frames insert a mapping; AliasMapReset (AMR) frames remove one.
// initCompleteMTI and verifiedNIDMTI let the caller supply the MTI
// constants without this package depending on the root package.
func (m *Map) ProcessFrame(f can.Frame, initCompleteMTI, verifiedNIDMTI uint16) {
	switch {
	case f.IsAliasMapDefinition():
		m.Insert(f.SourceAlias(), f.NodeIDFromPayload())
	case f.IsAliasMapReset():
		m.Remove(f.SourceAlias())
	case f.IsInitializationComplete(initCompleteMTI), f.IsVerifiedNID(verifiedNIDMTI):
		m.Insert(f.SourceAlias(), f.NodeIDFromPayload())
	}
}
