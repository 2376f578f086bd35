package gridmap

import (
	"sync"
)

// Handle is a shared, versioned reference to the current occupancy map.
// Providers swap in whole new maps; planners snapshot the handle at the
// start of a call and can tell afterwards whether the map changed under
// them. The map itself is never mutated through a Handle.
type Handle struct {
	mu      sync.RWMutex
	m       Map
	version uint64
}

// NewHandle wraps a map in a shared handle. A nil map is allowed; planning
// against it fails until a map is swapped in.
func NewHandle(m Map) *Handle {
	return &Handle{m: m}
}

// Swap replaces the current map and bumps the handle version.
func (h *Handle) Swap(m Map) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.m = m
	h.version++
}

// Snapshot returns the current map together with the version it was
// published under.
func (h *Handle) Snapshot() (Map, uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.m, h.version
}

// Version returns the current handle version.
func (h *Handle) Version() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.version
}
