package slot

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps slot ids to their channel stores. Stores are created on first
// reference and kept until Reset.
type Registry struct {
	maxSlots uint32

	mu    sync.RWMutex
	slots map[uint32]*ChannelStore // Protected by mu
}

// NewRegistry creates a registry accepting slot ids in [0, maxSlots).
// A zero maxSlots falls back to DefaultMaxSlots.
func NewRegistry(maxSlots uint32) *Registry {
	if maxSlots == 0 {
		maxSlots = DefaultMaxSlots
	}
	return &Registry{
		maxSlots: maxSlots,
		slots:    make(map[uint32]*ChannelStore),
	}
}

// MaxSlots returns the exclusive upper bound on slot ids.
func (r *Registry) MaxSlots() uint32 { return r.maxSlots }

// GetOrCreate returns the store for slotID, creating it on first use.
// Repeated calls with the same id return the same store.
func (r *Registry) GetOrCreate(slotID uint32) (*ChannelStore, error) {
	if slotID >= r.maxSlots {
		return nil, fmt.Errorf("%w: slot %d out of range [0, %d)", ErrInvalidArgument, slotID, r.maxSlots)
	}

	r.mu.RLock()
	store, ok := r.slots[slotID]
	r.mu.RUnlock()
	if ok {
		return store, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another opener may have won the race while we waited for the lock.
	if store, ok := r.slots[slotID]; ok {
		return store, nil
	}
	store = NewChannelStore(slotID)
	r.slots[slotID] = store
	return store, nil
}

// Get returns the store for slotID without creating it.
func (r *Registry) Get(slotID uint32) (*ChannelStore, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	store, ok := r.slots[slotID]
	return store, ok
}

// Len returns the number of slots created so far.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}

// SlotIDs lists created slots in ascending order.
func (r *Registry) SlotIDs() []uint32 {
	r.mu.RLock()
	ids := make([]uint32, 0, len(r.slots))
	for id := range r.slots {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Reset drops every slot and its channels. Sessions still holding a store keep
// working against the detached store, but new opens see fresh slots.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.slots = make(map[uint32]*ChannelStore)
	r.mu.Unlock()
}
