package slot

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/msgslot/internal/shared/id"
)

// Observer receives operation outcomes, e.g. to feed metrics.
type Observer interface {
	ObserveOp(slotID uint32, op string, err error, bytes int)
	SessionsActive(count int)
	SlotCreated(slotID uint32)
}

type nopObserver struct{}

func (nopObserver) ObserveOp(uint32, string, error, int) {}
func (nopObserver) SessionsActive(int)                   {}
func (nopObserver) SlotCreated(uint32)                   {}

// Limits bounds what a Device will hand out.
type Limits struct {
	MaxSlots    uint32 // slot ids are accepted in [0, MaxSlots)
	MaxSessions int    // concurrently open handles, 0 = unlimited
}

// DefaultLimits returns the limits of the historical character device.
func DefaultLimits() Limits {
	return Limits{
		MaxSlots:    DefaultMaxSlots,
		MaxSessions: 4096,
	}
}

// Device is the host-facing entry point: it opens sessions on slots and keeps
// the table of open handles.
type Device struct {
	registry *Registry
	limits   Limits
	logger   *zap.Logger
	observer Observer

	mu       sync.RWMutex
	sessions map[id.HandleID]*Session // Protected by mu

	mOpens  atomic.Uint64
	mCloses atomic.Uint64
}

// NewDevice creates a device with its own slot registry.
func NewDevice(limits Limits, logger *zap.Logger) *Device {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Device{
		registry: NewRegistry(limits.MaxSlots),
		limits:   limits,
		logger:   logger,
		observer: nopObserver{},
		sessions: make(map[id.HandleID]*Session),
	}
}

// WithObserver attaches an observer for operation outcomes.
func (d *Device) WithObserver(observer Observer) *Device {
	if observer != nil {
		d.observer = observer
	}
	return d
}

// Registry exposes the underlying slot registry.
func (d *Device) Registry() *Registry { return d.registry }

// Open creates a new session on slotID in the unselected state.
func (d *Device) Open(slotID uint32) (*Session, error) {
	s, created, err := d.open(slotID)
	d.observer.ObserveOp(slotID, OpOpen, err, 0)
	if err != nil {
		d.logger.Debug("open failed", zap.Uint32("slot", slotID), zap.Error(err))
		return nil, err
	}
	if created {
		d.observer.SlotCreated(slotID)
		d.logger.Info("slot created", zap.Uint32("slot", slotID))
	}
	d.logger.Debug("session opened",
		zap.Uint32("slot", slotID),
		zap.String("handle", s.Handle().String()))
	return s, nil
}

func (d *Device) open(slotID uint32) (*Session, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.limits.MaxSessions > 0 && len(d.sessions) >= d.limits.MaxSessions {
		return nil, false, fmt.Errorf("%w: %d open handles", ErrResourceExhausted, len(d.sessions))
	}

	_, existed := d.registry.Get(slotID)
	store, err := d.registry.GetOrCreate(slotID)
	if err != nil {
		return nil, false, err
	}

	s := newSession(id.NewHandleID(), store, d.observer, d.release)
	d.sessions[s.Handle()] = s
	d.mOpens.Add(1)
	d.observer.SessionsActive(len(d.sessions))
	return s, !existed, nil
}

// Lookup returns the open session for handle.
func (d *Device) Lookup(handle id.HandleID) (*Session, error) {
	d.mu.RLock()
	s, ok := d.sessions[handle]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	return s, nil
}

// Close closes the session behind handle.
func (d *Device) Close(handle id.HandleID) error {
	s, err := d.Lookup(handle)
	if err != nil {
		return err
	}
	return s.Close()
}

// release drops a closing session from the handle table.
func (d *Device) release(s *Session) {
	d.mu.Lock()
	delete(d.sessions, s.Handle())
	n := len(d.sessions)
	d.mu.Unlock()

	d.mCloses.Add(1)
	d.observer.SessionsActive(n)
	d.logger.Debug("session closed",
		zap.Uint32("slot", s.SlotID()),
		zap.String("handle", s.Handle().String()))
}

// OpenSessions returns the number of open handles.
func (d *Device) OpenSessions() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}

// Shutdown closes every open handle and discards all slots.
func (d *Device) Shutdown() {
	d.mu.RLock()
	open := make([]*Session, 0, len(d.sessions))
	for _, s := range d.sessions {
		open = append(open, s)
	}
	d.mu.RUnlock()

	for _, s := range open {
		_ = s.Close()
	}
	slots := d.registry.Len()
	d.registry.Reset()
	d.logger.Info("device shut down",
		zap.Int("sessions_closed", len(open)),
		zap.Int("slots_released", slots))
}

// SlotStats describes one slot in a device snapshot.
type SlotStats struct {
	Slot uint32 `json:"slot"`
	StoreStats
}

// Stats is a device-wide snapshot.
type Stats struct {
	Slots        int         `json:"slots"`
	Channels     int         `json:"channels"`
	OpenSessions int         `json:"open_sessions"`
	Opens        uint64      `json:"opens"`
	Closes       uint64      `json:"closes"`
	Bytes        uint64      `json:"bytes"`
	Writes       uint64      `json:"writes"`
	Reads        uint64      `json:"reads"`
	Misses       uint64      `json:"misses"`
	PerSlot      []SlotStats `json:"per_slot"`
}

// Stats aggregates counters across all slots.
func (d *Device) Stats() Stats {
	st := Stats{
		OpenSessions: d.OpenSessions(),
		Opens:        d.mOpens.Load(),
		Closes:       d.mCloses.Load(),
	}
	for _, slotID := range d.registry.SlotIDs() {
		store, ok := d.registry.Get(slotID)
		if !ok {
			continue
		}
		m := store.Metrics()
		st.Slots++
		st.Channels += m.Channels
		st.Bytes += m.Bytes
		st.Writes += m.Writes
		st.Reads += m.Reads
		st.Misses += m.Misses
		st.PerSlot = append(st.PerSlot, SlotStats{Slot: slotID, StoreStats: m})
	}
	return st
}
