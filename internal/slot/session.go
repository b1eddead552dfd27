package slot

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/GriffinCanCode/msgslot/internal/shared/id"
)

// Operation names reported to the Observer.
const (
	OpOpen   = "open"
	OpSelect = "select"
	OpWrite  = "write"
	OpRead   = "read"
	OpClose  = "close"
)

// Session is one open handle into a slot. It owns its channel selection; the
// slot's channel store is shared with every other session on the same slot.
type Session struct {
	handle id.HandleID
	slotID uint32
	store  *ChannelStore

	selected atomic.Uint32
	closed   atomic.Bool

	observer  Observer
	release   func(*Session)
	closeOnce sync.Once
}

func newSession(handle id.HandleID, store *ChannelStore, observer Observer, release func(*Session)) *Session {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Session{
		handle:   handle,
		slotID:   store.SlotID(),
		store:    store,
		observer: observer,
		release:  release,
	}
}

// Handle returns the session's handle id.
func (s *Session) Handle() id.HandleID { return s.handle }

// SlotID returns the slot this session was opened on.
func (s *Session) SlotID() uint32 { return s.slotID }

// Channel returns the selected channel, or NoChannel.
func (s *Session) Channel() uint32 { return s.selected.Load() }

// Selected reports whether a channel has been selected.
func (s *Session) Selected() bool { return s.selected.Load() != NoChannel }

// Closed reports whether Close has been called.
func (s *Session) Closed() bool { return s.closed.Load() }

// SelectChannel targets channelID for subsequent reads and writes. An invalid
// id leaves the current selection as it was.
func (s *Session) SelectChannel(channelID uint32) error {
	err := s.selectChannel(channelID)
	s.observer.ObserveOp(s.slotID, OpSelect, err, 0)
	return err
}

func (s *Session) selectChannel(channelID uint32) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := validateChannel(channelID); err != nil {
		return err
	}
	s.selected.Store(channelID)
	return nil
}

// Write stores p as the selected channel's message. It never writes partially:
// on success the returned count is len(p).
func (s *Session) Write(p []byte) (int, error) {
	n, err := s.write(p)
	s.observer.ObserveOp(s.slotID, OpWrite, err, n)
	return n, err
}

func (s *Session) write(p []byte) (int, error) {
	ch, err := s.target()
	if err != nil {
		return 0, err
	}
	if err := s.store.Write(ch, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Read returns the selected channel's message if it fits in capacity bytes.
func (s *Session) Read(capacity int) (Message, error) {
	msg, err := s.read(capacity)
	s.observer.ObserveOp(s.slotID, OpRead, err, len(msg))
	return msg, err
}

func (s *Session) read(capacity int) (Message, error) {
	ch, err := s.target()
	if err != nil {
		return nil, err
	}
	return s.store.readWithin(ch, capacity)
}

// ReadInto copies the selected channel's message into buf, using len(buf) as
// the capacity. buf is left untouched on failure.
func (s *Session) ReadInto(buf []byte) (int, error) {
	msg, err := s.Read(len(buf))
	if err != nil {
		return 0, err
	}
	return copy(buf, msg), nil
}

// Close releases the handle. The slot's stored messages are unaffected.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return ErrClosed
	}
	s.closeOnce.Do(func() {
		if s.release != nil {
			s.release(s)
		}
	})
	s.observer.ObserveOp(s.slotID, OpClose, nil, 0)
	return nil
}

func (s *Session) target() (uint32, error) {
	if s.closed.Load() {
		return NoChannel, ErrClosed
	}
	ch := s.selected.Load()
	if ch == NoChannel {
		return NoChannel, fmt.Errorf("%w: no channel selected", ErrInvalidArgument)
	}
	return ch, nil
}
