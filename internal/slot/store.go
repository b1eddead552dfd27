package slot

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// channel holds the latest message written to one channel id.
type channel struct {
	msg Message
}

// ChannelStore is the per-slot mapping from channel id to its latest message.
// Channels are created on first write and live as long as the store.
type ChannelStore struct {
	id uint32

	mu       sync.RWMutex
	channels map[uint32]*channel // Protected by mu

	// Metrics
	mWrites  atomic.Uint64
	mReads   atomic.Uint64
	mMisses  atomic.Uint64
	mCreated atomic.Uint64
	mBytes   atomic.Uint64
}

// NewChannelStore creates an empty store for the given slot id.
func NewChannelStore(slotID uint32) *ChannelStore {
	return &ChannelStore{
		id:       slotID,
		channels: make(map[uint32]*channel),
	}
}

// SlotID returns the slot this store belongs to.
func (s *ChannelStore) SlotID() uint32 { return s.id }

// Find returns a copy of the channel's message, if the channel was ever written.
func (s *ChannelStore) Find(channelID uint32) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.channels[channelID]
	if !ok {
		return nil, false
	}
	return ch.msg.clone(), true
}

// Write replaces the channel's message with a copy of p, creating the channel
// if this is its first write.
func (s *ChannelStore) Write(channelID uint32, p []byte) error {
	if err := validateChannel(channelID); err != nil {
		return err
	}
	if err := ValidatePayload(p); err != nil {
		return err
	}

	// Copy outside the lock; the caller may reuse p after we return.
	msg := Message(p).clone()

	s.mu.Lock()
	ch, ok := s.channels[channelID]
	if !ok {
		ch = &channel{}
		s.channels[channelID] = ch
		s.mCreated.Add(1)
	}
	old := len(ch.msg)
	ch.msg = msg
	s.mu.Unlock()

	s.mWrites.Add(1)
	s.adjustBytes(old, len(msg))
	return nil
}

// Read returns a copy of the channel's current message. The stored message is
// left untouched and can be read again.
func (s *ChannelStore) Read(channelID uint32) (Message, error) {
	if err := validateChannel(channelID); err != nil {
		return nil, err
	}

	msg, ok := s.Find(channelID)
	s.mReads.Add(1)
	if !ok {
		s.mMisses.Add(1)
		return nil, ErrNoMessage
	}
	return msg, nil
}

// readWithin copies the message out only if it fits in capacity. The size
// check and the copy happen under one read lock so a concurrent write cannot
// slip a longer message in between.
func (s *ChannelStore) readWithin(channelID uint32, capacity int) (Message, error) {
	if err := validateChannel(channelID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	ch, ok := s.channels[channelID]
	if !ok {
		s.mu.RUnlock()
		s.mReads.Add(1)
		s.mMisses.Add(1)
		return nil, ErrNoMessage
	}
	if capacity < len(ch.msg) {
		n := len(ch.msg)
		s.mu.RUnlock()
		s.mReads.Add(1)
		return nil, fmt.Errorf("%w: message is %d bytes, buffer holds %d", ErrBufferTooSmall, n, capacity)
	}
	msg := ch.msg.clone()
	s.mu.RUnlock()

	s.mReads.Add(1)
	return msg, nil
}

// Len returns the number of channels that have been written at least once.
func (s *ChannelStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.channels)
}

// Channels lists the ids of written channels in no particular order.
func (s *ChannelStore) Channels() []uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint32, 0, len(s.channels))
	for id := range s.channels {
		ids = append(ids, id)
	}
	return ids
}

func (s *ChannelStore) adjustBytes(old, cur int) {
	switch {
	case cur > old:
		s.mBytes.Add(uint64(cur - old))
	case cur < old:
		s.mBytes.Add(^uint64(old - cur - 1))
	}
}

// StoreStats is a point-in-time view of a store's counters.
type StoreStats struct {
	Channels int    `json:"channels"`
	Bytes    uint64 `json:"bytes"`
	Writes   uint64 `json:"writes"`
	Reads    uint64 `json:"reads"`
	Misses   uint64 `json:"misses"`
	Created  uint64 `json:"created"`
}

// Metrics returns the store's counters without blocking writers for long.
func (s *ChannelStore) Metrics() StoreStats {
	return StoreStats{
		Channels: s.Len(),
		Bytes:    s.mBytes.Load(),
		Writes:   s.mWrites.Load(),
		Reads:    s.mReads.Load(),
		Misses:   s.mMisses.Load(),
		Created:  s.mCreated.Load(),
	}
}
