// Package slot implements the message slot device: a set of addressable slots,
// each holding up to MaxChannels independent channels with one persistent
// message apiece.
//
// Model:
//   - Registry maps slot ids to ChannelStores, creating them on first open
//   - ChannelStore keeps the latest Message per channel (last write wins)
//   - Session is one open handle; it carries its own channel selection
//   - Device is the host-facing facade with the open-handle table
//
// Semantics:
//   - Messages are 1..MaxMessageSize bytes and round-trip byte for byte
//   - Reads never consume: a message stays until overwritten
//   - Nothing blocks; a channel with no message reports ErrNoMessage
//   - Reads are all-or-nothing; a short buffer gets ErrBufferTooSmall
//
// Example Usage:
//
//	dev := slot.NewDevice(slot.DefaultLimits(), logger)
//	s, _ := dev.Open(0)
//	_ = s.SelectChannel(1)
//	_, _ = s.Write([]byte("hello"))
//	msg, _ := s.Read(slot.MaxMessageSize)
//	_ = s.Close()
package slot
