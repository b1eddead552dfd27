package slot

import "fmt"

const (
	// MaxMessageSize is the largest payload a channel will store.
	MaxMessageSize = 128

	// MaxChannels is the highest selectable channel identifier.
	MaxChannels = 220

	// NoChannel marks a session that has not selected a channel yet.
	NoChannel uint32 = 0

	// DefaultMaxSlots matches the minor number range of the character device.
	DefaultMaxSlots = 256
)

// Message is a stored payload. Its length is always in [1, MaxMessageSize].
type Message []byte

// Len returns the payload length.
func (m Message) Len() int { return len(m) }

// String renders the payload for logs and CLIs.
func (m Message) String() string { return string(m) }

// clone returns a detached copy so callers never alias channel storage.
func (m Message) clone() Message {
	out := make(Message, len(m))
	copy(out, m)
	return out
}

// ValidChannel reports whether id may be selected.
func ValidChannel(id uint32) bool {
	return id >= 1 && id <= MaxChannels
}

// ValidatePayload checks the write length bounds.
func ValidatePayload(p []byte) error {
	switch {
	case len(p) == 0:
		return ErrEmptyMessage
	case len(p) > MaxMessageSize:
		return fmt.Errorf("%w: %d bytes (max %d)", ErrMessageTooLarge, len(p), MaxMessageSize)
	}
	return nil
}

func validateChannel(id uint32) error {
	if !ValidChannel(id) {
		return fmt.Errorf("%w: channel %d out of range [1, %d]", ErrInvalidArgument, id, MaxChannels)
	}
	return nil
}
