package slot

import "errors"

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrEmptyMessage      = errors.New("empty message")
	ErrMessageTooLarge   = errors.New("message too large")
	ErrNoMessage         = errors.New("no message on channel")
	ErrBufferTooSmall    = errors.New("buffer too small for message")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrClosed            = errors.New("session closed")
	ErrUnknownHandle     = errors.New("unknown handle")
)

// Errno names the driver errno an error kind historically surfaced as.
// Unknown errors map to "EIO".
func Errno(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidArgument):
		return "EINVAL"
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrMessageTooLarge):
		return "EMSGSIZE"
	case errors.Is(err, ErrNoMessage):
		return "EWOULDBLOCK"
	case errors.Is(err, ErrBufferTooSmall):
		return "ENOSPC"
	case errors.Is(err, ErrResourceExhausted):
		return "ENOMEM"
	case errors.Is(err, ErrClosed), errors.Is(err, ErrUnknownHandle):
		return "EBADF"
	default:
		return "EIO"
	}
}

// Kind returns a short, stable label for metrics and wire payloads.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrEmptyMessage):
		return "empty_message"
	case errors.Is(err, ErrMessageTooLarge):
		return "message_too_large"
	case errors.Is(err, ErrNoMessage):
		return "no_message"
	case errors.Is(err, ErrBufferTooSmall):
		return "buffer_too_small"
	case errors.Is(err, ErrResourceExhausted):
		return "resource_exhausted"
	case errors.Is(err, ErrClosed):
		return "closed"
	case errors.Is(err, ErrUnknownHandle):
		return "unknown_handle"
	default:
		return "internal"
	}
}

// FromKind is the inverse of Kind, used by clients decoding server errors.
func FromKind(kind string) error {
	switch kind {
	case "invalid_argument":
		return ErrInvalidArgument
	case "empty_message":
		return ErrEmptyMessage
	case "message_too_large":
		return ErrMessageTooLarge
	case "no_message":
		return ErrNoMessage
	case "buffer_too_small":
		return ErrBufferTooSmall
	case "resource_exhausted":
		return ErrResourceExhausted
	case "closed":
		return ErrClosed
	case "unknown_handle":
		return ErrUnknownHandle
	default:
		return nil
	}
}
