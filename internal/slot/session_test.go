package slot

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	d := NewDevice(DefaultLimits(), nil)
	t.Cleanup(d.Shutdown)
	return d
}

func openSelected(t *testing.T, d *Device, slotID, channelID uint32) *Session {
	t.Helper()
	s, err := d.Open(slotID)
	require.NoError(t, err)
	require.NoError(t, s.SelectChannel(channelID))
	return s
}

// Write then read on the same handle.
func TestWriteThenRead(t *testing.T) {
	d := newTestDevice(t)
	s := openSelected(t, d, 0, 1)

	n, err := s.Write([]byte("Test Message"))
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	msg, err := s.Read(MaxMessageSize)
	require.NoError(t, err)
	assert.Equal(t, "Test Message", msg.String())
	assert.Equal(t, 12, msg.Len())
}

// A message outlives the handle that wrote it.
func TestPersistenceAcrossSessions(t *testing.T) {
	d := newTestDevice(t)

	fd1 := openSelected(t, d, 0, 1)
	_, err := fd1.Write([]byte("Persistence Test"))
	require.NoError(t, err)
	require.NoError(t, fd1.Close())

	fd2 := openSelected(t, d, 0, 1)
	msg, err := fd2.Read(MaxMessageSize)
	require.NoError(t, err)
	assert.Equal(t, "Persistence Test", msg.String())
}

func TestReadBeforeWrite(t *testing.T) {
	d := newTestDevice(t)
	s := openSelected(t, d, 0, 1)

	_, err := s.Read(MaxMessageSize)
	assert.ErrorIs(t, err, ErrNoMessage)
	assert.Equal(t, "EWOULDBLOCK", Errno(err))
}

// Reads and writes need a selected channel.
func TestUnselectedSession(t *testing.T) {
	d := newTestDevice(t)
	s, err := d.Open(0)
	require.NoError(t, err)

	assert.False(t, s.Selected())
	assert.Equal(t, NoChannel, s.Channel())

	_, err = s.Write([]byte("test"))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.Read(MaxMessageSize + 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	buf := make([]byte, MaxMessageSize)
	_, err = s.ReadInto(buf)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSelectChannelBounds(t *testing.T) {
	d := newTestDevice(t)
	s, err := d.Open(0)
	require.NoError(t, err)

	for _, ch := range []uint32{1, 100, 220} {
		assert.NoError(t, s.SelectChannel(ch), "channel %d", ch)
		assert.Equal(t, ch, s.Channel())
	}

	for _, ch := range []uint32{0, 221, 1 << 31} {
		err := s.SelectChannel(ch)
		assert.ErrorIs(t, err, ErrInvalidArgument, "channel %d", ch)
		// Failed selection keeps the previous one.
		assert.Equal(t, uint32(220), s.Channel())
	}
}

func TestFailedSelectFromUnselected(t *testing.T) {
	d := newTestDevice(t)
	s, err := d.Open(0)
	require.NoError(t, err)

	assert.ErrorIs(t, s.SelectChannel(0), ErrInvalidArgument)
	assert.False(t, s.Selected())
}

func TestWriteBounds(t *testing.T) {
	d := newTestDevice(t)
	s := openSelected(t, d, 0, 7)

	_, err := s.Write(nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, "EMSGSIZE", Errno(err))

	_, err = s.Write(bytes.Repeat([]byte{'A'}, MaxMessageSize+1))
	assert.ErrorIs(t, err, ErrMessageTooLarge)
	assert.Equal(t, "EMSGSIZE", Errno(err))

	// Failed writes leave the channel empty.
	_, err = s.Read(MaxMessageSize)
	assert.ErrorIs(t, err, ErrNoMessage)

	full := bytes.Repeat([]byte{'A'}, MaxMessageSize)
	n, err := s.Write(full)
	require.NoError(t, err)
	assert.Equal(t, MaxMessageSize, n)

	msg, err := s.Read(MaxMessageSize)
	require.NoError(t, err)
	assert.Equal(t, full, []byte(msg))
}

func TestFailedWriteKeepsPreviousMessage(t *testing.T) {
	d := newTestDevice(t)
	s := openSelected(t, d, 0, 1)

	_, err := s.Write([]byte("keep"))
	require.NoError(t, err)

	_, err = s.Write(make([]byte, MaxMessageSize+1))
	require.ErrorIs(t, err, ErrMessageTooLarge)

	msg, err := s.Read(MaxMessageSize)
	require.NoError(t, err)
	assert.Equal(t, "keep", msg.String())
}

func TestEmbeddedZeroBytesRoundTrip(t *testing.T) {
	d := newTestDevice(t)
	s := openSelected(t, d, 0, 3)

	payload := []byte{0x00, 'a', 0x00, 0x00, 'b', 0x00}
	_, err := s.Write(payload)
	require.NoError(t, err)

	msg, err := s.Read(MaxMessageSize)
	require.NoError(t, err)
	assert.Equal(t, payload, []byte(msg))
}

func TestOverwrite(t *testing.T) {
	d := newTestDevice(t)
	s := openSelected(t, d, 0, 1)

	_, err := s.Write([]byte("a much longer first message"))
	require.NoError(t, err)
	_, err = s.Write([]byte("short"))
	require.NoError(t, err)

	msg, err := s.Read(MaxMessageSize)
	require.NoError(t, err)
	assert.Equal(t, "short", msg.String())
}

func TestIsolation(t *testing.T) {
	d := newTestDevice(t)

	a := openSelected(t, d, 0, 1)
	b := openSelected(t, d, 0, 2)
	c := openSelected(t, d, 1, 1)

	_, err := a.Write([]byte("slot0-ch1"))
	require.NoError(t, err)
	_, err = b.Write([]byte("slot0-ch2"))
	require.NoError(t, err)

	_, err = c.Read(MaxMessageSize)
	assert.ErrorIs(t, err, ErrNoMessage, "other slot must not see the write")

	_, err = c.Write([]byte("slot1-ch1"))
	require.NoError(t, err)

	for s, want := range map[*Session]string{a: "slot0-ch1", b: "slot0-ch2", c: "slot1-ch1"} {
		msg, err := s.Read(MaxMessageSize)
		require.NoError(t, err)
		assert.Equal(t, want, msg.String())
	}
}

func TestRepeatableRead(t *testing.T) {
	d := newTestDevice(t)
	s := openSelected(t, d, 0, 1)

	_, err := s.Write([]byte("again"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		msg, err := s.Read(MaxMessageSize)
		require.NoError(t, err)
		assert.Equal(t, "again", msg.String())
	}
}

func TestBufferTooSmall(t *testing.T) {
	d := newTestDevice(t)
	s := openSelected(t, d, 0, 1)

	_, err := s.Write([]byte("0123456789"))
	require.NoError(t, err)

	buf := []byte("xxxx")
	n, err := s.ReadInto(buf)
	assert.ErrorIs(t, err, ErrBufferTooSmall)
	assert.Equal(t, "ENOSPC", Errno(err))
	assert.Zero(t, n)
	assert.Equal(t, "xxxx", string(buf), "buffer must be untouched")

	// The message is still there for a correctly sized read.
	buf = make([]byte, 10)
	n, err = s.ReadInto(buf)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, "0123456789", string(buf))
}

func TestReadReturnsDetachedCopy(t *testing.T) {
	d := newTestDevice(t)
	s := openSelected(t, d, 0, 1)

	src := []byte("original")
	_, err := s.Write(src)
	require.NoError(t, err)
	src[0] = 'X'

	msg, err := s.Read(MaxMessageSize)
	require.NoError(t, err)
	msg[1] = 'Y'

	again, err := s.Read(MaxMessageSize)
	require.NoError(t, err)
	assert.Equal(t, "original", again.String())
}

func TestSelectionIsPerSession(t *testing.T) {
	d := newTestDevice(t)

	a := openSelected(t, d, 0, 5)
	b, err := d.Open(0)
	require.NoError(t, err)

	// Opening b must not reset a's selection.
	assert.Equal(t, uint32(5), a.Channel())
	assert.False(t, b.Selected())

	require.NoError(t, b.SelectChannel(6))
	assert.Equal(t, uint32(5), a.Channel())
}

func TestClosedSession(t *testing.T) {
	d := newTestDevice(t)
	s := openSelected(t, d, 0, 1)
	_, err := s.Write([]byte("before close"))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.True(t, s.Closed())
	assert.ErrorIs(t, s.Close(), ErrClosed)

	_, err = s.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Read(MaxMessageSize)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.SelectChannel(2), ErrClosed)

	other := openSelected(t, d, 0, 1)
	msg, err := other.Read(MaxMessageSize)
	require.NoError(t, err)
	assert.Equal(t, "before close", msg.String())
}

func TestErrnoMapping(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrInvalidArgument, "EINVAL"},
		{ErrEmptyMessage, "EMSGSIZE"},
		{ErrMessageTooLarge, "EMSGSIZE"},
		{ErrNoMessage, "EWOULDBLOCK"},
		{ErrBufferTooSmall, "ENOSPC"},
		{ErrResourceExhausted, "ENOMEM"},
		{ErrUnknownHandle, "EBADF"},
		{errors.New("boom"), "EIO"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Errno(tt.err), "%v", tt.err)
	}
}

func TestKindRoundTrip(t *testing.T) {
	for _, err := range []error{
		ErrInvalidArgument, ErrEmptyMessage, ErrMessageTooLarge, ErrNoMessage,
		ErrBufferTooSmall, ErrResourceExhausted, ErrClosed, ErrUnknownHandle,
	} {
		assert.Equal(t, err, FromKind(Kind(err)))
	}
	assert.Nil(t, FromKind("internal"))
}
