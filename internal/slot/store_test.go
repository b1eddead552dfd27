package slot

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreFindDoesNotCreate(t *testing.T) {
	s := NewChannelStore(0)

	_, ok := s.Find(1)
	assert.False(t, ok)

	_, err := s.Read(1)
	assert.ErrorIs(t, err, ErrNoMessage)
	assert.Zero(t, s.Len(), "reads must not create channels")
}

func TestStoreWriteCreatesOnce(t *testing.T) {
	s := NewChannelStore(4)

	require.NoError(t, s.Write(9, []byte("one")))
	require.NoError(t, s.Write(9, []byte("two")))
	require.NoError(t, s.Write(10, []byte("three")))

	assert.Equal(t, 2, s.Len())
	assert.ElementsMatch(t, []uint32{9, 10}, s.Channels())

	m := s.Metrics()
	assert.Equal(t, uint64(2), m.Created)
	assert.Equal(t, uint64(3), m.Writes)
	assert.Equal(t, uint64(len("two")+len("three")), m.Bytes)
}

func TestStoreRejectsInvalidInput(t *testing.T) {
	s := NewChannelStore(0)

	assert.ErrorIs(t, s.Write(0, []byte("x")), ErrInvalidArgument)
	assert.ErrorIs(t, s.Write(MaxChannels+1, []byte("x")), ErrInvalidArgument)
	assert.ErrorIs(t, s.Write(1, []byte{}), ErrEmptyMessage)
	assert.ErrorIs(t, s.Write(1, make([]byte, MaxMessageSize+1)), ErrMessageTooLarge)

	_, err := s.Read(0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, s.Len())
}

func TestStoreNulTerminatedPayload(t *testing.T) {
	s := NewChannelStore(0)

	// 12 characters plus the terminator a C caller would pass along.
	payload := append([]byte("Test Message"), 0)
	require.NoError(t, s.Write(1, payload))

	msg, err := s.Read(1)
	require.NoError(t, err)
	assert.Equal(t, 13, msg.Len())
	assert.Equal(t, payload, []byte(msg))
}

func TestStoreBytesShrinkOnOverwrite(t *testing.T) {
	s := NewChannelStore(0)

	require.NoError(t, s.Write(1, bytes.Repeat([]byte{'x'}, 100)))
	require.NoError(t, s.Write(1, []byte("ab")))

	assert.Equal(t, uint64(2), s.Metrics().Bytes)
}

func TestStoreConcurrentDistinctChannels(t *testing.T) {
	s := NewChannelStore(0)

	var wg sync.WaitGroup
	for ch := uint32(1); ch <= MaxChannels; ch++ {
		wg.Add(1)
		go func(ch uint32) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				payload := []byte(fmt.Sprintf("ch%d-%d", ch, i))
				if err := s.Write(ch, payload); err != nil {
					t.Errorf("write ch %d: %v", ch, err)
					return
				}
			}
		}(ch)
	}
	wg.Wait()

	assert.Equal(t, MaxChannels, s.Len())
	for ch := uint32(1); ch <= MaxChannels; ch++ {
		msg, err := s.Read(ch)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("ch%d-19", ch), msg.String())
	}
}

func TestStoreConcurrentSameChannelNoTornReads(t *testing.T) {
	s := NewChannelStore(0)

	// Each payload is uniform, so a torn read would mix two fill bytes.
	fills := []byte{'a', 'b', 'c', 'd'}
	lengths := []int{1, 64, 127, MaxMessageSize}

	var wg sync.WaitGroup
	for i := range fills {
		wg.Add(1)
		go func(fill byte, n int) {
			defer wg.Done()
			payload := bytes.Repeat([]byte{fill}, n)
			for j := 0; j < 500; j++ {
				_ = s.Write(1, payload)
			}
		}(fills[i], lengths[i])
	}

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				msg, err := s.readWithin(1, MaxMessageSize)
				if err != nil {
					continue
				}
				first := msg[0]
				for _, b := range msg {
					if b != first {
						t.Errorf("torn read: %q", msg)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}
