package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// feedAll pushes stream through s, collecting copies of delivered
// payloads and every reported corruption event.
func feedAll(t *testing.T, s *Scanner, stream []byte) ([][]byte, []error) {
	t.Helper()
	var payloads [][]byte
	var errs []error
	for _, b := range stream {
		p, err := s.Feed(b)
		if err != nil {
			errs = append(errs, err)
		}
		if p != nil {
			payloads = append(payloads, append([]byte{}, p...))
		}
	}
	return payloads, errs
}

func TestScannerBackToBackFrames(t *testing.T) {
	p1 := []byte{0x01, 0x00, 0x02}
	p2 := []byte("loop")
	s := NewScanner(64)
	stream := append(append([]byte{}, mustEncode(t, p1)...), mustEncode(t, p2)...)

	payloads, errs := feedAll(t, s, stream)
	require.Empty(t, errs)
	require.Equal(t, [][]byte{p1, p2}, payloads)
	require.EqualValues(t, 2, s.Frames())
	require.EqualValues(t, 0, s.Drops())
}

// A desynchronized span ends at a delimiter; the chunk it forms is
// dropped as corrupt and the following frame decodes cleanly.
func TestScannerRecoversAfterGarbage(t *testing.T) {
	p1 := []byte{0xaa, 0xbb}
	p2 := []byte{0x00, 0x10, 0x00}
	garbage := make([]byte, 40)
	for i := range garbage {
		garbage[i] = byte(i) + 1
	}

	stream := append([]byte{}, mustEncode(t, p1)...)
	stream = append(stream, garbage...)
	stream = append(stream, Delimiter)
	stream = append(stream, mustEncode(t, p2)...)

	s := NewScanner(64)
	payloads, errs := feedAll(t, s, stream)
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], ErrFrameCorrupt)
	require.Equal(t, [][]byte{p1, p2}, payloads)
	require.EqualValues(t, 2, s.Frames())
	require.EqualValues(t, 1, s.Drops())
}

// Garbage glued directly onto the next frame corrupts that frame too;
// the stream is clean again from the following delimiter on.
func TestScannerGarbageGluesToNextFrame(t *testing.T) {
	p1 := []byte{0x11}
	p2 := []byte{0x22}
	p3 := []byte{0x33}
	garbage := []byte{0x7f, 0x7e, 0x7d}

	stream := append([]byte{}, mustEncode(t, p1)...)
	stream = append(stream, garbage...)
	stream = append(stream, mustEncode(t, p2)...)
	stream = append(stream, mustEncode(t, p3)...)

	s := NewScanner(64)
	payloads, _ := feedAll(t, s, stream)
	require.Equal(t, [][]byte{p1, p3}, payloads)
	require.EqualValues(t, 1, s.Drops())
}

func TestScannerResyncOnAttach(t *testing.T) {
	p := []byte{0x42, 0x43}
	tail := []byte{0x09, 0x08, 0x07} // remnant of a frame started before attach

	s := NewScanner(64)
	s.Resync()
	stream := append(append([]byte{}, tail...), Delimiter)
	stream = append(stream, mustEncode(t, p)...)

	payloads, errs := feedAll(t, s, stream)
	require.Empty(t, errs, "intentional resync is not a corruption event")
	require.Equal(t, [][]byte{p}, payloads)
	require.EqualValues(t, 0, s.Drops())
}

func TestScannerOverflowRecovers(t *testing.T) {
	s := NewScanner(8)
	var errs []error
	for i := 0; i < 64; i++ {
		_, err := s.Feed(0x55)
		if err != nil {
			errs = append(errs, err)
		}
	}
	require.Len(t, errs, 1, "overflow reported once, then silent discard")
	require.ErrorIs(t, errs[0], ErrPayloadTooLarge)

	p := []byte{0x01, 0x02}
	stream := append([]byte{Delimiter}, mustEncode(t, p)...)
	payloads, errs := feedAll(t, s, stream)
	require.Empty(t, errs)
	require.Equal(t, [][]byte{p}, payloads)
	require.EqualValues(t, 1, s.Drops())
}

func TestScannerIdleDelimitersAndEmptyFrame(t *testing.T) {
	s := NewScanner(16)
	payloads, errs := feedAll(t, s, []byte{Delimiter, Delimiter, Delimiter})
	require.Empty(t, errs)
	require.Empty(t, payloads)

	payloads, errs = feedAll(t, s, mustEncode(t, nil))
	require.Empty(t, errs)
	require.Len(t, payloads, 1)
	require.Empty(t, payloads[0])
	require.EqualValues(t, 1, s.Frames())
}
