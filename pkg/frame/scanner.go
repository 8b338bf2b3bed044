package frame

import "fmt"

// Scanner reassembles delimited frames from a byte stream, one byte
// at a time. A corrupted or overlong frame never poisons the stream:
// the scanner drops bytes through the next delimiter and resumes.
// Scanner is not safe for concurrent use.
type Scanner struct {
	body    []byte
	payload []byte
	discard bool

	frames uint64
	drops  uint64
}

// NewScanner creates a Scanner for payloads up to maxPayload bytes.
func NewScanner(maxPayload int) *Scanner {
	return &Scanner{
		body:    make([]byte, 0, EncodedBound(maxPayload)-1),
		payload: make([]byte, maxPayload),
	}
}

// Feed consumes one stream byte. When b completes a well-formed
// frame, Feed returns its payload, valid only until the next call.
// A corruption or overflow event is reported once as an error; the
// scanner has already begun recovering and needs nothing from the
// caller. Idle delimiters between frames return nothing.
func (s *Scanner) Feed(b byte) ([]byte, error) {
	if b == Delimiter {
		if s.discard {
			s.discard = false
			return nil, nil
		}
		if len(s.body) == 0 {
			return nil, nil
		}
		n, err := decodeBody(s.payload, s.body)
		s.body = s.body[:0]
		if err != nil {
			s.drops++
			return nil, err
		}
		s.frames++
		return s.payload[:n], nil
	}
	if s.discard {
		return nil, nil
	}
	if len(s.body) == cap(s.body) {
		s.body = s.body[:0]
		s.discard = true
		s.drops++
		return nil, fmt.Errorf("frame exceeds %d stuffed bytes: %w", cap(s.body), ErrPayloadTooLarge)
	}
	s.body = append(s.body, b)
	return nil, nil
}

// Resync discards any partial frame and drops input through the next
// delimiter. Use when attaching to a stream at an unknown position,
// e.g. opening a serial port mid-transmission.
func (s *Scanner) Resync() {
	s.body = s.body[:0]
	s.discard = true
}

// Frames gets the count of well-formed frames delivered.
func (s *Scanner) Frames() uint64 {
	return s.frames
}

// Drops gets the count of frames lost to corruption or overflow.
func (s *Scanner) Drops() uint64 {
	return s.drops
}
