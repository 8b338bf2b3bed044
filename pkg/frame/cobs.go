// Package frame locates message boundaries in a continuous, lossy
// byte stream. Payloads are byte-stuffed (consistent-overhead style)
// so 0x00 appears only as the single delimiter terminating each
// frame; a receiver that loses sync discards bytes through the next
// delimiter and resumes on the following chunk.
package frame

import "fmt"

// Delimiter terminates every frame. Stuffing guarantees it appears
// nowhere inside one.
const Delimiter = 0x00

// maxGroup is the largest stuffing group: a code byte of 0xff covers
// 254 payload bytes with no implied zero after.
const maxGroup = 0xff

// EncodedBound gets the worst-case framed size of an n-byte payload,
// stuffing overhead and trailing delimiter included.
func EncodedBound(n int) int {
	return n + n/254 + 2
}

// Encode stuffs payload into dst and appends the trailing Delimiter,
// returning the bytes written. dst must hold
// EncodedBound(len(payload)) bytes or dst is untouched and
// ErrBufferTooSmall returned.
func Encode(dst, payload []byte) (int, error) {
	if len(dst) < EncodedBound(len(payload)) {
		return 0, fmt.Errorf("frame needs up to %d bytes, have %d: %w",
			EncodedBound(len(payload)), len(dst), ErrBufferTooSmall)
	}
	code := byte(1)
	codeAt := 0
	n := 1
	for _, b := range payload {
		if b == Delimiter {
			dst[codeAt] = code
			codeAt = n
			n++
			code = 1
			continue
		}
		dst[n] = b
		n++
		code++
		if code == maxGroup {
			dst[codeAt] = code
			codeAt = n
			n++
			code = 1
		}
	}
	dst[codeAt] = code
	dst[n] = Delimiter
	n++
	return n, nil
}

// Decode unstuffs a complete frame, trailing Delimiter included, into
// dst and returns the payload length.
func Decode(dst, frame []byte) (int, error) {
	if len(frame) == 0 || frame[len(frame)-1] != Delimiter {
		return 0, fmt.Errorf("missing delimiter: %w", ErrFrameCorrupt)
	}
	return decodeBody(dst, frame[:len(frame)-1])
}

// decodeBody unstuffs the delimiter-free stuffed bytes of one frame.
func decodeBody(dst, body []byte) (int, error) {
	if len(body) == 0 {
		return 0, fmt.Errorf("empty frame: %w", ErrFrameCorrupt)
	}
	n := 0
	for i := 0; i < len(body); {
		code := body[i]
		if code == Delimiter {
			return 0, fmt.Errorf("delimiter inside frame: %w", ErrFrameCorrupt)
		}
		i++
		group := int(code) - 1
		if i+group > len(body) {
			return 0, fmt.Errorf("stuffing group overruns frame: %w", ErrFrameCorrupt)
		}
		if n+group > len(dst) {
			return 0, fmt.Errorf("payload exceeds %d bytes: %w", len(dst), ErrPayloadTooLarge)
		}
		for k := 0; k < group; k++ {
			if body[i+k] == Delimiter {
				return 0, fmt.Errorf("delimiter inside frame: %w", ErrFrameCorrupt)
			}
			dst[n] = body[i+k]
			n++
		}
		i += group
		if i < len(body) && code != maxGroup {
			if n >= len(dst) {
				return 0, fmt.Errorf("payload exceeds %d bytes: %w", len(dst), ErrPayloadTooLarge)
			}
			dst[n] = 0
			n++
		}
	}
	return n, nil
}
