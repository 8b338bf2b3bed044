package frame

import "errors"

var (
	// ErrBufferTooSmall indicates dst cannot hold the framed bytes.
	ErrBufferTooSmall = errors.New("buffer too small")
	// ErrFrameCorrupt indicates the stuffing structure is violated;
	// the frame is unrecoverable and must be dropped.
	ErrFrameCorrupt = errors.New("frame corrupt")
	// ErrPayloadTooLarge indicates a frame larger than the receive
	// buffer allows.
	ErrPayloadTooLarge = errors.New("payload too large")
)
