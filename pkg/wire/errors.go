package wire

import "errors"

var (
	// ErrBufferTooSmall indicates the destination cannot hold the
	// complete encoding. Nothing has been written.
	ErrBufferTooSmall = errors.New("buffer too small")
	// ErrUnexpectedEnd indicates the source ended inside a value.
	ErrUnexpectedEnd = errors.New("unexpected end of input")
	// ErrInvalidDiscriminant indicates a presence or enum byte outside
	// its closed set.
	ErrInvalidDiscriminant = errors.New("invalid discriminant")
)
