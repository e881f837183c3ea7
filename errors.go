package potree

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by Reader operations.
var (
	ErrNodeNotFound     = errors.New("potree: node not found")
	ErrInvalidBinaryData = errors.New("potree: invalid binary data")
	ErrDecompress       = errors.New("potree: decompress failed")
)

// EncodingUnimplementedError is returned when metadata.encoding names a
// point-payload encoding this reader doesn't support. Only "BROTLI" is
// implemented, per spec's "no non-Brotli encodings" non-goal.
type EncodingUnimplementedError struct {
	Encoding string
}

func (e *EncodingUnimplementedError) Error() string {
	return fmt.Sprintf("potree: encoding %q is not implemented", e.Encoding)
}
