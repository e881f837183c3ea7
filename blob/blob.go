// Package blob provides byte-range access to the files a Potree v2 point
// cloud is made of, over either a local file:// path or an http(s):// origin
// that supports range requests.
package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Sentinel and wrapped error kinds returned by BlobSource implementations.
var (
	ErrNetwork           = errors.New("blob: network error")
	ErrUnsupportedScheme = errors.New("blob: unsupported URL scheme")
	ErrInvalidURL        = errors.New("blob: invalid URL")
	ErrRangeOverflow     = errors.New("blob: range overflow")
)

// StatusError reports an HTTP response outside the 200-299 range.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("blob: unexpected HTTP status %d", e.Code)
}

// BlobSource is a capability for fetching whole files and byte ranges,
// local or remote, plus a JSON convenience on top of Get.
type BlobSource interface {
	Get(ctx context.Context, url string, headers map[string]string) ([]byte, error)
	GetRange(ctx context.Context, url string, offset, length uint64, headers map[string]string) ([]byte, error)
	GetJSON(ctx context.Context, url string, headers map[string]string, v any) error
}

// RangeHeaders computes the Range header for a byte-range request and
// merges it with caller-supplied headers, checking offset+length for
// overflow before any I/O is attempted. Concrete sources that have a native
// range primitive use this only to validate and build the header value;
// sources without one can use it to build a request to pass to Get.
func RangeHeaders(offset, length uint64, headers map[string]string) (map[string]string, error) {
	if length == 0 {
		return nil, fmt.Errorf("%w: zero-length range", ErrRangeOverflow)
	}
	end := offset + (length - 1)
	if end < offset {
		return nil, fmt.Errorf("%w: offset=%d length=%d overflows uint64", ErrRangeOverflow, offset, length)
	}
	if offset > math.MaxInt64 || end > math.MaxInt64 {
		return nil, fmt.Errorf("%w: offset=%d length=%d exceeds addressable range", ErrRangeOverflow, offset, length)
	}

	merged := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		merged[k] = v
	}
	merged["Range"] = fmt.Sprintf("bytes=%d-%d", offset, end)
	return merged, nil
}

// getJSON is the shared GetJSON implementation: fetch via get, then
// unmarshal. Concrete sources embed this instead of re-implementing it.
func getJSON(ctx context.Context, get func(context.Context, string, map[string]string) ([]byte, error), url string, headers map[string]string, v any) error {
	data, err := get(ctx, url, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("blob: decoding JSON from %s: %w", url, err)
	}
	return nil
}
