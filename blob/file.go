package blob

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// FileSource serves file:// URLs by reading from the local filesystem.
type FileSource struct{}

// NewFileSource returns a FileSource.
func NewFileSource() *FileSource {
	return &FileSource{}
}

const fileScheme = "file://"

func (s *FileSource) path(url string) (string, error) {
	p, ok := strings.CutPrefix(url, fileScheme)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a file:// URL", ErrUnsupportedScheme, url)
	}
	return p, nil
}

// Get reads the entire file named by url.
func (s *FileSource) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(url)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("blob: reading %s: %w", p, err)
	}
	return data, nil
}

// GetRange reads exactly length bytes at offset from the file named by url.
func (s *FileSource) GetRange(ctx context.Context, url string, offset, length uint64, headers map[string]string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := RangeHeaders(offset, length, nil); err != nil {
		return nil, err
	}
	p, err := s.path(url)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("blob: opening %s: %w", p, err)
	}
	defer f.Close()

	buf := make([]byte, length)
	if _, err := f.ReadAt(buf, int64(offset)); err != nil {
		return nil, fmt.Errorf("blob: reading range [%d, %d) from %s: %w", offset, offset+length, p, err)
	}
	return buf, nil
}

// GetJSON reads the entire file and unmarshals it as JSON.
func (s *FileSource) GetJSON(ctx context.Context, url string, headers map[string]string, v any) error {
	return getJSON(ctx, s.Get, url, headers, v)
}
