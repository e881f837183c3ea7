package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPSource serves http:// and https:// URLs via net/http. It does not
// retry: errors surface to the caller with their originating kind, per the
// core's no-internal-retry policy.
type HTTPSource struct {
	Client *http.Client
}

// NewHTTPSource returns an HTTPSource using http.DefaultClient.
func NewHTTPSource() *HTTPSource {
	return &HTTPSource{Client: http.DefaultClient}
}

func (s *HTTPSource) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

func (s *HTTPSource) do(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrNetwork, err)
	}
	return data, nil
}

// Get issues a plain GET for url.
func (s *HTTPSource) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("%w: %q is not an http(s):// URL", ErrUnsupportedScheme, url)
	}
	return s.do(ctx, url, headers)
}

// GetRange issues a GET with a Range header computed from offset/length.
func (s *HTTPSource) GetRange(ctx context.Context, url string, offset, length uint64, headers map[string]string) ([]byte, error) {
	merged, err := RangeHeaders(offset, length, headers)
	if err != nil {
		return nil, err
	}
	data, err := s.Get(ctx, url, merged)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) != length {
		return nil, fmt.Errorf("blob: range read of %s returned %d bytes, want %d", url, len(data), length)
	}
	return data, nil
}

// GetJSON issues a GET and unmarshals the response as JSON.
func (s *HTTPSource) GetJSON(ctx context.Context, url string, headers map[string]string, v any) error {
	return getJSON(ctx, s.Get, url, headers, v)
}
