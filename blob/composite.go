package blob

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Composite dispatches on URL scheme to a FileSource or HTTPSource. NewDefault
// builds one; it is the usual BlobSource to pass to potree.Open.
type Composite struct {
	File *FileSource
	HTTP *HTTPSource
	Log  zerolog.Logger
}

// NewDefault returns a Composite wired to a FileSource and an HTTPSource
// using http.DefaultClient, logging nothing.
func NewDefault() *Composite {
	return &Composite{
		File: NewFileSource(),
		HTTP: NewHTTPSource(),
		Log:  zerolog.Nop(),
	}
}

func (c *Composite) pick(url string) (BlobSource, error) {
	switch {
	case strings.HasPrefix(url, fileScheme):
		return c.File, nil
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return c.HTTP, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, url)
	}
}

// Get dispatches to the source matching url's scheme.
func (c *Composite) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	c.Log.Debug().Str("url", url).Msg("blob get")
	src, err := c.pick(url)
	if err != nil {
		return nil, err
	}
	return src.Get(ctx, url, headers)
}

// GetRange dispatches to the source matching url's scheme.
func (c *Composite) GetRange(ctx context.Context, url string, offset, length uint64, headers map[string]string) ([]byte, error) {
	c.Log.Debug().Str("url", url).Uint64("offset", offset).Uint64("length", length).Msg("blob get_range")
	src, err := c.pick(url)
	if err != nil {
		return nil, err
	}
	return src.GetRange(ctx, url, offset, length, headers)
}

// GetJSON dispatches to the source matching url's scheme.
func (c *Composite) GetJSON(ctx context.Context, url string, headers map[string]string, v any) error {
	src, err := c.pick(url)
	if err != nil {
		return err
	}
	return src.GetJSON(ctx, url, headers, v)
}
