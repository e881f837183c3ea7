package potree

import "github.com/rs/zerolog"

// Option configures a Reader at Open time.
type Option func(*options)

type options struct {
	log zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		log: zerolog.Nop(),
	}
}

// WithLogger sets the zerolog.Logger a Reader uses for its own diagnostic
// logging (distinct from the BlobSource's own suspension-point logging).
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}
