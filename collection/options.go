package collection

import "github.com/rs/zerolog"

type options struct {
	logger zerolog.Logger
}

// Option configures a View.
type Option func(*options)

// WithLogger sets the logger used for merge index rebuilds.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func applyOptions(opts []Option) options {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
