package usecase

import "time"

type options struct {
	now         func() time.Time
	itemTimeout time.Duration
}

// Option tunes a usecase at construction.
type Option func(*options)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithItemTimeout bounds how long the scheduler may spend publishing a single item.
func WithItemTimeout(d time.Duration) Option {
	return func(o *options) { o.itemTimeout = d }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, itemTimeout: ItemTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
