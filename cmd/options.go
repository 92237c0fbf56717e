package cmd

import "time"

// Options holds the shared command-line options for the prnudge CLI.
type Options struct {
	Format    string
	State     string
	Author    string
	DryRun    bool
	Days      int // inactivity threshold override, 0 = use config
	Lookback  int // lookback window override, 0 = use config
	Workers   int // worker override, 0 = use config
	Verbosity int
	Timeout   time.Duration
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		Timeout: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFormat sets the output format (table, json).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithState sets the PR state filter (open, closed, both).
func WithState(state string) Option {
	return func(o *Options) {
		o.State = state
	}
}

// WithAuthor sets the author filter.
func WithAuthor(author string) Option {
	return func(o *Options) {
		o.Author = author
	}
}

// WithDryRun previews reminders without sending them.
func WithDryRun(dryRun bool) Option {
	return func(o *Options) {
		o.DryRun = dryRun
	}
}

// WithDays overrides the inactivity threshold in days.
func WithDays(days int) Option {
	return func(o *Options) {
		o.Days = days
	}
}

// WithLookback overrides the search lookback window in days.
func WithLookback(days int) Option {
	return func(o *Options) {
		o.Lookback = days
	}
}

// WithWorkers sets the number of concurrent workers.
func WithWorkers(workers int) Option {
	return func(o *Options) {
		o.Workers = workers
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithTimeout bounds the whole run.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}
