package internal

import (
	"io"
	"log/slog"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	logger  *slog.Logger
	out     io.Writer
	rewrite bool
	prune   bool
	watch   bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger replaces the JSON logger built from the config.
func WithLogger(logger *slog.Logger) Option {
	return func(a *application) {
		a.logger = logger
	}
}

// WithOutput sets where printed output (the index fragment, search hits) goes.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}

// WithRewrite makes the run rewrite the README in place instead of
// printing the index fragment.
func WithRewrite(rewrite bool) Option {
	return func(a *application) {
		a.rewrite = rewrite
	}
}

// WithPrune deletes catalog rows whose note file is gone.
func WithPrune(prune bool) Option {
	return func(a *application) {
		a.prune = prune
	}
}

// WithWatch rebuilds on note and commit changes while serving.
func WithWatch(watch bool) Option {
	return func(a *application) {
		a.watch = watch
	}
}
