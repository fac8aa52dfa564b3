package repository

import (
	"io/fs"

	"github.com/okian/dexboard/pkg/logger"
)

const defaultFileMode fs.FileMode = 0o644

type options struct {
	maxEntries   int
	atomicWrites bool
	fileMode     fs.FileMode
	logger       logger.Logger
}

// Option applies a configuration option to a Store.
type Option func(*options)

// WithMaxEntries caps the persisted collection at the best n entries.
// Zero or a negative value keeps every entry.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

// WithAtomicWrites makes FileStore write to a temp file and rename it over
// the leaderboard instead of truncating the file in place.
func WithAtomicWrites(enabled bool) Option {
	return func(o *options) {
		o.atomicWrites = enabled
	}
}

// WithFileMode sets the permission bits of the leaderboard file.
func WithFileMode(mode fs.FileMode) Option {
	return func(o *options) {
		if mode != 0 {
			o.fileMode = mode
		}
	}
}

// WithLogger sets the logger used for soft failures.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{fileMode: defaultFileMode}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Named("store")
	}
	return o
}
