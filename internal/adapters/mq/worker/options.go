package worker

import (
	"github.com/okian/dexboard/pkg/logger"
)

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithLogger sets a custom logger for the writer.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}
