package api

import (
	"github.com/jaykayes/lottery-script/internal/domain/dedupe"
	"github.com/jaykayes/lottery-script/pkg/logger"
)

type serverConfig struct {
	logger   logger.Logger
	deduper  dedupe.Deduper
	sheetDir string
}

// Option configures a Server.
type Option func(*serverConfig)

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDeduper sets the store of seen Idempotency-Key values.
func WithDeduper(d dedupe.Deduper) Option {
	return func(c *serverConfig) {
		if d != nil {
			c.deduper = d
		}
	}
}

// WithSheetDir writes the handout sheets of every draw below dir, one
// directory per lottery.
func WithSheetDir(dir string) Option {
	return func(c *serverConfig) {
		c.sheetDir = dir
	}
}
