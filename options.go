package carfile

import (
	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("carfile")

// config collects the options a reconstruction call was built with. Zero
// value means no expected root, no buffer/write cap, and the package
// logger.
type config struct {
	expectedRoot cid.Cid
	maxBuffer    int
	writeLimit   int
	logger       *logging.ZapEventLogger
}

// Option configures a call to ReconstructBuffered or ReconstructSeek.
type Option func(*config)

// WithExpectedRoot requires the CAR header's single root to equal root,
// failing with UnexpectedHeaderRoots otherwise. Without this option, the
// header's declared root is trusted as-is.
func WithExpectedRoot(root cid.Cid) Option {
	return func(c *config) {
		c.expectedRoot = root
	}
}

// WithMaxBuffer caps, in bytes, the total leaf data ReconstructBuffered may
// hold in memory while collecting blocks, before the write-out DFS begins.
// Zero (the default) means unlimited. Ignored by ReconstructSeek, which
// never buffers whole-file data.
func WithMaxBuffer(limit int) Option {
	return func(c *config) {
		c.maxBuffer = limit
	}
}

// WithWriteLimit caps, in bytes, the total size of the file ReconstructSeek
// will write, failing with WriteLimitExceeded before any leaf write or
// back-reference copy that would take the running total past it. Zero (the
// default) means unlimited.
func WithWriteLimit(limit int) Option {
	return func(c *config) {
		c.writeLimit = limit
	}
}

// WithLogger overrides the package-default go-log logger.
func WithLogger(logger *logging.ZapEventLogger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func newConfig(opts []Option) *config {
	c := &config{logger: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
