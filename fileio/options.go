package fileio

import (
	"fmt"

	"github.com/arloliu/spillio/errs"
	"github.com/arloliu/spillio/internal/options"
	"github.com/arloliu/spillio/pool"
)

// DefaultBufferSize is the buffer size used by readers and writers unless configured.
const DefaultBufferSize = 4096

type config struct {
	bufferSize    int
	alloc         pool.Allocator
	segmentLength int64
	syncOnFlush   bool
}

func newConfig() *config {
	return &config{
		bufferSize:    DefaultBufferSize,
		alloc:         pool.DefaultAllocator(),
		segmentLength: -1,
	}
}

func (c *config) Validate() error {
	if c.bufferSize <= 0 {
		return fmt.Errorf("buffer size %d must be positive: %w", c.bufferSize, errs.ErrInvalidArgument)
	}

	return nil
}

// Option configures a Reader or Writer.
type Option = options.Option[*config]

// WithBufferSize sets the size of the pooled buffer. Must be positive.
func WithBufferSize(n int) Option {
	return options.NoError(func(c *config) {
		c.bufferSize = n
	})
}

// WithAllocator sets the allocator the buffer is borrowed from.
func WithAllocator(alloc pool.Allocator) Option {
	return options.New(func(c *config) error {
		if alloc == nil {
			return fmt.Errorf("nil allocator: %w", errs.ErrInvalidArgument)
		}
		c.alloc = alloc

		return nil
	})
}

// WithSegmentLength caps the number of bytes a Reader will expose, counted from
// its starting offset. Negative values mean unbounded.
func WithSegmentLength(n int64) Option {
	return options.NoError(func(c *config) {
		c.segmentLength = n
	})
}

// WithSyncOnFlush makes a Writer call File.Sync after every flush.
func WithSyncOnFlush(enabled bool) Option {
	return options.NoError(func(c *config) {
		c.syncOnFlush = enabled
	})
}
