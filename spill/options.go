package spill

import (
	"fmt"
	"math"
	"os"

	"github.com/rs/zerolog"

	"github.com/arloliu/spillio/errs"
	"github.com/arloliu/spillio/fileio"
	"github.com/arloliu/spillio/internal/options"
	"github.com/arloliu/spillio/metrics"
	"github.com/arloliu/spillio/pool"
)

const (
	// DefaultMemoryThreshold is the number of bytes kept in memory before spilling.
	DefaultMemoryThreshold = 32 * 1024
	// DefaultInitialCapacity caps the first memory allocation.
	DefaultInitialCapacity = 4096
	// DefaultMaxContiguousSize bounds contiguous materialization of spilled content.
	DefaultMaxContiguousSize = math.MaxInt32
)

type config struct {
	threshold      int
	initialCap     int // -1 means min(DefaultInitialCapacity, threshold)
	alloc          pool.Allocator
	fileBufferSize int
	writeThrough   bool
	asyncIO        bool
	filePath       string
	tempDir        string
	maxContiguous  int64
	logger         zerolog.Logger
	metrics        *metrics.Collector
}

func newConfig() *config {
	return &config{
		threshold:      DefaultMemoryThreshold,
		initialCap:     -1,
		alloc:          pool.DefaultAllocator(),
		fileBufferSize: fileio.DefaultBufferSize,
		tempDir:        os.TempDir(),
		maxContiguous:  DefaultMaxContiguousSize,
		logger:         zerolog.Nop(),
	}
}

func (c *config) Validate() error {
	if c.threshold <= 0 {
		return fmt.Errorf("memory threshold %d must be positive: %w", c.threshold, errs.ErrInvalidArgument)
	}
	if c.initialCap < 0 {
		c.initialCap = min(DefaultInitialCapacity, c.threshold)
	}
	if c.initialCap > c.threshold {
		return fmt.Errorf("initial capacity %d exceeds memory threshold %d: %w", c.initialCap, c.threshold, errs.ErrInvalidArgument)
	}
	if c.fileBufferSize <= 0 {
		return fmt.Errorf("file buffer size %d must be positive: %w", c.fileBufferSize, errs.ErrInvalidArgument)
	}
	if c.maxContiguous <= 0 {
		return fmt.Errorf("max contiguous size %d must be positive: %w", c.maxContiguous, errs.ErrInvalidArgument)
	}

	return nil
}

// Option configures a Buffer.
type Option = options.Option[*config]

// WithMemoryThreshold sets how many bytes stay in memory before the buffer
// spills to its backing file. Must be positive.
func WithMemoryThreshold(n int) Option {
	return options.NoError(func(c *config) {
		c.threshold = n
	})
}

// WithInitialCapacity sets the capacity of the first memory allocation.
// It must not exceed the memory threshold.
func WithInitialCapacity(n int) Option {
	return options.New(func(c *config) error {
		if n < 0 {
			return fmt.Errorf("negative initial capacity %d: %w", n, errs.ErrInvalidArgument)
		}
		c.initialCap = n

		return nil
	})
}

// WithAllocator sets the allocator memory buffers are borrowed from.
func WithAllocator(alloc pool.Allocator) Option {
	return options.New(func(c *config) error {
		if alloc == nil {
			return fmt.Errorf("nil allocator: %w", errs.ErrInvalidArgument)
		}
		c.alloc = alloc

		return nil
	})
}

// WithFileBufferSize sets the buffer size of readers and writers over the backing file.
func WithFileBufferSize(n int) Option {
	return options.NoError(func(c *config) {
		c.fileBufferSize = n
	})
}

// WithWriteThrough opens the backing file with O_SYNC and syncs after every flush.
func WithWriteThrough(enabled bool) Option {
	return options.NoError(func(c *config) {
		c.writeThrough = enabled
	})
}

// WithAsyncIO routes backing-file writes through the writer's reusable async completion.
func WithAsyncIO(enabled bool) Option {
	return options.NoError(func(c *config) {
		c.asyncIO = enabled
	})
}

// WithFilePath spills to the file at path instead of a temporary file.
// The file is truncated when first created and kept on Close.
func WithFilePath(path string) Option {
	return options.New(func(c *config) error {
		if path == "" {
			return fmt.Errorf("empty file path: %w", errs.ErrInvalidArgument)
		}
		c.filePath = path

		return nil
	})
}

// WithTempDir sets the directory temporary backing files are created in.
func WithTempDir(dir string) Option {
	return options.New(func(c *config) error {
		if dir == "" {
			return fmt.Errorf("empty temp dir: %w", errs.ErrInvalidArgument)
		}
		c.tempDir = dir

		return nil
	})
}

// WithMaxContiguousSize caps the size of contiguous views over spilled content.
// Larger requests fail with errs.ErrOutOfMemory.
func WithMaxContiguousSize(n int64) Option {
	return options.NoError(func(c *config) {
		c.maxContiguous = n
	})
}

// WithLogger sets the logger for backing-file lifecycle events. Default is zerolog.Nop().
func WithLogger(logger zerolog.Logger) Option {
	return options.NoError(func(c *config) {
		c.logger = logger
	})
}

// WithMetrics records buffer activity on c.
func WithMetrics(c *metrics.Collector) Option {
	return options.NoError(func(cfg *config) {
		cfg.metrics = c
	})
}
