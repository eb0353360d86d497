package spill

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arloliu/spillio/errs"
	"github.com/arloliu/spillio/fileio"
	"github.com/arloliu/spillio/internal/async"
	"github.com/arloliu/spillio/internal/options"
	"github.com/arloliu/spillio/metrics"
	"github.com/arloliu/spillio/pool"
	"github.com/arloliu/spillio/wire"
)

// State is the lifecycle state of a Buffer.
type State uint8

const (
	// StateInMemory means no backing file exists yet.
	StateInMemory State = iota + 1
	// StateOnDisk means a backing file holds the older content; newer bytes may
	// still sit in the memory tail.
	StateOnDisk
	// StateReadMode means a read session is open; writes and Clear are rejected.
	StateReadMode
)

func (s State) String() string {
	switch s {
	case StateInMemory:
		return "InMemory"
	case StateOnDisk:
		return "OnDisk"
	case StateReadMode:
		return "ReadMode"
	default:
		return "Unknown"
	}
}

type reservation uint8

const (
	reserveNone reservation = iota
	reserveMemory
	reserveDirect
)

// Buffer is a growable byte sink that starts in memory and spills to a backing
// file once its memory threshold is exceeded.
//
// Content is the file's bytes followed by the memory tail. The tail never
// exceeds the threshold: a write that would push it over persists the tail
// first, and a single write larger than the threshold goes straight to the file.
//
// Reading views and drains open a Session; while one is open the buffer is in
// read mode and rejects writes. At most one Session exists at a time.
//
// Note: Buffer is NOT thread-safe, apart from its session bookkeeping, which
// asynchronous drains release from their own goroutine.
type Buffer struct {
	cfg   *config
	alloc pool.Allocator
	log   zerolog.Logger
	stats *metrics.Collector

	mem *pool.ByteBuffer

	file    fileio.File
	writer  *fileio.Writer
	path    string
	fileLen int64

	reserved    int
	reserveKind reservation
	scratch     *pool.ByteBuffer

	mu      sync.Mutex
	gen     uint64
	reading bool
	closed  bool

	drainOp async.Completion[int64]
}

var _ wire.Sink = (*Buffer)(nil)

// New creates an empty Buffer.
//
// Parameters:
//   - opts: WithMemoryThreshold, WithInitialCapacity, WithAllocator, WithFilePath,
//     WithTempDir, WithFileBufferSize, WithWriteThrough, WithAsyncIO,
//     WithMaxContiguousSize, WithLogger, WithMetrics
//
// Returns:
//   - *Buffer: Empty buffer in StateInMemory; no memory is allocated until the first write
//   - error: errs.ErrInvalidArgument for invalid options, including an initial
//     capacity above the memory threshold
func New(opts ...Option) (*Buffer, error) {
	cfg := newConfig()
	if err := options.ApplyAndValidate(cfg, opts...); err != nil {
		return nil, err
	}

	return &Buffer{
		cfg:   cfg,
		alloc: cfg.alloc,
		log:   cfg.logger,
		stats: cfg.metrics,
	}, nil
}

// Threshold returns the memory threshold in bytes.
func (b *Buffer) Threshold() int {
	return b.cfg.threshold
}

func (b *Buffer) memLen() int {
	if b.mem == nil {
		return 0
	}

	return b.mem.Len()
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int64 {
	return b.fileLen + int64(b.memLen())
}

// State returns the current lifecycle state.
func (b *Buffer) State() State {
	b.mu.Lock()
	reading := b.reading
	b.mu.Unlock()

	switch {
	case reading:
		return StateReadMode
	case b.file != nil:
		return StateOnDisk
	default:
		return StateInMemory
	}
}

// Spilled reports whether a backing file exists.
func (b *Buffer) Spilled() bool {
	return b.file != nil
}

// Path returns the path of the backing file, or "" before the first spill.
func (b *Buffer) Path() string {
	return b.path
}

func (b *Buffer) checkWritable(ctx context.Context) error {
	b.mu.Lock()
	closed, reading := b.closed, b.reading
	b.mu.Unlock()

	if closed {
		return errs.ErrClosed
	}
	if reading {
		return fmt.Errorf("buffer is in read mode: %w", errs.ErrInvalidState)
	}
	if ctx.Err() != nil {
		return async.Canceled(ctx)
	}

	return nil
}

// WriteContext appends p.
//
// A p larger than the memory threshold is written directly to the backing file
// after the memory tail; otherwise p is appended to the memory tail, which is
// persisted first when p does not fit under the threshold.
func (b *Buffer) WriteContext(ctx context.Context, p []byte) (int, error) {
	if err := b.checkWritable(ctx); err != nil {
		return 0, err
	}
	b.releaseScratch() // a write abandons any pending reservation
	if len(p) == 0 {
		return 0, nil
	}

	if len(p) > b.cfg.threshold {
		if err := b.persistTail(ctx); err != nil {
			return 0, err
		}
		n, err := b.writeFile(ctx, p)
		b.stats.DirectWrite(n)
		b.stats.Written(n)

		return n, err
	}

	if b.memLen()+len(p) > b.cfg.threshold {
		if err := b.persistTail(ctx); err != nil {
			return 0, err
		}
	}
	b.growMem(len(p))
	b.mem.B = append(b.mem.B, p...)
	b.stats.Written(len(p))

	return len(p), nil
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	return b.WriteContext(context.Background(), p)
}

// WriteString appends s.
func (b *Buffer) WriteString(s string) (int, error) {
	return b.WriteContext(context.Background(), []byte(s))
}

// Reserve returns a writable window of n bytes. Follow with Commit.
//
// Windows that fit under the threshold live in the memory tail. A window larger
// than the threshold is a scratch buffer that Commit writes straight to the
// backing file.
func (b *Buffer) Reserve(ctx context.Context, n int) ([]byte, error) {
	if err := b.checkWritable(ctx); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("negative reserve %d: %w", n, errs.ErrInvalidArgument)
	}
	b.releaseScratch()

	switch {
	case b.memLen()+n <= b.cfg.threshold:
		b.growMem(n)
		b.reserved, b.reserveKind = n, reserveMemory

		return b.mem.Free()[:n], nil
	case n > b.cfg.threshold:
		if err := b.persistTail(ctx); err != nil {
			return nil, err
		}
		b.scratch = b.alloc.Get(n)
		b.reserved, b.reserveKind = n, reserveDirect

		return b.scratch.Slice(0, n), nil
	default:
		if err := b.persistTail(ctx); err != nil {
			return nil, err
		}
		b.growMem(n)
		b.reserved, b.reserveKind = n, reserveMemory

		return b.mem.Free()[:n], nil
	}
}

// Commit appends the first n bytes of the last reserved window.
func (b *Buffer) Commit(ctx context.Context, n int) error {
	if b.reserveKind == reserveNone {
		return fmt.Errorf("commit without reservation: %w", errs.ErrInvalidArgument)
	}
	if n < 0 || n > b.reserved {
		return fmt.Errorf("commit %d bytes of %d reserved: %w", n, b.reserved, errs.ErrInvalidArgument)
	}

	kind := b.reserveKind
	b.reserved, b.reserveKind = 0, reserveNone

	if kind == reserveMemory {
		b.mem.SetLength(b.mem.Len() + n)
		b.stats.Written(n)

		return nil
	}

	defer b.releaseScratch()
	if n == 0 {
		return nil
	}
	written, err := b.writeFile(ctx, b.scratch.B[:n])
	b.stats.DirectWrite(written)
	b.stats.Written(written)

	return err
}

func (b *Buffer) releaseScratch() {
	if b.scratch != nil {
		b.alloc.Put(b.scratch)
		b.scratch = nil
	}
	b.reserved, b.reserveKind = 0, reserveNone
}

// growMem makes room for n more bytes in the memory tail, never growing past
// the threshold.
func (b *Buffer) growMem(n int) {
	need := b.memLen() + n

	if b.mem == nil {
		b.mem = b.alloc.Get(max(b.cfg.initialCap, need))
		b.stats.MemoryChanged(b.mem.Cap())

		return
	}
	if b.mem.Cap() >= need {
		return
	}

	old := b.mem.Cap()
	b.mem = pool.Resize(b.alloc, b.mem, min(max(2*old, need), b.cfg.threshold))
	b.stats.MemoryChanged(b.mem.Cap() - old)
}

// persistTail moves the memory tail to the end of the backing file, creating
// the file on first use. The memory buffer keeps its capacity for new writes.
func (b *Buffer) persistTail(ctx context.Context) error {
	n := b.memLen()
	if n == 0 {
		return nil
	}

	written, err := b.writeFile(ctx, b.mem.B)
	if written > 0 {
		rest := copy(b.mem.B, b.mem.B[written:])
		b.mem.SetLength(rest)
		b.stats.Spilled(written)
	}
	if err != nil {
		return err
	}

	b.log.Debug().
		Str("path", b.path).
		Str("tail", humanize.IBytes(uint64(written))).
		Str("file_size", humanize.IBytes(uint64(b.fileLen))).
		Msg("persisted memory tail")

	return nil
}

// writeFile writes p at the end of the backing file and flushes it.
func (b *Buffer) writeFile(ctx context.Context, p []byte) (int, error) {
	if err := b.ensureFile(); err != nil {
		return 0, err
	}

	var (
		n   int
		err error
	)
	if b.cfg.asyncIO {
		n, err = b.writer.WriteAsync(ctx, p).Wait()
		if err == nil {
			_, err = b.writer.FlushAsync(ctx).Wait()
		}
	} else {
		n, err = b.writer.WriteContext(ctx, p)
		if err == nil {
			err = b.writer.Flush(ctx)
		}
	}
	if err != nil {
		// Unflushed bytes stay with the caller, who may retry them.
		n -= b.writer.Discard()
		b.fileLen = b.writer.Position()

		return n, fmt.Errorf("write backing file %s: %w", b.path, err)
	}
	b.fileLen = b.writer.Position()

	return n, nil
}

func (b *Buffer) ensureFile() error {
	if b.file != nil {
		return nil
	}

	path := b.cfg.filePath
	if path == "" {
		path = filepath.Join(b.cfg.tempDir, "spill-"+uuid.NewString()+".tmp")
	}

	f, err := fileio.Create(path, b.cfg.writeThrough)
	if err != nil {
		return fmt.Errorf("create backing file: %w", err)
	}

	w, err := fileio.NewWriter(f, 0,
		fileio.WithBufferSize(b.cfg.fileBufferSize),
		fileio.WithAllocator(b.alloc),
		fileio.WithSyncOnFlush(b.cfg.writeThrough),
	)
	if err != nil {
		return errors.Join(err, f.Close(), os.Remove(path))
	}

	b.file, b.writer, b.path, b.fileLen = f, w, path, 0
	b.stats.FileOpened()
	b.log.Debug().
		Str("path", path).
		Str("threshold", humanize.IBytes(uint64(b.cfg.threshold))).
		Bool("persistent", b.cfg.filePath != "").
		Msg("created backing file")

	return nil
}

// closeFile closes the backing file, removing it unless it is persistent.
func (b *Buffer) closeFile(truncate bool) error {
	if b.file == nil {
		return nil
	}

	var errList []error
	if truncate {
		errList = append(errList, b.file.Truncate(0))
	}
	errList = append(errList, b.writer.Close(), b.file.Close())

	persistent := b.cfg.filePath != ""
	if !persistent {
		if err := os.Remove(b.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errList = append(errList, err)
		}
	}
	b.stats.FileClosed()
	b.log.Debug().Str("path", b.path).Bool("kept", persistent).Msg("closed backing file")

	b.file, b.writer, b.fileLen = nil, nil, 0
	if !persistent {
		b.path = ""
	}

	return errors.Join(errList...)
}

func (b *Buffer) releaseMem() {
	if b.mem == nil {
		return
	}
	b.stats.MemoryChanged(-b.mem.Cap())
	b.alloc.Put(b.mem)
	b.mem = nil
}

// Clear discards all content and returns the buffer to StateInMemory.
//
// A temporary backing file is closed and removed. A persistent one is truncated
// and closed; the next overflow reopens it.
//
// Returns errs.ErrInvalidState while a read session is open.
func (b *Buffer) Clear() error {
	if err := b.checkWritable(context.Background()); err != nil {
		return err
	}

	b.releaseScratch()
	b.releaseMem()
	err := b.closeFile(true)
	b.log.Debug().Msg("cleared buffer")

	return err
}

// Close releases memory, closes the backing file and removes it unless it is
// persistent. A persistent file that already exists first receives the memory
// tail, so it holds the whole content. Open sessions become stale. Close is
// idempotent.
func (b *Buffer) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.reading = false
	b.gen++
	b.mu.Unlock()

	if b.drainOp.Pending() {
		_, _ = b.drainOp.Wait()
	}

	b.releaseScratch()
	var err error
	if b.file != nil && b.cfg.filePath != "" {
		err = b.persistTail(context.Background())
	}
	b.releaseMem()
	err = errors.Join(err, b.closeFile(false))
	if err != nil {
		b.log.Warn().Err(err).Str("path", b.path).Msg("closing spill buffer")
	}

	return err
}
