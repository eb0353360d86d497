// Package async provides the reusable completion object behind the
// asynchronous operations of buffered readers, writers and spill buffers.
//
// Each owner keeps exactly one Completion and arms it for every asynchronous
// call. The result channel is allocated once, so steady-state calls do not
// allocate a new future; the operation itself still runs on its own goroutine.
package async

import (
	"context"
	"fmt"

	"github.com/arloliu/spillio/errs"
)

type outcome[T any] struct {
	val T
	err error
}

// Completion is a resettable single-slot future.
//
// Start arms it with an operation; Wait blocks for the result and resets the
// completion so the same value serves the next call. At most one operation may
// be outstanding. A Completion is not safe for concurrent use, matching the
// single-operation-in-flight contract of its owners.
type Completion[T any] struct {
	ch      chan outcome[T]
	ctx     context.Context
	pending bool
}

// Canceled wraps ctx's error together with errs.ErrCanceled.
func Canceled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", errs.ErrCanceled, context.Cause(ctx))
}

// Start arms c with op and returns c.
//
// If ctx is already done, op never runs and Wait reports errs.ErrCanceled.
// Panics if an earlier operation has not been collected with Wait.
func (c *Completion[T]) Start(ctx context.Context, op func() (T, error)) *Completion[T] {
	if c.pending {
		panic("async: operation already in flight")
	}
	if c.ch == nil {
		c.ch = make(chan outcome[T], 1)
	}
	c.pending = true
	c.ctx = ctx

	if ctx.Err() != nil {
		c.ch <- outcome[T]{err: Canceled(ctx)}
		return c
	}

	go func() {
		v, err := op()
		c.ch <- outcome[T]{val: v, err: err}
	}()

	return c
}

// Pending reports whether an operation has been started and not yet collected.
func (c *Completion[T]) Pending() bool {
	return c.pending
}

// Ready reports whether the pending operation has finished.
func (c *Completion[T]) Ready() bool {
	return c.pending && len(c.ch) > 0
}

// Wait blocks until the pending operation finishes, then resets c.
//
// The operation always runs to completion. If the context given to Start was
// canceled while it was in flight, the result is discarded and
// errs.ErrCanceled is returned; any state the operation changed stays changed.
//
// Returns errs.ErrInvalidState if nothing is pending.
func (c *Completion[T]) Wait() (T, error) {
	var zero T
	if !c.pending {
		return zero, fmt.Errorf("async: wait without pending operation: %w", errs.ErrInvalidState)
	}

	o := <-c.ch
	ctx := c.ctx
	c.pending = false
	c.ctx = nil

	if o.err != nil {
		return zero, o.err
	}
	if ctx.Err() != nil {
		return zero, Canceled(ctx)
	}

	return o.val, nil
}
