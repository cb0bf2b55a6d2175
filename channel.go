// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import "code.hybscloud.com/atomix"

// Channel is a typed, optionally-buffered, bidirectional rendezvous. A
// capacity of 0 makes it an unbuffered (synchronous) channel: a send and a
// receive must both be present to exchange a value. All mutation happens
// under the single package-wide coordinator mutex described in context.go;
// closed and the observed element count are additionally mirrored into
// atomix.Uint32 fields so Size and Empty can be read without taking the
// lock.
type Channel[T any] struct {
	buf  []T
	cap  int
	sendx, recvx, count int

	closed        atomix.Uint32
	observedCount atomix.Uint32

	sendq []*context
	recvq []*context
}

// NewChannel creates a channel with the given fixed capacity. Capacity 0
// is a rendezvous channel.
func NewChannel[T any](capacity int) *Channel[T] {
	return &Channel[T]{
		buf: make([]T, maxInt(capacity, 0)),
		cap: capacity,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Cap returns the channel's fixed capacity.
func (c *Channel[T]) Cap() int {
	return c.cap
}

// Size returns the number of buffered elements. Under concurrent traffic
// this may be stale by the time the caller observes it.
func (c *Channel[T]) Size() int {
	return int(c.observedCount.Load())
}

// Empty reports whether the buffer currently holds no elements.
func (c *Channel[T]) Empty() bool {
	return c.Size() == 0
}

// Send sends v. If block is false and no progress is possible right now,
// Send returns (false, nil) instead of waiting. Sending on a closed channel
// returns ErrClosedSend, whether detected synchronously or observed after
// waking from a park that a concurrent Close ended.
func (c *Channel[T]) Send(v T, block bool) (bool, error) {
	gmu.Lock()
	defer gmu.Unlock()
	return c.dispatchSend(v, block)
}

// Recv receives a value. ok is false when the channel is closed and
// drained: there is no value and there never will be again. ok is also
// false when block is false and no value is ready right now.
func (c *Channel[T]) Recv(block bool) (T, bool) {
	gmu.Lock()
	defer gmu.Unlock()
	return c.dispatchRecv(block)
}

// Close closes the channel. A second Close is a no-op. Every parked
// receiver and sender is signalled; parked receivers observe a
// closed-drained result, parked senders observe ErrClosedSend. Both queues
// are emptied here so a receive or send queue is never left non-empty on a
// closed channel, rather than relying on each parked goroutine to remove
// itself once scheduled back in.
func (c *Channel[T]) Close() {
	gmu.Lock()
	defer gmu.Unlock()
	if c.closed.Load() != 0 {
		return
	}
	c.closed.Store(1)
	for _, ctx := range c.recvq {
		ctx.signal()
	}
	for _, ctx := range c.sendq {
		ctx.signal()
	}
	c.recvq = nil
	c.sendq = nil
}

func (c *Channel[T]) dispatchSend(v T, block bool) (bool, error) {
	for {
		if c.closed.Load() != 0 {
			return false, ErrClosedSend
		}
		// A parked receiver always wins over the buffer: the direct
		// hand-off rule, preserved by the invariant that a non-empty
		// recvq and a non-empty buffer never coexist.
		if len(c.recvq) > 0 {
			ctx := c.recvq[0]
			c.recvq = c.recvq[1:]
			ctx.unblockedReceiver(c, v)
			ctx.signal()
			return true, nil
		}
		if c.count < c.cap {
			c.buf[c.sendx] = v
			c.sendx++
			if c.sendx == c.cap {
				c.sendx = 0
			}
			c.count++
			c.observedCount.Store(uint32(c.count))
			return true, nil
		}
		if !block {
			return false, nil
		}
		ctx := getContext()
		ctx.add(c, offerSend, v)
		c.sendq = append(c.sendq, ctx)
		ctx.wait()
		idx := ctx.unblockedIndex
		ctx.clear()
		putContext(ctx)
		if idx >= 0 {
			return true, nil
		}
		return false, ErrClosedSend
	}
}

func (c *Channel[T]) dispatchRecv(block bool) (T, bool) {
	for {
		if c.closed.Load() != 0 && c.count == 0 {
			var zero T
			return zero, false
		}
		if c.count > 0 {
			v := c.buf[c.recvx]
			c.recvx++
			if c.recvx == c.cap {
				c.recvx = 0
			}
			c.count--
			c.observedCount.Store(uint32(c.count))
			if len(c.sendq) > 0 && c.count < c.cap {
				ctx := c.sendq[0]
				c.sendq = c.sendq[1:]
				data := ctx.unblockedSender(c).(T)
				c.buf[c.sendx] = data
				c.sendx++
				if c.sendx == c.cap {
					c.sendx = 0
				}
				c.count++
				c.observedCount.Store(uint32(c.count))
				ctx.signal()
			}
			return v, true
		}
		if len(c.sendq) > 0 {
			ctx := c.sendq[0]
			c.sendq = c.sendq[1:]
			data := ctx.unblockedSender(c).(T)
			ctx.signal()
			return data, true
		}
		if !block {
			var zero T
			return zero, false
		}
		ctx := getContext()
		ctx.add(c, offerRecv, nil)
		c.recvq = append(c.recvq, ctx)
		ctx.wait()
		idx := ctx.unblockedIndex
		var v T
		if idx >= 0 {
			v = ctx.recvData.(T)
		}
		ctx.clear()
		putContext(ctx)
		if idx < 0 {
			var zero T
			return zero, false
		}
		return v, true
	}
}

// peek is the type-erased non-blocking receive the selector polls with.
func (c *Channel[T]) peek() (any, bool) {
	v, ok := c.Recv(false)
	if !ok {
		return nil, false
	}
	return v, true
}

// poke is the type-erased non-blocking send the selector polls with. v
// must hold a T; a type assertion failure indicates a selector offer was
// built against the wrong channel, which is a caller bug.
func (c *Channel[T]) poke(v any) (bool, error) {
	return c.Send(v.(T), false)
}

func (c *Channel[T]) addSender(ctx *context)   { c.sendq = append(c.sendq, ctx) }
func (c *Channel[T]) addReceiver(ctx *context) { c.recvq = append(c.recvq, ctx) }

func (c *Channel[T]) removeSender(ctx *context) bool {
	return removeCtx(&c.sendq, ctx)
}

func (c *Channel[T]) removeReceiver(ctx *context) bool {
	return removeCtx(&c.recvq, ctx)
}

func removeCtx(q *[]*context, ctx *context) bool {
	s := *q
	for i, x := range s {
		if x == ctx {
			*q = append(s[:i], s[i+1:]...)
			return true
		}
	}
	return false
}
