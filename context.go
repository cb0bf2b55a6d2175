// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"math/rand/v2"
	"sync"
)

// gmu is the single coordinator mutex shared by every channel and context.
// Spec §5 permits "the simplest implementation... all channel operations
// share this single global mutex; this is acceptable because the critical
// sections are short and the primitive is intended for coordination, not
// bulk throughput." A context's own sync.Cond is built on this same lock so
// Wait/Signal interact correctly with the channel state they guard.
var gmu sync.Mutex

// offerKind distinguishes a send offer from a receive offer.
type offerKind int

const (
	offerSend offerKind = iota
	offerRecv
)

// offer is one pending operation a context is registered for: a send of
// val on ch, or a receive from ch (val unused).
type offer struct {
	ch   channelOps
	kind offerKind
	val  any
}

// channelOps is the type-erased interface a context uses to register,
// unregister, and poll an arbitrary Channel[T] without knowing T.
type channelOps interface {
	peek() (any, bool)
	poke(v any) (bool, error)
	addSender(c *context)
	addReceiver(c *context)
	removeSender(c *context) bool
	removeReceiver(c *context) bool
}

// context is the per-call pairing state bridging a blocked caller and the
// counterparty that wakes it. Spec §4.2 specifies a process-wide table keyed
// by thread identifier, reused across a thread's lifetime; Go exposes no
// portable goroutine identifier or goroutine-local storage, so a context is
// instead obtained fresh for each blocking call via a sync.Pool and
// returned once the call settles. This preserves every invariant §4.2 and
// §8 require (the same context spans every offer a single call makes) —
// see DESIGN.md.
type context struct {
	cond *sync.Cond
	// count is a counted (not binary) semaphore so a signal racing ahead
	// of a wait is never lost. Mutated only while gmu is held.
	count int

	unblockedIndex int
	recvData       any
	offers         []offer
}

var contextPool = sync.Pool{
	New: func() any {
		c := &context{unblockedIndex: -1}
		c.cond = sync.NewCond(&gmu)
		return c
	},
}

// getContext obtains a freshly-reset context for one blocking call.
func getContext() *context {
	c := contextPool.Get().(*context)
	c.unblockedIndex = -1
	c.recvData = nil
	c.count = 0
	if c.offers != nil {
		c.offers = c.offers[:0]
	}
	return c
}

func putContext(c *context) {
	contextPool.Put(c)
}

// add appends one pending offer.
func (c *context) add(ch channelOps, kind offerKind, val any) {
	c.offers = append(c.offers, offer{ch: ch, kind: kind, val: val})
}

// addToAllChannels registers this context on every offered channel's
// matching queue. Caller must hold gmu.
func (c *context) addToAllChannels() {
	for _, o := range c.offers {
		if o.kind == offerRecv {
			o.ch.addReceiver(c)
		} else {
			o.ch.addSender(c)
		}
	}
}

// removeFromAllChannels unregisters this context from every offered
// channel's queue. Caller must hold gmu.
func (c *context) removeFromAllChannels() {
	for _, o := range c.offers {
		if o.kind == offerRecv {
			o.ch.removeReceiver(c)
		} else {
			o.ch.removeSender(c)
		}
	}
}

// clear resets the context to its idle state.
func (c *context) clear() {
	c.unblockedIndex = -1
	c.recvData = nil
	c.offers = c.offers[:0]
}

// unblockedSender is called by the counterparty, holding gmu, once it has
// decided to take this context's send offer on ch. It records which offer
// committed, unregisters every other offer from its channel, and returns
// the value that was offered. The scan starts at a random index so that,
// combined with the selector's own randomized polling order, no offer is
// systematically favored.
func (c *context) unblockedSender(ch channelOps) any {
	n := len(c.offers)
	if n == 0 {
		illegalState("unblockedSender: no offers")
	}
	start := rand.IntN(n)
	var data any
	found := false
	for k := 0; k < n; k++ {
		i := (start + k) % n
		o := c.offers[i]
		if o.ch == ch && o.kind == offerSend && !found {
			c.unblockedIndex = i
			data = o.val
			found = true
			continue
		}
		if o.kind == offerRecv {
			o.ch.removeReceiver(c)
		} else {
			o.ch.removeSender(c)
		}
	}
	if !found {
		illegalState("unblockedSender: channel not found among offers")
	}
	c.offers = c.offers[:0]
	return data
}

// unblockedReceiver is the receive-side counterpart of unblockedSender: it
// records the committed offer and stashes the delivered value.
func (c *context) unblockedReceiver(ch channelOps, data any) {
	n := len(c.offers)
	if n == 0 {
		illegalState("unblockedReceiver: no offers")
	}
	start := rand.IntN(n)
	found := false
	for k := 0; k < n; k++ {
		i := (start + k) % n
		o := c.offers[i]
		if o.ch == ch && o.kind == offerRecv && !found {
			c.unblockedIndex = i
			c.recvData = data
			found = true
			continue
		}
		if o.kind == offerRecv {
			o.ch.removeReceiver(c)
		} else {
			o.ch.removeSender(c)
		}
	}
	if !found {
		illegalState("unblockedReceiver: channel not found among offers")
	}
	c.offers = c.offers[:0]
}

// signal increments the semaphore and wakes this context's single waiter,
// if any. Caller must hold gmu.
func (c *context) signal() {
	c.count++
	c.cond.Signal()
}

// wait blocks until the semaphore is positive, then consumes one unit.
// Caller must hold gmu; gmu is released while blocked and re-acquired
// before wait returns.
func (c *context) wait() {
	for c.count == 0 {
		c.cond.Wait()
	}
	c.count--
}
