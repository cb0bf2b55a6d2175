// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import "math/rand/v2"

// Selector lets a caller offer several send/receive operations, possibly
// against channels of different element types, and block until exactly
// one of them completes. Build the offer list with [SelectSend] and
// [SelectRecv], call Select, then — if the committed offer was a receive —
// retrieve the value with [SelectorData].
//
// A Selector's offers are heterogeneous in element type, so Send/Recv/Data
// are free generic functions rather than generic methods: Go methods
// cannot introduce their own type parameter.
type Selector struct {
	offers []offer
	data   any
}

// SelectSend adds a send offer of v on ch.
func SelectSend[T any](s *Selector, ch *Channel[T], v T) {
	s.offers = append(s.offers, offer{ch: ch, kind: offerSend, val: v})
}

// SelectRecv adds a receive offer from ch.
func SelectRecv[T any](s *Selector, ch *Channel[T]) {
	s.offers = append(s.offers, offer{ch: ch, kind: offerRecv})
}

// SelectorData returns the value delivered by the receive offer that
// Select last committed. Calling it after a committed send offer, or
// asserting the wrong type, is a caller bug.
func SelectorData[T any](s *Selector) T {
	return s.data.(T)
}

// Select blocks until exactly one offered operation completes and returns
// its index (in the order the offers were added). If block is false and
// no offer is immediately ready, Select returns (-1, nil) without
// waiting. A send offer onto an already-closed channel surfaces as
// ErrClosedSend, exactly as it would from a direct [Channel.Send] — spec
// §7's "ClosedSend propagates to the caller of send" applies to the
// selector's caller too.
//
// Select first takes a non-blocking polling pass over every offer,
// starting at a uniformly random index so that when several offers are
// simultaneously ready no single one is systematically preferred (spec
// §4.3's fairness requirement). Only if nothing is ready does it register
// on every offered channel's queue and park.
func (s *Selector) Select(block bool) (int, error) {
	ctx := getContext()
	for _, o := range s.offers {
		ctx.add(o.ch, o.kind, o.val)
	}

	for {
		n := len(ctx.offers)
		start := 0
		if n > 0 {
			start = rand.IntN(n)
		}
		for k := 0; k < n; k++ {
			i := (start + k) % n
			o := ctx.offers[i]
			if o.kind == offerRecv {
				if v, ok := o.ch.peek(); ok {
					ctx.clear()
					putContext(ctx)
					s.data = v
					return i, nil
				}
				continue
			}
			ok, err := o.ch.poke(o.val)
			if err != nil {
				ctx.clear()
				putContext(ctx)
				return -1, err
			}
			if ok {
				ctx.clear()
				putContext(ctx)
				return i, nil
			}
		}

		if !block {
			ctx.clear()
			putContext(ctx)
			return -1, nil
		}

		gmu.Lock()
		ctx.addToAllChannels()
		ctx.wait()
		idx := ctx.unblockedIndex
		if idx < 0 {
			ctx.removeFromAllChannels()
			gmu.Unlock()
			continue
		}
		if len(ctx.offers) != 0 {
			gmu.Unlock()
			illegalState("selector: offers not cleared after commit")
		}
		s.data = ctx.recvData
		gmu.Unlock()
		ctx.clear()
		putContext(ctx)
		return idx, nil
	}
}
