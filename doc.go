// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package csp provides CSP-style concurrency primitives for shared-memory
// multithreaded Go programs: a typed, optionally-buffered, bidirectional
// rendezvous [Channel]; a [Selector] that waits on one of several pending
// channel operations; and a [Scheduler]/[Ticker] pair built on top of them.
//
// # Architecture
//
//   - Channel: a mutex-protected ring buffer with FIFO sender/receiver
//     queues. [NewChannel] creates one with a fixed capacity.
//   - Context: per-call pairing state bridging a blocked goroutine and the
//     counterparty that wakes it. Allocated from a pool, not exported.
//   - Selector: offers [Channel.Send]/[Channel.Recv] operations across
//     possibly-different element types via a type-erased interface, and
//     commits to exactly one.
//   - Scheduler: a single goroutine executing a time-ordered task queue.
//   - Ticker: a [Scheduler] plus a [Channel] of bool, posting a
//     non-blocking signal every period.
//
// # Example
//
//	c := csp.NewChannel[int](0)
//	go func() { c.Send(7, true) }()
//	v, ok := c.Recv(true) // v == 7, ok == true
package csp
