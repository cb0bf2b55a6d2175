// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"sort"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
)

// schedTask is one entry in the scheduler's time-ordered queue.
type schedTask struct {
	at time.Time
	fn func()
}

// Scheduler is a single-threaded priority timer: a time-ordered queue of
// tasks, driven by whichever goroutine(s) call [Scheduler.Run]. [Ticker]
// is built on top of it.
type Scheduler struct {
	mu   sync.Mutex
	cond *sync.Cond

	tasks []schedTask

	stopRequested bool
	stopWhenEmpty bool

	activeDrivers atomix.Uint32
}

// NewScheduler creates an empty, unstarted scheduler.
func NewScheduler() *Scheduler {
	s := &Scheduler{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// ActiveDrivers returns the number of goroutines currently inside Run.
// Like [Channel.Size], this is a lock-free observer and may be stale.
func (s *Scheduler) ActiveDrivers() int {
	return int(s.activeDrivers.Load())
}

// ScheduleAt schedules f to run at the given absolute time.
func (s *Scheduler) ScheduleAt(f func(), at time.Time) {
	s.mu.Lock()
	i := sort.Search(len(s.tasks), func(i int) bool { return s.tasks[i].at.After(at) })
	s.tasks = append(s.tasks, schedTask{})
	copy(s.tasks[i+1:], s.tasks[i:])
	s.tasks[i] = schedTask{at: at, fn: f}
	s.mu.Unlock()
	s.cond.Signal()
}

// ScheduleAfter schedules f to run once, after delay has elapsed.
func (s *Scheduler) ScheduleAfter(f func(), delay time.Duration) {
	s.ScheduleAt(f, time.Now().Add(delay))
}

// ScheduleEvery schedules f to run first after first elapses, then again
// every period thereafter. Re-scheduling is expressed as a trampoline
// closure that re-enqueues itself after each execution.
func (s *Scheduler) ScheduleEvery(f func(), first, period time.Duration) {
	var tick func()
	tick = func() {
		f()
		s.ScheduleAfter(tick, period)
	}
	s.ScheduleAfter(tick, first)
}

// Run executes due tasks in deadline order until Stop is called. It loops:
// wait for a task to exist whose deadline has elapsed, or for stop to be
// requested; pop and run it; repeat. Multiple goroutines may call Run on
// the same Scheduler; each is an independent driver. If a task panics, the
// panic propagates out of Run after this driver decrements the active
// count; other drivers are unaffected.
func (s *Scheduler) Run() {
	s.mu.Lock()
	s.activeDrivers.Add(1)
	s.mu.Unlock()
	defer atomicDecr(&s.activeDrivers)

	for {
		f, ok := s.next()
		if !ok {
			return
		}
		f()
	}
}

// next blocks until a task is due or the loop should exit, returning the
// due task (already popped) with ok=true, or ok=false to stop.
func (s *Scheduler) next() (func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		for len(s.tasks) == 0 && !s.stopRequested && !s.stopWhenEmpty {
			s.cond.Wait()
		}
		if s.stopRequested {
			return nil, false
		}
		if len(s.tasks) == 0 {
			// stopWhenEmpty with nothing left to drain.
			return nil, false
		}
		deadline := s.tasks[0].at
		if now := time.Now(); now.Before(deadline) {
			s.waitUntil(deadline)
			continue
		}
		f := s.tasks[0].fn
		s.tasks = s.tasks[1:]
		return f, true
	}
}

// waitUntil blocks on s.cond until either another call notifies it or
// deadline passes, whichever comes first. Caller must hold s.mu; it is
// released while waiting and re-acquired before return. sync.Cond has no
// native timed wait, so a timer goroutine is used to force a wakeup at
// the deadline — the standard workaround for composing a bounded wait on
// top of sync.Cond.
func (s *Scheduler) waitUntil(deadline time.Time) {
	timer := time.AfterFunc(time.Until(deadline), func() {
		s.mu.Lock()
		s.mu.Unlock()
		s.cond.Broadcast()
	})
	defer timer.Stop()
	s.cond.Wait()
}

// Stop stops every driver. If drain is true, each Run loop exits once the
// task queue empties; otherwise every Run loop exits immediately, leaving
// any unexecuted tasks in the queue.
func (s *Scheduler) Stop(drain bool) {
	s.mu.Lock()
	if drain {
		s.stopWhenEmpty = true
	} else {
		s.stopRequested = true
	}
	s.mu.Unlock()
	s.cond.Broadcast()
}

// atomicDecr decrements an atomix.Uint32 via compare-and-swap, since its
// surface offers Load/Store/Add/CompareAndSwap but no signed delta.
func atomicDecr(u *atomix.Uint32) {
	for {
		v := u.Load()
		if v == 0 {
			return
		}
		if u.CompareAndSwap(v, v-1) {
			return
		}
	}
}
