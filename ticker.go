// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"time"

	"code.hybscloud.com/atomix"
)

// Ticker posts a non-blocking true onto C every period. It owns a
// [Scheduler] and one driver goroutine; C has capacity 1, so a tick that
// arrives while the previous one is unread is simply dropped rather than
// blocking the driver.
type Ticker struct {
	C *Channel[bool]

	sched   *Scheduler
	running atomix.Uint32
	done    chan struct{}
}

// NewTicker starts a ticker that signals every period.
func NewTicker(period time.Duration) *Ticker {
	t := &Ticker{
		C:     NewChannel[bool](1),
		sched: NewScheduler(),
		done:  make(chan struct{}),
	}
	t.running.Store(1)
	t.sched.ScheduleEvery(func() {
		t.C.Send(true, false)
	}, period, period)
	go func() {
		t.sched.Run()
		close(t.done)
	}()
	return t
}

// Stop stops the ticker's scheduler (without draining pending ticks) and
// waits for its driver goroutine to exit. A second Stop is a no-op.
func (t *Ticker) Stop() {
	if !t.running.CompareAndSwap(1, 0) {
		return
	}
	t.sched.Stop(false)
	<-t.done
}
