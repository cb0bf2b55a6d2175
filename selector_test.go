// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp_test

import (
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/csp"
)

// TestSelectNonBlockingNoneReady covers scenario 5's non-blocking case.
func TestSelectNonBlockingNoneReady(t *testing.T) {
	a := csp.NewChannel[int](0)
	b := csp.NewChannel[string](0)

	var s csp.Selector
	csp.SelectRecv(&s, a)
	csp.SelectRecv(&s, b)

	idx, err := s.Select(false)
	if err != nil {
		t.Fatalf("Select(false): %v", err)
	}
	if idx != -1 {
		t.Fatalf("Select(false) = %d, want -1 when nothing is ready", idx)
	}
}

// TestSelectPicksReadyRecv covers scenario 5: a send arrives on the second
// of two offered channels, and Select must commit to it.
func TestSelectPicksReadyRecv(t *testing.T) {
	a := csp.NewChannel[int](0)
	b := csp.NewChannel[int](1)
	b.Send(99, true)

	var s csp.Selector
	csp.SelectRecv(&s, a)
	csp.SelectRecv(&s, b)

	idx, err := s.Select(true)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if idx != 1 {
		t.Fatalf("Select() = %d, want 1", idx)
	}
	if v := csp.SelectorData[int](&s); v != 99 {
		t.Fatalf("SelectorData = %d, want 99", v)
	}
}

// TestSelectCommitsExactlyOnce parks a Select on two channels and a second
// goroutine sends on only one of them. Only the matching offer may commit,
// and committing must clear the loser's registration.
func TestSelectCommitsExactlyOnce(t *testing.T) {
	a := csp.NewChannel[int](0)
	b := csp.NewChannel[int](0)

	done := make(chan struct{})
	var idx int
	var err error
	go func() {
		var s csp.Selector
		csp.SelectRecv(&s, a)
		csp.SelectRecv(&s, b)
		idx, err = s.Select(true)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	b.Send(1, true)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Select never committed")
	}
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if idx != 1 {
		t.Fatalf("Select() = %d, want 1", idx)
	}
	// The loser offer (a) must no longer have this context parked on it:
	// a fresh send should not find a receiver waiting.
	if ok, _ := a.Send(2, false); ok {
		t.Fatalf("offer on a should have been retracted once b committed")
	}
}

// TestSelectClosedSend covers Select's propagation of ErrClosedSend from a
// send offer onto an already-closed channel.
func TestSelectClosedSend(t *testing.T) {
	a := csp.NewChannel[int](1)
	a.Close()

	var s csp.Selector
	csp.SelectSend(&s, a, 5)

	idx, err := s.Select(true)
	if !errors.Is(err, csp.ErrClosedSend) {
		t.Fatalf("Select err = %v, want ErrClosedSend", err)
	}
	if idx != -1 {
		t.Fatalf("Select idx = %d, want -1 on error", idx)
	}
}

// TestSelectFairnessDistribution checks that, across many trials with two
// simultaneously-ready offers, Select does not systematically favor one
// index.
func TestSelectFairnessDistribution(t *testing.T) {
	const trials = 400
	counts := make([]int, 2)
	for i := 0; i < trials; i++ {
		a := csp.NewChannel[int](1)
		b := csp.NewChannel[int](1)
		a.Send(1, true)
		b.Send(2, true)

		var s csp.Selector
		csp.SelectRecv(&s, a)
		csp.SelectRecv(&s, b)
		idx, err := s.Select(true)
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		counts[idx]++
	}
	for i, c := range counts {
		if c == 0 || c == trials {
			t.Fatalf("offer %d picked %d/%d times, want a mixed distribution", i, c, trials)
		}
	}
}
