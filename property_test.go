// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp_test

import (
	"sync"
	"testing"
	"testing/quick"

	"code.hybscloud.com/csp"
)

// TestPropertyTransportFIFO checks that a single-sender/single-receiver
// pair observes values in send order, for arbitrary capacities and
// arbitrary sequences.
func TestPropertyTransportFIFO(t *testing.T) {
	f := func(capacity uint8, xs []int) bool {
		cap := int(capacity % 8)
		c := csp.NewChannel[int](cap)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, x := range xs {
				if ok, err := c.Send(x, true); !ok || err != nil {
					t.Errorf("send(%d) = (%v, %v)", x, ok, err)
					return
				}
			}
			c.Close()
		}()

		got := make([]int, 0, len(xs))
		for {
			v, ok := c.Recv(true)
			if !ok {
				break
			}
			got = append(got, v)
		}
		wg.Wait()

		if len(got) != len(xs) {
			return false
		}
		for i, v := range got {
			if v != xs[i] {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 200}); err != nil {
		t.Error(err)
	}
}

// TestPropertyNoLostOrDuplicatedValues pairs N concurrent senders against
// one receiver on an unbuffered channel and checks the multiset of
// received values equals the multiset sent — order may interleave freely,
// but nothing may vanish or be duplicated.
func TestPropertyNoLostOrDuplicatedValues(t *testing.T) {
	f := func(n uint8) bool {
		count := int(n%32) + 1
		c := csp.NewChannel[int](0)

		var wg sync.WaitGroup
		for i := 0; i < count; i++ {
			wg.Add(1)
			go func(v int) {
				defer wg.Done()
				c.Send(v, true)
			}(i)
		}

		seen := make(map[int]int, count)
		for i := 0; i < count; i++ {
			v, ok := c.Recv(true)
			if !ok {
				return false
			}
			seen[v]++
		}
		wg.Wait()

		if len(seen) != count {
			return false
		}
		for _, n := range seen {
			if n != 1 {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 100}); err != nil {
		t.Error(err)
	}
}
