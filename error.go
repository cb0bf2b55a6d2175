// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import "errors"

// ErrClosedSend is returned by [Channel.Send] when the channel is already
// closed, either detected synchronously or observed on wakeup after a
// concurrent [Channel.Close].
var ErrClosedSend = errors.New("csp: send on closed channel")

// illegalState panics with a message identifying an internal invariant
// violation. It is never recovered: it indicates an implementation bug,
// and the library does not attempt self-repair.
func illegalState(msg string) {
	panic("csp: illegal state: " + msg)
}
