// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package ad840x

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
)

// transfer is the single in-flight asynchronous write.
type transfer struct {
	owner *Dev
	buf   [2]byte
	done  chan struct{}
}

// Engine owns the one asynchronous transfer slot shared by every device on
// the buses built with it.
type Engine struct {
	slot atomic.Pointer[transfer]
}

// NewEngine makes an idle engine.
func NewEngine() *Engine {
	return &Engine{}
}

// claim records d as the owner of the slot.  It fails with ErrBusy while an
// earlier transfer has not been finalized.
func (e *Engine) claim(d *Dev, w [2]byte) (*transfer, error) {
	t := &transfer{
		owner: d,
		buf:   w,
		done:  make(chan struct{}),
	}
	if !e.slot.CompareAndSwap(nil, t) {
		return nil, ErrBusy
	}
	return t, nil
}

func (e *Engine) release(t *transfer) {
	if e.slot.CompareAndSwap(t, nil) {
		close(t.done)
	}
}

// Complete is the transfer-complete notification for bus b.  When the
// transfer in flight was issued on b, its owner's chip-select is released
// (latching the wiper value) and the slot is freed.  Notifications for any
// other bus, or with nothing in flight, are ignored.
func (e *Engine) Complete(b *Bus) {
	t := e.slot.Load()
	if t == nil || t.owner.bus != b {
		return
	}

	if err := t.owner.cs.Out(gpio.High); err != nil {
		t.owner.log.Error("releasing chip-select failed",
			zap.Stringer("bus", b),
			zap.Stringer("cs", t.owner.cs),
			zap.Error(err))
	}
	e.release(t)
}

// Busy reports whether a transfer is in flight.
func (e *Engine) Busy() bool {
	return e.slot.Load() != nil
}

// Wait blocks until the transfer in flight, if any, has been finalized.
func (e *Engine) Wait(ctx context.Context) error {
	t := e.slot.Load()
	if t == nil {
		return nil
	}

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
