// Copyright 2024 The nope-gpu Authors. All rights reserved.

// Package frame drives the per-frame update/draw cycle on top of a
// gpu.Context: frame-slot rotation bounding the number of in-flight
// command buffers, swapchain out-of-date recovery, and the default
// rendertarget selection used by the RTT driver's outermost pass.
package frame

import (
	"errors"
	"fmt"
	"time"

	"github.com/nopeforge/nope-gpu/gpu"
	"github.com/nopeforge/nope-gpu/gpu/internal/ring"
	"github.com/nopeforge/nope-gpu/gpu/internal/worker"
)

// NFrame is the number of update/draw command buffer pairs a
// Driver keeps in flight at once.
const NFrame = 2

// Driver wraps a gpu.Context and owns the frame-slot state: a
// rotation of NFrame (update, draw) command buffer pairs, plus the
// swapchain recreation retry that recovers from gpu.ErrOutOfDate.
//
// Every method that touches the wrapped gpu.Context runs on a
// single dedicated goroutine (wk), realizing spec §5's worker-thread
// command-queue model: Driver itself is safe to call from any
// goroutine, since the actual context work is always handed off to
// the same thread rather than executed on the caller's.
type Driver struct {
	ctx           gpu.Context
	wk            *worker.Worker
	width, height int32

	slot    ring.Ring[int]
	updates [NFrame]gpu.CmdBuffer
	draws   [NFrame]gpu.CmdBuffer
}

// New returns a Driver for an already-initialized ctx, with width
// and height matching the dimensions ctx was configured with (used
// to retry Resize after a gpu.ErrOutOfDate). It starts the Driver's
// worker goroutine, which owns ctx for the rest of its lifetime.
func New(ctx gpu.Context, width, height int32) *Driver {
	return &Driver{ctx: ctx, wk: worker.New(), width: width, height: height, slot: ring.New[int](NFrame)}
}

// Context returns the wrapped gpu.Context.
func (d *Driver) Context() gpu.Context { return d.ctx }

// BeginUpdate starts recording the update command buffer for the
// current frame slot, first draining and destroying the slot's
// previous update command buffer (from NFrame frames ago).
func (d *Driver) BeginUpdate() (cb gpu.CmdBuffer, err error) {
	d.wk.Do(func() {
		i := d.slot.Cur()
		drain(&d.updates[i])
		cb, err = d.ctx.BeginUpdate()
		if err == nil {
			d.updates[i] = cb
		}
	})
	return
}

// EndUpdate submits the update command buffer.
func (d *Driver) EndUpdate(cb gpu.CmdBuffer) (err error) {
	d.wk.Do(func() { err = d.ctx.EndUpdate(cb) })
	return
}

// BeginDraw starts recording the draw command buffer for the
// current frame slot. On a swapchain out-of-date/suboptimal
// condition it resizes the context to the driver's current
// dimensions and retries once, per spec §4.1's "Swapchain
// recreation".
func (d *Driver) BeginDraw(t float64) (cb gpu.CmdBuffer, err error) {
	d.wk.Do(func() {
		i := d.slot.Cur()
		drain(&d.draws[i])
		cb, err = d.ctx.BeginDraw(t)
		if errors.Is(err, gpu.ErrOutOfDate) {
			if rerr := d.ctx.Resize(d.width, d.height); rerr != nil {
				err = rerr
				return
			}
			cb, err = d.ctx.BeginDraw(t)
		}
		if err == nil {
			d.draws[i] = cb
		}
	})
	return
}

// QueryDrawTime returns the GPU time spent on the last completed
// draw, if the context supports timestamp queries.
func (d *Driver) QueryDrawTime() (dur time.Duration, err error) {
	d.wk.Do(func() {
		ns, qerr := d.ctx.QueryDrawTime()
		dur, err = time.Duration(ns), qerr
	})
	return
}

// EndDraw presents (for an on-screen context) or completes (for an
// offscreen context) the current frame, then advances to the next
// frame slot. A gpu.ErrOutOfDate here is recovered the same way as
// in BeginDraw; since the frame was already recorded, the
// recreation takes effect for the next frame rather than this one.
func (d *Driver) EndDraw(t float64) (err error) {
	d.wk.Do(func() {
		err = d.ctx.EndDraw(t)
		d.slot.Next()
		if errors.Is(err, gpu.ErrOutOfDate) {
			err = d.ctx.Resize(d.width, d.height)
		}
	})
	return
}

// WaitIdle drains every in-flight frame slot and blocks until the
// context itself is idle.
func (d *Driver) WaitIdle() {
	d.wk.Do(func() {
		for i := range d.updates {
			drain(&d.updates[i])
			drain(&d.draws[i])
		}
		d.ctx.WaitIdle()
	})
}

// Resize updates the driver's tracked dimensions and propagates to
// the context. Valid only for on-screen contexts or offscreen
// contexts being explicitly resized (spec §4.1).
func (d *Driver) Resize(width, height int32) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("frame: invalid dimensions: %w", gpu.ErrUsage)
	}
	var err error
	d.wk.Do(func() {
		d.width, d.height = width, height
		err = d.ctx.Resize(width, height)
	})
	return err
}

// SetCaptureBuffer swaps the CPU readback destination used by an
// offscreen context's draws.
func (d *Driver) SetCaptureBuffer(buf []byte) (err error) {
	d.wk.Do(func() { err = d.ctx.SetCaptureBuffer(buf) })
	return
}

// GetDefaultRendertarget returns the context's default rendertarget
// with the given load operation, for use as the outermost pass's
// target by the rpass driver.
func (d *Driver) GetDefaultRendertarget(load gpu.LoadOp) (rt gpu.Rendertarget, err error) {
	d.wk.Do(func() { rt, err = d.ctx.GetDefaultRendertarget(load) })
	return
}

// Destroy drains every frame slot, destroys the wrapped context,
// and stops the Driver's worker goroutine.
func (d *Driver) Destroy() {
	d.WaitIdle()
	d.wk.Do(func() { d.ctx.Destroy() })
	d.wk.Close()
}

// drain waits on and destroys *cb if non-nil, then clears it.
func drain(cb *gpu.CmdBuffer) {
	if *cb == nil {
		return
	}
	(*cb).Wait()
	(*cb).Destroy()
	*cb = nil
}
