// Copyright 2024 The nope-gpu Authors. All rights reserved.

package frame_test

import (
	"errors"
	"testing"

	"github.com/nopeforge/nope-gpu/frame"
	"github.com/nopeforge/nope-gpu/gpu"
)

// fakeCmdBuffer records whether Wait/Destroy were called so tests can assert slot
// draining without a real backend.
type fakeCmdBuffer struct {
	waited, destroyed bool
}

func (cb *fakeCmdBuffer) Destroy()             { cb.destroyed = true }
func (cb *fakeCmdBuffer) Begin() error         { return nil }
func (cb *fakeCmdBuffer) Ref(gpu.RefCounted)   {}
func (cb *fakeCmdBuffer) RefBuffer(gpu.Buffer) {}
func (cb *fakeCmdBuffer) Submit() error        { return nil }
func (cb *fakeCmdBuffer) Wait()                { cb.waited = true }

// fakeContext implements just enough of gpu.Context for frame.Driver
// to drive it, failing loudly (via panic) on any method this
// package's tests don't expect to be called.
type fakeContext struct {
	gpu.Context
	oodOnce       bool
	resizeCalls   int
	beginUpdateN  int
	beginDrawN    int
	lastUpdateCBs []*fakeCmdBuffer
	lastDrawCBs   []*fakeCmdBuffer
}

func (c *fakeContext) BeginUpdate() (gpu.CmdBuffer, error) {
	c.beginUpdateN++
	cb := &fakeCmdBuffer{}
	c.lastUpdateCBs = append(c.lastUpdateCBs, cb)
	return cb, nil
}

func (c *fakeContext) EndUpdate(cb gpu.CmdBuffer) error { return nil }

func (c *fakeContext) BeginDraw(t float64) (gpu.CmdBuffer, error) {
	c.beginDrawN++
	if c.oodOnce && c.beginDrawN == 1 {
		return nil, gpu.ErrOutOfDate
	}
	cb := &fakeCmdBuffer{}
	c.lastDrawCBs = append(c.lastDrawCBs, cb)
	return cb, nil
}

func (c *fakeContext) EndDraw(t float64) error { return nil }

func (c *fakeContext) Resize(width, height int32) error {
	c.resizeCalls++
	return nil
}

func (c *fakeContext) WaitIdle() {}

func (c *fakeContext) Destroy() {}

func TestDriverDrainsPreviousSlotBeforeReuse(t *testing.T) {
	ctx := &fakeContext{}
	d := frame.New(ctx, 640, 480)

	var prevUpdate, prevDraw [frame.NFrame]gpu.CmdBuffer
	for i := 0; i < frame.NFrame+1; i++ {
		cb, err := d.BeginUpdate()
		if err != nil {
			t.Fatalf("BeginUpdate: %v", err)
		}
		if i >= frame.NFrame {
			if !prevUpdate[i%frame.NFrame].(*fakeCmdBuffer).waited || !prevUpdate[i%frame.NFrame].(*fakeCmdBuffer).destroyed {
				t.Fatalf("slot %d: previous update command buffer was not drained", i)
			}
		}
		prevUpdate[i%frame.NFrame] = cb
		if err := d.EndUpdate(cb); err != nil {
			t.Fatalf("EndUpdate: %v", err)
		}

		draw, err := d.BeginDraw(0)
		if err != nil {
			t.Fatalf("BeginDraw: %v", err)
		}
		if i >= frame.NFrame {
			if !prevDraw[i%frame.NFrame].(*fakeCmdBuffer).waited || !prevDraw[i%frame.NFrame].(*fakeCmdBuffer).destroyed {
				t.Fatalf("slot %d: previous draw command buffer was not drained", i)
			}
		}
		prevDraw[i%frame.NFrame] = draw
		if err := d.EndDraw(0); err != nil {
			t.Fatalf("EndDraw: %v", err)
		}
	}
}

func TestDriverRetriesOnceOnOutOfDate(t *testing.T) {
	ctx := &fakeContext{oodOnce: true}
	d := frame.New(ctx, 640, 480)

	cb, err := d.BeginDraw(0)
	if err != nil {
		t.Fatalf("BeginDraw: %v", err)
	}
	if cb == nil {
		t.Fatal("BeginDraw: expected a command buffer after the retry")
	}
	if ctx.resizeCalls != 1 {
		t.Fatalf("resizeCalls = %d, want 1", ctx.resizeCalls)
	}
	if ctx.beginDrawN != 2 {
		t.Fatalf("beginDrawN = %d, want 2 (one failure, one retry)", ctx.beginDrawN)
	}
}

func TestDriverWaitIdleDrainsAllSlots(t *testing.T) {
	ctx := &fakeContext{}
	d := frame.New(ctx, 640, 480)

	for i := 0; i < frame.NFrame; i++ {
		if _, err := d.BeginUpdate(); err != nil {
			t.Fatalf("BeginUpdate: %v", err)
		}
		if _, err := d.BeginDraw(0); err != nil {
			t.Fatalf("BeginDraw: %v", err)
		}
	}
	d.WaitIdle()
	for _, cb := range ctx.lastUpdateCBs {
		if !cb.waited || !cb.destroyed {
			t.Fatal("WaitIdle did not drain an update slot")
		}
	}
	for _, cb := range ctx.lastDrawCBs {
		if !cb.waited || !cb.destroyed {
			t.Fatal("WaitIdle did not drain a draw slot")
		}
	}
}

func TestResizeRejectsNonPositiveDimensions(t *testing.T) {
	ctx := &fakeContext{}
	d := frame.New(ctx, 640, 480)
	if err := d.Resize(0, 480); !errors.Is(err, gpu.ErrUsage) {
		t.Fatalf("Resize(0, 480) = %v, want ErrUsage", err)
	}
}
