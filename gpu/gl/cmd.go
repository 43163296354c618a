// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gl

import (
	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nopeforge/nope-gpu/gpu"
)

// CmdBuffer implements gpu.CmdBuffer as an identity shim: GL
// commands are issued against the context made current before
// Init, so recording is really just bookkeeping for the
// reference list (spec §4.7, §5, §8) plus a fence sync object
// standing in for the "pending submission" the Vulkan backend
// tracks with a real VkFence.
type CmdBuffer struct {
	ctx     *Context
	fence   uintptr
	refs    []gpu.RefCounted
	buffers []*Buffer
}

// NewCmdBuffer implements gpu.Context.
func (c *Context) NewCmdBuffer() (gpu.CmdBuffer, error) {
	return &CmdBuffer{ctx: c}, nil
}

// Begin implements gpu.CmdBuffer.
func (cb *CmdBuffer) Begin() error {
	cb.refs = cb.refs[:0]
	cb.buffers = cb.buffers[:0]
	return nil
}

// Ref implements gpu.CmdBuffer.
func (cb *CmdBuffer) Ref(rc gpu.RefCounted) {
	rc.(interface{ ref() }).ref()
	cb.refs = append(cb.refs, rc)
}

// RefBuffer implements gpu.CmdBuffer.
func (cb *CmdBuffer) RefBuffer(b gpu.Buffer) {
	buf := b.(*Buffer)
	buf.addRef(cb)
	cb.buffers = append(cb.buffers, buf)
	cb.Ref(buf)
}

// Submit implements gpu.CmdBuffer. Since GL commands are
// already queued by the driver as they are issued, Submit only
// inserts a fence the caller can later block on in Wait.
func (cb *CmdBuffer) Submit() error {
	cb.fence = uintptr(glcore.FenceSync(glcore.SYNC_GPU_COMMANDS_COMPLETE, 0))
	cb.ctx.pending = append(cb.ctx.pending, cb)
	return nil
}

// Wait implements gpu.CmdBuffer.
func (cb *CmdBuffer) Wait() {
	if cb.fence != 0 {
		glcore.ClientWaitSync(cb.fence, glcore.SYNC_FLUSH_COMMANDS_BIT, ^uint64(0))
		glcore.DeleteSync(cb.fence)
		cb.fence = 0
	}
	for _, r := range cb.refs {
		r.(interface{ unref() }).unref()
	}
	cb.refs = cb.refs[:0]
	cb.buffers = cb.buffers[:0]
	cb.ctx.removePending(cb)
}

// Destroy implements gpu.CmdBuffer.
func (cb *CmdBuffer) Destroy() {
	if cb.fence != 0 {
		glcore.DeleteSync(cb.fence)
	}
	*cb = CmdBuffer{}
}

// ExecuteTransient implements gpu.TransientCmdBuffer.
func (c *Context) ExecuteTransient(fn func(cb gpu.CmdBuffer)) error {
	tcb, err := c.NewCmdBuffer()
	if err != nil {
		return err
	}
	if err := tcb.Begin(); err != nil {
		return err
	}
	fn(tcb)
	if err := tcb.Submit(); err != nil {
		return err
	}
	tcb.Wait()
	tcb.Destroy()
	return nil
}
