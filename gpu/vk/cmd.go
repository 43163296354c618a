// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

// #include <proc.h>
import "C"

import (
	"unsafe"

	"github.com/nopeforge/nope-gpu/gpu"
)

// CmdBuffer implements gpu.CmdBuffer. Each instance owns an
// exclusive VkCommandPool (so Destroy/Reset never race a pool
// shared with other command buffers) and a VkFence that Submit
// signals and Wait blocks on, standing in for the GL backend's
// fence sync object.
type CmdBuffer struct {
	ctx   *Context
	pool  C.VkCommandPool
	cb    C.VkCommandBuffer
	fence C.VkFence

	pending bool
	refs    []gpu.RefCounted
	buffers []*Buffer

	// waitSem/waitStage/signalSem are set by BeginDraw when the
	// context has an on-screen swapchain, so that Submit ties
	// the draw submission to the image acquisition/presentation
	// semaphores instead of relying on the fence alone.
	waitSem   C.VkSemaphore
	waitStage C.VkPipelineStageFlags
	signalSem C.VkSemaphore
}

// NewCmdBuffer implements gpu.Context.
func (c *Context) NewCmdBuffer() (gpu.CmdBuffer, error) {
	poolInfo := C.VkCommandPoolCreateInfo{
		sType:            C.VK_STRUCTURE_TYPE_COMMAND_POOL_CREATE_INFO,
		flags:            C.VK_COMMAND_POOL_CREATE_RESET_COMMAND_BUFFER_BIT,
		queueFamilyIndex: c.qfam,
	}
	var pool C.VkCommandPool
	if err := checkResult(C.vkCreateCommandPool(c.dev, &poolInfo, nil, &pool)); err != nil {
		return nil, err
	}
	cbInfo := C.VkCommandBufferAllocateInfo{
		sType: C.VK_STRUCTURE_TYPE_COMMAND_BUFFER_ALLOCATE_INFO,
		commandPool: pool, level: C.VK_COMMAND_BUFFER_LEVEL_PRIMARY, commandBufferCount: 1,
	}
	var cb C.VkCommandBuffer
	if err := checkResult(C.vkAllocateCommandBuffers(c.dev, &cbInfo, &cb)); err != nil {
		C.vkDestroyCommandPool(c.dev, pool, nil)
		return nil, err
	}
	fenceInfo := C.VkFenceCreateInfo{sType: C.VK_STRUCTURE_TYPE_FENCE_CREATE_INFO}
	var fence C.VkFence
	if err := checkResult(C.vkCreateFence(c.dev, &fenceInfo, nil, &fence)); err != nil {
		C.vkDestroyCommandPool(c.dev, pool, nil)
		return nil, err
	}
	return &CmdBuffer{ctx: c, pool: pool, cb: cb, fence: fence}, nil
}

// Begin implements gpu.CmdBuffer.
func (cb *CmdBuffer) Begin() error {
	info := C.VkCommandBufferBeginInfo{
		sType: C.VK_STRUCTURE_TYPE_COMMAND_BUFFER_BEGIN_INFO,
		flags: C.VK_COMMAND_BUFFER_USAGE_ONE_TIME_SUBMIT_BIT,
	}
	return checkResult(C.vkBeginCommandBuffer(cb.cb, &info))
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

// Submit implements gpu.CmdBuffer.
func (cb *CmdBuffer) Submit() error {
	if err := checkResult(C.vkEndCommandBuffer(cb.cb)); err != nil {
		return err
	}
	info := C.VkSubmitInfo{
		sType: C.VK_STRUCTURE_TYPE_SUBMIT_INFO,
		commandBufferCount: 1, pCommandBuffers: &cb.cb,
	}
	if cb.waitSem != nil {
		info.waitSemaphoreCount = 1
		info.pWaitSemaphores = &cb.waitSem
		info.pWaitDstStageMask = &cb.waitStage
	}
	if cb.signalSem != nil {
		info.signalSemaphoreCount = 1
		info.pSignalSemaphores = &cb.signalSem
	}
	c := cb.ctx
	c.qmus[0].Lock()
	err := checkResult(C.vkQueueSubmit(c.ques[0], 1, &info, cb.fence))
	c.qmus[0].Unlock()
	if err != nil {
		return err
	}
	cb.pending = true
	c.pending = append(c.pending, cb)
	return nil
}

// Wait implements gpu.CmdBuffer.
func (cb *CmdBuffer) Wait() {
	if cb.pending {
		C.vkWaitForFences(cb.ctx.dev, 1, &cb.fence, C.VK_TRUE, ^C.uint64_t(0))
		C.vkResetFences(cb.ctx.dev, 1, &cb.fence)
		C.vkResetCommandBuffer(cb.cb, 0)
		cb.pending = false
		cb.ctx.removePending(cb)
	}
	for _, r := range cb.refs {
		r.(interface{ unref() }).unref()
	}
	cb.refs = cb.refs[:0]
	cb.buffers = cb.buffers[:0]
}

// Destroy implements gpu.CmdBuffer.
func (cb *CmdBuffer) Destroy() {
	if cb.fence != nil {
		C.vkDestroyFence(cb.ctx.dev, cb.fence, nil)
	}
	if cb.pool != nil {
		C.vkDestroyCommandPool(cb.ctx.dev, cb.pool, nil)
	}
	*cb = CmdBuffer{}
}

// removePending drops cb from the context's pending list.
func (c *Context) removePending(cb *CmdBuffer) {
	for i, p := range c.pending {
		if p == cb {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

// ExecuteTransient implements gpu.TransientCmdBuffer.
func (c *Context) ExecuteTransient(fn func(cb gpu.CmdBuffer)) error {
	tcb, err := c.NewCmdBuffer()
	if err != nil {
		return err
	}
	if err := tcb.Begin(); err != nil {
		tcb.Destroy()
		return err
	}
	fn(tcb)
	if err := tcb.Submit(); err != nil {
		tcb.Destroy()
		return err
	}
	tcb.Wait()
	tcb.Destroy()
	return nil
}

// BeginUpdate implements gpu.Context.
func (c *Context) BeginUpdate() (gpu.CmdBuffer, error) {
	cb, err := c.NewCmdBuffer()
	if err != nil {
		return nil, err
	}
	return cb, cb.Begin()
}

// EndUpdate implements gpu.Context.
func (c *Context) EndUpdate(cb gpu.CmdBuffer) error { return cb.Submit() }

// BeginDraw implements gpu.Context. For an on-screen context,
// this also acquires the next swapchain image and ties the
// command buffer's submission to its acquire/present
// semaphores, so that GetDefaultRendertarget (called after
// BeginDraw, per spec §4.1) has a backbuffer to wrap.
func (c *Context) BeginDraw(t float64) (gpu.CmdBuffer, error) {
	cb, err := c.NewCmdBuffer()
	if err != nil {
		return nil, err
	}
	if c.sc != nil {
		_, wait, err := c.sc.acquire()
		if err != nil {
			cb.Destroy()
			return nil, err
		}
		vcb := cb.(*CmdBuffer)
		vcb.waitSem = wait
		vcb.waitStage = C.VK_PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT
		vcb.signalSem = c.sc.curSem
	}
	return cb, cb.Begin()
}

// QueryDrawTime implements gpu.Context. Timestamp queries are
// not wired up in this backend yet.
func (c *Context) QueryDrawTime() (int64, error) {
	return 0, gpu.ErrUnsupported
}

// EndDraw implements gpu.Context. For an on-screen context, this
// presents the image acquired by BeginDraw; the caller must have
// submitted the draw command buffer first so that the semaphore
// it signals is available for the present call to wait on.
func (c *Context) EndDraw(t float64) error {
	if c.sc != nil {
		return c.sc.present()
	}
	return nil
}

// BeginRenderPass implements gpu.Context, issuing
// vkCmdBeginRenderingKHR against the attachments described by
// rt (spec §4.10): there is no VkFramebuffer to bind, since the
// backend requires VK_KHR_dynamic_rendering.
func (c *Context) BeginRenderPass(cb gpu.CmdBuffer, rt gpu.Rendertarget) error {
	vcb := cb.(*CmdBuffer)
	r := rt.(*Rendertarget)
	c.curRT = r
	params := r.Params()

	colors := make([]C.VkRenderingAttachmentInfoKHR, len(params.Colors))
	for i, a := range params.Colors {
		tx := a.Texture.(*Texture)
		colors[i] = C.VkRenderingAttachmentInfoKHR{
			sType: C.VK_STRUCTURE_TYPE_RENDERING_ATTACHMENT_INFO_KHR,
			imageView: tx.view, imageLayout: C.VK_IMAGE_LAYOUT_GENERAL,
			loadOp: convLoadOp(a.Load), storeOp: convStoreOp(a.Store),
		}
		colors[i].clearValue = clearColor(a.Clear)
		if a.ResolveTarget != nil {
			rtx := a.ResolveTarget.(*Texture)
			colors[i].resolveMode = C.VK_RESOLVE_MODE_AVERAGE_BIT
			colors[i].resolveImageView = rtx.view
			colors[i].resolveImageLayout = C.VK_IMAGE_LAYOUT_GENERAL
		}
	}

	info := C.VkRenderingInfoKHR{
		sType: C.VK_STRUCTURE_TYPE_RENDERING_INFO_KHR,
		renderArea: C.VkRect2D{extent: C.VkExtent2D{width: C.uint32_t(r.w), height: C.uint32_t(r.h)}},
		layerCount: 1,
	}
	if len(colors) > 0 {
		info.colorAttachmentCount = C.uint32_t(len(colors))
		info.pColorAttachments = &colors[0]
	}
	var depth, stencil C.VkRenderingAttachmentInfoKHR
	if params.DepthStencil != nil {
		a := *params.DepthStencil
		tx := a.Texture.(*Texture)
		depth = C.VkRenderingAttachmentInfoKHR{
			sType: C.VK_STRUCTURE_TYPE_RENDERING_ATTACHMENT_INFO_KHR,
			imageView: tx.view, imageLayout: C.VK_IMAGE_LAYOUT_GENERAL,
			loadOp: convLoadOp(a.Load), storeOp: convStoreOp(a.Store),
			clearValue: clearDepth(a.Clear),
		}
		if a.ResolveTarget != nil {
			rtx := a.ResolveTarget.(*Texture)
			depth.resolveMode = C.VK_RESOLVE_MODE_SAMPLE_ZERO_BIT
			depth.resolveImageView = rtx.view
			depth.resolveImageLayout = C.VK_IMAGE_LAYOUT_GENERAL
		}
		info.pDepthAttachment = &depth
		if tx.params.Format.IsStencil() {
			stencil = depth
			info.pStencilAttachment = &stencil
		}
	}

	C.vkCmdBeginRenderingKHR(vcb.cb, &info)
	return nil
}

func clearColor(v gpu.ClearValue) (cv C.VkClearValue) {
	fvalue := [4]C.float{C.float(v.Color[0]), C.float(v.Color[1]), C.float(v.Color[2]), C.float(v.Color[3])}
	copy(cv[:], unsafe.Slice((*byte)(unsafe.Pointer(&fvalue[0])), unsafe.Sizeof(fvalue)))
	return
}

func clearDepth(v gpu.ClearValue) (cv C.VkClearValue) {
	dsv := C.VkClearDepthStencilValue{depth: C.float(v.Depth), stencil: C.uint32_t(v.Stencil)}
	copy(cv[:], unsafe.Slice((*byte)(unsafe.Pointer(&dsv)), unsafe.Sizeof(dsv)))
	return
}

// EndRenderPass implements gpu.Context.
func (c *Context) EndRenderPass(cb gpu.CmdBuffer) {
	C.vkCmdEndRenderingKHR(cb.(*CmdBuffer).cb)
	c.curRT = nil
}

// SetViewport implements gpu.Context.
func (c *Context) SetViewport(cb gpu.CmdBuffer, vp []gpu.Viewport) {
	if len(vp) == 0 {
		return
	}
	v := vp[0]
	vk := C.VkViewport{
		x: C.float(v.X), y: C.float(v.Y + v.Height), width: C.float(v.Width), height: C.float(-v.Height),
		minDepth: C.float(v.MinDepth), maxDepth: C.float(v.MaxDepth),
	}
	C.vkCmdSetViewport(cb.(*CmdBuffer).cb, 0, 1, &vk)
}

// SetScissor implements gpu.Context.
func (c *Context) SetScissor(cb gpu.CmdBuffer, s []gpu.Scissor) {
	vcb := cb.(*CmdBuffer)
	if len(s) == 0 {
		r := C.VkRect2D{extent: C.VkExtent2D{width: 1 << 30, height: 1 << 30}}
		C.vkCmdSetScissor(vcb.cb, 0, 1, &r)
		return
	}
	v := s[0]
	r := C.VkRect2D{
		offset: C.VkOffset2D{x: C.int32_t(v.X), y: C.int32_t(v.Y)},
		extent: C.VkExtent2D{width: C.uint32_t(v.Width), height: C.uint32_t(v.Height)},
	}
	C.vkCmdSetScissor(vcb.cb, 0, 1, &r)
}

// SetPipeline implements gpu.Context.
func (c *Context) SetPipeline(cb gpu.CmdBuffer, p gpu.Pipeline) {
	pl := p.(*Pipeline)
	c.curPipeline = pl
	bind := C.VkPipelineBindPoint(C.VK_PIPELINE_BIND_POINT_GRAPHICS)
	if pl.compute {
		bind = C.VK_PIPELINE_BIND_POINT_COMPUTE
	}
	C.vkCmdBindPipeline(cb.(*CmdBuffer).cb, bind, pl.pl)
}

// SetBindGroup implements gpu.Context. dynOffsets are passed, in
// order, as the dynamic offsets of the set's *_DYNAMIC
// descriptors (see descType).
func (c *Context) SetBindGroup(cb gpu.CmdBuffer, bg gpu.BindGroup, dynOffsets []int64) {
	g := bg.(*BindGroup)
	bind := C.VkPipelineBindPoint(C.VK_PIPELINE_BIND_POINT_GRAPHICS)
	var layout C.VkPipelineLayout
	if c.curPipeline != nil {
		layout = c.curPipeline.layout
		if c.curPipeline.compute {
			bind = C.VK_PIPELINE_BIND_POINT_COMPUTE
		}
	}
	offs := make([]C.uint32_t, len(dynOffsets))
	for i, o := range dynOffsets {
		offs[i] = C.uint32_t(o)
	}
	var pOffs *C.uint32_t
	if len(offs) > 0 {
		pOffs = &offs[0]
	}
	C.vkCmdBindDescriptorSets(cb.(*CmdBuffer).cb, bind, layout, 0, 1, &g.set, C.uint32_t(len(offs)), pOffs)
}

// SetVertexBuffer implements gpu.Context.
func (c *Context) SetVertexBuffer(cb gpu.CmdBuffer, index int, b gpu.Buffer, offset int64) {
	buf := b.(*Buffer).buf
	off := C.VkDeviceSize(offset)
	C.vkCmdBindVertexBuffers(cb.(*CmdBuffer).cb, C.uint32_t(index), 1, &buf, &off)
}

// SetIndexBuffer implements gpu.Context.
func (c *Context) SetIndexBuffer(cb gpu.CmdBuffer, b gpu.Buffer, format gpu.IndexFmt, offset int64) {
	buf := b.(*Buffer)
	c.idxBuf, c.idxFmt, c.idxOffset = buf, format, offset
	C.vkCmdBindIndexBuffer(cb.(*CmdBuffer).cb, buf.buf, C.VkDeviceSize(offset), convIndexFmt(format))
}

// Draw implements gpu.Context.
func (c *Context) Draw(cb gpu.CmdBuffer, vertCount, instCount, firstVert int) {
	C.vkCmdDraw(cb.(*CmdBuffer).cb, C.uint32_t(vertCount), C.uint32_t(max(instCount, 1)), C.uint32_t(firstVert), 0)
}

// DrawIndexed implements gpu.Context.
func (c *Context) DrawIndexed(cb gpu.CmdBuffer, idxCount, instCount int) {
	C.vkCmdDrawIndexed(cb.(*CmdBuffer).cb, C.uint32_t(idxCount), C.uint32_t(max(instCount, 1)), 0, 0, 0)
}

// Dispatch implements gpu.Context.
func (c *Context) Dispatch(cb gpu.CmdBuffer, groupsX, groupsY, groupsZ int) {
	C.vkCmdDispatch(cb.(*CmdBuffer).cb, C.uint32_t(groupsX), C.uint32_t(groupsY), C.uint32_t(groupsZ))
}
