// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gl

import (
	"fmt"

	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nopeforge/nope-gpu/gpu"
)

// initOffscreen builds the default color and depth/stencil
// attachments backing an offscreen context, plus a multisample
// color attachment when cfg.Samples > 1, mirroring the
// swapchain-less path of spec
// §4.1/§4.10.
func (c *Context) initOffscreen() error {
	colorParams := gpu.TextureParams{
		Type: gpu.Texture2D, Format: gpu.RGBA8un,
		Width: int(c.cfg.Width), Height: int(c.cfg.Height), Layers: 1, Depth: 1,
		Usage: gpu.TexUsageColorAttachment | gpu.TexUsageTransferSrc,
	}
	colorTx, err := c.NewTexture(colorParams)
	if err != nil {
		return fmt.Errorf("gl: offscreen color target: %w", err)
	}
	c.defaultColor = colorTx.(*Texture)

	depthParams := gpu.TextureParams{
		Type: gpu.Texture2D, Format: c.GetPreferredDepthStencilFormat(),
		Width: int(c.cfg.Width), Height: int(c.cfg.Height), Layers: 1, Depth: 1,
		Usage: gpu.TexUsageDepthStencilAttachment,
	}
	depthTx, err := c.NewTexture(depthParams)
	if err != nil {
		return fmt.Errorf("gl: offscreen depth target: %w", err)
	}
	c.defaultDepth = depthTx.(*Texture)

	if c.cfg.Samples > 1 {
		msParams := colorParams
		msParams.Samples = int(c.cfg.Samples)
		msParams.Usage = gpu.TexUsageColorAttachment
		msTx, err := c.NewTexture(msParams)
		if err != nil {
			return fmt.Errorf("gl: offscreen MSAA target: %w", err)
		}
		c.defaultMSColor = msTx.(*Texture)
	}
	return nil
}

// Resize implements gpu.Context. Offscreen contexts have no
// swapchain, so resizing just tears down and rebuilds the
// default attachments at the new dimensions.
func (c *Context) Resize(width, height int32) error {
	if !c.cfg.Offscreen {
		c.pendingResize = true
		return nil
	}
	c.cfg.Width, c.cfg.Height = width, height
	if c.defaultColor != nil {
		c.defaultColor.Destroy()
	}
	if c.defaultDepth != nil {
		c.defaultDepth.Destroy()
	}
	if c.defaultMSColor != nil {
		c.defaultMSColor.Destroy()
	}
	return c.initOffscreen()
}

// SetCaptureBuffer implements gpu.Context.
func (c *Context) SetCaptureBuffer(buf []byte) error {
	if !c.cfg.Offscreen {
		return fmt.Errorf("gl: capture buffer requires an offscreen context: %w", gpu.ErrUsage)
	}
	c.captureBuf = buf
	return nil
}

// GetDefaultRendertarget implements gpu.Context. A fresh
// Rendertarget wrapping the default FBO (0, for on-screen
// contexts) is returned each call rather than cached, since the
// only state load carries is the LoadOp.
func (c *Context) GetDefaultRendertarget(load gpu.LoadOp) (gpu.Rendertarget, error) {
	if c.cfg.Offscreen {
		params := gpu.RendertargetParams{
			Colors: []gpu.AttachmentParams{{Texture: c.defaultColor, Load: load, Store: gpu.StoreStore}},
		}
		if c.defaultDepth != nil {
			params.DepthStencil = &gpu.AttachmentParams{Texture: c.defaultDepth, Load: load, Store: gpu.StoreDontCare}
		}
		return c.NewRendertarget(params)
	}
	return &defaultRendertarget{c: c, load: load}, nil
}

// defaultRendertarget wraps the window-system-provided
// framebuffer (name 0), which NewRendertarget cannot build
// because it owns no textures of its own.
type defaultRendertarget struct {
	gpu.Refcount
	c    *Context
	load gpu.LoadOp
}

func (r *defaultRendertarget) Layout() gpu.RendertargetLayout {
	return gpu.RendertargetLayout{Samples: int(r.c.cfg.Samples), Colors: []gpu.ColorLayout{{Format: gpu.RGBA8un}}}
}
func (r *defaultRendertarget) Params() gpu.RendertargetParams { return gpu.RendertargetParams{} }
func (r *defaultRendertarget) Width() int                     { return int(r.c.cfg.Width) }
func (r *defaultRendertarget) Height() int                    { return int(r.c.cfg.Height) }
func (r *defaultRendertarget) Destroy()                       {}

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

// BeginDraw implements gpu.Context.
func (c *Context) BeginDraw(t float64) (gpu.CmdBuffer, error) {
	if c.hud && !c.queryOpen {
		glcore.QueryCounter(c.queryBeg, glcore.TIMESTAMP)
		c.queryOpen = true
	}
	if c.pendingResize {
		c.pendingResize = false
	}
	cb, err := c.NewCmdBuffer()
	if err != nil {
		return nil, err
	}
	return cb, cb.Begin()
}

// QueryDrawTime implements gpu.Context, returning the elapsed
// GPU nanoseconds of the previous frame's draw phase. It returns
// an error only when HUD is disabled; reading QUERY_RESULT
// blocks until the query results are available.
func (c *Context) QueryDrawTime() (int64, error) {
	if !c.hud {
		return 0, fmt.Errorf("gl: HUD timestamps disabled: %w", gpu.ErrUnsupported)
	}
	var begin, end uint64
	glcore.GetQueryObjectui64v(c.queryBeg, glcore.QUERY_RESULT, &begin)
	glcore.GetQueryObjectui64v(c.queryEnd, glcore.QUERY_RESULT, &end)
	return int64(end - begin), nil
}

// EndDraw implements gpu.Context.
func (c *Context) EndDraw(t float64) error {
	if c.hud && c.queryOpen {
		glcore.QueryCounter(c.queryEnd, glcore.TIMESTAMP)
		c.queryOpen = false
	}
	return nil
}

// WaitIdle implements gpu.Context.
func (c *Context) WaitIdle() {
	glcore.Finish()
	for _, cb := range append([]*CmdBuffer(nil), c.pending...) {
		cb.Wait()
	}
}

// BeginRenderPass implements gpu.Context.
func (c *Context) BeginRenderPass(cb gpu.CmdBuffer, rt gpu.Rendertarget) error {
	var fbo uint32
	var w, h int
	switch v := rt.(type) {
	case *Rendertarget:
		fbo, w, h = v.fbo, v.w, v.h
	case *defaultRendertarget:
		fbo, w, h = 0, v.Width(), v.Height()
	default:
		return fmt.Errorf("gl: unrecognised rendertarget type: %w", gpu.ErrUsage)
	}
	glcore.BindFramebuffer(glcore.FRAMEBUFFER, fbo)
	glcore.Viewport(0, 0, int32(w), int32(h))

	if dflt, ok := rt.(*defaultRendertarget); ok {
		if dflt.load == gpu.LoadClear {
			glcore.ClearBufferfv(glcore.COLOR, 0, &c.cfg.ClearColor[0])
		}
		c.curRT = rt
		return nil
	}

	params := rt.Params()
	for i, a := range params.Colors {
		if a.Load == gpu.LoadClear {
			glcore.ClearBufferfv(glcore.COLOR, int32(i), &a.Clear.Color[0])
		}
	}
	if params.DepthStencil != nil && params.DepthStencil.Load == gpu.LoadClear {
		glcore.ClearBufferfi(glcore.DEPTH_STENCIL, 0, params.DepthStencil.Clear.Depth, int32(params.DepthStencil.Clear.Stencil))
	}
	c.curRT = rt
	return nil
}

// EndRenderPass implements gpu.Context. Multisample resolve,
// when an attachment declares one, is performed with a blit
// from the multisample framebuffer into a temporary
// single-sample framebuffer wrapping the resolve texture (spec
// §4.10's MSAA/depth-resolve step).
func (c *Context) EndRenderPass(cb gpu.CmdBuffer) {
	if rt, ok := c.curRT.(*Rendertarget); ok {
		c.resolve(rt)
	}
	glcore.BindFramebuffer(glcore.FRAMEBUFFER, 0)
	c.curRT = nil
}

func (c *Context) resolve(rt *Rendertarget) {
	params := rt.Params()
	for i, a := range params.Colors {
		if a.ResolveTarget == nil {
			continue
		}
		c.blitResolve(rt.fbo, glcore.COLOR_ATTACHMENT0+uint32(i), a.ResolveTarget.(*Texture), a.ResolveLayer, glcore.COLOR_BUFFER_BIT)
	}
	if params.DepthStencil != nil && params.DepthStencil.ResolveTarget != nil {
		tx := params.DepthStencil.Texture.(*Texture)
		mask := uint32(glcore.DEPTH_BUFFER_BIT)
		if tx.params.Format.IsStencil() {
			mask |= glcore.STENCIL_BUFFER_BIT
		}
		c.blitResolve(rt.fbo, glcore.DEPTH_ATTACHMENT, params.DepthStencil.ResolveTarget.(*Texture), params.DepthStencil.ResolveLayer, mask)
	}
}

func (c *Context) blitResolve(srcFBO uint32, srcAttach uint32, dst *Texture, layer int, mask uint32) {
	var dstFBO uint32
	glcore.GenFramebuffers(1, &dstFBO)
	glcore.BindFramebuffer(glcore.DRAW_FRAMEBUFFER, dstFBO)
	attachGLTextureLayer(srcAttach, dst, layer)
	if srcAttach != glcore.DEPTH_ATTACHMENT && srcAttach != glcore.DEPTH_STENCIL_ATTACHMENT {
		glcore.DrawBuffer(srcAttach)
	}
	glcore.BindFramebuffer(glcore.READ_FRAMEBUFFER, srcFBO)
	glcore.ReadBuffer(srcAttach)
	glcore.BlitFramebuffer(0, 0, int32(dst.params.Width), int32(dst.params.Height),
		0, 0, int32(dst.params.Width), int32(dst.params.Height), mask, glcore.NEAREST)
	glcore.BindFramebuffer(glcore.DRAW_FRAMEBUFFER, 0)
	glcore.DeleteFramebuffers(1, &dstFBO)
}

// SetViewport implements gpu.Context.
func (c *Context) SetViewport(cb gpu.CmdBuffer, vp []gpu.Viewport) {
	if len(vp) == 0 {
		return
	}
	v := vp[0]
	glcore.Viewport(int32(v.X), int32(v.Y), int32(v.Width), int32(v.Height))
	glcore.DepthRangef(v.MinDepth, v.MaxDepth)
}

// SetScissor implements gpu.Context.
func (c *Context) SetScissor(cb gpu.CmdBuffer, s []gpu.Scissor) {
	if len(s) == 0 {
		glcore.Disable(glcore.SCISSOR_TEST)
		return
	}
	glcore.Enable(glcore.SCISSOR_TEST)
	r := s[0]
	glcore.Scissor(r.X, r.Y, r.Width, r.Height)
}

// SetPipeline implements gpu.Context.
func (c *Context) SetPipeline(cb gpu.CmdBuffer, p gpu.Pipeline) {
	pl := p.(*Pipeline)
	c.curPipeline = pl
	glcore.UseProgram(pl.program.name)
	if !pl.compute {
		glcore.BindVertexArray(pl.vao)
		pl.applyState()
	}
}

// SetBindGroup implements gpu.Context. dynOffsets is unused:
// the GL backend binds the buffer ranges recorded by
// BindGroup.UpdateBuffer as they are, adds no dynamic offset to
// them, and has no separate dynamic-offset descriptor type to
// reinterpret at bind time.
func (c *Context) SetBindGroup(cb gpu.CmdBuffer, bg gpu.BindGroup, dynOffsets []int64) {
	bg.(*BindGroup).bind()
}

// SetVertexBuffer implements gpu.Context.
func (c *Context) SetVertexBuffer(cb gpu.CmdBuffer, index int, b gpu.Buffer, offset int64) {
	stride := int32(0)
	if c.curPipeline != nil && index < len(c.curPipeline.vertex) {
		stride = int32(c.curPipeline.vertex[index].Stride)
	}
	glcore.BindVertexBuffer(uint32(index), b.(*Buffer).name, int(offset), stride)
}

// SetIndexBuffer implements gpu.Context.
func (c *Context) SetIndexBuffer(cb gpu.CmdBuffer, b gpu.Buffer, format gpu.IndexFmt, offset int64) {
	buf := b.(*Buffer)
	c.idxBuf, c.idxFmt, c.idxOffset = buf, format, offset
	glcore.BindBuffer(glcore.ELEMENT_ARRAY_BUFFER, buf.name)
}

// Draw implements gpu.Context.
func (c *Context) Draw(cb gpu.CmdBuffer, vertCount, instCount, firstVert int) {
	topo := glcore.TRIANGLES
	if c.curPipeline != nil {
		topo = int(c.curPipeline.topology)
	}
	if instCount <= 1 {
		glcore.DrawArrays(uint32(topo), int32(firstVert), int32(vertCount))
		return
	}
	glcore.DrawArraysInstanced(uint32(topo), int32(firstVert), int32(vertCount), int32(instCount))
}

// DrawIndexed implements gpu.Context.
func (c *Context) DrawIndexed(cb gpu.CmdBuffer, idxCount, instCount int) {
	topo := glcore.TRIANGLES
	if c.curPipeline != nil {
		topo = int(c.curPipeline.topology)
	}
	xtype := convIndexFmt(c.idxFmt)
	elemSize := 2
	if c.idxFmt == gpu.Index32 {
		elemSize = 4
	}
	offset := glcore.PtrOffset(int(c.idxOffset) * elemSize)
	if instCount <= 1 {
		glcore.DrawElements(uint32(topo), int32(idxCount), xtype, offset)
		return
	}
	glcore.DrawElementsInstanced(uint32(topo), int32(idxCount), xtype, offset, int32(instCount))
}

// Dispatch implements gpu.Context.
func (c *Context) Dispatch(cb gpu.CmdBuffer, groupsX, groupsY, groupsZ int) {
	glcore.DispatchCompute(uint32(groupsX), uint32(groupsY), uint32(groupsZ))
	glcore.MemoryBarrier(glcore.SHADER_IMAGE_ACCESS_BARRIER_BIT | glcore.SHADER_STORAGE_BARRIER_BIT)
}
