// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gl

import (
	"fmt"

	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nopeforge/nope-gpu/gpu"
)

// Rendertarget implements gpu.Rendertarget as a GL framebuffer
// object. GL has no separate "renderpass" object, so the
// compatible-renderpass cache of spec §4.4 collapses to
// comparing RendertargetLayout values directly: any FBO whose
// attachments match a layout is compatible with it.
type Rendertarget struct {
	gpu.Refcount

	ctx    *Context
	fbo    uint32
	layout gpu.RendertargetLayout
	params gpu.RendertargetParams
	w, h   int
}

// NewRendertarget implements gpu.Context.
func (c *Context) NewRendertarget(params gpu.RendertargetParams) (gpu.Rendertarget, error) {
	if len(params.Colors) > gpu.MaxColorAttachments || len(params.Colors) > c.limits.MaxColorAttachments {
		return nil, fmt.Errorf("gl: too many color attachments: %w", gpu.ErrUsage)
	}
	var fbo uint32
	glcore.GenFramebuffers(1, &fbo)
	glcore.BindFramebuffer(glcore.FRAMEBUFFER, fbo)

	rt := &Rendertarget{ctx: c, fbo: fbo, params: params}
	var drawBufs []uint32
	var w, h int

	for i, a := range params.Colors {
		tx := a.Texture.(*Texture)
		attach := glcore.COLOR_ATTACHMENT0 + uint32(i)
		attachGLTextureLayer(attach, tx, a.Layer)
		rt.layout.Colors = append(rt.layout.Colors, gpu.ColorLayout{
			Format: tx.params.Format, Resolve: a.ResolveTarget != nil,
		})
		drawBufs = append(drawBufs, attach)
		w, h = tx.params.Width, tx.params.Height
		rt.layout.Samples = tx.params.Samples
	}
	if params.DepthStencil != nil {
		tx := params.DepthStencil.Texture.(*Texture)
		attach := uint32(glcore.DEPTH_ATTACHMENT)
		if tx.params.Format.IsStencil() {
			attach = glcore.DEPTH_STENCIL_ATTACHMENT
		}
		attachGLTextureLayer(attach, tx, params.DepthStencil.Layer)
		rt.layout.DepthStencil = &gpu.DSLayout{
			Format: tx.params.Format, Resolve: params.DepthStencil.ResolveTarget != nil,
		}
		w, h = tx.params.Width, tx.params.Height
	}
	if len(drawBufs) > 0 {
		glcore.DrawBuffers(int32(len(drawBufs)), &drawBufs[0])
	} else {
		glcore.DrawBuffer(glcore.NONE)
	}
	status := glcore.CheckFramebufferStatus(glcore.FRAMEBUFFER)
	glcore.BindFramebuffer(glcore.FRAMEBUFFER, 0)
	if status != glcore.FRAMEBUFFER_COMPLETE {
		glcore.DeleteFramebuffers(1, &fbo)
		return nil, fmt.Errorf("gl: incomplete framebuffer (0x%x): %w", status, gpu.ErrUsage)
	}
	rt.w, rt.h = w, h
	return rt, nil
}

func attachGLTextureLayer(attach uint32, tx *Texture, layer int) {
	switch tx.params.Type {
	case gpu.Texture2DArray, gpu.TextureCube:
		glcore.FramebufferTextureLayer(glcore.FRAMEBUFFER, attach, tx.name, 0, int32(layer))
	default:
		glcore.FramebufferTexture2D(glcore.FRAMEBUFFER, attach, tx.target, tx.name, 0)
	}
}

// Layout implements gpu.Rendertarget.
func (r *Rendertarget) Layout() gpu.RendertargetLayout { return r.layout }

// Params implements gpu.Rendertarget.
func (r *Rendertarget) Params() gpu.RendertargetParams { return r.params }

// Width implements gpu.Rendertarget.
func (r *Rendertarget) Width() int { return r.w }

// Height implements gpu.Rendertarget.
func (r *Rendertarget) Height() int { return r.h }

// Destroy implements gpu.Rendertarget.
func (r *Rendertarget) Destroy() {
	if r.fbo != 0 {
		glcore.DeleteFramebuffers(1, &r.fbo)
	}
	*r = Rendertarget{}
}
