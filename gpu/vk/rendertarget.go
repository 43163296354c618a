// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

// #include <proc.h>
import "C"

import (
	"fmt"

	"github.com/nopeforge/nope-gpu/gpu"
)

// Rendertarget implements gpu.Rendertarget. Because this
// backend requires VK_KHR_dynamic_rendering (enabled
// unconditionally in setFeatures), there is no VkRenderPass or
// VkFramebuffer object to create here: a Rendertarget is just
// the validated, immutable attachment list, and
// Context.BeginRenderPass issues vkCmdBeginRenderingKHR
// directly against it. This collapses the compatible-renderpass
// cache of spec §4.4 the same way gpu/gl's FBO-only model does:
// two Rendertargets with an Equal RendertargetLayout are
// compatible by construction, with nothing further to cache.
type Rendertarget struct {
	gpu.Refcount

	ctx    *Context
	layout gpu.RendertargetLayout
	params gpu.RendertargetParams
	w, h   int
}

// NewRendertarget implements gpu.Context.
func (c *Context) NewRendertarget(params gpu.RendertargetParams) (gpu.Rendertarget, error) {
	if len(params.Colors) > gpu.MaxColorAttachments || len(params.Colors) > c.limits.MaxColorAttachments {
		return nil, fmt.Errorf("vk: too many color attachments: %w", gpu.ErrUsage)
	}
	rt := &Rendertarget{ctx: c, params: params}
	for _, a := range params.Colors {
		tx := a.Texture.(*Texture)
		rt.layout.Colors = append(rt.layout.Colors, gpu.ColorLayout{
			Format: tx.params.Format, Resolve: a.ResolveTarget != nil,
		})
		rt.w, rt.h = tx.params.Width, tx.params.Height
		rt.layout.Samples = tx.params.Samples
	}
	if params.DepthStencil != nil {
		tx := params.DepthStencil.Texture.(*Texture)
		rt.layout.DepthStencil = &gpu.DSLayout{
			Format: tx.params.Format, Resolve: params.DepthStencil.ResolveTarget != nil,
		}
		rt.w, rt.h = tx.params.Width, tx.params.Height
		if rt.layout.Samples == 0 {
			rt.layout.Samples = tx.params.Samples
		}
	}
	if rt.layout.Samples == 0 {
		rt.layout.Samples = 1
	}
	return rt, nil
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
func (r *Rendertarget) Destroy() { *r = Rendertarget{} }
