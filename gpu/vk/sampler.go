// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

// #include <proc.h>
import "C"

import (
	"github.com/nopeforge/nope-gpu/gpu"
)

// Sampler implements gpu.Sampler.
type Sampler struct {
	gpu.Refcount
	ctx  *Context
	splr C.VkSampler
}

// NewSampler implements gpu.Context.
func (c *Context) NewSampler(s gpu.Sampling) (gpu.Sampler, error) {
	info := C.VkSamplerCreateInfo{
		sType:        C.VK_STRUCTURE_TYPE_SAMPLER_CREATE_INFO,
		magFilter:    convFilter(s.Mag),
		minFilter:    convFilter(s.Min),
		mipmapMode:   convMipFilter(s.Mip),
		addressModeU: convWrap(s.WrapU),
		addressModeV: convWrap(s.WrapV),
		addressModeW: convWrap(s.WrapW),
		minLod:       C.float(s.MinLOD),
		maxLod:       C.float(s.MaxLOD),
		borderColor:  C.VK_BORDER_COLOR_FLOAT_OPAQUE_BLACK,
	}
	if s.Compare != gpu.CmpNever {
		info.compareEnable = C.VK_TRUE
		info.compareOp = convCmpFunc(s.Compare)
	}
	if s.MaxAniso > 1 {
		info.anisotropyEnable = C.VK_TRUE
		info.maxAnisotropy = C.float(s.MaxAniso)
	}
	var splr C.VkSampler
	if err := checkResult(C.vkCreateSampler(c.dev, &info, nil, &splr)); err != nil {
		return nil, err
	}
	return &Sampler{ctx: c, splr: splr}, nil
}

// Destroy implements gpu.Sampler.
func (s *Sampler) Destroy() {
	if s.splr != nil {
		C.vkDestroySampler(s.ctx.dev, s.splr, nil)
	}
	*s = Sampler{}
}
