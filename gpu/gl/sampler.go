// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gl

import (
	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nopeforge/nope-gpu/gpu"
)

// Sampler implements gpu.Sampler as a GL sampler object, bound
// alongside (not combined with) the texture it samples.
type Sampler struct {
	gpu.Refcount
	name uint32
}

// NewSampler creates a sampler object from the given
// parameters. Unlike the resource factories on gpu.Context,
// samplers are created directly on the gl package since
// spec §4.5 only requires one at BindGroupLayout construction
// time (immutable samplers).
func NewSampler(s gpu.Sampling) *Sampler {
	var name uint32
	glcore.GenSamplers(1, &name)
	minF, magF := convFilter(s.Min, s.Mag, s.Mip)
	glcore.SamplerParameteri(name, glcore.TEXTURE_MIN_FILTER, minF)
	glcore.SamplerParameteri(name, glcore.TEXTURE_MAG_FILTER, magF)
	glcore.SamplerParameteri(name, glcore.TEXTURE_WRAP_S, convWrap(s.WrapU))
	glcore.SamplerParameteri(name, glcore.TEXTURE_WRAP_T, convWrap(s.WrapV))
	glcore.SamplerParameteri(name, glcore.TEXTURE_WRAP_R, convWrap(s.WrapW))
	glcore.SamplerParameterf(name, glcore.TEXTURE_MIN_LOD, s.MinLOD)
	glcore.SamplerParameterf(name, glcore.TEXTURE_MAX_LOD, s.MaxLOD)
	if s.MaxAniso > 1 {
		glcore.SamplerParameterf(name, glcore.TEXTURE_MAX_ANISOTROPY, float32(s.MaxAniso))
	}
	if s.Compare != gpu.CmpNever {
		glcore.SamplerParameteri(name, glcore.TEXTURE_COMPARE_MODE, glcore.COMPARE_REF_TO_TEXTURE)
		glcore.SamplerParameteri(name, glcore.TEXTURE_COMPARE_FUNC, int32(convCmpFunc(s.Compare)))
	}
	return &Sampler{name: name}
}

// Destroy implements gpu.Sampler.
func (s *Sampler) Destroy() {
	if s.name != 0 {
		glcore.DeleteSamplers(1, &s.name)
	}
	*s = Sampler{}
}
