// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gpu

// DescType is the type of a bindgroup layout entry.
type DescType int

// Descriptor types (spec §3 "BindGroupLayout").
const (
	DescUniformBuffer DescType = iota
	DescUniformBufferDynamic
	DescStorageBuffer
	DescStorageBufferDynamic
	DescSampledTexture2D
	DescSampledTexture2DArray
	DescSampledTexture3D
	DescSampledTextureCube
	DescStorageImage2D
	DescStorageImage2DArray
	DescStorageImage3D
	DescStorageImageCube
)

// IsBuffer reports whether d is a buffer-backed entry.
func (d DescType) IsBuffer() bool {
	switch d {
	case DescUniformBuffer, DescUniformBufferDynamic, DescStorageBuffer, DescStorageBufferDynamic:
		return true
	}
	return false
}

// StageMask is a bitmask of programmable stages a descriptor
// is visible to.
type StageMask int

// Stages.
const (
	StageVertex StageMask = 1 << iota
	StageFragment
	StageCompute
)

// BindGroupLayoutEntry describes one binding slot.
type BindGroupLayoutEntry struct {
	Binding int
	Type    DescType
	Stages  StageMask

	// ImmutableSampler, when non-nil, is attached to this
	// binding at layout-creation time and ref-counted into the
	// layout (spec §4.5; used by Y'CbCr conversions originating
	// from hardware-mapped video frames, a collaborator outside
	// this module's scope).
	ImmutableSampler Sampler
}

// BindGroupLayout is an ordered list of entries describing the
// shader resources a BindGroup of this layout can bind. Layouts
// own a descriptor-pool chain (spec §4.5): allocation starts at
// 32 sets, sized per-type at 32 descriptors per entry,
// and doubles on pool exhaustion.
type BindGroupLayout interface {
	Destroyer
	RefCounted

	Entries() []BindGroupLayoutEntry
}

// BindGroupLayoutChainStart is the initial max_sets value of a
// BindGroupLayout's descriptor pool chain (spec §4.5).
const BindGroupLayoutChainStart = 32

// BufferBinding is a bound buffer range.
type BufferBinding struct {
	Buffer Buffer
	Offset int64
	Size   int64
}

// TextureBinding is a bound texture. A nil Texture resolves to
// the context's dummy texture when the descriptor set is
// written (spec §4.5, §4.9).
type TextureBinding struct {
	Texture Texture
}

// BindGroup is an instance of a BindGroupLayout bound to
// concrete resources.
type BindGroup interface {
	Destroyer
	RefCounted

	Layout() BindGroupLayout

	// UpdateBuffer replaces the buffer binding at the entry
	// with the given binding index, marking the group dirty.
	UpdateBuffer(binding int, b BufferBinding)

	// UpdateTexture replaces the texture binding at the entry
	// with the given binding index, marking the group dirty.
	UpdateTexture(binding int, t TextureBinding)
}

// Sampler describes image sampler state.
type Sampler interface {
	Destroyer
	RefCounted
}

// Sampling describes the parameters used to create a Sampler.
type Sampling struct {
	Min, Mag Filter
	Mip      MipFilter
	WrapU, WrapV, WrapW WrapMode
	MaxAniso int
	Compare  CmpFunc
	MinLOD, MaxLOD float32
}
