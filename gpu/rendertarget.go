// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gpu

// AttachmentParams describes one color or depth/stencil
// attachment of a Rendertarget.
type AttachmentParams struct {
	Texture Texture
	Layer   int

	// ResolveTarget and ResolveLayer are set when this
	// attachment is multisampled and must resolve into a
	// separate single-sample texture.
	ResolveTarget Texture
	ResolveLayer  int

	Load  LoadOp
	Store StoreOp
	Clear ClearValue
}

// ClearValue defines clear values for color or depth/stencil
// aspects of a render target.
type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

// RendertargetParams describes a Rendertarget's attachments.
type RendertargetParams struct {
	Colors       []AttachmentParams // up to MaxColorAttachments
	DepthStencil *AttachmentParams  // optional
}

// ColorLayout describes one color attachment's contribution
// to a RendertargetLayout.
type ColorLayout struct {
	Format  PixelFmt
	Resolve bool
}

// DSLayout describes the optional depth/stencil attachment's
// contribution to a RendertargetLayout.
type DSLayout struct {
	Format  PixelFmt
	Resolve bool
}

// RendertargetLayout is the immutable shape of a rendertarget
// that determines renderpass/pipeline compatibility (spec §3,
// §4.4, and the Compatible-renderpass law in spec §8): two
// rendertargets with an equal RendertargetLayout share a
// compatible renderpass, and pipelines built from one are
// usable with the other.
type RendertargetLayout struct {
	Samples  int
	Colors   []ColorLayout
	DepthStencil *DSLayout
}

// Equal reports whether l and o describe the same
// compatibility class.
func (l RendertargetLayout) Equal(o RendertargetLayout) bool {
	if l.Samples != o.Samples || len(l.Colors) != len(o.Colors) {
		return false
	}
	for i := range l.Colors {
		if l.Colors[i] != o.Colors[i] {
			return false
		}
	}
	switch {
	case l.DepthStencil == nil && o.DepthStencil == nil:
		return true
	case l.DepthStencil == nil || o.DepthStencil == nil:
		return false
	default:
		return *l.DepthStencil == *o.DepthStencil
	}
}

// Hash returns a value suitable for keying a compatible-
// renderpass cache (spec §4.4). Two layouts that are Equal
// always produce the same Hash; the converse need not hold,
// so cache lookups must still compare with Equal.
func (l RendertargetLayout) Hash() uint64 {
	h := uint64(1469598103934665603) // FNV offset basis
	mix := func(v uint64) {
		h ^= v
		h *= 1099511628211 // FNV prime
	}
	mix(uint64(l.Samples))
	mix(uint64(len(l.Colors)))
	for _, c := range l.Colors {
		mix(uint64(c.Format))
		if c.Resolve {
			mix(1)
		}
	}
	if l.DepthStencil != nil {
		mix(uint64(l.DepthStencil.Format) + 1)
		if l.DepthStencil.Resolve {
			mix(1)
		}
	}
	return h
}

// Rendertarget is an immutable collection of color and
// depth/stencil attachments bound to a renderpass/framebuffer.
type Rendertarget interface {
	Destroyer
	RefCounted

	Layout() RendertargetLayout
	Params() RendertargetParams
	Width() int
	Height() int
}
