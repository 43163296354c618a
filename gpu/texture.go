// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gpu

// TextureType is the type of a texture's dimensionality.
type TextureType int

// Texture types.
const (
	Texture2D TextureType = iota
	Texture2DArray
	Texture3D
	TextureCube
)

// TextureUsage is a mask of valid uses for a Texture.
type TextureUsage int

// Texture usage flags.
const (
	TexUsageTransferSrc TextureUsage = 1 << iota
	TexUsageTransferDst
	TexUsageSampled
	TexUsageStorage
	TexUsageColorAttachment
	TexUsageDepthStencilAttachment
	// TexUsageTransient marks an attachment that is never read
	// outside of the render pass that writes it (spec §4.10:
	// set only when a subtree has zero RTT/compute
	// interruptions). It must not be combined with
	// TexUsageTransferDst (spec §3 invariant).
	TexUsageTransient
)

// Filter is the type of a sampler's minification/magnification
// filter.
type Filter int

// Filters.
const (
	FilterNearest Filter = iota
	FilterLinear
)

// MipFilter is the type of a sampler's mip-level selection
// filter.
type MipFilter int

// Mip filters.
const (
	MipNone MipFilter = iota
	MipNearest
	MipLinear
)

// WrapMode is the type of a sampler's texture coordinate wrap
// mode.
type WrapMode int

// Wrap modes.
const (
	WrapRepeat WrapMode = iota
	WrapMirroredRepeat
	WrapClampToEdge
	WrapClampToBorder
)

// TextureParams describes the immutable parameters of a
// Texture (spec §3 "Texture").
type TextureParams struct {
	Type   TextureType
	Format PixelFmt

	Width, Height, Depth int
	// Layers is the number of array layers. It must be 6 if
	// Type is TextureCube, Depth if Type is Texture2DArray,
	// and 1 otherwise (spec §3 invariant).
	Layers int
	Samples int

	MinFilter, MagFilter Filter
	MipFilter            MipFilter
	WrapS, WrapT, WrapR  WrapMode

	Usage TextureUsage
}

// MipLevels returns the number of mip levels this texture
// requires, per spec §3: when MipFilter != MipNone, levels =
// floor(log2(max(w,h))) + 1; otherwise 1.
func (p TextureParams) MipLevels() int {
	if p.MipFilter == MipNone {
		return 1
	}
	m := p.Width
	if p.Height > m {
		m = p.Height
	}
	levels := 1
	for m > 1 {
		m >>= 1
		levels++
	}
	return levels
}

// Validate checks the invariants of spec §3 "Texture".
func (p TextureParams) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return wrapUsage("texture width and height must be > 0")
	}
	if p.Type == Texture3D && p.Depth <= 0 {
		return wrapUsage("3D texture requires depth > 0")
	}
	switch p.Type {
	case TextureCube:
		if p.Layers != 6 {
			return wrapUsage("cube texture requires exactly 6 layers")
		}
	case Texture2DArray:
		if p.Layers != p.Depth {
			return wrapUsage("2D array texture requires layers == depth")
		}
	default:
		if p.Layers != 1 {
			return wrapUsage("non-array texture requires exactly 1 layer")
		}
	}
	if p.Usage&TexUsageTransient != 0 && p.Usage&TexUsageTransferDst != 0 {
		return wrapUsage("transient attachment must not use TexUsageTransferDst")
	}
	return nil
}

// UploadParams describes a partial upload into a texture
// (spec §4.3 "upload_with_params").
type UploadParams struct {
	X, Y, Z              int
	Width, Height, Depth int
	BaseLayer, LayerCount int
	PixelsPerRow          int
}

// Texture is an image of type {2D, 2D-array, 3D, cube}.
type Texture interface {
	Destroyer
	RefCounted

	Params() TextureParams

	// Upload replaces the whole of mip level 0 with data, using
	// linesize as the row stride in bytes.
	Upload(data []byte, linesize int) error

	// UploadWithParams replaces a sub-region. Identical repeated
	// calls (same UploadParams tuple) reuse a cached staging
	// buffer; a changed tuple frees the previous one and
	// allocates anew (spec §4.3). gpu/vk instead stages every
	// upload through one staging pool shared by the context.
	UploadWithParams(data []byte, params UploadParams) error

	// GenerateMipmap walks levels 1..N-1, blitting each from
	// the previous level with linear filtering, per the
	// algorithm in spec §4.3. The texture must have been
	// created with TexUsageTransferSrc|TexUsageTransferDst.
	GenerateMipmap() error
}
