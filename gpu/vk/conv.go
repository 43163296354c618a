// Copyright 2024 The nope-gpu Authors. All rights reserved.

package vk

// #include <proc.h>
import "C"

import "github.com/nopeforge/nope-gpu/gpu"

// convPixelFmt converts a gpu.PixelFmt to a VkFormat, following
// the same one-to-one mapping table convention as the OpenGL
// backend's convFormat.
func convPixelFmt(pf gpu.PixelFmt) C.VkFormat {
	switch pf {
	case gpu.R8un:
		return C.VK_FORMAT_R8_UNORM
	case gpu.R8n:
		return C.VK_FORMAT_R8_SNORM
	case gpu.RG8un:
		return C.VK_FORMAT_R8G8_UNORM
	case gpu.RG8n:
		return C.VK_FORMAT_R8G8_SNORM
	case gpu.RGBA8un:
		return C.VK_FORMAT_R8G8B8A8_UNORM
	case gpu.RGBA8n:
		return C.VK_FORMAT_R8G8B8A8_SNORM
	case gpu.RGBA8sRGB:
		return C.VK_FORMAT_R8G8B8A8_SRGB
	case gpu.R16un:
		return C.VK_FORMAT_R16_UNORM
	case gpu.R16ui:
		return C.VK_FORMAT_R16_UINT
	case gpu.R16sf:
		return C.VK_FORMAT_R16_SFLOAT
	case gpu.RG16ui:
		return C.VK_FORMAT_R16G16_UINT
	case gpu.RG16sf:
		return C.VK_FORMAT_R16G16_SFLOAT
	case gpu.RGB16ui:
		return C.VK_FORMAT_R16G16B16_UINT
	case gpu.RGB16sf:
		return C.VK_FORMAT_R16G16B16_SFLOAT
	case gpu.RGBA16ui:
		return C.VK_FORMAT_R16G16B16A16_UINT
	case gpu.RGBA16sf:
		return C.VK_FORMAT_R16G16B16A16_SFLOAT
	case gpu.R32ui:
		return C.VK_FORMAT_R32_UINT
	case gpu.R32sf:
		return C.VK_FORMAT_R32_SFLOAT
	case gpu.RG32ui:
		return C.VK_FORMAT_R32G32_UINT
	case gpu.RG32sf:
		return C.VK_FORMAT_R32G32_SFLOAT
	case gpu.RGB32ui:
		return C.VK_FORMAT_R32G32B32_UINT
	case gpu.RGB32sf:
		return C.VK_FORMAT_R32G32B32_SFLOAT
	case gpu.RGBA32ui:
		return C.VK_FORMAT_R32G32B32A32_UINT
	case gpu.RGBA32sf:
		return C.VK_FORMAT_R32G32B32A32_SFLOAT
	case gpu.D16un:
		return C.VK_FORMAT_D16_UNORM
	case gpu.D24un:
		return C.VK_FORMAT_X8_D24_UNORM_PACK32
	case gpu.D32sf:
		return C.VK_FORMAT_D32_SFLOAT
	case gpu.S8ui:
		return C.VK_FORMAT_S8_UINT
	case gpu.D24unS8ui:
		return C.VK_FORMAT_D24_UNORM_S8_UINT
	case gpu.D32sfS8ui:
		return C.VK_FORMAT_D32_SFLOAT_S8_UINT
	}
	return C.VK_FORMAT_UNDEFINED
}

// convSamples converts a sample count to a VkSampleCountFlagBits.
func convSamples(ns int) C.VkSampleCountFlagBits {
	switch ns {
	case 0, 1:
		return C.VK_SAMPLE_COUNT_1_BIT
	case 2:
		return C.VK_SAMPLE_COUNT_2_BIT
	case 4:
		return C.VK_SAMPLE_COUNT_4_BIT
	case 8:
		return C.VK_SAMPLE_COUNT_8_BIT
	case 16:
		return C.VK_SAMPLE_COUNT_16_BIT
	case 32:
		return C.VK_SAMPLE_COUNT_32_BIT
	case 64:
		return C.VK_SAMPLE_COUNT_64_BIT
	}
	return C.VK_SAMPLE_COUNT_1_BIT
}

// aspectOf returns the VkImageAspectFlags of a gpu.PixelFmt.
func aspectOf(pf gpu.PixelFmt) C.VkImageAspectFlags {
	switch {
	case pf.IsDepthStencil():
		return C.VK_IMAGE_ASPECT_DEPTH_BIT | C.VK_IMAGE_ASPECT_STENCIL_BIT
	case pf.IsDepth():
		return C.VK_IMAGE_ASPECT_DEPTH_BIT
	case pf.IsStencil():
		return C.VK_IMAGE_ASPECT_STENCIL_BIT
	}
	return C.VK_IMAGE_ASPECT_COLOR_BIT
}

func convTopology(t gpu.Topology) C.VkPrimitiveTopology {
	switch t {
	case gpu.TopologyPointList:
		return C.VK_PRIMITIVE_TOPOLOGY_POINT_LIST
	case gpu.TopologyLineList:
		return C.VK_PRIMITIVE_TOPOLOGY_LINE_LIST
	case gpu.TopologyLineStrip:
		return C.VK_PRIMITIVE_TOPOLOGY_LINE_STRIP
	case gpu.TopologyTriangleStrip:
		return C.VK_PRIMITIVE_TOPOLOGY_TRIANGLE_STRIP
	default:
		return C.VK_PRIMITIVE_TOPOLOGY_TRIANGLE_LIST
	}
}

func convCmpFunc(c gpu.CmpFunc) C.VkCompareOp {
	switch c {
	case gpu.CmpNever:
		return C.VK_COMPARE_OP_NEVER
	case gpu.CmpLess:
		return C.VK_COMPARE_OP_LESS
	case gpu.CmpEqual:
		return C.VK_COMPARE_OP_EQUAL
	case gpu.CmpLessEqual:
		return C.VK_COMPARE_OP_LESS_OR_EQUAL
	case gpu.CmpGreater:
		return C.VK_COMPARE_OP_GREATER
	case gpu.CmpNotEqual:
		return C.VK_COMPARE_OP_NOT_EQUAL
	case gpu.CmpGreaterEqual:
		return C.VK_COMPARE_OP_GREATER_OR_EQUAL
	default:
		return C.VK_COMPARE_OP_ALWAYS
	}
}

func convStencilOp(s gpu.StencilOp) C.VkStencilOp {
	switch s {
	case gpu.StencilZero:
		return C.VK_STENCIL_OP_ZERO
	case gpu.StencilReplace:
		return C.VK_STENCIL_OP_REPLACE
	case gpu.StencilIncClamp:
		return C.VK_STENCIL_OP_INCREMENT_AND_CLAMP
	case gpu.StencilDecClamp:
		return C.VK_STENCIL_OP_DECREMENT_AND_CLAMP
	case gpu.StencilInvert:
		return C.VK_STENCIL_OP_INVERT
	case gpu.StencilIncWrap:
		return C.VK_STENCIL_OP_INCREMENT_AND_WRAP
	case gpu.StencilDecWrap:
		return C.VK_STENCIL_OP_DECREMENT_AND_WRAP
	default:
		return C.VK_STENCIL_OP_KEEP
	}
}

func convBlendOp(b gpu.BlendOp) C.VkBlendOp {
	switch b {
	case gpu.BlendSubtract:
		return C.VK_BLEND_OP_SUBTRACT
	case gpu.BlendRevSubtract:
		return C.VK_BLEND_OP_REVERSE_SUBTRACT
	case gpu.BlendMin:
		return C.VK_BLEND_OP_MIN
	case gpu.BlendMax:
		return C.VK_BLEND_OP_MAX
	default:
		return C.VK_BLEND_OP_ADD
	}
}

func convBlendFactor(f gpu.BlendFactor) C.VkBlendFactor {
	switch f {
	case gpu.BlendOne:
		return C.VK_BLEND_FACTOR_ONE
	case gpu.BlendSrcColor:
		return C.VK_BLEND_FACTOR_SRC_COLOR
	case gpu.BlendInvSrcColor:
		return C.VK_BLEND_FACTOR_ONE_MINUS_SRC_COLOR
	case gpu.BlendSrcAlpha:
		return C.VK_BLEND_FACTOR_SRC_ALPHA
	case gpu.BlendInvSrcAlpha:
		return C.VK_BLEND_FACTOR_ONE_MINUS_SRC_ALPHA
	case gpu.BlendDstColor:
		return C.VK_BLEND_FACTOR_DST_COLOR
	case gpu.BlendInvDstColor:
		return C.VK_BLEND_FACTOR_ONE_MINUS_DST_COLOR
	case gpu.BlendDstAlpha:
		return C.VK_BLEND_FACTOR_DST_ALPHA
	case gpu.BlendInvDstAlpha:
		return C.VK_BLEND_FACTOR_ONE_MINUS_DST_ALPHA
	default:
		return C.VK_BLEND_FACTOR_ZERO
	}
}

func convCullMode(c gpu.CullMode) C.VkCullModeFlags {
	switch c {
	case gpu.CullFront:
		return C.VK_CULL_MODE_FRONT_BIT
	case gpu.CullBack:
		return C.VK_CULL_MODE_BACK_BIT
	default:
		return C.VK_CULL_MODE_NONE
	}
}

func convFrontFace(f gpu.FrontFace) C.VkFrontFace {
	if f == gpu.FrontCW {
		return C.VK_FRONT_FACE_CLOCKWISE
	}
	return C.VK_FRONT_FACE_COUNTER_CLOCKWISE
}

func convFilter(f gpu.Filter) C.VkFilter {
	if f == gpu.FilterLinear {
		return C.VK_FILTER_LINEAR
	}
	return C.VK_FILTER_NEAREST
}

func convMipFilter(f gpu.MipFilter) C.VkSamplerMipmapMode {
	if f == gpu.MipLinear {
		return C.VK_SAMPLER_MIPMAP_MODE_LINEAR
	}
	return C.VK_SAMPLER_MIPMAP_MODE_NEAREST
}

func convWrap(w gpu.WrapMode) C.VkSamplerAddressMode {
	switch w {
	case gpu.WrapMirroredRepeat:
		return C.VK_SAMPLER_ADDRESS_MODE_MIRRORED_REPEAT
	case gpu.WrapClampToEdge:
		return C.VK_SAMPLER_ADDRESS_MODE_CLAMP_TO_EDGE
	case gpu.WrapClampToBorder:
		return C.VK_SAMPLER_ADDRESS_MODE_CLAMP_TO_BORDER
	default:
		return C.VK_SAMPLER_ADDRESS_MODE_REPEAT
	}
}

func convVertexFmt(f gpu.VertexFmt) C.VkFormat {
	switch f {
	case gpu.VFInt8:
		return C.VK_FORMAT_R8_SINT
	case gpu.VFInt8x2:
		return C.VK_FORMAT_R8G8_SINT
	case gpu.VFInt8x3:
		return C.VK_FORMAT_R8G8B8_SINT
	case gpu.VFInt8x4:
		return C.VK_FORMAT_R8G8B8A8_SINT
	case gpu.VFInt16:
		return C.VK_FORMAT_R16_SINT
	case gpu.VFInt16x2:
		return C.VK_FORMAT_R16G16_SINT
	case gpu.VFInt16x3:
		return C.VK_FORMAT_R16G16B16_SINT
	case gpu.VFInt16x4:
		return C.VK_FORMAT_R16G16B16A16_SINT
	case gpu.VFInt32:
		return C.VK_FORMAT_R32_SINT
	case gpu.VFInt32x2:
		return C.VK_FORMAT_R32G32_SINT
	case gpu.VFInt32x3:
		return C.VK_FORMAT_R32G32B32_SINT
	case gpu.VFInt32x4:
		return C.VK_FORMAT_R32G32B32A32_SINT
	case gpu.VFUint8:
		return C.VK_FORMAT_R8_UINT
	case gpu.VFUint8x2:
		return C.VK_FORMAT_R8G8_UINT
	case gpu.VFUint8x3:
		return C.VK_FORMAT_R8G8B8_UINT
	case gpu.VFUint8x4:
		return C.VK_FORMAT_R8G8B8A8_UINT
	case gpu.VFUint16:
		return C.VK_FORMAT_R16_UINT
	case gpu.VFUint16x2:
		return C.VK_FORMAT_R16G16_UINT
	case gpu.VFUint16x3:
		return C.VK_FORMAT_R16G16B16_UINT
	case gpu.VFUint16x4:
		return C.VK_FORMAT_R16G16B16A16_UINT
	case gpu.VFUint32:
		return C.VK_FORMAT_R32_UINT
	case gpu.VFUint32x2:
		return C.VK_FORMAT_R32G32_UINT
	case gpu.VFUint32x3:
		return C.VK_FORMAT_R32G32B32_UINT
	case gpu.VFUint32x4:
		return C.VK_FORMAT_R32G32B32A32_UINT
	case gpu.VFFloat32:
		return C.VK_FORMAT_R32_SFLOAT
	case gpu.VFFloat32x2:
		return C.VK_FORMAT_R32G32_SFLOAT
	case gpu.VFFloat32x3:
		return C.VK_FORMAT_R32G32B32_SFLOAT
	default:
		return C.VK_FORMAT_R32G32B32A32_SFLOAT
	}
}

func convIndexFmt(f gpu.IndexFmt) C.VkIndexType {
	if f == gpu.Index32 {
		return C.VK_INDEX_TYPE_UINT32
	}
	return C.VK_INDEX_TYPE_UINT16
}

func convLoadOp(l gpu.LoadOp) C.VkAttachmentLoadOp {
	switch l {
	case gpu.LoadClear:
		return C.VK_ATTACHMENT_LOAD_OP_CLEAR
	case gpu.LoadLoad:
		return C.VK_ATTACHMENT_LOAD_OP_LOAD
	default:
		return C.VK_ATTACHMENT_LOAD_OP_DONT_CARE
	}
}

func convStoreOp(s gpu.StoreOp) C.VkAttachmentStoreOp {
	if s == gpu.StoreStore {
		return C.VK_ATTACHMENT_STORE_OP_STORE
	}
	return C.VK_ATTACHMENT_STORE_OP_DONT_CARE
}
