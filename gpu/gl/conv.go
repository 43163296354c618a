// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gl

import (
	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nopeforge/nope-gpu/gpu"
)

// convFormat maps a gpu.PixelFmt to its {internalformat, format,
// type} token triple, following the same one-to-one mapping
// table convention as the Vulkan backend's convPixelFmt.
func convFormat(f gpu.PixelFmt) (internal, format, xtype uint32) {
	switch f {
	case gpu.R8un:
		return glcore.R8, glcore.RED, glcore.UNSIGNED_BYTE
	case gpu.R8n:
		return glcore.R8_SNORM, glcore.RED, glcore.BYTE
	case gpu.RG8un:
		return glcore.RG8, glcore.RG, glcore.UNSIGNED_BYTE
	case gpu.RG8n:
		return glcore.RG8_SNORM, glcore.RG, glcore.BYTE
	case gpu.RGBA8un:
		return glcore.RGBA8, glcore.RGBA, glcore.UNSIGNED_BYTE
	case gpu.RGBA8n:
		return glcore.RGBA8_SNORM, glcore.RGBA, glcore.BYTE
	case gpu.RGBA8sRGB:
		return glcore.SRGB8_ALPHA8, glcore.RGBA, glcore.UNSIGNED_BYTE
	case gpu.R16un:
		return glcore.R16, glcore.RED, glcore.UNSIGNED_SHORT
	case gpu.R16ui:
		return glcore.R16UI, glcore.RED_INTEGER, glcore.UNSIGNED_SHORT
	case gpu.R16sf:
		return glcore.R16F, glcore.RED, glcore.HALF_FLOAT
	case gpu.RG16ui:
		return glcore.RG16UI, glcore.RG_INTEGER, glcore.UNSIGNED_SHORT
	case gpu.RG16sf:
		return glcore.RG16F, glcore.RG, glcore.HALF_FLOAT
	case gpu.RGB16ui:
		return glcore.RGB16UI, glcore.RGB_INTEGER, glcore.UNSIGNED_SHORT
	case gpu.RGB16sf:
		return glcore.RGB16F, glcore.RGB, glcore.HALF_FLOAT
	case gpu.RGBA16ui:
		return glcore.RGBA16UI, glcore.RGBA_INTEGER, glcore.UNSIGNED_SHORT
	case gpu.RGBA16sf:
		return glcore.RGBA16F, glcore.RGBA, glcore.HALF_FLOAT
	case gpu.R32ui:
		return glcore.R32UI, glcore.RED_INTEGER, glcore.UNSIGNED_INT
	case gpu.R32sf:
		return glcore.R32F, glcore.RED, glcore.FLOAT
	case gpu.RG32ui:
		return glcore.RG32UI, glcore.RG_INTEGER, glcore.UNSIGNED_INT
	case gpu.RG32sf:
		return glcore.RG32F, glcore.RG, glcore.FLOAT
	case gpu.RGB32ui:
		return glcore.RGB32UI, glcore.RGB_INTEGER, glcore.UNSIGNED_INT
	case gpu.RGB32sf:
		return glcore.RGB32F, glcore.RGB, glcore.FLOAT
	case gpu.RGBA32ui:
		return glcore.RGBA32UI, glcore.RGBA_INTEGER, glcore.UNSIGNED_INT
	case gpu.RGBA32sf:
		return glcore.RGBA32F, glcore.RGBA, glcore.FLOAT
	case gpu.D16un:
		return glcore.DEPTH_COMPONENT16, glcore.DEPTH_COMPONENT, glcore.UNSIGNED_SHORT
	case gpu.D24un:
		return glcore.DEPTH_COMPONENT24, glcore.DEPTH_COMPONENT, glcore.UNSIGNED_INT
	case gpu.D32sf:
		return glcore.DEPTH_COMPONENT32F, glcore.DEPTH_COMPONENT, glcore.FLOAT
	case gpu.S8ui:
		return glcore.STENCIL_INDEX8, glcore.STENCIL_INDEX, glcore.UNSIGNED_BYTE
	case gpu.D24unS8ui:
		return glcore.DEPTH24_STENCIL8, glcore.DEPTH_STENCIL, glcore.UNSIGNED_INT_24_8
	case gpu.D32sfS8ui:
		return glcore.DEPTH32F_STENCIL8, glcore.DEPTH_STENCIL, glcore.FLOAT_32_UNSIGNED_INT_24_8_REV
	default:
		return 0, 0, 0
	}
}

func convTopology(t gpu.Topology) uint32 {
	switch t {
	case gpu.TopologyPointList:
		return glcore.POINTS
	case gpu.TopologyLineList:
		return glcore.LINES
	case gpu.TopologyLineStrip:
		return glcore.LINE_STRIP
	case gpu.TopologyTriangleList:
		return glcore.TRIANGLES
	case gpu.TopologyTriangleStrip:
		return glcore.TRIANGLE_STRIP
	default:
		return glcore.TRIANGLES
	}
}

func convCmpFunc(c gpu.CmpFunc) uint32 {
	switch c {
	case gpu.CmpNever:
		return glcore.NEVER
	case gpu.CmpLess:
		return glcore.LESS
	case gpu.CmpEqual:
		return glcore.EQUAL
	case gpu.CmpLessEqual:
		return glcore.LEQUAL
	case gpu.CmpGreater:
		return glcore.GREATER
	case gpu.CmpNotEqual:
		return glcore.NOTEQUAL
	case gpu.CmpGreaterEqual:
		return glcore.GEQUAL
	case gpu.CmpAlways:
		return glcore.ALWAYS
	default:
		return glcore.ALWAYS
	}
}

func convStencilOp(s gpu.StencilOp) uint32 {
	switch s {
	case gpu.StencilKeep:
		return glcore.KEEP
	case gpu.StencilZero:
		return glcore.ZERO
	case gpu.StencilReplace:
		return glcore.REPLACE
	case gpu.StencilIncClamp:
		return glcore.INCR
	case gpu.StencilDecClamp:
		return glcore.DECR
	case gpu.StencilInvert:
		return glcore.INVERT
	case gpu.StencilIncWrap:
		return glcore.INCR_WRAP
	case gpu.StencilDecWrap:
		return glcore.DECR_WRAP
	default:
		return glcore.KEEP
	}
}

func convBlendOp(b gpu.BlendOp) uint32 {
	switch b {
	case gpu.BlendAdd:
		return glcore.FUNC_ADD
	case gpu.BlendSubtract:
		return glcore.FUNC_SUBTRACT
	case gpu.BlendRevSubtract:
		return glcore.FUNC_REVERSE_SUBTRACT
	case gpu.BlendMin:
		return glcore.MIN
	case gpu.BlendMax:
		return glcore.MAX
	default:
		return glcore.FUNC_ADD
	}
}

func convBlendFactor(f gpu.BlendFactor) uint32 {
	switch f {
	case gpu.BlendZero:
		return glcore.ZERO
	case gpu.BlendOne:
		return glcore.ONE
	case gpu.BlendSrcColor:
		return glcore.SRC_COLOR
	case gpu.BlendInvSrcColor:
		return glcore.ONE_MINUS_SRC_COLOR
	case gpu.BlendSrcAlpha:
		return glcore.SRC_ALPHA
	case gpu.BlendInvSrcAlpha:
		return glcore.ONE_MINUS_SRC_ALPHA
	case gpu.BlendDstColor:
		return glcore.DST_COLOR
	case gpu.BlendInvDstColor:
		return glcore.ONE_MINUS_DST_COLOR
	case gpu.BlendDstAlpha:
		return glcore.DST_ALPHA
	case gpu.BlendInvDstAlpha:
		return glcore.ONE_MINUS_DST_ALPHA
	default:
		return glcore.ONE
	}
}

func convCullMode(c gpu.CullMode) (enable bool, face uint32) {
	switch c {
	case gpu.CullFront:
		return true, glcore.FRONT
	case gpu.CullBack:
		return true, glcore.BACK
	default:
		return false, glcore.BACK
	}
}

func convFrontFace(f gpu.FrontFace) uint32 {
	if f == gpu.FrontCW {
		return glcore.CW
	}
	return glcore.CCW
}

func convFilter(min, mag gpu.Filter, mip gpu.MipFilter) (minF, magF int32) {
	if mag == gpu.FilterLinear {
		magF = glcore.LINEAR
	} else {
		magF = glcore.NEAREST
	}
	switch {
	case mip == gpu.MipNone:
		if min == gpu.FilterLinear {
			minF = glcore.LINEAR
		} else {
			minF = glcore.NEAREST
		}
	case mip == gpu.MipNearest:
		if min == gpu.FilterLinear {
			minF = glcore.LINEAR_MIPMAP_NEAREST
		} else {
			minF = glcore.NEAREST_MIPMAP_NEAREST
		}
	default: // MipLinear
		if min == gpu.FilterLinear {
			minF = glcore.LINEAR_MIPMAP_LINEAR
		} else {
			minF = glcore.NEAREST_MIPMAP_LINEAR
		}
	}
	return
}

func convWrap(w gpu.WrapMode) int32 {
	switch w {
	case gpu.WrapMirroredRepeat:
		return glcore.MIRRORED_REPEAT
	case gpu.WrapClampToEdge:
		return glcore.CLAMP_TO_EDGE
	case gpu.WrapClampToBorder:
		return glcore.CLAMP_TO_BORDER
	default:
		return glcore.REPEAT
	}
}

func convVertexFmt(f gpu.VertexFmt) (xtype uint32, size int32, normalized bool, integer bool) {
	switch f {
	case gpu.VFInt8:
		return glcore.BYTE, 1, false, true
	case gpu.VFInt8x2:
		return glcore.BYTE, 2, false, true
	case gpu.VFInt8x3:
		return glcore.BYTE, 3, false, true
	case gpu.VFInt8x4:
		return glcore.BYTE, 4, false, true
	case gpu.VFInt16:
		return glcore.SHORT, 1, false, true
	case gpu.VFInt16x2:
		return glcore.SHORT, 2, false, true
	case gpu.VFInt16x3:
		return glcore.SHORT, 3, false, true
	case gpu.VFInt16x4:
		return glcore.SHORT, 4, false, true
	case gpu.VFInt32:
		return glcore.INT, 1, false, true
	case gpu.VFInt32x2:
		return glcore.INT, 2, false, true
	case gpu.VFInt32x3:
		return glcore.INT, 3, false, true
	case gpu.VFInt32x4:
		return glcore.INT, 4, false, true
	case gpu.VFUint8:
		return glcore.UNSIGNED_BYTE, 1, false, true
	case gpu.VFUint8x2:
		return glcore.UNSIGNED_BYTE, 2, false, true
	case gpu.VFUint8x3:
		return glcore.UNSIGNED_BYTE, 3, false, true
	case gpu.VFUint8x4:
		return glcore.UNSIGNED_BYTE, 4, false, true
	case gpu.VFUint16:
		return glcore.UNSIGNED_SHORT, 1, false, true
	case gpu.VFUint16x2:
		return glcore.UNSIGNED_SHORT, 2, false, true
	case gpu.VFUint16x3:
		return glcore.UNSIGNED_SHORT, 3, false, true
	case gpu.VFUint16x4:
		return glcore.UNSIGNED_SHORT, 4, false, true
	case gpu.VFUint32:
		return glcore.UNSIGNED_INT, 1, false, true
	case gpu.VFUint32x2:
		return glcore.UNSIGNED_INT, 2, false, true
	case gpu.VFUint32x3:
		return glcore.UNSIGNED_INT, 3, false, true
	case gpu.VFUint32x4:
		return glcore.UNSIGNED_INT, 4, false, true
	case gpu.VFFloat32:
		return glcore.FLOAT, 1, false, false
	case gpu.VFFloat32x2:
		return glcore.FLOAT, 2, false, false
	case gpu.VFFloat32x3:
		return glcore.FLOAT, 3, false, false
	case gpu.VFFloat32x4:
		return glcore.FLOAT, 4, false, false
	default:
		return glcore.FLOAT, 4, false, false
	}
}

func convIndexFmt(f gpu.IndexFmt) uint32 {
	if f == gpu.Index32 {
		return glcore.UNSIGNED_INT
	}
	return glcore.UNSIGNED_SHORT
}
