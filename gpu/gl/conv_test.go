// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gl

import (
	"testing"

	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nopeforge/nope-gpu/gpu"
)

func TestConvFormatRGBA8(t *testing.T) {
	internal, format, xtype := convFormat(gpu.RGBA8un)
	if internal != glcore.RGBA8 || format != glcore.RGBA || xtype != glcore.UNSIGNED_BYTE {
		t.Fatalf("convFormat(RGBA8un) = %v, %v, %v", internal, format, xtype)
	}
}

func TestConvFormatSRGB(t *testing.T) {
	internal, _, _ := convFormat(gpu.RGBA8sRGB)
	if internal != glcore.SRGB8_ALPHA8 {
		t.Fatalf("convFormat(RGBA8sRGB) internalformat = %v, want SRGB8_ALPHA8", internal)
	}
}

func TestConvFilterNoMipmap(t *testing.T) {
	minF, magF := convFilter(gpu.FilterLinear, gpu.FilterNearest, gpu.MipNone)
	if minF != glcore.LINEAR {
		t.Fatalf("min filter = %v, want LINEAR", minF)
	}
	if magF != glcore.NEAREST {
		t.Fatalf("mag filter = %v, want NEAREST", magF)
	}
}

func TestConvFilterMipmapLinear(t *testing.T) {
	minF, _ := convFilter(gpu.FilterLinear, gpu.FilterLinear, gpu.MipLinear)
	if minF != glcore.LINEAR_MIPMAP_LINEAR {
		t.Fatalf("min filter = %v, want LINEAR_MIPMAP_LINEAR", minF)
	}
}

func TestConvFilterMipmapNearest(t *testing.T) {
	minF, _ := convFilter(gpu.FilterNearest, gpu.FilterNearest, gpu.MipNearest)
	if minF != glcore.NEAREST_MIPMAP_NEAREST {
		t.Fatalf("min filter = %v, want NEAREST_MIPMAP_NEAREST", minF)
	}
}

func TestConvWrapDefaultsToRepeat(t *testing.T) {
	if w := convWrap(gpu.WrapRepeat); w != glcore.REPEAT {
		t.Fatalf("convWrap(WrapRepeat) = %v, want REPEAT", w)
	}
	if w := convWrap(gpu.WrapClampToBorder); w != glcore.CLAMP_TO_BORDER {
		t.Fatalf("convWrap(WrapClampToBorder) = %v, want CLAMP_TO_BORDER", w)
	}
}

func TestConvVertexFmtFloat(t *testing.T) {
	xtype, size, normalized, integer := convVertexFmt(gpu.VFFloat32x3)
	if xtype != glcore.FLOAT || size != 3 || normalized || integer {
		t.Fatalf("convVertexFmt(VFFloat32x3) = %v, %v, %v, %v", xtype, size, normalized, integer)
	}
}

func TestConvVertexFmtIntegerIsMarkedInteger(t *testing.T) {
	xtype, size, _, integer := convVertexFmt(gpu.VFUint16x2)
	if xtype != glcore.UNSIGNED_SHORT || size != 2 || !integer {
		t.Fatalf("convVertexFmt(VFUint16x2) = %v, %v, integer=%v", xtype, size, integer)
	}
}

func TestConvIndexFmt(t *testing.T) {
	if convIndexFmt(gpu.Index32) != glcore.UNSIGNED_INT {
		t.Fatal("convIndexFmt(Index32) != UNSIGNED_INT")
	}
	if convIndexFmt(gpu.Index16) != glcore.UNSIGNED_SHORT {
		t.Fatal("convIndexFmt(Index16) != UNSIGNED_SHORT")
	}
}
