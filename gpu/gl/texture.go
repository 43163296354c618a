// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gl

import (
	"fmt"

	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nopeforge/nope-gpu/gpu"
)

// Texture implements gpu.Texture using a GL texture object.
type Texture struct {
	gpu.Refcount

	ctx    *Context
	name   uint32
	target uint32
	params gpu.TextureParams

	// stagingKey/stagingPBO cache the last UploadWithParams
	// transfer-params tuple (spec §4.3).
	stagingKey gpu.UploadParams
	stagingPBO uint32
	haveCache  bool
}

func glTextureTarget(p gpu.TextureParams) uint32 {
	switch p.Type {
	case gpu.Texture2DArray:
		if p.Samples > 1 {
			return glcore.TEXTURE_2D_MULTISAMPLE_ARRAY
		}
		return glcore.TEXTURE_2D_ARRAY
	case gpu.Texture3D:
		return glcore.TEXTURE_3D
	case gpu.TextureCube:
		if p.Layers > 6 {
			return glcore.TEXTURE_CUBE_MAP_ARRAY
		}
		return glcore.TEXTURE_CUBE_MAP
	default:
		if p.Samples > 1 {
			return glcore.TEXTURE_2D_MULTISAMPLE
		}
		return glcore.TEXTURE_2D
	}
}

// NewTexture implements gpu.Context.
func (c *Context) NewTexture(params gpu.TextureParams) (gpu.Texture, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.MinFilter == gpu.FilterLinear || params.MagFilter == gpu.FilterLinear {
		if c.GetFormatFeatures(params.Format)&gpu.FeatSampledLinearFilter == 0 {
			return nil, fmt.Errorf("gl: format does not support linear filtering: %w", gpu.ErrUnsupported)
		}
	}

	var name uint32
	glcore.GenTextures(1, &name)
	target := glTextureTarget(params)
	glcore.BindTexture(target, name)

	internal, format, xtype := convFormat(params.Format)
	levels := int32(params.MipLevels())

	switch params.Type {
	case gpu.Texture3D:
		glcore.TexStorage3D(target, levels, internal, int32(params.Width), int32(params.Height), int32(params.Depth))
	case gpu.Texture2DArray:
		glcore.TexStorage3D(target, levels, internal, int32(params.Width), int32(params.Height), int32(params.Layers))
	case gpu.TextureCube:
		glcore.TexStorage2D(target, levels, internal, int32(params.Width), int32(params.Height))
	default:
		if params.Samples > 1 {
			glcore.TexStorage2DMultisample(target, int32(params.Samples), internal, int32(params.Width), int32(params.Height), true)
		} else {
			glcore.TexStorage2D(target, levels, internal, int32(params.Width), int32(params.Height))
		}
	}
	_ = format
	_ = xtype

	if params.Samples <= 1 {
		minF, magF := convFilter(params.MinFilter, params.MagFilter, params.MipFilter)
		glcore.TexParameteri(target, glcore.TEXTURE_MIN_FILTER, minF)
		glcore.TexParameteri(target, glcore.TEXTURE_MAG_FILTER, magF)
		glcore.TexParameteri(target, glcore.TEXTURE_WRAP_S, convWrap(params.WrapS))
		glcore.TexParameteri(target, glcore.TEXTURE_WRAP_T, convWrap(params.WrapT))
		if params.Type == gpu.Texture3D {
			glcore.TexParameteri(target, glcore.TEXTURE_WRAP_R, convWrap(params.WrapR))
		}
	}
	glcore.BindTexture(target, 0)

	return &Texture{ctx: c, name: name, target: target, params: params}, nil
}

// Params implements gpu.Texture.
func (t *Texture) Params() gpu.TextureParams { return t.params }

// Upload implements gpu.Texture.
func (t *Texture) Upload(data []byte, linesize int) error {
	return t.UploadWithParams(data, gpu.UploadParams{
		Width: t.params.Width, Height: t.params.Height, Depth: t.params.Depth,
		LayerCount: t.params.Layers, PixelsPerRow: linesize / t.params.Format.BytesPerPixel(),
	})
}

// UploadWithParams implements gpu.Texture, including the
// staging-buffer cache keyed on the transfer-params tuple (spec
// §4.3). On GL the "staging buffer" is a pixel unpack buffer
// object, reused across identical calls and recreated on a
// cache miss.
func (t *Texture) UploadWithParams(data []byte, params gpu.UploadParams) error {
	if !t.haveCache || t.stagingKey != params {
		if t.stagingPBO != 0 {
			glcore.DeleteBuffers(1, &t.stagingPBO)
		}
		glcore.GenBuffers(1, &t.stagingPBO)
		t.stagingKey = params
		t.haveCache = true
	}
	glcore.BindBuffer(glcore.PIXEL_UNPACK_BUFFER, t.stagingPBO)
	glcore.BufferData(glcore.PIXEL_UNPACK_BUFFER, len(data), glcore.Ptr(data), glcore.STREAM_DRAW)

	_, format, xtype := convFormat(t.params.Format)
	glcore.BindTexture(t.target, t.name)
	if params.PixelsPerRow > 0 {
		glcore.PixelStorei(glcore.UNPACK_ROW_LENGTH, int32(params.PixelsPerRow))
	}
	switch t.params.Type {
	case gpu.Texture3D, gpu.Texture2DArray:
		glcore.TexSubImage3D(t.target, 0,
			int32(params.X), int32(params.Y), int32(params.Z),
			int32(params.Width), int32(params.Height), int32(params.Depth),
			format, xtype, nil)
	default:
		glcore.TexSubImage2D(t.target, 0,
			int32(params.X), int32(params.Y),
			int32(params.Width), int32(params.Height),
			format, xtype, nil)
	}
	glcore.PixelStorei(glcore.UNPACK_ROW_LENGTH, 0)
	glcore.BindTexture(t.target, 0)
	glcore.BindBuffer(glcore.PIXEL_UNPACK_BUFFER, 0)
	return nil
}

// GenerateMipmap implements gpu.Texture. GL's
// glGenerateMipmap performs the same level-by-level box/linear
// downsample as the manual blit loop in spec §4.3, so it is
// used directly rather than re-implementing the per-level blit.
func (t *Texture) GenerateMipmap() error {
	if t.params.Usage&(gpu.TexUsageTransferSrc|gpu.TexUsageTransferDst) != gpu.TexUsageTransferSrc|gpu.TexUsageTransferDst {
		return fmt.Errorf("gl: mipmap generation requires transfer src+dst usage: %w", gpu.ErrUsage)
	}
	glcore.BindTexture(t.target, t.name)
	glcore.GenerateMipmap(t.target)
	glcore.BindTexture(t.target, 0)
	return nil
}

// Destroy implements gpu.Texture.
func (t *Texture) Destroy() {
	if t.name != 0 {
		glcore.DeleteTextures(1, &t.name)
	}
	if t.stagingPBO != 0 {
		glcore.DeleteBuffers(1, &t.stagingPBO)
	}
	*t = Texture{}
}

// GenerateTextureMipmap implements gpu.Context.
func (c *Context) GenerateTextureMipmap(t gpu.Texture) error { return t.GenerateMipmap() }
