// Copyright 2024 The nope-gpu Authors. All rights reserved.

// Package gl implements the gpu.Context interfaces on top of
// desktop OpenGL (and, where the driver exposes the same entry
// points, OpenGL ES), using github.com/go-gl/gl for the actual
// GL calls. Unlike gpu/vk, most objects here need no explicit
// command buffer: the "current context" the embedder made
// current before calling Init plays that role, so CmdBuffer is
// an identity shim (spec §4.7).
package gl

import (
	"fmt"

	glcore "github.com/go-gl/gl/v4.6-core/gl"
	"github.com/chewxy/math32"

	"github.com/nopeforge/nope-gpu/gpu"
)

func init() {
	gpu.Register(gpu.OpenGL, func() gpu.Context { return &Context{} })
	gpu.Register(gpu.OpenGLES, func() gpu.Context { return &Context{} })
}

// Context implements gpu.Context using OpenGL.
type Context struct {
	cfg gpu.Config

	limits   gpu.Limits
	features gpu.Features

	// Default offscreen attachments, built by initOffscreen for
	// offscreen contexts only; on-screen contexts render to
	// framebuffer 0 with no intermediate resolve target, and
	// defaultFBO stays 0.
	defaultFBO    uint32
	defaultColor  *Texture
	defaultDepth  *Texture
	defaultMSColor *Texture

	captureBuf []byte

	dummy *Texture

	// HUD timer queries.
	hud       bool
	queryBeg  uint32
	queryEnd  uint32
	queryOpen bool

	pendingResize bool
	rtLoad, rtClear *Rendertarget

	pending []*CmdBuffer

	// Command-recording state (spec §4.1, §4.7): GL has no
	// per-command-buffer state object, so the "currently bound"
	// pipeline/index-buffer state lives on the context itself,
	// exactly like the rest of the GL state machine.
	curPipeline *Pipeline
	idxBuf      *Buffer
	idxFmt      gpu.IndexFmt
	idxOffset   int64
	curRT       gpu.Rendertarget
}

func (c *Context) removePending(cb *CmdBuffer) {
	for i, p := range c.pending {
		if p == cb {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

// Backend returns the backend named in the Config passed to
// Init (gpu.OpenGL or gpu.OpenGLES).
func (c *Context) Backend() gpu.Backend { return c.cfg.Backend }

// Init implements gpu.Context.
func (c *Context) Init(cfg gpu.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	if err := glcore.Init(); err != nil {
		return fmt.Errorf("gl: init: %w", gpu.ErrNoDevice)
	}

	c.queryLimits()
	c.queryFeatures()

	if cfg.Offscreen {
		if err := c.initOffscreen(); err != nil {
			return err
		}
	}
	if cfg.HUD {
		c.hud = true
		glcore.GenQueries(1, &c.queryBeg)
		glcore.GenQueries(1, &c.queryEnd)
	}

	dt, err := c.NewTexture(gpu.DummyTextureParams())
	if err != nil {
		return fmt.Errorf("gl: dummy texture: %w", err)
	}
	c.dummy = dt.(*Texture)
	px := gpu.DummyTexturePixel
	_ = c.dummy.Upload(px[:], 4)

	return nil
}

func (c *Context) queryLimits() {
	var v int32
	glcore.GetIntegerv(glcore.MAX_TEXTURE_SIZE, &v)
	c.limits.MaxTextureDim2D = int(v)
	c.limits.MaxTextureDim1D = int(v)
	glcore.GetIntegerv(glcore.MAX_3D_TEXTURE_SIZE, &v)
	c.limits.MaxTextureDim3D = int(v)
	glcore.GetIntegerv(glcore.MAX_CUBE_MAP_TEXTURE_SIZE, &v)
	c.limits.MaxTextureDimCube = int(v)
	glcore.GetIntegerv(glcore.MAX_ARRAY_TEXTURE_LAYERS, &v)
	c.limits.MaxLayers = int(v)
	glcore.GetIntegerv(glcore.MAX_COLOR_ATTACHMENTS, &v)
	if v > gpu.MaxColorAttachments {
		v = gpu.MaxColorAttachments
	}
	c.limits.MaxColorAttachments = int(v)
	glcore.GetIntegerv(glcore.MAX_VERTEX_ATTRIBS, &v)
	c.limits.MaxVertexAttributes = int(v)
	c.limits.MaxVertexBuffers = gpu.MaxVertexBuffers
	glcore.GetIntegerv(glcore.MAX_DRAW_BUFFERS, &v)
	c.limits.MaxDrawBuffers = int(v)
	glcore.GetIntegerv(glcore.MAX_SAMPLES, &v)
	c.limits.MaxSamples = int(v)
	glcore.GetIntegerv(glcore.MAX_UNIFORM_BLOCK_SIZE, &v)
	c.limits.MaxUniformBlockSize = int64(v)
	glcore.GetIntegerv(glcore.MAX_SHADER_STORAGE_BLOCK_SIZE, &v)
	c.limits.MaxStorageBlockSize = int64(v)
	glcore.GetIntegerv(glcore.UNIFORM_BUFFER_OFFSET_ALIGNMENT, &v)
	c.limits.MinUniformBlockOffsetAlignment = int64(v)
	glcore.GetIntegerv(glcore.SHADER_STORAGE_BUFFER_OFFSET_ALIGNMENT, &v)
	c.limits.MinStorageBlockOffsetAlignment = int64(v)
	var wcx, wcy, wcz, wsx, wsy, wsz, winv, wshm int32
	glcore.GetIntegeri_v(glcore.MAX_COMPUTE_WORK_GROUP_COUNT, 0, &wcx)
	glcore.GetIntegeri_v(glcore.MAX_COMPUTE_WORK_GROUP_COUNT, 1, &wcy)
	glcore.GetIntegeri_v(glcore.MAX_COMPUTE_WORK_GROUP_COUNT, 2, &wcz)
	glcore.GetIntegeri_v(glcore.MAX_COMPUTE_WORK_GROUP_SIZE, 0, &wsx)
	glcore.GetIntegeri_v(glcore.MAX_COMPUTE_WORK_GROUP_SIZE, 1, &wsy)
	glcore.GetIntegeri_v(glcore.MAX_COMPUTE_WORK_GROUP_SIZE, 2, &wsz)
	glcore.GetIntegerv(glcore.MAX_COMPUTE_WORK_GROUP_INVOCATIONS, &winv)
	glcore.GetIntegerv(glcore.MAX_COMPUTE_SHARED_MEMORY_SIZE, &wshm)
	c.limits.MaxComputeWorkGroupCount = [3]int{int(wcx), int(wcy), int(wcz)}
	c.limits.MaxComputeWorkGroupSize = [3]int{int(wsx), int(wsy), int(wsz)}
	c.limits.MaxComputeWorkGroupInvocations = int(winv)
	c.limits.MaxComputeSharedMemorySize = int(wshm)
	// GL descriptor sets have no hardware pool; no known ceiling.
	c.limits.MaxDescriptorSetsPerPool = 0
}

func (c *Context) queryFeatures() {
	c.features = gpu.FeatureCompute | gpu.FeatureImageLoadStore |
		gpu.FeatureStorageBuffer | gpu.FeatureColorResolve |
		gpu.FeatureDepthStencilResolve | gpu.FeatureInstancedDraw |
		gpu.FeatureTextureCubeMap | gpu.FeatureTexture3D
	// GL buffer mapping is coherent but not guaranteed persistent
	// without ARB_buffer_storage; conservatively report it absent.
}

// Limits implements gpu.Context.
func (c *Context) Limits() gpu.Limits { return c.limits }

// Features implements gpu.Context.
func (c *Context) Features() gpu.Features { return c.features }

// Destroy implements gpu.Context.
func (c *Context) Destroy() {
	if c.dummy != nil {
		c.dummy.Destroy()
	}
	if c.defaultFBO != 0 {
		glcore.DeleteFramebuffers(1, &c.defaultFBO)
	}
	if c.hud {
		glcore.DeleteQueries(1, &c.queryBeg)
		glcore.DeleteQueries(1, &c.queryEnd)
	}
	*c = Context{}
}

// DummyTexture implements gpu.Context.
func (c *Context) DummyTexture() gpu.Texture { return c.dummy }

// TransformProjectionMatrix implements gpu.Context. OpenGL's
// clip space already matches the engine's convention, so this
// is the identity (spec §4.1).
func (c *Context) TransformProjectionMatrix(m *[16]float32) {}

// TransformCullMode implements gpu.Context: OpenGL applies no
// y-flip, so winding is unaffected (spec §4.1).
func (c *Context) TransformCullMode(cm gpu.CullMode) gpu.CullMode { return cm }

// RendertargetUVCoordMatrix implements gpu.Context: OpenGL's
// rendertarget origin is bottom-left, so sampled UV coordinates
// must be y-flipped relative to the "standard" top-left
// convention (spec §4.1).
func (c *Context) RendertargetUVCoordMatrix(m *[16]float32) {
	*m = [16]float32{
		1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, 1, 0,
		0, 1, 0, 1,
	}
}

// GetPreferredDepthFormat implements gpu.Context.
func (c *Context) GetPreferredDepthFormat() gpu.PixelFmt { return gpu.D32sf }

// GetPreferredDepthStencilFormat implements gpu.Context.
func (c *Context) GetPreferredDepthStencilFormat() gpu.PixelFmt { return gpu.D24unS8ui }

// GetFormatFeatures implements gpu.Context. Desktop GL 4.x is
// assumed to support every listed format for sampling; linear
// filtering and blending of integer formats are excluded per
// the usual GL restriction.
func (c *Context) GetFormatFeatures(f gpu.PixelFmt) gpu.FormatFeature {
	if !f.Valid() {
		return 0
	}
	feat := gpu.FeatSampled | gpu.FeatColorAttachment | gpu.FeatColorAttachmentBlend |
		gpu.FeatStorage | gpu.FeatColorResolve | gpu.FeatVertexBuffer
	switch f {
	case gpu.R32ui, gpu.RG32ui, gpu.RGB32ui, gpu.RGBA32ui,
		gpu.R16ui, gpu.RG16ui, gpu.RGB16ui, gpu.RGBA16ui:
		// Integer formats: no linear filtering, no blending.
		feat &^= gpu.FeatColorAttachmentBlend
	default:
		feat |= gpu.FeatSampledLinearFilter
	}
	if f.IsDepthStencil() {
		feat |= gpu.FeatDepthStencilAttachment | gpu.FeatDepthStencilResolve
		feat &^= gpu.FeatColorAttachment | gpu.FeatColorAttachmentBlend | gpu.FeatStorage
	}
	return feat
}

// clampMipmapDim halves a mip dimension, clamped to 1 (shared
// helper, uses math32 per the domain-stack wiring in
// SPEC_FULL.md).
func clampMipmapDim(x int) int {
	return int(math32.Max(1, math32.Floor(float32(x)/2)))
}
