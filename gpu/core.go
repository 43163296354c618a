// Copyright 2024 The nope-gpu Authors. All rights reserved.

// Package gpu defines the GPU abstraction used by the render-pass
// driver and the scene graph: a single Context capability interface
// with concrete OpenGL/ES (gpu/gl) and Vulkan (gpu/vk) backends, plus
// every resource type (buffers, textures, rendertargets, programs,
// bindgroups, pipelines, command buffers) created through it.
package gpu

// Backend identifies a concrete GPU API.
type Backend int

// Backends.
const (
	OpenGL Backend = iota
	OpenGLES
	Vulkan
)

func (b Backend) String() string {
	switch b {
	case OpenGL:
		return "opengl"
	case OpenGLES:
		return "opengles"
	case Vulkan:
		return "vulkan"
	default:
		return "unknown"
	}
}

// CaptureBufferType is the type of an offscreen capture
// destination. Only CPU is currently supported.
type CaptureBufferType int

// Capture buffer types.
const (
	CaptureCPU CaptureBufferType = iota
)

// Config carries the recognised context configuration keys
// from spec §6, validated by Context.Init.
type Config struct {
	Backend           Backend
	Offscreen         bool
	Width, Height     int32
	Samples           int32
	SwapInterval      int32
	ClearColor        [4]float32
	CaptureBuffer     []byte
	CaptureBufferType CaptureBufferType
	SetSurfacePTS     bool
	HUD               bool

	// Surface is an opaque, backend-specific native window
	// handle. It is nil for offscreen contexts. Window/surface
	// creation itself is out of scope for this module; the
	// embedder creates the native window and passes its handle
	// through unmodified.
	Surface any
}

// Validate checks the usage invariants from spec §4.1/§7 that
// must be caught immediately at Create/Init time.
func (c *Config) Validate() error {
	if c.Offscreen {
		if c.Width <= 0 || c.Height <= 0 {
			return wrapUsage("offscreen context requires width,height > 0")
		}
	} else if c.CaptureBuffer != nil {
		return wrapUsage("capture_buffer is only valid for offscreen contexts")
	}
	if c.CaptureBufferType != CaptureCPU {
		return wrapUsage("unsupported capture buffer type")
	}
	return nil
}

func wrapUsage(msg string) error { return &usageError{msg} }

type usageError struct{ msg string }

func (e *usageError) Error() string { return "gpu: " + e.msg }
func (e *usageError) Unwrap() error { return ErrUsage }

// Features is a bitmask of optional device capabilities.
type Features int

// Feature bits.
const (
	FeatureCompute Features = 1 << iota
	FeatureImageLoadStore
	FeatureStorageBuffer
	FeatureBufferMapPersistent
	FeatureColorResolve
	FeatureDepthStencilResolve
	FeatureInstancedDraw
	FeatureTextureCubeMap
	FeatureTexture3D
)

// Has reports whether every bit in want is set in f.
func (f Features) Has(want Features) bool { return f&want == want }

// Limits describes implementation limits, queried once at
// Context.Init and immutable for the lifetime of the context.
type Limits struct {
	MaxTextureDim1D   int
	MaxTextureDim2D   int
	MaxTextureDim3D   int
	MaxTextureDimCube int
	MaxLayers         int

	MaxColorAttachments int
	MaxVertexAttributes int
	MaxVertexBuffers    int

	MaxComputeWorkGroupCount      [3]int
	MaxComputeWorkGroupSize       [3]int
	MaxComputeWorkGroupInvocations int
	MaxComputeSharedMemorySize    int

	MaxDrawBuffers int
	MaxSamples     int

	MaxUniformBlockSize               int64
	MaxStorageBlockSize                int64
	MinUniformBlockOffsetAlignment     int64
	MinStorageBlockOffsetAlignment     int64

	// MaxDescriptorSetsPerPool bounds the cumulative number of
	// descriptor sets a BindGroupLayout's pool chain may grow
	// to hold (spec §9's flagged ambiguity: the source's pool
	// growth is unbounded; this rewrite honours a ceiling when
	// the device reports one). Zero means "no known ceiling".
	MaxDescriptorSetsPerPool int
}

// Public constants from spec §6.
const (
	MaxVertexBuffers    = 16
	MaxColorAttachments = 8
)

// Context is the capability interface that every other GPU
// object is created through. It multiplexes over the concrete
// backends (gpu/gl, gpu/vk) behind a single object model.
type Context interface {
	// Backend returns the backend this context was created for.
	Backend() Backend

	// Init prepares the device, queue, swapchain (if on-screen)
	// or offscreen color+depth ring, per-frame sync objects,
	// command pool, dummy texture and query pool (if HUD is
	// enabled). It must be called exactly once, after Config
	// has been validated.
	Init(cfg Config) error

	// Limits returns the implementation limits queried at Init.
	Limits() Limits

	// Features returns the device feature bitmask queried at
	// Init.
	Features() Features

	// Resize changes the size of the default render surface: an
	// on-screen context recreates (or flags for recreation) its
	// swapchain, and an offscreen context rebuilds its default
	// attachments at the new size.
	Resize(width, height int32) error

	// SetCaptureBuffer swaps the destination CPU buffer used
	// for offscreen readback. Valid only for offscreen
	// contexts.
	SetCaptureBuffer(buf []byte) error

	// GetPreferredDepthFormat and GetPreferredDepthStencilFormat
	// return the best depth-only / depth+stencil format the
	// device supports.
	GetPreferredDepthFormat() PixelFmt
	GetPreferredDepthStencilFormat() PixelFmt

	// GetFormatFeatures returns the feature bitmask the device
	// reports for a given pixel format.
	GetFormatFeatures(f PixelFmt) FormatFeature

	// TransformProjectionMatrix multiplies m, in place, by the
	// post-matrix that maps the engine's OpenGL-style clip
	// space ([-1,1]^3, y-up, z in [-1,1]) to this backend's
	// target clip space.
	TransformProjectionMatrix(m *[16]float32)

	// TransformCullMode maps a cull mode from the engine's
	// convention to the one this backend expects, accounting
	// for any y-flip the backend applies (which inverts
	// winding).
	TransformCullMode(c CullMode) CullMode

	// RendertargetUVCoordMatrix returns, in m, the matrix that
	// maps a "standard" (top-left origin) UV coordinate into
	// this backend's native rendertarget coordinate convention.
	RendertargetUVCoordMatrix(m *[16]float32)

	// GetDefaultRendertarget returns the context's default
	// rendertarget with the requested load operation. Both
	// variants render to the same attachments.
	GetDefaultRendertarget(load LoadOp) (Rendertarget, error)

	// Frame-level operations (spec §4.1).
	BeginUpdate() (CmdBuffer, error)
	EndUpdate(cb CmdBuffer) error
	BeginDraw(t float64) (CmdBuffer, error)
	QueryDrawTime() (int64, error)
	EndDraw(t float64) error
	WaitIdle()

	// Render pass bracketing (spec §4.10 drives these).
	BeginRenderPass(cb CmdBuffer, rt Rendertarget) error
	EndRenderPass(cb CmdBuffer)

	SetViewport(cb CmdBuffer, vp []Viewport)
	SetScissor(cb CmdBuffer, s []Scissor)

	// Resource factories.
	NewBuffer(size int64, usage BufferUsage) (Buffer, error)
	NewTexture(params TextureParams) (Texture, error)
	NewRendertarget(params RendertargetParams) (Rendertarget, error)
	NewProgram(params ProgramParams) (Program, error)
	NewBindGroupLayout(entries []BindGroupLayoutEntry) (BindGroupLayout, error)
	NewBindGroup(layout BindGroupLayout) (BindGroup, error)
	NewPipeline(desc any) (Pipeline, error)
	NewCmdBuffer() (CmdBuffer, error)

	// GenerateTextureMipmap delegates to t.GenerateMipmap,
	// recording into a transient command buffer.
	GenerateTextureMipmap(t Texture) error

	// Command recording, delegated to the current command
	// buffer's recording state.
	SetPipeline(cb CmdBuffer, p Pipeline)
	SetBindGroup(cb CmdBuffer, bg BindGroup, dynOffsets []int64)
	SetVertexBuffer(cb CmdBuffer, index int, b Buffer, offset int64)
	SetIndexBuffer(cb CmdBuffer, b Buffer, format IndexFmt, offset int64)
	Draw(cb CmdBuffer, vertCount, instCount, firstVert int)
	DrawIndexed(cb CmdBuffer, idxCount, instCount int)
	Dispatch(cb CmdBuffer, groupsX, groupsY, groupsZ int)

	// DummyTexture returns the 1x1 opaque-black fallback
	// texture bound to any unbound sampler slot.
	DummyTexture() Texture

	Destroy()
}

// Destroyer is implemented by every GPU object that owns
// external (non-GC-managed) memory.
type Destroyer interface {
	Destroy()
}

// RefCounted is implemented by every object a CmdBuffer's
// reference list may extend the lifetime of (spec §4.7, §5,
// §8: "as long as a command buffer is in the pending list,
// every object it references has refcount >= 1").
type RefCounted interface {
	ref()
	unref()
}

// Viewport defines the bounds of a viewport.
type Viewport struct {
	X, Y, Width, Height, MinDepth, MaxDepth float32
}

// Scissor defines a scissor rectangle.
type Scissor struct {
	X, Y, Width, Height int32
}

// LoadOp is the type of an attachment's load operation.
type LoadOp int

// Load operations.
const (
	LoadDontCare LoadOp = iota
	LoadClear
	LoadLoad
)

// StoreOp is the type of an attachment's store operation.
type StoreOp int

// Store operations.
const (
	StoreDontCare StoreOp = iota
	StoreStore
)

// Topology is the type of primitive topologies.
type Topology int

// Primitive topologies.
const (
	TopologyPointList Topology = iota
	TopologyLineList
	TopologyLineStrip
	TopologyTriangleList
	TopologyTriangleStrip
)

// IndexFmt describes the format of index buffer data.
type IndexFmt int

// Index formats.
const (
	Index16 IndexFmt = iota
	Index32
)

// CullMode is the type of cull modes.
type CullMode int

// Cull modes.
const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

// FrontFace is the type of triangle winding orders
// considered front-facing.
type FrontFace int

// Front faces.
const (
	FrontCCW FrontFace = iota
	FrontCW
)

// CmpFunc is the type of comparison functions.
type CmpFunc int

// Comparison functions.
const (
	CmpNever CmpFunc = iota
	CmpLess
	CmpEqual
	CmpLessEqual
	CmpGreater
	CmpNotEqual
	CmpGreaterEqual
	CmpAlways
)

// StencilOp is the type of stencil operations.
type StencilOp int

// Stencil operations.
const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilReplace
	StencilIncClamp
	StencilDecClamp
	StencilInvert
	StencilIncWrap
	StencilDecWrap
)

// StencilFace defines the stencil test parameters for a
// single triangle facing (front or back).
type StencilFace struct {
	Fail      StencilOp
	DepthPass StencilOp
	DepthFail StencilOp
	Compare   CmpFunc
	ReadMask  uint32
	WriteMask uint32
	Ref       uint32
}

// DepthStencilState defines the depth/stencil state of a
// graphics pipeline.
type DepthStencilState struct {
	DepthTest    bool
	DepthWrite   bool
	DepthCompare CmpFunc
	StencilTest  bool
	Front, Back  StencilFace
}

// BlendOp is the type of blend operations.
type BlendOp int

// Blend operations.
const (
	BlendAdd BlendOp = iota
	BlendSubtract
	BlendRevSubtract
	BlendMin
	BlendMax
)

// BlendFactor is the type of blend factors.
type BlendFactor int

// Blend factors.
const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendInvSrcColor
	BlendSrcAlpha
	BlendInvSrcAlpha
	BlendDstColor
	BlendInvDstColor
	BlendDstAlpha
	BlendInvDstAlpha
)

// ColorMask is a bitmask of color channels to write.
type ColorMask int

// Color write masks.
const (
	ColorRed ColorMask = 1 << iota
	ColorGreen
	ColorBlue
	ColorAlpha
	ColorAll = ColorRed | ColorGreen | ColorBlue | ColorAlpha
)

// BlendState defines a single render target's blend
// parameters.
type BlendState struct {
	Enable       bool
	WriteMask    ColorMask
	ColorOp      BlendOp
	SrcColorFac  BlendFactor
	DstColorFac  BlendFactor
	AlphaOp      BlendOp
	SrcAlphaFac  BlendFactor
	DstAlphaFac  BlendFactor
}

// FixedFuncState bundles the fixed-function state of a
// graphics pipeline (spec §3 "Pipeline").
type FixedFuncState struct {
	Blend    []BlendState // one per color attachment
	DS       DepthStencilState
	Cull     CullMode
	Front    FrontFace
}
