// Copyright 2024 The nope-gpu Authors. All rights reserved.

// Package vk implements gpu.Context using the Vulkan API. It
// mirrors driver/vk's instance/device bring-up and cgo proc
// loading, generalized to the gpu package's object model and
// extended with the ref-counted command-buffer lifetime list
// that the original driver lacked. Passes are recorded with
// dynamic rendering, so no renderpass objects or renderpass
// cache exist.
package vk

// #include <stdlib.h>
// #include <proc.h>
import "C"

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/nopeforge/nope-gpu/gpu"
)

const preferredAPIVersion = C.VK_API_VERSION_1_3

// nbInFlightFrames bounds how many frames may be recording or
// executing concurrently (spec §5's frame-slot rotation).
const nbInFlightFrames = 2

func init() {
	gpu.Register(gpu.Vulkan, func() gpu.Context { return &Context{} })
}

// Context implements gpu.Context using Vulkan.
type Context struct {
	proc

	cfg gpu.Config

	inst  C.VkInstance
	ivers C.uint32_t
	pdev  C.VkPhysicalDevice
	dname string
	dvers C.uint32_t
	dev   C.VkDevice
	ques  []C.VkQueue
	qfam  C.uint32_t
	qmus  []sync.Mutex

	exts [extN]bool

	mused []int64
	mprop C.VkPhysicalDeviceMemoryProperties

	limits   gpu.Limits
	features gpu.Features

	pending []*CmdBuffer

	sc *swapchain

	// Default offscreen color+depth attachments, built by
	// initOffscreen for contexts with no on-screen surface
	// (spec §4.1/§4.10's swapchain-less path, mirroring
	// gpu/gl's equivalent pair).
	defaultColor *Texture
	defaultDepth *Texture
	captureBuf   []byte

	dummy *Texture

	// Pooled staging buffer for texture uploads, shared by every
	// Texture created from this context.
	stg stagingPool

	// Command-recording state, tracked on the context rather
	// than the CmdBuffer, mirroring the gpu/gl backend's shape:
	// the current pipeline (whose layout and bind point
	// SetBindGroup reads), the bound index buffer, and the
	// current rendertarget.
	curPipeline *Pipeline
	idxBuf      *Buffer
	idxFmt      gpu.IndexFmt
	idxOffset   int64
	curRT       *Rendertarget
}

// Backend implements gpu.Context.
func (c *Context) Backend() gpu.Backend { return gpu.Vulkan }

// Init implements gpu.Context.
func (c *Context) Init(cfg gpu.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	if err := c.open(); err != nil {
		return err
	}
	if err := c.initInstance(); err != nil {
		c.Destroy()
		return err
	}
	if err := c.initDevice(); err != nil {
		c.Destroy()
		return err
	}
	c.qmus = make([]sync.Mutex, len(c.ques))
	c.queryFeatures()

	if cfg.Surface != nil {
		if err := c.initSwapchain(); err != nil {
			c.Destroy()
			return err
		}
	} else if cfg.Offscreen {
		if err := c.initOffscreen(); err != nil {
			c.Destroy()
			return err
		}
	}

	dt, err := c.NewTexture(gpu.DummyTextureParams())
	if err != nil {
		c.Destroy()
		return fmt.Errorf("vk: dummy texture: %w", err)
	}
	c.dummy = dt.(*Texture)
	px := gpu.DummyTexturePixel
	if err := c.dummy.Upload(px[:], 4); err != nil {
		c.Destroy()
		return err
	}
	return nil
}

// initInstance initializes the Vulkan instance.
func (c *Context) initInstance() error {
	C.getGlobalProcs()
	if C.enumerateInstanceVersion == nil || checkResult(C.vkEnumerateInstanceVersion(&c.ivers)) != nil {
		c.ivers = C.VK_API_VERSION_1_0
	}
	if isVariant(c.ivers) {
		return gpu.ErrNoDevice
	}
	appInfo := (*C.VkApplicationInfo)(C.malloc(C.sizeof_VkApplicationInfo))
	defer C.free(unsafe.Pointer(appInfo))
	vers := preferredAPIVersion
	if c.ivers == C.VK_API_VERSION_1_0 {
		vers = C.VK_API_VERSION_1_0
	}
	*appInfo = C.VkApplicationInfo{sType: C.VK_STRUCTURE_TYPE_APPLICATION_INFO, apiVersion: C.uint32_t(vers)}
	info := C.VkInstanceCreateInfo{sType: C.VK_STRUCTURE_TYPE_INSTANCE_CREATE_INFO, pApplicationInfo: appInfo}
	free, err := c.setInstanceExts(&info)
	defer free()
	if err != nil {
		return err
	}
	if err := checkResult(C.vkCreateInstance(&info, nil, &c.inst)); err != nil {
		return err
	}
	C.getInstanceProcs(c.inst)
	return nil
}

// initDevice selects a physical device and creates the logical
// device and queues.
func (c *Context) initDevice() error {
	var n C.uint32_t
	if err := checkResult(C.vkEnumeratePhysicalDevices(c.inst, &n, nil)); err != nil {
		return err
	}
	if n == 0 {
		return gpu.ErrNoDevice
	}
	p := (*C.VkPhysicalDevice)(C.malloc(C.sizeof_VkPhysicalDevice * C.size_t(n)))
	defer C.free(unsafe.Pointer(p))
	if err := checkResult(C.vkEnumeratePhysicalDevices(c.inst, &n, p)); err != nil {
		return err
	}
	devs := unsafe.Slice(p, n)
	devProps := make([]C.VkPhysicalDeviceProperties, n)
	queProps := make([][]C.VkQueueFamilyProperties, n)
	for i, dev := range devs {
		C.vkGetPhysicalDeviceProperties(dev, &devProps[i])
		C.vkGetPhysicalDeviceQueueFamilyProperties(dev, &n, nil)
		qp := (*C.VkQueueFamilyProperties)(C.malloc(C.sizeof_VkQueueFamilyProperties * C.size_t(n)))
		defer C.free(unsafe.Pointer(qp))
		C.vkGetPhysicalDeviceQueueFamilyProperties(dev, &n, qp)
		queProps[i] = unsafe.Slice(qp, n)
	}

	weight := 0
	for i, dev := range devs {
		if isVariant(devProps[i].apiVersion) {
			continue
		}
		fam := len(queProps[i])
		flg := C.VkFlags(C.VK_QUEUE_GRAPHICS_BIT | C.VK_QUEUE_COMPUTE_BIT)
		for j, qp := range queProps[i] {
			if qp.queueFlags&flg == flg {
				fam = j
				break
			}
		}
		if fam == len(queProps[i]) {
			continue
		}
		wgt := 1
		if devProps[i].deviceType&(C.VK_PHYSICAL_DEVICE_TYPE_INTEGRATED_GPU|C.VK_PHYSICAL_DEVICE_TYPE_DISCRETE_GPU) != 0 {
			wgt++
		}
		if exts, err := deviceExts(dev); err == nil {
			for _, e := range exts {
				if e == extSwapchain.name() {
					wgt += 2
					break
				}
			}
		}
		if wgt > weight {
			c.pdev = dev
			devProps[i].deviceName[len(devProps[i].deviceName)-1] = 0
			c.dname = C.GoString(&devProps[i].deviceName[0])
			c.dvers = devProps[i].apiVersion
			c.ques = make([]C.VkQueue, len(queProps[i]))
			c.qfam = C.uint32_t(fam)
			c.setLimits(&devProps[i].limits)
			weight = wgt
		}
	}
	if weight == 0 {
		return gpu.ErrNoDevice
	}
	C.vkGetPhysicalDeviceMemoryProperties(c.pdev, &c.mprop)
	c.mused = make([]int64, c.mprop.memoryHeapCount)

	quePrio := (*C.float)(C.malloc(C.sizeof_float))
	defer C.free(unsafe.Pointer(quePrio))
	*quePrio = 1.0
	queInfos := (*C.VkDeviceQueueCreateInfo)(C.malloc(C.sizeof_VkDeviceQueueCreateInfo * C.size_t(len(c.ques))))
	defer C.free(unsafe.Pointer(queInfos))
	qis := unsafe.Slice(queInfos, len(c.ques))
	for i := range qis {
		qis[i] = C.VkDeviceQueueCreateInfo{
			sType: C.VK_STRUCTURE_TYPE_DEVICE_QUEUE_CREATE_INFO,
			queueFamilyIndex: C.uint32_t(i), queueCount: 1, pQueuePriorities: quePrio,
		}
	}
	info := C.VkDeviceCreateInfo{
		sType: C.VK_STRUCTURE_TYPE_DEVICE_CREATE_INFO,
		queueCreateInfoCount: C.uint32_t(len(c.ques)), pQueueCreateInfos: queInfos,
	}
	free, err := c.setDeviceExts(&info)
	defer free()
	if err != nil {
		return err
	}
	defer c.setFeatures(&info)()
	if err := checkResult(C.vkCreateDevice(c.pdev, &info, nil, &c.dev)); err != nil {
		return err
	}
	C.getDeviceProcs(c.dev)
	for i := range c.ques {
		C.vkGetDeviceQueue(c.dev, C.uint32_t(i), 0, &c.ques[i])
	}
	return nil
}

func (c *Context) setLimits(lim *C.VkPhysicalDeviceLimits) {
	c.limits = gpu.Limits{
		MaxTextureDim1D:   int(lim.maxImageDimension1D),
		MaxTextureDim2D:   int(lim.maxImageDimension2D),
		MaxTextureDim3D:   int(lim.maxImageDimension3D),
		MaxTextureDimCube: int(lim.maxImageDimensionCube),
		MaxLayers:         int(lim.maxImageArrayLayers),
		MaxColorAttachments: func() int {
			v := int(lim.maxColorAttachments)
			if v > gpu.MaxColorAttachments {
				v = gpu.MaxColorAttachments
			}
			return v
		}(),
		MaxVertexAttributes: int(lim.maxVertexInputAttributes),
		MaxVertexBuffers:    gpu.MaxVertexBuffers,
		MaxDrawBuffers:      int(lim.maxColorAttachments),
		MaxSamples:          64,
		MaxUniformBlockSize: int64(lim.maxUniformBufferRange),
		MaxStorageBlockSize: int64(lim.maxStorageBufferRange),
		MinUniformBlockOffsetAlignment: int64(lim.minUniformBufferOffsetAlignment),
		MinStorageBlockOffsetAlignment: int64(lim.minStorageBufferOffsetAlignment),
		MaxComputeWorkGroupCount: [3]int{
			int(lim.maxComputeWorkGroupCount[0]), int(lim.maxComputeWorkGroupCount[1]), int(lim.maxComputeWorkGroupCount[2]),
		},
		MaxComputeWorkGroupSize: [3]int{
			int(lim.maxComputeWorkGroupSize[0]), int(lim.maxComputeWorkGroupSize[1]), int(lim.maxComputeWorkGroupSize[2]),
		},
		MaxComputeWorkGroupInvocations: int(lim.maxComputeWorkGroupInvocations),
		MaxComputeSharedMemorySize:     int(lim.maxComputeSharedMemorySize),

		// A device-reported ceiling on the cumulative set count a
		// BindGroupLayout's pool chain may grow to (spec §9's
		// flagged pool-growth ambiguity): maxBoundDescriptorSets
		// is a per-pipeline-layout bound, not a pool-size bound,
		// so it is used here only as a conservative stand-in
		// ceiling per layout rather than left unbounded.
		MaxDescriptorSetsPerPool: int(lim.maxBoundDescriptorSets) * 1024,
	}
}

func (c *Context) setFeatures(info *C.VkDeviceCreateInfo) (free func()) {
	var fq C.VkPhysicalDeviceFeatures
	C.vkGetPhysicalDeviceFeatures(c.pdev, &fq)
	feat := (*C.VkPhysicalDeviceFeatures)(C.malloc(C.size_t(unsafe.Sizeof(fq))))
	*feat = C.VkPhysicalDeviceFeatures{
		fullDrawIndexUint32: fq.fullDrawIndexUint32,
		imageCubeArray:      fq.imageCubeArray,
		independentBlend:    fq.independentBlend,
		fillModeNonSolid:    fq.fillModeNonSolid,
		samplerAnisotropy:   fq.samplerAnisotropy,
		fragmentStoresAndAtomics: fq.fragmentStoresAndAtomics,
		shaderClipDistance:       fq.shaderClipDistance,
	}
	info.pEnabledFeatures = feat

	dynr := (*C.VkPhysicalDeviceDynamicRenderingFeaturesKHR)(C.malloc(C.sizeof_VkPhysicalDeviceDynamicRenderingFeaturesKHR))
	sync2 := (*C.VkPhysicalDeviceSynchronization2FeaturesKHR)(C.malloc(C.sizeof_VkPhysicalDeviceSynchronization2FeaturesKHR))
	*sync2 = C.VkPhysicalDeviceSynchronization2FeaturesKHR{
		sType: C.VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_SYNCHRONIZATION_2_FEATURES_KHR, synchronization2: C.VK_TRUE,
	}
	*dynr = C.VkPhysicalDeviceDynamicRenderingFeaturesKHR{
		sType: C.VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_DYNAMIC_RENDERING_FEATURES_KHR,
		pNext: unsafe.Pointer(sync2), dynamicRendering: C.VK_TRUE,
	}
	proxy := (*C.VkBaseOutStructure)(unsafe.Pointer(info))
	for proxy.pNext != nil {
		proxy = proxy.pNext
	}
	proxy.pNext = (*C.VkBaseOutStructure)(unsafe.Pointer(dynr))
	return func() {
		C.free(unsafe.Pointer(feat))
		C.free(unsafe.Pointer(dynr))
		C.free(unsafe.Pointer(sync2))
	}
}

func (c *Context) queryFeatures() {
	c.features = gpu.FeatureCompute | gpu.FeatureImageLoadStore | gpu.FeatureStorageBuffer |
		gpu.FeatureBufferMapPersistent | gpu.FeatureColorResolve | gpu.FeatureDepthStencilResolve |
		gpu.FeatureInstancedDraw | gpu.FeatureTextureCubeMap | gpu.FeatureTexture3D
}

// Limits implements gpu.Context.
func (c *Context) Limits() gpu.Limits { return c.limits }

// Features implements gpu.Context.
func (c *Context) Features() gpu.Features { return c.features }

// DummyTexture implements gpu.Context.
func (c *Context) DummyTexture() gpu.Texture { return c.dummy }

// TransformProjectionMatrix implements gpu.Context: Vulkan's
// clip space has y pointing down and z in [0,1], unlike the
// engine's OpenGL-style convention, so the projection matrix
// must be post-multiplied to compensate (spec §4.1).
func (c *Context) TransformProjectionMatrix(m *[16]float32) {
	post := [16]float32{
		1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, 0.5, 0,
		0, 0, 0.5, 1,
	}
	*m = mul4(post, *m)
}

func mul4(a, b [16]float32) [16]float32 {
	var r [16]float32
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	return r
}

// TransformCullMode implements gpu.Context: the y-flip in
// TransformProjectionMatrix reverses triangle winding, so the
// cull mode must be swapped to compensate (spec §4.1).
func (c *Context) TransformCullMode(cm gpu.CullMode) gpu.CullMode {
	switch cm {
	case gpu.CullFront:
		return gpu.CullBack
	case gpu.CullBack:
		return gpu.CullFront
	default:
		return cm
	}
}

// RendertargetUVCoordMatrix implements gpu.Context: Vulkan's
// rendertarget origin already matches the "standard" top-left
// convention, so this is the identity.
func (c *Context) RendertargetUVCoordMatrix(m *[16]float32) {
	*m = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

// GetPreferredDepthFormat implements gpu.Context.
func (c *Context) GetPreferredDepthFormat() gpu.PixelFmt { return gpu.D32sf }

// GetPreferredDepthStencilFormat implements gpu.Context.
func (c *Context) GetPreferredDepthStencilFormat() gpu.PixelFmt {
	var prop C.VkFormatProperties
	C.vkGetPhysicalDeviceFormatProperties(c.pdev, C.VK_FORMAT_D24_UNORM_S8_UINT, &prop)
	if prop.optimalTilingFeatures&C.VK_FORMAT_FEATURE_DEPTH_STENCIL_ATTACHMENT_BIT != 0 {
		return gpu.D24unS8ui
	}
	return gpu.D32sfS8ui
}

// GetFormatFeatures implements gpu.Context.
func (c *Context) GetFormatFeatures(f gpu.PixelFmt) gpu.FormatFeature {
	if !f.Valid() {
		return 0
	}
	var prop C.VkFormatProperties
	C.vkGetPhysicalDeviceFormatProperties(c.pdev, convPixelFmt(f), &prop)
	feat := prop.optimalTilingFeatures
	var out gpu.FormatFeature
	if feat&C.VK_FORMAT_FEATURE_SAMPLED_IMAGE_BIT != 0 {
		out |= gpu.FeatSampled
	}
	if feat&C.VK_FORMAT_FEATURE_SAMPLED_IMAGE_FILTER_LINEAR_BIT != 0 {
		out |= gpu.FeatSampledLinearFilter
	}
	if feat&C.VK_FORMAT_FEATURE_STORAGE_IMAGE_BIT != 0 {
		out |= gpu.FeatStorage
	}
	if feat&C.VK_FORMAT_FEATURE_COLOR_ATTACHMENT_BIT != 0 {
		out |= gpu.FeatColorAttachment
	}
	if feat&C.VK_FORMAT_FEATURE_COLOR_ATTACHMENT_BLEND_BIT != 0 {
		out |= gpu.FeatColorAttachmentBlend
	}
	if feat&C.VK_FORMAT_FEATURE_DEPTH_STENCIL_ATTACHMENT_BIT != 0 {
		out |= gpu.FeatDepthStencilAttachment | gpu.FeatDepthStencilResolve
	}
	if !f.IsDepth() && !f.IsStencil() {
		out |= gpu.FeatColorResolve
	}
	if feat&C.VK_FORMAT_FEATURE_VERTEX_BUFFER_BIT != 0 {
		out |= gpu.FeatVertexBuffer
	}
	return out
}

// initOffscreen builds the default color+depth attachments
// backing an offscreen context, mirroring gpu/gl's equivalent.
func (c *Context) initOffscreen() error {
	colorParams := gpu.TextureParams{
		Type: gpu.Texture2D, Format: gpu.RGBA8un,
		Width: int(c.cfg.Width), Height: int(c.cfg.Height), Layers: 1, Depth: 1,
		Usage: gpu.TexUsageColorAttachment | gpu.TexUsageTransferSrc,
	}
	colorTx, err := c.NewTexture(colorParams)
	if err != nil {
		return fmt.Errorf("vk: offscreen color target: %w", err)
	}
	c.defaultColor = colorTx.(*Texture)

	depthParams := gpu.TextureParams{
		Type: gpu.Texture2D, Format: c.GetPreferredDepthStencilFormat(),
		Width: int(c.cfg.Width), Height: int(c.cfg.Height), Layers: 1, Depth: 1,
		Usage: gpu.TexUsageDepthStencilAttachment,
	}
	depthTx, err := c.NewTexture(depthParams)
	if err != nil {
		return fmt.Errorf("vk: offscreen depth target: %w", err)
	}
	c.defaultDepth = depthTx.(*Texture)
	return nil
}

// Resize implements gpu.Context. Offscreen contexts tear down
// and rebuild the default attachments at the new dimensions; on-
// screen contexts recreate the swapchain against the surface's
// (possibly already-changed) current extent.
func (c *Context) Resize(width, height int32) error {
	if c.sc != nil {
		return c.sc.resize(width, height)
	}
	if !c.cfg.Offscreen {
		return fmt.Errorf("vk: resize requires an offscreen or on-screen context: %w", gpu.ErrUsage)
	}
	c.cfg.Width, c.cfg.Height = width, height
	if c.defaultColor != nil {
		c.defaultColor.Destroy()
	}
	if c.defaultDepth != nil {
		c.defaultDepth.Destroy()
	}
	return c.initOffscreen()
}

// SetCaptureBuffer implements gpu.Context.
func (c *Context) SetCaptureBuffer(buf []byte) error {
	if !c.cfg.Offscreen {
		return fmt.Errorf("vk: capture buffer requires an offscreen context: %w", gpu.ErrUsage)
	}
	c.captureBuf = buf
	return nil
}

// GetDefaultRendertarget implements gpu.Context.
func (c *Context) GetDefaultRendertarget(load gpu.LoadOp) (gpu.Rendertarget, error) {
	if c.sc != nil {
		tx := c.sc.texs[c.sc.curImg]
		params := gpu.RendertargetParams{
			Colors: []gpu.AttachmentParams{{Texture: tx, Load: load, Store: gpu.StoreStore}},
		}
		return c.NewRendertarget(params)
	}
	params := gpu.RendertargetParams{
		Colors: []gpu.AttachmentParams{{Texture: c.defaultColor, Load: load, Store: gpu.StoreStore}},
	}
	if c.defaultDepth != nil {
		params.DepthStencil = &gpu.AttachmentParams{Texture: c.defaultDepth, Load: load, Store: gpu.StoreDontCare}
	}
	return c.NewRendertarget(params)
}

// WaitIdle implements gpu.Context.
func (c *Context) WaitIdle() {
	C.vkDeviceWaitIdle(c.dev)
	for _, cb := range append([]*CmdBuffer(nil), c.pending...) {
		cb.Wait()
	}
}

// Destroy implements gpu.Context.
func (c *Context) Destroy() {
	if c.dev != nil {
		C.vkDeviceWaitIdle(c.dev)
		if c.dummy != nil {
			c.dummy.Destroy()
		}
		if c.defaultColor != nil {
			c.defaultColor.Destroy()
		}
		if c.defaultDepth != nil {
			c.defaultDepth.Destroy()
		}
		if c.sc != nil {
			c.sc.destroy()
		}
		c.stg.destroy()
		C.vkDestroyDevice(c.dev, nil)
	}
	if c.inst != nil {
		C.vkDestroyInstance(c.inst, nil)
	}
	C.clearProcs()
	c.close()
	*c = Context{}
}

// checkResult and error mapping are in errors.go.
var _ = runtime.GOOS
