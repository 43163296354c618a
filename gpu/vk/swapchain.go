// Copyright 2024 The nope-gpu Authors. All rights reserved.

package vk

// #include <stdlib.h>
// #include <proc.h>
import "C"

import (
	"fmt"

	"github.com/nopeforge/nope-gpu/gpu"
	"github.com/nopeforge/nope-gpu/wsi"
)

// swapchain wraps a VkSwapchainKHR and the per-image resources
// needed to acquire, render into and present a backbuffer.
// Unlike driver/vk's swapchain, this one never has to reconcile
// a present queue that differs from the graphics queue: the
// single queue family initDevice selects already weighs a
// candidate family higher when it can support the swapchain
// extension, and Init fails outright (see presQueueFor) rather
// than carry driver/vk's queue-ownership-transfer command
// buffers for the general case.
type swapchain struct {
	ctx *Context
	win wsi.Window

	sf C.VkSurfaceKHR
	sc C.VkSwapchainKHR
	pf gpu.PixelFmt
	w, h int

	imgs  []C.VkImage
	views []C.VkImageView
	texs  []*Texture

	// acquireSems is a small fixed pool, sized independently of
	// the image count: acquisition order need not match
	// presentation order, so nbInFlightFrames semaphores bound
	// how many acquisitions can be outstanding without growing
	// with the swapchain's image count.
	acquireSems []C.VkSemaphore
	nextSem     int

	// presentSems holds one semaphore per swapchain image,
	// since the wait the present call performs is specific to
	// whichever submission last rendered into that image.
	presentSems []C.VkSemaphore

	curImg  int
	curSem  C.VkSemaphore
	broken  bool
}

// initSwapchain creates the context's on-screen swapchain from
// cfg.Surface. Called from Context.Init when cfg.Surface != nil.
func (c *Context) initSwapchain() error {
	if !c.exts[extSurface] || !c.exts[extSwapchain] {
		return fmt.Errorf("vk: on-screen context requires surface+swapchain extensions: %w", gpu.ErrNoDevice)
	}
	win, ok := c.cfg.Surface.(wsi.Window)
	if !ok {
		return fmt.Errorf("vk: Config.Surface must be a wsi.Window: %w", gpu.ErrUsage)
	}
	s := &swapchain{ctx: c, win: win}
	if err := s.initSurface(); err != nil {
		return err
	}
	qfam, err := c.presQueueFor(s.sf)
	if err != nil {
		C.vkDestroySurfaceKHR(c.inst, s.sf, nil)
		return err
	}
	if qfam != c.qfam {
		C.vkDestroySurfaceKHR(c.inst, s.sf, nil)
		return fmt.Errorf("vk: surface requires a distinct present queue family, unsupported by this backend: %w", gpu.ErrUnsupported)
	}
	if err := s.create(); err != nil {
		C.vkDestroySurfaceKHR(c.inst, s.sf, nil)
		return err
	}
	c.sc = s
	return nil
}

// presQueueFor returns the index of a queue family supporting
// presentation to sf, preferring the context's own family first
// since a match there is the only configuration this backend
// knows how to drive without queue-ownership transfers.
func (c *Context) presQueueFor(sf C.VkSurfaceKHR) (C.uint32_t, error) {
	n := C.uint32_t(len(c.ques))
	var sup C.VkBool32
	for i := C.uint32_t(0); i < n; i++ {
		qfam := (i + c.qfam) % n
		if err := checkResult(C.vkGetPhysicalDeviceSurfaceSupportKHR(c.pdev, qfam, sf, &sup)); err != nil {
			return 0, err
		}
		if sup == C.VK_TRUE {
			return qfam, nil
		}
	}
	return 0, fmt.Errorf("vk: no queue family supports presentation to this surface: %w", gpu.ErrUnsupported)
}

// surfaceFormat pairs a preferred gpu.PixelFmt with the VkFormat
// it must match on the surface. gpu.PixelFmt carries no
// channel-order distinction (no BGRA8 counterpart to RGBA8), so
// only R8G8B8A8 surface formats are considered: a device whose
// surface advertises only B8G8R8A8 variants is not presentable
// by this backend (recorded in DESIGN.md).
var surfaceFormats = []struct {
	pf gpu.PixelFmt
	f  C.VkFormat
}{
	{gpu.RGBA8sRGB, C.VK_FORMAT_R8G8B8A8_SRGB},
	{gpu.RGBA8un, C.VK_FORMAT_R8G8B8A8_UNORM},
}

// create builds the VkSwapchainKHR, its image views and the
// synchronization objects presentation needs, from s.sf.
func (s *swapchain) create() error {
	var capab C.VkSurfaceCapabilitiesKHR
	if err := checkResult(C.vkGetPhysicalDeviceSurfaceCapabilitiesKHR(s.ctx.pdev, s.sf, &capab)); err != nil {
		return err
	}
	nimg := capab.minImageCount + 1
	if capab.maxImageCount != 0 && nimg > capab.maxImageCount {
		nimg = capab.maxImageCount
	}
	var extent C.VkExtent2D
	if capab.currentExtent.width == ^C.uint32_t(0) {
		extent.width = C.uint32_t(s.win.Width())
		extent.height = C.uint32_t(s.win.Height())
	} else {
		extent = capab.currentExtent
	}
	if extent.width == 0 || extent.height == 0 {
		return fmt.Errorf("vk: surface reports zero extent: %w", gpu.ErrUsage)
	}
	var calpha C.VkCompositeAlphaFlagBitsKHR
	switch {
	case capab.supportedCompositeAlpha&C.VK_COMPOSITE_ALPHA_OPAQUE_BIT_KHR != 0:
		calpha = C.VK_COMPOSITE_ALPHA_OPAQUE_BIT_KHR
	case capab.supportedCompositeAlpha&C.VK_COMPOSITE_ALPHA_INHERIT_BIT_KHR != 0:
		calpha = C.VK_COMPOSITE_ALPHA_INHERIT_BIT_KHR
	default:
		return fmt.Errorf("vk: no usable composite alpha mode: %w", gpu.ErrUnsupported)
	}

	var nfmt C.uint32_t
	if err := checkResult(C.vkGetPhysicalDeviceSurfaceFormatsKHR(s.ctx.pdev, s.sf, &nfmt, nil)); err != nil {
		return err
	}
	fmts := make([]C.VkSurfaceFormatKHR, nfmt)
	if err := checkResult(C.vkGetPhysicalDeviceSurfaceFormatsKHR(s.ctx.pdev, s.sf, &nfmt, &fmts[0])); err != nil {
		return err
	}
	var chosen *C.VkSurfaceFormatKHR
	var pf gpu.PixelFmt
outer:
	for _, pref := range surfaceFormats {
		for i := range fmts {
			if fmts[i].format == pref.f {
				chosen, pf = &fmts[i], pref.pf
				break outer
			}
		}
	}
	if chosen == nil {
		return fmt.Errorf("vk: surface has no R8G8B8A8 format: %w", gpu.ErrUnsupported)
	}

	info := C.VkSwapchainCreateInfoKHR{
		sType: C.VK_STRUCTURE_TYPE_SWAPCHAIN_CREATE_INFO_KHR,
		surface: s.sf, minImageCount: nimg,
		imageFormat: chosen.format, imageColorSpace: chosen.colorSpace,
		imageExtent: extent, imageArrayLayers: 1,
		imageUsage: C.VK_IMAGE_USAGE_COLOR_ATTACHMENT_BIT,
		imageSharingMode: C.VK_SHARING_MODE_EXCLUSIVE,
		preTransform: capab.currentTransform, compositeAlpha: calpha,
		presentMode: C.VK_PRESENT_MODE_FIFO_KHR, clipped: C.VK_TRUE,
		oldSwapchain: s.sc,
	}
	old := s.sc
	var sc C.VkSwapchainKHR
	if err := checkResult(C.vkCreateSwapchainKHR(s.ctx.dev, &info, nil, &sc)); err != nil {
		return err
	}
	if old != nil {
		C.vkDestroySwapchainKHR(s.ctx.dev, old, nil)
	}
	s.sc = sc
	s.pf = pf
	s.w, s.h = int(extent.width), int(extent.height)

	if err := s.newViews(); err != nil {
		return err
	}
	return s.syncSetup()
}

// newViews fetches the swapchain images and wraps each in a
// Texture so BeginRenderPass/pipeline code can treat a
// backbuffer exactly like any other render target.
func (s *swapchain) newViews() error {
	for _, v := range s.views {
		C.vkDestroyImageView(s.ctx.dev, v, nil)
	}
	s.views = nil
	s.texs = nil

	var nimg C.uint32_t
	if err := checkResult(C.vkGetSwapchainImagesKHR(s.ctx.dev, s.sc, &nimg, nil)); err != nil {
		return err
	}
	s.imgs = make([]C.VkImage, nimg)
	if err := checkResult(C.vkGetSwapchainImagesKHR(s.ctx.dev, s.sc, &nimg, &s.imgs[0])); err != nil {
		return err
	}

	format := convPixelFmt(s.pf)
	subres := C.VkImageSubresourceRange{aspectMask: C.VK_IMAGE_ASPECT_COLOR_BIT, levelCount: 1, layerCount: 1}
	params := gpu.TextureParams{
		Type: gpu.Texture2D, Format: s.pf, Width: s.w, Height: s.h, Layers: 1, Depth: 1,
		Usage: gpu.TexUsageColorAttachment,
	}
	for _, img := range s.imgs {
		vinfo := C.VkImageViewCreateInfo{
			sType: C.VK_STRUCTURE_TYPE_IMAGE_VIEW_CREATE_INFO, image: img,
			viewType: C.VK_IMAGE_VIEW_TYPE_2D, format: format, subresourceRange: subres,
		}
		var view C.VkImageView
		if err := checkResult(C.vkCreateImageView(s.ctx.dev, &vinfo, nil, &view)); err != nil {
			return err
		}
		s.views = append(s.views, view)
		s.texs = append(s.texs, &Texture{ctx: s.ctx, img: img, view: view, fmt: format, subres: subres, params: params})
	}
	return nil
}

// syncSetup (re)creates the acquisition/presentation semaphores,
// sized as documented on the swapchain fields.
func (s *swapchain) syncSetup() error {
	for _, sem := range s.acquireSems {
		C.vkDestroySemaphore(s.ctx.dev, sem, nil)
	}
	for _, sem := range s.presentSems {
		C.vkDestroySemaphore(s.ctx.dev, sem, nil)
	}
	s.acquireSems = nil
	s.presentSems = nil
	info := C.VkSemaphoreCreateInfo{sType: C.VK_STRUCTURE_TYPE_SEMAPHORE_CREATE_INFO}
	for i := 0; i < nbInFlightFrames; i++ {
		var sem C.VkSemaphore
		if err := checkResult(C.vkCreateSemaphore(s.ctx.dev, &info, nil, &sem)); err != nil {
			return err
		}
		s.acquireSems = append(s.acquireSems, sem)
	}
	for range s.texs {
		var sem C.VkSemaphore
		if err := checkResult(C.vkCreateSemaphore(s.ctx.dev, &info, nil, &sem)); err != nil {
			return err
		}
		s.presentSems = append(s.presentSems, sem)
	}
	s.nextSem = 0
	return nil
}

// acquire returns the index of the next writable backbuffer and
// the semaphore the rendering submission must wait on.
func (s *swapchain) acquire() (int, C.VkSemaphore, error) {
	if s.broken {
		if err := s.recreate(); err != nil {
			return -1, nil, err
		}
	}
	sem := s.acquireSems[s.nextSem]
	s.nextSem = (s.nextSem + 1) % len(s.acquireSems)
	var idx C.uint32_t
	var null C.VkFence
	res := C.vkAcquireNextImageKHR(s.ctx.dev, s.sc, C.UINT64_MAX, sem, null, &idx)
	switch res {
	case C.VK_SUCCESS:
	case C.VK_SUBOPTIMAL_KHR:
		s.broken = true
	case C.VK_ERROR_OUT_OF_DATE_KHR:
		s.broken = true
		return -1, nil, gpu.ErrOutOfDate
	default:
		if err := checkResult(res); err != nil {
			return -1, nil, err
		}
	}
	s.curImg = int(idx)
	s.curSem = s.presentSems[idx]
	return int(idx), sem, nil
}

// present enqueues the currently acquired image for
// presentation, waiting on the semaphore the rendering
// submission signalled.
func (s *swapchain) present() error {
	idx := C.uint32_t(s.curImg)
	sc := s.sc
	info := C.VkPresentInfoKHR{
		sType: C.VK_STRUCTURE_TYPE_PRESENT_INFO_KHR,
		waitSemaphoreCount: 1, pWaitSemaphores: &s.curSem,
		swapchainCount: 1, pSwapchains: &sc, pImageIndices: &idx,
	}
	s.ctx.qmus[0].Lock()
	res := C.vkQueuePresentKHR(s.ctx.ques[0], &info)
	s.ctx.qmus[0].Unlock()
	switch res {
	case C.VK_SUCCESS:
		return nil
	case C.VK_SUBOPTIMAL_KHR, C.VK_ERROR_OUT_OF_DATE_KHR:
		s.broken = true
		return gpu.ErrOutOfDate
	default:
		return checkResult(res)
	}
}

// recreate rebuilds the swapchain at the window's current
// dimensions, keeping the surface.
func (s *swapchain) recreate() error {
	C.vkQueueWaitIdle(s.ctx.ques[s.ctx.qfam])
	if err := s.create(); err != nil {
		return err
	}
	s.broken = false
	return nil
}

// resize implements gpu.Context.Resize for on-screen contexts.
func (s *swapchain) resize(width, height int32) error {
	return s.recreate()
}

// destroy releases every resource owned by the swapchain.
func (s *swapchain) destroy() {
	if s == nil || s.ctx == nil {
		return
	}
	C.vkQueueWaitIdle(s.ctx.ques[s.ctx.qfam])
	for _, sem := range s.acquireSems {
		C.vkDestroySemaphore(s.ctx.dev, sem, nil)
	}
	for _, sem := range s.presentSems {
		C.vkDestroySemaphore(s.ctx.dev, sem, nil)
	}
	for _, v := range s.views {
		C.vkDestroyImageView(s.ctx.dev, v, nil)
	}
	if s.sc != nil {
		C.vkDestroySwapchainKHR(s.ctx.dev, s.sc, nil)
	}
	if s.sf != nil {
		C.vkDestroySurfaceKHR(s.ctx.inst, s.sf, nil)
	}
	*s = swapchain{}
}
