// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

// #include <proc.h>
import "C"

import (
	"fmt"

	"github.com/nopeforge/nope-gpu/gpu"
)

// Texture implements gpu.Texture using a VkImage/VkImageView
// pair. Like driver/vk's image type, which transitions to
// VK_IMAGE_LAYOUT_GENERAL once at creation and leaves it there
// for the object's lifetime, this keeps the same convention:
// every usage (sampled, storage, attachment) is expressed
// through VK_IMAGE_LAYOUT_GENERAL so that render-pass
// transitions never have to track per-usage layouts, matching
// the layout-agnostic gpu.Texture contract.
type Texture struct {
	gpu.Refcount

	ctx    *Context
	m      *memory
	img    C.VkImage
	view   C.VkImageView
	fmt    C.VkFormat
	subres C.VkImageSubresourceRange
	params gpu.TextureParams
}

// NewTexture implements gpu.Context.
func (c *Context) NewTexture(params gpu.TextureParams) (gpu.Texture, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	format := convPixelFmt(params.Format)
	scount := convSamples(max(params.Samples, 1))
	aspect := aspectOf(params.Format)

	var typ C.VkImageType
	var flags C.VkImageCreateFlags
	switch params.Type {
	case gpu.Texture3D:
		typ = C.VK_IMAGE_TYPE_3D
	case gpu.TextureCube:
		flags |= C.VK_IMAGE_CREATE_CUBE_COMPATIBLE_BIT
		typ = C.VK_IMAGE_TYPE_2D
	default:
		typ = C.VK_IMAGE_TYPE_2D
	}

	var usage C.VkImageUsageFlags
	if params.Usage&gpu.TexUsageStorage != 0 {
		usage |= C.VK_IMAGE_USAGE_STORAGE_BIT
	}
	if params.Usage&gpu.TexUsageSampled != 0 {
		usage |= C.VK_IMAGE_USAGE_SAMPLED_BIT
	}
	if params.Usage&gpu.TexUsageColorAttachment != 0 {
		usage |= C.VK_IMAGE_USAGE_COLOR_ATTACHMENT_BIT
	}
	if params.Usage&gpu.TexUsageDepthStencilAttachment != 0 {
		usage |= C.VK_IMAGE_USAGE_DEPTH_STENCIL_ATTACHMENT_BIT
	}
	if params.Usage&gpu.TexUsageTransferSrc != 0 {
		usage |= C.VK_IMAGE_USAGE_TRANSFER_SRC_BIT
	}
	if params.Usage&gpu.TexUsageTransferDst != 0 {
		usage |= C.VK_IMAGE_USAGE_TRANSFER_DST_BIT
	}
	if usage == 0 {
		return nil, fmt.Errorf("vk: texture created without a valid usage: %w", gpu.ErrUsage)
	}

	layers := params.Layers
	if layers < 1 {
		layers = 1
	}
	depth := params.Depth
	if depth < 1 {
		depth = 1
	}

	info := C.VkImageCreateInfo{
		sType: C.VK_STRUCTURE_TYPE_IMAGE_CREATE_INFO,
		flags: flags, imageType: typ, format: format,
		extent: C.VkExtent3D{width: C.uint32_t(params.Width), height: C.uint32_t(params.Height), depth: C.uint32_t(depth)},
		mipLevels: C.uint32_t(params.MipLevels()), arrayLayers: C.uint32_t(layers),
		samples: scount, tiling: C.VK_IMAGE_TILING_OPTIMAL, usage: usage,
		sharingMode: C.VK_SHARING_MODE_EXCLUSIVE, initialLayout: C.VK_IMAGE_LAYOUT_UNDEFINED,
	}
	var img C.VkImage
	if err := checkResult(C.vkCreateImage(c.dev, &info, nil, &img)); err != nil {
		return nil, err
	}
	var req C.VkMemoryRequirements
	C.vkGetImageMemoryRequirements(c.dev, img, &req)
	m, err := c.newMemory(req, false)
	if err != nil {
		C.vkDestroyImage(c.dev, img, nil)
		return nil, err
	}
	if err := checkResult(C.vkBindImageMemory(c.dev, img, m.mem, 0)); err != nil {
		m.free()
		C.vkDestroyImage(c.dev, img, nil)
		return nil, err
	}
	m.bound = true

	subres := C.VkImageSubresourceRange{
		aspectMask: aspect, levelCount: C.uint32_t(params.MipLevels()), layerCount: C.uint32_t(layers),
	}

	t := &Texture{ctx: c, m: m, img: img, fmt: format, subres: subres, params: params}
	if err := t.transition(); err != nil {
		t.Destroy()
		return nil, err
	}

	viewType := C.VK_IMAGE_VIEW_TYPE_2D
	switch params.Type {
	case gpu.Texture3D:
		viewType = C.VK_IMAGE_VIEW_TYPE_3D
	case gpu.Texture2DArray:
		viewType = C.VK_IMAGE_VIEW_TYPE_2D_ARRAY
	case gpu.TextureCube:
		if layers > 6 {
			viewType = C.VK_IMAGE_VIEW_TYPE_CUBE_ARRAY
		} else {
			viewType = C.VK_IMAGE_VIEW_TYPE_CUBE
		}
	}
	vinfo := C.VkImageViewCreateInfo{
		sType: C.VK_STRUCTURE_TYPE_IMAGE_VIEW_CREATE_INFO, image: img,
		viewType: C.VkImageViewType(viewType), format: format, subresourceRange: subres,
	}
	if err := checkResult(C.vkCreateImageView(c.dev, &vinfo, nil, &t.view)); err != nil {
		t.Destroy()
		return nil, err
	}
	return t, nil
}

// transition moves the image to VK_IMAGE_LAYOUT_GENERAL using a
// transient command buffer, mirroring driver/vk/image.go.
func (t *Texture) transition() error {
	return t.ctx.ExecuteTransient(func(cb gpu.CmdBuffer) {
		vcb := cb.(*CmdBuffer)
		barrier := C.VkImageMemoryBarrier2KHR{
			sType: C.VK_STRUCTURE_TYPE_IMAGE_MEMORY_BARRIER_2_KHR,
			srcStageMask: C.VK_PIPELINE_STAGE_2_TOP_OF_PIPE_BIT_KHR,
			dstStageMask: C.VK_PIPELINE_STAGE_2_ALL_COMMANDS_BIT_KHR,
			dstAccessMask: C.VK_ACCESS_2_MEMORY_READ_BIT_KHR | C.VK_ACCESS_2_MEMORY_WRITE_BIT_KHR,
			oldLayout: C.VK_IMAGE_LAYOUT_UNDEFINED, newLayout: C.VK_IMAGE_LAYOUT_GENERAL,
			srcQueueFamilyIndex: C.VK_QUEUE_FAMILY_IGNORED, dstQueueFamilyIndex: C.VK_QUEUE_FAMILY_IGNORED,
			image: t.img, subresourceRange: t.subres,
		}
		dep := C.VkDependencyInfoKHR{
			sType: C.VK_STRUCTURE_TYPE_DEPENDENCY_INFO_KHR,
			imageMemoryBarrierCount: 1, pImageMemoryBarriers: &barrier,
		}
		C.vkCmdPipelineBarrier2KHR(vcb.cb, &dep)
	})
}

// Params implements gpu.Texture.
func (t *Texture) Params() gpu.TextureParams { return t.params }

// Upload implements gpu.Texture.
func (t *Texture) Upload(data []byte, linesize int) error {
	ppr := 0
	if bpp := t.params.Format.BytesPerPixel(); bpp > 0 {
		ppr = linesize / bpp
	}
	return t.UploadWithParams(data, gpu.UploadParams{
		Width: t.params.Width, Height: t.params.Height, Depth: max(t.params.Depth, 1),
		LayerCount: max(t.params.Layers, 1), PixelsPerRow: ppr,
	})
}

// UploadWithParams implements gpu.Texture via the context's pooled
// staging buffer and vkCmdCopyBufferToImage, mirroring the GL
// backend's pixel-unpack-buffer cache (spec §4.3): identical
// repeated calls reuse the same backing VkBuffer instead of
// allocating and freeing one on every upload.
func (t *Texture) UploadWithParams(data []byte, params gpu.UploadParams) error {
	staging, off, blocks, err := t.ctx.stg.acquire(t.ctx, len(data))
	if err != nil {
		return err
	}
	defer t.ctx.stg.release(off, blocks)
	copy(staging.m.p[off:], data)

	rowLen := params.PixelsPerRow
	return t.ctx.ExecuteTransient(func(cb gpu.CmdBuffer) {
		vcb := cb.(*CmdBuffer)
		cb.Ref(staging)
		cb.Ref(t)
		region := C.VkBufferImageCopy{
			bufferOffset: C.VkDeviceSize(off), bufferRowLength: C.uint32_t(rowLen), bufferImageHeight: 0,
			imageSubresource: C.VkImageSubresourceLayers{
				aspectMask: t.subres.aspectMask, mipLevel: 0,
				baseArrayLayer: C.uint32_t(params.BaseLayer), layerCount: C.uint32_t(max(params.LayerCount, 1)),
			},
			imageOffset: C.VkOffset3D{x: C.int32_t(params.X), y: C.int32_t(params.Y), z: C.int32_t(params.Z)},
			imageExtent: C.VkExtent3D{width: C.uint32_t(params.Width), height: C.uint32_t(params.Height), depth: C.uint32_t(max(params.Depth, 1))},
		}
		C.vkCmdCopyBufferToImage(vcb.cb, staging.buf, t.img, C.VK_IMAGE_LAYOUT_GENERAL, 1, &region)
	})
}

// GenerateMipmap implements gpu.Texture by blitting each level
// from the previous one, matching the algorithm in spec §4.3
// (Vulkan has no glGenerateMipmap equivalent, unlike gpu/gl).
func (t *Texture) GenerateMipmap() error {
	if t.params.Usage&(gpu.TexUsageTransferSrc|gpu.TexUsageTransferDst) != gpu.TexUsageTransferSrc|gpu.TexUsageTransferDst {
		return fmt.Errorf("vk: mipmap generation requires transfer src+dst usage: %w", gpu.ErrUsage)
	}
	levels := t.params.MipLevels()
	if levels < 2 {
		return nil
	}
	return t.ctx.ExecuteTransient(func(cb gpu.CmdBuffer) {
		vcb := cb.(*CmdBuffer)
		cb.Ref(t)
		w, h := t.params.Width, t.params.Height
		for lvl := 1; lvl < levels; lvl++ {
			sw, sh := w, h
			w, h = max(w/2, 1), max(h/2, 1)
			blit := C.VkImageBlit{
				srcSubresource: C.VkImageSubresourceLayers{aspectMask: t.subres.aspectMask, mipLevel: C.uint32_t(lvl - 1), layerCount: t.subres.layerCount},
				dstSubresource: C.VkImageSubresourceLayers{aspectMask: t.subres.aspectMask, mipLevel: C.uint32_t(lvl), layerCount: t.subres.layerCount},
			}
			blit.srcOffsets[1] = C.VkOffset3D{x: C.int32_t(sw), y: C.int32_t(sh), z: 1}
			blit.dstOffsets[1] = C.VkOffset3D{x: C.int32_t(w), y: C.int32_t(h), z: 1}
			C.vkCmdBlitImage(vcb.cb, t.img, C.VK_IMAGE_LAYOUT_GENERAL, t.img, C.VK_IMAGE_LAYOUT_GENERAL, 1, &blit, C.VK_FILTER_LINEAR)
		}
	})
}

// Destroy implements gpu.Texture.
func (t *Texture) Destroy() {
	if t.view != nil {
		C.vkDestroyImageView(t.ctx.dev, t.view, nil)
	}
	if t.img != nil {
		C.vkDestroyImage(t.ctx.dev, t.img, nil)
		t.m.free()
	}
	*t = Texture{}
}

// GenerateTextureMipmap implements gpu.Context.
func (c *Context) GenerateTextureMipmap(t gpu.Texture) error { return t.GenerateMipmap() }

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
