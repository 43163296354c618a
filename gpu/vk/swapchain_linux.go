// Copyright 2024 The nope-gpu Authors. All rights reserved.

//go:build linux

package vk

// #include <proc.h>
import "C"

import (
	"fmt"

	"github.com/nopeforge/nope-gpu/gpu"
	"github.com/nopeforge/nope-gpu/wsi"
)

// initSurface creates s.sf from s.win, dispatching on whichever
// windowing platform wsi detected at startup. Only XCB is wired
// up: Wayland surface creation needs wl_display/wl_surface
// handles that wsi's Wayland backend does not yet export.
func (s *swapchain) initSurface() error {
	switch wsi.PlatformInUse() {
	case wsi.XCB:
		return s.initXCBSurface()
	default:
		return fmt.Errorf("vk: no surface extension for the active windowing platform: %w", gpu.ErrUnsupported)
	}
}

func (s *swapchain) initXCBSurface() error {
	if !s.ctx.exts[extXCBSurface] {
		return fmt.Errorf("vk: VK_KHR_xcb_surface not available: %w", gpu.ErrUnsupported)
	}
	info := C.VkXcbSurfaceCreateInfoKHR{
		sType:      C.VK_STRUCTURE_TYPE_XCB_SURFACE_CREATE_INFO_KHR,
		connection: (*C.xcb_connection_t)(wsi.ConnXCB()),
		window:     C.uint32_t(wsi.WindowXCB(s.win)),
	}
	var sf C.VkSurfaceKHR
	if err := checkResult(C.vkCreateXcbSurfaceKHR(s.ctx.inst, &info, nil, &sf)); err != nil {
		return err
	}
	s.sf = sf
	return nil
}
