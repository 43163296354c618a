// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build !android

package vk

import (
	"github.com/nopeforge/nope-gpu/wsi"
)

// platformInstanceExts returns the surface extension matching the
// windowing system that wsi has detected.
func platformInstanceExts() extInfo {
	switch wsi.PlatformInUse() {
	case wsi.Wayland:
		return extInfo{optional: []extension{extSurface, extWaylandSurface}}
	case wsi.XCB:
		return extInfo{optional: []extension{extSurface, extXCBSurface}}
	default:
		return extInfo{}
	}
}

func platformDeviceExts(c *Context) extInfo {
	if c.exts[extSurface] {
		return extInfo{optional: []extension{extSwapchain}}
	}
	return extInfo{}
}
