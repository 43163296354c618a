// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

func platformInstanceExts() extInfo {
	return extInfo{optional: []extension{extSurface, extWin32Surface}}
}

func platformDeviceExts(c *Context) extInfo {
	if c.exts[extSurface] && c.exts[extWin32Surface] {
		return extInfo{optional: []extension{extSwapchain}}
	}
	return extInfo{}
}
