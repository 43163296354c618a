// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build !linux && !windows && !android

package vk

// platformInstanceExts/platformDeviceExts for platforms with no
// windowing-system surface extension (headless builds).
func platformInstanceExts() extInfo { return extInfo{} }

func platformDeviceExts(c *Context) extInfo { return extInfo{} }
