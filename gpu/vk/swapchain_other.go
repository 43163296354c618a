// Copyright 2024 The nope-gpu Authors. All rights reserved.

//go:build !linux

package vk

import (
	"fmt"

	"github.com/nopeforge/nope-gpu/gpu"
)

// initSurface is unimplemented outside Linux/XCB: no Win32 or
// Android surface creation is wired up here, although wsi
// exports HinstWin32/HwndWin32 on Windows.
func (s *swapchain) initSurface() error {
	return fmt.Errorf("vk: on-screen contexts are only wired up for XCB surfaces: %w", gpu.ErrUnsupported)
}
