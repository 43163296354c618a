// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gpu

import "log"

// Logger is the side-channel used for recoverable-error and
// diagnostic warnings (descriptor-pool growth, swapchain
// recreation, MSAA/depth-resolve downgrades, driver
// registration). Embedders redirect it by assignment; it is
// never used to report a fatal condition, which is always
// returned as an error instead.
var Logger = log.Default()

func warnf(format string, args ...any) {
	Logger.Printf("[gpu] "+format, args...)
}
