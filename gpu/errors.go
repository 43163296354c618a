// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gpu

import "errors"

// Sentinel errors shared by every backend.
// Backends translate their own device-specific result codes
// through a single mapping function into one of these (or a
// wrapped variant of one of these), so callers never need to
// inspect backend-specific error types.
var (
	// ErrNoDevice means that no suitable device could be found
	// for the requested backend.
	ErrNoDevice = errors.New("gpu: no suitable device found")

	// ErrUsage means that a call violated a usage invariant
	// (bad dimensions, capture buffer on an on-screen context,
	// more color attachments than the device limit, a missing
	// required usage flag, ...). The caller must not proceed
	// as though the call had succeeded.
	ErrUsage = errors.New("gpu: usage error")

	// ErrUnsupported means that a requested feature or format
	// combination is not supported by the device. Some callers
	// can recover from this (a feature downgrade with a
	// logged warning); others must surface it.
	ErrUnsupported = errors.New("gpu: unsupported")

	// ErrOutOfDate means that the swapchain is out of date and
	// must be recreated. Recovered internally by the frame
	// driver; only escapes to callers that bypass it.
	ErrOutOfDate = errors.New("gpu: swapchain out of date")

	// ErrOutOfHostMemory and ErrOutOfDeviceMemory mirror the
	// corresponding Vulkan result codes; both backends map any
	// allocation failure to one of these.
	ErrOutOfHostMemory   = errors.New("gpu: out of host memory")
	ErrOutOfDeviceMemory = errors.New("gpu: out of device memory")

	// ErrFatal means that the context suffered a device loss
	// or other unrecoverable condition. The context is no
	// longer usable; every resource it created must be
	// destroyed and the context itself must be destroyed.
	ErrFatal = errors.New("gpu: fatal device error")
)
