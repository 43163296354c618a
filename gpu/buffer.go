// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gpu

// BufferUsage is a mask of valid uses for a Buffer.
type BufferUsage int

// Buffer usage flags (spec §3 "Buffer").
const (
	UsageTransferSrc BufferUsage = 1 << iota
	UsageTransferDst
	UsageUniform
	UsageStorage
	UsageIndex
	UsageVertex
	UsageDynamic
	UsageMapRead
	UsageMapWrite
)

// HostVisible reports whether u requires host-visible memory
// (spec §4.2 memory-property selection).
func (u BufferUsage) HostVisible() bool {
	return u&(UsageMapRead|UsageMapWrite|UsageDynamic) != 0
}

// Buffer is GPU-visible linear memory. Once Init succeeds,
// its size and usage are immutable (spec §3).
type Buffer interface {
	Destroyer
	RefCounted

	// Size returns the buffer's immutable size in bytes.
	Size() int64

	// Usage returns the buffer's immutable usage mask.
	Usage() BufferUsage

	// Upload writes data into the buffer starting at offset,
	// following the algorithm in spec §4.2: a direct map/memcpy
	// for host-visible buffers, or a staging-buffer copy
	// through a transient command buffer otherwise. usage must
	// include UsageTransferDst if the buffer is not host
	// visible.
	Upload(data []byte, offset int64) error

	// Map returns a slice over [offset, offset+size) of the
	// buffer's memory. The buffer must have been created with
	// UsageMapRead or UsageMapWrite.
	Map(offset, size int64) ([]byte, error)

	// Unmap invalidates the slice returned by the most recent
	// Map call.
	Unmap()

	// Wait blocks until every command buffer that references
	// this buffer has had its fence signalled, then clears the
	// reference list. Callers must call Wait before rewriting a
	// UsageDynamic buffer that may still be read by a pending
	// submission.
	Wait()
}
