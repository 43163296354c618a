// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

// #include <proc.h>
import "C"

import (
	"fmt"

	"github.com/nopeforge/nope-gpu/gpu"
)

// Buffer implements gpu.Buffer.
type Buffer struct {
	gpu.Refcount

	ctx   *Context
	m     *memory
	buf   C.VkBuffer
	size  int64
	usage gpu.BufferUsage

	refs []gpu.CmdBuffer
}

// NewBuffer implements gpu.Context.
func (c *Context) NewBuffer(size int64, usage gpu.BufferUsage) (gpu.Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("vk: buffer size must be > 0: %w", gpu.ErrUsage)
	}
	var u C.VkBufferUsageFlags
	u |= C.VK_BUFFER_USAGE_TRANSFER_SRC_BIT | C.VK_BUFFER_USAGE_TRANSFER_DST_BIT
	if usage&gpu.UsageStorage != 0 {
		u |= C.VK_BUFFER_USAGE_STORAGE_BUFFER_BIT
	}
	if usage&gpu.UsageUniform != 0 {
		u |= C.VK_BUFFER_USAGE_UNIFORM_BUFFER_BIT
	}
	if usage&gpu.UsageVertex != 0 {
		u |= C.VK_BUFFER_USAGE_VERTEX_BUFFER_BIT
	}
	if usage&gpu.UsageIndex != 0 {
		u |= C.VK_BUFFER_USAGE_INDEX_BUFFER_BIT
	}

	info := C.VkBufferCreateInfo{
		sType: C.VK_STRUCTURE_TYPE_BUFFER_CREATE_INFO,
		size:  C.VkDeviceSize(size), usage: u, sharingMode: C.VK_SHARING_MODE_EXCLUSIVE,
	}
	var buf C.VkBuffer
	if err := checkResult(C.vkCreateBuffer(c.dev, &info, nil, &buf)); err != nil {
		return nil, err
	}
	var req C.VkMemoryRequirements
	C.vkGetBufferMemoryRequirements(c.dev, buf, &req)

	visible := usage.HostVisible()
	m, err := c.newMemory(req, visible)
	if err != nil {
		C.vkDestroyBuffer(c.dev, buf, nil)
		return nil, err
	}
	if err := checkResult(C.vkBindBufferMemory(c.dev, buf, m.mem, 0)); err != nil {
		m.free()
		C.vkDestroyBuffer(c.dev, buf, nil)
		return nil, err
	}
	m.bound = true
	if visible {
		// Persistent mapping for the buffer's lifetime, matching
		// FeatureBufferMapPersistent advertised by this backend
		// and gpu/gl's GL_MAP_PERSISTENT_BIT counterpart.
		if err := m.mmap(); err != nil {
			m.free()
			C.vkDestroyBuffer(c.dev, buf, nil)
			return nil, err
		}
	}
	return &Buffer{ctx: c, m: m, buf: buf, size: size, usage: usage}, nil
}

// Size implements gpu.Buffer.
func (b *Buffer) Size() int64 { return b.size }

// Usage implements gpu.Buffer.
func (b *Buffer) Usage() gpu.BufferUsage { return b.usage }

// Upload implements gpu.Buffer.
func (b *Buffer) Upload(data []byte, offset int64) error {
	if offset < 0 || offset+int64(len(data)) > b.size {
		return fmt.Errorf("vk: upload out of bounds: %w", gpu.ErrUsage)
	}
	if b.usage.HostVisible() && b.m.p != nil {
		copy(b.m.p[offset:], data)
		return nil
	}
	if b.usage&gpu.UsageTransferDst == 0 {
		return fmt.Errorf("vk: buffer missing UsageTransferDst: %w", gpu.ErrUsage)
	}
	staging, err := b.ctx.NewBuffer(int64(len(data)), gpu.UsageMapWrite)
	if err != nil {
		return err
	}
	defer staging.Destroy()
	copy(staging.(*Buffer).m.p, data)
	return b.ctx.ExecuteTransient(func(cb gpu.CmdBuffer) {
		vcb := cb.(*CmdBuffer)
		cb.Ref(staging.(*Buffer))
		cb.RefBuffer(b)
		region := C.VkBufferCopy{srcOffset: 0, dstOffset: C.VkDeviceSize(offset), size: C.VkDeviceSize(len(data))}
		C.vkCmdCopyBuffer(vcb.cb, staging.(*Buffer).buf, b.buf, 1, &region)
	})
}

// Map implements gpu.Buffer.
func (b *Buffer) Map(offset, size int64) ([]byte, error) {
	if b.m.p == nil {
		return nil, fmt.Errorf("vk: buffer not host visible: %w", gpu.ErrUsage)
	}
	if offset < 0 || offset+size > b.size {
		return nil, fmt.Errorf("vk: map out of bounds: %w", gpu.ErrUsage)
	}
	return b.m.p[offset : offset+size], nil
}

// Unmap implements gpu.Buffer: the memory stays persistently
// mapped for the buffer's lifetime, so this is a no-op.
func (b *Buffer) Unmap() {}

// Wait implements gpu.Buffer.
func (b *Buffer) Wait() {
	for _, cb := range b.refs {
		cb.Wait()
	}
	b.refs = b.refs[:0]
}

// addRef is called by CmdBuffer.RefBuffer.
func (b *Buffer) addRef(cb gpu.CmdBuffer) { b.refs = append(b.refs, cb) }

// Destroy implements gpu.Buffer.
func (b *Buffer) Destroy() {
	if b.buf != nil {
		C.vkDestroyBuffer(b.ctx.dev, b.buf, nil)
		b.m.free()
	}
	*b = Buffer{}
}
