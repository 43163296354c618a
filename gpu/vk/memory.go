// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

// #include <proc.h>
import "C"

import (
	"errors"
	"unsafe"
)

// memory represents a device memory allocation.
type memory struct {
	ctx   *Context
	size  int64
	vis   bool
	bound bool
	p     []byte
	mem   C.VkDeviceMemory
	typ   int
	heap  int
}

// selectMemory selects a suitable memory type from the device.
// It returns the index of the selected memory, or -1 if none suffices.
func (c *Context) selectMemory(typeBits uint, prop C.VkMemoryPropertyFlags) int {
	for i := 0; i < int(c.mprop.memoryTypeCount); i++ {
		if 1<<i&typeBits != 0 {
			flags := c.mprop.memoryTypes[i].propertyFlags
			if flags&prop == prop {
				return i
			}
		}
	}
	return -1
}

// newMemory creates a new memory allocation.
func (c *Context) newMemory(req C.VkMemoryRequirements, visible bool) (*memory, error) {
	var prop C.VkMemoryPropertyFlags = C.VK_MEMORY_PROPERTY_DEVICE_LOCAL_BIT
	if visible {
		prop |= C.VK_MEMORY_PROPERTY_HOST_VISIBLE_BIT | C.VK_MEMORY_PROPERTY_HOST_COHERENT_BIT
	}

	typ := c.selectMemory(uint(req.memoryTypeBits), prop)
	if typ == -1 {
		prop &^= C.VK_MEMORY_PROPERTY_DEVICE_LOCAL_BIT
		typ = c.selectMemory(uint(req.memoryTypeBits), prop)
	}
	if typ == -1 {
		return nil, errors.New("vk: no suitable memory type found")
	}

	info := C.VkMemoryAllocateInfo{
		sType: C.VK_STRUCTURE_TYPE_MEMORY_ALLOCATE_INFO,
		allocationSize: req.size, memoryTypeIndex: C.uint32_t(typ),
	}
	var mem C.VkDeviceMemory
	if err := checkResult(C.vkAllocateMemory(c.dev, &info, nil, &mem)); err != nil {
		return nil, err
	}
	heap := int(c.mprop.memoryTypes[typ].heapIndex)
	c.mused[heap] += int64(req.size)

	return &memory{ctx: c, size: int64(req.size), vis: visible, mem: mem, typ: typ, heap: heap}, nil
}

// mmap maps the memory for host access. The memory must be host
// visible (m.vis) and must have been bound to a resource (m.bound).
func (m *memory) mmap() error {
	if !m.vis || !m.bound {
		panic("vk: cannot map memory that is not host visible and bound")
	}
	if len(m.p) == 0 {
		var p unsafe.Pointer
		if err := checkResult(C.vkMapMemory(m.ctx.dev, m.mem, 0, C.VK_WHOLE_SIZE, 0, &p)); err != nil {
			return err
		}
		m.p = unsafe.Slice((*byte)(p), m.size)
	}
	return nil
}

// unmap unmaps the memory.
func (m *memory) unmap() {
	if len(m.p) != 0 {
		C.vkUnmapMemory(m.ctx.dev, m.mem)
		m.p = nil
	}
}

// free deallocates and invalidates the memory.
func (m *memory) free() {
	if m == nil {
		return
	}
	if m.ctx != nil {
		C.vkFreeMemory(m.ctx.dev, m.mem, nil)
		m.ctx.mused[m.heap] -= m.size
	}
	*m = memory{}
}
