// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gl

import (
	"fmt"

	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nopeforge/nope-gpu/gpu"
)

// Buffer implements gpu.Buffer using a GL buffer object.
type Buffer struct {
	gpu.Refcount

	ctx   *Context
	name  uint32
	size  int64
	usage gpu.BufferUsage

	mapped []byte
	refs   []gpu.CmdBuffer
}

func glBufferTarget(u gpu.BufferUsage) uint32 {
	switch {
	case u&gpu.UsageIndex != 0:
		return glcore.ELEMENT_ARRAY_BUFFER
	case u&gpu.UsageVertex != 0:
		return glcore.ARRAY_BUFFER
	case u&gpu.UsageUniform != 0:
		return glcore.UNIFORM_BUFFER
	case u&gpu.UsageStorage != 0:
		return glcore.SHADER_STORAGE_BUFFER
	default:
		return glcore.COPY_WRITE_BUFFER
	}
}

// NewBuffer implements gpu.Context.
func (c *Context) NewBuffer(size int64, usage gpu.BufferUsage) (gpu.Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("gl: buffer size must be > 0: %w", gpu.ErrUsage)
	}
	var name uint32
	glcore.GenBuffers(1, &name)
	target := glBufferTarget(usage)
	glcore.BindBuffer(target, name)

	flags := uint32(0)
	if usage.HostVisible() {
		flags |= glcore.MAP_READ_BIT | glcore.MAP_WRITE_BIT | glcore.MAP_PERSISTENT_BIT | glcore.MAP_COHERENT_BIT
	}
	glcore.BufferStorage(target, int(size), nil, flags)
	glcore.BindBuffer(target, 0)

	b := &Buffer{ctx: c, name: name, size: size, usage: usage}
	if usage.HostVisible() {
		glcore.BindBuffer(target, name)
		p := glcore.MapBufferRange(target, 0, int(size), flags)
		glcore.BindBuffer(target, 0)
		if p != nil {
			b.mapped = unsafeBytes(p, int(size))
		}
	}
	return b, nil
}

// Size implements gpu.Buffer.
func (b *Buffer) Size() int64 { return b.size }

// Usage implements gpu.Buffer.
func (b *Buffer) Usage() gpu.BufferUsage { return b.usage }

// Upload implements gpu.Buffer, following the algorithm in
// spec §4.2: direct memcpy for host-visible buffers, a staging
// buffer + copy for everything else. GL buffer objects can
// always be written with glBufferSubData even when not
// persistently mapped, so the staging path collapses to a
// single subdata call here, with no command buffer involved.
func (b *Buffer) Upload(data []byte, offset int64) error {
	if offset < 0 || offset+int64(len(data)) > b.size {
		return fmt.Errorf("gl: upload out of bounds: %w", gpu.ErrUsage)
	}
	if b.usage.HostVisible() && b.mapped != nil {
		copy(b.mapped[offset:], data)
		return nil
	}
	target := glBufferTarget(b.usage)
	glcore.BindBuffer(target, b.name)
	glcore.BufferSubData(target, int(offset), len(data), glcore.Ptr(&data[0]))
	glcore.BindBuffer(target, 0)
	return nil
}

// Map implements gpu.Buffer.
func (b *Buffer) Map(offset, size int64) ([]byte, error) {
	if b.mapped == nil {
		return nil, fmt.Errorf("gl: buffer not host visible: %w", gpu.ErrUsage)
	}
	if offset < 0 || offset+size > b.size {
		return nil, fmt.Errorf("gl: map out of bounds: %w", gpu.ErrUsage)
	}
	return b.mapped[offset : offset+size], nil
}

// Unmap implements gpu.Buffer. GL_MAP_PERSISTENT_BIT buffers
// stay mapped for their lifetime, so this is a no-op and
// issues no memory barrier.
func (b *Buffer) Unmap() {}

// Wait implements gpu.Buffer: rendezvous with every command
// buffer that referenced this buffer, then clear the list.
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
	if b.name != 0 {
		glcore.DeleteBuffers(1, &b.name)
	}
	*b = Buffer{}
}
