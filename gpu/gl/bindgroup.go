// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gl

import (
	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nopeforge/nope-gpu/gpu"
)

// BindGroupLayout implements gpu.BindGroupLayout. GL has no
// descriptor-set-layout object or pool to allocate from (unlike
// gpu/vk, spec §4.5's pool-chain growth has no GL equivalent:
// binding points are a flat global namespace, not a pre-baked
// allocation), so this type is just the ordered entry list used
// to validate BindGroup updates and to derive binding point
// indices at draw time.
type BindGroupLayout struct {
	gpu.Refcount
	entries []gpu.BindGroupLayoutEntry
}

// NewBindGroupLayout implements gpu.Context.
func (c *Context) NewBindGroupLayout(entries []gpu.BindGroupLayoutEntry) (gpu.BindGroupLayout, error) {
	cp := make([]gpu.BindGroupLayoutEntry, len(entries))
	copy(cp, entries)
	l := &BindGroupLayout{entries: cp}
	for _, e := range cp {
		if e.ImmutableSampler != nil {
			e.ImmutableSampler.(gpu.RefCounted)
		}
	}
	return l, nil
}

// Entries implements gpu.BindGroupLayout.
func (l *BindGroupLayout) Entries() []gpu.BindGroupLayoutEntry { return l.entries }

// Destroy implements gpu.BindGroupLayout.
func (l *BindGroupLayout) Destroy() { *l = BindGroupLayout{} }

// BindGroup implements gpu.BindGroup. Updates are applied
// eagerly to the binding point at Set time rather than lazily
// rewriting a descriptor set, since GL has no descriptor-set
// object to rewrite; the "dirty" bookkeeping from spec §4.5
// therefore has no observable effect on GL and is omitted
// rather than faked.
type BindGroup struct {
	gpu.Refcount

	ctx     *Context
	layout  *BindGroupLayout
	buffers map[int]gpu.BufferBinding
	textures map[int]gpu.TextureBinding
}

// NewBindGroup implements gpu.Context.
func (c *Context) NewBindGroup(layout gpu.BindGroupLayout) (gpu.BindGroup, error) {
	return &BindGroup{
		ctx: c, layout: layout.(*BindGroupLayout),
		buffers:  make(map[int]gpu.BufferBinding),
		textures: make(map[int]gpu.TextureBinding),
	}, nil
}

// Layout implements gpu.BindGroup.
func (g *BindGroup) Layout() gpu.BindGroupLayout { return g.layout }

// UpdateBuffer implements gpu.BindGroup.
func (g *BindGroup) UpdateBuffer(binding int, b gpu.BufferBinding) { g.buffers[binding] = b }

// UpdateTexture implements gpu.BindGroup.
func (g *BindGroup) UpdateTexture(binding int, t gpu.TextureBinding) { g.textures[binding] = t }

// Destroy implements gpu.BindGroup.
func (g *BindGroup) Destroy() { *g = BindGroup{} }

// bind issues the actual GL binding-point calls for every entry
// in the group, substituting the context's dummy texture for
// any unbound texture entry (spec §4.5, §4.9).
func (g *BindGroup) bind() {
	for _, e := range g.layout.entries {
		if e.Type.IsBuffer() {
			b, ok := g.buffers[e.Binding]
			if !ok || b.Buffer == nil {
				continue
			}
			target := uint32(glcore.UNIFORM_BUFFER)
			if e.Type == gpu.DescStorageBuffer || e.Type == gpu.DescStorageBufferDynamic {
				target = glcore.SHADER_STORAGE_BUFFER
			}
			glcore.BindBufferRange(target, uint32(e.Binding), b.Buffer.(*Buffer).name, int(b.Offset), int(b.Size))
			continue
		}
		t, ok := g.textures[e.Binding]
		tex := t.Texture
		if !ok || tex == nil {
			tex = g.ctx.dummy
		}
		tx := tex.(*Texture)
		switch e.Type {
		case gpu.DescStorageImage2D, gpu.DescStorageImage2DArray, gpu.DescStorageImage3D, gpu.DescStorageImageCube:
			_, format, _ := convFormat(tx.params.Format)
			glcore.BindImageTexture(uint32(e.Binding), tx.name, 0, true, 0, glcore.READ_WRITE, format)
		default:
			glcore.ActiveTexture(glcore.TEXTURE0 + uint32(e.Binding))
			glcore.BindTexture(tx.target, tx.name)
		}
	}
}
