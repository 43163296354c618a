// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

// #include <stdlib.h>
// #include <proc.h>
import "C"

import (
	"fmt"

	"github.com/nopeforge/nope-gpu/gpu"
)

// descPool is one link in a BindGroupLayout's descriptor-pool
// chain (spec §4.5): pools are never resized in place, only
// appended to, so sets already allocated out of an earlier pool
// stay valid while later BindGroups draw from a newer one.
type descPool struct {
	pool     C.VkDescriptorPool
	cap, n   int
}

// BindGroupLayout implements gpu.BindGroupLayout.
type BindGroupLayout struct {
	gpu.Refcount

	ctx     *Context
	layout  C.VkDescriptorSetLayout
	entries []gpu.BindGroupLayoutEntry

	pools []descPool
	total int // cumulative sets allocated across the chain
}

func descType(e gpu.BindGroupLayoutEntry) C.VkDescriptorType {
	switch e.Type {
	case gpu.DescUniformBuffer:
		return C.VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER
	case gpu.DescUniformBufferDynamic:
		return C.VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER_DYNAMIC
	case gpu.DescStorageBuffer:
		return C.VK_DESCRIPTOR_TYPE_STORAGE_BUFFER
	case gpu.DescStorageBufferDynamic:
		return C.VK_DESCRIPTOR_TYPE_STORAGE_BUFFER_DYNAMIC
	case gpu.DescStorageImage2D, gpu.DescStorageImage2DArray, gpu.DescStorageImage3D, gpu.DescStorageImageCube:
		return C.VK_DESCRIPTOR_TYPE_STORAGE_IMAGE
	default:
		return C.VK_DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER
	}
}

func descStages(s gpu.StageMask) C.VkShaderStageFlags {
	var f C.VkShaderStageFlags
	if s&gpu.StageVertex != 0 {
		f |= C.VK_SHADER_STAGE_VERTEX_BIT
	}
	if s&gpu.StageFragment != 0 {
		f |= C.VK_SHADER_STAGE_FRAGMENT_BIT
	}
	if s&gpu.StageCompute != 0 {
		f |= C.VK_SHADER_STAGE_COMPUTE_BIT
	}
	return f
}

// NewBindGroupLayout implements gpu.Context.
func (c *Context) NewBindGroupLayout(entries []gpu.BindGroupLayoutEntry) (gpu.BindGroupLayout, error) {
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if seen[e.Binding] {
			return nil, fmt.Errorf("vk: duplicate binding %d: %w", e.Binding, gpu.ErrUsage)
		}
		seen[e.Binding] = true
	}

	bindings := make([]C.VkDescriptorSetLayoutBinding, len(entries))
	for i, e := range entries {
		bindings[i] = C.VkDescriptorSetLayoutBinding{
			binding: C.uint32_t(e.Binding), descriptorType: descType(e),
			descriptorCount: 1, stageFlags: descStages(e.Stages),
		}
	}
	info := C.VkDescriptorSetLayoutCreateInfo{sType: C.VK_STRUCTURE_TYPE_DESCRIPTOR_SET_LAYOUT_CREATE_INFO}
	if len(bindings) > 0 {
		info.bindingCount = C.uint32_t(len(bindings))
		info.pBindings = &bindings[0]
	}
	var layout C.VkDescriptorSetLayout
	if err := checkResult(C.vkCreateDescriptorSetLayout(c.dev, &info, nil, &layout)); err != nil {
		return nil, err
	}
	cp := append([]gpu.BindGroupLayoutEntry(nil), entries...)
	return &BindGroupLayout{ctx: c, layout: layout, entries: cp}, nil
}

// Entries implements gpu.BindGroupLayout.
func (l *BindGroupLayout) Entries() []gpu.BindGroupLayoutEntry { return l.entries }

// grow appends a new pool to the chain, doubling the previous
// pool's capacity (or starting at gpu.BindGroupLayoutChainStart),
// unless Limits.MaxDescriptorSetsPerPool would be exceeded.
func (l *BindGroupLayout) grow() error {
	next := gpu.BindGroupLayoutChainStart
	if n := len(l.pools); n > 0 {
		next = l.pools[n-1].cap * 2
	}
	if ceil := l.ctx.limits.MaxDescriptorSetsPerPool; ceil > 0 && l.total+next > ceil {
		next = ceil - l.total
		if next <= 0 {
			return fmt.Errorf("vk: bindgroup layout pool chain exhausted at %d sets: %w", l.total, gpu.ErrUsage)
		}
	}

	var sizes [5]C.VkDescriptorPoolSize
	n := 0
	add := func(typ C.VkDescriptorType, cnt int) {
		if cnt == 0 {
			return
		}
		sizes[n] = C.VkDescriptorPoolSize{typ: typ, descriptorCount: C.uint32_t(cnt * next)}
		n++
	}
	var nbuf, nimg, nconst, ntex, nsplr int
	for _, e := range l.entries {
		switch descType(e) {
		case C.VK_DESCRIPTOR_TYPE_STORAGE_BUFFER, C.VK_DESCRIPTOR_TYPE_STORAGE_BUFFER_DYNAMIC:
			nbuf++
		case C.VK_DESCRIPTOR_TYPE_STORAGE_IMAGE:
			nimg++
		case C.VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER, C.VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER_DYNAMIC:
			nconst++
		default:
			ntex++
			nsplr++
		}
	}
	add(C.VK_DESCRIPTOR_TYPE_STORAGE_BUFFER, nbuf)
	add(C.VK_DESCRIPTOR_TYPE_STORAGE_IMAGE, nimg)
	add(C.VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER, nconst)
	add(C.VK_DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER, ntex)
	_ = nsplr
	if n == 0 {
		return fmt.Errorf("vk: bindgroup layout has no descriptor entries: %w", gpu.ErrUsage)
	}

	info := C.VkDescriptorPoolCreateInfo{
		sType: C.VK_STRUCTURE_TYPE_DESCRIPTOR_POOL_CREATE_INFO,
		maxSets: C.uint32_t(next), poolSizeCount: C.uint32_t(n), pPoolSizes: &sizes[0],
	}
	var pool C.VkDescriptorPool
	if err := checkResult(C.vkCreateDescriptorPool(l.ctx.dev, &info, nil, &pool)); err != nil {
		return err
	}
	l.pools = append(l.pools, descPool{pool: pool, cap: next})
	l.total += next
	return nil
}

// alloc returns a new descriptor set from the chain, growing it
// if every existing pool is exhausted.
func (l *BindGroupLayout) alloc() (C.VkDescriptorSet, error) {
	for i := range l.pools {
		p := &l.pools[i]
		if p.n < p.cap {
			info := C.VkDescriptorSetAllocateInfo{
				sType: C.VK_STRUCTURE_TYPE_DESCRIPTOR_SET_ALLOCATE_INFO,
				descriptorPool: p.pool, descriptorSetCount: 1, pSetLayouts: &l.layout,
			}
			var set C.VkDescriptorSet
			if err := checkResult(C.vkAllocateDescriptorSets(l.ctx.dev, &info, &set)); err != nil {
				continue // fragmented pool: fall through and grow
			}
			p.n++
			return set, nil
		}
	}
	if err := l.grow(); err != nil {
		return nil, err
	}
	return l.alloc()
}

// Destroy implements gpu.BindGroupLayout.
func (l *BindGroupLayout) Destroy() {
	for _, p := range l.pools {
		C.vkDestroyDescriptorPool(l.ctx.dev, p.pool, nil)
	}
	if l.layout != nil {
		C.vkDestroyDescriptorSetLayout(l.ctx.dev, l.layout, nil)
	}
	*l = BindGroupLayout{}
}

// BindGroup implements gpu.BindGroup.
type BindGroup struct {
	gpu.Refcount

	ctx    *Context
	layout *BindGroupLayout
	set    C.VkDescriptorSet

	buffers  map[int]gpu.BufferBinding
	textures map[int]gpu.TextureBinding
}

// NewBindGroup implements gpu.Context.
func (c *Context) NewBindGroup(layout gpu.BindGroupLayout) (gpu.BindGroup, error) {
	l := layout.(*BindGroupLayout)
	set, err := l.alloc()
	if err != nil {
		return nil, err
	}
	return &BindGroup{
		ctx: c, layout: l, set: set,
		buffers: make(map[int]gpu.BufferBinding), textures: make(map[int]gpu.TextureBinding),
	}, nil
}

// Layout implements gpu.BindGroup.
func (g *BindGroup) Layout() gpu.BindGroupLayout { return g.layout }

// UpdateBuffer implements gpu.BindGroup.
func (g *BindGroup) UpdateBuffer(binding int, b gpu.BufferBinding) {
	g.buffers[binding] = b
	buf := b.Buffer.(*Buffer)
	info := C.VkDescriptorBufferInfo{buffer: buf.buf, offset: C.VkDeviceSize(b.Offset), _range: C.VkDeviceSize(b.Size)}
	var typ C.VkDescriptorType
	for _, e := range g.layout.entries {
		if e.Binding == binding {
			typ = descType(e)
			break
		}
	}
	write := C.VkWriteDescriptorSet{
		sType: C.VK_STRUCTURE_TYPE_WRITE_DESCRIPTOR_SET, dstSet: g.set,
		dstBinding: C.uint32_t(binding), descriptorCount: 1, descriptorType: typ, pBufferInfo: &info,
	}
	C.vkUpdateDescriptorSets(g.ctx.dev, 1, &write, 0, nil)
}

// UpdateTexture implements gpu.BindGroup. A nil Texture resolves
// to the context's dummy texture (spec §4.5, §4.9).
func (g *BindGroup) UpdateTexture(binding int, t gpu.TextureBinding) {
	g.textures[binding] = t
	tex := g.ctx.dummy
	if t.Texture != nil {
		tex = t.Texture.(*Texture)
	}
	var typ C.VkDescriptorType
	for _, e := range g.layout.entries {
		if e.Binding == binding {
			typ = descType(e)
			break
		}
	}
	layout := C.VkImageLayout(C.VK_IMAGE_LAYOUT_GENERAL)
	info := C.VkDescriptorImageInfo{imageView: tex.view, imageLayout: layout}
	write := C.VkWriteDescriptorSet{
		sType: C.VK_STRUCTURE_TYPE_WRITE_DESCRIPTOR_SET, dstSet: g.set,
		dstBinding: C.uint32_t(binding), descriptorCount: 1, descriptorType: typ, pImageInfo: &info,
	}
	C.vkUpdateDescriptorSets(g.ctx.dev, 1, &write, 0, nil)
}

// Destroy implements gpu.BindGroup. The descriptor set itself
// is not freed individually: it is reclaimed when its owning
// pool is destroyed along with the layout (spec §4.5 leaves
// per-set freeing to VK_DESCRIPTOR_POOL_CREATE_FREE_DESCRIPTOR_SET_BIT,
// which this backend does not opt into, trading fine-grained
// reuse for simpler pool-chain bookkeeping).
func (g *BindGroup) Destroy() { *g = BindGroup{} }
