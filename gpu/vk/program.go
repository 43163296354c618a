// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

// #include <stdlib.h>
// #include <proc.h>
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/nopeforge/nope-gpu/gpu"
)

// Program implements gpu.Program, compiling each non-empty
// stage's SPIR-V payload into its own VkShaderModule.
type Program struct {
	gpu.Refcount

	ctx     *Context
	typ     gpu.ProgramType
	vert    C.VkShaderModule
	frag    C.VkShaderModule
	compute C.VkShaderModule
}

// NewProgram implements gpu.Context.
func (c *Context) NewProgram(params gpu.ProgramParams) (gpu.Program, error) {
	p := &Program{ctx: c, typ: params.Type}
	var err error
	switch params.Type {
	case gpu.ProgramGraphics:
		if p.vert, err = newShaderModule(c, params.Vertex); err != nil {
			return nil, fmt.Errorf("vk: vertex stage: %w", err)
		}
		if p.frag, err = newShaderModule(c, params.Fragment); err != nil {
			p.Destroy()
			return nil, fmt.Errorf("vk: fragment stage: %w", err)
		}
	case gpu.ProgramCompute:
		if p.compute, err = newShaderModule(c, params.Compute); err != nil {
			return nil, fmt.Errorf("vk: compute stage: %w", err)
		}
	default:
		return nil, fmt.Errorf("vk: unrecognised program type: %w", gpu.ErrUsage)
	}
	return p, nil
}

// newShaderModule creates a VkShaderModule from SPIR-V bytes.
// The Vulkan spec mandates the code size be a multiple of four
// and the data word-aligned.
func newShaderModule(c *Context, data []byte) (C.VkShaderModule, error) {
	n := len(data)
	if n == 0 || n&3 != 0 {
		return nil, errors.New("vk: invalid shader code size")
	}
	p := C.malloc(C.size_t(n))
	defer C.free(p)
	copy(unsafe.Slice((*byte)(p), n), data)
	info := C.VkShaderModuleCreateInfo{
		sType: C.VK_STRUCTURE_TYPE_SHADER_MODULE_CREATE_INFO,
		codeSize: C.size_t(n), pCode: (*C.uint32_t)(p),
	}
	var mod C.VkShaderModule
	if err := checkResult(C.vkCreateShaderModule(c.dev, &info, nil, &mod)); err != nil {
		return nil, err
	}
	return mod, nil
}

// Type implements gpu.Program.
func (p *Program) Type() gpu.ProgramType { return p.typ }

// Destroy implements gpu.Program.
func (p *Program) Destroy() {
	for _, mod := range [3]C.VkShaderModule{p.vert, p.frag, p.compute} {
		if mod != nil {
			C.vkDestroyShaderModule(p.ctx.dev, mod, nil)
		}
	}
	*p = Program{}
}
