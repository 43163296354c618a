// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

// #include <stdlib.h>
// #include <proc.h>
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/nopeforge/nope-gpu/gpu"
)

// Pipeline implements gpu.Pipeline. Graphics pipelines are built
// against VkPipelineRenderingCreateInfoKHR rather than a
// VkRenderPass/subpass pair, since this backend requires
// VK_KHR_dynamic_rendering (see Rendertarget).
type Pipeline struct {
	gpu.Refcount

	ctx     *Context
	pl      C.VkPipeline
	layout  C.VkPipelineLayout
	compute bool
}

func convColorMask(m gpu.ColorMask) (f C.VkColorComponentFlags) {
	if m&gpu.ColorRed != 0 {
		f |= C.VK_COLOR_COMPONENT_R_BIT
	}
	if m&gpu.ColorGreen != 0 {
		f |= C.VK_COLOR_COMPONENT_G_BIT
	}
	if m&gpu.ColorBlue != 0 {
		f |= C.VK_COLOR_COMPONENT_B_BIT
	}
	if m&gpu.ColorAlpha != 0 {
		f |= C.VK_COLOR_COMPONENT_A_BIT
	}
	return
}

func newPipelineLayout(c *Context, layout gpu.BindGroupLayout) (C.VkPipelineLayout, error) {
	var setLayout C.VkDescriptorSetLayout
	if layout != nil {
		setLayout = layout.(*BindGroupLayout).layout
	}
	info := C.VkPipelineLayoutCreateInfo{sType: C.VK_STRUCTURE_TYPE_PIPELINE_LAYOUT_CREATE_INFO}
	if setLayout != nil {
		info.setLayoutCount = 1
		info.pSetLayouts = &setLayout
	}
	var pl C.VkPipelineLayout
	if err := checkResult(C.vkCreatePipelineLayout(c.dev, &info, nil, &pl)); err != nil {
		return nil, err
	}
	return pl, nil
}

// NewPipeline implements gpu.Context. desc must be either a
// gpu.GraphicsPipelineDesc or a gpu.ComputePipelineDesc.
func (c *Context) NewPipeline(desc any) (gpu.Pipeline, error) {
	switch d := desc.(type) {
	case gpu.GraphicsPipelineDesc:
		return c.newGraphics(d)
	case gpu.ComputePipelineDesc:
		return c.newCompute(d)
	default:
		return nil, fmt.Errorf("vk: unrecognised pipeline descriptor: %w", gpu.ErrUsage)
	}
}

func (c *Context) newGraphics(d gpu.GraphicsPipelineDesc) (gpu.Pipeline, error) {
	layout, err := newPipelineLayout(c, d.Layout)
	if err != nil {
		return nil, err
	}
	prog := d.Program.(*Program)

	name := C.CString("main")
	defer C.free(unsafe.Pointer(name))
	stages := []C.VkPipelineShaderStageCreateInfo{
		{sType: C.VK_STRUCTURE_TYPE_PIPELINE_SHADER_STAGE_CREATE_INFO, stage: C.VK_SHADER_STAGE_VERTEX_BIT, module: prog.vert, pName: name},
		{sType: C.VK_STRUCTURE_TYPE_PIPELINE_SHADER_STAGE_CREATE_INFO, stage: C.VK_SHADER_STAGE_FRAGMENT_BIT, module: prog.frag, pName: name},
	}

	var binds []C.VkVertexInputBindingDescription
	var attrs []C.VkVertexInputAttributeDescription
	for i, vb := range d.Vertex {
		rate := C.VkVertexInputRate(C.VK_VERTEX_INPUT_RATE_VERTEX)
		if vb.InputRate == gpu.InputPerInstance {
			rate = C.VK_VERTEX_INPUT_RATE_INSTANCE
		}
		binds = append(binds, C.VkVertexInputBindingDescription{
			binding: C.uint32_t(i), stride: C.uint32_t(vb.Stride), inputRate: rate,
		})
		for _, a := range vb.Attributes {
			attrs = append(attrs, C.VkVertexInputAttributeDescription{
				location: C.uint32_t(a.Location), binding: C.uint32_t(i),
				format: convVertexFmt(a.Format), offset: C.uint32_t(a.Offset),
			})
		}
	}
	vinput := C.VkPipelineVertexInputStateCreateInfo{sType: C.VK_STRUCTURE_TYPE_PIPELINE_VERTEX_INPUT_STATE_CREATE_INFO}
	if len(binds) > 0 {
		vinput.vertexBindingDescriptionCount = C.uint32_t(len(binds))
		vinput.pVertexBindingDescriptions = &binds[0]
	}
	if len(attrs) > 0 {
		vinput.vertexAttributeDescriptionCount = C.uint32_t(len(attrs))
		vinput.pVertexAttributeDescriptions = &attrs[0]
	}

	ia := C.VkPipelineInputAssemblyStateCreateInfo{
		sType: C.VK_STRUCTURE_TYPE_PIPELINE_INPUT_ASSEMBLY_STATE_CREATE_INFO,
		topology: convTopology(d.Topology),
	}

	viewport := C.VkPipelineViewportStateCreateInfo{
		sType: C.VK_STRUCTURE_TYPE_PIPELINE_VIEWPORT_STATE_CREATE_INFO,
		viewportCount: 1, scissorCount: 1,
	}

	raster := C.VkPipelineRasterizationStateCreateInfo{
		sType: C.VK_STRUCTURE_TYPE_PIPELINE_RASTERIZATION_STATE_CREATE_INFO,
		polygonMode: C.VK_POLYGON_MODE_FILL,
		cullMode: convCullMode(d.State.Cull), frontFace: convFrontFace(d.State.Front),
		lineWidth: 1,
	}

	ms := C.VkPipelineMultisampleStateCreateInfo{
		sType: C.VK_STRUCTURE_TYPE_PIPELINE_MULTISAMPLE_STATE_CREATE_INFO,
		rasterizationSamples: convSamples(max(d.RTLayout.Samples, 1)),
	}

	ds := C.VkPipelineDepthStencilStateCreateInfo{sType: C.VK_STRUCTURE_TYPE_PIPELINE_DEPTH_STENCIL_STATE_CREATE_INFO}
	dss := d.State.DS
	if dss.DepthTest {
		ds.depthTestEnable = C.VK_TRUE
		ds.depthCompareOp = convCmpFunc(dss.DepthCompare)
		if dss.DepthWrite {
			ds.depthWriteEnable = C.VK_TRUE
		}
	}
	if dss.StencilTest {
		ds.stencilTestEnable = C.VK_TRUE
		ds.front = stencilOpState(dss.Front)
		ds.back = stencilOpState(dss.Back)
	}

	ncolor := len(d.RTLayout.Colors)
	var atts []C.VkPipelineColorBlendAttachmentState
	for i := 0; i < ncolor; i++ {
		b := gpu.BlendState{WriteMask: gpu.ColorAll}
		if i < len(d.State.Blend) {
			b = d.State.Blend[i]
		}
		var enable C.VkBool32
		if b.Enable {
			enable = C.VK_TRUE
		}
		atts = append(atts, C.VkPipelineColorBlendAttachmentState{
			blendEnable: enable,
			srcColorBlendFactor: convBlendFactor(b.SrcColorFac), dstColorBlendFactor: convBlendFactor(b.DstColorFac),
			colorBlendOp: convBlendOp(b.ColorOp),
			srcAlphaBlendFactor: convBlendFactor(b.SrcAlphaFac), dstAlphaBlendFactor: convBlendFactor(b.DstAlphaFac),
			alphaBlendOp: convBlendOp(b.AlphaOp), colorWriteMask: convColorMask(b.WriteMask),
		})
	}
	blend := C.VkPipelineColorBlendStateCreateInfo{sType: C.VK_STRUCTURE_TYPE_PIPELINE_COLOR_BLEND_STATE_CREATE_INFO}
	if ncolor > 0 {
		blend.attachmentCount = C.uint32_t(ncolor)
		blend.pAttachments = &atts[0]
	}

	dynStates := []C.VkDynamicState{C.VK_DYNAMIC_STATE_VIEWPORT, C.VK_DYNAMIC_STATE_SCISSOR}
	dynamic := C.VkPipelineDynamicStateCreateInfo{
		sType: C.VK_STRUCTURE_TYPE_PIPELINE_DYNAMIC_STATE_CREATE_INFO,
		dynamicStateCount: C.uint32_t(len(dynStates)), pDynamicStates: &dynStates[0],
	}

	var colorFmts []C.VkFormat
	for _, cl := range d.RTLayout.Colors {
		colorFmts = append(colorFmts, convPixelFmt(cl.Format))
	}
	rendering := C.VkPipelineRenderingCreateInfoKHR{sType: C.VK_STRUCTURE_TYPE_PIPELINE_RENDERING_CREATE_INFO_KHR}
	if len(colorFmts) > 0 {
		rendering.colorAttachmentCount = C.uint32_t(len(colorFmts))
		rendering.pColorAttachmentFormats = &colorFmts[0]
	}
	if d.RTLayout.DepthStencil != nil {
		f := convPixelFmt(d.RTLayout.DepthStencil.Format)
		rendering.depthAttachmentFormat = f
		rendering.stencilAttachmentFormat = f
	}

	info := C.VkGraphicsPipelineCreateInfo{
		sType: C.VK_STRUCTURE_TYPE_GRAPHICS_PIPELINE_CREATE_INFO,
		pNext: unsafe.Pointer(&rendering),
		stageCount: C.uint32_t(len(stages)), pStages: &stages[0],
		pVertexInputState: &vinput, pInputAssemblyState: &ia,
		pViewportState: &viewport, pRasterizationState: &raster,
		pMultisampleState: &ms, pDepthStencilState: &ds,
		pColorBlendState: &blend, pDynamicState: &dynamic,
		layout: layout, basePipelineIndex: -1,
	}
	p := &Pipeline{ctx: c, layout: layout}
	var cache C.VkPipelineCache
	err = checkResult(C.vkCreateGraphicsPipelines(c.dev, cache, 1, &info, nil, &p.pl))
	if err != nil {
		C.vkDestroyPipelineLayout(c.dev, layout, nil)
		return nil, err
	}
	return p, nil
}

func stencilOpState(s gpu.StencilFace) C.VkStencilOpState {
	return C.VkStencilOpState{
		failOp: convStencilOp(s.Fail), passOp: convStencilOp(s.DepthPass), depthFailOp: convStencilOp(s.DepthFail),
		compareOp: convCmpFunc(s.Compare), compareMask: C.uint32_t(s.ReadMask),
		writeMask: C.uint32_t(s.WriteMask), reference: C.uint32_t(s.Ref),
	}
}

func (c *Context) newCompute(d gpu.ComputePipelineDesc) (gpu.Pipeline, error) {
	layout, err := newPipelineLayout(c, d.Layout)
	if err != nil {
		return nil, err
	}
	prog := d.Program.(*Program)
	name := C.CString("main")
	defer C.free(unsafe.Pointer(name))
	info := C.VkComputePipelineCreateInfo{
		sType: C.VK_STRUCTURE_TYPE_COMPUTE_PIPELINE_CREATE_INFO,
		stage: C.VkPipelineShaderStageCreateInfo{
			sType: C.VK_STRUCTURE_TYPE_PIPELINE_SHADER_STAGE_CREATE_INFO,
			stage: C.VK_SHADER_STAGE_COMPUTE_BIT, module: prog.compute, pName: name,
		},
		layout: layout, basePipelineIndex: -1,
	}
	p := &Pipeline{ctx: c, layout: layout, compute: true}
	var cache C.VkPipelineCache
	if err := checkResult(C.vkCreateComputePipelines(c.dev, cache, 1, &info, nil, &p.pl)); err != nil {
		C.vkDestroyPipelineLayout(c.dev, layout, nil)
		return nil, err
	}
	return p, nil
}

// IsCompute implements gpu.Pipeline.
func (p *Pipeline) IsCompute() bool { return p.compute }

// Destroy implements gpu.Pipeline.
func (p *Pipeline) Destroy() {
	if p.pl != nil {
		C.vkDestroyPipeline(p.ctx.dev, p.pl, nil)
	}
	if p.layout != nil {
		C.vkDestroyPipelineLayout(p.ctx.dev, p.layout, nil)
	}
	*p = Pipeline{}
}
