// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gl

import (
	"fmt"

	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nopeforge/nope-gpu/gpu"
)

// Pipeline implements gpu.Pipeline. The vertex input state is
// baked into a VAO at creation time using separate attribute
// format/binding (glVertexAttribFormat + glVertexAttribBinding,
// GL 4.3+), so SetVertexBuffer only needs to rebind the backing
// buffer object, not reconfigure the whole attribute layout.
type Pipeline struct {
	gpu.Refcount

	compute  bool
	program  *Program
	layout   *BindGroupLayout
	vertex   []gpu.VertexBufferLayout
	topology uint32
	rtLayout gpu.RendertargetLayout
	state    gpu.FixedFuncState
	vao      uint32
}

// NewPipeline implements gpu.Context. desc must be either a
// gpu.GraphicsPipelineDesc or a gpu.ComputePipelineDesc.
func (c *Context) NewPipeline(desc any) (gpu.Pipeline, error) {
	switch d := desc.(type) {
	case gpu.GraphicsPipelineDesc:
		p := &Pipeline{
			program: d.Program.(*Program), layout: d.Layout.(*BindGroupLayout),
			vertex: d.Vertex, topology: convTopology(d.Topology),
			rtLayout: d.RTLayout, state: d.State,
		}
		glcore.GenVertexArrays(1, &p.vao)
		glcore.BindVertexArray(p.vao)
		for i, vb := range d.Vertex {
			for _, a := range vb.Attributes {
				xtype, _, normalized, integer := convVertexFmt(a.Format)
				glcore.EnableVertexAttribArray(uint32(a.Location))
				if integer {
					glcore.VertexAttribIFormat(uint32(a.Location), attrSize(a.Format), xtype, uint32(a.Offset))
				} else {
					glcore.VertexAttribFormat(uint32(a.Location), attrSize(a.Format), xtype, normalized, uint32(a.Offset))
				}
				glcore.VertexAttribBinding(uint32(a.Location), uint32(i))
			}
			div := uint32(0)
			if vb.InputRate == gpu.InputPerInstance {
				div = 1
			}
			glcore.VertexBindingDivisor(uint32(i), div)
		}
		glcore.BindVertexArray(0)
		return p, nil
	case gpu.ComputePipelineDesc:
		return &Pipeline{compute: true, program: d.Program.(*Program), layout: d.Layout.(*BindGroupLayout)}, nil
	default:
		return nil, fmt.Errorf("gl: unrecognised pipeline descriptor: %w", gpu.ErrUsage)
	}
}

func attrSize(f gpu.VertexFmt) int32 {
	_, size, _, _ := convVertexFmt(f)
	return size
}

// IsCompute implements gpu.Pipeline.
func (p *Pipeline) IsCompute() bool { return p.compute }

// Destroy implements gpu.Pipeline.
func (p *Pipeline) Destroy() {
	if p.vao != 0 {
		glcore.DeleteVertexArrays(1, &p.vao)
	}
	*p = Pipeline{}
}

// applyState issues the fixed-function GL calls for the
// pipeline's depth/stencil/blend/cull state. Called from
// SetPipeline, since GL has no separate pipeline-state object
// to bind.
func (p *Pipeline) applyState() {
	ds := p.state.DS
	if ds.DepthTest {
		glcore.Enable(glcore.DEPTH_TEST)
		glcore.DepthFunc(convCmpFunc(ds.DepthCompare))
	} else {
		glcore.Disable(glcore.DEPTH_TEST)
	}
	glcore.DepthMask(ds.DepthWrite)

	if ds.StencilTest {
		glcore.Enable(glcore.STENCIL_TEST)
		applyStencilFace(glcore.FRONT, ds.Front)
		applyStencilFace(glcore.BACK, ds.Back)
	} else {
		glcore.Disable(glcore.STENCIL_TEST)
	}

	if enable, face := convCullMode(p.state.Cull); enable {
		glcore.Enable(glcore.CULL_FACE)
		glcore.CullFace(face)
	} else {
		glcore.Disable(glcore.CULL_FACE)
	}
	glcore.FrontFace(convFrontFace(p.state.Front))

	for i, b := range p.state.Blend {
		idx := uint32(i)
		if b.Enable {
			glcore.Enablei(glcore.BLEND, idx)
			glcore.BlendEquationSeparatei(idx, convBlendOp(b.ColorOp), convBlendOp(b.AlphaOp))
			glcore.BlendFuncSeparatei(idx, convBlendFactor(b.SrcColorFac), convBlendFactor(b.DstColorFac),
				convBlendFactor(b.SrcAlphaFac), convBlendFactor(b.DstAlphaFac))
		} else {
			glcore.Disablei(glcore.BLEND, idx)
		}
		glcore.ColorMaski(idx, b.WriteMask&gpu.ColorRed != 0, b.WriteMask&gpu.ColorGreen != 0,
			b.WriteMask&gpu.ColorBlue != 0, b.WriteMask&gpu.ColorAlpha != 0)
	}
}

func applyStencilFace(face uint32, s gpu.StencilFace) {
	glcore.StencilFuncSeparate(face, convCmpFunc(s.Compare), int32(s.Ref), s.ReadMask)
	glcore.StencilOpSeparate(face, convStencilOp(s.Fail), convStencilOp(s.DepthFail), convStencilOp(s.DepthPass))
	glcore.StencilMaskSeparate(face, s.WriteMask)
}
