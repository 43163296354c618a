// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gpu

// VertexFmt describes the format of a single vertex
// attribute.
type VertexFmt int

// Vertex formats.
const (
	VFInt8 VertexFmt = iota
	VFInt8x2
	VFInt8x3
	VFInt8x4
	VFInt16
	VFInt16x2
	VFInt16x3
	VFInt16x4
	VFInt32
	VFInt32x2
	VFInt32x3
	VFInt32x4
	VFUint8
	VFUint8x2
	VFUint8x3
	VFUint8x4
	VFUint16
	VFUint16x2
	VFUint16x3
	VFUint16x4
	VFUint32
	VFUint32x2
	VFUint32x3
	VFUint32x4
	VFFloat32
	VFFloat32x2
	VFFloat32x3
	VFFloat32x4
)

// InputRate selects whether a vertex buffer advances per
// vertex or per instance.
type InputRate int

// Input rates.
const (
	InputPerVertex InputRate = iota
	InputPerInstance
)

// VertexAttribute describes one shader vertex input.
type VertexAttribute struct {
	Location int
	Format   VertexFmt
	Offset   int
}

// VertexBufferLayout describes one vertex buffer binding slot.
type VertexBufferLayout struct {
	Stride     int
	InputRate  InputRate
	Attributes []VertexAttribute
}

// GraphicsPipelineDesc describes a graphics pipeline (spec §3,
// §4.6). Once built, a Pipeline is immutable except for bound
// resources and dynamic state.
type GraphicsPipelineDesc struct {
	Program  Program
	Layout   BindGroupLayout
	Vertex   []VertexBufferLayout
	Topology Topology
	RTLayout RendertargetLayout
	State    FixedFuncState
}

// ComputePipelineDesc describes a compute pipeline.
type ComputePipelineDesc struct {
	Program Program
	Layout  BindGroupLayout
}

// Pipeline ties a program, bindgroup layout, and (for graphics)
// fixed-function state and rendertarget layout together into a
// GPU pipeline state object.
type Pipeline interface {
	Destroyer
	RefCounted

	IsCompute() bool
}
