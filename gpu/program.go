// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gpu

// ProgramType distinguishes graphics from compute programs.
type ProgramType int

// Program types.
const (
	ProgramGraphics ProgramType = iota
	ProgramCompute
)

// ProgramParams carries the compiled shader payload for a
// Program (spec §3 "Program", §6 "Shader language"). Vertex
// and fragment stages are required for ProgramGraphics, and
// Compute is required for ProgramCompute. The payload is
// SPIR-V for Vulkan, GLSL 450 source for OpenGL; both assume
// descriptor-set 0 for bindgroup resources with binding
// indices matching the layout's entries in declaration order.
// Push constants are not used.
type ProgramParams struct {
	Type ProgramType

	Vertex   []byte
	Fragment []byte
	Compute  []byte
}

// Program is an immutable compiled shader payload.
type Program interface {
	Destroyer
	RefCounted

	Type() ProgramType
}
