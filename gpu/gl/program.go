// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gl

import (
	"fmt"
	"strings"

	glcore "github.com/go-gl/gl/v4.6-core/gl"

	"github.com/nopeforge/nope-gpu/gpu"
)

// Program implements gpu.Program as a linked GL program object.
// Payloads are GLSL 450 source (spec §6), one shader object per
// stage, linked immediately so compile errors surface at
// creation time rather than at first use.
type Program struct {
	gpu.Refcount

	typ  gpu.ProgramType
	name uint32
}

// NewProgram implements gpu.Context.
func (c *Context) NewProgram(params gpu.ProgramParams) (gpu.Program, error) {
	prog := glcore.CreateProgram()
	var shaders []uint32
	defer func() {
		for _, s := range shaders {
			glcore.DetachShader(prog, s)
			glcore.DeleteShader(s)
		}
	}()

	compile := func(src []byte, stage uint32) (uint32, error) {
		sh := glcore.CreateShader(stage)
		csrc, free := glcore.Strs(string(src) + "\x00")
		glcore.ShaderSource(sh, 1, csrc, nil)
		free()
		glcore.CompileShader(sh)
		var ok int32
		glcore.GetShaderiv(sh, glcore.COMPILE_STATUS, &ok)
		if ok == glcore.FALSE {
			var logLen int32
			glcore.GetShaderiv(sh, glcore.INFO_LOG_LENGTH, &logLen)
			log := strings.Repeat("\x00", int(logLen+1))
			glcore.GetShaderInfoLog(sh, logLen, nil, glcore.Str(log))
			return 0, fmt.Errorf("gl: shader compile failed: %s: %w", log, gpu.ErrUsage)
		}
		return sh, nil
	}

	switch params.Type {
	case gpu.ProgramGraphics:
		vs, err := compile(params.Vertex, glcore.VERTEX_SHADER)
		if err != nil {
			return nil, err
		}
		shaders = append(shaders, vs)
		glcore.AttachShader(prog, vs)
		fs, err := compile(params.Fragment, glcore.FRAGMENT_SHADER)
		if err != nil {
			return nil, err
		}
		shaders = append(shaders, fs)
		glcore.AttachShader(prog, fs)
	case gpu.ProgramCompute:
		cs, err := compile(params.Compute, glcore.COMPUTE_SHADER)
		if err != nil {
			return nil, err
		}
		shaders = append(shaders, cs)
		glcore.AttachShader(prog, cs)
	}

	glcore.LinkProgram(prog)
	var ok int32
	glcore.GetProgramiv(prog, glcore.LINK_STATUS, &ok)
	if ok == glcore.FALSE {
		var logLen int32
		glcore.GetProgramiv(prog, glcore.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		glcore.GetProgramInfoLog(prog, logLen, nil, glcore.Str(log))
		glcore.DeleteProgram(prog)
		return nil, fmt.Errorf("gl: program link failed: %s: %w", log, gpu.ErrUsage)
	}

	return &Program{typ: params.Type, name: prog}, nil
}

// Type implements gpu.Program.
func (p *Program) Type() gpu.ProgramType { return p.typ }

// Destroy implements gpu.Program.
func (p *Program) Destroy() {
	if p.name != 0 {
		glcore.DeleteProgram(p.name)
	}
	*p = Program{}
}
