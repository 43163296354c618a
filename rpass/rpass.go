// Copyright 2024 The nope-gpu Authors. All rights reserved.

// Package rpass drives render-to-texture subtrees and the generic
// render-pass bracketing the scene walker uses around them (spec.md
// §4.10): interruption-aware load/store op selection, dimension
// validation, MSAA/depth-resolve downgrade, post-draw mipmap
// regeneration, and UV-matrix rewriting of the textures written.
package rpass

import (
	"errors"
	"fmt"

	"github.com/nopeforge/nope-gpu/gpu"
)

// ErrNestedRTT is returned by Walker.EnterRTT when called while
// already inside a render-to-texture subtree. The interaction
// between the interruption heuristic and nested render-to-texture
// is undefined in the system this package is modeled on; rather
// than replicate that ambiguity, nesting is explicitly rejected.
var ErrNestedRTT = errors.New("rpass: nested render-to-texture is not supported")

// ChildKind classifies a scene node for the purpose of
// CountInterruptions.
type ChildKind int

// Child kinds.
const (
	// KindOther is any node that is neither a render draw nor a
	// render-to-texture/compute node (e.g. a group); its own
	// children are scanned recursively in the same pass.
	KindOther ChildKind = iota
	// KindRender is a node that emits a draw call into the
	// currently open render pass.
	KindRender
	// KindRTTOrCompute is a render-to-texture or compute node:
	// entering it always closes any currently open render pass.
	KindRTTOrCompute
)

// Subtree is the minimal view CountInterruptions needs of a scene
// node; it deliberately does not depend on any concrete scene graph
// type.
type Subtree interface {
	Kind() ChildKind
	Children() []Subtree
}

// CountInterruptions scans root's children (not root itself) and
// counts how many times a streak of KindRender children is
// interrupted by a KindRTTOrCompute sibling or descendant. This
// mirrors get_renderpass_info in the system this package is modeled
// on: render nodes keep the pass "started"; an RTT/compute node
// stops it; the next render node after a stopped pass counts one
// interruption and restarts the streak.
func CountInterruptions(root Subtree) int {
	var n int
	scan(root, stateNone, &n)
	return n
}

const (
	stateNone = iota
	stateStarted
	stateStopped
)

func scan(n Subtree, state int, count *int) int {
	for _, c := range n.Children() {
		switch c.Kind() {
		case KindRTTOrCompute:
			if state == stateStarted {
				state = stateStopped
			}
		case KindRender:
			if state == stateStopped {
				*count++
			}
			state = stateStarted
		default:
			state = scan(c, state, count)
		}
	}
	return state
}

// ColorAttachmentUsage returns base with the usage bits a color
// render-to-texture target needs, given how many interruptions its
// subtree has. gpu.Texture is immutable once created, so (unlike
// the system this is modeled on, which patches texture usage in
// place before the GPU object exists) this must be called by the
// site creating the texture, before NewTexture.
func ColorAttachmentUsage(base gpu.TextureUsage, interruptions int) gpu.TextureUsage {
	u := base | gpu.TexUsageColorAttachment
	if interruptions == 0 {
		u |= gpu.TexUsageTransient
	}
	return u
}

// DepthAttachmentUsage is ColorAttachmentUsage's depth/stencil
// counterpart.
func DepthAttachmentUsage(base gpu.TextureUsage, interruptions int) gpu.TextureUsage {
	u := base | gpu.TexUsageDepthStencilAttachment
	if interruptions == 0 {
		u |= gpu.TexUsageTransient
	}
	return u
}

// ColorTarget is one color attachment a Pass writes to.
type ColorTarget struct {
	Texture gpu.Texture
	Layer   int

	// MipmapFilter, when not gpu.MipNone, causes Walker.EnterRTT
	// to regenerate this texture's mipmap chain after the
	// subtree finishes drawing.
	MipmapFilter gpu.MipFilter

	// UVMatrix, if non-nil, is overwritten by Prepare with the
	// context's rendertarget UV-coordinate matrix, so that code
	// sampling this texture later reads it with the correct
	// orientation.
	UVMatrix *[16]float32
}

// DepthTarget is the optional depth/stencil attachment a Pass
// writes to.
type DepthTarget struct {
	Texture gpu.Texture
	Layer   int

	// Internal marks a depth/stencil texture that exists solely
	// for this pass's own use and is never sampled afterward,
	// making it eligible for a DONT_CARE store op when the
	// subtree has no interruptions. A depth texture the caller
	// also reads afterward (Internal == false) always stores.
	Internal bool

	UVMatrix *[16]float32
}

// Params describes a render-to-texture subtree's target.
type Params struct {
	Colors []ColorTarget
	Depth  *DepthTarget

	// Samples requests multisampling; Prepare downgrades it to 0
	// (with a warning) if the context lacks the resolve feature
	// the requested attachments need.
	Samples    int32
	ClearColor [4]float32

	// Interruptions is the result of CountInterruptions over this
	// subtree, driving the load/store op heuristic of spec §4.10.
	Interruptions int
}

// Pass holds the rendertarget(s) built for one render-to-texture
// subtree: a "clear" rendertarget for the first time the subtree is
// entered, and (only when Interruptions > 0) a "load" rendertarget
// for every subsequent entry.
type Pass struct {
	ctx    gpu.Context
	width  int
	height int

	colors []ColorTarget

	msColors []gpu.Texture
	msDepth  gpu.Texture

	clear gpu.Rendertarget
	load  gpu.Rendertarget // nil unless Interruptions > 0
}

// Width and Height return the subtree's render dimensions, taken
// from its color attachments.
func (p *Pass) Width() int  { return p.width }
func (p *Pass) Height() int { return p.height }

// Prepare validates params and builds the rendertarget(s) for a
// render-to-texture subtree, per spec §4.10.
func Prepare(ctx gpu.Context, params Params) (*Pass, error) {
	if len(params.Colors) == 0 {
		return nil, fmt.Errorf("rpass: at least one color texture must be specified: %w", gpu.ErrUsage)
	}
	if len(params.Colors) > gpu.MaxColorAttachments {
		return nil, fmt.Errorf("rpass: too many color attachments: %w", gpu.ErrUnsupported)
	}

	width := params.Colors[0].Texture.Params().Width
	height := params.Colors[0].Texture.Params().Height
	for _, c := range params.Colors[1:] {
		tp := c.Texture.Params()
		if tp.Width != width || tp.Height != height {
			return nil, fmt.Errorf("rpass: color texture dimensions do not match: %dx%d != %dx%d: %w",
				width, height, tp.Width, tp.Height, gpu.ErrUsage)
		}
	}
	if params.Depth != nil {
		tp := params.Depth.Texture.Params()
		if tp.Width != width || tp.Height != height {
			return nil, fmt.Errorf("rpass: depth texture dimensions do not match color: %dx%d != %dx%d: %w",
				width, height, tp.Width, tp.Height, gpu.ErrUsage)
		}
	}

	samples := params.Samples
	features := ctx.Features()
	if samples > 0 && !features.Has(gpu.FeatureColorResolve) {
		gpu.Logger.Printf("[rpass] context does not support resolving color attachments, disabling multisampling")
		samples = 0
	}
	if samples > 0 && params.Depth != nil && !features.Has(gpu.FeatureDepthStencilResolve) {
		gpu.Logger.Printf("[rpass] context does not support resolving depth/stencil attachments, disabling multisampling")
		samples = 0
	}

	for _, c := range params.Colors {
		want := gpu.TexUsageColorAttachment
		if c.Texture.Params().Usage&want != want {
			return nil, fmt.Errorf("rpass: color texture missing TexUsageColorAttachment usage: %w", gpu.ErrUsage)
		}
	}
	if params.Depth != nil {
		want := gpu.TexUsageDepthStencilAttachment
		if params.Depth.Texture.Params().Usage&want != want {
			return nil, fmt.Errorf("rpass: depth texture missing TexUsageDepthStencilAttachment usage: %w", gpu.ErrUsage)
		}
	}

	p := &Pass{ctx: ctx, width: width, height: height, colors: params.Colors}
	ok := false
	defer func() {
		if !ok {
			p.destroyTransient()
		}
	}()

	interruptions := params.Interruptions
	colorStore := gpu.StoreStore
	var depthStore gpu.StoreOp
	if params.Depth != nil && !params.Depth.Internal {
		depthStore = gpu.StoreStore
	} else if interruptions == 0 {
		depthStore = gpu.StoreDontCare
	} else {
		depthStore = gpu.StoreStore
	}

	clearParams := gpu.RendertargetParams{}
	for _, c := range params.Colors {
		att := gpu.AttachmentParams{
			Texture: c.Texture,
			Layer:   c.Layer,
			Load:    gpu.LoadClear,
			Store:   colorStore,
			Clear:   gpu.ClearValue{Color: params.ClearColor},
		}
		if samples > 0 {
			ms, err := ctx.NewTexture(gpu.TextureParams{
				Type:    gpu.Texture2D,
				Format:  c.Texture.Params().Format,
				Width:   width,
				Height:  height,
				Layers:  1,
				Samples: int(samples),
				Usage:   ColorAttachmentUsage(0, interruptions),
			})
			if err != nil {
				return nil, err
			}
			p.msColors = append(p.msColors, ms)
			att.Texture = ms
			att.Layer = 0
			att.ResolveTarget = c.Texture
			att.ResolveLayer = c.Layer
			if interruptions == 0 {
				att.Store = gpu.StoreDontCare
			} else {
				att.Store = gpu.StoreStore
			}
		}
		clearParams.Colors = append(clearParams.Colors, att)
	}

	if params.Depth != nil {
		att := gpu.AttachmentParams{
			Texture: params.Depth.Texture,
			Layer:   params.Depth.Layer,
			Load:    gpu.LoadClear,
			Store:   depthStore,
		}
		if samples > 0 {
			ms, err := ctx.NewTexture(gpu.TextureParams{
				Type:    gpu.Texture2D,
				Format:  params.Depth.Texture.Params().Format,
				Width:   width,
				Height:  height,
				Layers:  1,
				Samples: int(samples),
				Usage:   DepthAttachmentUsage(0, interruptions),
			})
			if err != nil {
				return nil, err
			}
			p.msDepth = ms
			att.Texture = ms
			att.Layer = 0
			att.ResolveTarget = params.Depth.Texture
			att.ResolveLayer = params.Depth.Layer
			att.Store = depthStore
		}
		clearParams.DepthStencil = &att
	}

	clear, err := ctx.NewRendertarget(clearParams)
	if err != nil {
		return nil, err
	}
	p.clear = clear

	if interruptions > 0 {
		loadParams := clearParams
		loadParams.Colors = append([]gpu.AttachmentParams(nil), clearParams.Colors...)
		for i := range loadParams.Colors {
			loadParams.Colors[i].Load = gpu.LoadLoad
		}
		if loadParams.DepthStencil != nil {
			ds := *loadParams.DepthStencil
			ds.Load = gpu.LoadLoad
			if interruptions > 1 {
				ds.Store = gpu.StoreStore
			} else if params.Depth != nil && !params.Depth.Internal {
				ds.Store = gpu.StoreStore
			} else {
				ds.Store = gpu.StoreDontCare
			}
			loadParams.DepthStencil = &ds
		}
		load, err := ctx.NewRendertarget(loadParams)
		if err != nil {
			return nil, err
		}
		p.load = load
	}

	var uv [16]float32
	ctx.RendertargetUVCoordMatrix(&uv)
	for _, c := range params.Colors {
		if c.UVMatrix != nil {
			*c.UVMatrix = uv
		}
	}
	if params.Depth != nil && params.Depth.UVMatrix != nil {
		*params.Depth.UVMatrix = uv
	}

	ok = true
	return p, nil
}

// destroyTransient releases the per-pass multisample textures and
// rendertargets Prepare allocates, leaving the caller-supplied
// resolve-target textures untouched.
func (p *Pass) destroyTransient() {
	if p.clear != nil {
		p.clear.Destroy()
	}
	if p.load != nil {
		p.load.Destroy()
	}
	for _, t := range p.msColors {
		t.Destroy()
	}
	if p.msDepth != nil {
		p.msDepth.Destroy()
	}
}

// Destroy releases the Pass's rendertargets and any multisample
// textures it allocated.
func (p *Pass) Destroy() { p.destroyTransient() }

// target returns the rendertarget to enter with: resumed selects
// the load variant if the subtree was ever interrupted, falling
// back to the clear rendertarget otherwise (no resumption needed).
func (p *Pass) target(resumed bool) gpu.Rendertarget {
	if resumed && p.load != nil {
		return p.load
	}
	return p.clear
}

// Walker brackets render passes during scene traversal (spec §4.10's
// scene-side contract): BeginTarget opens a target before draws are
// emitted into it, Interrupt closes it (for a compute dispatch or to
// enter a render-to-texture subtree), and Resume re-opens it with
// its load variant so prior contents are preserved. EnterRTT drives
// an entire render-to-texture subtree using a Pass's target pair.
//
// A Walker is not safe for concurrent use.
type Walker struct {
	ctx gpu.Context
	cb  gpu.CmdBuffer

	clear, load gpu.Rendertarget
	open        bool

	rttDepth int
}

// NewWalker returns a Walker recording render pass bracketing into
// cb.
func NewWalker(ctx gpu.Context, cb gpu.CmdBuffer) *Walker {
	return &Walker{ctx: ctx, cb: cb}
}

// BeginTarget opens clear as the current target, remembering
// load as the variant Resume reopens with after an interruption. If
// load is nil, it defaults to clear (no resumption is expected).
func (w *Walker) BeginTarget(clear, load gpu.Rendertarget) error {
	if w.open {
		return fmt.Errorf("rpass: BeginTarget called with a target already open: %w", gpu.ErrUsage)
	}
	if load == nil {
		load = clear
	}
	if err := w.ctx.BeginRenderPass(w.cb, clear); err != nil {
		return err
	}
	w.clear, w.load = clear, load
	w.open = true
	return nil
}

// Interrupt closes the current target, if one is open, so a compute
// dispatch or a render-to-texture subtree can run.
func (w *Walker) Interrupt() {
	if w.open {
		w.ctx.EndRenderPass(w.cb)
		w.open = false
	}
}

// Resume re-opens the current target's load variant. It is a no-op
// if a target is already open.
func (w *Walker) Resume() error {
	if w.open {
		return nil
	}
	if w.clear == nil {
		return fmt.Errorf("rpass: Resume called with no target ever begun: %w", gpu.ErrUsage)
	}
	if err := w.ctx.BeginRenderPass(w.cb, w.load); err != nil {
		return err
	}
	w.open = true
	return nil
}

// End closes the current target, leaving the subtree that owns it.
func (w *Walker) End() { w.Interrupt() }

// EnterRTT drives a render-to-texture subtree: it interrupts
// whatever target is currently open, begins p's clear/load pair,
// runs fn (which may itself call Interrupt/Resume/Dispatch any
// number of times as its own subtree requires), ends the pass,
// regenerates mipmaps for any color target that asked for them, and
// restores the walker to the state it was in before EnterRTT was
// called (reopening the saved target via Resume if it was open).
//
// Nested render-to-texture is not supported (spec §9): calling this
// while already inside a render-to-texture subtree returns
// ErrNestedRTT without touching the walker's state.
func (w *Walker) EnterRTT(p *Pass, fn func() error) error {
	if w.rttDepth > 0 {
		return ErrNestedRTT
	}
	w.rttDepth++
	defer func() { w.rttDepth-- }()

	savedClear, savedLoad, wasOpen := w.clear, w.load, w.open
	w.Interrupt()

	if err := w.BeginTarget(p.target(false), p.target(true)); err != nil {
		return err
	}
	fnErr := fn()
	w.End()

	w.clear, w.load = savedClear, savedLoad
	if fnErr != nil {
		return fnErr
	}

	for _, c := range p.colors {
		if c.MipmapFilter == gpu.MipNone {
			continue
		}
		if err := c.Texture.GenerateMipmap(); err != nil {
			return err
		}
	}

	if wasOpen {
		return w.Resume()
	}
	return nil
}
