// Copyright 2024 The nope-gpu Authors. All rights reserved.

package rpass_test

import (
	"testing"

	"github.com/nopeforge/nope-gpu/gpu"
	"github.com/nopeforge/nope-gpu/rpass"
)

// fakeNode is a minimal rpass.Subtree for CountInterruptions tests.
type fakeNode struct {
	kind     rpass.ChildKind
	children []rpass.Subtree
}

func (n *fakeNode) Kind() rpass.ChildKind      { return n.kind }
func (n *fakeNode) Children() []rpass.Subtree  { return n.children }

func leaf(k rpass.ChildKind) *fakeNode { return &fakeNode{kind: k} }

func group(children ...rpass.Subtree) *fakeNode {
	return &fakeNode{kind: rpass.KindOther, children: children}
}

func TestCountInterruptionsNoRTT(t *testing.T) {
	root := group(leaf(rpass.KindRender), leaf(rpass.KindRender))
	if n := rpass.CountInterruptions(root); n != 0 {
		t.Fatalf("CountInterruptions = %d, want 0", n)
	}
}

func TestCountInterruptionsSingleInterruption(t *testing.T) {
	root := group(
		leaf(rpass.KindRender),
		leaf(rpass.KindRTTOrCompute),
		leaf(rpass.KindRender),
	)
	if n := rpass.CountInterruptions(root); n != 1 {
		t.Fatalf("CountInterruptions = %d, want 1", n)
	}
}

func TestCountInterruptionsTrailingRTTDoesNotCount(t *testing.T) {
	root := group(
		leaf(rpass.KindRender),
		leaf(rpass.KindRTTOrCompute),
	)
	if n := rpass.CountInterruptions(root); n != 0 {
		t.Fatalf("CountInterruptions = %d, want 0 (no render resumes after the RTT node)", n)
	}
}

func TestCountInterruptionsAcrossNestedGroups(t *testing.T) {
	root := group(
		leaf(rpass.KindRender),
		group(leaf(rpass.KindRTTOrCompute)),
		leaf(rpass.KindRender),
		leaf(rpass.KindRTTOrCompute),
		leaf(rpass.KindRender),
	)
	if n := rpass.CountInterruptions(root); n != 2 {
		t.Fatalf("CountInterruptions = %d, want 2", n)
	}
}

func TestColorAttachmentUsageSetsTransientOnlyWhenUninterrupted(t *testing.T) {
	u := rpass.ColorAttachmentUsage(0, 0)
	if u&gpu.TexUsageColorAttachment == 0 {
		t.Fatal("ColorAttachmentUsage did not set TexUsageColorAttachment")
	}
	if u&gpu.TexUsageTransient == 0 {
		t.Fatal("ColorAttachmentUsage(0, 0) should set TexUsageTransient")
	}

	u = rpass.ColorAttachmentUsage(0, 1)
	if u&gpu.TexUsageTransient != 0 {
		t.Fatal("ColorAttachmentUsage(0, 1) should not set TexUsageTransient")
	}
}

func TestDepthAttachmentUsageSetsTransientOnlyWhenUninterrupted(t *testing.T) {
	u := rpass.DepthAttachmentUsage(0, 0)
	if u&gpu.TexUsageDepthStencilAttachment == 0 {
		t.Fatal("DepthAttachmentUsage did not set TexUsageDepthStencilAttachment")
	}
	if u&gpu.TexUsageTransient == 0 {
		t.Fatal("DepthAttachmentUsage(0, 0) should set TexUsageTransient")
	}

	u = rpass.DepthAttachmentUsage(0, 2)
	if u&gpu.TexUsageTransient != 0 {
		t.Fatal("DepthAttachmentUsage(0, 2) should not set TexUsageTransient")
	}
}

// fakeTexture is the minimal gpu.Texture needed to drive Prepare
// without a real backend. gpu.Texture embeds gpu.RefCounted, whose
// ref/unref methods are unexported and so cannot be implemented
// from this package directly; embedding the (nil) interface
// promotes a method set that satisfies it, which is safe here
// since rpass never calls them.
type fakeTexture struct {
	gpu.Texture
	params      gpu.TextureParams
	mipmapCalls int
	uploadCalls int
	destroyed   bool
}

func (t *fakeTexture) Destroy()                                { t.destroyed = true }
func (t *fakeTexture) Params() gpu.TextureParams                { return t.params }
func (t *fakeTexture) Upload(data []byte, linesize int) error   { t.uploadCalls++; return nil }
func (t *fakeTexture) UploadWithParams(data []byte, p gpu.UploadParams) error {
	t.uploadCalls++
	return nil
}
func (t *fakeTexture) GenerateMipmap() error { t.mipmapCalls++; return nil }

// fakeRendertarget is the minimal gpu.Rendertarget Prepare needs.
// See fakeTexture for why gpu.Rendertarget is embedded.
type fakeRendertarget struct {
	gpu.Rendertarget
	params    gpu.RendertargetParams
	destroyed bool
}

func (rt *fakeRendertarget) Destroy()                       { rt.destroyed = true }
func (rt *fakeRendertarget) Layout() gpu.RendertargetLayout { return gpu.RendertargetLayout{} }
func (rt *fakeRendertarget) Params() gpu.RendertargetParams { return rt.params }
func (rt *fakeRendertarget) Width() int                     { return 0 }
func (rt *fakeRendertarget) Height() int                    { return 0 }

// fakeCtx implements just enough of gpu.Context for Prepare/Walker.
type fakeCtx struct {
	gpu.Context
	features        gpu.Features
	newTextureCalls []gpu.TextureParams
	rendertargets   []*fakeRendertarget
	beginRP, endRP  int
}

func (c *fakeCtx) Features() gpu.Features { return c.features }

func (c *fakeCtx) NewTexture(p gpu.TextureParams) (gpu.Texture, error) {
	c.newTextureCalls = append(c.newTextureCalls, p)
	return &fakeTexture{params: p}, nil
}

func (c *fakeCtx) NewRendertarget(p gpu.RendertargetParams) (gpu.Rendertarget, error) {
	rt := &fakeRendertarget{params: p}
	c.rendertargets = append(c.rendertargets, rt)
	return rt, nil
}

func (c *fakeCtx) RendertargetUVCoordMatrix(m *[16]float32) { m[0] = 1 }

func (c *fakeCtx) BeginRenderPass(cb gpu.CmdBuffer, rt gpu.Rendertarget) error {
	c.beginRP++
	return nil
}

func (c *fakeCtx) EndRenderPass(cb gpu.CmdBuffer) { c.endRP++ }

func colorTex(w, h int) *fakeTexture {
	return &fakeTexture{params: gpu.TextureParams{
		Type: gpu.Texture2D, Width: w, Height: h, Layers: 1,
		Usage: gpu.TexUsageColorAttachment,
	}}
}

func TestPrepareRejectsMismatchedDimensions(t *testing.T) {
	ctx := &fakeCtx{}
	_, err := rpass.Prepare(ctx, rpass.Params{
		Colors: []rpass.ColorTarget{
			{Texture: colorTex(256, 256)},
			{Texture: colorTex(128, 128)},
		},
	})
	if err == nil {
		t.Fatal("Prepare did not reject mismatched color dimensions")
	}
}

func TestPrepareRejectsMissingUsage(t *testing.T) {
	ctx := &fakeCtx{}
	bad := &fakeTexture{params: gpu.TextureParams{Type: gpu.Texture2D, Width: 64, Height: 64, Layers: 1}}
	_, err := rpass.Prepare(ctx, rpass.Params{
		Colors: []rpass.ColorTarget{{Texture: bad}},
	})
	if err == nil {
		t.Fatal("Prepare did not reject a color texture missing TexUsageColorAttachment")
	}
}

func TestPrepareNoInterruptionsBuildsOnlyClearTarget(t *testing.T) {
	ctx := &fakeCtx{}
	p, err := rpass.Prepare(ctx, rpass.Params{
		Colors:        []rpass.ColorTarget{{Texture: colorTex(64, 64)}},
		Interruptions: 0,
	})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(ctx.rendertargets) != 1 {
		t.Fatalf("rendertargets built = %d, want 1 (no load variant needed)", len(ctx.rendertargets))
	}
	if p.Width() != 64 || p.Height() != 64 {
		t.Fatalf("Width/Height = %d/%d, want 64/64", p.Width(), p.Height())
	}
}

func TestPrepareInterruptedBuildsClearAndLoadTargets(t *testing.T) {
	ctx := &fakeCtx{}
	_, err := rpass.Prepare(ctx, rpass.Params{
		Colors:        []rpass.ColorTarget{{Texture: colorTex(64, 64)}},
		Interruptions: 1,
	})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(ctx.rendertargets) != 2 {
		t.Fatalf("rendertargets built = %d, want 2 (clear and load)", len(ctx.rendertargets))
	}
	load := ctx.rendertargets[1]
	if load.params.Colors[0].Load != gpu.LoadLoad {
		t.Fatal("load rendertarget's color attachment does not use LoadLoad")
	}
}

func TestPrepareDowngradesSamplesWithoutResolveFeature(t *testing.T) {
	ctx := &fakeCtx{} // no FeatureColorResolve
	_, err := rpass.Prepare(ctx, rpass.Params{
		Colors:  []rpass.ColorTarget{{Texture: colorTex(64, 64)}},
		Samples: 4,
	})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(ctx.newTextureCalls) != 0 {
		t.Fatal("Prepare allocated a multisample texture despite the context lacking FeatureColorResolve")
	}
}

func TestPrepareKeepsSamplesWithResolveFeature(t *testing.T) {
	ctx := &fakeCtx{features: gpu.FeatureColorResolve}
	_, err := rpass.Prepare(ctx, rpass.Params{
		Colors:  []rpass.ColorTarget{{Texture: colorTex(64, 64)}},
		Samples: 4,
	})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(ctx.newTextureCalls) != 1 {
		t.Fatalf("multisample textures allocated = %d, want 1", len(ctx.newTextureCalls))
	}
}

func TestPrepareWritesUVMatrix(t *testing.T) {
	ctx := &fakeCtx{}
	var uv [16]float32
	_, err := rpass.Prepare(ctx, rpass.Params{
		Colors: []rpass.ColorTarget{{Texture: colorTex(64, 64), UVMatrix: &uv}},
	})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if uv[0] != 1 {
		t.Fatal("Prepare did not write the context's rendertarget UV matrix into the target")
	}
}

func TestWalkerEnterRTTBracketsAndRestoresTarget(t *testing.T) {
	ctx := &fakeCtx{}
	tex := colorTex(64, 64)
	p, err := rpass.Prepare(ctx, rpass.Params{
		Colors: []rpass.ColorTarget{{Texture: tex, MipmapFilter: gpu.MipLinear}},
	})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	outerClear := &fakeRendertarget{}
	w := rpass.NewWalker(ctx, nil)
	if err := w.BeginTarget(outerClear, nil); err != nil {
		t.Fatalf("BeginTarget: %v", err)
	}

	ran := false
	if err := w.EnterRTT(p, func() error { ran = true; return nil }); err != nil {
		t.Fatalf("EnterRTT: %v", err)
	}
	if !ran {
		t.Fatal("EnterRTT did not call fn")
	}
	// BeginTarget (outer) + BeginRenderPass(clear) + Resume == 3 begins;
	// Interrupt + End == 2 ends.
	if ctx.beginRP != 3 {
		t.Fatalf("BeginRenderPass calls = %d, want 3", ctx.beginRP)
	}
	if ctx.endRP != 2 {
		t.Fatalf("EndRenderPass calls = %d, want 2", ctx.endRP)
	}
	if tex.mipmapCalls != 1 {
		t.Fatalf("GenerateMipmap calls = %d, want 1", tex.mipmapCalls)
	}
}

func TestWalkerRejectsNestedRTT(t *testing.T) {
	ctx := &fakeCtx{}
	p, err := rpass.Prepare(ctx, rpass.Params{
		Colors: []rpass.ColorTarget{{Texture: colorTex(64, 64)}},
	})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	w := rpass.NewWalker(ctx, nil)
	err = w.EnterRTT(p, func() error {
		return w.EnterRTT(p, func() error { return nil })
	})
	if err != rpass.ErrNestedRTT {
		t.Fatalf("EnterRTT (nested) = %v, want ErrNestedRTT", err)
	}
}
